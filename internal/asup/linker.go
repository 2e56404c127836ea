package asup

import (
	"strings"
)

// RetentionLock is the retention-lock configuration of one volume
type RetentionLock struct {
	Enabled      string `json:"retention_lock"`
	Mode         string `json:"lock_mode"`
	MinRetention string `json:"min_retention_period"`
	MaxRetention string `json:"max_retention_period"`
}

// Replication is the replication context that targets one volume
type Replication struct {
	Mode    string `json:"mode"`
	Host    string `json:"connection_host"`
	Enabled string `json:"enabled"`
}

// unlinkedRetention and unlinkedReplication fill volume rows that have no
// entry in the corresponding section
var (
	unlinkedRetention   = RetentionLock{NotAvailable, NotAvailable, NotAvailable, NotAvailable}
	unlinkedReplication = Replication{NotAvailable, NotAvailable, NotAvailable}
)

// LinkOptions controls how volume paths are matched across sections
type LinkOptions struct {
	// TrimTrailingSlash drops a trailing "/" from both sides of the join.
	// Off by default: paths are matched byte for byte.
	TrimTrailingSlash bool
}

// String names the join mode. Results parsed under different modes are
// not interchangeable.
func (o LinkOptions) String() string {
	if o.TrimTrailingSlash {
		return "trim-trailing-slash"
	}
	return "exact"
}

func (o LinkOptions) key(path string) string {
	if o.TrimTrailingSlash {
		return strings.TrimRight(path, "/")
	}
	return path
}

var retentionBlocks = section(
	`Mtree: (/data/col1/\S+)\s*\n\s*Option\s+Value\s*\n-+\s+-+\s*\n`,
	false,
	`\n-+\s+-+`,
)

// Retention-lock option names as printed in the options table
const (
	optRetentionLock = "Retention-lock"
	optLockMode      = "Retention-lock mode"
	optMinRetention  = "Retention-lock min-retention-period"
	optMaxRetention  = "Retention-lock max-retention-period"
)

// ParseRetentionLocks reads every "Mtree: <path>" option table. Volumes
// listed without a Retention-lock option default to disabled.
func ParseRetentionLocks(text string) map[string]RetentionLock {
	locks := make(map[string]RetentionLock)
	for _, span := range retentionBlocks.FindAll(text) {
		info := RetentionLock{
			Enabled:      "disabled",
			Mode:         NotAvailable,
			MinRetention: NotAvailable,
			MaxRetention: NotAvailable,
		}
		for _, line := range strings.Split(strings.TrimSpace(span.Body(text)), "\n") {
			parts := splitDelimited(line)
			if len(parts) < retentionOptionMinFields {
				continue
			}
			option, value := parts[0], parts[1]
			switch option {
			case optRetentionLock:
				// "enabled" or e.g. "disabled (never enabled)"
				if strings.HasPrefix(strings.ToLower(value), "enabled") {
					info.Enabled = "enabled"
				} else {
					info.Enabled = "disabled"
				}
			case optLockMode:
				info.Mode = value
			case optMinRetention:
				info.MinRetention = value
			case optMaxRetention:
				info.MaxRetention = value
			}
		}
		locks[span.Key] = info
	}
	return locks
}

var replicationBlocks = section(`CTX:\s+\d+\s*\n`, true, `CTX:\s+\d+`, `Replication Options`)

const (
	replColMtree   = "mtree"
	replColMode    = "mode"
	replColHost    = "host"
	replColEnabled = "enabled"
)

var replicationLayout = keywordLayout{
	fields: []keywordField{
		{label: "Mode:", column: replColMode},
		{label: "Destination:", column: replColMtree, value: destinationVolume},
		{label: "Connection Host:", column: replColHost, value: shortHost},
		{label: "Enabled:", column: replColEnabled},
	},
	columns:  []string{replColMode, replColHost, replColEnabled},
	required: []string{replColMtree},
}

// destinationVolume turns "mtree://host.domain/data/col1/name" into
// "/data/col1/name"
func destinationVolume(v string) (string, bool) {
	i := strings.LastIndex(v, VolumePathPrefix)
	if i < 0 {
		return "", false
	}
	return VolumePathPrefix + v[i+len(VolumePathPrefix):], true
}

// shortHost drops the domain part of a host name
func shortHost(v string) (string, bool) {
	if i := strings.Index(v, "."); i >= 0 {
		return v[:i], true
	}
	return v, true
}

// ParseReplication reads every "CTX: <n>" replication context and keys it
// by destination volume. Contexts whose destination is not a volume path
// are ignored.
func ParseReplication(text string) map[string]Replication {
	contexts := make(map[string]Replication)
	for _, span := range replicationBlocks.FindAll(text) {
		for _, row := range replicationLayout.decode(span.Body(text)) {
			contexts[row[replColMtree]] = Replication{
				Mode:    row[replColMode],
				Host:    row[replColHost],
				Enabled: row[replColEnabled],
			}
		}
	}
	return contexts
}

// LinkVolumes returns copies of the volume list rows with retention-lock
// and replication columns filled. A volume missing from either lookup gets
// the all-N/A values for that side.
func LinkVolumes(rows []Row, retention map[string]RetentionLock, replication map[string]Replication, opts LinkOptions) []Row {
	ret := make(map[string]RetentionLock, len(retention))
	for k, v := range retention {
		ret[opts.key(k)] = v
	}
	repl := make(map[string]Replication, len(replication))
	for k, v := range replication {
		repl[opts.key(k)] = v
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		row := r.clone()
		name := opts.key(row.Get(ColName))

		lock, ok := ret[name]
		if !ok {
			lock = unlinkedRetention
		}
		rc, ok := repl[name]
		if !ok {
			rc = unlinkedReplication
		}

		row[ColRetentionLock] = lock.Enabled
		row[ColLockMode] = lock.Mode
		row[ColMinRetention] = lock.MinRetention
		row[ColMaxRetention] = lock.MaxRetention
		row[ColReplicationMode] = rc.Mode
		row[ColReplicationHost] = rc.Host
		row[ColReplicationEnabled] = rc.Enabled
		out = append(out, row)
	}
	return out
}
