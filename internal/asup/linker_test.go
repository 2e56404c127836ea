package asup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRetentionLocks(t *testing.T) {
	locks := ParseRetentionLocks(loadSample(t))

	assert.Equal(t, map[string]RetentionLock{
		"/data/col1/backup": {
			Enabled:      "enabled",
			Mode:         "compliance",
			MinRetention: "12hr",
			MaxRetention: "5year",
		},
		"/data/col1/archive": {
			Enabled:      "disabled",
			Mode:         NotAvailable,
			MinRetention: NotAvailable,
			MaxRetention: NotAvailable,
		},
	}, locks)
}

func TestParseRetentionLocksWithoutLockOption(t *testing.T) {
	text := "Mtree: /data/col1/plain\nOption   Value\n------   -----\nquota    none\n------   -----\n"
	locks := ParseRetentionLocks(text)

	require.Contains(t, locks, "/data/col1/plain")
	assert.Equal(t, "disabled", locks["/data/col1/plain"].Enabled)
	assert.Equal(t, NotAvailable, locks["/data/col1/plain"].Mode)
}

func TestParseReplication(t *testing.T) {
	contexts := ParseReplication(loadSample(t))

	assert.Equal(t, map[string]Replication{
		"/data/col1/repl_dest": {Mode: "destination", Host: "ddr02", Enabled: "yes"},
	}, contexts)
}

func TestParseReplicationMissingFields(t *testing.T) {
	text := "CTX: 7\nDestination: mtree://dd.example.com/data/col1/target\n"
	contexts := ParseReplication(text)

	assert.Equal(t, map[string]Replication{
		"/data/col1/target": {Mode: NotAvailable, Host: NotAvailable, Enabled: NotAvailable},
	}, contexts)
}

func TestDestinationVolume(t *testing.T) {
	v, ok := destinationVolume("mtree://ddr01.example.com/data/col1/repl_dest")
	assert.True(t, ok)
	assert.Equal(t, "/data/col1/repl_dest", v)

	_, ok = destinationVolume("dir://ddr03/backup/offsite")
	assert.False(t, ok)
}

func TestShortHost(t *testing.T) {
	h, _ := shortHost("ddr02.example.com")
	assert.Equal(t, "ddr02", h)
	h, _ = shortHost("ddr03")
	assert.Equal(t, "ddr03", h)
}

func TestLinkVolumes(t *testing.T) {
	rows := []Row{
		{ColName: "/data/col1/backup", ColPreCompGiB: "1.0", ColStatus: "RW"},
		{ColName: "/data/col1/repl/", ColPreCompGiB: "2.0", ColStatus: "RO"},
		{ColName: "/data/col1/other", ColPreCompGiB: "3.0", ColStatus: "RW"},
	}
	retention := map[string]RetentionLock{
		"/data/col1/backup": {"enabled", "governance", "1day", "1year"},
	}
	replication := map[string]Replication{
		"/data/col1/repl": {"destination", "ddr09", "yes"},
	}

	linked := LinkVolumes(rows, retention, replication, LinkOptions{})
	require.Len(t, linked, 3)

	assert.Equal(t, Row{
		ColName:               "/data/col1/backup",
		ColPreCompGiB:         "1.0",
		ColStatus:             "RW",
		ColRetentionLock:      "enabled",
		ColLockMode:           "governance",
		ColMinRetention:       "1day",
		ColMaxRetention:       "1year",
		ColReplicationMode:    NotAvailable,
		ColReplicationHost:    NotAvailable,
		ColReplicationEnabled: NotAvailable,
	}, linked[0])

	// trailing slash does not match by default
	assert.Equal(t, NotAvailable, linked[1][ColReplicationMode])
	assert.Equal(t, NotAvailable, linked[2][ColRetentionLock])

	// inputs are not modified
	assert.NotContains(t, rows[0], ColRetentionLock)

	trimmed := LinkVolumes(rows, retention, replication, LinkOptions{TrimTrailingSlash: true})
	assert.Equal(t, "destination", trimmed[1][ColReplicationMode])
	assert.Equal(t, "ddr09", trimmed[1][ColReplicationHost])
	assert.Equal(t, "/data/col1/repl/", trimmed[1][ColName])
}

func TestVolumeListLinkedFromSample(t *testing.T) {
	text := loadSample(t)

	rows := func(opts LinkOptions) map[string]Row {
		var list Table
		for _, table := range ParseStorageTables(text, nil, opts) {
			if table.Name == TableMtreeList {
				list = table
			}
		}
		out := make(map[string]Row)
		for _, r := range list.Rows {
			out[r[ColName]] = r
		}
		return out
	}

	exact := rows(LinkOptions{})
	assert.Equal(t, "enabled", exact["/data/col1/backup"][ColRetentionLock])
	assert.Equal(t, "compliance", exact["/data/col1/backup"][ColLockMode])
	assert.Equal(t, NotAvailable, exact["/data/col1/backup"][ColReplicationMode])

	assert.Equal(t, NotAvailable, exact["/data/col1/repl_dest"][ColRetentionLock])
	assert.Equal(t, "destination", exact["/data/col1/repl_dest"][ColReplicationMode])
	assert.Equal(t, "ddr02", exact["/data/col1/repl_dest"][ColReplicationHost])
	assert.Equal(t, "yes", exact["/data/col1/repl_dest"][ColReplicationEnabled])

	assert.Equal(t, NotAvailable, exact["/data/col1/archive/"][ColRetentionLock])

	trimmed := rows(LinkOptions{TrimTrailingSlash: true})
	assert.Equal(t, "disabled", trimmed["/data/col1/archive/"][ColRetentionLock])
}
