package asup

import (
	"regexp"
	"strings"
)

// Storage table names
const (
	TableActiveTierUsage            = "Active Tier Usage"
	TableCloudTierUsage             = "Cloud Tier Usage"
	TableTotalUsage                 = "Total Usage"
	TableActiveTierCompression      = "Active Tier Compression"
	TableCloudTierCompression       = "Cloud Tier Compression"
	TableCurrentlyUsedSummary       = "Currently Used Summary"
	TableMtreeActiveTierCompression = "Mtree Active Tier Compression"
	TableMtreeCloudTierCompression  = "Mtree Cloud Tier Compression"
	TableMtreeList                  = "Mtree List"
	TableCloudProfiles              = "Cloud Profiles"
	TableCloudDataMovement          = "Cloud Data-Movement"
)

// Usage columns
const (
	ColResource     = "Resource"
	ColSizeGiB      = "Size_GiB"
	ColUsedGiB      = "Used_GiB"
	ColAvailGiB     = "Avail_GiB"
	ColUsePercent   = "Use_Percent"
	ColCleanableGiB = "Cleanable_GiB"
)

// Compression columns
const (
	ColMetric           = "Metric"
	ColPreCompGiB       = "Pre_Comp_GiB"
	ColPostCompGiB      = "Post_Comp_GiB"
	ColGlobalCompFactor = "Global_Comp_Factor"
	ColLocalCompFactor  = "Local_Comp_Factor"
	ColTotalCompFactor  = "Total_Comp_Factor"
)

// Volume compression columns
const (
	ColMtree          = "Mtree"
	ColPre24hrsGiB    = "Pre_24hrs_GiB"
	ColPost24hrsGiB   = "Post_24hrs_GiB"
	ColGlobal24hrs    = "Global_24hrs"
	ColLocal24hrs     = "Local_24hrs"
	ColTotal24hrs     = "Total_24hrs"
	ColReduction24hrs = "Reduction_24hrs_Percent"
	ColPre7daysGiB    = "Pre_7days_GiB"
	ColPost7daysGiB   = "Post_7days_GiB"
	ColGlobal7days    = "Global_7days"
	ColLocal7days     = "Local_7days"
	ColTotal7days     = "Total_7days"
	ColReduction7days = "Reduction_7days_Percent"
)

// Volume list columns
const (
	ColName               = "Name"
	ColStatus             = "Status"
	ColRetentionLock      = "Retention_Lock"
	ColLockMode           = "Lock_Mode"
	ColMinRetention       = "Min_Retention_Period"
	ColMaxRetention       = "Max_Retention_Period"
	ColReplicationMode    = "Replication_Mode"
	ColReplicationHost    = "Replication_Host"
	ColReplicationEnabled = "Replication_Enabled"
)

var familyColumns = map[Family][]string{
	FamilyUsage: {
		ColResource, ColSizeGiB, ColUsedGiB, ColAvailGiB, ColUsePercent, ColCleanableGiB,
	},
	FamilyCompression: {
		ColMetric, ColPreCompGiB, ColPostCompGiB, ColGlobalCompFactor, ColLocalCompFactor, ColTotalCompFactor,
	},
	FamilyVolumeCompression: {
		ColMtree,
		ColPre24hrsGiB, ColPost24hrsGiB, ColGlobal24hrs, ColLocal24hrs, ColTotal24hrs, ColReduction24hrs,
		ColPre7daysGiB, ColPost7daysGiB, ColGlobal7days, ColLocal7days, ColTotal7days, ColReduction7days,
	},
	FamilyVolumeList: {
		ColName, ColPreCompGiB, ColStatus,
		ColRetentionLock, ColLockMode, ColMinRetention, ColMaxRetention,
		ColReplicationMode, ColReplicationHost, ColReplicationEnabled,
	},
	FamilyCloudProfile: {
		ColProfileName, ColProvider, ColEndpoint, ColVersion, ColProxyHost, ColProxyPort, ColProxyUsername,
	},
	FamilyCloudMovement: {
		ColMtree, ColTarget, ColPolicy, ColValue,
	},
}

// Columns returns the fixed column set of a family
func Columns(f Family) []string {
	return append([]string(nil), familyColumns[f]...)
}

// tableRule binds a table name to its section and line decoder
type tableRule struct {
	name    string
	family  Family
	section Locator
	decode  lineDecoder
}

var storageTables = []tableRule{
	{
		name:    TableActiveTierUsage,
		family:  FamilyUsage,
		section: section(`Active Tier:\s*\nResource[^\n]*\n`, true, `\n\s*\* `, `\n\s*Cloud Tier`),
		decode:  decodeUsageLine,
	},
	{
		name:    TableCloudTierUsage,
		family:  FamilyUsage,
		section: section(`Cloud Tier\s*\nResource[^\n]*\n`, true, `\n\s*\* `, `\n\s*Total:`),
		decode:  decodeUsageLine,
	},
	{
		name:    TableTotalUsage,
		family:  FamilyUsage,
		section: section(`Total:\s*\nResource[^\n]*\n`, true, `\n\s*\* `),
		decode:  decodeUsageLine,
	},
	{
		name:    TableActiveTierCompression,
		family:  FamilyCompression,
		section: section(`(?s)Active Tier:\s*\n\s*Pre-Comp.*?Total-Comp[^\n]*\n[^\n]*\n`, false, `(?s)\n\s*\*.*?cleaning`, `\n\s*Cloud Tier:`),
		decode:  decodeCompressionLine,
	},
	{
		name:    TableCloudTierCompression,
		family:  FamilyCompression,
		section: section(`(?s)Filesys Compression.*?Cloud Tier:\s*\n.*?-{10,}\s*\n`, false, `\n\s*\* Does not include`),
		decode:  decodeCompressionLine,
	},
	{
		name:    TableCurrentlyUsedSummary,
		family:  FamilyCompression,
		section: section(`(?s)Currently Used:\*\s*\n\s*Pre-Comp.*?Total-Comp[^\n]*\n[^\n]*\n`, false, `\n\s*Key:`),
		decode:  decodeCompressionLine,
	},
	{
		name:    TableMtreeActiveTierCompression,
		family:  FamilyVolumeCompression,
		section: section(`Mtree Show Compression[^\n]*\n(?:[^\n]*\n)*?Active Tier:[^\n]*\n-{10,}[^\n]*\n`, false, `-{10,}`, `Cloud Tier:`),
		decode:  decodeVolumeCompressionLine,
	},
	{
		name:    TableMtreeCloudTierCompression,
		family:  FamilyVolumeCompression,
		section: section(`Mtree Show Compression[^\n]*\n(?:[^\n]*\n)*?Cloud Tier:[^\n]*\n-{10,}[^\n]*\n`, false, `-{10,}`, `Key:`),
		decode:  decodeVolumeCompressionLine,
	},
	{
		name:    TableMtreeList,
		family:  FamilyVolumeList,
		section: section(`Mtree List\s*\n-{5,}\s*\nName[^\n]*Pre-Comp[^\n]*Status[^\n]*\n-{10,}[^\n]*\n`, true, `-{10,}`, `\nMtree Options`),
		decode:  decodeVolumeListLine,
	},
}

// TableNames lists the storage tables in output order
func TableNames() []string {
	names := make([]string, 0, len(storageTables))
	for _, r := range storageTables {
		names = append(names, r.name)
	}
	return names
}

func decodeUsageLine(line string) (Row, bool) {
	if !strings.HasPrefix(strings.TrimSpace(line), "/") {
		return nil, false
	}
	layout := fixedWidth{widths: []int{usageResourceWidth}, minWidth: usageMinWidth}
	cols, rest, ok := layout.slice(cleanLine(line))
	if !ok {
		return nil, false
	}
	values := strings.Fields(rest)
	if len(values) == 0 {
		return nil, false
	}
	row := Row{ColResource: cols[0]}
	fillColumns(row, familyColumns[FamilyUsage][1:], values)
	return row, true
}

var compressionLabels = []string{"Currently Used", "Last 7 days", "Last 24 hrs", "Active Tier", "Cloud Tier", "Total", "Written"}

func decodeCompressionLine(line string) (Row, bool) {
	t := strings.TrimSpace(line)
	if t == "" || strings.HasPrefix(t, "(") || strings.HasPrefix(t, "Key:") {
		return nil, false
	}
	clean := cleanLine(line)
	if !strings.Contains(clean, ":") && !containsAny(clean, compressionLabels) {
		return nil, false
	}
	parts := strings.Fields(clean)
	if len(parts) < 2 {
		return nil, false
	}
	metric, values := splitMetric(parts)
	if len(values) < compressionMinValues {
		return nil, false
	}
	row := Row{ColMetric: metric}
	fillColumns(row, familyColumns[FamilyCompression][1:], values)
	return row, true
}

// splitMetric separates the leading metric label from the value tokens
func splitMetric(parts []string) (string, []string) {
	switch parts[0] {
	case "Currently":
		if parts[1] == "Used:" {
			return "Currently Used", parts[2:]
		}
	case "Last":
		if len(parts) > 2 {
			return strings.Join(parts[:3], " "), parts[3:]
		}
	case "Active", "Cloud":
		// the tier label keeps its colon, e.g. "Active Tier:"
		return parts[0] + " " + parts[1], parts[2:]
	case "Total":
		return "Total", parts[1:]
	case "Written:":
		return "Written", parts[1:]
	default:
		return strings.TrimRight(parts[0], ":"), parts[1:]
	}
	return parts[0], parts[1:]
}

var volumeCompressionLine = regexp.MustCompile(`^(/data/col1/\S+)\s+(.*)`)

func decodeVolumeCompressionLine(line string) (Row, bool) {
	if !strings.HasPrefix(strings.TrimSpace(line), VolumePathPrefix) {
		return nil, false
	}
	clean := cleanLine(line)
	if len(clean) < volumeCompressionMinWidth {
		return nil, false
	}
	m := volumeCompressionLine.FindStringSubmatch(clean)
	if m == nil {
		return nil, false
	}
	values := strings.Fields(m[2])
	if len(values) < volumeCompressionMinValues {
		return nil, false
	}
	total24, reduction24 := splitTotalReduction(values[4])
	total7, reduction7 := splitTotalReduction(values[9])
	return Row{
		ColMtree:          m[1],
		ColPre24hrsGiB:    values[0],
		ColPost24hrsGiB:   values[1],
		ColGlobal24hrs:    values[2],
		ColLocal24hrs:     values[3],
		ColTotal24hrs:     total24,
		ColReduction24hrs: reduction24,
		ColPre7daysGiB:    values[5],
		ColPost7daysGiB:   values[6],
		ColGlobal7days:    values[7],
		ColLocal7days:     values[8],
		ColTotal7days:     total7,
		ColReduction7days: reduction7,
	}, true
}

// splitTotalReduction splits "10.0x(90.0%)" into "10.0x" and "90.0%"
func splitTotalReduction(v string) (string, string) {
	open := strings.Index(v, "(")
	if open < 0 || !strings.Contains(v, ")") {
		return v, NotAvailable
	}
	inner := v[open+1:]
	if i := strings.Index(inner, "("); i >= 0 {
		inner = inner[:i]
	}
	return v[:open], strings.TrimRight(inner, ")")
}

func decodeVolumeListLine(line string) (Row, bool) {
	if !strings.HasPrefix(strings.TrimSpace(line), VolumePathPrefix) {
		return nil, false
	}
	parts := splitDelimited(cleanLine(line))
	if len(parts) < volumeListMinFields {
		return nil, false
	}
	return Row{
		ColName:       parts[0],
		ColPreCompGiB: parts[1],
		ColStatus:     parts[2],
	}, true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

const noteWindow = 500

// noteAfter collects the "* ..." annotation lines that follow a table body
func noteAfter(text string, end int) string {
	stop := end + noteWindow
	if stop > len(text) {
		stop = len(text)
	}
	var notes []string
	for _, line := range strings.Split(text[end:stop], "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "*") {
			notes = append(notes, t)
		} else if t != "" && len(notes) > 0 {
			break
		}
	}
	if len(notes) == 0 {
		return NotAvailable
	}
	return strings.Join(notes, " ")
}

// decodeTable runs a line decoder over a section body. Chrome lines are
// skipped quietly; other lines the decoder rejects go to the observer.
func decodeTable(rule tableRule, body string, obs Observer) []Row {
	rows := []Row{}
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		if isTableChrome(line) {
			continue
		}
		row, ok := rule.decode(line)
		if !ok {
			obs.RowDiscarded(rule.name, line)
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// ParseStorageTables locates and decodes every storage table. Mtree List
// rows are enriched with retention-lock and replication data.
func ParseStorageTables(text string, obs Observer, link LinkOptions) []Table {
	if obs == nil {
		obs = NopObserver{}
	}
	retention := ParseRetentionLocks(text)
	replication := ParseReplication(text)

	tables := make([]Table, 0, len(storageTables))
	for _, rule := range storageTables {
		t := Table{
			Name:    rule.name,
			Family:  rule.family,
			Columns: Columns(rule.family),
			Rows:    []Row{},
			Note:    NotAvailable,
		}
		span, ok := rule.section.Find(text)
		if !ok {
			obs.SectionMissing(rule.name)
			tables = append(tables, t)
			continue
		}
		t.Rows = decodeTable(rule, span.Body(text), obs)
		if rule.family == FamilyVolumeList {
			t.Rows = LinkVolumes(t.Rows, retention, replication, link)
		}
		t.Note = noteAfter(text, span.End)
		obs.TableDecoded(rule.name, len(t.Rows))
		tables = append(tables, t)
	}
	return tables
}
