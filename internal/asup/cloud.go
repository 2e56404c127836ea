package asup

import (
	"strings"
)

// Cloud profile columns
const (
	ColProfileName   = "Profile_Name"
	ColProvider      = "Provider"
	ColEndpoint      = "Endpoint"
	ColVersion       = "Version"
	ColProxyHost     = "Proxy_Host"
	ColProxyPort     = "Proxy_Port"
	ColProxyUsername = "Proxy_Username"
)

// Cloud data-movement columns
const (
	ColTarget = "Target"
	ColPolicy = "Policy"
	ColValue  = "Value"
)

var cloudProfilesSection = section(`Cloud Profiles\s*\n-{10,}\s*\n`, true, `\nCloud Unit List`, `\nCloud Data-Movement`)

var cloudProfileLayout = keywordLayout{
	primary: "Profile name:",
	fields: []keywordField{
		{label: "Profile name:", column: ColProfileName},
		{label: "Provider:", column: ColProvider},
		{label: "Endpoint:", column: ColEndpoint},
		{label: "Version:", column: ColVersion},
		{label: "Proxy host:", column: ColProxyHost},
		{label: "Proxy port:", column: ColProxyPort},
		{label: "Proxy username:", column: ColProxyUsername},
	},
	columns:  familyColumns[FamilyCloudProfile],
	required: []string{ColProfileName, ColProvider},
}

var cloudMovementSection = section(`Cloud Data-Movement Configuration\s*\n-{30,}`, false, `\nData-movement is scheduled`)

var cloudMovementLayout = fixedWidth{
	widths:   []int{movementVolumeWidth, movementTargetWidth, movementPolicyWidth},
	minWidth: movementMinWidth,
}

func emptyTable(name string, family Family) Table {
	return Table{
		Name:    name,
		Family:  family,
		Columns: Columns(family),
		Rows:    []Row{},
		Note:    NotAvailable,
	}
}

// ParseCloudProfiles decodes the "Cloud Profiles" block. Profiles need at
// least a name and a provider; every other attribute defaults to N/A.
func ParseCloudProfiles(text string, obs Observer) Table {
	if obs == nil {
		obs = NopObserver{}
	}
	t := emptyTable(TableCloudProfiles, FamilyCloudProfile)
	span, ok := cloudProfilesSection.Find(text)
	if !ok {
		obs.SectionMissing(t.Name)
		return t
	}
	if rows := cloudProfileLayout.decode(span.Body(text)); len(rows) > 0 {
		t.Rows = rows
	}
	obs.TableDecoded(t.Name, len(t.Rows))
	return t
}

// ParseCloudMovement decodes the fixed-width data-movement policy table
func ParseCloudMovement(text string, obs Observer) Table {
	if obs == nil {
		obs = NopObserver{}
	}
	t := emptyTable(TableCloudDataMovement, FamilyCloudMovement)
	span, ok := cloudMovementSection.Find(text)
	if !ok {
		obs.SectionMissing(t.Name)
		return t
	}
	for _, raw := range strings.Split(strings.TrimSpace(span.Body(text)), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "Mtree") ||
			strings.Contains(line, "Target(Tier/Unit Name)") {
			continue
		}
		row, ok := decodeMovementLine(line)
		if !ok {
			obs.RowDiscarded(t.Name, raw)
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	obs.TableDecoded(t.Name, len(t.Rows))
	return t
}

func decodeMovementLine(line string) (Row, bool) {
	if !strings.HasPrefix(line, VolumePathPrefix) {
		return nil, false
	}
	cols, value, ok := cloudMovementLayout.slice(line)
	if !ok || value == "" {
		return nil, false
	}
	for _, c := range cols {
		if c == "" {
			return nil, false
		}
	}
	return Row{
		ColMtree:  cols[0],
		ColTarget: cols[1],
		ColPolicy: cols[2],
		ColValue:  value,
	}, true
}
