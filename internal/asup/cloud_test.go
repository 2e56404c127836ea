package asup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCloudProfiles(t *testing.T) {
	table := ParseCloudProfiles(loadSample(t), nil)

	assert.Equal(t, TableCloudProfiles, table.Name)
	assert.Equal(t, Columns(FamilyCloudProfile), table.Columns)
	assert.Equal(t, []Row{
		{
			ColProfileName:   "ecs-profile",
			ColProvider:      "ecs",
			ColEndpoint:      "https://ecs.example.com:9021",
			ColVersion:       "3.6",
			ColProxyHost:     NotAvailable,
			ColProxyPort:     "3128",
			ColProxyUsername: NotAvailable,
		},
		{
			ColProfileName:   "aws-profile",
			ColProvider:      "aws",
			ColEndpoint:      "https://s3.amazonaws.com",
			ColVersion:       NotAvailable,
			ColProxyHost:     NotAvailable,
			ColProxyPort:     NotAvailable,
			ColProxyUsername: NotAvailable,
		},
	}, table.Rows)
}

func TestParseCloudProfilesMissingSection(t *testing.T) {
	obs := newRecordingObserver()
	table := ParseCloudProfiles("Cloud Unit: x\n", obs)

	assert.Empty(t, table.Rows)
	assert.NotNil(t, table.Rows)
	assert.Equal(t, []string{TableCloudProfiles}, obs.missing)
}

func TestParseCloudMovement(t *testing.T) {
	obs := newRecordingObserver()
	table := ParseCloudMovement(loadSample(t), obs)

	assert.Equal(t, TableCloudDataMovement, table.Name)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, Row{
		ColMtree:  "/data/col1/backup",
		ColTarget: "Cloud/ecs-unit1",
		ColPolicy: "age-threshold",
		ColValue:  "14 days",
	}, table.Rows[0])
	assert.Equal(t, []string{"/data/col1/short            x"}, obs.discarded[TableCloudDataMovement])
}

func TestDecodeMovementLine(t *testing.T) {
	line := "/data/col1/vol              Cloud/unit2               app-managed   none"
	row, ok := decodeMovementLine(line)
	require.True(t, ok)
	assert.Equal(t, "/data/col1/vol", row[ColMtree])
	assert.Equal(t, "Cloud/unit2", row[ColTarget])
	assert.Equal(t, "app-managed", row[ColPolicy])
	assert.Equal(t, "none", row[ColValue])

	for _, bad := range []string{
		"/ddvar                      Cloud/unit2               app-managed   none",
		"/data/col1/vol              Cloud/unit2               app-managed",
		"/data/col1/vol  x",
	} {
		_, ok := decodeMovementLine(bad)
		assert.False(t, ok, bad)
	}
}
