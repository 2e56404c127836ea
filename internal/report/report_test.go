package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigreer/autosupport/internal/asup"
	"github.com/sigreer/autosupport/internal/db"
	"github.com/sigreer/autosupport/internal/ingest"
)

func sampleRecord(t *testing.T) asup.Record {
	t.Helper()
	data, err := os.ReadFile("../asup/testdata/autosupport.txt")
	require.NoError(t, err)
	res := asup.New(asup.Options{}).Parse(asup.Document{Name: "autosupport", Archive: "ddr01.tar.gz", Text: string(data)})
	require.NoError(t, res.Err)
	return res.Record
}

func TestPrintJSON(t *testing.T) {
	rec := sampleRecord(t)
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, []asup.Record{rec}))

	assert.True(t, strings.HasPrefix(buf.String(), "[\n  {"))

	var back []asup.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	require.Len(t, back, 1)
	assert.Equal(t, "APM00123456789", back[0].Field(asup.FieldSerialNo))
}

func TestPrintRecords(t *testing.T) {
	rec := sampleRecord(t)
	var buf bytes.Buffer
	PrintRecords(&buf, []asup.Record{rec})
	out := buf.String()

	assert.Contains(t, out, "AUTOSUPPORT PARSING RESULTS")
	assert.Contains(t, out, "--- Entry 1 ---")
	assert.Contains(t, out, "SYSTEM_SERIALNO     : APM00123456789")
	assert.Contains(t, out, "Archive             : ddr01.tar.gz")
	assert.Contains(t, out, "  NFS               : ")
	for _, name := range asup.TableNames() {
		assert.Contains(t, out, "\n"+name+":\n", name)
	}
	assert.Contains(t, out, "Active Tier         : 12 TiB of 64 TiB used (19%)")
}

func TestPrintRecordsEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintRecords(&buf, nil)
	assert.Equal(t, "No data to display\n", buf.String())
}

func TestPrintRecordDegraded(t *testing.T) {
	rec := asup.DegradedRecord(asup.NewSource("autosupport", ""))
	var buf bytes.Buffer
	PrintRecord(&buf, &rec)
	out := buf.String()

	assert.Contains(t, out, "Archive             : N/A")
	assert.Contains(t, out, "  (no rows)")
	assert.NotContains(t, out, "Active Tier         :")
}

func TestPrintTableCells(t *testing.T) {
	table := asup.Table{
		Name:    "Demo",
		Columns: []string{"Size_GiB", "Use_Percent"},
		Rows:    []asup.Row{{"Size_GiB": "-", "Use_Percent": "10%"}},
		Note:    "* note",
	}
	var buf bytes.Buffer
	printTable(&buf, table)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Demo:", lines[0])
	assert.Equal(t, "         Size GiB      Use Percent", strings.TrimRight(lines[1], " "))
	assert.Equal(t, "              N/A              10%", lines[2])
	assert.Equal(t, "  * note", lines[3])
}

func TestCapacityLine(t *testing.T) {
	rec := asup.Record{Tables: []asup.Table{{
		Name: asup.TableActiveTierUsage,
		Rows: []asup.Row{
			{asup.ColResource: "/data: pre-comp", asup.ColSizeGiB: "-"},
			{asup.ColResource: "/data: post-comp", asup.ColSizeGiB: "10,240.0", asup.ColUsedGiB: "5120", asup.ColUsePercent: "50%"},
		},
	}}}
	assert.Equal(t, "5.0 TiB of 10 TiB used (50%)", capacityLine(&rec))

	rec.Tables[0].Rows[1][asup.ColUsedGiB] = "-"
	assert.Empty(t, capacityLine(&rec))
}

func TestPrintSummary(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sum := &ingest.Summary{
		RunID:      "run-1",
		Input:      "/bundles",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Items:      make([]ingest.Item, 1200),
		Duplicates: 3,
		Known:      2,
		Failed:     []ingest.FileError{{Path: "/bundles/bad.tgz", Err: errors.New("failed to extract bad.tgz: EOF")}},
	}
	var buf bytes.Buffer
	PrintSummary(&buf, sum)
	out := buf.String()

	assert.Contains(t, out, "Documents           : 1,200")
	assert.Contains(t, out, "Duplicates          : 3")
	assert.Contains(t, out, "Already stored      : 2")
	assert.Contains(t, out, "Took                : 1.5s")
	assert.Contains(t, out, "  /bundles/bad.tgz: failed to extract bad.tgz: EOF")
}

func TestPrintHistory(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	records := []*db.StoredRecord{
		{ID: 2, Serial: "APM1", Hostname: "ddr01", Archive: "a.tar.gz", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: 1, Serial: "N/A", Hostname: "N/A", Archive: "b.eml", CreatedAt: now.Add(-72 * time.Hour), Error: "parse failed"},
	}
	var buf bytes.Buffer
	PrintHistory(&buf, records, now)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.True(t, strings.HasSuffix(lines[2], "2 hours ago"))
	assert.True(t, strings.HasSuffix(lines[3], "3 days ago (degraded)"))

	buf.Reset()
	PrintHistory(&buf, nil, now)
	assert.Equal(t, "No stored records\n", buf.String())
}

func TestPrintStored(t *testing.T) {
	rec := sampleRecord(t)
	stored := &db.StoredRecord{ID: 7, RunID: "run-1", Digest: "abc", CreatedAt: time.Unix(0, 0).UTC()}
	var buf bytes.Buffer
	PrintStored(&buf, stored, &rec)
	out := buf.String()

	assert.Contains(t, out, "Record              : 7")
	assert.Contains(t, out, "Stored              : 1970-01-01T00:00:00Z")
	assert.NotContains(t, out, "Error               :")
	assert.Contains(t, out, "HOSTNAME            : ddr01.example.com")
}

func TestPrintRuns(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	done := start.Add(time.Minute)
	runs := []*db.Run{
		{ID: "b", Documents: 4, Degraded: 1, StartedAt: start, FinishedAt: &done},
		{ID: "a", StartedAt: start},
	}
	var buf bytes.Buffer
	PrintRuns(&buf, runs, 12345, 1)
	out := buf.String()

	assert.Contains(t, out, "2024-01-01T00:00:00Z (unfinished)")
	assert.Contains(t, out, "Stored records      : 12,345")
	assert.Contains(t, out, "Degraded records    : 1")
}
