// Package report renders parsed records and stored history for the console.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sigreer/autosupport/internal/asup"
	"github.com/sigreer/autosupport/internal/db"
	"github.com/sigreer/autosupport/internal/ingest"
)

const gib = 1 << 30

// cellWidth is the right-aligned width of table cells
const cellWidth = 15

// PrintJSON writes v as indented JSON
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintRecords writes every record in console form
func PrintRecords(w io.Writer, records []asup.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No data to display")
		return
	}

	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w, "AUTOSUPPORT PARSING RESULTS")
	fmt.Fprintln(w, strings.Repeat("=", 80))

	for i := range records {
		fmt.Fprintf(w, "\n--- Entry %d ---\n", i+1)
		PrintRecord(w, &records[i])
	}
}

// PrintRecord writes one record: fields, services, then every table
func PrintRecord(w io.Writer, rec *asup.Record) {
	printField(w, "Document", rec.Source.Document)
	printField(w, "Archive", rec.Source.Archive)
	for _, f := range rec.Fields {
		printField(w, f.Name, f.Value)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-20s:\n", "SERVICES")
	for _, s := range rec.Services {
		fmt.Fprintf(w, "  %-18s: %s\n", s.Service, s.Status)
	}

	if used := capacityLine(rec); used != "" {
		fmt.Fprintln(w)
		printField(w, "Active Tier", used)
	}

	for _, t := range rec.Tables {
		printTable(w, t)
	}
	printTable(w, rec.CloudProfiles)
	printTable(w, rec.CloudMovement)
}

// capacityLine summarizes the post-comp row of the active tier in bytes
func capacityLine(rec *asup.Record) string {
	for _, row := range rec.Table(asup.TableActiveTierUsage).Rows {
		if !strings.Contains(row.Get(asup.ColResource), "post-comp") {
			continue
		}
		size, ok1 := gibBytes(row.Get(asup.ColSizeGiB))
		used, ok2 := gibBytes(row.Get(asup.ColUsedGiB))
		if !ok1 || !ok2 {
			return ""
		}
		return fmt.Sprintf("%s of %s used (%s)", humanize.IBytes(used), humanize.IBytes(size), row.Get(asup.ColUsePercent))
	}
	return ""
}

// gibBytes converts a GiB cell such as "1,024.5" to bytes
func gibBytes(cell string) (uint64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return uint64(v * gib), true
}

func printTable(w io.Writer, t asup.Table) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", t.Name)
	if len(t.Rows) == 0 {
		fmt.Fprintln(w, "  (no rows)")
	} else {
		cols := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = strings.ReplaceAll(c, "_", " ")
		}
		printCells(w, cols)
		for _, row := range t.Rows {
			vals := make([]string, len(t.Columns))
			for i, c := range t.Columns {
				vals[i] = displayCell(row.Get(c))
			}
			printCells(w, vals)
		}
	}
	if t.Note != "" && t.Note != asup.NotAvailable {
		fmt.Fprintf(w, "  %s\n", t.Note)
	}
}

func printCells(w io.Writer, cells []string) {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = fmt.Sprintf("%*s", cellWidth, c)
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(padded, "  "))
}

// displayCell shows placeholders for cells the report left blank
func displayCell(v string) string {
	if v == "" || v == "-" {
		return asup.NotAvailable
	}
	return v
}

// PrintSummary writes the outcome of an ingest run
func PrintSummary(w io.Writer, sum *ingest.Summary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	printField(w, "Run", sum.RunID)
	printField(w, "Input", sum.Input)
	printField(w, "Documents", humanize.Comma(int64(len(sum.Items))))
	printField(w, "Degraded", humanize.Comma(int64(sum.Degraded)))
	printField(w, "Duplicates", humanize.Comma(int64(sum.Duplicates)))
	printField(w, "Already stored", humanize.Comma(int64(sum.Known)))
	printField(w, "Failed", humanize.Comma(int64(len(sum.Failed))))
	if !sum.FinishedAt.IsZero() {
		printField(w, "Took", sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond).String())
	}
	for _, f := range sum.Failed {
		fmt.Fprintf(w, "  %s: %v\n", f.Path, f.Err)
	}
}

// PrintHistory writes stored records, newest first
func PrintHistory(w io.Writer, records []*db.StoredRecord, now time.Time) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No stored records")
		return
	}
	fmt.Fprintf(w, "%-6s %-16s %-24s %-28s %s\n", "ID", "SERIAL", "HOSTNAME", "ARCHIVE", "STORED")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, r := range records {
		stored := humanize.RelTime(r.CreatedAt, now, "ago", "from now")
		if r.Degraded() {
			stored += " (degraded)"
		}
		fmt.Fprintf(w, "%-6d %-16s %-24s %-28s %s\n", r.ID, r.Serial, r.Hostname, r.Archive, stored)
	}
}

// PrintStored writes a stored record header followed by the record itself
func PrintStored(w io.Writer, stored *db.StoredRecord, rec *asup.Record) {
	printField(w, "Record", strconv.FormatInt(stored.ID, 10))
	printField(w, "Run", stored.RunID)
	printField(w, "Stored", stored.CreatedAt.Format(time.RFC3339))
	printField(w, "Digest", stored.Digest)
	if stored.Degraded() {
		printField(w, "Error", stored.Error)
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
	PrintRecord(w, rec)
}

func printField(w io.Writer, name, value string) {
	if value == "" {
		value = asup.NotAvailable
	}
	fmt.Fprintf(w, "%-20s: %s\n", name, value)
}

// PrintRuns writes recent ingest runs followed by store totals
func PrintRuns(w io.Writer, runs []*db.Run, total, degraded int) {
	fmt.Fprintf(w, "%-36s %-10s %-10s %-10s %s\n", "RUN", "DOCUMENTS", "DEGRADED", "DUPLICATES", "STARTED")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, r := range runs {
		started := r.StartedAt.Format(time.RFC3339)
		if r.FinishedAt == nil {
			started += " (unfinished)"
		}
		fmt.Fprintf(w, "%-36s %-10d %-10d %-10d %s\n", r.ID, r.Documents, r.Degraded, r.Duplicates, started)
	}
	fmt.Fprintln(w)
	printField(w, "Stored records", humanize.Comma(int64(total)))
	printField(w, "Degraded records", humanize.Comma(int64(degraded)))
}
