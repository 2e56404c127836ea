package asup

import (
	"regexp"
	"strings"
)

// VolumePathPrefix is the path every volume (mtree) lives under
const VolumePathPrefix = "/data/col1/"

// Column layouts for the fixed-width families. Format drift in the report
// should only ever need a change here.
const (
	usageResourceWidth = 18
	usageMinWidth      = usageResourceWidth + 1

	movementVolumeWidth = 28
	movementTargetWidth = 26
	movementPolicyWidth = 13
	movementMinWidth    = 61

	volumeCompressionMinWidth  = 36
	volumeCompressionMinValues = 10

	volumeListMinFields      = 3
	retentionOptionMinFields = 2
	compressionMinValues     = 2
)

var delimiterRun = regexp.MustCompile(`\s{2,}`)

// lineDecoder turns one line of a section body into a row
type lineDecoder func(line string) (Row, bool)

// fixedWidth cuts a line into columns of the given widths. A column also
// ends early at a run of two or more spaces, after which the remainder is
// left-trimmed before the next cut.
type fixedWidth struct {
	widths   []int
	minWidth int
}

func (f fixedWidth) slice(line string) ([]string, string, bool) {
	if len(line) < f.minWidth {
		return nil, "", false
	}
	cols := make([]string, 0, len(f.widths))
	rest := line
	for _, w := range f.widths {
		cut := w
		if cut > len(rest) {
			cut = len(rest)
		}
		if i := strings.Index(rest[:cut], "  "); i >= 0 {
			cut = i
		}
		cols = append(cols, strings.TrimSpace(rest[:cut]))
		rest = strings.TrimLeft(rest[cut:], " \t")
	}
	return cols, strings.TrimSpace(rest), true
}

// splitDelimited splits on runs of two or more whitespace characters
func splitDelimited(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	parts := delimiterRun.Split(line, -1)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// keywordField maps a line label to a column. value may reject or rewrite
// the text that follows the label.
type keywordField struct {
	label  string
	column string
	value  func(string) (string, bool)
}

// keywordLayout accumulates labelled lines into records. A line starting
// with primary opens a new record; with no primary the whole body is one
// record. Records missing any required column are dropped.
type keywordLayout struct {
	primary  string
	fields   []keywordField
	columns  []string
	required []string
}

func (k keywordLayout) decode(body string) []Row {
	var rows []Row
	var current Row
	open := k.primary == ""
	if open {
		current = Row{}
	}

	flush := func() {
		if current == nil {
			return
		}
		for _, col := range k.required {
			if _, ok := current[col]; !ok {
				return
			}
		}
		for _, col := range k.columns {
			if v, ok := current[col]; !ok || v == "" {
				current[col] = NotAvailable
			}
		}
		rows = append(rows, current)
	}

	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if k.primary != "" && strings.HasPrefix(line, k.primary) {
			flush()
			current = Row{}
		}
		if current == nil {
			continue
		}
		for _, f := range k.fields {
			if !strings.HasPrefix(line, f.label) {
				continue
			}
			v := strings.TrimSpace(line[len(f.label):])
			if f.value != nil {
				var ok bool
				if v, ok = f.value(v); !ok {
					break
				}
			}
			current[f.column] = v
			break
		}
	}
	flush()
	return rows
}

// cleanLine strips annotation stars and surrounding whitespace
func cleanLine(line string) string {
	return strings.TrimSpace(strings.ReplaceAll(line, "*", ""))
}

var tableHeaderWords = []string{"Resource", "Size GiB", "Pre-Comp", "Post-Comp"}

// isTableChrome reports separator, header and blank lines that never carry
// data in a storage table
func isTableChrome(line string) bool {
	if strings.TrimSpace(line) == "" || strings.Contains(line, "----") {
		return true
	}
	for _, h := range tableHeaderWords {
		if strings.Contains(line, h) {
			return true
		}
	}
	return false
}

// fillColumns assigns values to columns in order, padding with NotAvailable
func fillColumns(row Row, columns, values []string) {
	for i, col := range columns {
		if i < len(values) {
			row[col] = values[i]
		} else {
			row[col] = NotAvailable
		}
	}
}
