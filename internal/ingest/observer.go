package ingest

import (
	"log/slog"
	"strings"
)

// logObserver reports parser diagnostics at debug level
type logObserver struct {
	log *slog.Logger
}

func newLogObserver(log *slog.Logger) *logObserver {
	return &logObserver{log: log}
}

func (o *logObserver) SectionMissing(table string) {
	o.log.Debug("Section not found", "table", table)
}

func (o *logObserver) RowDiscarded(table, line string) {
	o.log.Debug("Discarded row", "table", table, "line", strings.TrimSpace(line))
}

func (o *logObserver) TableDecoded(table string, rows int) {
	o.log.Debug("Decoded table", "table", table, "rows", rows)
}
