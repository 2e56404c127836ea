// Package asup extracts structured records from appliance autosupport
// reports.
//
// A report is a loosely fixed-width text dump. Extraction runs in one
// direction: scalar KEY=value fields and service phrases are read straight
// from the text, each table section is located independently by its markers,
// section lines are decoded into rows, and volume list rows are enriched with
// retention-lock and replication data keyed by volume path. A section that
// cannot be found only empties its own table.
//
// Everything here is a pure function of the input text; a Parser may be
// shared between goroutines.
package asup

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrUnreadable is returned when the document text cannot be obtained
	ErrUnreadable = errors.New("unreadable document")
	// ErrParse is returned when extraction fails unexpectedly
	ErrParse = errors.New("parse failure")
)

// Options configures a Parser
type Options struct {
	Observer Observer
	Link     LinkOptions
}

// Parser assembles Records from Documents
type Parser struct {
	observer Observer
	link     LinkOptions
}

// New creates a parser
func New(opts Options) *Parser {
	obs := opts.Observer
	if obs == nil {
		obs = NopObserver{}
	}
	return &Parser{observer: obs, link: opts.Link}
}

// Parse extracts one record from doc. It never fails: when extraction
// breaks down the Result carries the error and a degraded record.
func (p *Parser) Parse(doc Document) (res Result) {
	src := NewSource(doc.Name, doc.Archive)
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Record: DegradedRecord(src),
				Err:    fmt.Errorf("%w: %s: %v", ErrParse, doc.Name, r),
			}
		}
	}()
	return Result{Record: p.assemble(src, doc.Text)}
}

// ParseReader reads a document from r and parses it. A read error yields a
// degraded result wrapping ErrUnreadable.
func (p *Parser) ParseReader(r io.Reader, name, archive string) Result {
	data, err := io.ReadAll(r)
	if err != nil {
		src := NewSource(name, archive)
		return Result{
			Record: DegradedRecord(src),
			Err:    fmt.Errorf("%w: %s: %v", ErrUnreadable, name, err),
		}
	}
	return p.Parse(Document{Name: name, Archive: archive, Text: string(data)})
}

// NewSource builds provenance for a document, using NotAvailable for empty
// labels
func NewSource(name, archive string) Source {
	src := Source{Document: name, Archive: archive}
	if src.Document == "" {
		src.Document = NotAvailable
	}
	if src.Archive == "" {
		src.Archive = NotAvailable
	}
	return src
}

func (p *Parser) assemble(src Source, text string) Record {
	rec := Record{
		Source:   src,
		Fields:   ExtractFields(text),
		Services: ClassifyServices(text),
		Tables:   ParseStorageTables(text, p.observer, p.link),
	}
	if rec.Service(ServiceCloudTier) == StatusEnabled {
		rec.CloudProfiles = ParseCloudProfiles(text, p.observer)
		rec.CloudMovement = ParseCloudMovement(text, p.observer)
	} else {
		rec.CloudProfiles = emptyTable(TableCloudProfiles, FamilyCloudProfile)
		rec.CloudMovement = emptyTable(TableCloudDataMovement, FamilyCloudMovement)
	}
	return rec
}

// DegradedRecord is the record returned for a document that could not be
// parsed: every field N/A, every service Unknown, every table empty.
func DegradedRecord(src Source) Record {
	tables := make([]Table, 0, len(storageTables))
	for _, rule := range storageTables {
		tables = append(tables, emptyTable(rule.name, rule.family))
	}
	return Record{
		Source:        src,
		Fields:        sentinelFields(),
		Services:      unknownServices(),
		Tables:        tables,
		CloudProfiles: emptyTable(TableCloudProfiles, FamilyCloudProfile),
		CloudMovement: emptyTable(TableCloudDataMovement, FamilyCloudMovement),
	}
}
