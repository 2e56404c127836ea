// Package ingest runs the parser over every document found at an input
// path, in parallel, and fans the results out to metrics and the record
// store.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sigreer/autosupport/internal/asup"
	"github.com/sigreer/autosupport/internal/cache"
	"github.com/sigreer/autosupport/internal/db"
	"github.com/sigreer/autosupport/internal/metrics"
	"github.com/sigreer/autosupport/internal/source"
)

// Store persists runs and records. *db.DB implements it.
type Store interface {
	CreateRun(id, input string, startedAt time.Time) error
	SaveRecord(runID, digest, link string, res asup.Result) (int64, error)
	FinishRun(id string, documents, degraded, duplicates int, finishedAt time.Time) error
	// FindRecord returns a stored, non-degraded record for digest parsed
	// under link, or nil when there is none
	FindRecord(digest, link string) (*db.StoredRecord, *asup.Record, error)
}

// Options configures a Runner. Zero values pick defaults; Store and Metrics
// are optional.
type Options struct {
	Workers int
	Link    asup.LinkOptions
	Opener  *source.Opener
	Cache   *cache.Cache
	Store   Store
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Runner parses batches of documents
type Runner struct {
	workers int
	link    asup.LinkOptions
	opener  *source.Opener
	cache   *cache.Cache
	store   Store
	metrics *metrics.Metrics
	log     *slog.Logger
}

// New creates a runner
func New(opts Options) *Runner {
	r := &Runner{
		workers: opts.Workers,
		link:    opts.Link,
		opener:  opts.Opener,
		cache:   opts.Cache,
		store:   opts.Store,
		metrics: opts.Metrics,
		log:     opts.Logger,
	}
	if r.workers <= 0 {
		r.workers = runtime.NumCPU()
	}
	if r.opener == nil {
		r.opener = source.New(source.Options{})
	}
	if r.cache == nil {
		r.cache = cache.New(cache.TTLSession)
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	return r
}

// Item is the outcome for one document
type Item struct {
	Path      string
	Document  asup.Document
	Digest    string
	Result    asup.Result
	Duplicate bool // same content as an earlier document of the run
	Cached    bool // result reused from the cache or the record history
	Known     bool // already in the record history, not stored again
	RecordID  int64
}

// cachedResult is what the cache holds per digest and join mode
type cachedResult struct {
	res      asup.Result
	recordID int64
}

// FileError is an input file that could not be opened
type FileError struct {
	Path string
	Err  error
}

// Summary describes a finished run
type Summary struct {
	RunID      string
	Input      string
	StartedAt  time.Time
	FinishedAt time.Time
	Items      []Item
	Failed     []FileError
	Degraded   int
	Duplicates int
	Known      int
}

// Records returns the parsed records in input order
func (s *Summary) Records() []asup.Record {
	out := make([]asup.Record, 0, len(s.Items))
	for _, it := range s.Items {
		out = append(out, it.Result.Record)
	}
	return out
}

// Run parses every document under input. Files that fail to open are
// logged and listed in Summary.Failed; they do not stop the run.
func (r *Runner) Run(ctx context.Context, input string) (*Summary, error) {
	sum := &Summary{
		RunID:     uuid.NewString(),
		Input:     input,
		StartedAt: time.Now(),
	}
	log := r.log.With("run", sum.RunID)
	if n := r.cache.Cleanup(); n > 0 {
		log.Debug("Dropped expired cache entries", "entries", n)
	}

	paths, err := source.Collect(input)
	if err != nil {
		return nil, err
	}
	log.Info("Collected input files", "input", input, "files", len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		docs, err := r.opener.Open(path)
		if err != nil {
			log.Warn("Skipping unreadable input", "path", path, "error", err)
			sum.Failed = append(sum.Failed, FileError{Path: path, Err: err})
			r.observeDocument(metrics.StatusFailed, 0)
			continue
		}
		if len(docs) == 0 {
			log.Debug("No autosupport report found", "path", path)
		}
		for _, doc := range docs {
			sum.Items = append(sum.Items, Item{Path: path, Document: doc, Digest: Digest(doc.Text)})
		}
	}

	if err := r.parseAll(ctx, log, sum.Items); err != nil {
		return nil, err
	}

	for _, it := range sum.Items {
		if it.Duplicate {
			sum.Duplicates++
		}
		if it.Known {
			sum.Known++
		}
		if it.Result.Degraded() {
			sum.Degraded++
		}
	}

	if r.store != nil {
		if err := r.persist(log, sum); err != nil {
			return nil, err
		}
	}

	sum.FinishedAt = time.Now()
	if r.metrics != nil {
		r.metrics.MarkRun(sum.FinishedAt)
	}
	log.Info("Run complete",
		"documents", len(sum.Items),
		"degraded", sum.Degraded,
		"duplicates", sum.Duplicates,
		"known", sum.Known,
		"failed", len(sum.Failed),
		"took", sum.FinishedAt.Sub(sum.StartedAt))
	return sum, nil
}

// parseAll fills in the Result of every item. Items whose digest already
// appeared earlier in the slice are not parsed again.
func (r *Runner) parseAll(ctx context.Context, log *slog.Logger, items []Item) error {
	first := make(map[string]int, len(items))
	var unique []int
	for i := range items {
		if j, ok := first[items[i].Digest]; ok {
			items[i].Duplicate = true
			log.Debug("Duplicate document", "document", items[i].Document.Name,
				"archive", items[i].Document.Archive, "same_as", items[j].Document.Archive)
			continue
		}
		first[items[i].Digest] = i
		unique = append(unique, i)
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.workers)
	for _, idx := range unique {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			r.parseOne(log, &items[idx])
		}(idx)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	for i := range items {
		if items[i].Duplicate {
			src := items[first[items[i].Digest]].Result
			items[i].Result = withSource(src, items[i].Document)
			r.observeDocument(metrics.StatusDuplicate, 0)
		}
	}
	return nil
}

// cacheKey separates results by join mode; rows linked one way are wrong
// for the other
func (r *Runner) cacheKey(digest string) string {
	return digest + "|" + r.link.String()
}

// parseOne fills in it.Result from, in order, the cache, the record
// history and the parser
func (r *Runner) parseOne(log *slog.Logger, it *Item) {
	doc := it.Document
	key := r.cacheKey(it.Digest)
	if v, ok := r.cache.Get(key).(cachedResult); ok {
		log.Debug("Reusing cached result", "document", doc.Name, "archive", doc.Archive)
		it.Result = withSource(v.res, doc)
		it.Cached = true
		it.Known = v.recordID != 0
		it.RecordID = v.recordID
		r.observeDocument(metrics.StatusCached, 0)
		return
	}

	if r.store != nil {
		stored, rec, err := r.store.FindRecord(it.Digest, r.link.String())
		switch {
		case err != nil:
			log.Warn("Record history lookup failed", "document", doc.Name, "error", err)
		case stored != nil:
			log.Debug("Document already stored", "document", doc.Name, "archive", doc.Archive, "record", stored.ID)
			res := asup.Result{Record: *rec}
			r.cache.Set(key, cachedResult{res: res, recordID: stored.ID})
			it.Result = withSource(res, doc)
			it.Cached = true
			it.Known = true
			it.RecordID = stored.ID
			r.observeDocument(metrics.StatusCached, 0)
			return
		}
	}

	docLog := log.With("document", doc.Name, "archive", doc.Archive)
	obs := []asup.Observer{newLogObserver(docLog)}
	if r.metrics != nil {
		obs = append(obs, r.metrics)
	}
	parser := asup.New(asup.Options{Observer: asup.Observers(obs...), Link: r.link})

	start := time.Now()
	res := parser.Parse(doc)
	took := time.Since(start)

	if res.Degraded() {
		docLog.Warn("Parse degraded", "error", res.Err)
		r.observeDocument(metrics.StatusDegraded, took)
	} else {
		docLog.Debug("Parsed document", "took", took)
		r.observeDocument(metrics.StatusParsed, took)
	}
	if !res.Degraded() {
		r.cache.Set(key, cachedResult{res: res})
	}
	it.Result = res
}

func (r *Runner) persist(log *slog.Logger, sum *Summary) error {
	if err := r.store.CreateRun(sum.RunID, sum.Input, sum.StartedAt); err != nil {
		return err
	}
	stored := 0
	for i := range sum.Items {
		it := &sum.Items[i]
		if it.Duplicate || it.Known {
			continue
		}
		id, err := r.store.SaveRecord(sum.RunID, it.Digest, r.link.String(), it.Result)
		if err != nil {
			return fmt.Errorf("failed to store %s: %w", it.Document.Name, err)
		}
		it.RecordID = id
		stored++
		if !it.Result.Degraded() {
			r.cache.Set(r.cacheKey(it.Digest), cachedResult{res: it.Result, recordID: id})
		}
	}
	if err := r.store.FinishRun(sum.RunID, len(sum.Items), sum.Degraded, sum.Duplicates, time.Now()); err != nil {
		return err
	}
	log.Debug("Stored run", "records", stored)
	return nil
}

func (r *Runner) observeDocument(status string, took time.Duration) {
	if r.metrics != nil {
		r.metrics.ObserveDocument(status, took)
	}
}

// withSource returns res with its provenance replaced by doc's. Tables and
// rows stay shared with res.
func withSource(res asup.Result, doc asup.Document) asup.Result {
	res.Record.Source = asup.NewSource(doc.Name, doc.Archive)
	return res
}

// Digest is the content key used to detect repeated documents
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
