// Package source turns support bundles, email messages and plain report
// files into raw autosupport documents.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sigreer/autosupport/internal/asup"
)

// DefaultTarMember is where a support bundle keeps its autosupport report
const DefaultTarMember = "ddr/var/support/autosupport"

// reportMarker appears in every autosupport report
const reportMarker = "GENERATED_ON="

// Kind classifies an input path
type Kind int

const (
	KindUnknown Kind = iota
	KindTar
	KindEmail
	KindPlain
)

func (k Kind) String() string {
	switch k {
	case KindTar:
		return "tar"
	case KindEmail:
		return "eml"
	case KindPlain:
		return "plain"
	default:
		return "unknown"
	}
}

// KindOf classifies path by its file name
func KindOf(path string) Kind {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return KindTar
	case strings.HasSuffix(name, ".eml"):
		return KindEmail
	default:
		return KindPlain
	}
}

// Options configures an Opener
type Options struct {
	// TarMember is the member path looked up inside bundles
	TarMember string
}

// Opener reads documents from files
type Opener struct {
	tarMember string
}

// New creates an opener
func New(opts Options) *Opener {
	member := strings.Trim(opts.TarMember, "/")
	if member == "" {
		member = DefaultTarMember
	}
	return &Opener{tarMember: member}
}

// Open returns every autosupport document held by the file at path. A file
// with no report in it yields no documents and no error.
func (o *Opener) Open(path string) ([]asup.Document, error) {
	switch KindOf(path) {
	case KindTar:
		return o.openTar(path)
	case KindEmail:
		return openEmail(path)
	default:
		return openPlain(path)
	}
}

func openPlain(path string) ([]asup.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	text := string(data)
	if !strings.Contains(text, reportMarker) {
		return nil, nil
	}
	return []asup.Document{{Name: filepath.Base(path), Text: text}}, nil
}

// Collect expands path into the list of files to open. A directory yields
// its bundles followed by its email messages, each in name order; any other
// path is returned as is.
func Collect(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return Walk(path)
}

// Walk lists the bundles and email messages directly inside dir
func Walk(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var tars, emails []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch KindOf(path) {
		case KindTar:
			tars = append(tars, path)
		case KindEmail:
			emails = append(emails, path)
		}
	}
	// os.ReadDir already sorts by name
	return append(tars, emails...), nil
}
