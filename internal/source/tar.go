package source

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sigreer/autosupport/internal/asup"
)

func (o *Opener) openTar(file string) ([]asup.Document, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	docs, err := o.readTar(f, filepath.Base(file))
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", file, err)
	}
	return docs, nil
}

// readTar scans a gzip-compressed tar stream for report members
func (o *Opener) readTar(r io.Reader, archive string) ([]asup.Document, error) {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer gzr.Close()

	var docs []asup.Document
	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.Typeflag != tar.TypeReg || !o.isReportMember(header.Name) {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("failed to read member %s: %w", header.Name, err)
		}
		docs = append(docs, asup.Document{
			Name:    path.Base(header.Name),
			Archive: archive,
			Text:    string(data),
		})
	}
	return docs, nil
}

// isReportMember matches the member path with or without a leading
// directory such as "./" or a bundle name
func (o *Opener) isReportMember(name string) bool {
	name = strings.TrimPrefix(path.Clean(name), "/")
	return name == o.tarMember || strings.HasSuffix(name, "/"+o.tarMember)
}
