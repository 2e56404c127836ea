package source

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/sigreer/autosupport/internal/asup"
)

// serialMarker must appear next to reportMarker for an email part to count
// as a report
const serialMarker = "SYSTEM_SERIALNO="

// maxPartDepth bounds multipart nesting
const maxPartDepth = 8

var errNoReport = errors.New("no autosupport data found")

func openEmail(file string) ([]asup.Document, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	text, err := readEmail(f)
	if errors.Is(err, errNoReport) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse email %s: %w", file, err)
	}

	base := filepath.Base(file)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return []asup.Document{{
		Name:    "autosupport_" + stem,
		Archive: base,
		Text:    text,
	}}, nil
}

// readEmail returns the first text/plain body of the message that carries
// an autosupport report
func readEmail(r io.Reader) (string, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return "", err
	}
	return findReport(textproto.MIMEHeader(msg.Header), msg.Body, 0)
}

func findReport(header textproto.MIMEHeader, body io.Reader, depth int) (string, error) {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		// RFC 2045 default for a missing or broken header
		mediaType, params = "text/plain", nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if depth >= maxPartDepth || params["boundary"] == "" {
			return "", errNoReport
		}
		mr := multipart.NewReader(body, params["boundary"])
		for {
			part, err := mr.NextRawPart()
			if err == io.EOF {
				return "", errNoReport
			}
			if err != nil {
				return "", err
			}
			text, err := findReport(part.Header, part, depth+1)
			if err == nil {
				return text, nil
			}
			if !errors.Is(err, errNoReport) {
				return "", err
			}
		}
	}

	// a single-part message is taken whatever its type; inside a
	// multipart only text/plain parts qualify
	if depth > 0 && mediaType != "text/plain" {
		return "", errNoReport
	}
	data, err := io.ReadAll(decodeTransfer(header.Get("Content-Transfer-Encoding"), body))
	if err != nil {
		return "", err
	}
	text := string(data)
	if !strings.Contains(text, reportMarker) || !strings.Contains(text, serialMarker) {
		return "", errNoReport
	}
	return text, nil
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		// the decoder skips the CR/LF of wrapped lines
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}
