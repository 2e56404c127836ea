package source

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigreer/autosupport/internal/asup"
)

const report = "GENERATED_ON=Fri Oct 17 06:03:20 EDT 2025\nSYSTEM_SERIALNO=APM001\nHOSTNAME=ddr01\n"

type member struct {
	name string
	body string
	dir  bool
}

func writeTarGz(t *testing.T, path string, members ...member) {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, m := range members {
		hdr := &tar.Header{Name: m.name, Mode: 0644, Size: int64(len(m.body)), Typeflag: tar.TypeReg}
		if m.dir {
			hdr = &tar.Header{Name: m.name, Mode: 0755, Typeflag: tar.TypeDir}
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if !m.dir {
			_, err := tw.Write([]byte(m.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindTar, KindOf("/x/bundle.tar.gz"))
	assert.Equal(t, KindTar, KindOf("BUNDLE.TGZ"))
	assert.Equal(t, KindEmail, KindOf("msg.eml"))
	assert.Equal(t, KindPlain, KindOf("autosupport"))
	assert.Equal(t, "eml", KindEmail.String())
}

func TestOpenTar(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "ddr01.tar.gz")
	writeTarGz(t, bundle,
		member{name: "ddr/", dir: true},
		member{name: "ddr/var/support/autosupport.old", body: "GENERATED_ON=old\n"},
		member{name: "ddr/var/log/messages", body: "noise"},
		member{name: "./ddr/var/support/autosupport", body: report},
	)

	docs, err := New(Options{}).Open(bundle)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, asup.Document{Name: "autosupport", Archive: "ddr01.tar.gz", Text: report}, docs[0])
}

func TestOpenTarCustomMember(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "b.tgz")
	writeTarGz(t, bundle, member{name: "support/asup.txt", body: report})

	docs, err := New(Options{TarMember: "/support/asup.txt"}).Open(bundle)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "asup.txt", docs[0].Name)

	docs, err = New(Options{}).Open(bundle)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestOpenTarCorrupt(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "broken.tar.gz")
	writeFile(t, bundle, "definitely not gzip")

	_, err := New(Options{}).Open(bundle)
	assert.Error(t, err)
}

func TestOpenEmailMultipart(t *testing.T) {
	eml := strings.Join([]string{
		"From: ddr01@example.com",
		"Subject: autosupport",
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="outer"`,
		"",
		"--outer",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Hello, this is just a cover letter.",
		"--outer",
		`Content-Type: multipart/alternative; boundary="inner"`,
		"",
		"--inner",
		"Content-Type: text/html",
		"",
		"<p>GENERATED_ON= SYSTEM_SERIALNO=</p>",
		"--inner",
		"Content-Type: text/plain",
		"Content-Transfer-Encoding: base64",
		"",
		base64.StdEncoding.EncodeToString([]byte(report)),
		"--inner--",
		"--outer--",
		"",
	}, "\r\n")
	path := filepath.Join(t.TempDir(), "weekly.report.eml")
	writeFile(t, path, eml)

	docs, err := New(Options{}).Open(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "autosupport_weekly.report", docs[0].Name)
	assert.Equal(t, "weekly.report.eml", docs[0].Archive)
	assert.Equal(t, report, docs[0].Text)
}

func TestOpenEmailSinglePart(t *testing.T) {
	eml := "Subject: asup\nContent-Type: text/plain\nContent-Transfer-Encoding: quoted-printable\n\n" +
		"GENERATED_ON=3Dtoday\nSYSTEM_SERIALNO=3DAPM001\nLOCATION=3DRack =\n12\n"
	path := filepath.Join(t.TempDir(), "single.eml")
	writeFile(t, path, eml)

	docs, err := New(Options{}).Open(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "GENERATED_ON=today\nSYSTEM_SERIALNO=APM001\nLOCATION=Rack 12\n", docs[0].Text)
}

func TestOpenEmailSinglePartAnyType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attached.eml")
	writeFile(t, path, "Subject: asup\nContent-Type: application/octet-stream\n\n"+report)

	docs, err := New(Options{}).Open(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, report, docs[0].Text)
}

func TestOpenEmailSkipsNonTextParts(t *testing.T) {
	eml := strings.Join([]string{
		"Subject: asup",
		`Content-Type: multipart/mixed; boundary="b"`,
		"",
		"--b",
		"Content-Type: application/octet-stream",
		"",
		report,
		"--b--",
		"",
	}, "\n")
	path := filepath.Join(t.TempDir(), "binary.eml")
	writeFile(t, path, eml)

	docs, err := New(Options{}).Open(path)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestOpenEmailWithoutReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatter.eml")
	writeFile(t, path, "Subject: hi\n\nGENERATED_ON=today but no serial here\n")

	docs, err := New(Options{}).Open(path)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestOpenPlain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autosupport")
	writeFile(t, path, report)
	other := filepath.Join(dir, "notes.txt")
	writeFile(t, other, "nothing useful")

	o := New(Options{})
	docs, err := o.Open(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "autosupport", docs[0].Name)
	assert.Equal(t, "", docs[0].Archive)

	docs, err = o.Open(other)
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = o.Open(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestWalkOrdersBundlesBeforeEmails(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.eml", "z.tar.gz", "a.eml", "m.tgz", "readme.txt"} {
		writeFile(t, filepath.Join(dir, name), "")
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.tar.gz"), 0755))

	paths, err := Walk(dir)
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"m.tgz", "z.tar.gz", "a.eml", "b.eml"}, names)
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "one.eml")
	writeFile(t, file, "")

	paths, err := Collect(file)
	require.NoError(t, err)
	assert.Equal(t, []string{file}, paths)

	paths, err = Collect(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{file}, paths)

	empty := t.TempDir()
	paths, err = Collect(empty)
	require.NoError(t, err)
	assert.Empty(t, paths)

	_, err = Collect(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
