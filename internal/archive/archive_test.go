package archive

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

type entry struct {
	name     string
	typeflag byte
	body     string
	linkname string
}

var msEntries = []entry{
	{name: "tau.ms/", typeflag: tar.TypeDir},
	{name: "tau.ms/table.dat", typeflag: tar.TypeReg, body: "table bytes"},
	{name: "tau.ms/ANTENNA/", typeflag: tar.TypeDir},
	{name: "tau.ms/ANTENNA/table.dat", typeflag: tar.TypeReg, body: "antenna bytes"},
	{name: "tau.ms/link.dat", typeflag: tar.TypeSymlink, linkname: "table.dat"},
}

func writeTar(t *testing.T, w io.Writer, entries []entry) {
	t.Helper()
	tw := tar.NewWriter(w)
	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.name,
			Typeflag: e.typeflag,
			Mode:     0o640,
			Size:     int64(len(e.body)),
			Linkname: e.linkname,
		}
		if e.typeflag == tar.TypeDir {
			hdr.Mode = 0o750
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if e.body != "" {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
}

func writeArchive(t *testing.T, path string, entries []entry) {
	t.Helper()
	var buf bytes.Buffer
	switch filepath.Ext(path) {
	case ".gz":
		gw := gzip.NewWriter(&buf)
		writeTar(t, gw, entries)
		require.NoError(t, gw.Close())
	case ".xz":
		xw, err := xz.NewWriter(&buf)
		require.NoError(t, err)
		writeTar(t, xw, entries)
		require.NoError(t, xw.Close())
	default:
		writeTar(t, &buf, entries)
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o640))
}

func assertExtracted(t *testing.T, dest string) {
	t.Helper()
	got, err := os.ReadFile(filepath.Join(dest, "tau.ms", "table.dat"))
	require.NoError(t, err)
	assert.Equal(t, "table bytes", string(got))

	got, err = os.ReadFile(filepath.Join(dest, "tau.ms", "ANTENNA", "table.dat"))
	require.NoError(t, err)
	assert.Equal(t, "antenna bytes", string(got))

	target, err := os.Readlink(filepath.Join(dest, "tau.ms", "link.dat"))
	require.NoError(t, err)
	assert.Equal(t, "table.dat", target)
}

func TestExtractTarXz(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tau.tar.xz")
	writeArchive(t, src, msEntries)

	dest := filepath.Join(dir, "out")
	require.NoError(t, ExtractTar(src, dest))
	assertExtracted(t, dest)
}

func TestExtractTarGz(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tau.tar.gz")
	writeArchive(t, src, msEntries)

	dest := filepath.Join(dir, "out")
	require.NoError(t, ExtractTar(src, dest))
	assertExtracted(t, dest)
}

func TestExtractPlainTar(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tau.tar")
	writeArchive(t, src, msEntries)

	dest := filepath.Join(dir, "out")
	require.NoError(t, ExtractTar(src, dest))
	assertExtracted(t, dest)
}

func TestExtractIntoRelativeDest(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tau.tar")
	writeArchive(t, src, msEntries)

	t.Chdir(t.TempDir())
	require.NoError(t, ExtractTar(src, "."))
	assertExtracted(t, ".")
}

func TestExtractRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "evil.tar")
	writeArchive(t, src, []entry{
		{name: "../evil.dat", typeflag: tar.TypeReg, body: "boom"},
	})

	err := ExtractTar(src, filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes destination")
	assert.NoFileExists(t, filepath.Join(dir, "evil.dat"))
}

func TestExtractRejectsEscapingSymlink(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "evil.tar")
	writeArchive(t, src, []entry{
		{name: "link", typeflag: tar.TypeSymlink, linkname: "../../etc/passwd"},
	})

	err := ExtractTar(src, filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes destination")
}

func TestExtractRejectsAbsoluteSymlink(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "evil.tar")
	writeArchive(t, src, []entry{
		{name: "link", typeflag: tar.TypeSymlink, linkname: "/etc/passwd"},
	})

	err := ExtractTar(src, filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absolute symlink target")
}

func TestExtractUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "data.rar")
	require.NoError(t, os.WriteFile(src, []byte("junk"), 0o640))

	err := ExtractTar(src, filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognised archive name")
}
