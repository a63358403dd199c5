package casagen

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casarrow/internal/dataset"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "casagen version")
}

func TestGenCasesCmd(t *testing.T) {
	t.Setenv("CASARROW_CACHE_DIR", t.TempDir())
	dir := t.TempDir()

	out, err := runCLI(t, "gen", "cases", dir)
	require.NoError(t, err)
	tableDir := strings.TrimSpace(out)
	assert.Equal(t, filepath.Join(dir, "test.table"), tableDir)
	assert.FileExists(t, filepath.Join(tableDir, "table.json"))
}

func TestGenTableCmd(t *testing.T) {
	t.Setenv("CASARROW_CACHE_DIR", t.TempDir())
	dir := t.TempDir()
	specPath := filepath.Join(dir, "spec.yaml")
	spec := "name: tiny\nnrows: 2\ncolumns:\n  - name: N\n    valueType: int\n"
	require.NoError(t, os.WriteFile(specPath, []byte(spec), 0o640))

	out, err := runCLI(t, "gen", "table", specPath, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tiny.table"), strings.TrimSpace(out))
}

func TestGenMSWriteDatasetAndSortOrder(t *testing.T) {
	t.Setenv("CASARROW_CACHE_DIR", t.TempDir())
	dir := t.TempDir()

	out, err := runCLI(t, "gen", "ms", dir, "--rows", "20", "--fields", "2", "--ddids", "1")
	require.NoError(t, err)
	tableDir := strings.TrimSpace(out)

	dsDir := filepath.Join(dir, "ds")
	_, err = runCLI(t, "write-dataset", tableDir, dsDir)
	require.NoError(t, err)

	files, err := dataset.Files(dsDir)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	out, err = runCLI(t, "sort-order", tableDir, "--group-by", "FIELD_ID")
	require.NoError(t, err)
	lines := strings.Fields(out)
	assert.Len(t, lines, 20)
	assert.Equal(t, "0", lines[0])
}

func TestFetchCmdWithURL(t *testing.T) {
	t.Setenv("CASARROW_CACHE_DIR", t.TempDir())
	payload := []byte("archive payload")
	sum := sha256.Sum256(payload)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "artifact.bin")
	out, err := runCLI(t, "fetch",
		"--url", srv.URL+"/artifact.bin",
		"--sha256", hex.EncodeToString(sum[:]),
		"--out", dest)
	require.NoError(t, err)
	assert.Equal(t, dest, strings.TrimSpace(out))
	assert.FileExists(t, dest)

	// A bad digest fails and leaves nothing behind.
	_, err = runCLI(t, "fetch",
		"--url", srv.URL+"/artifact.bin",
		"--sha256", hex.EncodeToString(make([]byte, 32)),
		"--out", filepath.Join(t.TempDir(), "bad.bin"))
	require.Error(t, err)
}

func TestFetchCmdDataURLMirror(t *testing.T) {
	t.Setenv("CASARROW_CACHE_DIR", t.TempDir())

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte("not the reference archive"))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("CASARROW_DATA_URL", srv.URL+"/mirror.tar.xz")

	// The mirror is downloaded from and held to the reference digest.
	_, err := runCLI(t, "fetch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHA256 digest mismatch")
	assert.Equal(t, 1, hits)
}

func TestFetchCmdRequiresDigest(t *testing.T) {
	t.Setenv("CASARROW_CACHE_DIR", t.TempDir())
	_, err := runCLI(t, "fetch", "--url", "https://example.com/x.tar.xz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--sha256")
}

func TestExtractCmd(t *testing.T) {
	t.Setenv("CASARROW_CACHE_DIR", t.TempDir())
	_, err := runCLI(t, "extract", filepath.Join(t.TempDir(), "missing.tar.xz"))
	require.Error(t, err)
}
