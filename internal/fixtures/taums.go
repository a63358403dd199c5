// Package fixtures provides the shared test data for the casarrow
// packages: a digest-verified cached download of a reference
// measurement set archive, a synthetic table exercising every column
// shape class, and helpers that write hive-partitioned parquet
// datasets from generated tables.
package fixtures

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"casarrow/internal/archive"
	"casarrow/internal/config"
	"casarrow/internal/fetch"
)

// Reference measurement set used by integration tests.
const (
	TauMS              = "HLTau_B6cont.calavg.tav300s"
	TauMSArchive       = TauMS + ".tar.xz"
	TauMSArchiveSHA256 = "fc2ce9261817dfd88bbdd244c8e9e58ae0362173938df6ef2a587b1823147f70"
	TauMSURL           = "https://ratt-public-data.s3.af-south-1.amazonaws.com/test-data/" + TauMSArchive
)

// EnsureTauMS downloads the reference archive into cacheDir and
// returns its path. A cached copy with a matching SHA-256 digest is
// reused without touching the network. An empty cacheDir selects the
// per-user cache directory. A non-empty url points at a mirror of the
// archive; the reference digest is still enforced.
func EnsureTauMS(ctx context.Context, f *fetch.Fetcher, cacheDir, url string) (string, error) {
	if cacheDir == "" {
		dir, err := config.DefaultCacheDir()
		if err != nil {
			return "", err
		}
		cacheDir = dir
	}
	if url == "" {
		url = TauMSURL
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir %s: %w", cacheDir, err)
	}
	dest := filepath.Join(cacheDir, TauMSArchive)
	if err := f.Fetch(ctx, url, dest, TauMSArchiveSHA256); err != nil {
		return "", err
	}
	return dest, nil
}

// ExtractTauMS unpacks the reference archive into dir and returns the
// measurement set directory inside it.
func ExtractTauMS(archivePath, dir string) (string, error) {
	if err := archive.ExtractTar(archivePath, dir); err != nil {
		return "", err
	}
	return filepath.Join(dir, TauMS), nil
}
