// Package fetch downloads reference data artifacts with streaming
// SHA-256 verification and a local cache. A cached file with a good
// digest short-circuits the network; a cached or freshly downloaded
// file with a bad digest is removed and the fetch fails with a
// ChecksumError.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"casarrow/internal/casa"
)

// chunkSize is the buffer size used while hashing (1 MiB).
const chunkSize = 1 << 20

// Fetcher retrieves artifacts over https, s3, gs, or az URLs.
type Fetcher struct {
	httpClient *http.Client
	logger     *slog.Logger

	s3Region   string
	s3Endpoint string
	s3KeyID    string
	s3Secret   string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client used for http(s) URLs.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithS3Region sets the region used for s3:// URLs.
func WithS3Region(region string) Option {
	return func(f *Fetcher) { f.s3Region = region }
}

// WithS3Endpoint points s3:// URLs at an S3-compatible endpoint,
// which also switches the client to path-style addressing.
func WithS3Endpoint(endpoint string) Option {
	return func(f *Fetcher) { f.s3Endpoint = endpoint }
}

// WithS3Credentials sets static credentials for s3:// URLs. Without
// them, requests are made anonymously, which suits public buckets.
func WithS3Credentials(keyID, secret string) Option {
	return func(f *Fetcher) {
		f.s3KeyID = keyID
		f.s3Secret = secret
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
		s3Region:   "us-east-1",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch ensures dest holds the artifact at rawURL with the given
// SHA-256 hex digest. An existing file is verified before any network
// access.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dest, wantSHA256 string) error {
	if _, err := os.Stat(dest); err == nil {
		err := VerifyFile(dest, wantSHA256)
		if err == nil {
			f.logger.Debug("cache hit", "path", dest)
			return nil
		}
		// Corrupted cache entries are removed so the next attempt
		// starts clean. Read failures leave the file alone.
		var checksumErr *casa.ChecksumError
		if errors.As(err, &checksumErr) {
			if rmErr := os.Remove(dest); rmErr != nil {
				return fmt.Errorf("remove corrupt artifact %s: %w", dest, rmErr)
			}
		}
		return err
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", dest, err)
	}

	return f.download(ctx, rawURL, dest, wantSHA256)
}

// download streams the artifact into place, hashing as it goes. The
// data lands in a temp file that is only renamed onto dest after the
// digest checks out.
func (f *Fetcher) download(ctx context.Context, rawURL, dest, wantSHA256 string) error {
	f.logger.Info("downloading artifact", "url", rawURL, "dest", dest)

	body, err := f.open(ctx, rawURL)
	if err != nil {
		return err
	}
	defer body.Close() //nolint:errcheck

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".partial-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	digest := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(io.MultiWriter(tmp, digest), body, buf); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("download %s: %w", rawURL, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	actual := hex.EncodeToString(digest.Sum(nil))
	if actual != wantSHA256 {
		return &casa.ChecksumError{Path: rawURL, Expected: wantSHA256, Actual: actual}
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("move artifact into place: %w", err)
	}
	return nil
}

// VerifyFile hashes path and compares against the expected SHA-256
// hex digest, returning a ChecksumError on mismatch.
func VerifyFile(path, wantSHA256 string) error {
	actual, err := HashFile(path)
	if err != nil {
		return err
	}
	if actual != wantSHA256 {
		return &casa.ChecksumError{Path: path, Expected: wantSHA256, Actual: actual}
	}
	return nil
}

// HashFile returns the streaming SHA-256 hex digest of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	digest := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(digest, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}
