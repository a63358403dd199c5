// Package archive extracts tar archives, with the compression layer
// chosen from the file name. The reference measurement sets ship as
// .tar.xz; gzip, zstd, bzip2, and plain tar are accepted too.
package archive

import (
	"archive/tar"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// ExtractTar unpacks the archive at src into dest, creating dest if
// needed. Entries that would escape dest are rejected.
func ExtractTar(src, dest string) error {
	f, err := os.Open(src) //nolint:gosec // path is caller-controlled
	if err != nil {
		return fmt.Errorf("open archive %s: %w", src, err)
	}
	defer f.Close() //nolint:errcheck

	reader, closer, err := decompressor(src, f)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	if err := os.MkdirAll(dest, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive %s: %w", src, err)
		}
		if err := extractEntry(tr, hdr, dest); err != nil {
			return fmt.Errorf("extract %s from %s: %w", hdr.Name, src, err)
		}
	}
}

// decompressor wraps r according to the archive file name.
func decompressor(name string, r io.Reader) (io.Reader, func(), error) {
	switch {
	case strings.HasSuffix(name, ".tar.xz") || strings.HasSuffix(name, ".txz"):
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("open xz stream: %w", err)
		}
		return xr, nil, nil
	case strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz"):
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("open gzip stream: %w", err)
		}
		return gr, func() { _ = gr.Close() }, nil
	case strings.HasSuffix(name, ".tar.zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("open zstd stream: %w", err)
		}
		return zr, zr.Close, nil
	case strings.HasSuffix(name, ".tar.bz2") || strings.HasSuffix(name, ".tbz2"):
		return bzip2.NewReader(r), nil, nil
	case strings.HasSuffix(name, ".tar"):
		return r, nil, nil
	default:
		return nil, nil, fmt.Errorf("unrecognised archive name %q", name)
	}
}

// securePath resolves an archive entry name inside dest, rejecting
// absolute names and parent traversal.
func securePath(dest, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("absolute entry name %q", name)
	}
	path := filepath.Join(dest, filepath.Clean(name))
	rel, err := filepath.Rel(filepath.Clean(dest), path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("entry %q escapes destination", name)
	}
	return path, nil
}

func extractEntry(tr *tar.Reader, hdr *tar.Header, dest string) error {
	path, err := securePath(dest, hdr.Name)
	if err != nil {
		return err
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(path, fileMode(hdr, 0o750))
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return err
		}
		out, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fileMode(hdr, 0o640)) //nolint:gosec
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, tr); err != nil { //nolint:gosec // sizes come from trusted test data
			out.Close() //nolint:errcheck
			return err
		}
		return out.Close()
	case tar.TypeSymlink:
		// Only links that stay inside the destination are recreated.
		if filepath.IsAbs(hdr.Linkname) {
			return fmt.Errorf("absolute symlink target %q", hdr.Linkname)
		}
		if _, err := securePath(dest, filepath.Join(filepath.Dir(hdr.Name), hdr.Linkname)); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return err
		}
		return os.Symlink(hdr.Linkname, path)
	default:
		// Device nodes and the like have no business in a dataset
		// archive.
		return fmt.Errorf("unsupported entry type %d for %q", hdr.Typeflag, hdr.Name)
	}
}

func fileMode(hdr *tar.Header, fallback os.FileMode) os.FileMode {
	mode := hdr.FileInfo().Mode().Perm()
	if mode == 0 {
		return fallback
	}
	return mode
}
