// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// tarWriters holds the writers needed for creating an archive
type tarWriters struct {
	tw      *tar.Writer
	closers []io.Closer
}

// Close closes all writers in reverse order, returning the first error encountered
func (w *tarWriters) Close() error {
	var firstErr error
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

//nolint:gosec // G304: path is derived from the configured output root
func openTarWriters(path string) (*tarWriters, error) {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return nil, err
	}
	tw := tar.NewWriter(out)
	return &tarWriters{tw: tw, closers: []io.Closer{out, tw}}, nil
}

// Pack writes every regular file in srcDir into an uncompressed tar at destPath.
// The tar is written to destPath+".tmp" and renamed on success. Returns the archive size.
func Pack(srcDir, destPath string) (size int64, err error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return 0, &Error{Op: "pack", Path: srcDir, Err: err}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return 0, &Error{Op: "pack", Path: destPath, Err: err}
	}

	tmpPath := destPath + ".tmp"
	w, err := openTarWriters(tmpPath)
	if err != nil {
		return 0, &Error{Op: "pack", Path: tmpPath, Err: err}
	}

	packErr := func() error {
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			if err := addFile(w.tw, filepath.Join(srcDir, e.Name()), e.Name()); err != nil {
				return err
			}
		}
		return nil
	}()
	if closeErr := w.Close(); packErr == nil {
		packErr = closeErr
	}
	if packErr != nil {
		os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup on error
		return 0, &Error{Op: "pack", Path: destPath, Err: packErr}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup on error
		return 0, &Error{Op: "pack", Path: destPath, Err: err}
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return 0, &Error{Op: "pack", Path: destPath, Err: err}
	}
	return info.Size(), nil
}

// addFile adds a file to the tar archive
//
//nolint:gosec // G304: srcPath is inside the work directory
func addFile(tw *tar.Writer, srcPath, name string) error {
	file, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", srcPath, err)
	}
	defer file.Close() //nolint:errcheck // Best effort cleanup

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", srcPath, err)
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("failed to create tar header for %s: %w", srcPath, err)
	}
	header.Name = name

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", srcPath, err)
	}
	if _, err := io.Copy(tw, file); err != nil {
		return fmt.Errorf("failed to copy %s to archive: %w", srcPath, err)
	}
	return nil
}

// Unpack extracts the regular files of a tar archive into destDir and returns
// their names in archive order. Entries escaping destDir are rejected.
//
//nolint:gosec // G304, G305: archive path is operator-supplied, entry paths are validated
func Unpack(archivePath, destDir string) ([]string, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, &Error{Op: "open", Path: archivePath, Err: err}
	}
	defer file.Close() //nolint:errcheck // Best effort cleanup

	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return nil, &Error{Op: "unpack", Path: destDir, Err: err}
	}

	var names []string
	tr := tar.NewReader(file)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &Error{Op: "unpack", Path: archivePath, Err: fmt.Errorf("failed to read tar entry: %w", err)}
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		destPath, err := entryPath(destDir, header.Name)
		if err != nil {
			return nil, &Error{Op: "unpack", Path: archivePath, Err: err}
		}
		if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
			return nil, &Error{Op: "unpack", Path: destPath, Err: err}
		}
		if err := extractEntry(tr, destPath, header.Size); err != nil {
			return nil, &Error{Op: "unpack", Path: destPath, Err: err}
		}
		names = append(names, header.Name)
	}
	return names, nil
}

// entryPath validates and builds the destination path for extraction
func entryPath(destDir, name string) (string, error) {
	destPath := filepath.Join(destDir, name)
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid file path in archive: %s", name)
	}
	return destPath, nil
}

//nolint:gosec // G304: destPath is validated by entryPath
func extractEntry(r io.Reader, destPath string, size int64) error {
	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return err
	}

	_, err = io.CopyN(out, r, size)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(destPath) //nolint:errcheck // Best effort cleanup on error
		return err
	}
	return nil
}
