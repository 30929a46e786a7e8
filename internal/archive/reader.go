// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package archive

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tomtom215/aqmon/internal/logging"
)

// Contents describes an extracted archive
type Contents struct {
	Dir string

	// Ordinary collection names in file-iteration order
	Collections []string

	// Bucket namespaces found in the archive and skipped
	Buckets []string

	// View definitions, restored after every collection
	Views []ViewDefinition

	Manifest Manifest
}

// Inspect classifies the document files of an extracted archive.
// files is the extraction order; when empty the directory is listed in name order.
func Inspect(ctx context.Context, dir string, files []string) (*Contents, error) {
	if len(files) == 0 {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, &Error{Op: "inspect", Path: dir, Err: err}
		}
		for _, e := range entries {
			if e.Type().IsRegular() {
				files = append(files, e.Name())
			}
		}
		sort.Strings(files)
	}

	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}

	c := &Contents{Dir: dir, Manifest: manifest}
	for _, f := range files {
		name, ok := CollectionFromFile(f)
		if !ok {
			continue
		}
		switch {
		case IsViewsFile(f):
			views, err := readViews(filepath.Join(dir, f))
			if err != nil {
				return nil, err
			}
			c.Views = views
		case IsBucketName(name):
			logging.CtxWarn(ctx).Str("collection", name).Msg("Skipping time-series bucket file")
			c.Buckets = append(c.Buckets, name)
		default:
			c.Collections = append(c.Collections, name)
		}
	}
	return c, nil
}

// Names returns every restorable name (collections and views) sorted
func (c *Contents) Names() []string {
	names := make([]string, 0, len(c.Collections)+len(c.Views))
	names = append(names, c.Collections...)
	for _, v := range c.Views {
		names = append(names, v.Name())
	}
	sort.Strings(names)
	return names
}

// FilePath returns the document file of a collection
func (c *Contents) FilePath(collection string) string {
	return filepath.Join(c.Dir, DocumentFile(collection))
}

func readViews(path string) ([]ViewDefinition, error) {
	var views []ViewDefinition
	err := ReadDocuments(path, func(line int, doc bson.D, decodeErr error) error {
		if decodeErr != nil {
			return fmt.Errorf("line %d: %w", line, decodeErr)
		}
		v, err := ParseViewDefinition(doc)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		views = append(views, v)
		return nil
	})
	if err != nil {
		return nil, &Error{Op: "read views", Path: path, Err: err}
	}
	return views, nil
}

// ReadDocuments calls fn for every non-blank line of a document file.
// Lines that fail to decode are passed with decodeErr set; returning an error stops reading.
//
//nolint:gosec // G304: path is inside the extraction directory
func ReadDocuments(path string, fn func(line int, doc bson.D, decodeErr error) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close() //nolint:errcheck // Best effort cleanup

	r := bufio.NewReaderSize(file, 1<<20)
	for lineNo := 1; ; lineNo++ {
		line, readErr := r.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			doc, decodeErr := DecodeDocument(trimmed)
			if err := fn(lineNo, doc, decodeErr); err != nil {
				return err
			}
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// CountLines counts the non-blank lines of a document file
//
//nolint:gosec // G304: path is inside the extraction directory
func CountLines(path string) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close() //nolint:errcheck // Best effort cleanup

	var n int64
	r := bufio.NewReaderSize(file, 1<<20)
	for {
		line, readErr := r.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
		if errors.Is(readErr, io.EOF) {
			return n, nil
		}
		if readErr != nil {
			return n, readErr
		}
	}
}

var errSampleFull = errors.New("sample full")

// SampleDocuments returns up to n leading decodable documents of a file
func SampleDocuments(path string, n int) ([]bson.D, error) {
	if n <= 0 {
		return nil, nil
	}
	docs := make([]bson.D, 0, n)
	err := ReadDocuments(path, func(_ int, doc bson.D, decodeErr error) error {
		if decodeErr != nil {
			return nil
		}
		docs = append(docs, doc)
		if len(docs) >= n {
			return errSampleFull
		}
		return nil
	})
	if err != nil && !errors.Is(err, errSampleFull) {
		return nil, err
	}
	return docs, nil
}
