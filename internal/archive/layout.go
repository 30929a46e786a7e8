// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package archive

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tomtom215/aqmon/internal/docdb"
)

const (
	// DataDirName is the directory under the output root that holds archives
	DataDirName = "backup_data"

	// TimestampLayout formats archive timestamps (YYYYmmdd_HHMMSS)
	TimestampLayout = "20060102_150405"

	// DocumentExt is the extension of per-collection document files
	DocumentExt = ".jsonl"

	// ManifestName is the collection options manifest file
	ManifestName = "collections_metadata.json"

	// ViewsFile holds view definitions
	ViewsFile = docdb.ViewsName + DocumentExt

	archivePrefix = "backup_"
	archiveExt    = ".tar"
	workExt       = ".work"
)

var archiveNamePattern = regexp.MustCompile(`^backup_\d{8}_\d{6}\.tar$`)

// ArchiveName returns the archive file name for ts
func ArchiveName(ts time.Time) string {
	return archivePrefix + ts.Format(TimestampLayout) + archiveExt
}

// DataDir returns the archive directory under outRoot
func DataDir(outRoot string) string {
	return filepath.Join(outRoot, DataDirName)
}

// ArchivePath returns the full archive path for a backup taken at ts
func ArchivePath(outRoot string, ts time.Time) string {
	return filepath.Join(DataDir(outRoot), ArchiveName(ts))
}

// WorkDir returns the temporary work directory for a backup taken at ts
func WorkDir(outRoot string, ts time.Time) string {
	return filepath.Join(outRoot, archivePrefix+ts.Format(TimestampLayout)+workExt)
}

// IsArchiveName reports whether name matches the archive naming pattern
func IsArchiveName(name string) bool {
	return archiveNamePattern.MatchString(name)
}

// DocumentFile returns the document file name for a collection
func DocumentFile(collection string) string {
	return collection + DocumentExt
}

// CollectionFromFile returns the collection name of a document file
func CollectionFromFile(file string) (string, bool) {
	base := filepath.Base(file)
	if !strings.HasSuffix(base, DocumentExt) || base == DocumentExt {
		return "", false
	}
	return strings.TrimSuffix(base, DocumentExt), true
}

// IsViewsFile reports whether file is the view definitions file
func IsViewsFile(file string) bool {
	return filepath.Base(file) == ViewsFile
}

// IsBucketName reports whether a collection name is time-series bucket storage
func IsBucketName(name string) bool {
	return docdb.IsBucket(name)
}
