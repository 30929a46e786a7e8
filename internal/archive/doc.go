// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

// Package archive defines the on-disk backup archive format and writes archives.
//
// An archive is an uncompressed tar named backup_<YYYYmmdd_HHMMSS>.tar under
// <out_root>/backup_data/. It holds one <collection>.jsonl file per collection
// with one relaxed extended-JSON document per line, a system.views.jsonl file
// with view definitions, and an optional collections_metadata.json manifest
// mapping collection names to creation options:
//
//	backup_20260101_020000.tar
//	├── stations.jsonl
//	├── readings.jsonl
//	├── system.views.jsonl         (only when views exist)
//	└── collections_metadata.json  (only when some collection has options)
//
// Manifest entries look like:
//
//	{"readings": {"timeseries": {"timeField": "ts", "metaField": "meta", "granularity": "hours"}},
//	 "users":    {"validator": {"$jsonSchema": {...}}, "validationLevel": "strict"}}
//
// Time-series bucket namespaces (system.buckets.*) are never written; the
// public collection carries the data and the manifest carries its options.
//
// Archives are created in a timestamped work directory that is always removed
// afterwards. The tar is written to a .tmp file and renamed into place, so a
// caller either sees a complete archive or none.
package archive
