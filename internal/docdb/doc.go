// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

// Package docdb is the document database boundary used by the backup and
// restore engine.
//
// The engine never talks to the MongoDB driver directly. Everything it needs
// is expressed by the Database interface:
//
//   - list collection names and collection specifications (creation options)
//   - create and drop collections, time-series collections and views
//   - read and replace a collection's validator and validation level
//   - stream a collection in bounded batches
//   - count documents and look documents up by _id
//   - unordered bulk insert with per-document error detail
//
// # Implementations
//
//	Mongo              - backed by go.mongodb.org/mongo-driver (production)
//	docdbtest.Database - in-memory fake used by unit tests
//
// # Batch insert results
//
// InsertMany never reports partial failures through its error return. A
// partially failed batch comes back as a BatchResult with the duplicate-key
// failures and the other failures separated; the error return is reserved for
// failures that affected the whole batch (connectivity, unknown collection).
//
// The driver does not report an exact inserted count after a partial bulk
// failure, so Mongo approximates it as max(0, batch_size - failures).
package docdb
