// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

// Package testinfra provides container-backed infrastructure for integration tests.
//
// Everything here is behind the integration build tag and needs a Docker
// daemon. Tests are skipped when Docker is unavailable:
//
//	go test -tags integration ./internal/testinfra/...
//
// # MongoDB Container
//
// MongoContainer starts a single-node MongoDB server and exposes its URI:
//
//	func TestRoundTrip(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//
//	    mongo, err := testinfra.NewMongoContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, mongo)
//
//	    db, err := docdb.Connect(ctx, mongo.Config("aqmon"))
//	    // ...
//	}
//
// The first run pulls the image; later runs use the local cache.
package testinfra
