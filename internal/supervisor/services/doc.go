// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

// Package services adapts aqmon-db components to suture.Service.
//
// Each adapter turns a Start/Stop or ListenAndServe/Shutdown lifecycle into
// a Serve(ctx) that blocks until ctx is canceled:
//
//	tree.AddDataService(services.NewSchedulerService(scheduler))
//	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
package services
