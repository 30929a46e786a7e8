// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

/*
Package models defines the JSON shapes of the aqmon-db status API.

Every response is wrapped in APIResponse:

	{
	  "status": "success",
	  "data": { ... },
	  "metadata": {"timestamp": "2026-03-01T06:00:00Z", "request_id": "..."}
	}

Errors use the same envelope with "status": "error", a null data field and
an APIError.

Request and payload types:

  - TriggerRequest: body of POST /api/v1/backup/trigger
  - TriggerResponse: whether the trigger started a run
  - HealthResponse: body of GET /health
*/
package models
