// Package http provides HTTP handlers and routing for the batch REST API.
//
// This package implements all HTTP endpoints using the Gin framework.
//
// Endpoints:
//   - Health: / and /health
//   - Runs: POST /runs, POST /abort
//   - Report: GET /report
//   - Workers: PUT /workers
//   - Status: GET /status
//
// A run is asynchronous: POST /runs returns 202 immediately and the run's
// progress is observable through GET /status, GET /report, and the
// WebSocket log stream. At most one run is in flight at a time; starting
// or aborting during a run returns 409.
package http
