// Package httpapi exposes the watch-mode run history over HTTP.
//
// Routes:
//
//	GET /health             liveness and number of recorded runs
//	GET /api/v1/runs        newest runs first, ?limit=1..500 (default 20)
//	GET /api/v1/runs/latest most recent run
//	GET /api/v1/runs/:id    a run by ID
package httpapi
