// Package middleware provides HTTP middleware for the teamstore server.
//
// This package includes:
//   - Prometheus metrics for requests, selection writes and watchers
//   - OpenTelemetry tracing with one server span per request
//
// Both are plain func(http.Handler) http.Handler values and plug into a
// chi router:
//
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	r := chi.NewRouter()
//	r.Use(m.Handler)
//	r.Use(middleware.Tracing(middleware.WithTracerName("teamstore")))
//
// Route labels use chi's route pattern (e.g. "/selected-team") so label
// cardinality stays bounded.
package middleware
