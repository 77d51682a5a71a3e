// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

/*
Package middleware provides HTTP middleware for the chronicle API.

Key Components:

  - Request ID: X-Request-ID propagation into the logging context
  - Prometheus Metrics: request count, latency and in-flight gauge
  - Performance Monitor: sliding-window latency percentiles per route

All middleware has the func(http.Handler) http.Handler shape so it plugs
into chi's r.Use. Metrics and the performance monitor label requests by
the chi route pattern ("/api/v1/entities/{catalogue}/{collection}/{tid}"),
never the raw path, which keeps label cardinality bounded.

Usage:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(monitor.Middleware)
*/
package middleware
