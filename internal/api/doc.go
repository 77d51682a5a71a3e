// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

/*
Package api provides the HTTP surface of chronicle.

Endpoints:

	POST /api/v1/messages                                     submit an import message
	GET  /api/v1/entities/{catalogue}/{collection}/{tid}        current entity state
	GET  /api/v1/entities/{catalogue}/{collection}/{tid}/events archived event history
	GET  /api/v1/model                                        catalogues and collections
	GET  /api/v1/model/{catalogue}/{collection}               fields and live version
	GET  /api/v1/stats/endpoints                              per-route latency
	GET  /api/v1/stats/archive                                archived event counts
	GET  /health, /health/live                                health probes
	GET  /metrics                                             Prometheus metrics

Submission:

A submitted message is decoded and its header validated synchronously.
It is then published to the import topic and the response is 202 with the
message id; the router applies it asynchronously and dead-letters failed
events. With ?sync=true the message is applied inline and the response
carries the processing Result instead.

All JSON responses share the APIResponse envelope:

	{"status": "success", "data": {...}, "metadata": {"timestamp": ..., "request_id": ...}}

Submission is rate limited per client IP with go-chi/httprate.
*/
package api
