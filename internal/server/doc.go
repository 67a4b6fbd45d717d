// Package server exposes scenarios over HTTP.
//
// Routes:
//
//	GET  /healthz                 liveness
//	GET  /metrics                 Prometheus metrics of every nesting run
//	GET  /scenarios               the scenarios found under the source
//	POST /scenarios/{name}/run    run a scenario and return its result
//	GET  /scenarios/{name}/watch  run a scenario, streaming entries over a WebSocket
//
// Errors are returned as the JSON form of a coded error.
package server
