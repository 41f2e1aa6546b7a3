// Package httpserver runs the membership HTTP API with the timeouts from Config and
// shuts it down gracefully when the run context ends. It also provides the liveness
// and readiness handlers mounted under /health.
package httpserver
