// Package middleware provides the HTTP middleware of the API server: request
// logging with control characters stripped from client input, and
// Prometheus request metrics labelled by mux route template.
package middleware
