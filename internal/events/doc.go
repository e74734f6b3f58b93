// Package events delivers "artifact available" notifications from the
// acquisition coordinators to API clients (server-sent events) and the CLI.
package events
