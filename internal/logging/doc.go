// Package logging provides leveled logging for the ingest service.
//
// Levels, lowest first:
//   - DEBUG: per-item grouping and acquisition traces
//   - INFO: scans, batches, startup
//   - WARN: failed items, disabled features
//   - ERROR: failures that need attention
//   - FATAL: terminates the process
//
// The level comes from DEBUG=true or LOG_LEVEL and can be replaced at runtime
// with SetLevel.
package logging
