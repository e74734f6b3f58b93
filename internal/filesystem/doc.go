// Package filesystem wraps file operations used by the sources with retries
// for stale NFS file handles (ESTALE), which show up when media libraries or
// exports live on network mounts.
//
// Only ESTALE is retried, with exponential backoff capped by MaxBackoff.
// Every other error is returned immediately.
package filesystem
