/*
Package workers sizes the concurrency gates.

Worker counts are derived from runtime.GOMAXPROCS rather than
runtime.NumCPU, because Go sets GOMAXPROCS from the container CPU limit
while NumCPU reports the host:

	// on a 64-core node with a 2 CPU limit
	runtime.NumCPU()      // 64
	runtime.GOMAXPROCS(0) // 2

# Gates

	workers.Thumbnails() // 1.5 per CPU, max 8, THUMBNAIL_WORKERS overrides
	workers.Downloads()  // 2, DOWNLOAD_WORKERS overrides, max 8

Overrides must be positive integers; anything else falls back to the
computed value. The caps apply to overrides too.
*/
package workers
