// Command ingest runs the media ingest pipeline once from the command line.
//
// Usage:
//
//	ingest <command> [args]
//
// Commands:
//
//	sources            List the sources enabled by the configuration.
//	scan [source...]   Scan the named sources, or all of them, group files
//	                   into items, persist them and cache their thumbnails.
//	download [id...]   Scan every source, then download the given items or
//	                   every item into DOWNLOAD_DIR. Exits 2 when some items
//	                   failed or were cancelled.
//	items [source]     List persisted items.
//
// The tool reads the same environment and .env file as the server. When
// stdout is a terminal a progress line counts acquired thumbnails and
// downloads. The first SIGINT or SIGTERM cancels every pending acquisition
// and the tool exits after printing what completed.
package main
