// Package filesystem is the media folder source.
//
// A Walker enumerates the folder with a pool of stat workers (SCAN_WORKERS,
// default 3), skipping hidden entries and anything that is not an image or
// video. The capture date of a file is its birth time or its modification
// time, whichever is older; Linux (statx) and macOS report birth times, other
// platforms fall back to the modification time.
//
// Thumbnails and Downloads are the acquisition providers for file-backed
// handles; the library export source reuses them since its handles are
// files too.
package filesystem
