// Package library reads a photo library export.
//
// An export is a folder holding the exported files and an SQLite catalog
// with one row per asset:
//
//	assets(uuid TEXT, filename TEXT, directory TEXT, uti TEXT, capture_date)
//
// directory is relative to the catalog's folder. capture_date is the EXIF
// capture time as text or unix seconds; when absent the file's modification
// time is used. Handles are plain files, so the filesystem providers serve
// thumbnails and downloads for this source.
package library
