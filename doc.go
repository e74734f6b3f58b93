// Package main provides the entry point for the media ingest server.
//
// The server scans media sources (a local folder, an optional mounted
// camera and an optional photo library export), groups raw files into
// items, persists them in SQLite and acquires thumbnails and downloads
// through bounded, de-duplicated coordinators.
//
// # Application Lifecycle
//
//  1. Configuration Loading: reads the .env file and environment, validates directories
//  2. Memory and Thumbnail Backend: sets GOMEMLIMIT from MEMORY_LIMIT and
//     initializes libvips when available
//  3. Pipeline: opens the database, caches, sources, gates and coordinators
//  4. Media Watcher: rescans the media folder on changes when WATCH_MEDIA is set
//  5. HTTP Server: registers the API routes with logging and metrics middleware
//  6. Graceful Shutdown: on SIGINT/SIGTERM cancels every acquisition, closes
//     the camera session and event streams, stops the server and the database
//
// # Configuration
//
// See package startup for the environment variables. The one-shot
// command-line variant lives in cmd/ingest.
package main
