// Package pipeline assembles the ingest components from configuration: the
// database, thumbnail cache and download store, the registered sources, one
// concurrency gate and coordinator per artifact kind, and the importer that
// drives them. Both the server and the command-line tool build on it.
package pipeline
