// Package database persists grouped items in SQLite (WAL mode).
//
// One row per logical item, unique per (source, original_key). Rescans look
// up existing ids with KnownIDs so an item keeps its id, and therefore its
// cache entries, across runs; MaxID seeds the in-memory id sequence at
// startup so new ids never collide with stored ones. A scan replaces its
// source: rows whose original is gone from the source are deleted in the
// same transaction as the upsert.
//
// Every query records DBQueryTotal/DBQueryDuration metrics.
package database
