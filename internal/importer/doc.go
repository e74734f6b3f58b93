// Package importer ties sources, grouping, storage and the acquisition
// coordinators together.
//
// A scan enumerates one source, groups the raw handles into items (reusing
// stored ids), saves them and requests every thumbnail, returning when all
// thumbnail requests are terminal. Each scan gets a uuid so API clients can
// tell passes apart. Only one scan per source runs at a time.
//
// Downloads work on the items of the latest scans. CancelAll aborts scans
// and both coordinators, which is what a device disconnect or a user abort
// maps to. Watch rescans a folder source after filesystem changes settle.
package importer
