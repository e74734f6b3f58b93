// Package device is the tethered camera source.
//
// A Camera is a session with a camera whose storage is mounted as a DCIM
// tree. Object keys are built from the camera name and the storage path, so
// a reconnected camera maps onto the items it already imported. Handles
// still belong to the session that listed them: Owns routes a request only
// to the live session, and a request still pending against the old session
// is superseded when the new one asks for the same key.
//
// All thumbnail and download transfers run one at a time on the session
// goroutine, in request order, and report back through callbacks. Close
// models a disconnect: queued transfers are dropped and their callbacks are
// never invoked, which is why the acquisition coordinators must not rely on
// callbacks arriving.
package device
