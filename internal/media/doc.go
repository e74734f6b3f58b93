// Package media defines the logical media item: one photo or video the user
// took, backed by up to three raw handles (original, edited, live
// companion) that a source reported separately.
package media
