// Package download stores downloaded originals in the destination directory.
//
// Providers copy media into a ".partial-" temp file inside the destination
// directory and hand its path to the acquisition coordinator; Store renames
// it to the final name. Names are derived from the capture day and original
// file name, so re-running a download never overwrites earlier copies.
package download
