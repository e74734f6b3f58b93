package grouping

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"media-ingest/internal/media"
	"media-ingest/internal/mediatypes"
)

// Day is a calendar date with no time component.
type Day struct {
	Year  int
	Month int
	Day   int
}

// DayOf truncates t to its calendar day in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: int(m), Day: d}
}

// Compare orders days chronologically.
func (d Day) Compare(o Day) int {
	switch {
	case d.Year != o.Year:
		return sign(d.Year - o.Year)
	case d.Month != o.Month:
		return sign(d.Month - o.Month)
	default:
		return sign(d.Day - o.Day)
	}
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Descriptor is the normalized view of one raw item. Two descriptors belong
// to the same logical capture when Class() matches; FullName and Kind only
// break ties.
type Descriptor struct {
	Day      Day
	BaseName string
	FullName string
	Kind     string
}

// Class is the equality class used for bucketing.
type Class struct {
	Day      Day
	BaseName string
}

// editedSuffix matches "(Edited)", " edited", "-edited", "_edited" at the end
// of a stem.
var editedSuffix = regexp.MustCompile(`(?i)(\s*\(edited\)|[\s_-]+edited)$`)

// NewDescriptor builds a descriptor from a capture time, name and kind.
func NewDescriptor(captured time.Time, name, kind string) Descriptor {
	return Descriptor{
		Day:      DayOf(captured),
		BaseName: BaseName(name),
		FullName: name,
		Kind:     kind,
	}
}

// DescriptorOf builds a descriptor for a source handle.
func DescriptorOf(h media.Handle) Descriptor {
	return NewDescriptor(h.Captured(), h.Name(), h.Kind())
}

// BaseName strips the extension and edit markers from a file name:
// "IMG_E0001.JPG" and "IMG_0001 (Edited).jpg" both become "IMG_0001".
func BaseName(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	stem = editedSuffix.ReplaceAllString(stem, "")
	return stripEditLetter(stem)
}

// stripEditLetter removes an "E" inserted right before the first digit run,
// as long as the "E" does not continue a word ("IMG_E0001" -> "IMG_0001",
// "DSCE0001" is left alone).
func stripEditLetter(stem string) string {
	i := strings.IndexFunc(stem, func(r rune) bool { return r >= '0' && r <= '9' })
	if i < 1 || stem[i-1] != 'E' {
		return stem
	}
	if i >= 2 && isLetter(stem[i-2]) {
		return stem
	}
	return stem[:i-1] + stem[i:]
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Class returns the equality class of d.
func (d Descriptor) Class() Class {
	return Class{Day: d.Day, BaseName: d.BaseName}
}

// Equal reports whether two descriptors describe the same capture.
func (d Descriptor) Equal(o Descriptor) bool {
	return d.Class() == o.Class()
}

// Compare orders by day, then by full name length, then lexicographically.
// An edited file name is never shorter than its original's.
func (d Descriptor) Compare(o Descriptor) int {
	if c := d.Day.Compare(o.Day); c != 0 {
		return c
	}
	if len(d.FullName) != len(o.FullName) {
		return sign(len(d.FullName) - len(o.FullName))
	}
	return strings.Compare(d.FullName, o.FullName)
}

// LookupKey identifies the concrete handle a descriptor was made from.
func (d Descriptor) LookupKey() string {
	return d.Day.String() + "|" + d.BaseName + "|" + d.Kind + "|" + d.FullName
}

// IsImage reports whether the descriptor is a still image.
func (d Descriptor) IsImage() bool {
	return mediatypes.IsImageKind(d.Kind)
}

// IsVideo reports whether the descriptor is a video.
func (d Descriptor) IsVideo() bool {
	return mediatypes.IsVideoKind(d.Kind)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
