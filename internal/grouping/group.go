package grouping

import (
	"cmp"
	"slices"
	"strings"
)

// Entry is one logical capture: a main descriptor plus optional edited and
// live companions.
type Entry struct {
	Main   Descriptor
	Edited *Descriptor
	Live   *Descriptor
}

// Compare orders entries by main, then edited, then live. An absent
// companion sorts before any present one.
func (e Entry) Compare(o Entry) int {
	if c := e.Main.Compare(o.Main); c != 0 {
		return c
	}
	if c := compareOptional(e.Edited, o.Edited); c != 0 {
		return c
	}
	return compareOptional(e.Live, o.Live)
}

func compareOptional(a, b *Descriptor) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

// bucket accumulates the descriptors of one equality class.
type bucket struct {
	main   Descriptor
	edited *Descriptor
	live   *Descriptor
}

// pair applies the main/edited tie-break: the lesser descriptor is main and
// the greater one becomes edited, replacing any earlier edited.
func (b *bucket) pair(d Descriptor) {
	if d.LookupKey() == b.main.LookupKey() {
		return
	}
	if d.Compare(b.main) < 0 {
		prev := b.main
		b.main = d
		b.edited = &prev
		return
	}
	b.edited = &d
}

func (b *bucket) entry() Entry {
	return Entry{Main: b.main, Edited: b.edited, Live: b.live}
}

// inputOrder sorts descriptors totally so every pass sees the same sequence
// whatever order the source enumerated them in.
func inputOrder(a, b Descriptor) int {
	if c := a.Compare(b); c != 0 {
		return c
	}
	if c := strings.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	return strings.Compare(a.BaseName, b.BaseName)
}

// Group reconstructs logical captures from raw descriptors.
//
// Photos are bucketed by class first. The lesser video whose class matches a
// photo bucket becomes that bucket's live companion and every other video of
// that class is absorbed by the capture. Remaining videos are bucketed among
// themselves. Kinds that are neither image nor video are ignored.
func Group(descriptors []Descriptor) []Entry {
	sorted := slices.Clone(descriptors)
	slices.SortFunc(sorted, inputOrder)

	photos := make(map[Class]*bucket)
	for _, d := range sorted {
		if !d.IsImage() {
			continue
		}
		if b, ok := photos[d.Class()]; ok {
			b.pair(d)
			continue
		}
		photos[d.Class()] = &bucket{main: d}
	}

	for _, d := range sorted {
		if !d.IsVideo() {
			continue
		}
		if b, ok := photos[d.Class()]; ok && b.live == nil {
			live := d
			b.live = &live
		}
	}

	videos := make(map[Class]*bucket)
	for _, d := range sorted {
		if !d.IsVideo() {
			continue
		}
		if _, ok := photos[d.Class()]; ok {
			continue
		}
		if b, ok := videos[d.Class()]; ok {
			b.pair(d)
			continue
		}
		videos[d.Class()] = &bucket{main: d}
	}

	entries := make([]Entry, 0, len(photos)+len(videos))
	for _, b := range photos {
		entries = append(entries, b.entry())
	}
	for _, b := range videos {
		entries = append(entries, b.entry())
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := a.Compare(b); c != 0 {
			return c
		}
		return cmp.Compare(a.Main.Kind, b.Main.Kind)
	})
	return entries
}
