package grouping

import (
	"media-ingest/internal/logging"
	"media-ingest/internal/media"
)

// Resolver maps a descriptor lookup key back to its handle.
type Resolver func(lookupKey string) (media.Handle, bool)

// IDLookup returns the stored id of an item whose original is h, or 0 when
// the item is new.
type IDLookup func(original media.Handle) int64

// Index builds descriptors for handles and a resolver over them.
func Index(handles []media.Handle) ([]Descriptor, Resolver) {
	descriptors := make([]Descriptor, 0, len(handles))
	byKey := make(map[string]media.Handle, len(handles))
	for _, h := range handles {
		d := DescriptorOf(h)
		descriptors = append(descriptors, d)
		byKey[d.LookupKey()] = h
	}
	return descriptors, func(key string) (media.Handle, bool) {
		h, ok := byKey[key]
		return h, ok
	}
}

// Resolve turns entries into items. An entry with any unresolvable
// descriptor is dropped whole.
func Resolve(entries []Entry, resolve Resolver, ids IDLookup) []*media.Item {
	items := make([]*media.Item, 0, len(entries))
	for _, e := range entries {
		original, ok := resolve(e.Main.LookupKey())
		if !ok {
			logging.Debug("grouping: dropping %s, main not resolvable", e.Main.FullName)
			continue
		}

		var edited, live media.Handle
		if e.Edited != nil {
			if edited, ok = resolve(e.Edited.LookupKey()); !ok {
				logging.Debug("grouping: dropping %s, edited %s not resolvable", e.Main.FullName, e.Edited.FullName)
				continue
			}
		}
		if e.Live != nil {
			if live, ok = resolve(e.Live.LookupKey()); !ok {
				logging.Debug("grouping: dropping %s, live %s not resolvable", e.Main.FullName, e.Live.FullName)
				continue
			}
		}

		var id int64
		if ids != nil {
			id = ids(original)
		}
		items = append(items, media.NewItem(id, original, edited, live))
	}
	return items
}

// Items groups handles into logical items in one call.
func Items(handles []media.Handle, ids IDLookup) []*media.Item {
	descriptors, resolve := Index(handles)
	return Resolve(Group(descriptors), resolve, ids)
}
