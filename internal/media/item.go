package media

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Handle is a raw file or device item reported by a source. Key must be
// stable for the lifetime of the source object; it is the identity the
// acquisition providers call back with.
type Handle interface {
	Key() string
	Name() string
	Kind() string
	Captured() time.Time
}

var sequence atomic.Int64

// NextID returns the next process-lifetime item id.
func NextID() int64 {
	return sequence.Add(1)
}

// SeedSequence makes sure ids handed out later are greater than floor.
// Call it after reloading stored items.
func SeedSequence(floor int64) {
	for {
		cur := sequence.Load()
		if cur >= floor || sequence.CompareAndSwap(cur, floor) {
			return
		}
	}
}

// Item is a logical media item. Only the edited handle may change after
// creation.
type Item struct {
	ID       int64
	Original Handle
	Live     Handle

	mu     sync.RWMutex
	edited Handle
}

// NewItem builds an item. An id of zero allocates a fresh one; a stored id is
// kept and the sequence is advanced past it.
func NewItem(id int64, original, edited, live Handle) *Item {
	if id <= 0 {
		id = NextID()
	} else {
		SeedSequence(id)
	}
	return &Item{
		ID:       id,
		Original: original,
		Live:     live,
		edited:   edited,
	}
}

// Edited returns the edited handle, or nil.
func (it *Item) Edited() Handle {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.edited
}

// ReplaceEdited swaps the edited handle, e.g. after an in-place rotation.
// The id is unchanged.
func (it *Item) ReplaceEdited(h Handle) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.edited = h
}

// Display returns the handle that represents the item visually: the edited
// variant when present, otherwise the original.
func (it *Item) Display() Handle {
	if e := it.Edited(); e != nil {
		return e
	}
	return it.Original
}

// Handles returns the non-nil handles in original, edited, live order.
func (it *Item) Handles() []Handle {
	hs := []Handle{it.Original}
	if e := it.Edited(); e != nil {
		hs = append(hs, e)
	}
	if it.Live != nil {
		hs = append(hs, it.Live)
	}
	return hs
}

// CacheKey derives the artifact cache key from the capture day of the
// original and the name of the displayed handle, so adding an edit changes
// the key.
func (it *Item) CacheKey() string {
	return fmt.Sprintf("%s_%s", it.Original.Captured().Format("2006-01-02"), it.Display().Name())
}

// HandleCacheKey is the cache key of a single handle.
func HandleCacheKey(h Handle) string {
	return fmt.Sprintf("%s_%s", h.Captured().Format("2006-01-02"), h.Name())
}

func (it *Item) String() string {
	return fmt.Sprintf("item %d (%s)", it.ID, it.Original.Name())
}
