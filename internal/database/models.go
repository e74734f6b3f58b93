package database

import (
	"time"

	"media-ingest/internal/grouping"
	"media-ingest/internal/media"
)

// ItemRecord is the stored form of a grouped item.
type ItemRecord struct {
	ID           int64      `json:"id"`
	Source       string     `json:"source"`
	OriginalKey  string     `json:"-"`
	OriginalName string     `json:"originalName"`
	EditedKey    string     `json:"-"`
	EditedName   string     `json:"editedName,omitempty"`
	LiveKey      string     `json:"-"`
	LiveName     string     `json:"liveName,omitempty"`
	CaptureDay   string     `json:"captureDay"`
	CacheKey     string     `json:"-"`
	DownloadedAt *time.Time `json:"downloadedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Composition names the item's shape for metrics and the API.
func (r ItemRecord) Composition() string {
	return composition(r.EditedKey != "", r.LiveKey != "")
}

// RecordOf converts an item of source into its stored form.
func RecordOf(source string, item *media.Item) ItemRecord {
	r := ItemRecord{
		ID:           item.ID,
		Source:       source,
		OriginalKey:  item.Original.Key(),
		OriginalName: item.Original.Name(),
		CaptureDay:   grouping.DayOf(item.Original.Captured()).String(),
		CacheKey:     item.CacheKey(),
	}
	if edited := item.Edited(); edited != nil {
		r.EditedKey = edited.Key()
		r.EditedName = edited.Name()
	}
	if item.Live != nil {
		r.LiveKey = item.Live.Key()
		r.LiveName = item.Live.Name()
	}
	return r
}

// Composition names an item's shape: single, edited, live or edited_live.
func Composition(item *media.Item) string {
	return composition(item.Edited() != nil, item.Live != nil)
}

func composition(edited, live bool) string {
	switch {
	case edited && live:
		return "edited_live"
	case edited:
		return "edited"
	case live:
		return "live"
	}
	return "single"
}
