package entity

import (
	"sort"
	"time"
)

// Category distinguishes stock-specific events from macro releases.
type Category string

const (
	CategoryStock Category = "stock"
	CategoryMacro Category = "macro"
)

// Event is the canonical calendar event every upstream shape normalizes to.
// IDs are deterministic per source so repeated refreshes of the same
// underlying fact upsert instead of duplicating.
type Event struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Start       string   `json:"start"` // YYYY-MM-DD, timezone-naive
	AllDay      bool     `json:"allDay"`
	Market      Market   `json:"market"`
	StockCode   string   `json:"stockCode"`
	EventType   string   `json:"eventType"`
	IsForecast  bool     `json:"isForecast,omitempty"`
	Description string   `json:"description,omitempty"`
	SourceURL   string   `json:"sourceUrl"`
	SourceLabel string   `json:"sourceLabel"`
}

// SourceStat tracks fetch outcomes for one upstream source.
type SourceStat struct {
	OK        int    `json:"ok"`
	Error     int    `json:"error"`
	LastError string `json:"lastError,omitempty"`
}

// Snapshot is the complete cached event set plus refresh metadata. A snapshot
// is immutable once published; refreshes build a new one and swap the
// reference.
type Snapshot struct {
	UpdatedAt   time.Time             `json:"updatedAt"`
	Events      []Event               `json:"events"`
	BySource    map[string][]Event    `json:"eventsBySource"`
	SourceStats map[string]SourceStat `json:"sourceStats"`
}

// NewSnapshot builds a snapshot from per-source event sets: the union is
// deduplicated by id and sorted by (start, title).
func NewSnapshot(updatedAt time.Time, bySource map[string][]Event, stats map[string]SourceStat) *Snapshot {
	deduped := make(map[string]Event)
	for _, events := range bySource {
		for _, ev := range events {
			deduped[ev.ID] = ev
		}
	}

	merged := make([]Event, 0, len(deduped))
	for _, ev := range deduped {
		merged = append(merged, ev)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Start != merged[j].Start {
			return merged[i].Start < merged[j].Start
		}
		return merged[i].Title < merged[j].Title
	})

	return &Snapshot{
		UpdatedAt:   updatedAt,
		Events:      merged,
		BySource:    bySource,
		SourceStats: stats,
	}
}
