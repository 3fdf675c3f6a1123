// Package cache stores previously fetched catalog payloads so repeated lookups
// can be answered locally.
package cache

import (
	"errors"
	"strings"
	"time"

	"github.com/five82/marquee/internal/omdb"
)

// ErrEmptyKey is returned when writing an entry without a key.
var ErrEmptyKey = errors.New("cache: empty key")

// Entry is one cached payload. A search entry carries Items (possibly none);
// a detail entry carries Record, or nil when the catalog reported no match.
// Entries are never edited after they are written; a newer write replaces
// the whole entry.
type Entry struct {
	Key        string             `json:"key"`
	Items      []omdb.ResultItem  `json:"items,omitempty"`
	TotalCount int                `json:"total_count,omitempty"`
	Record     *omdb.DetailRecord `json:"record,omitempty"`
	FetchedAt  time.Time          `json:"fetched_at"`
}

// Store is a local, non-blocking lookup table of entries.
type Store interface {
	// Read returns the entry for key when it exists and has not expired.
	Read(key string) (Entry, bool)
	// Write inserts or replaces entries by key.
	Write(entries ...Entry) error
	Close() error
}

// SearchKey returns the cache key for a title search.
func SearchKey(query string) string {
	return "search:" + normalize(query)
}

// DetailKey returns the cache key for a detail lookup by id or title.
func DetailKey(idOrTitle string) string {
	return "detail:" + normalize(idOrTitle)
}

func normalize(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}

// clone copies the slices and record so stored entries stay immutable.
func clone(e Entry) Entry {
	dup := e
	if e.Items != nil {
		dup.Items = append([]omdb.ResultItem(nil), e.Items...)
	}
	if e.Record != nil {
		rec := *e.Record
		if rec.Ratings != nil {
			rec.Ratings = append([]omdb.Rating(nil), rec.Ratings...)
		}
		dup.Record = &rec
	}
	return dup
}
