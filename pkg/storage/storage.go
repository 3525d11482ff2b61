package storage

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"
)

var ErrNotFound = errors.New("not found in storage")

// Storage is a document store holding search popularity records
type Storage interface {
	SearchStorage
	StatisticsStorage
	Close() error
}

// SearchStorage persists one SearchRecord per distinct search term
type SearchStorage interface {
	// UpsertSearch increments the count of the record for search.SearchTerm or creates it with a count of 1.
	// The operation is atomic per term. created reports whether a new record was made.
	UpsertSearch(ctx context.Context, search SearchUpsert) (record SearchRecord, created bool, err error)
	// GetSearch returns the record for the exact term or ErrNotFound
	GetSearch(ctx context.Context, searchTerm string) (SearchRecord, error)
	// ListTrending returns up to limit records ordered by count descending,
	// then most recently updated first, then by id.
	ListTrending(ctx context.Context, limit int) ([]SearchRecord, error)
}

// SearchRecord counts how often a search term produced results
type SearchRecord struct {
	ID         string    `json:"id"`
	SearchTerm string    `json:"searchTerm"`
	Count      int       `json:"count"`
	PosterURL  string    `json:"poster_url"`
	MovieID    int       `json:"movie_id"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SearchUpsert describes a successful search to be counted.
// PosterURL and MovieID are only written when the record is created.
type SearchUpsert struct {
	SearchTerm string
	PosterURL  string
	MovieID    int
}

// SortTrending orders records by count descending, then most recently updated, then id
func SortTrending(records []SearchRecord) {
	slices.SortStableFunc(records, func(a, b SearchRecord) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
