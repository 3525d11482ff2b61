package storage

import (
	"context"
)

// StatisticsStorage aggregates over all search records
type StatisticsStorage interface {
	GetSearchStats(ctx context.Context) (*SearchStats, error)
}

// SearchStats summarizes the popularity store
type SearchStats struct {
	// Terms is the number of distinct search terms recorded
	Terms int `json:"terms"`
	// Searches is the sum of all counts
	Searches int `json:"searches"`
}
