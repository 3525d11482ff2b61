package sqlite

import (
	"context"

	"github.com/kasuboski/moviefind/pkg/storage"
)

// GetSearchStats returns the number of distinct terms and the total number of counted searches
func (s *SQLite) GetSearchStats(ctx context.Context) (*storage.SearchStats, error) {
	// Use raw SQL since Jet ORM doesn't properly handle aggregate queries with custom structs
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) AS terms,
		       COALESCE(SUM(count), 0) AS searches
		FROM search_record
	`)

	var stats storage.SearchStats
	if err := row.Scan(&stats.Terms, &stats.Searches); err != nil {
		return nil, err
	}

	return &stats, nil
}
