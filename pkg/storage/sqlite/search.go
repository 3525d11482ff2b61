package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"
	"github.com/kasuboski/moviefind/pkg/logger"
	"github.com/kasuboski/moviefind/pkg/storage"
	"github.com/kasuboski/moviefind/pkg/storage/sqlite/schema/gen/model"
	"github.com/kasuboski/moviefind/pkg/storage/sqlite/schema/gen/table"
	"go.uber.org/zap"
)

// fixed width so that text comparison matches time order
const timestampFormat = "2006-01-02 15:04:05.000000000"

func (s *SQLite) timestamp() sqlite.TimestampExpression {
	return sqlite.TimestampExp(sqlite.String(s.now().UTC().Format(timestampFormat)))
}

// UpsertSearch increments the term's count or inserts it with a count of 1 in one statement
func (s *SQLite) UpsertSearch(ctx context.Context, search storage.SearchUpsert) (storage.SearchRecord, bool, error) {
	log := logger.FromCtx(ctx)
	now := s.timestamp()

	stmt := table.SearchRecord.
		INSERT(
			table.SearchRecord.SearchTerm,
			table.SearchRecord.Count,
			table.SearchRecord.PosterURL,
			table.SearchRecord.MovieID,
			table.SearchRecord.CreatedAt,
			table.SearchRecord.UpdatedAt,
		).
		VALUES(
			sqlite.String(search.SearchTerm),
			sqlite.Int(1),
			sqlite.String(search.PosterURL),
			sqlite.Int(int64(search.MovieID)),
			now,
			now,
		).
		ON_CONFLICT(table.SearchRecord.SearchTerm).
		DO_UPDATE(sqlite.SET(
			table.SearchRecord.Count.SET(table.SearchRecord.Count.ADD(sqlite.Int(1))),
			table.SearchRecord.UpdatedAt.SET(table.SearchRecord.EXCLUDED.UpdatedAt),
		)).
		RETURNING(table.SearchRecord.AllColumns)

	var dest model.SearchRecord
	err := stmt.QueryContext(ctx, s.db, &dest)
	if err != nil {
		log.Debug("failed to upsert search", zap.String("query", stmt.DebugSql()), zap.Error(err))
		return storage.SearchRecord{}, false, fmt.Errorf("failed to upsert search record: %w", err)
	}

	return fromModel(dest), dest.Count == 1, nil
}

// GetSearch returns the record for an exact search term
func (s *SQLite) GetSearch(ctx context.Context, searchTerm string) (storage.SearchRecord, error) {
	stmt := table.SearchRecord.
		SELECT(table.SearchRecord.AllColumns).
		FROM(table.SearchRecord).
		WHERE(table.SearchRecord.SearchTerm.EQ(sqlite.String(searchTerm)))

	var dest model.SearchRecord
	err := stmt.QueryContext(ctx, s.db, &dest)
	if err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return storage.SearchRecord{}, storage.ErrNotFound
		}
		return storage.SearchRecord{}, fmt.Errorf("failed to get search record: %w", err)
	}

	return fromModel(dest), nil
}

// ListTrending lists the most counted search terms
func (s *SQLite) ListTrending(ctx context.Context, limit int) ([]storage.SearchRecord, error) {
	stmt := table.SearchRecord.
		SELECT(table.SearchRecord.AllColumns).
		FROM(table.SearchRecord).
		ORDER_BY(
			table.SearchRecord.Count.DESC(),
			table.SearchRecord.UpdatedAt.DESC(),
			table.SearchRecord.ID.ASC(),
		).
		LIMIT(int64(limit))

	var dest []model.SearchRecord
	err := stmt.QueryContext(ctx, s.db, &dest)
	if err != nil {
		return nil, fmt.Errorf("failed to list trending searches: %w", err)
	}

	records := make([]storage.SearchRecord, 0, len(dest))
	for _, m := range dest {
		records = append(records, fromModel(m))
	}

	return records, nil
}

func fromModel(m model.SearchRecord) storage.SearchRecord {
	return storage.SearchRecord{
		ID:         strconv.Itoa(int(m.ID)),
		SearchTerm: m.SearchTerm,
		Count:      int(m.Count),
		PosterURL:  m.PosterURL,
		MovieID:    int(m.MovieID),
		CreatedAt:  derefTime(m.CreatedAt),
		UpdatedAt:  derefTime(m.UpdatedAt),
	}
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
