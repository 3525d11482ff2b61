package trending

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kasuboski/moviefind/pkg/logger"
	"github.com/kasuboski/moviefind/pkg/metrics"
	"github.com/kasuboski/moviefind/pkg/storage"
	"github.com/kasuboski/moviefind/pkg/tmdb"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultImageURI = "https://image.tmdb.org/t/p/w500"
	// MaxLimit caps how many trending terms are ever served
	MaxLimit = 5
)

var ErrEmptyTerm = errors.New("search term is empty")

// RecordResult is the outcome of counting a search. Err is set instead of returning an error.
type RecordResult struct {
	Record  *storage.SearchRecord
	Created bool
	Err     error
}

// TrendingResult holds the top terms. Records is empty, never nil, when Err is set.
type TrendingResult struct {
	Records []storage.SearchRecord
	Err     error
}

// Tracker counts successful searches per term and serves the most popular ones
type Tracker struct {
	store    storage.SearchStorage
	imageURI string
	limit    int
	metrics  *metrics.Metrics
}

type Option func(*Tracker)

// WithImageURI sets the base poster urls are built from
func WithImageURI(uri string) Option {
	return func(t *Tracker) {
		if uri != "" {
			t.imageURI = uri
		}
	}
}

// WithLimit sets how many trending terms are returned. It is clamped to MaxLimit.
func WithLimit(limit int) Option {
	return func(t *Tracker) {
		if limit > 0 {
			t.limit = min(limit, MaxLimit)
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

func New(store storage.SearchStorage, opts ...Option) *Tracker {
	t := &Tracker{
		store:    store,
		imageURI: DefaultImageURI,
		limit:    MaxLimit,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Limit is the number of terms Trending returns at most
func (t *Tracker) Limit() int {
	return t.limit
}

// RecordSearch counts one successful search for term. movie is the first result and
// only supplies the poster and id when the term is seen for the first time.
func (t *Tracker) RecordSearch(ctx context.Context, term string, movie tmdb.MovieSummary) RecordResult {
	log := logger.FromCtx(ctx).With("search_term", term)

	term = NormalizeTerm(term)
	if term == "" {
		return RecordResult{Err: ErrEmptyTerm}
	}

	record, created, err := t.store.UpsertSearch(ctx, storage.SearchUpsert{
		SearchTerm: term,
		PosterURL:  t.PosterURL(movie.PosterPath),
		MovieID:    movie.ID,
	})
	if err != nil {
		t.metrics.PopularityWrite(metrics.WriteFailed)
		log.Errorw("failed to record search", "error", err)
		return RecordResult{Err: fmt.Errorf("failed to record search: %w", err)}
	}

	if created {
		t.metrics.PopularityWrite(metrics.WriteCreated)
	} else {
		t.metrics.PopularityWrite(metrics.WriteIncremented)
	}
	log.Debugw("recorded search", "count", record.Count, "created", created)

	return RecordResult{Record: &record, Created: created}
}

// Trending returns the most searched terms, highest count first
func (t *Tracker) Trending(ctx context.Context) TrendingResult {
	records, err := t.store.ListTrending(ctx, t.limit)
	if err != nil {
		logger.FromCtx(ctx).Errorw("failed to list trending searches", "error", err)
		return TrendingResult{Records: []storage.SearchRecord{}, Err: fmt.Errorf("failed to list trending searches: %w", err)}
	}

	if records == nil {
		records = []storage.SearchRecord{}
	}
	storage.SortTrending(records)
	if len(records) > t.limit {
		records = records[:t.limit]
	}

	return TrendingResult{Records: records}
}

// Lookup returns the record counted for one term. storage.ErrNotFound means it was never recorded.
func (t *Tracker) Lookup(ctx context.Context, term string) (storage.SearchRecord, error) {
	term = NormalizeTerm(term)
	if term == "" {
		return storage.SearchRecord{}, ErrEmptyTerm
	}

	record, err := t.store.GetSearch(ctx, term)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.FromCtx(ctx).Errorw("failed to look up search", "search_term", term, "error", err)
		}
		return storage.SearchRecord{}, fmt.Errorf("failed to look up %q: %w", term, err)
	}

	return record, nil
}

// PosterURL joins the image base with a poster path. Missing posters give an empty url.
func (t *Tracker) PosterURL(posterPath *string) string {
	if posterPath == nil || *posterPath == "" {
		return ""
	}

	return strings.TrimSuffix(t.imageURI, "/") + "/" + strings.TrimPrefix(*posterPath, "/")
}

// NormalizeTerm puts a term in unicode NFC so visually equal terms share a record.
// Case and surrounding whitespace are kept.
func NormalizeTerm(term string) string {
	return norm.NFC.String(term)
}
