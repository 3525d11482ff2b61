package manager

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kasuboski/moviefind/pkg/logger"
	"github.com/kasuboski/moviefind/pkg/metrics"
	"github.com/kasuboski/moviefind/pkg/storage"
	"github.com/kasuboski/moviefind/pkg/tmdb"
	"github.com/kasuboski/moviefind/pkg/trending"
)

const (
	// GenericErrorMessage is shown for any failure that is not reported by the api itself
	GenericErrorMessage = "Error fetching movies. Try another keyword."
	// FallbackErrorMessage is shown when the api flags a failure without a message
	FallbackErrorMessage = "Failed to fetch movies"

	DefaultRequestTimeout = 10 * time.Second
	DefaultRecordTimeout  = 5 * time.Second
)

var errNoTracker = errors.New("popularity tracking is disabled")

type TMDBClientInterface tmdb.ClientInterface

// PopularityTracker counts successful searches and serves the most popular terms
type PopularityTracker interface {
	RecordSearch(ctx context.Context, term string, movie tmdb.MovieSummary) trending.RecordResult
	Trending(ctx context.Context) trending.TrendingResult
}

// MovieSearcher runs a search and never fails, errors are reported in the result
type MovieSearcher interface {
	SearchMovies(ctx context.Context, query string) SearchResult
}

// SearchResult is what a caller displays for a query. Movies is never nil.
type SearchResult struct {
	Query        string              `json:"query"`
	Movies       []tmdb.MovieSummary `json:"movies"`
	ErrorMessage string              `json:"error"`
}

type MediaManager struct {
	tmdb           TMDBClientInterface
	tracker        PopularityTracker
	metrics        *metrics.Metrics
	requestTimeout time.Duration
	recordTimeout  time.Duration
}

var _ MovieSearcher = (*MediaManager)(nil)

type Option func(*MediaManager)

func WithMetrics(m *metrics.Metrics) Option {
	return func(mm *MediaManager) {
		mm.metrics = m
	}
}

// WithRequestTimeout bounds every metadata request
func WithRequestTimeout(d time.Duration) Option {
	return func(mm *MediaManager) {
		if d > 0 {
			mm.requestTimeout = d
		}
	}
}

// WithRecordTimeout bounds popularity writes, which outlive the search context
func WithRecordTimeout(d time.Duration) Option {
	return func(mm *MediaManager) {
		if d > 0 {
			mm.recordTimeout = d
		}
	}
}

// New creates a MediaManager. A nil tracker disables popularity recording.
func New(tmdbClient TMDBClientInterface, tracker PopularityTracker, opts ...Option) *MediaManager {
	m := &MediaManager{
		tmdb:           tmdbClient,
		tracker:        tracker,
		requestTimeout: DefaultRequestTimeout,
		recordTimeout:  DefaultRecordTimeout,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// SearchMovies searches tmdb for query, or lists popular movies when query is empty.
// A non-empty query with at least one result is counted towards trending.
func (m *MediaManager) SearchMovies(ctx context.Context, query string) SearchResult {
	log := logger.FromCtx(ctx).With("query", query)

	kind := metrics.KindSearch
	if query == "" {
		kind = metrics.KindDiscover
	}

	result := SearchResult{
		Query:  query,
		Movies: []tmdb.MovieSummary{},
	}

	list, err := m.fetchMovies(ctx, kind, query)
	if err != nil {
		result.ErrorMessage = GenericErrorMessage
		if ctx.Err() != nil {
			log.Debugw("movie search cancelled", "error", err)
			m.metrics.SearchCompleted(kind, metrics.OutcomeCancelled)
			return result
		}

		log.Errorw("error fetching movies", "error", err)
		m.metrics.SearchCompleted(kind, metrics.OutcomeError)
		return result
	}

	if msg, failed := list.LogicalFailure(); failed {
		if msg == "" {
			msg = FallbackErrorMessage
		}
		log.Debugw("movie search reported failure", "message", msg)
		m.metrics.SearchCompleted(kind, metrics.OutcomeLogicalFailure)
		result.ErrorMessage = msg
		return result
	}

	if list.Results != nil {
		result.Movies = list.Results
	}

	if len(result.Movies) == 0 {
		m.metrics.SearchCompleted(kind, metrics.OutcomeEmpty)
		return result
	}
	m.metrics.SearchCompleted(kind, metrics.OutcomeResults)

	if query != "" {
		m.recordSearch(ctx, query, result.Movies[0])
	}

	return result
}

func (m *MediaManager) fetchMovies(ctx context.Context, kind, query string) (*tmdb.MovieListResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, m.requestTimeout)
	defer cancel()

	start := time.Now()
	var res *http.Response
	var err error
	if query == "" {
		sortBy := tmdb.SortByPopularityDesc
		res, err = m.tmdb.DiscoverMovie(ctx, &tmdb.DiscoverMovieParams{SortBy: &sortBy})
	} else {
		res, err = m.tmdb.SearchMovie(ctx, &tmdb.SearchMovieParams{Query: query})
	}
	m.metrics.ObserveTMDB(kind, time.Since(start))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	logger.FromCtx(ctx).Debugw("movie list response", "status", res.Status)
	return tmdb.ParseMovieListResponse(res)
}

// recordSearch counts the search. The write is detached from ctx so a superseded
// search still gets counted, bounded by the record timeout.
func (m *MediaManager) recordSearch(ctx context.Context, query string, movie tmdb.MovieSummary) {
	if m.tracker == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.recordTimeout)
	defer cancel()

	// failures are logged by the tracker and never change the search result
	res := m.tracker.RecordSearch(ctx, query, movie)
	if res.Err == nil && res.Record != nil {
		logger.FromCtx(ctx).Debugw("search counted", "query", query, "count", res.Record.Count)
	}
}

// Trending returns the most searched terms
func (m *MediaManager) Trending(ctx context.Context) trending.TrendingResult {
	if m.tracker == nil {
		return trending.TrendingResult{Records: []storage.SearchRecord{}, Err: errNoTracker}
	}
	return m.tracker.Trending(ctx)
}
