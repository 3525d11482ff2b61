package metrics

import (
	"context"
	"time"

	"github.com/kasuboski/moviefind/pkg/logger"
	"github.com/kasuboski/moviefind/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "moviefind"

// Search kinds
const (
	KindSearch   = "search"
	KindDiscover = "discover"
)

// Search outcomes
const (
	OutcomeResults        = "results"
	OutcomeEmpty          = "empty"
	OutcomeLogicalFailure = "logical_failure"
	OutcomeError          = "error"
	OutcomeCancelled      = "cancelled"
)

// Tracker write outcomes
const (
	WriteCreated     = "created"
	WriteIncremented = "incremented"
	WriteFailed      = "failed"
)

// Metrics holds the collectors for searches and popularity writes.
// A nil *Metrics records nothing.
type Metrics struct {
	searches     *prometheus.CounterVec
	writes       *prometheus.CounterVec
	tmdb         *prometheus.HistogramVec
	breaker      *prometheus.GaugeVec
	liveSessions prometheus.Gauge
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Movie searches by kind and outcome",
		}, []string{"kind", "outcome"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "popularity_writes_total",
			Help:      "Search popularity writes by outcome",
		}, []string{"outcome"}),
		tmdb: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tmdb_request_duration_seconds",
			Help:      "Latency of movie metadata requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		breaker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state, 0 closed, 1 half-open, 2 open",
		}, []string{"name"}),
		liveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions",
			Help:      "Open live search sessions",
		}),
	}

	reg.MustRegister(m.searches, m.writes, m.tmdb, m.breaker, m.liveSessions)

	return m
}

// SearchCompleted counts a finished search
func (m *Metrics) SearchCompleted(kind, outcome string) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(kind, outcome).Inc()
}

// ObserveTMDB records how long a metadata request took
func (m *Metrics) ObserveTMDB(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.tmdb.WithLabelValues(kind).Observe(d.Seconds())
}

// PopularityWrite counts a tracker write
func (m *Metrics) PopularityWrite(outcome string) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(outcome).Inc()
}

// BreakerState exports the state of the named breaker
func (m *Metrics) BreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.breaker.WithLabelValues(name).Set(float64(state))
}

// SessionOpened and SessionClosed track live sessions
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.liveSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.liveSessions.Dec()
}

var (
	trendingDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "trending_search_count"),
		"Recorded searches of the currently trending terms",
		[]string{"search_term"},
		nil,
	)
	termsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "recorded_terms"),
		"Distinct search terms recorded",
		nil,
		nil,
	)
	recordedSearchesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "recorded_searches"),
		"Sum of the counts of all recorded search terms",
		nil,
		nil,
	)
)

// TrendingCollector reads the popularity store on each scrape
type TrendingCollector struct {
	store   storage.Storage
	limit   int
	timeout time.Duration
}

// NewTrendingCollector exports the top limit terms and store totals
func NewTrendingCollector(store storage.Storage, limit int) *TrendingCollector {
	return &TrendingCollector{
		store:   store,
		limit:   limit,
		timeout: 5 * time.Second,
	}
}

// Describe sends the metric descriptors to the channel.
func (c *TrendingCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- trendingDesc
	ch <- termsDesc
	ch <- recordedSearchesDesc
}

// Collect queries the store and emits the trending counts as gauges.
func (c *TrendingCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	log := logger.Get()

	records, err := c.store.ListTrending(ctx, c.limit)
	if err != nil {
		log.Errorw("failed to collect trending metrics", "error", err)
	}
	for _, r := range records {
		ch <- prometheus.MustNewConstMetric(trendingDesc, prometheus.GaugeValue, float64(r.Count), r.SearchTerm)
	}

	stats, err := c.store.GetSearchStats(ctx)
	if err != nil {
		log.Errorw("failed to collect search stats", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(termsDesc, prometheus.GaugeValue, float64(stats.Terms))
	ch <- prometheus.MustNewConstMetric(recordedSearchesDesc, prometheus.GaugeValue, float64(stats.Searches))
}
