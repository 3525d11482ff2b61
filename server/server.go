package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kasuboski/moviefind/pkg/cache"
	"github.com/kasuboski/moviefind/pkg/debounce"
	"github.com/kasuboski/moviefind/pkg/logger"
	"github.com/kasuboski/moviefind/pkg/manager"
	"github.com/kasuboski/moviefind/pkg/metrics"
	"github.com/kasuboski/moviefind/pkg/storage"
	"github.com/kasuboski/moviefind/pkg/trending"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const shutdownTimeout = time.Second * 3

type GenericResponse struct {
	Error    string `json:"error,omitempty"`
	Response any    `json:"response"`
}

// Manager is what the server needs from the search manager
type Manager interface {
	manager.MovieSearcher
	Trending(ctx context.Context) trending.TrendingResult
}

// Server houses all dependencies for the movie server to work such as loggers, clients, configurations, etc.
type Server struct {
	baseLogger *zap.SugaredLogger
	manager    Manager
	stats      storage.StatisticsStorage
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	debounce   time.Duration
	upgrader   websocket.Upgrader
	clients    *cache.Cache[string, *liveClient]
}

type Option func(*Server)

// WithStats exposes store totals on /api/v1/stats
func WithStats(stats storage.StatisticsStorage) Option {
	return func(s *Server) {
		s.stats = stats
	}
}

// WithMetrics records server metrics and serves g on /metrics
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithDebounce sets the quiet period for live search input
func WithDebounce(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// New creates a new movie server
func New(logger *zap.SugaredLogger, manager Manager, opts ...Option) *Server {
	s := &Server{
		baseLogger: logger,
		manager:    manager,
		debounce:   debounce.DefaultDelay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
			// CORS allows every origin, live search does the same
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: cache.New[string, *liveClient](),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func writeErrorResponse(w http.ResponseWriter, status int, err error) error {
	return writeResponse(w, status, GenericResponse{
		Error: err.Error(),
	})
}

func writeResponse(w http.ResponseWriter, status int, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	w.Header().Set("content-type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}

	_, err = w.Write(b)
	return err
}

// Router builds the http handler with all routes and middleware
func (s *Server) Router() http.Handler {
	rtr := mux.NewRouter()
	rtr.Use(s.LogMiddleware())
	rtr.HandleFunc("/healthz", s.Healthz()).Methods(http.MethodGet)

	if s.gatherer != nil {
		rtr.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := rtr.PathPrefix("/api").Subrouter()

	v1 := api.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/movies", s.SearchMovies()).Methods(http.MethodGet)
	v1.HandleFunc("/trending", s.Trending()).Methods(http.MethodGet)
	v1.HandleFunc("/live", s.Live()).Methods(http.MethodGet)
	if s.stats != nil {
		v1.HandleFunc("/stats", s.Stats()).Methods(http.MethodGet)
	}

	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
	)(rtr)
}

// Serve starts the http server and is a blocking call. It returns after SIGINT or SIGTERM.
func (s *Server) Serve(port int) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}

	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.baseLogger.Infow("serving...", "addr", ln.Addr().String())
		errs <- srv.Serve(ln)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	s.baseLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// hijacked websocket connections are not tracked by Shutdown
	for _, c := range s.clients.Values() {
		c.close()
	}

	err := srv.Shutdown(shutdownCtx)
	if serveErr := <-errs; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return err
}

// Healthz is an endpoint that can be used for probes
func (s *Server) Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := GenericResponse{
			Response: "ok",
		}
		writeResponse(w, http.StatusOK, response)
	}
}

// SearchMovies searches tmdb for the query parameter. An empty query lists popular movies.
// Failures are reported in the response body, never as an error status.
func (s *Server) SearchMovies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())
		query := r.URL.Query().Get("query")

		result := s.manager.SearchMovies(r.Context(), query)

		err := writeResponse(w, http.StatusOK, GenericResponse{Response: result})
		if err != nil {
			log.Errorw("failed to write response", "error", err)
			return
		}
	}
}

// Trending lists the most searched terms
func (s *Server) Trending() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())

		result := s.manager.Trending(r.Context())
		resp := GenericResponse{Response: result.Records}
		if result.Err != nil {
			resp.Error = "failed to load trending searches"
		}

		err := writeResponse(w, http.StatusOK, resp)
		if err != nil {
			log.Errorw("failed to write response", "error", err)
			return
		}
	}
}

// Stats reports store totals
func (s *Server) Stats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())

		stats, err := s.stats.GetSearchStats(r.Context())
		if err != nil {
			log.Errorw("failed to get search stats", "error", err)
			writeErrorResponse(w, http.StatusInternalServerError, errors.New("failed to get search stats"))
			return
		}

		err = writeResponse(w, http.StatusOK, GenericResponse{Response: stats})
		if err != nil {
			log.Errorw("failed to write response", "error", err)
			return
		}
	}
}
