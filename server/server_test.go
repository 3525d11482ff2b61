package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kasuboski/moviefind/pkg/manager"
	"github.com/kasuboski/moviefind/pkg/metrics"
	"github.com/kasuboski/moviefind/pkg/storage"
	"github.com/kasuboski/moviefind/pkg/storage/mocks"
	"github.com/kasuboski/moviefind/pkg/tmdb"
	"github.com/kasuboski/moviefind/pkg/trending"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fakeManager struct {
	mu       sync.Mutex
	queries  []string
	trending trending.TrendingResult
}

func (f *fakeManager) SearchMovies(ctx context.Context, query string) manager.SearchResult {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if query == "fail" {
		return manager.SearchResult{Query: query, Movies: []tmdb.MovieSummary{}, ErrorMessage: manager.GenericErrorMessage}
	}
	return manager.SearchResult{Query: query, Movies: []tmdb.MovieSummary{{ID: 268, Title: "Batman"}}}
}

func (f *fakeManager) Trending(ctx context.Context) trending.TrendingResult {
	return f.trending
}

func newTestServer(m Manager, opts ...Option) *Server {
	return New(zap.NewNop().Sugar(), m, opts...)
}

func TestServer_Healthz(t *testing.T) {
	t.Run("healthz", func(t *testing.T) {
		s := newTestServer(&fakeManager{})

		req, err := http.NewRequest("GET", "/healthz", nil)
		assert.NoError(t, err)

		rr := httptest.NewRecorder()

		s.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		assert.Equal(t, "application/json", rr.Header().Get("content-type"))
		assert.NotEmpty(t, rr.Header().Get(requestIDHeader))

		var response GenericResponse
		err = json.Unmarshal(rr.Body.Bytes(), &response)

		assert.NoError(t, err)
		assert.Equal(t, "ok", response.Response)
	})
}

func TestServer_SearchMovies(t *testing.T) {
	t.Run("returns results", func(t *testing.T) {
		m := &fakeManager{}
		s := newTestServer(m)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/movies?query=batman+begins", nil)
		rr := httptest.NewRecorder()
		s.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"batman begins"}, m.queries)
		assert.JSONEq(t, `{"response":{"query":"batman begins","movies":[{"id":268,"title":"Batman","poster_path":null}],"error":""}}`, rr.Body.String())
	})

	t.Run("failure is reported in the body", func(t *testing.T) {
		s := newTestServer(&fakeManager{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/movies?query=fail", nil)
		rr := httptest.NewRecorder()
		s.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"response":{"query":"fail","movies":[],"error":"Error fetching movies. Try another keyword."}}`, rr.Body.String())
	})

	t.Run("missing query discovers", func(t *testing.T) {
		m := &fakeManager{}
		s := newTestServer(m)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/movies", nil)
		rr := httptest.NewRecorder()
		s.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{""}, m.queries)
	})
}

func TestServer_Trending(t *testing.T) {
	t.Run("lists records", func(t *testing.T) {
		updated := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		s := newTestServer(&fakeManager{trending: trending.TrendingResult{Records: []storage.SearchRecord{
			{ID: "1", SearchTerm: "batman", Count: 3, PosterURL: "https://image.tmdb.org/t/p/w500/b.jpg", MovieID: 268, CreatedAt: updated, UpdatedAt: updated},
		}}})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/trending", nil)
		rr := httptest.NewRecorder()
		s.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"response":[{"id":"1","searchTerm":"batman","count":3,"poster_url":"https://image.tmdb.org/t/p/w500/b.jpg","movie_id":268,"createdAt":"2026-01-01T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z"}]}`, rr.Body.String())
	})

	t.Run("failure gives an empty list", func(t *testing.T) {
		s := newTestServer(&fakeManager{trending: trending.TrendingResult{Records: []storage.SearchRecord{}, Err: errors.New("expected testing error")}})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/trending", nil)
		rr := httptest.NewRecorder()
		s.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"response":[],"error":"failed to load trending searches"}`, rr.Body.String())
	})
}

func TestServer_Stats(t *testing.T) {
	t.Run("not routed without stats", func(t *testing.T) {
		s := newTestServer(&fakeManager{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		rr := httptest.NewRecorder()
		s.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("reports totals", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStorage(ctrl)
		store.EXPECT().GetSearchStats(gomock.Any()).Return(&storage.SearchStats{Terms: 2, Searches: 5}, nil)

		s := newTestServer(&fakeManager{}, WithStats(store))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		rr := httptest.NewRecorder()
		s.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"response":{"terms":2,"searches":5}}`, rr.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStorage(ctrl)
		store.EXPECT().GetSearchStats(gomock.Any()).Return(nil, errors.New("expected testing error"))

		s := newTestServer(&fakeManager{}, WithStats(store))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		rr := httptest.NewRecorder()
		s.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"response":null,"error":"failed to get search stats"}`, rr.Body.String())
	})
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.SearchCompleted(metrics.KindSearch, metrics.OutcomeResults)

	s := newTestServer(&fakeManager{}, WithMetrics(m, reg))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `moviefind_searches_total{kind="search",outcome="results"} 1`)
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestServer_Live(t *testing.T) {
	m := &fakeManager{trending: trending.TrendingResult{Records: []storage.SearchRecord{{ID: "1", SearchTerm: "batman", Count: 2}}}}
	reg := prometheus.NewRegistry()
	s := newTestServer(m, WithDebounce(20*time.Millisecond), WithMetrics(metrics.New(reg), reg))

	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	frame := readFrame(t, conn)
	assert.Equal(t, "trending", frame["type"])
	assert.Len(t, frame["trending"], 1)

	frame = readFrame(t, conn)
	assert.Equal(t, map[string]any{"type": "loading", "seq": float64(1)}, frame)

	frame = readFrame(t, conn)
	assert.Equal(t, "results", frame["type"])
	assert.Equal(t, float64(1), frame["seq"])
	assert.Equal(t, "", frame["query"])

	for _, v := range []string{"b", "ba", "bat"} {
		require.NoError(t, conn.WriteJSON(liveMessage{Type: messageInput, Value: v}))
	}

	frame = readFrame(t, conn)
	assert.Equal(t, map[string]any{"type": "loading", "seq": float64(2)}, frame)

	frame = readFrame(t, conn)
	assert.Equal(t, "results", frame["type"])
	assert.Equal(t, float64(2), frame["seq"])
	assert.Equal(t, "bat", frame["query"])
	assert.Equal(t, "", frame["error"])
	assert.Len(t, frame["movies"], 1)

	m.mu.Lock()
	assert.Equal(t, []string{"", "bat"}, m.queries)
	m.mu.Unlock()

	assert.Equal(t, 1, s.clients.Size())
	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, func() bool { return s.clients.Size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestServer_serve(t *testing.T) {
	s := newTestServer(&fakeManager{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		errs <- s.serve(ctx, ln)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
