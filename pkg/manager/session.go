package manager

import (
	"context"
	"sync"
	"time"

	"github.com/kasuboski/moviefind/pkg/debounce"
	"github.com/kasuboski/moviefind/pkg/logger"
)

type EventType string

const (
	EventLoading EventType = "loading"
	EventResults EventType = "results"
)

// Event is published by a Session. Result is set for EventResults.
type Event struct {
	Type   EventType
	Seq    uint64
	Result *SearchResult
}

// Session turns raw keystrokes into searches. Input is debounced, each effective query
// supersedes the one before it and results of superseded queries are dropped.
type Session struct {
	ctx      context.Context
	searcher MovieSearcher
	publish  func(Event)
	input    *debounce.Debouncer[string]

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	last    string
	started bool
	closed  bool
	wg      sync.WaitGroup
}

type sessionOptions struct {
	delay    time.Duration
	debounce []debounce.Option
}

type SessionOption func(*sessionOptions)

// WithDebounceDelay sets the quiet period before input becomes a query
func WithDebounceDelay(d time.Duration) SessionOption {
	return func(o *sessionOptions) {
		if d > 0 {
			o.delay = d
		}
	}
}

// WithDebounceOptions passes options through to the input debouncer
func WithDebounceOptions(opts ...debounce.Option) SessionOption {
	return func(o *sessionOptions) {
		o.debounce = append(o.debounce, opts...)
	}
}

// NewSession creates a session. publish is called with the session lock held so
// events arrive in order; it must not call back into the session.
func NewSession(ctx context.Context, searcher MovieSearcher, publish func(Event), opts ...SessionOption) *Session {
	o := sessionOptions{delay: debounce.DefaultDelay}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		ctx:      ctx,
		searcher: searcher,
		publish:  publish,
	}
	s.input = debounce.New(o.delay, s.query, o.debounce...)

	return s
}

// Start runs the initial empty query, which lists popular movies
func (s *Session) Start() {
	s.query("")
}

// Input records the current raw text of the search box
func (s *Session) Input(raw string) {
	s.input.Push(raw)
}

// Seq is the sequence number of the latest query
func (s *Session) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Close stops pending input, cancels the in-flight search and waits for it to return
func (s *Session) Close() {
	s.input.Stop()

	s.mu.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Session) query(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// an unchanged debounced value is not a new query
	if s.closed || (s.started && q == s.last) {
		return
	}
	s.started = true
	s.last = q

	if s.cancel != nil {
		s.cancel()
	}

	s.seq++
	seq := s.seq
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel

	s.publish(Event{Type: EventLoading, Seq: seq})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		res := s.searcher.SearchMovies(ctx, q)

		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed || seq != s.seq {
			logger.FromCtx(ctx).Debugw("dropping stale search result", "query", q, "seq", seq, "latest", s.seq)
			return
		}

		s.publish(Event{Type: EventResults, Seq: seq, Result: &res})
	}()
}
