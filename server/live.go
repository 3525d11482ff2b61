package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kasuboski/moviefind/pkg/logger"
	"github.com/kasuboski/moviefind/pkg/manager"
	"github.com/kasuboski/moviefind/pkg/storage"
	"github.com/kasuboski/moviefind/pkg/tmdb"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 32
)

// Frame types sent over the live connection
const (
	frameLoading  = "loading"
	frameResults  = "results"
	frameTrending = "trending"

	messageInput = "input"
)

// liveMessage is sent by the browser for every change of the search box
type liveMessage struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type loadingFrame struct {
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
}

type resultsFrame struct {
	Type   string              `json:"type"`
	Seq    uint64              `json:"seq"`
	Query  string              `json:"query"`
	Movies []tmdb.MovieSummary `json:"movies"`
	Error  string              `json:"error"`
}

type trendingFrame struct {
	Type     string                 `json:"type"`
	Trending []storage.SearchRecord `json:"trending"`
	Error    string                 `json:"error,omitempty"`
}

// liveClient owns one websocket connection. Frames are written by a single goroutine.
type liveClient struct {
	id        string
	conn      *websocket.Conn
	send      chan any
	done      chan struct{}
	closeOnce sync.Once
}

func newLiveClient(conn *websocket.Conn) *liveClient {
	return &liveClient{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan any, sendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue never blocks, a client too slow to drain its buffer misses frames
func (c *liveClient) enqueue(log *zap.SugaredLogger, frame any) {
	select {
	case <-c.done:
	case c.send <- frame:
	default:
		log.Warnw("dropping live frame for slow client", "client", c.id)
	}
}

func (c *liveClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *liveClient) writePump(log *zap.SugaredLogger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Debugw("failed to set write deadline", "error", err)
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				log.Debugw("failed to write live frame", "error", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump feeds input messages to the session until the connection closes
func (c *liveClient) readPump(log *zap.SugaredLogger, session *manager.Session) {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Debugw("failed to set read deadline", "error", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg liveMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugw("unexpected live connection close", "error", err)
			}
			return
		}

		// any client traffic proves liveness
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		switch msg.Type {
		case messageInput:
			session.Input(msg.Value)
		default:
			log.Debugw("ignoring live message", "type", msg.Type)
		}
	}
}

// Live upgrades to a websocket and runs a debounced search session over it
func (s *Server) Live() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// the upgrader already replied with an error status
			log.Debugw("failed to upgrade live connection", "error", err)
			return
		}

		client := newLiveClient(conn)
		log = log.With("client", client.id)
		s.clients.Set(client.id, client)
		s.metrics.SessionOpened()
		defer func() {
			s.clients.Take(client.id)
			s.metrics.SessionClosed()
		}()

		ctx, cancel := context.WithCancel(logger.WithCtx(r.Context(), log))
		defer cancel()

		go client.writePump(log)

		trending := s.manager.Trending(ctx)
		frame := trendingFrame{Type: frameTrending, Trending: trending.Records}
		if trending.Err != nil {
			frame.Error = "failed to load trending searches"
		}
		client.enqueue(log, frame)

		session := manager.NewSession(ctx, s.manager, func(e manager.Event) {
			client.enqueue(log, toFrame(e))
		}, manager.WithDebounceDelay(s.debounce))
		session.Start()

		log.Debugw("live session started", "live_clients", s.clients.Size())
		client.readPump(log, session)

		session.Close()
		client.close()
		log.Debugw("live session closed", "live_clients", s.clients.Size())
	}
}

func toFrame(e manager.Event) any {
	if e.Type == manager.EventResults && e.Result != nil {
		return resultsFrame{
			Type:   frameResults,
			Seq:    e.Seq,
			Query:  e.Result.Query,
			Movies: e.Result.Movies,
			Error:  e.Result.ErrorMessage,
		}
	}

	return loadingFrame{Type: frameLoading, Seq: e.Seq}
}
