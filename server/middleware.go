package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/kasuboski/moviefind/pkg/logger"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-Id"

func (s *Server) LogMiddleware() mux.MiddlewareFunc {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.New().String()
			w.Header().Set(requestIDHeader, id)
			log := s.baseLogger.With(zap.String("request_path", r.URL.Path)).With(zap.String("id", id))
			h.ServeHTTP(w, r.WithContext(logger.WithCtx(r.Context(), log)))
		})
	}
}
