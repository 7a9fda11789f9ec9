package httpserver

import (
	"context"
	"net/http"
	"time"
)

// Server wraps http.Server with timeouts suitable for a request-scoped
// scoring API. Analysis is synchronous, so slow-client protection matters
// more than long-poll support.
type Server struct {
	srv *http.Server
}

// New builds a Server listening on addr and serving handler.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// ListenAndServe blocks serving requests until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
