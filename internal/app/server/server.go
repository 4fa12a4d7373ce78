package server

import (
	"context"
	"errors"
	"net/http"
	"time"
)

type Server struct {
	httpServer      *http.Server
	notify          chan error
	shutdownTimeout time.Duration
}

func New(address string, timeout time.Duration, idleTimeout time.Duration, shutdownTimeout time.Duration, handler http.Handler) *Server {
	httpServer := &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: timeout,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       idleTimeout,
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 3 * time.Second
	}

	s := &Server{
		httpServer:      httpServer,
		notify:          make(chan error, 1),
		shutdownTimeout: shutdownTimeout,
	}
	return s
}

// Start serves in the background. Notify yields the error that stopped the
// server, if any.
func (s *Server) Start() {
	go func() {
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.notify <- err
		}
		close(s.notify)
	}()
}

func (s *Server) Notify() <-chan error {
	return s.notify
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
