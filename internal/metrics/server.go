package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
	"tradelog/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Status is what /health reports about the poll loop.
type Status struct {
	State     string `json:"state"`
	Connected bool   `json:"connected"`
	Rows      int    `json:"rows"`
	Pending   int    `json:"pending"`
}

type StatusFunc func() Status

func NewRouter(status StatusFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(status())
	})

	r.Handle("/metrics", Handler())

	return r
}

type Server struct {
	srv *http.Server
	log *logger.Logger
}

func NewServer(addr string, status StatusFunc, log *logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      NewRouter(status),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log: log,
	}
}

// Run serves until ctx is cancelled, then shuts the server down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithComponent("metrics").WithField("addr", s.srv.Addr).Info("HTTP метрики запущены.")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.srv.Shutdown(shutdownCtx)
}
