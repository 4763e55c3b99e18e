// Package server exposes the file service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/idelchi/qtdfp/internal/logging"
	"github.com/idelchi/qtdfp/internal/metrics"
	"github.com/idelchi/qtdfp/internal/vault"
)

// Files is the service the API is backed by.
type Files interface {
	Encrypt(ctx context.Context, filename string, data []byte, password string) (vault.Record, error)
	Decrypt(ctx context.Context, id, password string) (vault.Record, []byte, error)
	List(ctx context.Context) ([]vault.Record, error)
	Delete(ctx context.Context, id string) error
}

// Options configures a Server.
type Options struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64
	// AllowedOrigins defaults to any origin.
	AllowedOrigins []string
	Version        string

	Logger  *logrus.Logger
	Metrics *metrics.Registry
}

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second

	// maxFormMemory is the part of a multipart upload kept in memory before
	// spilling to temporary files.
	maxFormMemory = 32 << 20
)

// Server is the HTTP API.
type Server struct {
	files   Files
	opts    Options
	log     *logrus.Logger
	metrics *metrics.Registry
	handler http.Handler
}

// New builds the server and its routes.
func New(files Files, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		files:   files,
		opts:    opts,
		log:     opts.Logger,
		metrics: opts.Metrics,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /api/encrypt", s.handleEncrypt)
	mux.HandleFunc("GET /api/files", s.handleList)
	mux.HandleFunc("POST /api/decrypt/{id}", s.handleDecrypt)
	mux.HandleFunc("DELETE /api/files/{id}", s.handleDelete)
	mux.Handle("GET /metrics", s.metrics.Handler())

	s.handler = s.instrument(s.cors(mux))

	return s
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe listens on the configured address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.opts.Addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.log.WithField("addr", ln.Addr().String()).Info("listening")

		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-ctx.Done()

		s.log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}

		return nil
	})

	return group.Wait()
}
