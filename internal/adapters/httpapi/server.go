// Package httpapi serves component resolution over HTTP and WebSocket.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.trai.ch/stitch/internal/adapters/metrics"  //nolint:depguard // Served by the API
	"go.trai.ch/stitch/internal/adapters/registry" //nolint:depguard // Record encoding
	"go.trai.ch/stitch/internal/core/domain"
	"go.trai.ch/stitch/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// maxRequestSize bounds resolve request bodies and stream messages.
	maxRequestSize = 4 << 20

	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
	headerTimeout   = 10 * time.Second
)

// ResolveFunc resolves one request. A non-nil sink receives progress events.
type ResolveFunc func(ctx context.Context, req domain.Request, sink domain.EventSink) (*domain.VirtualFileSet, error)

// Server exposes the resolver, the registry and the metrics recorder over HTTP.
type Server struct {
	resolve  ResolveFunc
	registry ports.RegistryClient
	recorder *metrics.Recorder
	logger   ports.Logger
	upgrader websocket.Upgrader
}

// New creates a Server.
func New(resolve ResolveFunc, registry ports.RegistryClient, recorder *metrics.Recorder, logger ports.Logger) *Server {
	return &Server{
		resolve:  resolve,
		registry: registry,
		recorder: recorder,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The API is unauthenticated and carries no cookies.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.recorder.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.recorder.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", s.handleResolve)
		r.Get("/resolve/stream", s.handleStream)
		r.Get("/components/{id}", s.handleComponent)
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
// If ready is non-nil it receives the bound address once the listener is open.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrServerFailed.Error()), "addr", addr)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: headerTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	if ready != nil {
		ready(ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return zerr.With(zerr.Wrap(err, domain.ErrServerFailed.Error()), "addr", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return zerr.Wrap(err, domain.ErrServerFailed.Error())
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return zerr.Wrap(err, domain.ErrServerFailed.Error())
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req domain.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	set, err := s.resolve(r.Context(), req, nil)
	if err != nil {
		s.writeResolveError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleComponent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.registry.Fetch(r.Context(), id)
	if err != nil {
		switch domain.ClassifyFetchError(err) {
		case domain.WarningNotFound:
			writeError(w, http.StatusNotFound, err.Error())
		default:
			s.logger.Error(err)
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	data, err := registry.EncodeRecord(rec)
	if err != nil {
		s.logger.Error(err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyEntryID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error(err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
