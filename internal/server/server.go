// Package server accepts plaintext HTTP and hands every request to the
// proxy.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/the-insecure-proxy/insecure-proxy/internal/config"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg        *config.Config
	proxy      http.Handler
	httpServer *http.Server
	ln         net.Listener
}

func New(cfg *config.Config, proxy http.Handler) *Server {
	return &Server{
		cfg:   cfg,
		proxy: proxy,
	}
}

// Handler returns the router: request ids, access log and panic recovery
// around the proxy, which receives every path and method.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)

	r.Handle("/*", s.proxy)
	r.NotFound(s.proxy.ServeHTTP)
	r.MethodNotAllowed(s.proxy.ServeHTTP)
	return r
}

func (s *Server) Start() error {
	addr := s.cfg.ListenAddr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("net.Listen %s: %w", addr, err)
	}
	s.ln = ln

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	slog.Info("proxy server started", slog.String("addr", ln.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("proxy server error", slog.Any("error", err))
		}
	}()
	return nil
}

// Addr is the bound listen address, useful when port 0 was configured.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.cfg.ListenAddr()
	}
	return s.ln.Addr().String()
}

func (s *Server) Close() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("proxy server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func slogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("proxy server request",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("host", r.Host),
			slog.String("path", r.URL.Path),
			slog.String("remote", r.RemoteAddr),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}
