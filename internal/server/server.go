// Package server provides the HTTP API and the chat page.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/config"
	"pdf-rag/internal/memory"
	"pdf-rag/internal/rag"
)

const defaultTimeout = 65 * time.Second

// Answerer runs one question through the RAG pipeline.
type Answerer interface {
	Answer(ctx context.Context, sess *memory.Session, question string) rag.Outcome
}

// Server is the HTTP server for the question-answering API.
type Server struct {
	answerer     Answerer
	sessions     *memory.Store
	previewLimit int
	timeout      time.Duration
	router       chi.Router
	server       *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(answerer Answerer, sessions *memory.Store, cfg *config.Config) *Server {
	s := &Server{
		answerer:     answerer,
		sessions:     sessions,
		previewLimit: cfg.RAG.PreviewLimit,
		timeout:      defaultTimeout,
	}
	// must outlast the orchestrator timeout so its fallback answer is still written
	if cfg.RAG.RequestTimeout > 0 {
		s.timeout = cfg.RAG.RequestTimeout + 5*time.Second
	}
	s.router = s.routes()
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(requestIDLogger)
	r.Use(hlog.MethodHandler("method"))
	r.Use(hlog.URLHandler("url"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/health", s.handleHealth)
	r.Post("/chat", s.handleChat)
	r.Get("/", s.handleIndex)
	r.Post("/", s.handleAsk)
	return r
}

// requestIDLogger adds chi's request id to the request logger.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops. A graceful stop returns nil.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("Starting server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
