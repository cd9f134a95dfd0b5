// Package api exposes the planner over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/studyplan/internal/llm"
	"github.com/abhisek/studyplan/internal/logger"
	"github.com/abhisek/studyplan/internal/planner"
	"github.com/abhisek/studyplan/internal/store"
)

// maxBodyBytes caps request bodies; a long chat history fits comfortably.
const maxBodyBytes = 2 << 20

// Planner is the service the handlers drive.
type Planner interface {
	GeneratePlan(ctx context.Context, req planner.PlanRequest) (*planner.Result, error)
	ContinueChat(ctx context.Context, planID int, conv []llm.Message) (*planner.Result, error)
	GetPlan(ctx context.Context, planID int) (*store.Plan, error)
}

// Options configures the HTTP server.
type Options struct {
	CORSOrigins []string
	Version     string
}

// Server is the HTTP front of the planner.
type Server struct {
	engine  *gin.Engine
	planner Planner
	log     *logger.Logger
	version string
}

// NewServer builds the router with middleware and routes.
func NewServer(p Planner, log *logger.Logger, opts Options) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Server{
		engine:  gin.New(),
		planner: p,
		log:     log,
		version: opts.Version,
	}

	s.engine.Use(RequestID(), RequestLogger(log), Recovery(log))
	if len(opts.CORSOrigins) > 0 {
		s.engine.Use(CORS(opts.CORSOrigins))
	}

	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.POST("/plan/generate", s.handleGenerate)
	s.engine.POST("/chat/continue", s.handleContinue)
	s.engine.GET("/plans/:id", s.handleGetPlan)
	s.engine.GET("/plans/:id/export", s.handleExport)

	s.engine.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "not_found", "route not found")
	})

	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
// In-flight LLM calls may take minutes; shutdownTimeout bounds the wait.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLog(c *gin.Context) *logger.Logger {
	return s.log.With("request_id", c.GetString(ctxRequestID), "path", c.FullPath())
}
