package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"stockbot/state"
	"stockbot/storage"
	"stockbot/workflow"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

// Runner is the trigger-facing side of workflow.Runner.
type Runner interface {
	RunPass(ctx context.Context) workflow.PassOutcome
	RunBackfill(ctx context.Context, monthsBack int) workflow.BackfillOutcome
	RunDigest(ctx context.Context) workflow.DigestOutcome
	RunScheduled(ctx context.Context) workflow.ScheduledOutcome
}

// Options configures a Server.
type Options struct {
	Port       string
	CronSecret string
}

// Server is the HTTP trigger surface plus the in-process scheduler.
type Server struct {
	runner       Runner
	stateManager *state.Manager
	store        storage.Store
	cronSecret   string

	httpServer *http.Server
	cron       *cron.Cron
	cronID     cron.EntryID
	mu         sync.Mutex
}

func NewServer(runner Runner, stateManager *state.Manager, store storage.Store, opts Options) *Server {
	if opts.Port == "" {
		opts.Port = "8080"
	}
	s := &Server{
		runner:       runner,
		stateManager: stateManager,
		store:        store,
		cronSecret:   opts.CronSecret,
		cron:         cron.New(),
	}

	s.httpServer = &http.Server{
		Addr:    ":" + opts.Port,
		Handler: s.Router(),
	}
	return s
}

// Router constructs the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	g := r.Group("/api")
	g.POST("/pass", s.handlePass)
	g.POST("/backfill", s.handleBackfill)
	g.POST("/digest", s.handleDigest)
	g.GET("/digests", s.handleListDigests)
	g.GET("/cron", s.handleCron)
	g.GET("/data", s.handleData)
	g.GET("/status", s.handleStatus)
	g.GET("/health", s.handleHealth)
	return r
}

// Start serves HTTP in the background.
func (s *Server) Start() {
	slog.Info("starting http server", "addr", s.httpServer.Addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", "error", err)
		}
	}()
}

// StartCron schedules the periodic tick. A tick is skipped while the
// previous one is still running.
func (s *Server) StartCron(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(schedule, s.tick)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cronID = id
	s.cron.Start()
	slog.Info("cron job started", "schedule", schedule)
	return nil
}

func (s *Server) tick() {
	if s.stateManager.IsActive(state.KindScheduled) {
		slog.Info("cron skipped: previous tick still running")
		return
	}

	slog.Info("cron triggered")
	out := s.runner.RunScheduled(context.Background())
	if !out.Success {
		slog.Error("scheduled tick failed", "run_id", out.RunID, "error", out.Error)
	}
}

// Shutdown stops the scheduler, waits for a running tick, then drains HTTP.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down server")

	if s.cron != nil {
		select {
		case <-s.cron.Stop().Done():
		case <-ctx.Done():
		}
	}

	return s.httpServer.Shutdown(ctx)
}
