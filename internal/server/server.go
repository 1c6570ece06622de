// Package server serves the grading web page and its JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"
	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/grading"
	"github.com/programme-lv/grader/internal/questions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	shutdownTimeout = 15 * time.Second
	maxBodyBytes    = 1 << 20
)

type QuestionSource interface {
	Question(ctx context.Context) (*questions.Question, error)
	Tests() []api.TestCase
}

type Evaluator interface {
	Evaluate(ctx context.Context, sub grading.Submission, gath grading.ResultGatherer) (bool, []api.TestOutcome)
	Language() string
}

// EventsFunc returns an extra gatherer for the evaluation with the given uuid.
type EventsFunc func(evalUuid string) grading.ResultGatherer

type Config struct {
	Addr           string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int
}

type Server struct {
	addr    string
	store   QuestionSource
	grader  Evaluator
	events  EventsFunc
	limiter *Limiter
	logger  *slog.Logger
}

// New creates a server. events may be nil.
func New(cfg Config, store QuestionSource, grader Evaluator, events EventsFunc, logger *slog.Logger) *Server {
	return &Server{
		addr:    cfg.Addr,
		store:   store,
		grader:  grader,
		events:  events,
		limiter: NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.MaxConcurrent),
		logger:  logger,
	}
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.Handle("/", s.limiter.Middleware(http.HandlerFunc(s.handleSubmit))).Methods(http.MethodPost)
	r.Handle("/api/grade", s.limiter.Middleware(http.HandlerFunc(s.handleGradeAPI))).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return gzhttp.GzipHandler(r)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go s.limiter.Cleanup(ctx, time.Minute, 3*time.Minute)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
