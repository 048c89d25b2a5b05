// Package server exposes the matching pipeline, the profile store and job
// ingestion over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/job-matcher/internal/ingest"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/pipeline"
)

const (
	DefaultAddr            = ":5001"
	defaultShutdownTimeout = 10 * time.Second
)

// Store is what the handlers need from persistence.
type Store interface {
	Ping(ctx context.Context) error
	GetProfile(ctx context.Context, userID string) (*matching.ProfileRecord, error)
	CreateUser(ctx context.Context, nu matching.NewUser) (string, error)
	UpsertProfile(ctx context.Context, nu matching.NewUser) (string, error)
	ListMatches(ctx context.Context, userID string) ([]matching.MatchRecord, error)
}

// Matcher runs the matching pipeline for one user.
type Matcher interface {
	RunForUser(ctx context.Context, userID string) (*pipeline.Result, error)
}

// Ingester pulls jobs from the feed into the job store.
type Ingester interface {
	Run(ctx context.Context, limit int) (*ingest.Result, error)
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type Deps struct {
	Store    Store
	Matcher  Matcher
	Ingester Ingester
	Logger   *zap.Logger
}

type Server struct {
	cfg      Config
	store    Store
	matcher  Matcher
	ingester Ingester
	logger   *zap.Logger
	validate *validator.Validate
	engine   *gin.Engine
}

func New(cfg Config, deps Deps) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	s := &Server{
		cfg:      cfg,
		store:    deps.Store,
		matcher:  deps.Matcher,
		ingester: deps.Ingester,
		logger:   deps.Logger,
		validate: newValidator(),
	}

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), requestLogger(s.logger))
	registerRoutes(s.engine, s)

	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
