package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgp-ops/askdgp/config"
	"github.com/dgp-ops/askdgp/internal/engine"
	"github.com/dgp-ops/askdgp/internal/record"
	"github.com/dgp-ops/askdgp/internal/retrieve"
	"github.com/dgp-ops/askdgp/internal/topics"
	"github.com/dgp-ops/askdgp/provider"
	"github.com/dgp-ops/askdgp/session"
	"github.com/dgp-ops/askdgp/session/inmemory"
	"github.com/dgp-ops/askdgp/session/redisstore"
)

// Server holds the shared read-only snapshot (ticket table plus suggested
// topics) and the per-session state store. The snapshot is swapped atomically
// only by the optional cron refresher; everything else reads it.
type Server struct {
	Config   *config.Config
	Engine   *engine.Engine
	Sessions session.Store
	Source   record.Source
	Logger   *log.Logger

	snapshot    atomic.Pointer[record.Table]
	suggestions atomic.Pointer[[]topics.Suggestion]
}

// Run loads the ticket table, builds the shared dependencies and serves the
// HTTP API. A failed table load is fatal: nothing works without ticket data.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	if cfg.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	ctx := context.Background()
	logger := log.New(log.Writer(), "[ASKDGP] ", log.LstdFlags)

	source, err := BuildSource(cfg)
	if err != nil {
		return err
	}

	prov, err := provider.NewProvider(provider.Client(cfg.LLM.Type), cfg.LLM)
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(cfg.General.Timezone)
	if err != nil {
		return fmt.Errorf("loading timezone %q: %w", cfg.General.Timezone, err)
	}

	retriever := retrieve.New(retrieve.NewTokenSortScorer())
	retriever.BlockSize = cfg.Retrieval.BlockSize
	retriever.MaxCandidates = cfg.Retrieval.MaxCandidates
	retriever.Logger = log.New(log.Writer(), "[RETRIEVE] ", log.LstdFlags)

	eng := engine.New(prov, retriever, loc, log.New(log.Writer(), "[ENGINE] ", log.LstdFlags))
	eng.ContextTurns = cfg.Retrieval.ContextTurns

	sessions, err := buildSessionStore(ctx, cfg)
	if err != nil {
		return err
	}

	srv := &Server{
		Config:   cfg,
		Engine:   eng,
		Sessions: sessions,
		Source:   source,
		Logger:   logger,
	}

	// The ticket table and suggested topics are computed once at startup and
	// shared read-only across sessions.
	if err := srv.refreshSnapshot(ctx); err != nil {
		return err
	}
	if spec := cfg.Topics.RefreshCron; spec != "" {
		expr, err := cronexpr.Parse(spec)
		if err != nil {
			return fmt.Errorf("parsing topics.refresh_cron %q: %w", spec, err)
		}
		go srv.refreshLoop(ctx, expr)
	}

	secret := cfg.Server.JWTSecret
	if secret == "" {
		return fmt.Errorf("jwt secret not configured (server.jwt_secret)")
	}
	auth := &AuthHandler{Config: cfg, Secret: []byte(secret)}

	api := e.Group("/api")
	auth.Register(api.Group("/auth"))

	chat := &ChatHandler{Server: srv}
	chat.Register(api, auth.Secret)

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":8080"
	}
	logger.Printf("listening on %s", addr)
	return e.Start(addr)
}

func BuildSource(cfg *config.Config) (record.Source, error) {
	switch cfg.Storage.Source {
	case "file":
		return record.FileSource{Path: cfg.Storage.CSVPath}, nil
	case "http":
		return record.HTTPSource{URL: cfg.Storage.CSVURL}, nil
	case "postgres":
		db, err := sql.Open("postgres", cfg.Storage.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return record.SQLSource{DB: db}, nil
	default:
		return nil, fmt.Errorf("unknown storage.source %q", cfg.Storage.Source)
	}
}

func buildSessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	switch cfg.Storage.Sessions {
	case "", "inmemory":
		return inmemory.NewStore(), nil
	case "redis":
		client, err := redisstore.Conn(ctx, cfg.Storage.Redis.Addr(), cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.Timeout)
		if err != nil {
			return nil, err
		}
		return redisstore.NewStore(client), nil
	default:
		return nil, fmt.Errorf("unknown storage.sessions %q", cfg.Storage.Sessions)
	}
}

// Snapshot returns the current ticket table.
func (s *Server) Snapshot() *record.Table {
	return s.snapshot.Load()
}

// Suggestions returns the current suggested-topic set.
func (s *Server) Suggestions() []topics.Suggestion {
	if p := s.suggestions.Load(); p != nil {
		return *p
	}
	return nil
}

// refreshSnapshot loads the table and recomputes the representative topic
// set. The first call is fatal on error; scheduled refreshes keep the old
// snapshot instead.
func (s *Server) refreshSnapshot(ctx context.Context) error {
	tbl, err := s.Source.Load(ctx)
	if err != nil {
		return err
	}
	top := topics.Top(tbl, s.Config.Topics.TopN)
	reps := topics.Dedupe(top, retrieve.NewTokenSortScorer(), s.Config.Topics.Threshold)
	sugg := topics.Questions(ctx, s.Engine.Provider, reps, s.Logger)

	s.snapshot.Store(tbl)
	s.suggestions.Store(&sugg)
	s.Logger.Printf("loaded %d ticket records, %d suggested topics", tbl.Len(), len(sugg))
	return nil
}

func (s *Server) refreshLoop(ctx context.Context, expr *cronexpr.Expression) {
	for {
		next := expr.Next(time.Now())
		if next.IsZero() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}
		if err := s.refreshSnapshot(ctx); err != nil {
			s.Logger.Printf("scheduled snapshot refresh failed, keeping previous snapshot: %v", err)
		}
	}
}
