package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	"github.com/faultline-ai/faultline/internal/agents"
	"github.com/faultline-ai/faultline/internal/api"
	"github.com/faultline-ai/faultline/internal/board"
	"github.com/faultline-ai/faultline/internal/eventlog"
	"github.com/faultline-ai/faultline/internal/negation"
	"github.com/faultline-ai/faultline/internal/risk"
	"github.com/faultline-ai/faultline/internal/signature"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Logger
	logger := mustBuildLogger(envOrDefault("FAULTLINE_LOG_LEVEL", "info"))
	defer logger.Sync() //nolint:errcheck // best-effort flush

	// Config from env
	httpPort := envOrDefault("FAULTLINE_HTTP_PORT", "8080")
	pollIntervalMs := envOrDefaultInt("FAULTLINE_POLL_INTERVAL_MS", 500)
	stabilizationMs := envOrDefaultInt("FAULTLINE_STABILIZATION_MS", 2000)
	stopTimeoutMs := envOrDefaultInt("FAULTLINE_STOP_TIMEOUT_MS", 2000)
	cacheTTL := envOrDefaultInt("FAULTLINE_AUTH_CACHE_TTL_S", 30)
	keyHash := os.Getenv("FAULTLINE_API_KEY_HASH")
	catalogPath := os.Getenv("FAULTLINE_RULE_CATALOG")
	postgresDSN := os.Getenv("POSTGRES_DSN")
	clickhouseDSN := os.Getenv("CLICKHOUSE_DSN")

	logger.Info("starting faultline server",
		zap.String("http_port", httpPort),
		zap.Int("poll_interval_ms", pollIntervalMs),
		zap.Int("stabilization_ms", stabilizationMs),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Board — Postgres if configured, in-memory otherwise
	var kb board.Board
	if postgresDSN != "" {
		db, err := sql.Open("pgx", postgresDSN)
		if err != nil {
			logger.Fatal("failed to open postgres", zap.Error(err))
		}
		defer func() { _ = db.Close() }()
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			logger.Fatal("failed to ping postgres", zap.Error(err))
		}
		pg := board.NewPostgresBoard(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal("failed to ensure schema", zap.Error(err))
		}
		kb = pg
		logger.Info("postgres board connected")
	} else {
		kb = board.NewMemoryBoard()
		logger.Info("no POSTGRES_DSN set, using in-memory board")
	}

	// Event sink — ClickHouse or log fallback, fed by a board subscription
	var sink eventlog.Sink
	if clickhouseDSN != "" {
		chSink, err := eventlog.NewClickHouseSink(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log sink", zap.Error(err))
			sink = eventlog.NewLogSink(logger)
		} else {
			sink = chSink
			logger.Info("clickhouse event sink connected")
		}
	} else {
		sink = eventlog.NewLogSink(logger)
		logger.Info("no CLICKHOUSE_DSN set, using log sink")
	}
	go eventlog.Pump(ctx, kb.Subscribe(), sink)

	// Rule catalog — defaults plus an optional external catalog file
	rules := signature.DefaultCatalog()
	if catalogPath != "" {
		extra, err := signature.LoadCatalog(catalogPath)
		if err != nil {
			logger.Fatal("failed to load rule catalog", zap.String("path", catalogPath), zap.Error(err))
		}
		rules = append(rules, extra...)
		logger.Info("external rule catalog loaded",
			zap.String("path", catalogPath),
			zap.Int("rules", len(extra)),
		)
	}
	registered := make([]board.PatternRule, 0, len(rules))
	for _, rule := range rules {
		id, err := kb.RegisterPattern(ctx, rule)
		if err != nil {
			logger.Fatal("failed to register pattern", zap.String("rule", rule.Name), zap.Error(err))
		}
		rule.ID = id
		registered = append(registered, rule)
	}

	// Engines
	matcher := signature.NewMatcher(registered, signature.DefaultRelevanceKeywords(), logger)
	logger.Info("signature matcher ready",
		zap.Int("rules", len(registered)),
		zap.Int("active", matcher.ActiveRules()),
	)

	session := agents.NewSession(agents.SessionConfig{
		Board:               kb,
		Negator:             negation.NewEngine(negation.DefaultVocabulary()),
		Matcher:             matcher,
		Assessor:            risk.NewAssessor(risk.DefaultConfig()),
		PollInterval:        time.Duration(pollIntervalMs) * time.Millisecond,
		StabilizationWindow: time.Duration(stabilizationMs) * time.Millisecond,
		StopTimeout:         time.Duration(stopTimeoutMs) * time.Millisecond,
		Logger:              logger,
	})
	session.Start(ctx)

	// HTTP API server
	deps := &api.Dependencies{
		Board:    kb,
		Matcher:  matcher,
		KeyHash:  keyHash,
		CacheTTL: time.Duration(cacheTTL) * time.Second,
		Logger:   logger,
	}
	httpServer := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	// Graceful shutdown: workers first, then the event pump and sink,
	// then the HTTP server.
	session.Stop()
	for _, w := range session.Workers() {
		logger.Info("worker summary",
			zap.String("worker", w.Name()),
			zap.Int64("processed", w.Processed()),
			zap.Int64("errors", w.Errors()),
		)
	}
	cancel()
	sink.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("faultline server stopped")
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
