/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Build the JSON logger
  3. Initialize SQLite store
  4. Load the compensation rules (RULES_FILE or built-in)
  5. Wire ledger, engine, service, metrics and handler
  6. Start the retention scheduler
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides APP_PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the retention scheduler
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/payroll.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - config/config.go: Environment keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/metrics"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

const version = "v1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "payroll-engine: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	logFormat := httplog.SchemaECS.Concise(!cfg.IsProduction())
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-engine"),
		slog.String("version", version),
		slog.String("env", cfg.Environment),
	)
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	rules, err := loadRules(cfg.RulesFile)
	if err != nil {
		return err
	}

	ledger := generic.NewTimeLedger(store)
	engine := payroll.NewEngine(ledger, store, store, rules)

	service := payroll.NewService(store, engine)
	service.Access = payroll.DefaultAccessPolicy(cfg.RestrictedBatchLimit)
	service.RetentionMonths = cfg.RetentionMonths
	service.Logger = logger.With(slog.String("component", "payroll"))

	opts := api.RouterOptions{
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
	}
	if cfg.MetricsEnabled {
		service.Metrics = metrics.New(prometheus.DefaultRegisterer)
		opts.Metrics = promhttp.Handler()
	}

	handler := api.NewHandler(store, ledger, service)
	handler.Logger = logger.With(slog.String("component", "api"))
	router := api.NewRouter(handler, opts)

	scheduler := api.NewRetentionScheduler(service, logger.With(slog.String("component", "retention")))
	scheduler.Interval = cfg.RetentionInterval
	scheduler.Start()
	defer scheduler.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "db", *dbPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// loadRules reads the compensation rule table from path, or returns the
// built-in table when path is empty.
func loadRules(path string) (*payroll.RuleTable, error) {
	if path == "" {
		return payroll.DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	rules, err := factory.NewRuleFactory().ParseRules(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	return rules, nil
}
