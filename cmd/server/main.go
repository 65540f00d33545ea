/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave-engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Configure logging
  3. Initialize SQLite store
  4. Wire ledger, lifecycle, and API handler
  5. Optionally seed demo data (-seed)
  6. Start server with graceful shutdown

CONFIGURATION:
  Flags take a default from the environment (loaded from .env when present):
  -port  / PORT       HTTP server port (default: 8080)
  -db    / DB_PATH    SQLite database path (default: leave.db,
                      ":memory:" for in-memory)
  -seed               Seed demo leave types, balances, and holidays
  LOG_LEVEL           logrus level (default: info)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - fixtures/seed.go: Demo data
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/fixtures"
	"github.com/warp/leave-engine/ledger"
	"github.com/warp/leave-engine/lifecycle"
	"github.com/warp/leave-engine/store/sqlite"
)

func main() {
	// .env is optional; environment wins over defaults, flags win over both.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "leave.db"), "SQLite database path")
	seed := flag.Bool("seed", false, "seed demo leave types, balances, and holidays")
	flag.Parse()

	log := logrus.New()
	if level, err := logrus.ParseLevel(envStr("LOG_LEVEL", "info")); err == nil {
		log.SetLevel(level)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	balances := ledger.New(store.Balances, log)
	requests := lifecycle.NewService(store.Requests, balances, log)

	if *seed {
		if err := fixtures.Seed(context.Background(), fixtures.Stores{
			Balances: store.Balances,
			Catalog:  store.Catalog,
		}, time.Now().Year()); err != nil {
			log.WithError(err).Fatal("failed to seed demo data")
		}
		log.Info("demo data seeded")
	}

	handler := api.NewHandler(requests, balances, store.Catalog, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	log.Info("server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
