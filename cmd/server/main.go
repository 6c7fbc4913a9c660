// Package main initializes and starts the workspace API server, setting up
// configuration, logging, database connections, repositories, services,
// handlers and metrics.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/atinyakov/teamsync/internal/certgen"
	"github.com/atinyakov/teamsync/internal/config"
	"github.com/atinyakov/teamsync/internal/db"
	"github.com/atinyakov/teamsync/internal/logger"
	"github.com/atinyakov/teamsync/internal/middleware"
	"github.com/atinyakov/teamsync/internal/repository"
	"github.com/atinyakov/teamsync/internal/server/handler/http"
	"github.com/atinyakov/teamsync/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, config file and environment configuration.
	options, err := config.ParseServer(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(2)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Purge chat tombstones past the retention window.
	db.StartTombstoneCleaner(ctx, postgresDB,
		time.Duration(options.CleanupInterval),
		time.Duration(options.TombstoneRetention),
		zapLogger,
	)

	// Initialize repositories for sessions and the four collections.
	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	board := service.NewBoard(
		repository.NewPostgresTaskRepository(postgresDB),
		repository.NewPostgresContactRepository(postgresDB),
		repository.NewPostgresMemberRepository(postgresDB),
		repository.NewPostgresMessageRepository(postgresDB),
	)
	authService := service.NewAuthService(authRepo)

	// Metrics registry with process and Go runtime collectors.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var limiter *middleware.RateLimiter
	if options.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(options.RateLimitRPS, options.RateLimitBurst, 10*time.Minute)
		go limiter.RunSweeper(time.Minute, ctx.Done())
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(http.RouterDeps{
		Auth:     &http.AuthHandler{AuthService: authService, Logger: zapLogger},
		Board:    http.NewBoardHandler(board.Tasks, board.Contacts, board.Members, board.Messages),
		Sessions: authService,
		Limiter:  limiter,
		Metrics:  middleware.NewMetrics(reg),
		Gatherer: reg,
		Logger:   zapLogger,
	})

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Warn("graceful shutdown failed", zap.Error(err))
		}
	}()

	if options.TLSCert == "" {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		err = server.ListenAndServe()
	} else {
		created, certErr := certgen.EnsureServerCertificate(options.TLSCert, options.TLSKey, listenHosts(options.Port))
		if certErr != nil {
			zapLogger.Fatal("failed to prepare TLS certificate", zap.Error(certErr))
		}
		if created {
			zapLogger.Info("generated self-signed certificate", zap.String("cert", options.TLSCert))
		}
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start server", zap.Error(err))
	}
}

// listenHosts returns the names a self-signed certificate should cover for
// the listen address addr.
func listenHosts(addr string) []string {
	hosts := []string{"localhost", "127.0.0.1"}
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" && host != "localhost" && host != "127.0.0.1" {
		hosts = append(hosts, host)
	}
	return hosts
}
