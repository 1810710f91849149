package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adamscao/certstamp/internal/api"
	"github.com/adamscao/certstamp/internal/config"
	"github.com/adamscao/certstamp/internal/logging"
	"github.com/adamscao/certstamp/internal/store"
	"github.com/adamscao/certstamp/internal/verifier"
)

var (
	// Version information (set via ldflags)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (defaults apply when empty)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Certificate Verifier\n")
		fmt.Printf("Version:    %s\n", Version)
		fmt.Printf("Commit:     %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	logger.Info("starting verifier", "version", Version, "commit", Commit)

	ctx := context.Background()
	records, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open record store", "error", err)
		os.Exit(1)
	}
	defer records.Close(ctx)

	svc := verifier.NewService(records.Holders, cfg.Server.BaseURL, cfg.Stamp.SystemName)
	svc.DateSource = cfg.Verify.DateSource
	if records.Stamps != nil {
		svc.Stamps = records.Stamps
	}

	server := api.NewServer(cfg, svc, logger)

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.ListenAddr, "base_url", cfg.Server.BaseURL)
		if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	select {
	case <-quit:
		logger.Info("shutting down")
	case err := <-errc:
		logger.Error("server failed", "error", err)
		records.Close(ctx)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}
