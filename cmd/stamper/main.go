package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/adamscao/certstamp/internal/config"
	"github.com/adamscao/certstamp/internal/fetch"
	"github.com/adamscao/certstamp/internal/logging"
	"github.com/adamscao/certstamp/internal/overlay"
	"github.com/adamscao/certstamp/internal/qrcode"
	"github.com/adamscao/certstamp/internal/stamper"
	"github.com/adamscao/certstamp/internal/store"
)

var (
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
	records    *store.Store
)

var rootCmd = &cobra.Command{
	Use:   "stamper",
	Short: "Certificate stamping tool",
	Long:  "Stamps certificate PDFs with a verification QR code and signature line, and manages certificate records",
}

func init() {
	// Root flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (defaults apply when empty)")

	rootCmd.AddCommand(stampCmd)
	rootCmd.AddCommand(holderCmd)
	rootCmd.AddCommand(certCmd)
	rootCmd.AddCommand(qrCmd)
	rootCmd.AddCommand(referenceCmd)
}

func main() {
	// Ctrl+C cancels a running batch
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger = logging.New(cfg.Logging)
	return nil
}

func initStore(ctx context.Context) error {
	if err := loadConfig(); err != nil {
		return err
	}

	var err error
	records, err = store.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}

	return nil
}

// newStamper wires a stamper from the loaded configuration
func newStamper() (*stamper.Stamper, error) {
	enc, err := qrcode.FromConfig(cfg.QR)
	if err != nil {
		return nil, err
	}

	var tf *overlay.Typeface
	if cfg.Stamp.FontPath != "" {
		tf, err = overlay.LoadTypeface(cfg.Stamp.FontPath)
		if err != nil {
			return nil, err
		}
	}

	fs := afero.NewOsFs()
	output, err := stamper.NewOutput(fs, cfg.Stamp.OutputDir)
	if err != nil {
		return nil, err
	}

	fetcher := &fetch.Router{
		HTTP: fetch.NewHTTPFetcher(cfg.GetFetchTimeout(), cfg.Stamp.MaxDocumentSize),
		File: &fetch.FileFetcher{Fs: fs, MaxSize: cfg.Stamp.MaxDocumentSize},
	}

	var stamps stamper.StampLog
	if records.Stamps != nil {
		stamps = records.Stamps
	}

	return stamper.New(
		records.Holders,
		fetcher,
		enc,
		overlay.NewCompositor(tf),
		output,
		stamps,
		logger,
		stamper.Options{
			BaseURL:    cfg.Server.BaseURL,
			SystemName: cfg.Stamp.SystemName,
			Workers:    cfg.Stamp.Workers,
		},
	), nil
}
