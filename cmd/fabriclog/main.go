// Command fabriclog serves the fabric inventory form and offers the same
// extract and save steps on the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/vivaneiona/fabriclog"
)

var (
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "fabriclog",
	Short:         "Log purchased fabric into an inventory spreadsheet",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("fabriclog failed", "error", err)
		if errors.Is(err, fabriclog.ErrMissingCredentials) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// app is everything a subcommand needs once settings are loaded.
type app struct {
	settings  *fabriclog.Settings
	log       *slog.Logger
	extractor *fabriclog.Extractor
}

// newApp loads settings and builds the extractor. Missing credentials stop
// the process before anything else happens.
func newApp(ctx context.Context) (*app, error) {
	settings, err := fabriclog.LoadSettings(envFile)
	if err != nil {
		return nil, err
	}

	level := settings.Level()
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  settings.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}

	prompts, err := fabriclog.DefaultPrompts()
	if err != nil {
		return nil, fmt.Errorf("prompts: %w", err)
	}

	logger.Debug("Settings loaded",
		"models", settings.Models,
		"spreadsheet", settings.SpreadsheetID != "",
		"sheet", settings.SheetName,
		"timeout", settings.Timeout)

	return &app{
		settings:  settings,
		log:       logger,
		extractor: fabriclog.NewExtractorWithLogger(client, prompts, logger, settings.ExtractorOptions()...),
	}, nil
}
