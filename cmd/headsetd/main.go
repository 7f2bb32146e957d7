package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/headsetd/internal/app"
	"github.com/dokzlo13/headsetd/internal/config"
	"github.com/dokzlo13/headsetd/internal/db"
	"github.com/dokzlo13/headsetd/internal/ledger"
)

func main() {
	// Support both -c and --config for config path
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.StringVar(&configPath, "c", "config.yaml", "Path to configuration file (shorthand)")
	noTray := flag.Bool("no-tray", false, "Run without the system tray icon")
	history := flag.Int("history", 0, "Print the last N ledger entries and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *noTray {
		disabled := false
		cfg.Tray.Enabled = &disabled
	}

	// Setup logging
	setupLogging(cfg.Log.GetLevel(), cfg.Log.UseJSON, cfg.Log.Colors)

	if *history > 0 {
		if err := printHistory(cfg.Database.Path, *history); err != nil {
			log.Fatal().Err(err).Msg("Failed to read ledger")
		}
		return
	}

	log.Info().Str("config", configPath).Msg("Starting headsetd")

	// Create application
	application, err := app.New(cfg, configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	// Create context that cancels on shutdown signal
	ctx := app.SignalContext()

	// Run blocks until shutdown (tray exit or signal)
	if err := application.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Error during run")
		os.Exit(1)
	}
}

// printHistory writes recent ledger entries to stdout as JSON lines
func printHistory(dbPath string, limit int) error {
	database, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	entries, err := ledger.New(database.DB).Recent(limit)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for i := len(entries) - 1; i >= 0; i-- {
		if err := enc.Encode(entries[i]); err != nil {
			return fmt.Errorf("failed to encode entry: %w", err)
		}
	}
	return nil
}

func setupLogging(level string, useJSON bool, colors bool) {
	// ISO 8601 format with timezone
	zerolog.TimeFieldFormat = time.RFC3339

	if useJSON {
		// JSON output for production
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		// Text output (with optional colors)
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    !colors,
		})
	}

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
