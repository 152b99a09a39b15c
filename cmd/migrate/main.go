// Command migrate prepares the configured store: header rows for the
// sheets backend, dataset and tables for BigQuery.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/app"
	"github.com/dvloznov/fincopilot/internal/config"
	"github.com/dvloznov/fincopilot/internal/logger"
	"github.com/dvloznov/fincopilot/internal/store"
)

func main() {
	backend := flag.String("backend", "", "Storage backend to prepare (overrides storage.backend)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	log := logger.NewFromConfig(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("Failed to open store")
	}
	defer st.Close()

	if err := migrate(ctx, st, cfg.Storage.Backend, log); err != nil {
		log.Error().Err(err).Msg("Migration failed")
		st.Close()
		os.Exit(1)
	}
	fmt.Printf("Schema for %s backend is up to date.\n", cfg.Storage.Backend)
}

func migrate(ctx context.Context, st store.SchemaEnsurer, backend string, log zerolog.Logger) error {
	start := time.Now()
	log.Info().Str("backend", backend).Msg("Ensuring schema")
	if err := st.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure %s schema: %w", backend, err)
	}
	log.Info().Str("backend", backend).Dur("duration", time.Since(start)).Msg("Schema ensured")
	return nil
}
