// Command import records statements in bulk, one per line, from a local
// file or a gs:// object.
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/app"
	"github.com/dvloznov/fincopilot/internal/config"
	"github.com/dvloznov/fincopilot/internal/gcsuploader"
	"github.com/dvloznov/fincopilot/internal/jobs"
	"github.com/dvloznov/fincopilot/internal/jobs/inmemory"
	"github.com/dvloznov/fincopilot/internal/logger"
)

const originImport = "import"

func main() {
	source := flag.String("file", "", "Local path or gs:// URI of a file with one statement per line (required)")
	timeout := flag.Duration("timeout", 30*time.Minute, "Overall import deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}
	log := logger.NewFromConfig(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	if *source == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	data, err := readSource(ctx, *source)
	if err != nil {
		log.Fatal().Err(err).Str("source", *source).Msg("Failed to read statements")
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer a.Close()

	summary, err := importStatements(ctx, a, bytes.NewReader(data), cfg.Jobs, log)
	if err != nil {
		log.Error().Err(err).Msg("Import failed")
		a.Close()
		os.Exit(1)
	}
	summary.print(os.Stdout)
}

func readSource(ctx context.Context, source string) ([]byte, error) {
	if !gcsuploader.IsURI(source) {
		return os.ReadFile(source)
	}
	client, err := gcsuploader.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return client.Fetch(ctx, source)
}

// summary is the outcome of one import run.
type summary struct {
	Queued    int
	Completed int
	Failed    []*jobs.IngestTextJob
}

func (s summary) print(w io.Writer) {
	fmt.Fprintf(w, "Imported %d of %d statements.\n", s.Completed, s.Queued)
	for _, job := range s.Failed {
		fmt.Fprintf(w, "  failed: %q (%s) %s\n", job.Text, job.FailureKind, job.Error)
	}
}

// importStatements queues every non-blank, non-comment line, waits for the
// workers to drain the queue and collects the results.
func importStatements(ctx context.Context, a *app.App, r io.Reader, opts config.JobsConfig, log zerolog.Logger) (summary, error) {
	jobStore := inmemory.NewStore()
	queue := inmemory.NewQueue(inmemory.Options{
		BufferSize: opts.BufferSize,
		Workers:    opts.Workers,
		MaxRetries: opts.MaxRetries,
	}, jobStore, log.With().Str("component", "jobs").Logger())

	if err := queue.Start(ctx, jobs.IngestHandler(a.Ingest)); err != nil {
		return summary{}, err
	}

	var s summary
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := queue.PublishIngestText(ctx, &jobs.IngestTextJob{Text: line, Origin: originImport}); err != nil {
			queue.Stop(context.Background())
			return s, fmt.Errorf("queue line %d: %w", s.Queued+1, err)
		}
		s.Queued++
	}
	if err := scanner.Err(); err != nil {
		queue.Stop(context.Background())
		return s, fmt.Errorf("read statements: %w", err)
	}

	if err := queue.Drain(ctx); err != nil {
		return s, fmt.Errorf("wait for workers: %w", err)
	}

	all, err := jobStore.ListJobs(ctx, jobs.JobFilter{Origin: originImport})
	if err != nil {
		return s, err
	}
	for _, job := range all {
		switch job.Status {
		case jobs.JobStatusCompleted:
			s.Completed++
		default:
			s.Failed = append(s.Failed, job)
		}
	}
	log.Info().Int("queued", s.Queued).Int("completed", s.Completed).Int("failed", len(s.Failed)).Msg("Import finished")
	return s, nil
}
