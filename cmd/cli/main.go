package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dvloznov/fincopilot/internal/app"
	"github.com/dvloznov/fincopilot/internal/config"
	"github.com/dvloznov/fincopilot/internal/logger"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *app.App, args []string, out io.Writer) error
}

var commands = []command{
	{"parse", "Parse a statement without storing it", runParse},
	{"add", "Parse a statement and store the record", runAdd},
	{"report", "Print the report for a period", runReport},
	{"top", "Print the largest expense categories", runTop},
	{"profit", "Print income, expenses and margin", runProfit},
	{"search", "Search records by description, category or amount", runSearch},
	{"edit", "Change fields of a stored record", runEdit},
	{"delete", "Delete a stored record", runDelete},
	{"budget-set", "Create or update a budget", runBudgetSet},
	{"budget-list", "List budgets", runBudgetList},
	{"budget-status", "Show spend against each budget", runBudgetStatus},
	{"budget-delete", "Delete a budget", runBudgetDelete},
	{"export", "Export records as CSV to a file or GCS", runExport},
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	name := os.Args[1]
	if name == "help" || name == "-h" || name == "--help" {
		printUsage()
		return
	}
	cmd, ok := lookup(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}
	// Logs go to stderr so command output stays pipeable.
	log := logger.NewFromConfig(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer a.Close()

	if err := cmd.run(ctx, a, os.Args[2:], os.Stdout); err != nil {
		log.Error().Err(err).Str("command", name).Msg("Command failed")
		a.Close()
		os.Exit(1)
	}
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printUsage() {
	fmt.Println("FinCopilot CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	for _, c := range commands {
		fmt.Printf("  %-14s %s\n", c.name, c.usage)
	}
	fmt.Println("  help           Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}
