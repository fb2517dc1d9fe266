// Package main is the entry point for fincache, a terminal client that caches
// Financial Modeling Prep data in a local SQLite store.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/fincache-tui/internal/app"
	"github.com/j-veylop/fincache-tui/internal/config"
	"github.com/j-veylop/fincache-tui/internal/logger"
	"github.com/j-veylop/fincache-tui/internal/services"
	"github.com/j-veylop/fincache-tui/internal/ui/components"
	"github.com/j-veylop/fincache-tui/internal/ui/tabs/cache"
	"github.com/j-veylop/fincache-tui/internal/ui/tabs/data"
	"github.com/j-veylop/fincache-tui/internal/ui/tabs/settings"
	"github.com/j-veylop/fincache-tui/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "-v", "--version":
			fmt.Println(version.Info())
			os.Exit(0)
		case "-h", "--help":
			printUsage()
			os.Exit(0)
		case "--summary":
			if err := summary(os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown flag: %s\n\n", os.Args[1])
			printUsage()
			os.Exit(2)
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration, points the logger at its file and starts the
// services.
func setup() (*services.Manager, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logCloser, err := logger.Init(cfg.LogPath, slog.LevelInfo)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	mgr, err := services.NewManager(cfg)
	if err != nil {
		_ = logCloser.Close()
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	cleanup := func() {
		if closeErr := mgr.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
		_ = logCloser.Close()
	}
	return mgr, cleanup, nil
}

// summary prints today's usage and the cache contents.
func summary(w io.Writer) error {
	mgr, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	return writeSummary(w, mgr)
}

func writeSummary(w io.Writer, mgr *services.Manager) error {
	budget, err := mgr.Budget()
	if err != nil {
		return fmt.Errorf("failed to read request count: %w", err)
	}
	items, err := mgr.CacheSummary()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	fmt.Fprintf(w, "API Requests Today: %d/%d\n\n", budget.Used, budget.Limit)
	if len(items) == 0 {
		fmt.Fprintln(w, "No data cached yet.")
		return nil
	}
	fmt.Fprintln(w, components.RenderSummaryTable(items))
	return nil
}

// run starts the interactive program.
func run() error {
	mgr, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	model := app.NewModel(mgr)

	state := model.GetState()
	model.SetTabs([]app.Tab{
		data.New(state, mgr),     // Tab 0: endpoints, fetching and export
		cache.New(state, mgr),    // Tab 1: request budget and cache contents
		settings.New(state, mgr), // Tab 2: config.json and app info
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`fincache - Financial Modeling Prep data with a local cache

Usage:
  fincache [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information
  --summary       Print today's API usage and the cached data, then exit

Keyboard Shortcuts:
  1-3             Switch between tabs (Data, Cache, Settings)
  Tab/Shift+Tab   Navigate between tabs
  j/k, Up/Down    Navigate lists and tables
  Enter           Select/confirm
  e / a           Export the selection / export all cached symbols
  Esc             Back
  r               Refresh
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  FMP_API_KEY        API key (required)
  FMP_BASE_URL       API base URL (default: https://financialmodelingprep.com/api)
  FMP_HTTP_TIMEOUT   HTTP timeout (default: 30s)
  FINCACHE_CONFIG    Settings file (default: config.json)
  FINCACHE_LOG       Log file (default: logging disabled)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/fincache/.env

The daily budget is 250 API requests; cached data is served once it is spent.`)
}
