package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/vista/internal/adapter"
	"github.com/mmcdole/vista/internal/adapter/source"
	"github.com/mmcdole/vista/internal/adapter/source/catalog"
	"github.com/mmcdole/vista/internal/domain"
	"github.com/mmcdole/vista/internal/query"
	"github.com/mmcdole/vista/internal/store"
	"github.com/mmcdole/vista/internal/tui"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

// dumpLimit is how many items the non-interactive mode prints
const dumpLimit = 50

func main() {
	var showVersion, setup, clearCache bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&setup, "setup", false, "configure a catalogue server")
	flag.BoolVar(&clearCache, "clear-cache", false, "remove the on-disk page cache")
	flag.Parse()

	if showVersion {
		fmt.Printf("vista %s\n", Version)
		return
	}

	if err := run(setup, clearCache); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(setup, clearCache bool) error {
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger, closer = adapter.NullLogger(), io.NopCloser(strings.NewReader(""))
	}
	defer closer.Close()
	slog.SetDefault(logger)

	logger.Info("starting vista", "version", Version, "source", cfg.Server.Type)

	if setup {
		return runSetupFlow(cfg, logger)
	}
	if clearCache {
		if err := source.ClearCache(cfg); err != nil {
			return err
		}
		fmt.Println("✓ Page cache cleared")
		return nil
	}

	cat, err := source.NewCatalogue(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create catalogue: %w", err)
	}

	var pages *store.PageStore
	if cfg.Cache.Enabled {
		pages, err = store.NewPageStore(cfg.Cache.Path)
		if err != nil {
			// The cache is optional; run without it
			logger.Warn("page cache unavailable", "path", cfg.Cache.Path, "error", err)
			pages = nil
		} else {
			defer pages.Close()
		}
	}

	registry := prometheus.NewRegistry()
	metrics := query.NewMetrics(registry)

	bridge := tui.NewBridge()
	opts := cfg.QueryOptions()
	opts.ErrorHandler = bridge.ReportError
	opts.Logger = logger
	opts.Metrics = metrics

	request := source.NewRequest(cfg, cat, pages, logger)
	endpoint := query.NewEndpoint(request, domain.Filter{}, opts)
	defer endpoint.Close()
	if pages != nil {
		defer source.InvalidateOnChange(cfg, endpoint, pages, logger)()
	}
	defer logFetchSummary(registry, logger)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return dump(endpoint, os.Stdout)
	}

	var mutations tui.Mutations
	if m, ok := cat.(tui.Mutations); ok {
		mutations = m
	}

	model := tui.NewModel(endpoint, tui.Config{
		Grid:      cfg.GridConfig(),
		Pages:     query.PaginationOptions{QueryDelay: cfg.Engine.QueryDelay, Logger: logger, Metrics: metrics},
		Bridge:    bridge,
		Mutations: mutations,
		Logger:    logger,
	})
	defer model.Close()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// dump prints the head of the catalogue when stdout is not a terminal
func dump(ep *tui.Endpoint, w io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	items, err := ep.QueryRange(ctx, 0, dumpLimit)
	if err != nil {
		return fmt.Errorf("failed to load catalogue: %w", err)
	}
	total, _ := ep.Count()

	bw := bufio.NewWriter(w)
	for i, item := range items {
		fmt.Fprintf(bw, "%d\t%s\t%s\n", i+1, item.Title, item.GetDescription())
	}
	if total > len(items) {
		fmt.Fprintf(bw, "... %d more\n", total-len(items))
	}
	return bw.Flush()
}

// logFetchSummary logs the fetch counters gathered during the session
func logFetchSummary(registry *prometheus.Registry, logger *slog.Logger) {
	families, err := registry.Gather()
	if err != nil {
		logger.Warn("failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			attrs := []any{"metric", mf.GetName(), "value", value}
			for _, l := range m.GetLabel() {
				attrs = append(attrs, l.GetName(), l.GetValue())
			}
			logger.Info("session metric", attrs...)
		}
	}
}

// runSetupFlow asks for a catalogue server and token, checks them and saves
// the configuration
func runSetupFlow(cfg *adapter.Config, logger *slog.Logger) error {
	fmt.Println()
	fmt.Println("Welcome to Vista!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Enter your catalogue server URL (e.g., http://192.168.1.100:8080): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		serverURL := strings.TrimSpace(input)
		if serverURL == "" {
			fmt.Println("Server URL cannot be empty. Please try again.")
			continue
		}

		fmt.Print("API token (leave empty for none): ")
		tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token := strings.TrimSpace(string(tokenBytes))

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err = catalog.NewClient(serverURL, token, cfg.Server.Timeout, logger).Ping(ctx)
		cancel()
		if err != nil {
			fmt.Printf("\n✗ Could not reach the server: %v\n", err)
			fmt.Println("Please check the URL and try again.")
			fmt.Println()
			continue
		}

		cfg.Server.Type = adapter.SourceTypeHTTP
		cfg.Server.URL = serverURL
		cfg.Server.Token = token
		break
	}

	if err := adapter.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	fmt.Println("Run vista again to start browsing.")
	return nil
}
