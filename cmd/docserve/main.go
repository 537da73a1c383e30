package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/docserve"
	"github.com/fwojciec/docserve/cache"
	"github.com/fwojciec/docserve/guard"
	"github.com/fwojciec/docserve/jsonrpc"
	"github.com/fwojciec/docserve/retrieve"
	"github.com/fwojciec/docserve/scrape"
	docslog "github.com/fwojciec/docserve/slog"
	"github.com/fwojciec/docserve/sse"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()
	defer m.Close()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Durable cache directory. Overrides flags and env when set.
	CacheDir string

	// Input stream for the stdio binding. Set before calling Run().
	Stdin io.Reader

	// Wired instances for end-to-end testing.
	Cache        *cache.TwoTier
	Orchestrator docserve.Orchestrator
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Stdin: os.Stdin}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.Cache != nil {
		return m.Cache.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdin:  m.Stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("docserve"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'docserve --help' to see available commands")
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Logs go to stderr unconditionally: the stdio binding owns stdout.
	deps.Logger = newLogger(stderr, cli.LogLevel)

	cacheDir := m.CacheDir
	if cacheDir == "" {
		cacheDir = cli.CacheDir
	}
	if cacheDir == "" {
		cacheDir = defaultCacheDir()
	}

	durable, err := cache.NewFileCache(cacheDir)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Set DOCSERVE_CACHE_DIR to a writable directory")
		return fmt.Errorf("failed to open cache directory %q: %w", cacheDir, err)
	}
	m.Cache = cache.NewTwoTier(durable, cache.WithLogger(deps.Logger))

	validator := guard.NewValidator()
	pacer := guard.NewPacer(sourceRateLimits())

	var (
		scrapers    []docserve.Scraper
		aggregators []string
	)
	for _, source := range defaultSources() {
		s, err := scrape.New(source.ID, source.Config, validator, pacer)
		if err != nil {
			return fmt.Errorf("failed to configure source %q: %w", source.ID, err)
		}
		scrapers = append(scrapers, docslog.NewLoggingScraper(s, deps.Logger))
		if source.Config.Aggregator {
			aggregators = append(aggregators, source.ID)
		}
	}

	m.Orchestrator = retrieve.New(
		scrapers,
		docslog.NewLoggingCache(m.Cache, deps.Logger),
		retrieve.WithLogger(deps.Logger),
		retrieve.WithAggregators(aggregators...),
	)

	deps.Dispatcher = jsonrpc.NewDispatcher(m.Orchestrator,
		jsonrpc.WithLogger(deps.Logger),
		jsonrpc.WithServerInfo("docserve", version),
	)
	deps.Sessions = sse.NewRegistry()

	return kongCtx.Run(deps)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docserve-cache"
	}
	return filepath.Join(home, ".docserve", "cache")
}
