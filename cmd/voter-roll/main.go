package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"syscall"
	"time"

	"github.com/a3tai/voter-roll-reader/internal/config"
	"github.com/a3tai/voter-roll-reader/internal/discovery"
	"github.com/a3tai/voter-roll-reader/internal/mcp"
	"github.com/a3tai/voter-roll-reader/internal/pdf"
	"github.com/a3tai/voter-roll-reader/internal/pipeline"
	"github.com/a3tai/voter-roll-reader/internal/store"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// Exit codes
const (
	exitOK        = 0
	exitFailure   = 1
	exitConfig    = 2
	exitCancelled = 130
)

// setupLogging builds the process logger. Batch runs log JSON to stdout;
// stdio mode logs text to stderr so the protocol stream stays clean, and
// only warnings and errors unless debug is enabled.
func setupLogging(cfg *config.Config, stdout, stderr io.Writer) *slog.Logger {
	level := parseLevel(cfg.LogLevel)
	if cfg.IsStdioMode() {
		if !cfg.IsDebug() && level < slog.LevelWarn {
			level = slog.LevelWarn
		}
		return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// runBatch extracts the whole corpus into the store and returns the exit code.
func runBatch(ctx context.Context, cfg *config.Config, logger *slog.Logger, summaryOut io.Writer) int {
	st, err := store.Open(ctx, cfg.DSN, logger)
	if err != nil {
		logger.Error("store unavailable", "error", err)
		return exitFailure
	}
	defer st.Close()

	if cfg.Reset {
		if err := st.Reset(ctx); err != nil {
			logger.Error("store reset failed", "error", err)
			return exitFailure
		}
		logger.Info("store reset")
	}

	decoder, err := pdf.NewDecoder(cfg.Decoder, cfg.Pdftotext, logger)
	if err != nil {
		logger.Error("decoder setup failed", "error", err)
		return exitConfig
	}

	p := pipeline.New(decoder, st,
		pipeline.WithLogger(logger),
		pipeline.WithMaxFileSize(cfg.MaxFileSize),
		pipeline.WithProgress(cfg.Progress),
	)
	summary, err := p.Run(ctx, discovery.Corpus{
		Root:    cfg.Root,
		Regions: cfg.Regions,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("run aborted", "error", err)
		return exitFailure
	}

	writeSummary(summaryOut, summary)
	return exitCode(summary)
}

func exitCode(s pipeline.Summary) int {
	switch {
	case s.Failed():
		return exitFailure
	case s.Cancelled:
		return exitCancelled
	default:
		return exitOK
	}
}

// writeSummary prints the end-of-run report for a human reader.
func writeSummary(w io.Writer, s pipeline.Summary) {
	fmt.Fprintf(w, "Run %s\n", s.RunID)
	fmt.Fprintf(w, "  Documents discovered: %d\n", s.Discovered)
	fmt.Fprintf(w, "  Documents processed:  %d\n", s.Processed)
	fmt.Fprintf(w, "  Documents skipped:    %d\n", s.SkippedCount())
	for _, r := range slices.Sorted(maps.Keys(s.Skipped)) {
		fmt.Fprintf(w, "    %s: %d\n", r, len(s.Skipped[r]))
		for _, path := range s.Skipped[r] {
			fmt.Fprintf(w, "      %s\n", path)
		}
	}
	fmt.Fprintf(w, "  Entries extracted:    %d\n", s.Extracted)
	fmt.Fprintf(w, "  Entries stored:       %d\n", s.Stored)
	fmt.Fprintf(w, "  Entries discarded:    %d (no name)\n", s.Discarded)
	fmt.Fprintf(w, "  Storage failures:     %d\n", s.StorageFailures)
	fmt.Fprintf(w, "  Elapsed:              %s\n", s.Elapsed.Round(time.Millisecond))
	if s.Cancelled {
		fmt.Fprintf(w, "  Run was cancelled before all documents were attempted\n")
	}
}

// runStdio serves the MCP tools over stdin/stdout until the client goes away.
func runStdio(ctx context.Context, cfg *config.Config, logger *slog.Logger) int {
	st, err := store.Open(ctx, cfg.DSN, logger)
	if err != nil {
		logger.Error("store unavailable", "error", err)
		return exitFailure
	}
	defer st.Close()

	decoder, err := pdf.NewDecoder(cfg.Decoder, cfg.Pdftotext, logger)
	if err != nil {
		logger.Error("decoder setup failed", "error", err)
		return exitConfig
	}

	server, err := mcp.NewServer(cfg, decoder, st, logger)
	if err != nil {
		logger.Error("failed to create MCP server", "error", err)
		return exitFailure
	}

	if err := server.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		return exitFailure
	}
	return exitOK
}

func main() {
	os.Exit(run())
}

func run() int {
	if versionRequested(os.Args[1:]) {
		printVersion(os.Stdout)
		return exitOK
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return exitConfig
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger := setupLogging(cfg, os.Stdout, os.Stderr)
	slog.SetDefault(logger)
	logger.Debug("starting", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsStdioMode() {
		return runStdio(ctx, cfg, logger)
	}
	return runBatch(ctx, cfg, logger, os.Stderr)
}

func versionRequested(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "Voter Roll Reader\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
