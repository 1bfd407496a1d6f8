package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/voter-roll-reader/internal/config"
	"github.com/a3tai/voter-roll-reader/internal/export"
	"github.com/a3tai/voter-roll-reader/internal/store"
)

// options are the command line settings of one export.
type options struct {
	DSN    string
	Out    string
	Format string
}

func parseOptions(args []string, stderr io.Writer) (options, error) {
	fs := pflag.NewFlagSet("voter-export", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.DSN, "dsn", envOr(config.EnvPrefix+"_DSN", config.DefaultDSN), "Store DSN: sqlite:<path>, a file path, or postgres://...")
	fs.StringVarP(&o.Out, "out", "o", "-", "Output file, '-' for stdout")
	fs.StringVarP(&o.Format, "format", "f", "", "Output format: xlsx or jsonl (default: from the output file extension)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage of voter-export:\n\nWrites every stored voter record as an XLSX workbook or JSON Lines.\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return o, err
	}

	if o.Format == "" {
		if o.Out == "-" {
			o.Format = string(export.FormatJSONL)
		} else {
			o.Format = o.Out
		}
	}
	f, err := export.ParseFormat(o.Format)
	if err != nil {
		return o, err
	}
	o.Format = string(f)
	return o, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// run writes every stored record to o.Out.
func run(ctx context.Context, o options, stdout io.Writer, logger *slog.Logger) (err error) {
	st, err := store.Open(ctx, o.DSN, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	w := stdout
	if o.Out != "-" {
		f, err := os.Create(o.Out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close output: %w", cerr)
			}
		}()
		w = f
	}

	res, err := export.NewService(st, logger).Write(ctx, w, export.Format(o.Format))
	if err != nil {
		return err
	}
	logger.Info("export complete", "rows", res.Rows, "invalid", res.Invalid, "out", o.Out, "format", o.Format)
	return nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	o, err := parseOptions(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "voter-export: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, os.Stdout, logger); err != nil {
		logger.Error("export failed", "error", err)
		stop()
		os.Exit(1)
	}
}
