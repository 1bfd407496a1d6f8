package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		r.logger.Error("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), 8<<10),
		)
	} else {
		r.logger.Debug("exec ok",
			"cmd", name,
			"duration_ms", dur.Milliseconds(),
			"stdout_bytes", out.Len(),
		)
	}

	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

// CommandDecoder runs pdftotext (poppler) and returns its UTF-8 output.
type CommandDecoder struct {
	Binary string
	Runner Runner
}

// NewCommandDecoder uses binary, or "pdftotext" from PATH when empty.
func NewCommandDecoder(binary string, logger *slog.Logger) *CommandDecoder {
	if binary == "" {
		binary = "pdftotext"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandDecoder{Binary: binary, Runner: execRunner{logger: logger}}
}

// Available reports whether the configured binary can be found.
func (d *CommandDecoder) Available() bool {
	_, err := exec.LookPath(d.Binary)
	return err == nil
}

// Decode implements Decoder. When path does not exist on disk the bytes are
// spilled to a temporary file first.
func (d *CommandDecoder) Decode(ctx context.Context, path string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	input := path
	if _, err := os.Stat(path); path == "" || err != nil {
		tmp, err := os.CreateTemp("", "voter-roll-*.pdf")
		if err != nil {
			return "", fmt.Errorf("create temp file: %w", err)
		}
		defer os.Remove(tmp.Name())
		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			return "", fmt.Errorf("write temp file: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return "", fmt.Errorf("close temp file: %w", err)
		}
		input = tmp.Name()
	}

	stdout, stderr, err := d.Runner.Run(ctx, d.Binary, "-enc", "UTF-8", "-q", input, "-")
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if msg != "" {
			return "", fmt.Errorf("%s %s: %w: %s", d.Binary, path, err, msg)
		}
		return "", fmt.Errorf("%s %s: %w", d.Binary, path, err)
	}

	// pdftotext separates pages with form feeds.
	text := strings.ReplaceAll(string(stdout), "\f", "\n")
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// Chain tries each decoder in order and returns the first success.
type Chain []Decoder

// Decode implements Decoder. A cancelled context stops the chain.
func (c Chain) Decode(ctx context.Context, path string, data []byte) (string, error) {
	if len(c) == 0 {
		return "", errors.New("no decoders configured")
	}
	var errs []error
	for _, d := range c {
		text, err := d.Decode(ctx, path, data)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		errs = append(errs, err)
	}
	return "", errors.Join(errs...)
}

// Decoder kinds accepted by NewDecoder.
const (
	KindNative    = "native"
	KindPdftotext = "pdftotext"
	KindAuto      = "auto"
)

// NewDecoder builds the decoder for kind. "auto" tries the native decoder
// first and falls back to pdftotext when it is installed.
func NewDecoder(kind, binary string, logger *slog.Logger) (Decoder, error) {
	switch kind {
	case KindNative, "":
		return NewTextDecoder(logger), nil
	case KindPdftotext:
		return NewCommandDecoder(binary, logger), nil
	case KindAuto:
		cmd := NewCommandDecoder(binary, logger)
		if !cmd.Available() {
			return NewTextDecoder(logger), nil
		}
		return Chain{NewTextDecoder(logger), cmd}, nil
	default:
		return nil, fmt.Errorf("unknown decoder %q", kind)
	}
}
