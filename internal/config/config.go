package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/voter-roll-reader/internal/discovery"
)

const (
	// Mode constants
	ModeBatch = "batch"
	ModeStdio = "stdio"

	// Decoder constants
	DecoderNative    = "native"
	DecoderPdftotext = "pdftotext"
	DecoderAuto      = "auto"

	// Default values
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultDSN         = "sqlite:voters.db"
	DefaultProgress    = 25

	// EnvPrefix is prepended to every environment variable, e.g. VOTER_ROLL_DSN.
	EnvPrefix = "VOTER_ROLL"
)

// DefaultRegions are the region folders read from the corpus root.
var DefaultRegions = discovery.DefaultRegions

// Config holds all configuration for the voter roll reader
type Config struct {
	// Run configuration
	Mode string // "batch" or "stdio"

	// Corpus configuration
	Root    string
	Regions []string

	// Storage configuration
	DSN   string
	Reset bool // drop and recreate the voters table before a batch

	// Decoding configuration
	Decoder     string
	Pdftotext   string
	MaxFileSize int64 // Maximum document size in bytes

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	Progress   int // log progress every N documents, 0 disables
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:        ModeBatch,
		Root:        currentDir,
		Regions:     append([]string(nil), DefaultRegions...),
		DSN:         DefaultDSN,
		Reset:       true,
		Decoder:     DecoderNative,
		Pdftotext:   "pdftotext",
		MaxFileSize: DefaultMaxFileSize,
		Version:     "1.0.0",
		ServerName:  "voter-roll-reader",
		LogLevel:    DefaultLogLevel,
		Progress:    DefaultProgress,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.Root != "" {
		if expandedPath, err := filepath.Abs(cfg.Root); err == nil {
			cfg.Root = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var keys = []string{"mode", "root", "regions", "dsn", "reset", "decoder", "pdftotext", "maxfilesize", "loglevel", "progress"}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("root", cfg.Root)
	viper.SetDefault("regions", cfg.Regions)
	viper.SetDefault("dsn", cfg.DSN)
	viper.SetDefault("reset", cfg.Reset)
	viper.SetDefault("decoder", cfg.Decoder)
	viper.SetDefault("pdftotext", cfg.Pdftotext)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("progress", cfg.Progress)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'batch' to extract the corpus, 'stdio' for the MCP server")
	pflag.String("root", cfg.Root, "Corpus root directory containing the region folders")
	pflag.StringSlice("regions", cfg.Regions, "Region folder names under the root, in processing order")
	pflag.String("dsn", cfg.DSN, "Store DSN: sqlite:<path>, a file path, or postgres://...")
	pflag.Bool("reset", cfg.Reset, "Drop and recreate the voters table before a batch run")
	pflag.String("decoder", cfg.Decoder, "Text decoder: native, pdftotext or auto")
	pflag.String("pdftotext", cfg.Pdftotext, "Path to the pdftotext binary")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum document size in bytes")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int("progress", cfg.Progress, "Log progress every N documents (0 disables)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, key := range keys {
		_ = viper.BindPFlag(key, pflag.Lookup(key))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nVoter Roll Reader - extracts voter records from Bangla voter-roll PDFs\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --root=/data/rolls                          # batch into ./voters.db\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --root=/data/rolls --dsn=postgres://...     # batch into PostgreSQL\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --root=/data/rolls             # MCP server over stdio\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		for _, key := range keys {
			fmt.Fprintf(os.Stderr, "  %s_%s\n", EnvPrefix, strings.ToUpper(key))
		}
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Root = viper.GetString("root")
	cfg.Regions = splitRegions(viper.GetStringSlice("regions"))
	cfg.DSN = viper.GetString("dsn")
	cfg.Reset = viper.GetBool("reset")
	cfg.Decoder = viper.GetString("decoder")
	cfg.Pdftotext = viper.GetString("pdftotext")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.Progress = viper.GetInt("progress")
}

// splitRegions accepts both repeated values and a comma separated list,
// the form environment variables arrive in.
func splitRegions(in []string) []string {
	var out []string
	for _, v := range in {
		for _, r := range strings.Split(v, ",") {
			if r = strings.TrimSpace(r); r != "" {
				out = append(out, r)
			}
		}
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeBatch && c.Mode != ModeStdio {
		return errors.New("mode must be either 'batch' or 'stdio'")
	}

	if c.Root == "" {
		return errors.New("corpus root cannot be empty")
	}
	info, err := os.Stat(c.Root)
	if err != nil {
		return fmt.Errorf("cannot access corpus root %s: %w", c.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("corpus root is not a directory: %s", c.Root)
	}

	if len(c.Regions) == 0 {
		return errors.New("at least one region folder is required")
	}
	for _, r := range c.Regions {
		if strings.TrimSpace(r) == "" || strings.ContainsAny(r, `/\`) {
			return fmt.Errorf("invalid region folder name: %q", r)
		}
	}

	if strings.TrimSpace(c.DSN) == "" {
		return errors.New("dsn cannot be empty")
	}

	switch c.Decoder {
	case DecoderNative, DecoderPdftotext, DecoderAuto:
	default:
		return fmt.Errorf("invalid decoder: %s (must be one of: native, pdftotext, auto)", c.Decoder)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.Progress < 0 {
		return errors.New("progress interval cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Root: %s, Regions: %v, DSN: %s, Reset: %t, Decoder: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Root, c.Regions, redactDSN(c.DSN), c.Reset, c.Decoder, c.LogLevel, c.MaxFileSize)
}

// IsBatchMode returns true if the process runs a one-shot extraction
func (c *Config) IsBatchMode() bool {
	return c.Mode == ModeBatch
}

// IsStdioMode returns true if the process serves MCP over standard I/O
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

func redactDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, _ := strings.Cut(creds, ":")
	return scheme + "://" + user + ":***@" + host
}
