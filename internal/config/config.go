// Package config loads client configuration from YAML with environment
// overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/orbital/internal/transport"
)

// Environment variables that override the file.
const (
	EnvAddress   = "ORBITAL_ADDRESS"
	EnvMode      = "ORBITAL_MODE"
	EnvLogLevel  = "ORBITAL_LOG_LEVEL"
	EnvLogFormat = "ORBITAL_LOG_FORMAT"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// LevelDisable silences all logging.
const LevelDisable slog.Level = math.MaxInt

// Config is the client configuration.
type Config struct {
	// Address is the query server base URL.
	Address string `yaml:"address"`

	// Mode is "request-response" or "streaming"; it applies to find queries.
	Mode string `yaml:"mode,omitempty"`

	// ResultMode is sent with streaming queries: RAW, TYPED or VERBOSE.
	ResultMode string `yaml:"result_mode,omitempty"`

	// BufferSize caps undelivered payloads per query.
	BufferSize int `yaml:"buffer_size,omitempty"`

	// ReadLimit caps a single payload in bytes.
	ReadLimit int64 `yaml:"read_limit,omitempty"`

	// Timeout bounds a whole query. Zero means no limit.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Namespace qualifies synthesized type names.
	Namespace string `yaml:"namespace,omitempty"`

	// History is the SQLite query log path. Empty disables it.
	History string `yaml:"history,omitempty"`

	Log Log `yaml:"log,omitempty"`
}

// Log configures the logger.
type Log struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Address:    "http://localhost:9022",
		Mode:       transport.ModeRequestResponse.String(),
		ResultMode: string(transport.DefaultResultMode),
		BufferSize: transport.DefaultBufferSize,
		ReadLimit:  transport.DefaultReadLimit,
		Log: Log{
			Level:  "info",
			Format: FormatText,
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path loads only defaults and environment. Unknown keys are
// rejected so typos surface early.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables looked up with
// getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvAddress); v != "" {
		c.Address = v
	}
	if v := getenv(EnvMode); v != "" {
		c.Mode = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
}

// Validate checks every field.
func (c Config) Validate() error {
	if c.Address == "" {
		return errors.New("address is required")
	}
	if _, err := transport.ParseMode(c.Mode); err != nil {
		return err
	}
	if c.ResultMode != "" {
		if _, err := transport.ParseResultMode(c.ResultMode); err != nil {
			return err
		}
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("buffer_size must not be negative, got %d", c.BufferSize)
	}
	if c.ReadLimit < 0 {
		return fmt.Errorf("read_limit must not be negative, got %d", c.ReadLimit)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := ParseFormat(c.Log.Format); err != nil {
		return err
	}
	return nil
}

// ClientOptions converts the transport settings into client options.
func (c Config) ClientOptions() ([]transport.Option, error) {
	mode, err := transport.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	opts := []transport.Option{transport.WithMode(mode)}

	if c.ResultMode != "" {
		rm, err := transport.ParseResultMode(c.ResultMode)
		if err != nil {
			return nil, err
		}
		opts = append(opts, transport.WithResultMode(rm))
	}
	if c.BufferSize > 0 {
		opts = append(opts, transport.WithBufferSize(c.BufferSize))
	}
	if c.ReadLimit > 0 {
		opts = append(opts, transport.WithReadLimit(c.ReadLimit))
	}
	return opts, nil
}

// ParseLevel parses "debug", "info", "warn", "error" or "disable".
// Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "disable", "off":
		return LevelDisable, nil
	default:
		return 0, fmt.Errorf("unknown log level %s", strconv.Quote(s))
	}
}

// ParseFormat parses "text" or "json". Empty means text.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown log format %s", strconv.Quote(s))
	}
}

// NewLogger builds a logger writing to w from the log settings. verbose
// forces the debug level.
func (c Config) NewLogger(w io.Writer, verbose bool) (*slog.Logger, error) {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	format, err := ParseFormat(c.Log.Format)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}
