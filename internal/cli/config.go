package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/absfs/pagefs"
	"github.com/tailscale/hujson"
)

// ConfigFileName is the config file looked up in the working directory when
// no --config flag is given.
const ConfigFileName = ".pagefs.json"

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigInvalid      = errors.New("invalid config")
)

// Config holds the settings shared by all commands.
type Config struct {
	Backend         string `json:"backend"`
	BoltPath        string `json:"bolt_path,omitempty"`
	PrintfPageSize  int    `json:"printf_page_size,omitempty"`
	GetlinePageSize int    `json:"getline_page_size,omitempty"`
	LogLevel        string `json:"log_level,omitempty"`

	// Source is the file the config was read from, empty for defaults only.
	Source string `json:"-"`
}

// DefaultConfig returns the configuration used when no file sets a field.
func DefaultConfig() Config {
	return Config{
		Backend:         "std",
		BoltPath:        "pagefs.db",
		PrintfPageSize:  pagefs.DefaultPrintfPageSize,
		GetlinePageSize: pagefs.DefaultGetlinePageSize,
		LogLevel:        "warn",
	}
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. The file at path, or ConfigFileName in the working directory if path is
// empty and the file exists.
//
// Flag overrides are applied by the caller.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	mustExist := path != ""
	if path == "" {
		path = ConfigFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	fileCfg, err := parseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}
	cfg = mergeConfig(cfg, fileCfg)
	cfg.Source = path

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}
	return cfg, nil
}

func parseConfig(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Backend != "" {
		base.Backend = overlay.Backend
	}
	if overlay.BoltPath != "" {
		base.BoltPath = overlay.BoltPath
	}
	if overlay.PrintfPageSize != 0 {
		base.PrintfPageSize = overlay.PrintfPageSize
	}
	if overlay.GetlinePageSize != 0 {
		base.GetlinePageSize = overlay.GetlinePageSize
	}
	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}
	return base
}

// Validate checks the backend name, page sizes and log level.
func (c Config) Validate() error {
	switch c.Backend {
	case "std", "memory":
	case "bolt":
		if c.BoltPath == "" {
			return errors.New("bolt_path is required for the bolt backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	opts := c.Options(nil)
	if err := opts.Validate(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Options returns the file handle options for the configured page sizes.
func (c Config) Options(logger *slog.Logger) pagefs.Options {
	return pagefs.Options{
		PrintfPageSize:  c.PrintfPageSize,
		GetlinePageSize: c.GetlinePageSize,
		Logger:          logger,
	}
}

// OpenBackend opens the configured backend. The returned close function
// releases backends that hold resources; it is never nil.
func (c Config) OpenBackend() (pagefs.Backend, func() error, error) {
	noop := func() error { return nil }
	switch c.Backend {
	case "std":
		return pagefs.Standard(), noop, nil
	case "memory":
		b, err := pagefs.NewMemoryBackend()
		if err != nil {
			return nil, nil, err
		}
		return b, noop, nil
	case "bolt":
		b, err := pagefs.OpenBoltBackend(c.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", c.Backend)
}
