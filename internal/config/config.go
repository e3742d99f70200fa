// Package config loads server and CLI settings.
//
// Settings start from Default, are overlaid by an optional TOML file and
// finally by environment variables:
//
//	OCRSIM_LOG_LEVEL   debug, info, warn or error
//	OCRSIM_LANGUAGE    Tesseract language, e.g. "eng" or "pol+eng"
//	OCRSIM_THRESHOLD   minimum similarity in [0, 1]
//	TESSDATA_PREFIX    directory holding *.traineddata files
//
// The file path comes from the --config flag or OCRSIM_CONFIG.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ironsheep/ocr-similarity-mcp/internal/logging"
	"github.com/ironsheep/ocr-similarity-mcp/internal/ocr"
	"github.com/ironsheep/ocr-similarity-mcp/internal/search"
)

// Environment variables read by Load.
const (
	EnvConfig    = "OCRSIM_CONFIG"
	EnvLogLevel  = "OCRSIM_LOG_LEVEL"
	EnvLanguage  = "OCRSIM_LANGUAGE"
	EnvThreshold = "OCRSIM_THRESHOLD"
	EnvTessdata  = "TESSDATA_PREFIX"
)

// Duration is a time.Duration read from a TOML string such as "500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds all settings.
type Config struct {
	LogLevel       string   `toml:"log_level"`
	LogJSON        bool     `toml:"log_json"`
	Language       string   `toml:"language"`
	Threshold      float64  `toml:"threshold"`
	TessdataPrefix string   `toml:"tessdata_prefix"`
	WatchDebounce  Duration `toml:"watch_debounce"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:      "info",
		Language:      ocr.DefaultLanguage,
		Threshold:     search.DefaultThreshold,
		WatchDebounce: Duration{search.DefaultDebounce},
	}
}

// Search returns the per-search settings.
func (c Config) Search() search.Config {
	return search.Config{Threshold: c.Threshold, Language: c.Language}
}

// OCR returns the engine settings.
func (c Config) OCR() ocr.Config {
	return ocr.Config{TessdataPrefix: c.TessdataPrefix}
}

// Logging returns the logger settings.
func (c Config) Logging() logging.Options {
	return logging.Options{Level: c.LogLevel, JSON: c.LogJSON}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if !logging.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("invalid log_level %q", c.LogLevel))
	}
	if err := c.Search().Validate(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.Language) == "" {
		errs = append(errs, errors.New("language must not be empty"))
	}
	if c.WatchDebounce.Duration < 0 {
		errs = append(errs, fmt.Errorf("negative watch_debounce %s", c.WatchDebounce))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Load builds the configuration from defaults, the TOML file at path (or
// OCRSIM_CONFIG when path is empty) and the environment, then validates it.
// A missing file is an error only when a path was given.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLanguage); ok && v != "" {
		c.Language = v
	}
	if v, ok := lookup(EnvThreshold); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvThreshold, v, err)
		}
		c.Threshold = f
	}
	if v, ok := lookup(EnvTessdata); ok && v != "" {
		c.TessdataPrefix = v
	}
	return nil
}
