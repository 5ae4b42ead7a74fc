// Package config loads start-up settings from a YAML or TOML file and
// applies ADHOC_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joeshaw/envdecode"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/fredronnv/adhoc/codec"
)

// Config is the full configuration tree.
type Config struct {
	API   API   `yaml:"api" toml:"api"`
	Types Types `yaml:"types" toml:"types"`
	Codec Codec `yaml:"codec" toml:"codec"`
	Log   Log   `yaml:"log" toml:"log"`
}

// API bounds the served API versions.
type API struct {
	MinVersion int `yaml:"min_version" toml:"min_version" env:"ADHOC_API_MIN_VERSION"`
	MaxVersion int `yaml:"max_version" toml:"max_version" env:"ADHOC_API_MAX_VERSION"`
}

// Types tunes node behaviour.
type Types struct {
	StrictBooleans bool `yaml:"strict_booleans" toml:"strict_booleans" env:"ADHOC_TYPES_STRICT_BOOLEANS"`
	FailFast       bool `yaml:"fail_fast" toml:"fail_fast" env:"ADHOC_TYPES_FAIL_FAST"`
}

// Codec sets wire decoding limits.
type Codec struct {
	MaxDepth            int   `yaml:"max_depth" toml:"max_depth" env:"ADHOC_CODEC_MAX_DEPTH"`
	MaxBytes            int64 `yaml:"max_bytes" toml:"max_bytes" env:"ADHOC_CODEC_MAX_BYTES"`
	RejectDuplicateKeys bool  `yaml:"reject_duplicate_keys" toml:"reject_duplicate_keys" env:"ADHOC_CODEC_REJECT_DUPLICATE_KEYS"`
}

// Log selects the logger.
type Log struct {
	Level  string `yaml:"level" toml:"level" env:"ADHOC_LOG_LEVEL"`
	Format string `yaml:"format" toml:"format" env:"ADHOC_LOG_FORMAT"` // json | console
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		API:   API{MinVersion: 0, MaxVersion: 0},
		Codec: Codec{MaxDepth: codec.DefaultMaxDepth, RejectDuplicateKeys: true},
		Log:   Log{Level: "info", Format: "console"},
	}
}

// Load reads path on top of Default, picking the decoder by extension
// (.yaml, .yml or .toml), then applies environment overrides and validates.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
		if und := md.Undecoded(); len(und) > 0 {
			return Config{}, fmt.Errorf("config parse failed (%s): unknown key %s", path, und[0])
		}
	default:
		return Config{}, fmt.Errorf("config load failed (%s): unsupported extension", path)
	}
	if err := FromEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv overrides cfg with any ADHOC_* variables that are set.
func FromEnv(cfg *Config) error {
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("config env: %w", err)
	}
	return nil
}

// Validate checks the version bounds, codec limits and log settings.
func (c Config) Validate() error {
	var errs []error
	if c.API.MinVersion < 0 {
		errs = append(errs, fmt.Errorf("api.min_version %d is negative", c.API.MinVersion))
	}
	if c.API.MinVersion > c.API.MaxVersion {
		errs = append(errs, fmt.Errorf("api.min_version %d above api.max_version %d", c.API.MinVersion, c.API.MaxVersion))
	}
	if c.Codec.MaxDepth < 0 || c.Codec.MaxBytes < 0 {
		errs = append(errs, errors.New("codec limits must not be negative"))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want json or console", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config invalid: %w", errors.Join(errs...))
	}
	return nil
}

// CodecOptions translates the codec section.
func (c Config) CodecOptions() codec.Options {
	o := codec.Options{MaxDepth: c.Codec.MaxDepth, MaxBytes: c.Codec.MaxBytes, FailFast: c.Types.FailFast}
	if c.Codec.RejectDuplicateKeys {
		o.OnDuplicate = codec.DupError
	}
	return o
}

// Logger builds the configured logger writing to w.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	if c.Log.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
