// Package config resolves rrrw settings from flags, environment variables and
// an optional config file.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lucrnz/rrrw/internal/decompress"
	"github.com/lucrnz/rrrw/internal/units"
	"github.com/lucrnz/rrrw/internal/util"
)

// MaxChunkSize bounds the single buffer allocated for a copy. It fits in an
// int on 32-bit platforms too.
const MaxChunkSize = math.MaxInt32

// EnvPrefix prefixes every environment variable, e.g. RRRW_LOG_LEVEL.
const EnvPrefix = "RRRW"

var (
	ErrInvalidChunkSize = errors.New("chunk size must be greater than 0")
	ErrChunkTooLarge    = errors.New("chunk size must be below 2 GiB")
	ErrInvalidInterval  = errors.New("progress interval must not be negative")
	ErrInvalidProgress  = errors.New("unknown progress mode")
	ErrInvalidLogFormat = errors.New("unknown log format")
)

// Keys shared by flags, environment variables and the config file.
const (
	KeyUnit         = "unit"
	KeyAmount       = "amount"
	KeyChunk        = "chunk"
	KeyDecimalUnits = "decimal-units"
	KeyProgress     = "progress"
	KeyInterval     = "progress-interval"
	KeyDecompress   = "decompress"
	KeyYes          = "yes"
	KeyLogLevel     = "log-level"
	KeyLogFormat    = "log-format"
)

// ProgressMode selects how copy progress is shown.
type ProgressMode string

const (
	ProgressAuto  ProgressMode = "auto"
	ProgressTTY   ProgressMode = "tty"
	ProgressBar   ProgressMode = "bar"
	ProgressPlain ProgressMode = "plain"
	ProgressNone  ProgressMode = "none"
)

// Config represents the resolved rrrw configuration.
// Use mapstructure tags for Viper unmarshaling.
type Config struct {
	Unit         string       `mapstructure:"unit"`
	Amount       int64        `mapstructure:"amount"`
	Chunk        string       `mapstructure:"chunk"`
	DecimalUnits bool         `mapstructure:"decimal-units"`
	Progress     ProgressMode `mapstructure:"progress"`
	Interval     string       `mapstructure:"progress-interval"`
	Decompress   string       `mapstructure:"decompress"`
	Yes          bool         `mapstructure:"yes"`
	LogLevel     string       `mapstructure:"log-level"`
	LogFormat    string       `mapstructure:"log-format"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyUnit, "B")
	v.SetDefault(KeyAmount, 1)
	v.SetDefault(KeyChunk, "")
	v.SetDefault(KeyDecimalUnits, true)
	v.SetDefault(KeyProgress, string(ProgressAuto))
	v.SetDefault(KeyInterval, "1s")
	v.SetDefault(KeyDecompress, string(decompress.None))
	v.SetDefault(KeyYes, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
}

// Load merges defaults, the config file, RRRW_* environment variables and
// flags (highest precedence) into a Config. An explicit cfgFile must exist;
// the default file is optional.
func Load(v *viper.Viper, flags *pflag.FlagSet, cfgFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", cfgFile, err)
		}
	} else if dir, err := Dir(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return &cfg, nil
}

// Dir returns the rrrw config directory.
// Uses XDG_CONFIG_HOME/rrrw, defaulting to ~/.config/rrrw.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "rrrw"), nil
}

// ChunkSize resolves the chunk size in bytes. A combined Chunk value such as
// "4MiB" takes precedence over Amount × Unit.
func (c *Config) ChunkSize() (int, error) {
	var n uint64
	if c.Chunk != "" {
		parsed, err := util.ParseByteSize(c.Chunk)
		if err != nil {
			return 0, fmt.Errorf("invalid --chunk value: %w", err)
		}
		n = parsed
	} else {
		u, err := units.Parse(c.Unit)
		if err != nil {
			return 0, fmt.Errorf("invalid --unit value: %w", err)
		}
		if c.Amount <= 0 {
			return 0, fmt.Errorf("%w, got amount %d", ErrInvalidChunkSize, c.Amount)
		}
		n, err = u.Bytes(uint64(c.Amount))
		if err != nil {
			return 0, err
		}
	}

	if n == 0 {
		return 0, ErrInvalidChunkSize
	}
	if n > MaxChunkSize {
		return 0, fmt.Errorf("%w: %s", ErrChunkTooLarge, util.HumanReadableBytes(n))
	}
	return int(n), nil
}

// DecompressFormat parses the decompress setting.
func (c *Config) DecompressFormat() (decompress.Format, error) {
	f, err := decompress.Parse(c.Decompress)
	if err != nil {
		return decompress.None, fmt.Errorf("invalid --decompress value: %w", err)
	}
	return f, nil
}

// ProgressInterval parses the minimum gap between plain progress events.
// Day and week units are accepted, e.g. "1d".
func (c *Config) ProgressInterval() (time.Duration, error) {
	if c.Interval == "" {
		return 0, nil
	}
	d, err := util.ParseDuration(c.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid --progress-interval value: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w, got %s", ErrInvalidInterval, c.Interval)
	}
	return d, nil
}

// Validate checks every setting that does not touch the filesystem.
func (c *Config) Validate() error {
	switch c.Progress {
	case ProgressAuto, ProgressTTY, ProgressBar, ProgressPlain, ProgressNone:
	default:
		return fmt.Errorf("%w %q (valid: auto, tty, bar, plain, none)", ErrInvalidProgress, c.Progress)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json", "":
	default:
		return fmt.Errorf("%w %q (valid: text, json)", ErrInvalidLogFormat, c.LogFormat)
	}
	if _, err := c.DecompressFormat(); err != nil {
		return err
	}
	if _, err := c.ProgressInterval(); err != nil {
		return err
	}
	if _, err := c.ChunkSize(); err != nil {
		return err
	}
	return nil
}
