package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

import "github.com/spf13/viper"

// EnvPrefix prefixes environment variables that override Settings, e.g.
// EVERYTHING_HOST_LOG_LEVEL.
const EnvPrefix = "EVERYTHING_HOST"

// MinValidateTimeout is the shortest accepted validate_timeout.  Shorter
// values would fail every diagnostic run.
const MinValidateTimeout = 100 * time.Millisecond

// Settings are the host's runtime knobs.  They are read from FileName and
// the environment, and never written by the host.
type Settings struct {
	// LogLevel is a logrus level name.
	LogLevel string `mapstructure:"log_level"`

	// LogFile is the diagnostic log path.  Relative paths are resolved
	// against the host directory.
	LogFile string `mapstructure:"log_file"`

	// MaxMessageBytes bounds the length of a request from Chrome.
	MaxMessageBytes int `mapstructure:"max_message_bytes"`

	// ValidateTimeout bounds the diagnostic run of a candidate executable.
	// A bare number is a count of seconds.
	ValidateTimeout time.Duration `mapstructure:"-"`

	// AllowedOrigins restricts which extensions may call the host.  Empty
	// means any origin Chrome admits per the manifest.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		LogLevel:        "info",
		LogFile:         "native_host.log",
		MaxMessageBytes: 64 << 20,
		ValidateTimeout: 5 * time.Second,
	}
}

// LoadSettings reads Settings from FileName in dir, overlaid with
// EVERYTHING_HOST_* environment variables.  A missing file is not an error.
func LoadSettings(dir string) (Settings, error) {
	def := DefaultSettings()

	v := viper.New()
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("max_message_bytes", def.MaxMessageBytes)
	v.SetDefault("validate_timeout", def.ValidateTimeout)
	v.SetDefault("allowed_origins", []string{})

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(filepath.Join(dir, FileName))
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil && !isMissingConfig(err) {
		// Fall back to defaults plus environment.
		s, _ := decodeSettings(v, dir)
		return s, err
	}

	return decodeSettings(v, dir)
}

func decodeSettings(v *viper.Viper, dir string) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return DefaultSettings(), err
	}
	// An environment variable arrives as one string.
	if len(s.AllowedOrigins) == 1 && strings.ContainsAny(s.AllowedOrigins[0], ", ") {
		s.AllowedOrigins = strings.FieldsFunc(s.AllowedOrigins[0], func(r rune) bool {
			return r == ',' || r == ' '
		})
	}
	if s.LogFile != "" && !filepath.IsAbs(s.LogFile) {
		s.LogFile = filepath.Join(dir, s.LogFile)
	}

	timeout, err := validateTimeout(v.Get("validate_timeout"))
	if err != nil {
		s.ValidateTimeout = DefaultSettings().ValidateTimeout
		return s, err
	}
	s.ValidateTimeout = timeout
	return s, nil
}

// validateTimeout interprets the raw validate_timeout value.  Duration
// strings such as "2s" are parsed as durations, and numbers (from JSON or
// the environment) as seconds.
func validateTimeout(raw interface{}) (time.Duration, error) {
	var d time.Duration
	switch v := raw.(type) {
	case time.Duration:
		d = v
	case float64:
		d = time.Duration(v * float64(time.Second))
	case int:
		d = time.Duration(v) * time.Second
	case int64:
		d = time.Duration(v) * time.Second
	case string:
		if secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			d = time.Duration(secs * float64(time.Second))
		} else if d, err = time.ParseDuration(strings.TrimSpace(v)); err != nil {
			return 0, fmt.Errorf("validate_timeout %q: %w", v, err)
		}
	default:
		return 0, fmt.Errorf("validate_timeout has unsupported value %v", raw)
	}
	if d < MinValidateTimeout {
		return 0, fmt.Errorf("validate_timeout %v is below the %v minimum", d, MinValidateTimeout)
	}
	return d, nil
}

func isMissingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// OriginAllowed reports whether the caller origin may use the host.
func (s Settings) OriginAllowed(origin string) bool {
	if len(s.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range s.AllowedOrigins {
		if strings.TrimSpace(o) == origin {
			return true
		}
	}
	return false
}
