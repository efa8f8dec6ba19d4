// Package config loads the tf2obs configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tf2obs/tf2obs-go/internal/effects"
	"github.com/tf2obs/tf2obs-go/internal/safefile"
	"github.com/tf2obs/tf2obs-go/pkg/tf2log"
)

// Environment variables that override the file.
const (
	EnvLogFile     = "TF2OBS_LOGFILE"
	EnvPlayer      = "TF2OBS_PLAYER"
	EnvOBSPassword = "TF2OBS_OBS_PASSWORD"
)

// MaxConfigFileSize caps the configuration file (256KB).
const MaxConfigFileSize = 256 * 1024

// Config is the full configuration.
type Config struct {
	LogFile         string        `yaml:"log_file"`
	Player          string        `yaml:"player"`
	Follow          string        `yaml:"follow"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	FromStart       bool          `yaml:"from_start"`
	Rules           string        `yaml:"rules"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	OBS     OBSConfig     `yaml:"obs"`
	Effects EffectsConfig `yaml:"effects"`
	Log     LogConfig     `yaml:"log"`
}

// OBSConfig describes the obs-websocket endpoint.
type OBSConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	Password          string        `yaml:"password"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	ReconnectAttempts int           `yaml:"reconnect_attempts"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
}

// Addr returns host:port.
func (o OBSConfig) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// EffectsConfig names the OBS sources driven by events.
type EffectsConfig struct {
	ClassMode           string            `yaml:"class_mode"`
	Flash               time.Duration     `yaml:"flash"`
	Notification        time.Duration     `yaml:"notification"`
	NotificationOverlay string            `yaml:"notification_overlay"`
	NotificationText    string            `yaml:"notification_text"`
	KillstreakText      string            `yaml:"killstreak_text"`
	Overlays            map[string]string `yaml:"overlays"`
	Classes             map[string]string `yaml:"classes"`
}

// LogConfig controls diagnostics output.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Follow:          tf2log.FollowPoll.String(),
		PollInterval:    tf2log.DefaultPollInterval,
		ShutdownTimeout: 5 * time.Second,
		OBS: OBSConfig{
			Host:              "localhost",
			Port:              4455,
			RequestTimeout:    5 * time.Second,
			ReconnectAttempts: 5,
			ReconnectDelay:    2 * time.Second,
		},
		Effects: EffectsConfig{
			ClassMode:           effects.ClassImages.String(),
			Flash:               effects.DefaultFlashDuration,
			Notification:        effects.DefaultNotificationDuration,
			NotificationOverlay: effects.DefaultNotificationOverlay,
			NotificationText:    effects.DefaultNotificationText,
			KillstreakText:      effects.DefaultKillstreakText,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path yields the defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := safefile.ReadLimited(path, MaxConfigFileSize)
		switch {
		case errors.Is(err, safefile.ErrEmpty):
			// Nothing to override.
		case errors.Is(err, safefile.ErrNotRegularFile):
			return nil, errors.New("config file must be a regular file")
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", safefile.SanitizePathError(err))
		default:
			if err := decode(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadBytes decodes data over the defaults without consulting the
// environment.
func LoadBytes(data []byte) (*Config, error) {
	cfg := Default()
	if err := decode(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvLogFile); ok && v != "" {
		c.LogFile = v
	}
	if v, ok := lookup(EnvPlayer); ok && v != "" {
		c.Player = v
	}
	if v, ok := lookup(EnvOBSPassword); ok {
		c.OBS.Password = v
	}
}

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Problems, "; ")
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if _, err := tf2log.ParseFollowMode(c.Follow); err != nil {
		add("follow: %v", err)
	}
	if c.PollInterval <= 0 {
		add("poll_interval must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		add("shutdown_timeout must be positive")
	}
	if strings.TrimSpace(c.OBS.Host) == "" {
		add("obs.host is required")
	}
	if c.OBS.Port < 1 || c.OBS.Port > 65535 {
		add("obs.port %d out of range", c.OBS.Port)
	}
	if c.OBS.RequestTimeout <= 0 {
		add("obs.request_timeout must be positive")
	}
	if c.OBS.ReconnectAttempts < 0 {
		add("obs.reconnect_attempts must not be negative")
	}
	if c.OBS.ReconnectDelay < 0 {
		add("obs.reconnect_delay must not be negative")
	}
	if _, ok := effects.ParseClassMode(c.Effects.ClassMode); !ok {
		add("effects.class_mode %q is not images or media", c.Effects.ClassMode)
	}
	if c.Effects.Flash < 0 || c.Effects.Notification < 0 {
		add("effects durations must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("log.level %q is not debug, info, warn or error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		add("log.format %q is not text or json", c.Log.Format)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		add("log rotation limits must not be negative")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
