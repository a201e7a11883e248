package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "MOODTUNES_"

// Config represents the application configuration loaded from a TOML file.
//
// Every field may be overridden by a MOODTUNES_* environment variable, e.g.
// MOODTUNES_BACKEND_BASE_URL or MOODTUNES_AUTH_STRATEGY.
type Config struct {
	Backend  BackendConfig  `toml:"backend" envPrefix:"BACKEND_"`
	Auth     AuthConfig     `toml:"auth" envPrefix:"AUTH_"`
	Session  SessionConfig  `toml:"session" envPrefix:"SESSION_"`
	Chat     ChatConfig     `toml:"chat" envPrefix:"CHAT_"`
	Database DatabaseConfig `toml:"database" envPrefix:"DATABASE_"`
	Spotify  SpotifyConfig  `toml:"spotify" envPrefix:"SPOTIFY_"`
	Log      LogConfig      `toml:"log" envPrefix:"LOG_"`
}

// BackendConfig points at the mood-detection backend.
type BackendConfig struct {
	BaseURL   string        `toml:"base_url" env:"BASE_URL"`
	RateLimit float64       `toml:"rate_limit" env:"RATE_LIMIT"` // requests per second, 0 disables
	Timeout   time.Duration `toml:"timeout" env:"TIMEOUT"`
}

// AuthConfig controls the login surface.
type AuthConfig struct {
	Strategy     string        `toml:"strategy" env:"STRATEGY"` // auto, popup or redirect
	PopupTimeout time.Duration `toml:"popup_timeout" env:"POPUP_TIMEOUT"`
	PollInterval time.Duration `toml:"poll_interval" env:"POLL_INTERVAL"`
	CallbackHost string        `toml:"callback_host" env:"CALLBACK_HOST"`
	CallbackPort int           `toml:"callback_port" env:"CALLBACK_PORT"`
	VerifyMode   string        `toml:"verify_mode" env:"VERIFY_MODE"` // session-info or legacy
}

// SessionConfig controls local session validity.
type SessionConfig struct {
	Timeout      time.Duration `toml:"timeout" env:"TIMEOUT"`
	EphemeralTTL time.Duration `toml:"ephemeral_ttl" env:"EPHEMERAL_TTL"`
}

// ChatConfig controls the conversation.
type ChatConfig struct {
	InteractionThreshold int    `toml:"interaction_threshold" env:"INTERACTION_THRESHOLD"`
	Language             string `toml:"language" env:"LANGUAGE"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"PATH"`
	MaxOpenConns int    `toml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns int    `toml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
}

// SpotifyConfig contains optional Spotify Web API credentials used to enrich results.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id" env:"CLIENT_ID"`
	ClientSecret string `toml:"client_secret" env:"CLIENT_SECRET"`
}

// Enabled reports whether client credentials are present.
func (s SpotifyConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"LEVEL"`
	File  string `toml:"file" env:"FILE"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults; environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnv overlays MOODTUNES_* environment variables onto config.
func ApplyEnv(config *Config) error {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks the values that the coordinators cannot work without.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("%w: backend.base_url is required", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Auth.Strategy) {
	case "", "auto", "popup", "redirect":
	default:
		return fmt.Errorf("%w: unknown auth.strategy %q", ErrInvalidConfig, c.Auth.Strategy)
	}

	switch c.Auth.VerifyMode {
	case "", "session-info", "legacy":
	default:
		return fmt.Errorf("%w: unknown auth.verify_mode %q", ErrInvalidConfig, c.Auth.VerifyMode)
	}

	if c.Chat.InteractionThreshold < 1 {
		return fmt.Errorf("%w: chat.interaction_threshold must be positive", ErrInvalidConfig)
	}

	if c.Session.Timeout <= 0 {
		return fmt.Errorf("%w: session.timeout must be positive", ErrInvalidConfig)
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path as TOML.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveConfig loads path when it exists, otherwise falls back to defaults with environment overrides.
func ResolveConfig(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return LoadConfig(path)
		}
	}

	config := DefaultConfig()
	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
