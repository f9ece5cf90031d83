// Package config loads client settings from defaults, a TOML file and
// AIDOS_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/tmc/aidos/api"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AIDOS_"

// Config holds all client settings.
type Config struct {
	ChatURL   string `toml:"chat_url" env:"CHAT_URL"`
	SpeechURL string `toml:"speech_url" env:"SPEECH_URL"`
	HealthURL string `toml:"health_url" env:"HEALTH_URL"`

	StatePath string `toml:"state_path" env:"STATE_PATH"`

	RequestTimeout time.Duration `toml:"request_timeout" env:"REQUEST_TIMEOUT"`
	SpeechTimeout  time.Duration `toml:"speech_timeout" env:"SPEECH_TIMEOUT"`
	HealthTimeout  time.Duration `toml:"health_timeout" env:"HEALTH_TIMEOUT"`

	// PlayerCommand overrides audio player detection.
	PlayerCommand string `toml:"player_command" env:"PLAYER_COMMAND"`
	// DictationCommand enables voice input. Empty hides the mic control.
	DictationCommand  string `toml:"dictation_command" env:"DICTATION_COMMAND"`
	DictationLanguage string `toml:"dictation_language" env:"DICTATION_LANGUAGE"`
	// CameraCommand overrides camera tool detection.
	CameraCommand string `toml:"camera_command" env:"CAMERA_COMMAND"`

	SingleFlight bool `toml:"single_flight" env:"SINGLE_FLIGHT"`

	LogFile  string `toml:"log_file" env:"LOG_FILE"`
	LogLevel string `toml:"log_level" env:"LOG_LEVEL"`
}

// Dir returns the per-user configuration directory.
func Dir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".aidos")
	}
	return filepath.Join(dir, "aidos")
}

// DefaultPath is the config file read when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Default returns the built-in settings.
func Default() *Config {
	dir := Dir()
	return &Config{
		ChatURL:           api.DefaultChatURL,
		SpeechURL:         api.DefaultSpeechURL,
		HealthURL:         api.DefaultHealthURL,
		StatePath:         filepath.Join(dir, "state.db"),
		RequestTimeout:    2 * time.Minute,
		SpeechTimeout:     30 * time.Second,
		HealthTimeout:     10 * time.Second,
		DictationLanguage: "ru-RU",
		SingleFlight:      true,
		LogFile:           filepath.Join(dir, "aidos.log"),
		LogLevel:          "info",
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.ChatURL == "" {
		errs = append(errs, errors.New("chat_url must be set"))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, errors.New("request_timeout must not be negative"))
	}
	if c.SpeechTimeout < 0 {
		errs = append(errs, errors.New("speech_timeout must not be negative"))
	}
	if c.HealthTimeout < 0 {
		errs = append(errs, errors.New("health_timeout must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes c to path as TOML.
func Save(path string, c *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
