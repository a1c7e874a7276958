// Package config loads process configuration from the environment and an
// optional YAML tuning file.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/cerebro/internal/gesture"
	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store kinds accepted by CEREBRO_STORE.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the process configuration.
type Config struct {
	APIKey      string `env:"CEREBRO_API_KEY"`
	TextModel   string `env:"CEREBRO_TEXT_MODEL"`
	ImageModel  string `env:"CEREBRO_IMAGE_MODEL"`
	SpeechModel string `env:"CEREBRO_SPEECH_MODEL"`
	Voice       string `env:"CEREBRO_VOICE" envDefault:"Fenrir"`

	ContentDir string        `env:"CEREBRO_CONTENT_DIR" envDefault:"exercises"`
	Store      string        `env:"CEREBRO_STORE" envDefault:"memory"`
	StoreDir   string        `env:"CEREBRO_STORE_DIR"`
	RedisAddr  string        `env:"CEREBRO_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisTTL   time.Duration `env:"CEREBRO_REDIS_TTL"`

	// ProfileKey enables at-rest encryption of profiles (base64, 32 bytes).
	ProfileKey          string   `env:"CEREBRO_PROFILE_KEY"`
	ProfileFallbackKeys []string `env:"CEREBRO_PROFILE_FALLBACK_KEYS" envSeparator:","`

	Addr         string `env:"CEREBRO_ADDR" envDefault:":8080"`
	LogLevel     string `env:"CEREBRO_LOG_LEVEL" envDefault:"info"`
	MaxInputSize int    `env:"CEREBRO_MAX_INPUT_SIZE" envDefault:"4096"`
	Trace        bool   `env:"CEREBRO_TRACE"`

	TuningFile string `env:"CEREBRO_TUNING_FILE"`
	Tuning     Tuning `env:"-"`
}

// Tuning holds timing and gesture constants.
type Tuning struct {
	SettleDelay   time.Duration  `mapstructure:"settle_delay"`
	AssetDebounce time.Duration  `mapstructure:"asset_debounce"`
	Gesture       gesture.Config `mapstructure:"gesture"`
}

// Load reads the environment and, if set, the tuning file.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.APIKey == "" {
		// The upstream SDK convention.
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.TuningFile != "" {
		t, err := LoadTuning(cfg.TuningFile)
		if err != nil {
			return nil, err
		}
		cfg.Tuning = t
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("invalid CEREBRO_STORE %q (want memory, file or redis)", c.Store)
	}
	if c.MaxInputSize < 0 {
		return fmt.Errorf("invalid CEREBRO_MAX_INPUT_SIZE %d", c.MaxInputSize)
	}
	if _, _, err := c.ProfileKeys(); err != nil {
		return err
	}
	return nil
}

// ProfileKeys decodes the profile encryption keys. A nil active key means
// encryption is off.
func (c *Config) ProfileKeys() (active []byte, fallback [][]byte, err error) {
	if c.ProfileKey == "" {
		return nil, nil, nil
	}
	active, err = base64.StdEncoding.DecodeString(c.ProfileKey)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid CEREBRO_PROFILE_KEY: %w", err)
	}
	for i, k := range c.ProfileFallbackKeys {
		key, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid CEREBRO_PROFILE_FALLBACK_KEYS[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

// ProfileDir returns the directory for the file store.
func (c *Config) ProfileDir() string {
	if c.StoreDir != "" {
		return c.StoreDir
	}
	return filepath.Join(".cerebro", "profiles")
}

// LoadTuning decodes a YAML tuning file. Durations are written as strings
// ("750ms", "1s"). Missing keys keep their zero value, which every component
// treats as "use the default".
func LoadTuning(path string) (Tuning, error) {
	var t Tuning

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("failed to read tuning file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return t, fmt.Errorf("failed to parse tuning file %s: %w", path, err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &t,
	})
	if err != nil {
		return t, err
	}
	if err := dec.Decode(raw); err != nil {
		return t, fmt.Errorf("invalid tuning file %s: %w", path, err)
	}
	return t, nil
}
