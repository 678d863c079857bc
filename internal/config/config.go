// Package config loads CLI and server settings from a YAML file overlaid by
// WAYPOINT_* environment variables. Command-line flags are applied by the
// caller on top of the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aretw0/waypoint/internal/logging"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config is the full settings tree.
type Config struct {
	LogLevel     string `yaml:"log_level" env:"WAYPOINT_LOG_LEVEL"`
	MaxInputSize int    `yaml:"max_input_size" env:"WAYPOINT_MAX_INPUT_SIZE"`

	Store     StoreConfig     `yaml:"store"`
	Redis     RedisConfig     `yaml:"redis"`
	HTTP      HTTPConfig      `yaml:"http"`
	Router    RouterConfig    `yaml:"router"`
	Assistant AssistantConfig `yaml:"assistant"`
}

type StoreConfig struct {
	Driver  string        `yaml:"driver" env:"WAYPOINT_STORE_DRIVER"`
	LockTTL time.Duration `yaml:"lock_ttl" env:"WAYPOINT_STORE_LOCK_TTL"`

	// EncryptionKey is a base64 AES-256 key. When set, session State and
	// History are encrypted at rest.
	EncryptionKey string   `yaml:"encryption_key" env:"WAYPOINT_STORE_ENCRYPTION_KEY"`
	FallbackKeys  []string `yaml:"fallback_keys" env:"WAYPOINT_STORE_FALLBACK_KEYS" envSeparator:","`
	// PIIKeys are patterns of State keys whose values are masked at rest.
	PIIKeys []string `yaml:"pii_keys" env:"WAYPOINT_STORE_PII_KEYS" envSeparator:","`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"WAYPOINT_REDIS_ADDR"`
	Password string        `yaml:"password" env:"WAYPOINT_REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"WAYPOINT_REDIS_DB"`
	Prefix   string        `yaml:"prefix" env:"WAYPOINT_REDIS_PREFIX"`
	TTL      time.Duration `yaml:"ttl" env:"WAYPOINT_REDIS_TTL"`
}

type HTTPConfig struct {
	Addr    string `yaml:"addr" env:"WAYPOINT_HTTP_ADDR"`
	Metrics bool   `yaml:"metrics" env:"WAYPOINT_HTTP_METRICS"`
}

type RouterConfig struct {
	// MaxSteps bounds the steps of one turn; 0 means unbounded.
	MaxSteps int `yaml:"max_steps" env:"WAYPOINT_ROUTER_MAX_STEPS"`
	// Graph is an optional graph document bound instead of the built-in
	// assistant topology.
	Graph string `yaml:"graph" env:"WAYPOINT_ROUTER_GRAPH"`
}

type AssistantConfig struct {
	BlockedTerms []string `yaml:"blocked_terms" env:"WAYPOINT_BLOCKED_TERMS" envSeparator:","`
	// IntentRules maps a mode to a regular expression. Entries replace the
	// default pattern of the same mode; unknown modes are appended.
	IntentRules map[string]string `yaml:"intent_rules"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		LogLevel:     "info",
		MaxInputSize: 4096,
		Store: StoreConfig{
			Driver:  StoreMemory,
			LockTTL: 30 * time.Second,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "waypoint:session:",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Router: RouterConfig{
			MaxSteps: 64,
		},
		Assistant: AssistantConfig{
			BlockedTerms: []string{"exploit", "malware", "jailbreak"},
		},
	}
}

// Load reads path (skipped when empty), applies the environment and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var problems []string

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.Addr == "" {
			problems = append(problems, "redis.addr is required for the redis store")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown store driver %q (want memory or redis)", c.Store.Driver))
	}
	if c.Router.MaxSteps < 0 {
		problems = append(problems, "router.max_steps must not be negative")
	}
	if c.MaxInputSize < 0 {
		problems = append(problems, "max_input_size must not be negative")
	}
	if c.Redis.TTL < 0 {
		problems = append(problems, "redis.ttl must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
