// Package config loads mathduel settings from a .env file, an optional YAML
// file and MATHDUEL_* environment variables, in that order of precedence
// from lowest to highest.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/mathduel/internal/battle"
	"github.com/abhisek/mathduel/internal/difficulty"
	"github.com/abhisek/mathduel/internal/problemgen"
)

// Config is the game and server configuration.
type Config struct {
	Addr     string `yaml:"addr"`
	DBPath   string `yaml:"db_path"`
	LogLevel string `yaml:"log_level"`

	Player     PlayerConfig     `yaml:"player"`
	Enemy      EnemyConfig      `yaml:"enemy"`
	Rules      battle.Rules     `yaml:"rules"`
	Generation GenerationConfig `yaml:"generation"`
}

// PlayerConfig identifies the local player for the CLI.
type PlayerConfig struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Level      int    `yaml:"level"`
	Preference string `yaml:"preference"`
}

// EnemyConfig describes the scripted opponent.
type EnemyConfig struct {
	Name      string `yaml:"name"`
	Archetype string `yaml:"archetype"`

	// Strategy is "scaled" or "fixed".
	Strategy string  `yaml:"strategy"`
	Accuracy float64 `yaml:"accuracy"`
}

// GenerationConfig tunes problem generation.
type GenerationConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`

	// Ceiling is the highest difficulty ever requested.
	Ceiling int `yaml:"ceiling"`
}

// Default returns the built-in configuration.
func Default() *Config {
	gen := problemgen.DefaultConfig()
	return &Config{
		Addr:     ":8080",
		LogLevel: "INFO",
		Player: PlayerConfig{
			ID:         "local",
			Name:       "Player",
			Preference: string(problemgen.PreferenceAdaptive),
		},
		Enemy: EnemyConfig{
			Name:      battle.DefaultOpponent,
			Archetype: "trickster",
			Strategy:  "scaled",
			Accuracy:  0.6,
		},
		Rules: battle.DefaultRules(),
		Generation: GenerationConfig{
			Timeout:     gen.Timeout,
			MaxTokens:   gen.MaxTokens,
			Temperature: gen.Temperature,
			Ceiling:     difficulty.DefaultConfig().Ceiling,
		},
	}
}

// Load builds the configuration. path names a YAML file; when empty,
// MATHDUEL_CONFIG and then the user config directory are tried, and a
// missing default file is not an error.
func Load(path string) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p := os.Getenv("MATHDUEL_CONFIG"); p != "" {
			path, explicit = p, true
		} else {
			path = DefaultPath()
		}
	}
	if path != "" {
		if err := cfg.loadFile(path, explicit); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns the default YAML location, or "" when the user config
// directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mathduel", "config.yaml")
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Addr = envOr("MATHDUEL_ADDR", c.Addr)
	c.DBPath = envOr("MATHDUEL_DB", c.DBPath)
	c.LogLevel = envOr("MATHDUEL_LOG_LEVEL", c.LogLevel)

	c.Player.ID = envOr("MATHDUEL_PLAYER", c.Player.ID)
	c.Player.Name = envOr("MATHDUEL_PLAYER_NAME", c.Player.Name)
	c.Player.Level = envIntOr("MATHDUEL_LEVEL", c.Player.Level)
	c.Player.Preference = envOr("MATHDUEL_PREFERENCE", c.Player.Preference)

	c.Enemy.Strategy = envOr("MATHDUEL_ENEMY_STRATEGY", c.Enemy.Strategy)
	c.Enemy.Accuracy = envFloatOr("MATHDUEL_ENEMY_ACCURACY", c.Enemy.Accuracy)

	c.Rules.MaxHealth = envIntOr("MATHDUEL_MAX_HEALTH", c.Rules.MaxHealth)
	c.Rules.HandSize = envIntOr("MATHDUEL_HAND_SIZE", c.Rules.HandSize)
	c.Rules.Penalty = envIntOr("MATHDUEL_PENALTY", c.Rules.Penalty)

	c.Generation.Timeout = envDurationOr("MATHDUEL_GEN_TIMEOUT", c.Generation.Timeout)
	c.Generation.Ceiling = envIntOr("MATHDUEL_DIFFICULTY_CEILING", c.Generation.Ceiling)
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr cannot be empty"))
	}
	if c.Player.ID == "" {
		errs = append(errs, errors.New("player.id cannot be empty"))
	}
	if c.Player.ID == battle.EnemyID {
		errs = append(errs, fmt.Errorf("player.id %q is reserved", battle.EnemyID))
	}
	switch problemgen.Preference(c.Player.Preference) {
	case problemgen.PreferencePractice, problemgen.PreferenceAdaptive, problemgen.PreferenceChallenge:
	default:
		errs = append(errs, fmt.Errorf("player.preference must be practice, adaptive or challenge, got %q", c.Player.Preference))
	}
	switch c.Enemy.Strategy {
	case "scaled", "fixed":
	default:
		errs = append(errs, fmt.Errorf("enemy.strategy must be scaled or fixed, got %q", c.Enemy.Strategy))
	}
	if c.Enemy.Accuracy < 0 || c.Enemy.Accuracy > 1 {
		errs = append(errs, fmt.Errorf("enemy.accuracy must be in [0,1], got %g", c.Enemy.Accuracy))
	}
	if c.Rules.MaxHealth <= 0 || c.Rules.HandSize <= 0 || c.Rules.FieldLimit <= 0 || c.Rules.Penalty <= 0 {
		errs = append(errs, fmt.Errorf("rules out of range: %+v", c.Rules))
	}
	if c.Generation.Timeout <= 0 {
		errs = append(errs, errors.New("generation.timeout must be positive"))
	}
	if c.Generation.Ceiling < 1 || c.Generation.Ceiling > 10 {
		errs = append(errs, fmt.Errorf("generation.ceiling must be in [1,10], got %d", c.Generation.Ceiling))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Difficulty returns the adapter settings.
func (c *Config) Difficulty() difficulty.Config {
	d := difficulty.DefaultConfig()
	d.Ceiling = c.Generation.Ceiling
	return d
}

// Orchestrator returns the problem generator settings.
func (c *Config) Orchestrator() problemgen.Config {
	o := problemgen.DefaultConfig()
	o.Timeout = c.Generation.Timeout
	if c.Generation.MaxTokens > 0 {
		o.MaxTokens = c.Generation.MaxTokens
	}
	o.Temperature = c.Generation.Temperature
	return o
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		slog.Warn("invalid integer setting, using default", "key", key, "value", v, "default", def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		slog.Warn("invalid number setting, using default", "key", key, "value", v, "default", def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("invalid duration setting, using default", "key", key, "value", v, "default", def)
	}
	return def
}
