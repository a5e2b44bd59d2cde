package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by every command.
type Config struct {
	DBPath      string            `yaml:"db_path"`
	LogLevel    string            `yaml:"log_level"`
	RolesFile   string            `yaml:"roles_file"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Analyze     AnalyzeConfig     `yaml:"analyze"`
}

// IngestConfig holds report ingestion settings.
type IngestConfig struct {
	GroupByMatchID bool `yaml:"group_by_match_id"`
}

// LeaderboardConfig holds leaderboard defaults.
type LeaderboardConfig struct {
	DefaultLimit    int `yaml:"default_limit"`
	MaxLimit        int `yaml:"max_limit"`
	DefaultMinGames int `yaml:"default_min_games"`
}

// AnalyzeConfig holds settings for the AI summary command.
type AnalyzeConfig struct {
	Model string `yaml:"model"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DBPath:   DefaultDBPath(),
		LogLevel: "warn",
		Ingest:   IngestConfig{GroupByMatchID: true},
		Leaderboard: LeaderboardConfig{
			DefaultLimit:    20,
			MaxLimit:        50,
			DefaultMinGames: 1,
		},
		Analyze: AnalyzeConfig{Model: "claude-sonnet-4-5"},
	}
}

// DefaultDBPath is ~/.roundtable/stats.db, or stats.db when the home
// directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "stats.db"
	}
	return filepath.Join(home, ".roundtable", "stats.db")
}

// DefaultPath is ~/.roundtable/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".roundtable", "config.yaml")
}

// Load reads filename over the defaults and applies ROUNDTABLE_* overrides.
// A missing file is not an error. A .env file in the working directory is
// loaded first without replacing variables already set.
func Load(filename string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("ROUNDTABLE_DB"); v != "" {
		c.DBPath = v
	}
	if v := getenv("ROUNDTABLE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("ROUNDTABLE_ROLES_FILE"); v != "" {
		c.RolesFile = v
	}
	if v := getenv("ROUNDTABLE_GROUP_BY_MATCH_ID"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ROUNDTABLE_GROUP_BY_MATCH_ID value: %w", err)
		}
		c.Ingest.GroupByMatchID = b
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"ROUNDTABLE_LEADERBOARD_LIMIT", &c.Leaderboard.DefaultLimit},
		{"ROUNDTABLE_LEADERBOARD_MAX_LIMIT", &c.Leaderboard.MaxLimit},
		{"ROUNDTABLE_LEADERBOARD_MIN_GAMES", &c.Leaderboard.DefaultMinGames},
	}
	for _, e := range ints {
		v := getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", e.key, err)
		}
		*e.dst = n
	}
	if v := getenv("ROUNDTABLE_ANALYZE_MODEL"); v != "" {
		c.Analyze.Model = v
	}
	return nil
}

// Validate rejects settings no command can work with.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	lb := c.Leaderboard
	if lb.DefaultLimit < 1 || lb.MaxLimit < 1 || lb.DefaultMinGames < 1 {
		return errors.New("leaderboard limits must be positive")
	}
	if lb.DefaultLimit > lb.MaxLimit {
		return fmt.Errorf("leaderboard default_limit %d exceeds max_limit %d", lb.DefaultLimit, lb.MaxLimit)
	}
	return nil
}
