// Package config loads tempo's settings from a YAML file, a .env file in the
// working directory and TEMPO_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TEMPO_"

type Config struct {
	DBPath              string        `yaml:"db_path"`
	Owner               string        `yaml:"owner"`
	Timezone            string        `yaml:"timezone"`
	DailyTargetMinutes  int           `yaml:"daily_target_minutes"`
	MinStreakMinutes    int           `yaml:"min_streak_minutes"`
	TimeThresholds      []int         `yaml:"time_thresholds"`
	StreakThresholds    []int         `yaml:"streak_thresholds"`
	PendingLimit        int           `yaml:"pending_limit"`
	CelebrationCooldown time.Duration `yaml:"celebration_cooldown"`
	LogLevel            string        `yaml:"log_level"`
	Focus               FocusConfig   `yaml:"focus"`
}

// FocusConfig drives the TUI focus session: work rounds separated by breaks.
type FocusConfig struct {
	WorkMinutes      int `yaml:"work_minutes"`
	BreakMinutes     int `yaml:"break_minutes"`
	LongBreakMinutes int `yaml:"long_break_minutes"`
	Rounds           int `yaml:"rounds"`
}

func Default() *Config {
	return &Config{
		Owner:               defaultOwner(),
		Timezone:            "Local",
		DailyTargetMinutes:  180,
		MinStreakMinutes:    30,
		TimeThresholds:      []int{60, 120, 180, 240, 300, 360},
		StreakThresholds:    []int{3, 7, 14, 30, 60, 100},
		PendingLimit:        5,
		CelebrationCooldown: 5 * time.Second,
		LogLevel:            "warn",
		Focus: FocusConfig{
			WorkMinutes:      25,
			BreakMinutes:     5,
			LongBreakMinutes: 15,
			Rounds:           4,
		},
	}
}

func defaultOwner() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "local"
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tempo", "config.yaml"), nil
}

// Load reads the config at path, creating it with defaults when missing, then
// applies .env and TEMPO_* overrides. An empty path means Path().
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, fmt.Errorf("locate config: %w", err)
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// A missing .env is the normal case.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = n
		return nil
	}
	ints := func(key string, dst *[]int) error {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			return nil
		}
		var out []int
		for _, f := range strings.Split(v, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
			out = append(out, n)
		}
		*dst = out
		return nil
	}

	str("DB_PATH", &c.DBPath)
	str("OWNER", &c.Owner)
	str("TIMEZONE", &c.Timezone)
	str("LOG_LEVEL", &c.LogLevel)
	if err := num("DAILY_TARGET_MINUTES", &c.DailyTargetMinutes); err != nil {
		return err
	}
	if err := num("MIN_STREAK_MINUTES", &c.MinStreakMinutes); err != nil {
		return err
	}
	if err := num("PENDING_LIMIT", &c.PendingLimit); err != nil {
		return err
	}
	if err := ints("TIME_THRESHOLDS", &c.TimeThresholds); err != nil {
		return err
	}
	if err := ints("STREAK_THRESHOLDS", &c.StreakThresholds); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(envPrefix + "CELEBRATION_COOLDOWN"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sCELEBRATION_COOLDOWN: %w", envPrefix, err)
		}
		c.CelebrationCooldown = d
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Owner) == "" {
		return errors.New("config: owner is required")
	}
	if c.DailyTargetMinutes <= 0 {
		return fmt.Errorf("config: daily_target_minutes must be positive, got %d", c.DailyTargetMinutes)
	}
	if c.MinStreakMinutes <= 0 {
		return fmt.Errorf("config: min_streak_minutes must be positive, got %d", c.MinStreakMinutes)
	}
	if c.PendingLimit <= 0 {
		return fmt.Errorf("config: pending_limit must be positive, got %d", c.PendingLimit)
	}
	if c.Focus.WorkMinutes <= 0 || c.Focus.Rounds <= 0 {
		return errors.New("config: focus work_minutes and rounds must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone; empty and "Local" mean the system zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone: %w", err)
	}
	return loc, nil
}

// Level maps LogLevel onto slog, defaulting to warn.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}
