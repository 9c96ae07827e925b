// Package config loads runtime settings from defaults, an optional YAML
// file, a .env file and CENSO_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/zalepa/censo/census"
)

// Municipality is one selectable entry of the dashboard.
type Municipality struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
}

// Config holds every runtime setting.
type Config struct {
	APIBase        string         `yaml:"api_base"`
	Listen         string         `yaml:"listen"`
	Timeout        time.Duration  `yaml:"timeout"`
	RatePerSecond  float64        `yaml:"rate_per_second"`
	RateBurst      int            `yaml:"rate_burst"`
	LogLevel       string         `yaml:"log_level"`
	Default        string         `yaml:"default"`
	Municipalities []Municipality `yaml:"municipalities"`
}

// ElProgreso lists the municipalities of department 2.
var ElProgreso = []Municipality{
	{"201", "Guastatoya"},
	{"202", "Morazán"},
	{"203", "San Agustín Acasaguastlán"},
	{"204", "San Cristóbal Acasaguastlán"},
	{"205", "El Jícaro"},
	{"206", "Sansare"},
	{"207", "Sanarate"},
	{"208", "San Antonio La Paz"},
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIBase:        census.DefaultBaseURL,
		Listen:         ":8080",
		Timeout:        15 * time.Second,
		RatePerSecond:  4,
		RateBurst:      2,
		LogLevel:       "info",
		Default:        "201",
		Municipalities: append([]Municipality(nil), ElProgreso...),
	}
}

// Load builds the configuration. path may be empty; a missing .env file
// is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %q: %w", path, err)
		}
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("CENSO_API_BASE"); v != "" {
		c.APIBase = v
	}
	if v := os.Getenv("CENSO_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("CENSO_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("CENSO_DEFAULT"); v != "" {
		c.Default = v
	}
	if v := os.Getenv("CENSO_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CENSO_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("CENSO_RATE"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CENSO_RATE: %w", err)
		}
		c.RatePerSecond = r
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBase) == "" {
		return errors.New("api_base is required")
	}
	if len(c.Municipalities) == 0 {
		return errors.New("no municipalities configured")
	}
	seen := make(map[string]bool, len(c.Municipalities))
	for i, m := range c.Municipalities {
		if m.Code == "" {
			return fmt.Errorf("municipality[%d]: code is required", i)
		}
		if seen[m.Code] {
			return fmt.Errorf("municipality %q listed twice", m.Code)
		}
		seen[m.Code] = true
	}
	if c.Default == "" {
		c.Default = c.Municipalities[0].Code
	}
	if !seen[c.Default] {
		return fmt.Errorf("default municipality %q is not in the list", c.Default)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Codes returns the configured municipality codes in list order.
func (c *Config) Codes() []string {
	codes := make([]string, len(c.Municipalities))
	for i, m := range c.Municipalities {
		codes[i] = m.Code
	}
	return codes
}

// HasCode reports whether code is a configured municipality.
func (c *Config) HasCode(code string) bool {
	for _, m := range c.Municipalities {
		if m.Code == code {
			return true
		}
	}
	return false
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// Logger returns a text logger on stderr at the configured level.
func (c *Config) Logger() *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Client returns an indicators client for the configured endpoint.
func (c *Config) Client(log *slog.Logger) *census.Client {
	return census.NewClient(c.APIBase,
		census.WithTimeout(c.Timeout),
		census.WithRateLimit(c.RatePerSecond, c.RateBurst),
		census.WithLogger(log),
	)
}
