// Package config loads the application configuration from YAML. There are no
// ambient singletons: base URL, timeout and reference coordinates are all
// injected from here.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/pulaze/blocos/internal/feed"
)

// APIConfig points the client at the Carnival backend.
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ReferenceConfig is the fixed coordinate all queries are scoped to.
// A real device would feed live location here; the app pins one.
type ReferenceConfig struct {
	Latitude  float64 `yaml:"lat"`
	Longitude float64 `yaml:"lng"`
	RadiusKm  float64 `yaml:"radius_km"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the local feed API.
	Listen string `yaml:"listen"`

	API       APIConfig       `yaml:"api"`
	Reference ReferenceConfig `yaml:"reference"`

	// Calendar is the full set of known carnival dates (ISO YYYY-MM-DD).
	// It seeds the initial date selection and bounds global text search.
	Calendar []string `yaml:"calendar"`

	// FetchLimit caps how many blocos each per-date query requests.
	FetchLimit int `yaml:"fetch_limit"`

	// RefreshCron schedules background feed refreshes. Empty disables them.
	RefreshCron string `yaml:"refresh"`

	// FavoritesPath is the bbolt database file for the favorites store.
	FavoritesPath string `yaml:"favorites_path"`

	// WeatherBaseURL overrides the weather endpoint, mostly for tests.
	WeatherBaseURL string `yaml:"weather_base_url"`

	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns an in-memory default configuration centered on
// Belo Horizonte, where the app launched.
func DefaultConfig() *Config {
	return &Config{
		Listen: "127.0.0.1:8620",
		API: APIConfig{
			BaseURL:        "https://api-carnaval-l.vercel.app/api",
			TimeoutSeconds: 15,
		},
		Reference: ReferenceConfig{
			Latitude:  -19.932,
			Longitude: -43.938,
			RadiusKm:  10,
		},
		Calendar:      carnivalCalendar(),
		FetchLimit:    50,
		RefreshCron:   "*/15 * * * *",
		FavoritesPath: "pulaze.db",
		LogLevel:      "info",
	}
}

// carnivalCalendar is the 2026 carnival window.
func carnivalCalendar() []string {
	return []string{
		"2026-02-13",
		"2026-02-14",
		"2026-02-15",
		"2026-02-16",
		"2026-02-17",
		"2026-02-18",
	}
}

// Normalize fills missing or zero values with defaults so partially filled
// configs still behave.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = def.API.BaseURL
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = def.API.TimeoutSeconds
	}
	if c.Reference.Latitude == 0 && c.Reference.Longitude == 0 {
		c.Reference = def.Reference
	}
	if c.Reference.RadiusKm <= 0 {
		c.Reference.RadiusKm = def.Reference.RadiusKm
	}
	if len(c.Calendar) == 0 {
		c.Calendar = def.Calendar
	}
	if c.FetchLimit <= 0 {
		c.FetchLimit = def.FetchLimit
	}
	if c.FavoritesPath == "" {
		c.FavoritesPath = def.FavoritesPath
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Validate checks the fields that cannot be defaulted into correctness.
func (c *Config) Validate() error {
	if c.Reference.Latitude < -90 || c.Reference.Latitude > 90 {
		return errors.Errorf("reference latitude out of range: %f", c.Reference.Latitude)
	}
	if c.Reference.Longitude < -180 || c.Reference.Longitude > 180 {
		return errors.Errorf("reference longitude out of range: %f", c.Reference.Longitude)
	}
	if len(c.Calendar) == 0 {
		return errors.New("calendar must list at least one date")
	}
	for _, date := range c.Calendar {
		if _, err := time.Parse(feed.ISODate, date); err != nil {
			return errors.Wrapf(err, "invalid calendar date %q", date)
		}
	}
	if c.RefreshCron != "" {
		if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
			return errors.Wrapf(err, "invalid refresh schedule %q", c.RefreshCron)
		}
	}
	return nil
}

// Timeout returns the API timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// Load reads the YAML config at path. A missing file yields the defaults; a
// present but invalid file is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := DefaultConfig()
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			return cfg, cfg.Validate()
		}
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}
