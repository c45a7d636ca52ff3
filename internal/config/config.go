// Package config loads crumbcal settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/crumb-calendar/internal/calendar"
	"github.com/example/crumb-calendar/internal/grid"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// StorageConfig selects where the events document lives.
type StorageConfig struct {
	// Driver is sqlite (default), file or memory.
	Driver    string `yaml:"driver"`
	SQLiteDSN string `yaml:"sqlite_dsn"`
	// DataDir holds the JSON documents of the file driver and the default
	// SQLite database.
	DataDir string `yaml:"data_dir"`
}

// CalendarConfig shapes the grid.
type CalendarConfig struct {
	SlotMinutes int    `yaml:"slot_minutes"`
	DayStart    string `yaml:"day_start"`
	DayEnd      string `yaml:"day_end"`
	// DefaultView is day, 3day or week.
	DefaultView string `yaml:"default_view"`
}

// ItineraryConfig locates the imported visits.
type ItineraryConfig struct {
	// File is a visitData JSON document exported by the CRM. When empty the
	// visits are read from the storage backend.
	File string `yaml:"file"`
	// Watch reloads File when it changes on disk.
	Watch bool `yaml:"watch"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Path receives log lines while the terminal UI owns stdout.
	Path string `yaml:"path"`
}

// Config is the top-level application configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Itinerary ItineraryConfig `yaml:"itinerary"`
	Log       LogConfig       `yaml:"log"`
}

// DefaultDataDir returns the per-user data directory, falling back to the
// working directory when the home directory is unknown.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "crumbcal")
	}
	return ".crumbcal"
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills zero values with defaults so partial files still work.
func (c *Config) Normalize() {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverSQLite
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = DefaultDataDir()
	}

	defaults := grid.DefaultSlotConfig()
	if c.Calendar.SlotMinutes == 0 {
		c.Calendar.SlotMinutes = defaults.SlotMinutes
	}
	if c.Calendar.DayStart == "" {
		c.Calendar.DayStart = defaults.DayStart.String()
	}
	if c.Calendar.DayEnd == "" {
		c.Calendar.DayEnd = defaults.DayEnd.String()
	}
	if c.Calendar.DefaultView == "" {
		c.Calendar.DefaultView = grid.ModeWeek.String()
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// SQLitePath returns storage.sqlite_dsn, defaulting to crumbcal.db in the
// data directory.
func (c *Config) SQLitePath() string {
	if c.Storage.SQLiteDSN != "" {
		return c.Storage.SQLiteDSN
	}
	return filepath.Join(c.Storage.DataDir, "crumbcal.db")
}

// LogPath returns log.path, defaulting to crumbcal.log in the data
// directory.
func (c *Config) LogPath() string {
	if c.Log.Path != "" {
		return c.Log.Path
	}
	return filepath.Join(c.Storage.DataDir, "crumbcal.log")
}

// Validate reports every setting that cannot be used.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case DriverSQLite, DriverFile, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver))
	}
	if _, err := c.SlotConfig(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.DefaultMode(); err != nil {
		errs = append(errs, fmt.Errorf("config: calendar.default_view: %w", err))
	}
	if c.Itinerary.Watch && c.Itinerary.File == "" {
		errs = append(errs, errors.New("config: itinerary.watch requires itinerary.file"))
	}
	return errors.Join(errs...)
}

// SlotConfig converts the calendar section into a grid.SlotConfig.
func (c *Config) SlotConfig() (grid.SlotConfig, error) {
	start, err := calendar.ParseClock(c.Calendar.DayStart)
	if err != nil {
		return grid.SlotConfig{}, fmt.Errorf("config: calendar.day_start: %w", err)
	}
	end, err := calendar.ParseClock(c.Calendar.DayEnd)
	if err != nil {
		return grid.SlotConfig{}, fmt.Errorf("config: calendar.day_end: %w", err)
	}
	slots := grid.SlotConfig{DayStart: start, DayEnd: end, SlotMinutes: c.Calendar.SlotMinutes}
	if err := slots.Validate(); err != nil {
		return grid.SlotConfig{}, fmt.Errorf("config: %w", err)
	}
	return slots, nil
}

// DefaultMode parses calendar.default_view.
func (c *Config) DefaultMode() (grid.Mode, error) {
	return grid.ParseMode(c.Calendar.DefaultView)
}

// ReadFile parses the YAML file at path. A missing file yields the defaults.
func ReadFile(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg as YAML to path with 0600 permissions, replacing any
// existing file atomically.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".crumbcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
