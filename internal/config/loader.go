package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables that override the file.
const (
	EnvStorageDriver  = "CRUMBCAL_STORAGE_DRIVER"
	EnvSQLiteDSN      = "CRUMBCAL_SQLITE_DSN"
	EnvDataDir        = "CRUMBCAL_DATA_DIR"
	EnvSlotMinutes    = "CRUMBCAL_SLOT_MINUTES"
	EnvDayStart       = "CRUMBCAL_DAY_START"
	EnvDayEnd         = "CRUMBCAL_DAY_END"
	EnvDefaultView    = "CRUMBCAL_DEFAULT_VIEW"
	EnvItineraryFile  = "CRUMBCAL_ITINERARY_FILE"
	EnvItineraryWatch = "CRUMBCAL_ITINERARY_WATCH"
	EnvLogLevel       = "CRUMBCAL_LOG_LEVEL"
	EnvLogFormat      = "CRUMBCAL_LOG_FORMAT"
	EnvLogPath        = "CRUMBCAL_LOG_PATH"
)

// Load reads the YAML file at path (optional), applies environment
// overrides from the current process and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overwrites cfg with any CRUMBCAL_* variable that lookup finds.
// Malformed values are collected and reported together.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	invalid := make([]string, 0, 2)

	get := func(key string) (string, bool) {
		value, ok := lookup(key)
		value = strings.TrimSpace(value)
		return value, ok && value != ""
	}

	if value, ok := get(EnvStorageDriver); ok {
		switch driver := strings.ToLower(value); driver {
		case DriverSQLite, DriverFile, DriverMemory:
			cfg.Storage.Driver = driver
		default:
			invalid = append(invalid, EnvStorageDriver)
		}
	}
	if value, ok := get(EnvDataDir); ok {
		cfg.Storage.DataDir = value
	}
	if value, ok := get(EnvSQLiteDSN); ok {
		cfg.Storage.SQLiteDSN = value
	}

	if value, ok := get(EnvSlotMinutes); ok {
		minutes, err := strconv.Atoi(value)
		if err != nil || minutes <= 0 {
			invalid = append(invalid, EnvSlotMinutes)
		} else {
			cfg.Calendar.SlotMinutes = minutes
		}
	}
	if value, ok := get(EnvDayStart); ok {
		cfg.Calendar.DayStart = value
	}
	if value, ok := get(EnvDayEnd); ok {
		cfg.Calendar.DayEnd = value
	}
	if value, ok := get(EnvDefaultView); ok {
		cfg.Calendar.DefaultView = value
	}

	if value, ok := get(EnvItineraryFile); ok {
		cfg.Itinerary.File = value
	}
	if value, ok := get(EnvItineraryWatch); ok {
		watch, err := strconv.ParseBool(value)
		if err != nil {
			invalid = append(invalid, EnvItineraryWatch)
		} else {
			cfg.Itinerary.Watch = watch
		}
	}

	if value, ok := get(EnvLogLevel); ok {
		cfg.Log.Level = value
	}
	if value, ok := get(EnvLogFormat); ok {
		cfg.Log.Format = value
	}
	if value, ok := get(EnvLogPath); ok {
		cfg.Log.Path = value
	}

	if len(invalid) > 0 {
		return fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}
	return nil
}
