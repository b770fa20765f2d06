// ABOUTME: medlog configuration backed by viper: file, MEDLOG_* env, and defaults.
// ABOUTME: Covers data dir, daily routine, travel mode, reminder settings, and storage factory.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/medlog/internal/models"
	"github.com/harperreed/medlog/internal/schedule"
	"github.com/harperreed/medlog/internal/storage"
	"github.com/spf13/viper"
)

// Config stores medlog configuration.
type Config struct {
	// Backend selects the storage backend. Only "sqlite" is supported.
	Backend string `mapstructure:"backend" json:"backend,omitempty"`

	// DataDir is the root directory for data storage; medlog.db lives here.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/medlog.
	DataDir string `mapstructure:"data_dir" json:"data_dir,omitempty"`

	Routine   RoutineConfig  `mapstructure:"routine" json:"routine"`
	Travel    TravelConfig   `mapstructure:"travel" json:"travel"`
	Reminders ReminderConfig `mapstructure:"reminders" json:"reminders"`
}

// RoutineConfig holds the user's daily anchors as "HH:MM".
type RoutineConfig struct {
	Wake      string `mapstructure:"wake" json:"wake"`
	Breakfast string `mapstructure:"breakfast" json:"breakfast"`
	Lunch     string `mapstructure:"lunch" json:"lunch"`
	Dinner    string `mapstructure:"dinner" json:"dinner"`
	Bed       string `mapstructure:"bed" json:"bed"`
}

// TravelConfig keeps reminders on home time while travelling.
type TravelConfig struct {
	Enabled      bool   `mapstructure:"enabled" json:"enabled"`
	HomeTimezone string `mapstructure:"home_timezone" json:"home_timezone,omitempty"`
}

// ReminderConfig controls early and follow-up reminders and the daemon tick.
type ReminderConfig struct {
	EarlyMinutes         int    `mapstructure:"early_minutes" json:"early_minutes"`
	FollowUpEnabled      bool   `mapstructure:"follow_up_enabled" json:"follow_up_enabled"`
	FollowUpDelayMinutes int    `mapstructure:"follow_up_delay_minutes" json:"follow_up_delay_minutes"`
	FollowUpMax          int    `mapstructure:"follow_up_max" json:"follow_up_max"`
	CheckInterval        string `mapstructure:"check_interval" json:"check_interval"`
}

// defaults is the single source of known keys and their default values.
var defaults = map[string]interface{}{
	"backend":                           "sqlite",
	"data_dir":                          "",
	"routine.wake":                      "07:00",
	"routine.breakfast":                 "08:00",
	"routine.lunch":                     "12:00",
	"routine.dinner":                    "18:00",
	"routine.bed":                       "22:00",
	"travel.enabled":                    false,
	"travel.home_timezone":              "",
	"reminders.early_minutes":           0,
	"reminders.follow_up_enabled":       false,
	"reminders.follow_up_delay_minutes": 15,
	"reminders.follow_up_max":           1,
	"reminders.check_interval":          "30s",
}

// Keys returns every known configuration key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return "sqlite"
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a Repository implementation based on the configured backend.
func (c *Config) OpenStorage() (*storage.DB, error) {
	switch backend := c.GetBackend(); backend {
	case "sqlite":
		return storage.Open(filepath.Join(c.GetDataDir(), "medlog.db"))
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// DailyRoutine converts the routine settings, falling back to defaults
// for any unparseable entry.
func (c *Config) DailyRoutine() schedule.Routine {
	r := schedule.DefaultRoutine()
	if h, m, err := models.ParseClock(c.Routine.Wake); err == nil {
		r.WakeHour, r.WakeMinute = h, m
	}
	if h, m, err := models.ParseClock(c.Routine.Breakfast); err == nil {
		r.BreakfastHour, r.BreakfastMinute = h, m
	}
	if h, m, err := models.ParseClock(c.Routine.Lunch); err == nil {
		r.LunchHour, r.LunchMinute = h, m
	}
	if h, m, err := models.ParseClock(c.Routine.Dinner); err == nil {
		r.DinnerHour, r.DinnerMinute = h, m
	}
	if h, m, err := models.ParseClock(c.Routine.Bed); err == nil {
		r.BedHour, r.BedMinute = h, m
	}
	return r
}

// Location returns the zone reminders are computed in: the home zone when
// travel mode is on and the zone is valid, otherwise local time.
func (c *Config) Location() *time.Location {
	if c.Travel.Enabled && c.Travel.HomeTimezone != "" {
		if loc, err := time.LoadLocation(c.Travel.HomeTimezone); err == nil {
			return loc
		}
	}
	return time.Local
}

// ScheduleOptions builds scheduler options from the reminder settings.
func (c *Config) ScheduleOptions() schedule.Options {
	return schedule.Options{
		Location:        c.Location(),
		EarlyMinutes:    c.Reminders.EarlyMinutes,
		FollowUpEnabled: c.Reminders.FollowUpEnabled,
		FollowUpDelay:   time.Duration(c.Reminders.FollowUpDelayMinutes) * time.Minute,
		FollowUpMax:     c.Reminders.FollowUpMax,
	}
}

// CheckInterval returns the daemon tick, at least one second.
func (c *Config) CheckInterval() time.Duration {
	d, err := time.ParseDuration(c.Reminders.CheckInterval)
	if err != nil || d < time.Second {
		return 30 * time.Second
	}
	return d
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "medlog", "config.json")
}

// newViper returns a viper instance with defaults and the config file loaded
// when it exists. Environment overrides are only bound when withEnv is set so
// that they never get written back to disk.
func newViper(withEnv bool) (*viper.Viper, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if withEnv {
		// Environment variables (MEDLOG_DATA_DIR, MEDLOG_REMINDERS_EARLY_MINUTES, etc.)
		v.SetEnvPrefix("MEDLOG")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	path := GetConfigPath()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load reads config from disk, environment, and defaults.
func Load() (*Config, error) {
	v, err := newViper(true)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	v := viper.New()
	v.Set("backend", c.Backend)
	v.Set("data_dir", c.DataDir)
	v.Set("routine.wake", c.Routine.Wake)
	v.Set("routine.breakfast", c.Routine.Breakfast)
	v.Set("routine.lunch", c.Routine.Lunch)
	v.Set("routine.dinner", c.Routine.Dinner)
	v.Set("routine.bed", c.Routine.Bed)
	v.Set("travel.enabled", c.Travel.Enabled)
	v.Set("travel.home_timezone", c.Travel.HomeTimezone)
	v.Set("reminders.early_minutes", c.Reminders.EarlyMinutes)
	v.Set("reminders.follow_up_enabled", c.Reminders.FollowUpEnabled)
	v.Set("reminders.follow_up_delay_minutes", c.Reminders.FollowUpDelayMinutes)
	v.Set("reminders.follow_up_max", c.Reminders.FollowUpMax)
	v.Set("reminders.check_interval", c.Reminders.CheckInterval)
	return writeViper(v)
}

// Set validates and persists a single key. The value is converted to the
// type of the key's default.
func Set(key, value string) error {
	def, ok := defaults[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}

	var typed interface{}
	switch def.(type) {
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true/false: %w", key, err)
		}
		typed = b
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s expects a number: %w", key, err)
		}
		if n < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
		typed = n
	default:
		if err := validateString(key, value); err != nil {
			return err
		}
		typed = value
	}

	v, err := newViper(false)
	if err != nil {
		return err
	}
	v.Set(key, typed)
	return writeViper(v)
}

func validateString(key, value string) error {
	switch {
	case strings.HasPrefix(key, "routine."):
		if _, _, err := models.ParseClock(value); err != nil {
			return fmt.Errorf("%s expects HH:MM: %w", key, err)
		}
	case key == "travel.home_timezone" && value != "":
		if _, err := time.LoadLocation(value); err != nil {
			return fmt.Errorf("unknown time zone %q: %w", value, err)
		}
	case key == "reminders.check_interval":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s expects a duration like 30s: %w", key, err)
		}
	case key == "backend" && value != "sqlite":
		return fmt.Errorf("unknown backend: %q", value)
	}
	return nil
}

func writeViper(v *viper.Viper) error {
	path := GetConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Chmod(path, 0600)
}
