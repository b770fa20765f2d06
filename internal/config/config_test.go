// ABOUTME: Tests for medlog configuration management.
// ABOUTME: Covers load, save, defaults, env overrides, typed set, and path expansion.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// useTempConfig points XDG_CONFIG_HOME at a fresh temp dir.
func useTempConfig(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	return tmpDir
}

func TestGetBackendDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetBackend(); got != "sqlite" {
		t.Errorf("GetBackend() = %q, want %q", got, "sqlite")
	}
}

func TestGetDataDirExplicit(t *testing.T) {
	cfg := &Config{DataDir: "/tmp/medlog-test"}
	if got := cfg.GetDataDir(); got != "/tmp/medlog-test" {
		t.Errorf("GetDataDir() = %q, want %q", got, "/tmp/medlog-test")
	}
}

func TestGetDataDirExpandsTilde(t *testing.T) {
	home, _ := os.UserHomeDir()

	cfg := &Config{DataDir: "~/medlog-data"}
	want := filepath.Join(home, "medlog-data")
	if got := cfg.GetDataDir(); got != want {
		t.Errorf("GetDataDir() = %q, want %q", got, want)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/tmp/foo", "/tmp/foo"},
		{"~", home},
		{"~/data/medlog", filepath.Join(home, "data/medlog")},
		{"data/medlog", "data/medlog"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	useTempConfig(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with no config file should not error: %v", err)
	}
	if cfg.GetBackend() != "sqlite" {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.Routine.Wake != "07:00" || cfg.Routine.Bed != "22:00" {
		t.Errorf("unexpected routine defaults: %+v", cfg.Routine)
	}
	if cfg.Reminders.FollowUpDelayMinutes != 15 || cfg.Reminders.FollowUpMax != 1 {
		t.Errorf("unexpected follow-up defaults: %+v", cfg.Reminders)
	}
	if cfg.Reminders.FollowUpEnabled || cfg.Reminders.EarlyMinutes != 0 {
		t.Errorf("early and follow-up reminders should be off by default")
	}
	if cfg.CheckInterval() != 30*time.Second {
		t.Errorf("CheckInterval = %v", cfg.CheckInterval())
	}
}

func TestSaveAndLoad(t *testing.T) {
	useTempConfig(t)

	cfg, _ := Load()
	cfg.DataDir = "/tmp/medlog-data"
	cfg.Routine.Breakfast = "07:30"
	cfg.Reminders.EarlyMinutes = 10
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.DataDir != "/tmp/medlog-data" {
		t.Errorf("DataDir mismatch: got %q", loaded.DataDir)
	}
	if loaded.Routine.Breakfast != "07:30" || loaded.Reminders.EarlyMinutes != 10 {
		t.Errorf("settings not persisted: %+v", loaded)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "nonexistent"))

	cfg := &Config{Backend: "sqlite"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() should create directory: %v", err)
	}

	configDir := filepath.Join(tmpDir, "nonexistent", "medlog")
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		t.Error("Expected config directory to be created")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := useTempConfig(t)

	configDir := filepath.Join(tmpDir, "medlog")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte("invalid json"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid JSON config")
	}
}

func TestEnvOverride(t *testing.T) {
	useTempConfig(t)
	t.Setenv("MEDLOG_REMINDERS_EARLY_MINUTES", "20")
	t.Setenv("MEDLOG_DATA_DIR", "/tmp/from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Reminders.EarlyMinutes != 20 {
		t.Errorf("EarlyMinutes = %d, want 20", cfg.Reminders.EarlyMinutes)
	}
	if cfg.DataDir != "/tmp/from-env" {
		t.Errorf("DataDir = %q, want /tmp/from-env", cfg.DataDir)
	}
}

func TestSetTypedValues(t *testing.T) {
	useTempConfig(t)

	if err := Set("reminders.follow_up_enabled", "true"); err != nil {
		t.Fatalf("Set bool failed: %v", err)
	}
	if err := Set("reminders.follow_up_max", "3"); err != nil {
		t.Fatalf("Set int failed: %v", err)
	}
	if err := Set("routine.dinner", "19:15"); err != nil {
		t.Fatalf("Set clock failed: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !cfg.Reminders.FollowUpEnabled || cfg.Reminders.FollowUpMax != 3 {
		t.Errorf("reminder settings not persisted: %+v", cfg.Reminders)
	}
	if r := cfg.DailyRoutine(); r.DinnerHour != 19 || r.DinnerMinute != 15 {
		t.Errorf("DailyRoutine dinner = %d:%d", r.DinnerHour, r.DinnerMinute)
	}
}

func TestSetRejectsInvalid(t *testing.T) {
	useTempConfig(t)

	tests := []struct{ key, value string }{
		{"nope", "1"},
		{"reminders.early_minutes", "ten"},
		{"reminders.early_minutes", "-5"},
		{"routine.wake", "25:00"},
		{"travel.home_timezone", "Mars/Olympus"},
		{"reminders.check_interval", "soon"},
		{"backend", "markdown"},
	}
	for _, tt := range tests {
		if err := Set(tt.key, tt.value); err == nil {
			t.Errorf("Set(%q, %q) should fail", tt.key, tt.value)
		}
	}
}

func TestLocationTravelMode(t *testing.T) {
	cfg := &Config{Travel: TravelConfig{Enabled: true, HomeTimezone: "Asia/Tokyo"}}
	if got := cfg.Location().String(); got != "Asia/Tokyo" {
		t.Errorf("Location = %s, want Asia/Tokyo", got)
	}

	cfg.Travel.HomeTimezone = "Not/AZone"
	if cfg.Location() != time.Local {
		t.Error("invalid zone should fall back to local")
	}

	cfg = &Config{Travel: TravelConfig{HomeTimezone: "Asia/Tokyo"}}
	if cfg.Location() != time.Local {
		t.Error("travel mode off should use local time")
	}
}

func TestDailyRoutineFallsBack(t *testing.T) {
	cfg := &Config{Routine: RoutineConfig{Wake: "06:15", Lunch: "garbage"}}
	r := cfg.DailyRoutine()
	if r.WakeHour != 6 || r.WakeMinute != 15 {
		t.Errorf("wake = %d:%d", r.WakeHour, r.WakeMinute)
	}
	if r.LunchHour != 12 || r.LunchMinute != 0 {
		t.Errorf("lunch should fall back to 12:00, got %d:%d", r.LunchHour, r.LunchMinute)
	}
}

func TestGetConfigPath(t *testing.T) {
	tmpDir := useTempConfig(t)

	want := filepath.Join(tmpDir, "medlog", "config.json")
	if got := GetConfigPath(); got != want {
		t.Errorf("GetConfigPath() = %q, want %q", got, want)
	}
}

func TestOpenStorageSQLite(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := &Config{DataDir: tmpDir}
	repo, err := cfg.OpenStorage()
	if err != nil {
		t.Fatalf("OpenStorage() for sqlite failed: %v", err)
	}
	defer repo.Close()

	if _, err := os.Stat(filepath.Join(tmpDir, "medlog.db")); os.IsNotExist(err) {
		t.Error("Expected medlog.db to be created")
	}
}

func TestOpenStorageInvalidBackend(t *testing.T) {
	cfg := &Config{Backend: "markdown", DataDir: "/tmp"}
	if _, err := cfg.OpenStorage(); err == nil {
		t.Error("Expected error for invalid backend")
	}
}
