package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"trainload/internal/analysis"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Test athlete defaults
	if cfg.Athlete.RestingHR != 50 {
		t.Errorf("Athlete.RestingHR = %v, want 50", cfg.Athlete.RestingHR)
	}
	if cfg.Athlete.MaxHR != 185 {
		t.Errorf("Athlete.MaxHR = %v, want 185", cfg.Athlete.MaxHR)
	}
	if cfg.Athlete.ThresholdHR != 165 {
		t.Errorf("Athlete.ThresholdHR = %v, want 165", cfg.Athlete.ThresholdHR)
	}

	// Load windows
	if cfg.Load.HistoryDays != 180 || cfg.Load.ZoneWindowDays != 28 || cfg.Load.ChartDays != 42 {
		t.Errorf("Load windows = %d/%d/%d, want 180/28/42",
			cfg.Load.HistoryDays, cfg.Load.ZoneWindowDays, cfg.Load.ChartDays)
	}
	if cfg.Load.EngineParams() != analysis.DefaultParams() {
		t.Errorf("EngineParams() = %+v, want defaults", cfg.Load.EngineParams())
	}

	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverSQLite)
	}
	if cfg.Schedule.SnapshotCron != "5 0 * * *" {
		t.Errorf("Schedule.SnapshotCron = %q", cfg.Schedule.SnapshotCron)
	}
	if cfg.Cache.TTL() != 5*time.Minute {
		t.Errorf("Cache.TTL() = %v, want 5m", cfg.Cache.TTL())
	}

	// Strava config should be empty by default
	if cfg.Strava.ClientID != "" {
		t.Errorf("Strava.ClientID should be empty, got %q", cfg.Strava.ClientID)
	}
	if cfg.Strava.ClientSecret != "" {
		t.Errorf("Strava.ClientSecret should be empty, got %q", cfg.Strava.ClientSecret)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
		errContains string
	}{
		{
			name:        "defaults are valid",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "bad distance unit",
			mutate:      func(c *Config) { c.Display.DistanceUnit = "furlong" },
			expectError: true,
			errContains: "distance_unit",
		},
		{
			name:        "threshold above max",
			mutate:      func(c *Config) { c.Athlete.ThresholdHR = 190 },
			expectError: true,
			errContains: "threshold_hr",
		},
		{
			name:        "negative ftp",
			mutate:      func(c *Config) { c.Athlete.FTP = -1 },
			expectError: true,
			errContains: "ftp",
		},
		{
			name:        "unknown driver",
			mutate:      func(c *Config) { c.Database.Driver = "mysql" },
			expectError: true,
			errContains: "database.driver",
		},
		{
			name:        "postgres without dsn",
			mutate:      func(c *Config) { c.Database.Driver = DriverPostgres },
			expectError: true,
			errContains: "dsn",
		},
		{
			name: "postgres with dsn",
			mutate: func(c *Config) {
				c.Database.Driver = DriverPostgres
				c.Database.DSN = "postgres://localhost/trainload"
			},
			expectError: false,
		},
		{
			name:        "atl longer than ctl",
			mutate:      func(c *Config) { c.Load.ATLDays = 60 },
			expectError: true,
			errContains: "atl_days",
		},
		{
			name:        "negative window",
			mutate:      func(c *Config) { c.Load.HistoryDays = -1 },
			expectError: true,
			errContains: "negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				} else if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfigValidateStrava(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		errContains string
	}{
		{
			name:   "valid credentials",
			config: Config{Strava: StravaConfig{ClientID: "12345", ClientSecret: "abc123secret"}},
		},
		{
			name:        "empty client ID",
			config:      Config{Strava: StravaConfig{ClientSecret: "abc123secret"}},
			errContains: "client_id",
		},
		{
			name:        "placeholder client secret",
			config:      Config{Strava: StravaConfig{ClientID: "12345", ClientSecret: "YOUR_CLIENT_SECRET"}},
			errContains: "client_secret",
		},
		{
			name:        "both placeholders",
			config:      Config{Strava: StravaConfig{ClientID: "YOUR_CLIENT_ID", ClientSecret: "YOUR_CLIENT_SECRET"}},
			errContains: "client_id", // first error wins
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.ValidateStrava()
			if tt.errContains == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error = %v, want it to contain %q", err, tt.errContains)
			}
		})
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	if !errors.Is(err, ErrNoConfig) {
		t.Errorf("LoadFrom() error = %v, want ErrNoConfig", err)
	}
}

func TestLoadFromJSONAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"strava": {"client_id": "1", "client_secret": "s"}, "athlete": {"ftp": 280}, "load": {"history_days": 90}}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Athlete.FTP != 280 {
		t.Errorf("Athlete.FTP = %v, want 280", cfg.Athlete.FTP)
	}
	if cfg.Load.HistoryDays != 90 {
		t.Errorf("Load.HistoryDays = %d, want 90", cfg.Load.HistoryDays)
	}
	if cfg.Load.CTLDays != 42 || cfg.Athlete.MaxHR != 185 || cfg.Server.Addr != ":8080" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
athlete:
  ftp: 265
  max_hr: 190
load:
  ctl_days: 28
database:
  driver: postgres
  dsn: postgres://localhost/trainload
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Athlete.FTP != 265 || cfg.Athlete.MaxHR != 190 {
		t.Errorf("athlete = %+v", cfg.Athlete)
	}
	if cfg.Load.EngineParams().CTLTimeConstant != 28 {
		t.Errorf("CTLTimeConstant = %d, want 28", cfg.Load.EngineParams().CTLTimeConstant)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("Database.Driver = %q, want postgres", cfg.Database.Driver)
	}
}

func TestLoadFromInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil || errors.Is(err, ErrNoConfig) {
		t.Errorf("LoadFrom() error = %v, want a parse error", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"strava": {"client_id": "file-id"}}`), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvStravaClientID, "env-id")
	t.Setenv(EnvRedisAddr, "localhost:6379")
	t.Setenv(EnvAthleteFTP, "300")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Strava.ClientID != "env-id" {
		t.Errorf("Strava.ClientID = %q, want env-id", cfg.Strava.ClientID)
	}
	if cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("Cache.RedisAddr = %q", cfg.Cache.RedisAddr)
	}
	if cfg.Athlete.FTP != 300 {
		t.Errorf("Athlete.FTP = %v, want 300", cfg.Athlete.FTP)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}

	t.Setenv(EnvAthleteFTP, "lots")
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for non-numeric FTP override")
	}
}

func TestDotEnvFileNextToConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvStravaClientSecret+"=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}

	// register cleanup so the variable godotenv sets does not leak
	t.Setenv(EnvStravaClientSecret, "")
	os.Unsetenv(EnvStravaClientSecret)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Strava.ClientSecret != "from-dotenv" {
		t.Errorf("Strava.ClientSecret = %q, want from-dotenv", cfg.Strava.ClientSecret)
	}
}

func TestSaveAndCreateExample(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"config.json", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "nested", name)
			if err := CreateExampleAt(path); err != nil {
				t.Fatalf("CreateExampleAt() error = %v", err)
			}

			cfg, err := LoadFrom(path)
			if err != nil {
				t.Fatalf("LoadFrom() error = %v", err)
			}
			if cfg.Strava.ClientID != "YOUR_CLIENT_ID" {
				t.Errorf("Strava.ClientID = %q", cfg.Strava.ClientID)
			}
			if err := cfg.ValidateStrava(); err == nil {
				t.Error("example credentials should not validate")
			}

			// existing files are left alone
			cfg.Athlete.FTP = 321
			if err := SaveTo(cfg, path); err != nil {
				t.Fatalf("SaveTo() error = %v", err)
			}
			if err := CreateExampleAt(path); err != nil {
				t.Fatalf("CreateExampleAt() error = %v", err)
			}
			again, err := LoadFrom(path)
			if err != nil {
				t.Fatalf("LoadFrom() error = %v", err)
			}
			if again.Athlete.FTP != 321 {
				t.Errorf("Athlete.FTP = %v, want 321", again.Athlete.FTP)
			}
		})
	}
}

func TestAthleteConversion(t *testing.T) {
	a := AthleteConfig{FTP: 240, RestingHR: 48, MaxHR: 0, ThresholdHR: 160}.Athlete()
	if a.FTP != 240 || a.Zones.RestingHR != 48 || a.Zones.MaxHR != 185 || a.Zones.ThresholdHR != 160 {
		t.Errorf("Athlete() = %+v", a)
	}
}
