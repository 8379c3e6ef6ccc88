package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"trainload/internal/analysis"
)

// Config represents the application configuration
type Config struct {
	Strava   StravaConfig   `json:"strava" yaml:"strava"`
	Athlete  AthleteConfig  `json:"athlete" yaml:"athlete"`
	Load     LoadConfig     `json:"load" yaml:"load"`
	Database DatabaseConfig `json:"database" yaml:"database"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Schedule ScheduleConfig `json:"schedule" yaml:"schedule"`
	Display  DisplayConfig  `json:"display" yaml:"display"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id" yaml:"client_id"`
	ClientSecret string `json:"client_secret" yaml:"client_secret"`
}

// AthleteConfig holds athlete-specific settings
type AthleteConfig struct {
	FTP         float64 `json:"ftp" yaml:"ftp"`
	RestingHR   float64 `json:"resting_hr" yaml:"resting_hr"`
	MaxHR       float64 `json:"max_hr" yaml:"max_hr"`
	ThresholdHR float64 `json:"threshold_hr" yaml:"threshold_hr"`
}

// LoadConfig tunes the training load model and the windows reports look at
type LoadConfig struct {
	TSSPerHour       float64 `json:"tss_per_hour" yaml:"tss_per_hour"`
	ElevationUnitM   float64 `json:"elevation_unit_m" yaml:"elevation_unit_m"`
	ElevationUnitTSS float64 `json:"elevation_unit_tss" yaml:"elevation_unit_tss"`
	CTLDays          int     `json:"ctl_days" yaml:"ctl_days"`
	ATLDays          int     `json:"atl_days" yaml:"atl_days"`
	MonotonyWarning  float64 `json:"monotony_warning" yaml:"monotony_warning"`
	HistoryDays      int     `json:"history_days" yaml:"history_days"`
	ZoneWindowDays   int     `json:"zone_window_days" yaml:"zone_window_days"`
	ChartDays        int     `json:"chart_days" yaml:"chart_days"`
}

// DatabaseConfig selects the ride store
type DatabaseConfig struct {
	Driver string `json:"driver" yaml:"driver"` // sqlite or postgres
	DSN    string `json:"dsn" yaml:"dsn"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// CacheConfig holds the optional redis report cache settings
type CacheConfig struct {
	RedisAddr  string `json:"redis_addr" yaml:"redis_addr"`
	TTLSeconds int    `json:"ttl_seconds" yaml:"ttl_seconds"`
}

// ScheduleConfig holds cron expressions for background jobs
type ScheduleConfig struct {
	SnapshotCron string `json:"snapshot_cron" yaml:"snapshot_cron"`
	SyncCron     string `json:"sync_cron,omitempty" yaml:"sync_cron,omitempty"` // empty disables scheduled sync
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit" yaml:"distance_unit"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	params := analysis.DefaultParams()
	return Config{
		Athlete: AthleteConfig{
			RestingHR:   50,
			MaxHR:       185,
			ThresholdHR: 165,
		},
		Load: LoadConfig{
			TSSPerHour:       params.TSSPerHour,
			ElevationUnitM:   params.ElevationUnitM,
			ElevationUnitTSS: params.ElevationUnitTSS,
			CTLDays:          params.CTLTimeConstant,
			ATLDays:          params.ATLTimeConstant,
			MonotonyWarning:  params.MonotonyWarning,
			HistoryDays:      180,
			ZoneWindowDays:   28,
			ChartDays:        42,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Cache: CacheConfig{
			TTLSeconds: 300,
		},
		Schedule: ScheduleConfig{
			SnapshotCron: "5 0 * * *",
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration from ~/.trainload/config.json,
// after loading ~/.trainload/.env and ./.env into the environment
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads a JSON or YAML (by extension) config file and applies
// environment overrides and defaults
func LoadFrom(path string) (*Config, error) {
	loadDotEnv(filepath.Join(filepath.Dir(path), ".env"), ".env")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults fills zero values from DefaultConfig
func (c *Config) applyDefaults() {
	d := DefaultConfig()

	if c.Athlete.RestingHR == 0 {
		c.Athlete.RestingHR = d.Athlete.RestingHR
	}
	if c.Athlete.MaxHR == 0 {
		c.Athlete.MaxHR = d.Athlete.MaxHR
	}
	if c.Athlete.ThresholdHR == 0 {
		c.Athlete.ThresholdHR = d.Athlete.ThresholdHR
	}

	if c.Load.TSSPerHour == 0 {
		c.Load.TSSPerHour = d.Load.TSSPerHour
	}
	if c.Load.ElevationUnitM == 0 {
		c.Load.ElevationUnitM = d.Load.ElevationUnitM
	}
	if c.Load.ElevationUnitTSS == 0 {
		c.Load.ElevationUnitTSS = d.Load.ElevationUnitTSS
	}
	if c.Load.CTLDays == 0 {
		c.Load.CTLDays = d.Load.CTLDays
	}
	if c.Load.ATLDays == 0 {
		c.Load.ATLDays = d.Load.ATLDays
	}
	if c.Load.MonotonyWarning == 0 {
		c.Load.MonotonyWarning = d.Load.MonotonyWarning
	}
	if c.Load.HistoryDays == 0 {
		c.Load.HistoryDays = d.Load.HistoryDays
	}
	if c.Load.ZoneWindowDays == 0 {
		c.Load.ZoneWindowDays = d.Load.ZoneWindowDays
	}
	if c.Load.ChartDays == 0 {
		c.Load.ChartDays = d.Load.ChartDays
	}

	if c.Database.Driver == "" {
		c.Database.Driver = d.Database.Driver
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = d.Cache.TTLSeconds
	}
	if c.Schedule.SnapshotCron == "" {
		c.Schedule.SnapshotCron = d.Schedule.SnapshotCron
	}
	if c.Display.DistanceUnit == "" {
		c.Display.DistanceUnit = d.Display.DistanceUnit
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// Environment overrides, applied after the file is read
const (
	EnvStravaClientID     = "TRAINLOAD_STRAVA_CLIENT_ID"
	EnvStravaClientSecret = "TRAINLOAD_STRAVA_CLIENT_SECRET"
	EnvAthleteFTP         = "TRAINLOAD_ATHLETE_FTP"
	EnvDBDriver           = "TRAINLOAD_DB_DRIVER"
	EnvDBDSN              = "TRAINLOAD_DB_DSN"
	EnvRedisAddr          = "TRAINLOAD_REDIS_ADDR"
	EnvHTTPAddr           = "TRAINLOAD_HTTP_ADDR"
	EnvLogLevel           = "TRAINLOAD_LOG_LEVEL"
)

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		EnvStravaClientID:     &c.Strava.ClientID,
		EnvStravaClientSecret: &c.Strava.ClientSecret,
		EnvDBDriver:           &c.Database.Driver,
		EnvDBDSN:              &c.Database.DSN,
		EnvRedisAddr:          &c.Cache.RedisAddr,
		EnvHTTPAddr:           &c.Server.Addr,
		EnvLogLevel:           &c.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if v := os.Getenv(EnvAthleteFTP); v != "" {
		ftp, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvAthleteFTP, err)
		}
		c.Athlete.FTP = ftp
	}
	return nil
}

// loadDotEnv loads each file that exists; variables already set win
func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// Save writes the configuration to ~/.trainload/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the configuration to path, as YAML when the extension says so
func SaveTo(cfg *Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return CreateExampleAt(path)
}

// CreateExampleAt writes the example config to path unless a file is already there
func CreateExampleAt(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Strava = StravaConfig{
		ClientID:     "YOUR_CLIENT_ID",
		ClientSecret: "YOUR_CLIENT_SECRET",
	}
	example.Athlete.FTP = 250

	return SaveTo(&example, path)
}

// Validate checks settings every command depends on
func (c *Config) Validate() error {
	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}

	// Validate threshold_hr < max_hr when both are set
	if c.Athlete.ThresholdHR > 0 && c.Athlete.MaxHR > 0 && c.Athlete.ThresholdHR >= c.Athlete.MaxHR {
		return fmt.Errorf("athlete.threshold_hr (%v) must be less than athlete.max_hr (%v)", c.Athlete.ThresholdHR, c.Athlete.MaxHR)
	}
	if c.Athlete.FTP < 0 {
		return fmt.Errorf("athlete.ftp must not be negative, got %v", c.Athlete.FTP)
	}

	switch c.Database.Driver {
	case "", DriverSQLite:
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}

	if c.Load.CTLDays < 0 || c.Load.ATLDays < 0 || c.Load.HistoryDays < 0 || c.Load.ZoneWindowDays < 0 || c.Load.ChartDays < 0 {
		return errors.New("load windows must not be negative")
	}
	if c.Load.CTLDays > 0 && c.Load.ATLDays > 0 && c.Load.ATLDays >= c.Load.CTLDays {
		return fmt.Errorf("load.atl_days (%d) must be shorter than load.ctl_days (%d)", c.Load.ATLDays, c.Load.CTLDays)
	}

	return nil
}

// ValidateStrava checks the credentials needed by sync and auth
func (c *Config) ValidateStrava() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}
	return nil
}

// EngineParams converts the load section into model parameters
func (l LoadConfig) EngineParams() analysis.Params {
	return analysis.Params{
		TSSPerHour:       l.TSSPerHour,
		ElevationUnitM:   l.ElevationUnitM,
		ElevationUnitTSS: l.ElevationUnitTSS,
		CTLTimeConstant:  l.CTLDays,
		ATLTimeConstant:  l.ATLDays,
		MonotonyWarning:  l.MonotonyWarning,
	}
}

// Athlete returns the anchors used to derive ride stress
func (a AthleteConfig) Athlete() analysis.Athlete {
	return analysis.Athlete{
		FTP:   a.FTP,
		Zones: analysis.NewHRZones(a.RestingHR, a.MaxHR, a.ThresholdHR),
	}
}

// TTL returns the report cache lifetime
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// DatabaseDSN returns the configured DSN, defaulting to ~/.trainload/data.db for sqlite
func (c *Config) DatabaseDSN() (string, error) {
	if c.Database.DSN != "" {
		return c.Database.DSN, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data.db"), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".trainload"), nil
}
