package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// AppDirName is the directory under $HOME holding config, database and logs
const AppDirName = ".trailrunner"

// Config represents the application configuration
type Config struct {
	Strava   StravaConfig   `toml:"strava"`
	Athlete  AthleteConfig  `toml:"athlete"`
	Analysis AnalysisConfig `toml:"analysis"`
	Display  DisplayConfig  `toml:"display"`
	Logging  LoggingConfig  `toml:"logging"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// AthleteConfig holds the physiological settings used by the load and
// prediction models.
type AthleteConfig struct {
	MaxHR       float64 `toml:"fc_max"`
	RestingHR   float64 `toml:"fc_rest"`
	Gender      string  `toml:"gender"`       // "M" or "F", selects the TRIMP exponent
	ThresholdHR float64 `toml:"threshold_hr"` // 0 means 85% of fc_max
	RunnerLevel string  `toml:"runner_level"` // beginner, intermediate, advanced
}

// AnalysisConfig tunes segmenting, similarity search, load reporting and fetching.
type AnalysisConfig struct {
	SegmentDistanceKm    float64 `toml:"segment_distance_km"`
	TolerancePct         float64 `toml:"tolerance_pct"`
	CriticalTSBThreshold float64 `toml:"critical_tsb_threshold"`
	RampWindowDays       int     `toml:"ramp_window_days"`
	HistoryDays          int     `toml:"history_days"`
	MaxPages             int     `toml:"max_pages"`
	PerPage              int     `toml:"per_page"`
	CacheTTLMinutes      int     `toml:"cache_ttl_minutes"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `toml:"distance_unit"`
	PaceUnit     string `toml:"pace_unit"`
}

// LoggingConfig controls the rotating log file
type LoggingConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Athlete: AthleteConfig{
			MaxHR:       190,
			RestingHR:   60,
			Gender:      "M",
			RunnerLevel: "intermediate",
		},
		Analysis: AnalysisConfig{
			SegmentDistanceKm:    1,
			TolerancePct:         20,
			CriticalTSBThreshold: -30,
			RampWindowDays:       7,
			HistoryDays:          365,
			MaxPages:             10,
			PerPage:              200,
			CacheTTLMinutes:      60,
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
			PaceUnit:     "min/km",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration from ~/.trailrunner/config.toml
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads a TOML config from path and fills unset values from DefaultConfig.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrNoConfig
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults(DefaultConfig())
	return &cfg, nil
}

func (c *Config) applyDefaults(d Config) {
	if c.Athlete.MaxHR == 0 {
		c.Athlete.MaxHR = d.Athlete.MaxHR
	}
	if c.Athlete.RestingHR == 0 {
		c.Athlete.RestingHR = d.Athlete.RestingHR
	}
	if c.Athlete.Gender == "" {
		c.Athlete.Gender = d.Athlete.Gender
	}
	if c.Athlete.RunnerLevel == "" {
		c.Athlete.RunnerLevel = d.Athlete.RunnerLevel
	}

	a := &c.Analysis
	if a.SegmentDistanceKm == 0 {
		a.SegmentDistanceKm = d.Analysis.SegmentDistanceKm
	}
	if a.TolerancePct == 0 {
		a.TolerancePct = d.Analysis.TolerancePct
	}
	if a.CriticalTSBThreshold == 0 {
		a.CriticalTSBThreshold = d.Analysis.CriticalTSBThreshold
	}
	if a.RampWindowDays == 0 {
		a.RampWindowDays = d.Analysis.RampWindowDays
	}
	if a.HistoryDays == 0 {
		a.HistoryDays = d.Analysis.HistoryDays
	}
	if a.MaxPages == 0 {
		a.MaxPages = d.Analysis.MaxPages
	}
	if a.PerPage == 0 {
		a.PerPage = d.Analysis.PerPage
	}
	if a.CacheTTLMinutes == 0 {
		a.CacheTTLMinutes = d.Analysis.CacheTTLMinutes
	}

	if c.Display.DistanceUnit == "" {
		c.Display.DistanceUnit = d.Display.DistanceUnit
	}
	if c.Display.PaceUnit == "" {
		c.Display.PaceUnit = d.Display.PaceUnit
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

// Save writes the configuration to ~/.trailrunner/config.toml
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile encodes cfg as TOML at path, creating parent directories.
func SaveFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	example := DefaultConfig()
	example.Strava = StravaConfig{
		ClientID:     "YOUR_CLIENT_ID",
		ClientSecret: "YOUR_CLIENT_SECRET",
	}
	return Save(&example)
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}

	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}
	if c.Display.PaceUnit != "" && c.Display.PaceUnit != "min/km" && c.Display.PaceUnit != "min/mi" {
		return fmt.Errorf("display.pace_unit must be \"min/km\" or \"min/mi\", got %q", c.Display.PaceUnit)
	}

	ath := c.Athlete
	if ath.MaxHR > 0 && ath.RestingHR >= ath.MaxHR {
		return fmt.Errorf("athlete.fc_rest (%v) must be less than athlete.fc_max (%v)", ath.RestingHR, ath.MaxHR)
	}
	if ath.ThresholdHR > 0 && ath.MaxHR > 0 && ath.ThresholdHR >= ath.MaxHR {
		return fmt.Errorf("athlete.threshold_hr (%v) must be less than athlete.fc_max (%v)", ath.ThresholdHR, ath.MaxHR)
	}
	if ath.Gender != "" && ath.Gender != "M" && ath.Gender != "F" {
		return fmt.Errorf("athlete.gender must be \"M\" or \"F\", got %q", ath.Gender)
	}
	switch ath.RunnerLevel {
	case "", "beginner", "intermediate", "advanced":
	default:
		return fmt.Errorf("athlete.runner_level must be beginner, intermediate or advanced, got %q", ath.RunnerLevel)
	}

	if c.Analysis.SegmentDistanceKm < 0 {
		return fmt.Errorf("analysis.segment_distance_km must be positive, got %v", c.Analysis.SegmentDistanceKm)
	}
	if c.Analysis.TolerancePct < 0 {
		return fmt.Errorf("analysis.tolerance_pct must not be negative, got %v", c.Analysis.TolerancePct)
	}
	if c.Analysis.RampWindowDays < 0 {
		return fmt.Errorf("analysis.ramp_window_days must not be negative, got %d", c.Analysis.RampWindowDays)
	}

	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, AppDirName), nil
}
