package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"roadbook/internal/schedule"
)

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Calendar struct {
		StartHour              int     `yaml:"start_hour"`
		EndHour                int     `yaml:"end_hour"`
		SlotMinutes            int     `yaml:"slot_minutes"`
		DefaultDurationMinutes int     `yaml:"default_duration_minutes"`
		ClickThresholdPx       float64 `yaml:"click_threshold_px"`
	} `yaml:"calendar"`

	Persistence struct {
		DebounceMs      int `yaml:"debounce_ms"`
		MaxWritesPerMin int `yaml:"max_writes_per_minute"`
	} `yaml:"persistence"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/roadbook.db"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// CalendarSettings maps the config section onto the engine's calendar,
// falling back to the stock day view for anything unset.
func (c *Config) CalendarSettings() schedule.Calendar {
	cal := schedule.DefaultCalendar()
	if c.Calendar.StartHour > 0 {
		cal.StartHour = c.Calendar.StartHour
	}
	if c.Calendar.EndHour > 0 {
		cal.EndHour = c.Calendar.EndHour
	}
	if c.Calendar.SlotMinutes > 0 {
		cal.SlotMinutes = c.Calendar.SlotMinutes
	}
	if c.Calendar.DefaultDurationMinutes > 0 {
		cal.DefaultDurationMin = c.Calendar.DefaultDurationMinutes
	}
	if c.Calendar.ClickThresholdPx > 0 {
		cal.ClickThresholdPx = c.Calendar.ClickThresholdPx
	}
	return cal
}

// PersistenceDebounce returns the idle delay before a coalesced snapshot
// write.
func (c *Config) PersistenceDebounce() time.Duration {
	if c.Persistence.DebounceMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Persistence.DebounceMs) * time.Millisecond
}

// PersistenceWriteRate caps snapshot writes per minute.
func (c *Config) PersistenceWriteRate() int {
	if c.Persistence.MaxWritesPerMin <= 0 {
		return 30
	}
	return c.Persistence.MaxWritesPerMin
}

// BackupInterval returns the delay between periodic backups.
func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}
