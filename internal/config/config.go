package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	NewRelic     NewRelicConfig
	Log          LogConfig
	Assignment   AssignmentConfig
	Optimizer    OptimizerConfig
	Notification NotificationConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	TriggerRatePerS float64
	TriggerBurst    int
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string
	Format string
}

// AssignmentConfig holds the nightly assignment engine settings. Fields
// tagged for YAML can be overridden by the policy file.
type AssignmentConfig struct {
	Enabled           bool          `yaml:"enabled"`
	Schedule          string        `yaml:"schedule"`
	Timezone          string        `yaml:"timezone"`
	Quorum            int           `yaml:"quorum"`
	CapacityTiers     []int         `yaml:"capacity_tiers"`
	WeekendDays       []string      `yaml:"weekend_days"`
	LeaseTTL          time.Duration `yaml:"-"`
	SummaryTTL        time.Duration `yaml:"-"`
	ReferenceCacheTTL time.Duration `yaml:"-"`
	PolicyFile        string        `yaml:"-"`
}

// OptimizerConfig holds the advisory optimizer endpoint. An empty URL
// disables it and every run uses the rule-based path.
type OptimizerConfig struct {
	URL     string
	Timeout time.Duration
}

// NotificationConfig lists internal recipients.
type NotificationConfig struct {
	AdminRecipients []string
	StaffRecipients []string
}

// Load loads configuration from environment variables, applies the optional
// policy file and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			TriggerRatePerS: getFloatEnv("TRIGGER_RATE_PER_SEC", 0.2),
			TriggerBurst:    getIntEnv("TRIGGER_BURST", 2),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "officexpress"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			Enabled:  getBoolEnv("REDIS_ENABLED", true),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "trip-assignment-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Assignment: AssignmentConfig{
			Enabled:           getBoolEnv("ASSIGNMENT_ENABLED", true),
			Schedule:          getEnv("ASSIGNMENT_SCHEDULE", "0 22 * * *"),
			Timezone:          getEnv("ASSIGNMENT_TIMEZONE", "Asia/Dhaka"),
			Quorum:            getIntEnv("ASSIGNMENT_QUORUM", 3),
			CapacityTiers:     getIntListEnv("ASSIGNMENT_CAPACITY_TIERS", []int{4, 7, 10, 14, 32}),
			WeekendDays:       getListEnv("ASSIGNMENT_WEEKEND_DAYS", []string{"saturday", "sunday"}),
			LeaseTTL:          getDurationEnv("RUN_LEASE_TTL", 30*time.Minute),
			SummaryTTL:        getDurationEnv("RUN_SUMMARY_TTL", 7*24*time.Hour),
			ReferenceCacheTTL: getDurationEnv("REFERENCE_CACHE_TTL", 10*time.Minute),
			PolicyFile:        getEnv("ASSIGNMENT_POLICY_FILE", ""),
		},
		Optimizer: OptimizerConfig{
			URL:     getEnv("OPTIMIZER_URL", ""),
			Timeout: getDurationEnv("OPTIMIZER_TIMEOUT", 30*time.Second),
		},
		Notification: NotificationConfig{
			AdminRecipients: getListEnv("NOTIFY_ADMIN_RECIPIENTS", nil),
			StaffRecipients: getListEnv("NOTIFY_STAFF_RECIPIENTS", nil),
		},
	}

	if cfg.Assignment.PolicyFile != "" {
		if err := cfg.Assignment.applyPolicyFile(cfg.Assignment.PolicyFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyPolicyFile overlays the non-zero fields of a YAML policy file.
func (a *AssignmentConfig) applyPolicyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open policy file: %w", err)
	}
	defer f.Close()

	var overlay AssignmentConfig
	overlay.Enabled = a.Enabled
	if err := yaml.NewDecoder(f).Decode(&overlay); err != nil {
		return fmt.Errorf("decode policy file %s: %w", path, err)
	}

	a.Enabled = overlay.Enabled
	if overlay.Schedule != "" {
		a.Schedule = overlay.Schedule
	}
	if overlay.Timezone != "" {
		a.Timezone = overlay.Timezone
	}
	if overlay.Quorum != 0 {
		a.Quorum = overlay.Quorum
	}
	if len(overlay.CapacityTiers) > 0 {
		a.CapacityTiers = overlay.CapacityTiers
	}
	if len(overlay.WeekendDays) > 0 {
		a.WeekendDays = overlay.WeekendDays
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error

	a := c.Assignment
	if a.Quorum <= 0 {
		errs = append(errs, fmt.Errorf("assignment quorum must be positive, got %d", a.Quorum))
	}
	if len(a.CapacityTiers) == 0 {
		errs = append(errs, errors.New("assignment capacity tiers must not be empty"))
	}
	for i, tier := range a.CapacityTiers {
		if tier <= 0 {
			errs = append(errs, fmt.Errorf("capacity tier %d must be positive", tier))
		}
		if i > 0 && tier <= a.CapacityTiers[i-1] {
			errs = append(errs, fmt.Errorf("capacity tiers must be strictly ascending: %v", a.CapacityTiers))
			break
		}
	}
	if _, err := time.LoadLocation(a.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("unknown assignment timezone %q: %w", a.Timezone, err))
	}
	if _, err := cron.ParseStandard(a.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("invalid assignment schedule %q: %w", a.Schedule, err))
	}
	if _, err := a.Weekend(); err != nil {
		errs = append(errs, err)
	}
	if a.LeaseTTL <= 0 {
		errs = append(errs, errors.New("run lease ttl must be positive"))
	}
	if c.Optimizer.Timeout <= 0 {
		errs = append(errs, errors.New("optimizer timeout must be positive"))
	}

	return errors.Join(errs...)
}

// Location returns the configured time zone. Validate guarantees it loads.
func (a AssignmentConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Weekend parses the configured weekend day names.
func (a AssignmentConfig) Weekend() ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(a.WeekendDays))
	for _, name := range a.WeekendDays {
		day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown weekend day %q", name)
		}
		days = append(days, day)
	}
	return days, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getListEnv splits a comma separated value, dropping blanks.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getIntListEnv parses "4,7,10". A malformed entry falls back to the default.
func getIntListEnv(key string, defaultValue []int) []int {
	parts := getListEnv(key, nil)
	if parts == nil {
		return defaultValue
	}
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}
