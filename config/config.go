// Package config loads application settings from an optional YAML file and
// PQRSDF_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config represents the application configuration
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	SLA      SLAConfig      `mapstructure:"sla"`
	Database DatabaseConfig `mapstructure:"database"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Server   ServerConfig   `mapstructure:"server"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// SourceConfig locates the case and holiday sheets. URLs take precedence
// over files.
type SourceConfig struct {
	CasesURL     string        `mapstructure:"cases_url"`
	HolidaysURL  string        `mapstructure:"holidays_url"`
	CasesFile    string        `mapstructure:"cases_file"`
	HolidaysFile string        `mapstructure:"holidays_file"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// SLAConfig contains classification settings
type SLAConfig struct {
	NearDueDays int      `mapstructure:"near_due_days"`
	Categories  []string `mapstructure:"categories"`
	Timezone    string   `mapstructure:"timezone"`
}

// DatabaseConfig contains run-history storage settings
type DatabaseConfig struct {
	URL    string `mapstructure:"url"`
	Schema string `mapstructure:"schema"`
}

// NotifyConfig contains digest email settings
type NotifyConfig struct {
	SMTPHost   string   `mapstructure:"smtp_host"`
	SMTPPort   int      `mapstructure:"smtp_port"`
	From       string   `mapstructure:"from"`
	Password   string   `mapstructure:"password"`
	Recipients []string `mapstructure:"recipients"`
	Buckets    []string `mapstructure:"buckets"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// ScheduleConfig contains refresh settings for the serve command
type ScheduleConfig struct {
	Refresh string `mapstructure:"refresh"`
	Notify  string `mapstructure:"notify"`
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig contains Pushgateway settings for batch runs
type MetricsConfig struct {
	PushURL string `mapstructure:"push_url"`
}

// Load reads configuration from configPath (skipped when empty) and the
// environment. Environment keys use the PQRSDF_ prefix with '.' replaced by
// '_', e.g. PQRSDF_SLA_NEAR_DUE_DAYS.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PQRSDF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.cases_url", "")
	v.SetDefault("source.holidays_url", "")
	v.SetDefault("source.cases_file", "")
	v.SetDefault("source.holidays_file", "")
	v.SetDefault("source.timeout", 30*time.Second)

	v.SetDefault("sla.near_due_days", 3)
	v.SetDefault("sla.categories", []string{"petición", "queja", "reclamo", "derecho de petición"})
	v.SetDefault("sla.timezone", "America/Bogota")

	v.SetDefault("database.url", "")
	v.SetDefault("database.schema", "pqrsdf_sla")

	v.SetDefault("notify.smtp_host", "")
	v.SetDefault("notify.smtp_port", 587)
	v.SetDefault("notify.from", "")
	v.SetDefault("notify.password", "")
	v.SetDefault("notify.recipients", []string{})
	v.SetDefault("notify.buckets", []string{"overdue", "near_due"})

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.read_timeout", 30*time.Second)
	// Above the router's 60s request timeout.
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("schedule.refresh", "0 */5 * * * *")
	v.SetDefault("schedule.notify", "0 0 8 * * 1-5")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.push_url", "")
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c.SLA.NearDueDays < 0 {
		return fmt.Errorf("sla.near_due_days must not be negative (got %d)", c.SLA.NearDueDays)
	}
	if _, err := time.LoadLocation(c.SLA.Timezone); err != nil {
		return fmt.Errorf("invalid sla.timezone %q: %w", c.SLA.Timezone, err)
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be positive")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console (got %q)", c.Logging.Format)
	}
	return nil
}

// Location returns the time zone in which "today" is evaluated.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.SLA.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// InitLogger initializes the logger based on configuration
func (c *Config) InitLogger() (*zap.Logger, error) {
	var config zap.Config

	if c.Logging.Format == "console" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging.level %q: %w", c.Logging.Level, err)
	}
	config.Level = level
	config.OutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger, nil
}
