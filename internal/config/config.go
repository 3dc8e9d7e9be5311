// Package config loads leadcal's runtime configuration from the environment
// and an optional .env file.
//
// ENVIRONMENT selects between production and development deployments. Keys
// that differ per deployment carry a _PROD or _DEV suffix, for example
// SPREADSHEET_ID_PROD and SPREADSHEET_ID_DEV.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/teemow/leadcal/internal/availability"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// SheetNames are the tab names inside the record spreadsheet.
type SheetNames struct {
	CRM      string
	Meetings string
	Projects string
	Catalog  string
}

// RedisLock configures the optional cross-process booking lock.
type RedisLock struct {
	Addr     string
	Password string
	TTL      time.Duration
}

// Enabled reports whether a Redis address is configured.
func (r RedisLock) Enabled() bool {
	return r.Addr != ""
}

// Config holds all configuration values.
type Config struct {
	Environment string

	SpreadsheetID      string
	ServiceAccountFile string
	CalendarID         string
	TokenFile          string
	ClientSecretFile   string
	Sheets             SheetNames

	TimeZone   string
	Location   *time.Location
	Open       availability.ClockTime
	Close      availability.ClockTime
	MinSlot    time.Duration
	DaysNeeded int
	MaxDays    int

	Port        int
	LogDir      string
	GoogleQPS   float64
	ToolTimeout time.Duration

	BookingLock RedisLock

	HTTPRateLimit float64
	HTTPBurst     int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", EnvProduction)

	v.SetDefault("SERVICE_ACCOUNT_FILE_PROD", "credentials.json")
	v.SetDefault("SERVICE_ACCOUNT_FILE_DEV", "credentials.json")
	v.SetDefault("GCAL_CALENDAR_ID_PROD", "primary")
	v.SetDefault("GCAL_CALENDAR_ID_DEV", "primary")
	v.SetDefault("TOKEN_FILE_PROD", "secrets/token-prod.json")
	v.SetDefault("TOKEN_FILE_DEV", "secrets/token-dev.json")
	v.SetDefault("CLIENT_SECRET_FILE_PROD", "secrets/credentials-prod.json")
	v.SetDefault("CLIENT_SECRET_FILE_DEV", "secrets/credentials-dev.json")

	v.SetDefault("SHEET_NAME_CRM", "Lead")
	v.SetDefault("SHEET_NAME_MEETINGS", "Meetings")
	v.SetDefault("SHEET_NAME_PROJECTS", "Projects")
	v.SetDefault("SHEET_NAME_CATALOG", "Services")

	v.SetDefault("TIMEZONE", "America/Bogota")
	v.SetDefault("BUSINESS_OPEN", "08:00")
	v.SetDefault("BUSINESS_CLOSE", "17:00")
	v.SetDefault("MIN_SLOT_MINUTES", 15)
	v.SetDefault("DAYS_NEEDED", 3)
	v.SetDefault("MAX_DAYS_SCANNED", 14)

	v.SetDefault("MCP_SERVER_PORT", 8000)
	v.SetDefault("LOG_DIR", "")
	v.SetDefault("GOOGLE_API_QPS", 5)
	v.SetDefault("TOOL_TIMEOUT", "30s")

	v.SetDefault("BOOKING_LOCK_REDIS_ADDR", "")
	v.SetDefault("BOOKING_LOCK_REDIS_PASSWORD", "")
	v.SetDefault("BOOKING_LOCK_TTL", "30s")

	v.SetDefault("HTTP_RATE_LIMIT_RPS", 10)
	v.SetDefault("HTTP_RATE_LIMIT_BURST", 20)
}

// Load reads configuration from the environment. When envFile names an
// existing file it is read first; environment variables take precedence.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
			}
		}
	}

	env := strings.ToLower(strings.TrimSpace(v.GetString("ENVIRONMENT")))
	suffix := "_PROD"
	if env == EnvDevelopment {
		suffix = "_DEV"
	} else {
		env = EnvProduction
	}

	cfg := &Config{
		Environment:        env,
		SpreadsheetID:      v.GetString("SPREADSHEET_ID" + suffix),
		ServiceAccountFile: v.GetString("SERVICE_ACCOUNT_FILE" + suffix),
		CalendarID:         v.GetString("GCAL_CALENDAR_ID" + suffix),
		TokenFile:          v.GetString("TOKEN_FILE" + suffix),
		ClientSecretFile:   v.GetString("CLIENT_SECRET_FILE" + suffix),
		Sheets: SheetNames{
			CRM:      v.GetString("SHEET_NAME_CRM"),
			Meetings: v.GetString("SHEET_NAME_MEETINGS"),
			Projects: v.GetString("SHEET_NAME_PROJECTS"),
			Catalog:  v.GetString("SHEET_NAME_CATALOG"),
		},
		TimeZone:    v.GetString("TIMEZONE"),
		MinSlot:     time.Duration(v.GetInt("MIN_SLOT_MINUTES")) * time.Minute,
		DaysNeeded:  v.GetInt("DAYS_NEEDED"),
		MaxDays:     v.GetInt("MAX_DAYS_SCANNED"),
		Port:        v.GetInt("MCP_SERVER_PORT"),
		LogDir:      v.GetString("LOG_DIR"),
		GoogleQPS:   v.GetFloat64("GOOGLE_API_QPS"),
		ToolTimeout: v.GetDuration("TOOL_TIMEOUT"),
		BookingLock: RedisLock{
			Addr:     v.GetString("BOOKING_LOCK_REDIS_ADDR"),
			Password: v.GetString("BOOKING_LOCK_REDIS_PASSWORD"),
			TTL:      v.GetDuration("BOOKING_LOCK_TTL"),
		},
		HTTPRateLimit: v.GetFloat64("HTTP_RATE_LIMIT_RPS"),
		HTTPBurst:     v.GetInt("HTTP_RATE_LIMIT_BURST"),
	}

	var err error
	if cfg.Open, err = availability.ParseClock(v.GetString("BUSINESS_OPEN")); err != nil {
		return nil, fmt.Errorf("BUSINESS_OPEN: %w", err)
	}
	if cfg.Close, err = availability.ParseClock(v.GetString("BUSINESS_CLOSE")); err != nil {
		return nil, fmt.Errorf("BUSINESS_CLOSE: %w", err)
	}
	if cfg.Location, err = time.LoadLocation(cfg.TimeZone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.TimeZone, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.CalendarID == "" {
		return fmt.Errorf("calendar id is required")
	}
	if c.Environment == EnvProduction && c.SpreadsheetID == "" {
		return fmt.Errorf("SPREADSHEET_ID_PROD is required in production")
	}
	if err := c.SchedulerSettings().Validate(); err != nil {
		return fmt.Errorf("invalid availability settings: %w", err)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid MCP_SERVER_PORT %d", c.Port)
	}
	if c.ToolTimeout < 0 {
		return fmt.Errorf("TOOL_TIMEOUT must not be negative")
	}
	return nil
}

// IsDevelopment reports whether the development deployment is selected.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// UseSheets reports whether records are persisted to a spreadsheet. A
// development deployment without a spreadsheet id uses in-memory records.
func (c *Config) UseSheets() bool {
	return c.SpreadsheetID != ""
}

// HTTPAddr returns the listen address for the HTTP transport.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SchedulerSettings returns the availability scan settings.
func (c *Config) SchedulerSettings() availability.Settings {
	return availability.Settings{
		Location:    c.Location,
		Open:        c.Open,
		Close:       c.Close,
		MinSlot:     c.MinSlot,
		DaysNeeded:  c.DaysNeeded,
		MaxDays:     c.MaxDays,
		SkipWeekend: true,
	}
}
