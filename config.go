package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

const configFile = "config.yaml"

type AppConfig struct {
	LogLevel      string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Port          int    `mapstructure:"port" validate:"min=1,max=65535"`
	JWTSecret     string `mapstructure:"jwt_secret" validate:"omitempty,min=16"`
	TokenExpiry   int    `mapstructure:"token_expiry" validate:"min=1"` // minutes
	AdminEmail    string `mapstructure:"admin_email" validate:"omitempty,email"`
	AdminPassword string `mapstructure:"admin_password" validate:"required_with=AdminEmail"`
}

type DatabaseConfig struct {
	Type string `mapstructure:"type" validate:"oneof=sqlite postgres"`
	DSN  string `mapstructure:"dsn" validate:"required"`
}

type ReportConfig struct {
	Layout       string        `mapstructure:"layout" validate:"required"`
	Theme        string        `mapstructure:"theme" validate:"required"`
	HeaderImage  string        `mapstructure:"header_image"`
	OutputDir    string        `mapstructure:"output_dir" validate:"required"`
	CaptureDelay time.Duration `mapstructure:"capture_delay" validate:"min=0"`
	RecentDays   int           `mapstructure:"recent_days" validate:"min=1"`
	Charts       bool          `mapstructure:"charts"` // embed rasterized charts
}

// HolidayConfig is a fixed-date institutional holiday.
type HolidayConfig struct {
	Name  string `mapstructure:"name" validate:"required"`
	Month int    `mapstructure:"month" validate:"min=1,max=12"`
	Day   int    `mapstructure:"day" validate:"min=1,max=31"`
}

type CalendarConfig struct {
	Name     string          `mapstructure:"name"`
	Holidays []HolidayConfig `mapstructure:"holidays" validate:"dive"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type EmailConfig struct {
	From string `mapstructure:"from" validate:"omitempty,email"`
	To   string `mapstructure:"to" validate:"omitempty,email"`
}

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Report   ReportConfig   `mapstructure:"report"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Email    EmailConfig    `mapstructure:"email"`
}

var defaults = map[string]interface{}{
	"app.log_level":    "info",
	"app.port":         8080,
	"app.token_expiry": 60,

	"database.type": "sqlite",
	"database.dsn":  "thesis.db",

	"report.layout":        "standard",
	"report.theme":         "classic",
	"report.output_dir":    "reports",
	"report.capture_delay": "250ms",
	"report.recent_days":   30,
	"report.charts":        true,

	"calendar.name": "Academic calendar",
	"smtp.port":     587,
}

// loadConfig layers defaults, the YAML file at path (CONFIG_FILE_PATH wins
// when set) and APP__LOG_LEVEL style environment variables, then validates
// the result. A missing file is not an error.
func loadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if p := os.Getenv("CONFIG_FILE_PATH"); p != "" {
		path = p
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// only SECTION__KEY variables; EMAIL or APP alone would replace a section
	err := k.Load(env.Provider("", ".", func(s string) string {
		if !strings.Contains(s, "__") {
			return ""
		}
		return strings.Join(strings.Split(strings.ToLower(s), "__"), ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "mapstructure"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, _, err := resolvePresentation(cfg.Report.Layout, cfg.Report.Theme, cfg.Report.HeaderImage); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// reportOptions builds generation options from the report settings.
func (c *Config) reportOptions() (ReportOptions, error) {
	layout, theme, err := resolvePresentation(c.Report.Layout, c.Report.Theme, c.Report.HeaderImage)
	if err != nil {
		return ReportOptions{}, err
	}
	return ReportOptions{
		Layout:       layout,
		Theme:        theme,
		CaptureDelay: c.Report.CaptureDelay,
		RecentDays:   c.Report.RecentDays,
	}, nil
}
