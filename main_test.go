package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseReportArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		year      string
		hasRange  bool
		email     bool
		expectErr bool
	}{
		{"no arguments", nil, yearAll, false, false, false},
		{"year", []string{"2024"}, "2024", false, false, false},
		{"all keyword", []string{"ALL"}, yearAll, false, false, false},
		{"range", []string{"2025-01-01", "2025-03-31"}, yearAll, true, false, false},
		{"year and range", []string{"2025", "2025-01-01", "2025-03-31"}, "2025", true, false, false},
		{"email flag first", []string{"--email", "2024"}, "2024", false, true, false},
		{"email flag last", []string{"2024", "--email"}, "2024", false, true, false},
		{"invalid year", []string{"24"}, "", false, false, true},
		{"invalid date", []string{"2025-13-01", "2025-03-31"}, "", false, false, true},
		{"reversed range", []string{"2025-03-31", "2025-01-01"}, "", false, false, true},
		{"too many arguments", []string{"2025", "2025-01-01", "2025-03-31", "extra"}, "", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReportArgs(tt.args)
			if tt.expectErr {
				if err == nil {
					t.Errorf("parseReportArgs(%v) expected error", tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseReportArgs(%v) error = %v", tt.args, err)
			}
			if got.filter.Year != tt.year {
				t.Errorf("parseReportArgs(%v) year = %q, want %q", tt.args, got.filter.Year, tt.year)
			}
			if (got.filter.Range != nil) != tt.hasRange {
				t.Errorf("parseReportArgs(%v) range = %v, want range %v", tt.args, got.filter.Range, tt.hasRange)
			}
			if got.email != tt.email {
				t.Errorf("parseReportArgs(%v) email = %v, want %v", tt.args, got.email, tt.email)
			}
		})
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("CONFIG_FILE_PATH", "")

	t.Run("valid config", func(t *testing.T) {
		path := writeConfig(t, `app:
  log_level: warn
  port: 9000
  jwt_secret: a-very-long-signing-secret
database:
  type: sqlite
  dsn: /tmp/thesis-test.db
report:
  layout: condensed
  theme: heritage
  capture_delay: 100ms
  recent_days: 14
  charts: false
calendar:
  holidays:
    - name: Founders Day
      month: 8
      day: 15
smtp:
  host: smtp.example.com
email:
  from: reports@example.com
  to: dean@example.com
`)

		cfg, err := loadConfig(path)
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.App.LogLevel != "warn" {
			t.Errorf("expected log level 'warn', got %q", cfg.App.LogLevel)
		}
		if cfg.App.Port != 9000 {
			t.Errorf("expected port 9000, got %d", cfg.App.Port)
		}
		if cfg.Report.Layout != "condensed" || cfg.Report.Theme != "heritage" {
			t.Errorf("expected condensed/heritage, got %s/%s", cfg.Report.Layout, cfg.Report.Theme)
		}
		if cfg.Report.CaptureDelay != 100*time.Millisecond {
			t.Errorf("expected capture delay 100ms, got %v", cfg.Report.CaptureDelay)
		}
		if cfg.Report.Charts {
			t.Error("expected charts to be disabled")
		}
		if len(cfg.Calendar.Holidays) != 1 || cfg.Calendar.Holidays[0].Day != 15 {
			t.Errorf("expected one holiday on day 15, got %+v", cfg.Calendar.Holidays)
		}
		if cfg.SMTP.Port != 587 {
			t.Errorf("expected default smtp port 587, got %d", cfg.SMTP.Port)
		}
	})

	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := loadConfig("/nonexistent/config.yaml")
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Report.Layout != "standard" || cfg.Report.Theme != "classic" {
			t.Errorf("expected standard/classic defaults, got %s/%s", cfg.Report.Layout, cfg.Report.Theme)
		}
		if cfg.Report.RecentDays != 30 {
			t.Errorf("expected 30 recent days, got %d", cfg.Report.RecentDays)
		}
		if cfg.Report.CaptureDelay != 250*time.Millisecond {
			t.Errorf("expected 250ms capture delay, got %v", cfg.Report.CaptureDelay)
		}
		if cfg.Database.Type != "sqlite" {
			t.Errorf("expected sqlite database, got %q", cfg.Database.Type)
		}
	})

	t.Run("invalid YAML", func(t *testing.T) {
		path := writeConfig(t, "{{invalid yaml")
		if _, err := loadConfig(path); err == nil {
			t.Error("loadConfig() expected error for invalid YAML")
		}
	})

	t.Run("unknown layout", func(t *testing.T) {
		path := writeConfig(t, "report:\n  layout: poster\n")
		_, err := loadConfig(path)
		if err == nil || !strings.Contains(err.Error(), "poster") {
			t.Errorf("loadConfig() error = %v, want unknown layout error", err)
		}
	})

	t.Run("invalid log level", func(t *testing.T) {
		path := writeConfig(t, "app:\n  log_level: verbose\n")
		if _, err := loadConfig(path); err == nil {
			t.Error("loadConfig() expected error for invalid log level")
		}
	})

	t.Run("admin email needs password", func(t *testing.T) {
		path := writeConfig(t, "app:\n  admin_email: admin@example.com\n")
		if _, err := loadConfig(path); err == nil {
			t.Error("loadConfig() expected error for admin email without password")
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeConfig(t, "app:\n  log_level: warn\n")
		t.Setenv("APP__LOG_LEVEL", "debug")
		t.Setenv("REPORT__RECENT_DAYS", "7")

		cfg, err := loadConfig(path)
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.App.LogLevel != "debug" {
			t.Errorf("expected log level 'debug', got %q", cfg.App.LogLevel)
		}
		if cfg.Report.RecentDays != 7 {
			t.Errorf("expected 7 recent days, got %d", cfg.Report.RecentDays)
		}
	})

	t.Run("plain section named variables are ignored", func(t *testing.T) {
		path := writeConfig(t, "email:\n  to: dean@example.com\n")
		t.Setenv("EMAIL", "someone@example.com")
		t.Setenv("REPORT", "weekly")

		cfg, err := loadConfig(path)
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Email.To != "dean@example.com" {
			t.Errorf("expected recipient from file, got %q", cfg.Email.To)
		}
		if cfg.Report.Layout != "standard" {
			t.Errorf("expected default layout, got %q", cfg.Report.Layout)
		}
	})

	t.Run("config path from environment", func(t *testing.T) {
		path := writeConfig(t, "report:\n  output_dir: /tmp/thesis-reports\n")
		t.Setenv("CONFIG_FILE_PATH", path)

		cfg, err := loadConfig("ignored.yaml")
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Report.OutputDir != "/tmp/thesis-reports" {
			t.Errorf("expected output dir from CONFIG_FILE_PATH file, got %q", cfg.Report.OutputDir)
		}
	})
}

func TestReportOptions(t *testing.T) {
	cfg := &Config{Report: ReportConfig{
		Layout: "condensed", Theme: "heritage", HeaderImage: "/srv/header.png",
		CaptureDelay: time.Second, RecentDays: 14,
	}}
	opts, err := cfg.reportOptions()
	if err != nil {
		t.Fatalf("reportOptions() error = %v", err)
	}
	if opts.Layout.Name != "condensed" || opts.Theme.Name != "heritage" {
		t.Errorf("reportOptions() = %s/%s, want condensed/heritage", opts.Layout.Name, opts.Theme.Name)
	}
	if opts.Theme.HeaderImage != "/srv/header.png" {
		t.Errorf("reportOptions() header image = %q, want override", opts.Theme.HeaderImage)
	}
	if opts.RecentDays != 14 || opts.CaptureDelay != time.Second {
		t.Errorf("reportOptions() = %+v, want recent days and capture delay carried over", opts)
	}

	cfg.Report.Theme = "neon"
	if _, err := cfg.reportOptions(); err == nil {
		t.Error("reportOptions() expected error for unknown theme")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	err := run(context.Background(), &Config{}, []string{"publish"})
	if err == nil || !strings.Contains(err.Error(), "usage") {
		t.Errorf("run(publish) error = %v, want usage error", err)
	}
}
