package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

type Settings struct {
	AppEnv   string `koanf:"app_env"`
	LogLevel string `koanf:"log_level"`
	Port     string `koanf:"port"`
	DBURL    string `koanf:"db_url"`

	SweepSchedule    string        `koanf:"sweep_schedule"`
	SweepWorkers     int           `koanf:"sweep_workers"`
	RunSweepOnStart  bool          `koanf:"run_sweep_on_start"`
	MaxDailyAttempts int           `koanf:"max_daily_attempts"`
	SendTimeout      time.Duration `koanf:"send_timeout"`
	GraceWindow      time.Duration `koanf:"grace_window"`
	DefaultTimezone  string        `koanf:"default_timezone"` // empty means system local

	TwilioAccountSID     string `koanf:"twilio_account_sid"`
	TwilioAuthToken      string `koanf:"twilio_auth_token"`
	TwilioPhoneNumber    string `koanf:"twilio_phone_number"`
	TwilioWhatsAppNumber string `koanf:"twilio_whatsapp_number"`

	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUsername string `koanf:"smtp_username"`
	SMTPPassword string `koanf:"smtp_password"`
	SMTPFrom     string `koanf:"smtp_from"`

	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerOpenTimeout  time.Duration `koanf:"breaker_open_timeout"`

	CORSOrigins string `koanf:"cors_origins"` // comma separated
}

var defaults = map[string]interface{}{
	"app_env":   "production",
	"log_level": "info",
	"port":      "8080",
	"db_url":    "",

	// Hourly through the day so failed sends get retried before midnight.
	"sweep_schedule":     "0 8-20 * * *",
	"sweep_workers":      4,
	"run_sweep_on_start": true,
	"max_daily_attempts": 3,
	"send_timeout":       "15s",
	"grace_window":       "15m",
	"default_timezone":   "",

	"twilio_account_sid":     "",
	"twilio_auth_token":      "",
	"twilio_phone_number":    "",
	"twilio_whatsapp_number": "",

	"smtp_host":     "smtp.gmail.com",
	"smtp_port":     587,
	"smtp_username": "",
	"smtp_password": "",
	"smtp_from":     "",

	"breaker_failure_ratio": 0.8,
	"breaker_min_requests":  5,
	"breaker_open_timeout":  "5m",

	"cors_origins": "http://localhost:3000,http://localhost:5173",
}

// Load reads settings from built-in defaults overlaid with environment
// variables. Only keys with a default are taken from the environment
// (DB_URL -> db_url).
func Load() (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if _, known := defaults[key]; !known {
			return ""
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	if _, err := cron.ParseStandard(s.SweepSchedule); err != nil {
		return fmt.Errorf("SWEEP_SCHEDULE %q: %w", s.SweepSchedule, err)
	}
	if s.SweepWorkers < 1 {
		return fmt.Errorf("SWEEP_WORKERS must be at least 1, got %d", s.SweepWorkers)
	}
	if s.MaxDailyAttempts < 1 {
		return fmt.Errorf("MAX_DAILY_ATTEMPTS must be at least 1, got %d", s.MaxDailyAttempts)
	}
	if s.SendTimeout <= 0 {
		return fmt.Errorf("SEND_TIMEOUT must be positive, got %s", s.SendTimeout)
	}
	if s.GraceWindow < 0 {
		return fmt.Errorf("GRACE_WINDOW must not be negative, got %s", s.GraceWindow)
	}
	if _, err := s.Location(); err != nil {
		return err
	}
	return nil
}

func (s *Settings) Location() (*time.Location, error) {
	if s.DefaultTimezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_TIMEZONE %q: %w", s.DefaultTimezone, err)
	}
	return loc, nil
}

func (s *Settings) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(s.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (s *Settings) TwilioEnabled() bool {
	return s.TwilioAccountSID != "" && s.TwilioAuthToken != ""
}

func (s *Settings) SMTPEnabled() bool {
	return s.SMTPHost != "" && s.SMTPFrom != ""
}
