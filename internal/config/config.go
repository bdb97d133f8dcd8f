package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken      string   `envconfig:"BOT_TOKEN" required:"true"`
	ChatID        int64    `envconfig:"CHAT_ID" required:"true"` // group chat for broadcasts and reminders
	CommandPrefix string   `envconfig:"COMMAND_PREFIX" default:"$"`
	Dynasties     []string `envconfig:"DYNASTIES" default:"ADHNN,ADHOC,ADTBB,ADTBS"`
	TrackedUsers  []string `envconfig:"TRACKED_USERS" default:"Samsonite000,chaseisntonfire,Nmatt73"`
	DataPath      string   `envconfig:"DATA_PATH" default:"./data/dynasties.json"`
	Timezone      string   `envconfig:"TIMEZONE" default:"US/Central"`

	// Weekly reminder slot. Weekday uses time.Weekday numbering (Sunday=0),
	// default Saturday 09:00.
	ReminderWeekday int `envconfig:"REMINDER_WEEKDAY" default:"6"`
	ReminderHour    int `envconfig:"REMINDER_HOUR" default:"9"`
	ReminderMinute  int `envconfig:"REMINDER_MINUTE" default:"0"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"` // healthz
}

// Load reads environment variables into Config and validates them.
// Dynasty identifiers are canonicalized to upper case here so every
// downstream lookup works against one casing.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}

	cfg.Dynasties = normalizeList(cfg.Dynasties, true)
	cfg.TrackedUsers = normalizeList(cfg.TrackedUsers, false)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.Dynasties) == 0 {
		return fmt.Errorf("DYNASTIES must list at least one dynasty")
	}
	if len(c.TrackedUsers) == 0 {
		return fmt.Errorf("TRACKED_USERS must list at least one user")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.ReminderWeekday < 0 || c.ReminderWeekday > 6 {
		return fmt.Errorf("REMINDER_WEEKDAY must be 0..6, got %d", c.ReminderWeekday)
	}
	if c.ReminderHour < 0 || c.ReminderHour > 23 {
		return fmt.Errorf("REMINDER_HOUR must be 0..23, got %d", c.ReminderHour)
	}
	if c.ReminderMinute < 0 || c.ReminderMinute > 59 {
		return fmt.Errorf("REMINDER_MINUTE must be 0..59, got %d", c.ReminderMinute)
	}
	return nil
}

func normalizeList(in []string, upper bool) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if upper {
			s = strings.ToUpper(s)
		}
		out = append(out, s)
	}
	return out
}
