package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DateLayout is the day/month/year format accepted for the extraction window.
const DateLayout = "02/01/2006"

var ErrMissingCredential = errors.New("missing helpdesk credential")

// Config holds everything one extraction run needs.
type Config struct {
	Subdomain string
	Email     string
	APIToken  string
	BaseURL   string

	Start time.Time
	End   time.Time

	OutputPath string
	TagPrefix  string

	MetricWorkers    int
	MetricAttempts   int
	MetricBackoff    time.Duration
	ListRetryAfter   time.Duration
	MetricRetryAfter time.Duration
	ListTimeout      time.Duration
	MetricTimeout    time.Duration
	ProgressEvery    int

	// Warnings collects non-fatal problems found while loading (bad dates).
	Warnings []string
}

// Overrides are values given on the command line; empty fields defer to the environment.
type Overrides struct {
	EnvFile string
	Start   string
	End     string
	Output  string
}

// Load reads the .env file (if any) and the environment. Only missing
// credentials are an error; malformed dates fall back to defaults.
func Load(o Overrides, now time.Time) (*Config, error) {
	if o.EnvFile != "" {
		if err := godotenv.Load(o.EnvFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", o.EnvFile, err)
		}
	} else {
		// Try to load .env file (ignore error if it doesn't exist)
		_ = godotenv.Load()
	}

	cfg := &Config{
		Subdomain:        strings.TrimSpace(os.Getenv("ZENDESK_SUBDOMAIN")),
		Email:            strings.TrimSpace(os.Getenv("ZENDESK_EMAIL")),
		APIToken:         strings.TrimSpace(os.Getenv("ZENDESK_API_TOKEN")),
		BaseURL:          strings.TrimRight(getEnv("ZENDESK_BASE_URL", ""), "/"),
		OutputPath:       firstNonEmpty(o.Output, getEnv("KPI_OUTPUT", "tickets_par_tags_et_delais.xlsx")),
		TagPrefix:        getEnv("KPI_TAG_PREFIX", "com"),
		MetricWorkers:    getEnvInt("KPI_METRIC_WORKERS", 5),
		MetricAttempts:   getEnvInt("KPI_METRIC_ATTEMPTS", 3),
		MetricBackoff:    getEnvDuration("KPI_METRIC_BACKOFF", 2*time.Second),
		ListRetryAfter:   getEnvDuration("KPI_LIST_RETRY_AFTER", 10*time.Second),
		MetricRetryAfter: getEnvDuration("KPI_METRIC_RETRY_AFTER", 5*time.Second),
		ListTimeout:      getEnvDuration("KPI_LIST_TIMEOUT", 30*time.Second),
		MetricTimeout:    getEnvDuration("KPI_METRIC_TIMEOUT", 10*time.Second),
		ProgressEvery:    getEnvInt("KPI_PROGRESS_EVERY", 100),
	}

	var missing []string
	if cfg.Subdomain == "" && cfg.BaseURL == "" {
		missing = append(missing, "ZENDESK_SUBDOMAIN")
	}
	if cfg.Email == "" {
		missing = append(missing, "ZENDESK_EMAIL")
	}
	if cfg.APIToken == "" {
		missing = append(missing, "ZENDESK_API_TOKEN")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredential, strings.Join(missing, ", "))
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("https://%s.zendesk.com", cfg.Subdomain)
	}
	if cfg.MetricWorkers < 1 {
		cfg.MetricWorkers = 1
	}
	if cfg.MetricAttempts < 1 {
		cfg.MetricAttempts = 1
	}

	cfg.Start, cfg.End, cfg.Warnings = ParseWindow(
		firstNonEmpty(o.Start, os.Getenv("KPI_START_DATE")),
		firstNonEmpty(o.End, os.Getenv("KPI_END_DATE")),
		now,
	)
	return cfg, nil
}

// ParseWindow turns two optional DD/MM/YYYY values into the [start, end]
// extraction window. Empty start is January 1 of now's year, empty end is now.
// A malformed value falls back to its default and adds a warning. A parsed
// end date covers its whole day.
func ParseWindow(startRaw, endRaw string, now time.Time) (time.Time, time.Time, []string) {
	now = now.UTC()
	var warnings []string

	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	if s := strings.TrimSpace(startRaw); s != "" {
		if d, err := time.ParseInLocation(DateLayout, s, time.UTC); err == nil {
			start = d
		} else {
			warnings = append(warnings, fmt.Sprintf("invalid start date %q, using %s", s, start.Format(DateLayout)))
		}
	}

	end := now
	if s := strings.TrimSpace(endRaw); s != "" {
		if d, err := time.ParseInLocation(DateLayout, s, time.UTC); err == nil {
			end = d.Add(24*time.Hour - time.Nanosecond)
		} else {
			warnings = append(warnings, fmt.Sprintf("invalid end date %q, using now", s))
		}
	}

	if start.After(end) {
		warnings = append(warnings, fmt.Sprintf("start %s is after end %s, swapping", start.Format(DateLayout), end.Format(DateLayout)))
		start, end = end, start
	}
	return start, end, warnings
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
