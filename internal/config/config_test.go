package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"ZENDESK_SUBDOMAIN", "ZENDESK_EMAIL", "ZENDESK_API_TOKEN", "ZENDESK_BASE_URL",
	"KPI_START_DATE", "KPI_END_DATE", "KPI_OUTPUT", "KPI_TAG_PREFIX",
	"KPI_METRIC_WORKERS", "KPI_METRIC_ATTEMPTS", "KPI_METRIC_BACKOFF",
	"KPI_LIST_RETRY_AFTER", "KPI_METRIC_RETRY_AFTER", "KPI_LIST_TIMEOUT",
	"KPI_METRIC_TIMEOUT", "KPI_PROGRESS_EVERY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

var now = time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)

func TestLoad(t *testing.T) {
	creds := map[string]string{
		"ZENDESK_SUBDOMAIN": "acme",
		"ZENDESK_EMAIL":     "ops@acme.test",
		"ZENDESK_API_TOKEN": "secret",
	}

	tests := []struct {
		name    string
		env     map[string]string
		over    Overrides
		wantErr error
		check   func(*testing.T, *Config)
	}{
		{
			name: "default values",
			env:  creds,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "https://acme.zendesk.com", cfg.BaseURL)
				assert.Equal(t, "tickets_par_tags_et_delais.xlsx", cfg.OutputPath)
				assert.Equal(t, "com", cfg.TagPrefix)
				assert.Equal(t, 5, cfg.MetricWorkers)
				assert.Equal(t, 3, cfg.MetricAttempts)
				assert.Equal(t, 2*time.Second, cfg.MetricBackoff)
				assert.Equal(t, 10*time.Second, cfg.ListRetryAfter)
				assert.Equal(t, 5*time.Second, cfg.MetricRetryAfter)
				assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), cfg.Start)
				assert.Equal(t, now, cfg.End)
				assert.Empty(t, cfg.Warnings)
			},
		},
		{
			name: "custom values and overrides",
			env: merge(creds, map[string]string{
				"ZENDESK_BASE_URL":   "http://localhost:9999/",
				"KPI_METRIC_WORKERS": "2",
				"KPI_METRIC_BACKOFF": "250ms",
				"KPI_START_DATE":     "01/02/2025",
				"KPI_TAG_PREFIX":     "cat",
			}),
			over: Overrides{End: "31/03/2025", Output: "out.xlsx"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "http://localhost:9999", cfg.BaseURL)
				assert.Equal(t, "out.xlsx", cfg.OutputPath)
				assert.Equal(t, "cat", cfg.TagPrefix)
				assert.Equal(t, 2, cfg.MetricWorkers)
				assert.Equal(t, 250*time.Millisecond, cfg.MetricBackoff)
				assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), cfg.Start)
				assert.Equal(t, time.Date(2025, time.March, 31, 23, 59, 59, 999999999, time.UTC), cfg.End)
			},
		},
		{
			name: "invalid numbers fall back and are clamped",
			env: merge(creds, map[string]string{
				"KPI_METRIC_WORKERS":  "0",
				"KPI_METRIC_ATTEMPTS": "lots",
			}),
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 1, cfg.MetricWorkers)
				assert.Equal(t, 3, cfg.MetricAttempts)
			},
		},
		{
			name:    "missing token",
			env:     map[string]string{"ZENDESK_SUBDOMAIN": "acme", "ZENDESK_EMAIL": "ops@acme.test"},
			wantErr: ErrMissingCredential,
		},
		{
			name:    "nothing set",
			env:     map[string]string{},
			wantErr: ErrMissingCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(tt.over, now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is set, even to "".
	for _, k := range []string{"ZENDESK_SUBDOMAIN", "ZENDESK_EMAIL", "ZENDESK_API_TOKEN"} {
		require.NoError(t, os.Unsetenv(k))
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "kpi.env")
	require.NoError(t, os.WriteFile(path, []byte("ZENDESK_SUBDOMAIN=filecorp\nZENDESK_EMAIL=a@b.c\nZENDESK_API_TOKEN=tok\n"), 0o600))

	cfg, err := Load(Overrides{EnvFile: path}, now)
	require.NoError(t, err)
	assert.Equal(t, "https://filecorp.zendesk.com", cfg.BaseURL)

	_, err = Load(Overrides{EnvFile: filepath.Join(dir, "missing.env")}, now)
	assert.Error(t, err)
}

func TestParseWindow(t *testing.T) {
	jan1 := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		start     string
		end       string
		wantStart time.Time
		wantEnd   time.Time
		warnings  int
	}{
		{"defaults", "", "", jan1, now, 0},
		{"blank input", "  ", " ", jan1, now, 0},
		{"explicit", "10/03/2025", "20/03/2025",
			time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.March, 20, 23, 59, 59, 999999999, time.UTC), 0},
		{"bad start", "2025-03-10", "", jan1, now, 1},
		{"bad end", "", "31/02/2025", jan1, now, 1},
		{"both bad", "x", "y", jan1, now, 2},
		{"reversed", "20/03/2025", "10/03/2025",
			time.Date(2025, time.March, 10, 23, 59, 59, 999999999, time.UTC),
			time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, warnings := ParseWindow(tt.start, tt.end, now)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
			assert.Len(t, warnings, tt.warnings)
		})
	}
}

func merge(maps ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
