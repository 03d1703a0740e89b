package zendesk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const maxErrorBody = 512

// StatusError is a non-2xx answer other than 429.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("zendesk api error: status=%d body=%s", e.StatusCode, e.Body)
}

// RateLimitError is a 429 answer. RetryAfter is the advisory wait when the
// server sent a usable Retry-After header.
type RateLimitError struct {
	RetryAfter time.Duration
	Advised    bool
}

func (e *RateLimitError) Error() string {
	if e.Advised {
		return fmt.Sprintf("zendesk rate limited: retry after %s", e.RetryAfter)
	}
	return "zendesk rate limited"
}

// Wait returns the advisory duration, or def when the server gave none.
func (e *RateLimitError) Wait(def time.Duration) time.Duration {
	if e.Advised {
		return e.RetryAfter
	}
	return def
}

type Options struct {
	BaseURL  string
	Email    string
	APIToken string
	RunID    string

	ListTimeout    time.Duration
	ListRetryAfter time.Duration

	MetricTimeout    time.Duration
	MetricRetryAfter time.Duration
	MetricBackoff    time.Duration
	MetricAttempts   int

	HTTPClient *http.Client
	Log        *logrus.Entry
}

// Client talks to the two read-only helpdesk endpoints used for KPI
// extraction: the incremental ticket export and the per-ticket metrics.
type Client struct {
	opts Options
	http *http.Client
	log  *logrus.Entry
}

func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.ListTimeout <= 0 {
		opts.ListTimeout = 30 * time.Second
	}
	if opts.MetricTimeout <= 0 {
		opts.MetricTimeout = 10 * time.Second
	}
	if opts.MetricAttempts < 1 {
		opts.MetricAttempts = 1
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{opts: opts, http: hc, log: log.WithField("component", "zendesk")}
}

// getJSON issues one authenticated GET and decodes a 2xx body into target.
// It never retries; callers own the retry policy.
func (c *Client) getJSON(ctx context.Context, url string, timeout time.Duration, target any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.opts.Email+"/token", c.opts.APIToken)
	req.Header.Set("Accept", "application/json")
	if c.opts.RunID != "" {
		req.Header.Set("X-Request-ID", c.opts.RunID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		d, ok := parseRetryAfter(resp.Header.Get("Retry-After"))
		return &RateLimitError{RetryAfter: d, Advised: ok}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if len(body) == 0 {
		return fmt.Errorf("empty body")
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("json decode error: %w", err)
	}
	return nil
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		d := time.Until(at)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
