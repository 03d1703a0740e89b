package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput_JSONCarriesRunAndComponent(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "")

	var buf bytes.Buffer
	log := NewWithOutput(&buf).WithRun("run-123")
	log.Component("fetcher").Info("page fetched")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "run-123", line["run_id"])
	assert.Equal(t, "fetcher", line["component"])
	assert.Equal(t, "page fetched", line["msg"])
	assert.Equal(t, "run-123", log.RunID())
}

func TestWithRun_GeneratesIDWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf).WithRun("")
	assert.NotEmpty(t, log.RunID())
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf)

	assert.Same(t, log.Entry, log.WithError(nil))
	assert.Equal(t, "boom", log.WithError(errors.New("boom")).Data["error"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"":      logrus.InfoLevel,
		"bogus": logrus.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
