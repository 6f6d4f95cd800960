package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	Reset()

	os.Setenv("SIMAL_API_URL", "http://simal.test:9090")
	os.Setenv("SIMAL_USER_ID", "planner-3")
	os.Setenv("FLOORBOARD_POLL_INTERVAL", "15s")
	defer func() {
		os.Unsetenv("SIMAL_API_URL")
		os.Unsetenv("SIMAL_USER_ID")
		os.Unsetenv("FLOORBOARD_POLL_INTERVAL")
		Reset()
	}()

	env := Get()

	assert.Equal(t, "http://simal.test:9090", env.APIURL)
	assert.Equal(t, "planner-3", env.OperatorID)
	assert.Equal(t, 15*time.Second, env.PollInterval)
}

func TestGetDefaults(t *testing.T) {
	Reset()
	os.Unsetenv("SIMAL_API_URL")
	os.Unsetenv("FLOORBOARD_POLL_INTERVAL")
	os.Unsetenv("FLOORBOARD_LOG_LEVEL")
	defer Reset()

	env := Get()

	assert.Equal(t, "http://localhost:8080", env.APIURL)
	assert.Equal(t, DefaultPollInterval, env.PollInterval)
	assert.Equal(t, "info", env.LogLevel)
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", DefaultPollInterval},
		{"15s", 15 * time.Second},
		{"2m", 2 * time.Minute},
		{"45", 45 * time.Second},
		{"-5s", DefaultPollInterval},
		{"soon", DefaultPollInterval},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseInterval(tt.in), "parseInterval(%q)", tt.in)
	}
}

func TestGetSingleton(t *testing.T) {
	Reset()
	defer Reset()

	assert.Same(t, Get(), Get())
}

func TestGetPaths(t *testing.T) {
	Reset()
	os.Setenv("FLOORBOARD_HOME", filepath.Join(t.TempDir(), "fb"))
	defer func() {
		os.Unsetenv("FLOORBOARD_HOME")
		Reset()
	}()

	p := GetPaths()
	assert.Equal(t, Get().Home, p.Home)
	assert.Equal(t, filepath.Join(p.Home, "data"), p.Data)
	assert.Equal(t, filepath.Join(p.Home, "logs"), p.Logs)
}
