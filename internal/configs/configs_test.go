package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var relayEnvKeys = []string{
	"ENVIRONMENT", "PORT", "ALLOWED_ORIGINS", "RELAY_CONNECT_RATE", "RELAY_CONNECT_BURST",
	"RELAY_DEFAULT_ROOM", "RELAY_LEAVE_NOTICES", "RELAY_MAX_CONTENT_BYTES", "RELAY_SEND_QUEUE",
	"RELAY_MESSAGE_RATE", "RELAY_MESSAGE_BURST", "RELAY_API_RATE", "RELAY_API_BURST",
}

// clearEnv blanks every variable LoadConfig reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range relayEnvKeys {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "group", cfg.DefaultRoom)
	assert.False(t, cfg.LeaveNotices)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, `
environment: production
port: 4600
allowed_origins:
  - https://chat.example.com
default_room: lobby
leave_notices: true
message_rate: 5
`)

	t.Setenv("PORT", "4700")
	t.Setenv("RELAY_MESSAGE_BURST", "7")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 4700, cfg.Port, "env overrides file")
	assert.Equal(t, []string{"https://chat.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "lobby", cfg.DefaultRoom)
	assert.True(t, cfg.LeaveNotices)
	assert.Equal(t, 5.0, cfg.MessageRate)
	assert.Equal(t, 7, cfg.MessageBurst)
	assert.Equal(t, 5000, cfg.MaxContentBytes, "unset keys keep defaults")
}

func TestLoadConfigEnvParsing(t *testing.T) {
	clearEnv(t)

	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("RELAY_LEAVE_NOTICES", "true")
	t.Setenv("RELAY_DEFAULT_ROOM", "  team-7 ")
	t.Setenv("RELAY_API_RATE", "0.5")
	t.Setenv("RELAY_API_BURST", "3")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.LeaveNotices)
	assert.Equal(t, "team-7", cfg.DefaultRoom)
	assert.Equal(t, 0.5, cfg.APIRate)
	assert.Equal(t, 3, cfg.APIBurst)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "port not a number", env: map[string]string{"PORT": "abc"}},
		{name: "privileged port", env: map[string]string{"PORT": "80"}},
		{name: "bad bool", env: map[string]string{"RELAY_LEAVE_NOTICES": "maybe"}},
		{name: "bad rate", env: map[string]string{"RELAY_MESSAGE_RATE": "fast"}},
		{name: "negative rate", env: map[string]string{"RELAY_MESSAGE_RATE": "-1"}},
		{name: "negative api rate", env: map[string]string{"RELAY_API_RATE": "-2"}},
		{name: "api rate without burst", env: map[string]string{"RELAY_API_BURST": "0"}},
		{name: "zero queue", env: map[string]string{"RELAY_SEND_QUEUE": "0"}},
		{name: "zero content limit", env: map[string]string{"RELAY_MAX_CONTENT_BYTES": "0"}},
		{name: "production without origins", env: map[string]string{"ENVIRONMENT": "production"}},
		{name: "malformed yaml", file: "port: [1, 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}

			cfg, err := LoadConfig(path)
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}
