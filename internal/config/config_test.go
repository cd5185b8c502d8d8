package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8083", cfg.HttpPort)
	assert.Equal(t, "postgres", cfg.Backend)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.Equal(t, 5, cfg.OutboxMaxRetry)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
	assert.Equal(t, 2, cfg.Policy.MinAdvanceHours)
	assert.Equal(t, 30, cfg.Policy.MaxAdvanceDays)
	assert.Equal(t, 8, cfg.Policy.MaxDurationHours)
	assert.Equal(t, 24, cfg.Policy.CancelBeforeHours)
	assert.Equal(t, 60, cfg.Policy.DefaultSlotMinutes)
	assert.Equal(t, 15, cfg.Policy.MinSlotMinutes)
	assert.Equal(t, 480, cfg.Policy.MaxSlotMinutes)
	assert.Equal(t, []string{"agremiado", "estudiante", "invitado", "administrador", "super_admin"}, cfg.Policy.AllowedRoles)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BACKEND", "Memory")
	t.Setenv("MIN_ADVANCE_HOURS", "4")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("ALLOWED_ROLES", " agremiado , administrador ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, 4, cfg.Policy.MinAdvanceHours)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, []string{"agremiado", "administrador"}, cfg.Policy.AllowedRoles)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "club.yaml")
	require.NoError(t, os.WriteFile(path, []byte("MAX_DURATION_HOURS: 4\nHTTP_PORT: \"9000\"\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Policy.MaxDurationHours)
	assert.Equal(t, "9100", cfg.HttpPort, "environment wins over file")
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":     {"BACKEND": "sqlite"},
		"inverted slots":      {"MIN_SLOT_MINUTES": "600"},
		"default out of band": {"DEFAULT_SLOT_MINUTES": "5"},
		"bad timezone":        {"CLUB_TIMEZONE": "Mars/Olympus"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
