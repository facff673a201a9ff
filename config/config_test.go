package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "gorm", cfg.Store.Backend)
	assert.Equal(t, "mdm_devices_data", cfg.Store.Key)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "mdm.db", cfg.Database.DSN)
	assert.Equal(t, 20, cfg.Telemetry.LowBatteryPercent)
	assert.Equal(t, 5, cfg.Telemetry.CriticalBatteryPercent)
	assert.Equal(t, 60*time.Second, cfg.Telemetry.Poll.Interval)
	assert.Equal(t, 30*time.Second, cfg.Simulator.Interval)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.False(t, cfg.Push.Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MDM_REDIS_ADDR", "redis:6379")
	cfg, err := Load(writeConfig(t, "store:\n  backend: redis\n"))
	require.NoError(t, err)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "Unknown backend", body: "store:\n  backend: etcd\n"},
		{name: "Redis without address", body: "store:\n  backend: redis\n"},
		{name: "Unknown driver", body: "database:\n  driver: mysql\n  dsn: x\n"},
		{name: "Polling without URL", body: "telemetry:\n  poll:\n    enabled: true\n"},
		{name: "Thresholds inverted", body: "telemetry:\n  low_battery_percent: 5\n  critical_battery_percent: 10\n"},
		{name: "Same keys", body: "store:\n  key: k\n  subscriptions_key: k\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
