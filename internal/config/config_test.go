package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("IOT_MASTER_KEY", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_ACCESS_TTL", "not-a-duration")

	cfg := Load()

	assert.Equal(t, defaultMasterIoTKey, cfg.IoT.MasterKey)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.AuthAccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.AuthRefreshTTL)
	assert.Equal(t, int64(10*1024*1024), cfg.Storage.MaxUploadSize)
	assert.False(t, cfg.MQTT.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("IOT_MASTER_KEY", "super-secret")
	t.Setenv("IOT_DEVICE_LIST_PUBLIC", "false")
	t.Setenv("MQTT_BROKER_URL", "tcp://broker:1883")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg := Load()

	assert.Equal(t, "super-secret", cfg.IoT.MasterKey)
	assert.False(t, cfg.IoT.DeviceListPublic)
	assert.True(t, cfg.MQTT.Enabled())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestQAConfigHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qa.yml")
	require.NoError(t, os.WriteFile(path, []byte("qa:\n  tempThreshold: 6.5\n  defaultWindowDays: 14\n"), 0o600))

	holder, err := NewQAConfigHolder(Config{QAConfigPath: path})
	require.NoError(t, err)

	got := holder.Get()
	assert.Equal(t, 6.5, got.TempThreshold)
	assert.Equal(t, 14, got.DefaultWindowDays)
	assert.Equal(t, 14*24*time.Hour, got.DefaultWindow())
}

func TestQAConfigHolderRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qa.yml")
	require.NoError(t, os.WriteFile(path, []byte("qa:\n  tempThreshold: 500\n"), 0o600))

	_, err := NewQAConfigHolder(Config{QAConfigPath: path})
	require.Error(t, err)
}

func TestStaticQAConfigHolder(t *testing.T) {
	holder := NewStaticQAConfigHolder(QAConfig{TempThreshold: 4, DefaultWindowDays: 7})
	assert.Equal(t, 4.0, holder.Get().TempThreshold)

	var nilHolder *QAConfigHolder
	assert.Equal(t, DefaultQAConfig(), nilHolder.Get())
}

func TestLoadSchedulerConfig(t *testing.T) {
	t.Setenv("SCHEDULER_ENABLED", "off")
	t.Setenv("SCHEDULER_RUN_INTERVAL", "90s")
	t.Setenv("SCHEDULER_JOBS", "expire_sessions")

	cfg := Load()

	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Scheduler.RunInterval)
	assert.Equal(t, 500, cfg.Scheduler.BatchSize)
	assert.Equal(t, []string{"expire_sessions"}, cfg.Scheduler.EnabledJobs)
}
