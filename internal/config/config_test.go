package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.HTTP.Addr)
	assert.Equal(t, "", cfg.TenantID)

	assert.True(t, cfg.DBEnabled)
	assert.False(t, cfg.DBAutoMigrate)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "asset_compliance", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.False(t, cfg.MQTTEnabled)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)

	assert.Equal(t, "", cfg.ThresholdsPath)
	assert.Equal(t, 15*time.Minute, cfg.Compliance.ProposalTTL)
	assert.Equal(t, "compliance:inspection-results", cfg.Compliance.ResultStream)
	assert.Equal(t, int64(10000), cfg.Compliance.StreamMaxLen)
	assert.Equal(t, "compliance/alerts", cfg.Compliance.AlertTopic)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Clearenv()
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("TENANT_ID", "tenant-1")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("MQTT_QOS", "2")
	t.Setenv("THRESHOLDS_PATH", "/etc/compliance/thresholds.yaml")
	t.Setenv("PROPOSAL_TTL_SECONDS", "60")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "tenant-1", cfg.TenantID)
	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.True(t, cfg.MQTTEnabled)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, byte(2), cfg.MQTT.QoS)
	assert.Equal(t, "/etc/compliance/thresholds.yaml", cfg.ThresholdsPath)
	assert.Equal(t, time.Minute, cfg.Compliance.ProposalTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidProposalTTL(t *testing.T) {
	os.Clearenv()
	t.Setenv("PROPOSAL_TTL_SECONDS", "-5")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_DotEnvFile(t *testing.T) {
	os.Clearenv()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TENANT_ID=from-dotenv\nLOG_FORMAT=console\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	// 已设置的环境变量优先于 .env
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.TenantID)
	assert.Equal(t, "json", cfg.Log.Format)
	os.Clearenv()
}

func TestGetEnv(t *testing.T) {
	os.Clearenv()
	assert.Equal(t, "default-value", getEnv("TEST_KEY", "default-value"))

	t.Setenv("TEST_KEY", "test-value")
	assert.Equal(t, "test-value", getEnv("TEST_KEY", "default-value"))
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 42, parseInt("42", 7))
	assert.Equal(t, 7, parseInt("abc", 7))
}
