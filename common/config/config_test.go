package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "db.internal")
	t.Setenv("TEST_DB_PORT", "6543")
	t.Setenv("TEST_DB_NAME", "assets")
	t.Setenv("TEST_DB_MAX_CONNS", "not-a-number")

	cfg := DatabaseConfig{Host: "localhost", Port: 5432, MaxConns: 20, SSLMode: "disable"}
	cfg.LoadFromEnv("TEST_DB")

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "assets", cfg.Database)
	assert.Equal(t, 20, cfg.MaxConns)
	assert.Equal(t, "host=db.internal port=6543 user= password= dbname=assets sslmode=disable", cfg.GetDSN())
}

func TestRedisConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "redis:6379")
	t.Setenv("TEST_REDIS_DB", "3")

	cfg := RedisConfig{Addr: "localhost:6379"}
	cfg.LoadFromEnv("TEST_REDIS")

	assert.Equal(t, "redis:6379", cfg.Addr)
	assert.Equal(t, 3, cfg.DB)
}

func TestMQTTConfig_LoadFromEnv_QoSRange(t *testing.T) {
	t.Setenv("TEST_MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("TEST_MQTT_QOS", "5")

	cfg := MQTTConfig{QoS: 1}
	cfg.LoadFromEnv("TEST_MQTT")

	assert.Equal(t, "tcp://broker:1883", cfg.Broker)
	assert.Equal(t, byte(1), cfg.QoS)
}
