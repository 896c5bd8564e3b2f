package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	commoncfg "github.com/nelsonsanch/Persontx-sub001/common/config"

	"github.com/joho/godotenv"
)

// Config asset-compliance 服务配置
type Config struct {
	HTTP struct {
		Addr string
	}
	TenantID string

	DBEnabled      bool
	DBAutoMigrate  bool
	Database       commoncfg.DatabaseConfig
	RedisEnabled   bool
	Redis          commoncfg.RedisConfig
	MQTTEnabled    bool
	MQTT           commoncfg.MQTTConfig
	ThresholdsPath string // 为空时使用内置阈值表

	Compliance struct {
		ProposalTTL  time.Duration // 待确认使用计数的保留时间
		ResultStream string        // 检查结果 Redis Stream
		StreamMaxLen int64
		AlertTopic   string // MQTT 告警主题前缀
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置（当前目录存在 .env 时先载入，已存在的环境变量不会被覆盖）
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8090")
	cfg.TenantID = getEnv("TENANT_ID", "")

	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.DBAutoMigrate = getEnv("DB_AUTO_MIGRATE", "false") == "true"
	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "asset_compliance",
		SSLMode:  "disable",
		MaxConns: 20,
		MaxIdle:  5,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTTEnabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT = commoncfg.MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "asset-compliance",
		QoS:      1,
	}
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.ThresholdsPath = getEnv("THRESHOLDS_PATH", "")

	ttl := parseInt(getEnv("PROPOSAL_TTL_SECONDS", "900"), 900)
	if ttl <= 0 {
		return nil, fmt.Errorf("PROPOSAL_TTL_SECONDS must be positive, got %d", ttl)
	}
	cfg.Compliance.ProposalTTL = time.Duration(ttl) * time.Second
	cfg.Compliance.ResultStream = getEnv("RESULT_STREAM", "compliance:inspection-results")
	cfg.Compliance.StreamMaxLen = int64(parseInt(getEnv("RESULT_STREAM_MAXLEN", "10000"), 10000))
	cfg.Compliance.AlertTopic = getEnv("ALERT_TOPIC", "compliance/alerts")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
