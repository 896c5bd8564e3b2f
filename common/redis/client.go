package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/nelsonsanch/Persontx-sub001/common/config"

	"github.com/go-redis/redis/v8"
)

// pingTimeout 启动时连通性检查的超时
const pingTimeout = 3 * time.Second

// NewRedisClient 创建Redis客户端
// 提议缓存与结果发布都是短命令，读写超时保持较短，Redis 故障时尽快失败
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  pingTimeout,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Ping 测试Redis连接
func Ping(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis %s: %w", client.Options().Addr, err)
	}
	return nil
}

// Close 关闭Redis连接
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
