package service

import (
	"context"
	"fmt"

	commonredis "github.com/nelsonsanch/Persontx-sub001/common/redis"
	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// EventInspectionResult 检查结果在 Stream 中的 event_type
const EventInspectionResult = "inspection.result"

// ResultPublisher 检查结果发布接口
type ResultPublisher interface {
	PublishResult(ctx context.Context, result *models.InspectionResult) error
}

// StreamPublisher 将检查结果写入 Redis Stream，供下游看板/报表消费
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *zap.Logger
}

// NewStreamPublisher 创建 Stream 发布器
func NewStreamPublisher(client *redis.Client, stream string, maxLen int64, logger *zap.Logger) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen, logger: logger}
}

func (p *StreamPublisher) PublishResult(ctx context.Context, result *models.InspectionResult) error {
	id, err := commonredis.PublishJSONToStream(ctx, p.client, p.stream, p.maxLen, EventInspectionResult, result)
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}
	p.logger.Debug("Inspection result published",
		zap.String("stream", p.stream),
		zap.String("message_id", id),
		zap.String("result_id", result.ResultID),
	)
	return nil
}
