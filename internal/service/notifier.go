package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"go.uber.org/zap"
)

// AlertType 告警类型
type AlertType string

const (
	AlertInspectionRejected AlertType = "inspection_rejected"
	AlertComplianceExpired  AlertType = "compliance_expired"
)

// Alert 合规告警
type Alert struct {
	Type       AlertType              `json:"type"`
	TenantID   string                 `json:"tenant_id"`
	AssetID    string                 `json:"asset_id"`
	ResultID   string                 `json:"result_id,omitempty"`
	Category   models.Category        `json:"category,omitempty"`
	Score      float64                `json:"score,omitempty"`
	Remaining  float64                `json:"remaining,omitempty"`
	Unit       string                 `json:"unit,omitempty"`
	Reasons    []models.FailureReason `json:"reasons,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Notifier 告警发送接口
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// MessagePublisher MQTT 发布接口（common/mqtt.Client 实现）
type MessagePublisher interface {
	Publish(topic string, retained bool, payload []byte) error
}

// MQTTNotifier 通过 MQTT 发送告警
// 主题：{prefix}/{tenant_id}/{asset_id}/{type}
type MQTTNotifier struct {
	publisher   MessagePublisher
	topicPrefix string
	logger      *zap.Logger
}

// NewMQTTNotifier 创建 MQTT 告警发送器
func NewMQTTNotifier(publisher MessagePublisher, topicPrefix string, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{publisher: publisher, topicPrefix: topicPrefix, logger: logger}
}

// AlertTopic 告警主题
func (n *MQTTNotifier) AlertTopic(alert Alert) string {
	return fmt.Sprintf("%s/%s/%s/%s", n.topicPrefix, alert.TenantID, alert.AssetID, alert.Type)
}

func (n *MQTTNotifier) Notify(_ context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}
	topic := n.AlertTopic(alert)
	if err := n.publisher.Publish(topic, false, payload); err != nil {
		return err
	}
	n.logger.Info("Compliance alert sent",
		zap.String("topic", topic),
		zap.String("type", string(alert.Type)),
	)
	return nil
}
