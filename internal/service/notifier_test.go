package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type publishedMessage struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeMessagePublisher struct {
	messages []publishedMessage
	err      error
}

func (p *fakeMessagePublisher) Publish(topic string, retained bool, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, publishedMessage{topic: topic, retained: retained, payload: payload})
	return nil
}

func TestMQTTNotifier_Notify(t *testing.T) {
	pub := &fakeMessagePublisher{}
	n := NewMQTTNotifier(pub, "compliance/alerts", zap.NewNop())

	alert := Alert{
		Type:       AlertComplianceExpired,
		TenantID:   "tenant-1",
		AssetID:    "veh-1",
		ResultID:   "res-1",
		Category:   models.CategoryInsurance,
		Remaining:  -3,
		Unit:       "days",
		OccurredAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, n.Notify(context.Background(), alert))

	require.Len(t, pub.messages, 1)
	msg := pub.messages[0]
	assert.Equal(t, "compliance/alerts/tenant-1/veh-1/compliance_expired", msg.topic)
	assert.False(t, msg.retained)

	var decoded Alert
	require.NoError(t, json.Unmarshal(msg.payload, &decoded))
	assert.Equal(t, alert.Type, decoded.Type)
	assert.Equal(t, alert.Category, decoded.Category)
	assert.Equal(t, -3.0, decoded.Remaining)
	assert.True(t, alert.OccurredAt.Equal(decoded.OccurredAt))
}

func TestMQTTNotifier_PublishError(t *testing.T) {
	pub := &fakeMessagePublisher{err: errors.New("mqtt client not connected")}
	n := NewMQTTNotifier(pub, "compliance/alerts", zap.NewNop())

	err := n.Notify(context.Background(), Alert{Type: AlertInspectionRejected, TenantID: "t", AssetID: "a"})
	assert.Error(t, err)
}
