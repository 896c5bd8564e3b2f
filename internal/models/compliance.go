package models

import (
	"time"
)

// Measure 类别的度量方式
type Measure string

const (
	MeasureDate  Measure = "date"  // 证件类：按到期日期（天）
	MeasureUsage Measure = "usage" // 机械类：按使用计数（km / 小时）
)

// ComplianceState 合规状态（信号灯）
type ComplianceState string

const (
	ComplianceOK      ComplianceState = "OK"
	ComplianceWarning ComplianceState = "WARNING"
	ComplianceExpired ComplianceState = "EXPIRED"
)

// ComplianceStatus 某资产某类别的合规状态
type ComplianceStatus struct {
	AssetID       string          `json:"asset_id"`
	Category      Category        `json:"category"`
	Measure       Measure         `json:"measure"`
	State         ComplianceState `json:"state"`
	Remaining     float64         `json:"remaining"` // 剩余天数或剩余使用量，可为负
	Unit          string          `json:"unit"`      // days / km / hours
	Critical      bool            `json:"critical"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	DueUsage      *float64        `json:"due_usage,omitempty"`
	SourceEventID string          `json:"source_event_id,omitempty"` // 生效的维护事件，为空表示无合规证明
}

// UsageOutcome 使用计数校验结果
type UsageOutcome string

const (
	UsageAccepted          UsageOutcome = "ACCEPTED"
	UsageNeedsConfirmation UsageOutcome = "NEEDS_CONFIRMATION"
)

// AnomalyReason 需要确认的原因
type AnomalyReason string

const (
	AnomalyRegression      AnomalyReason = "REGRESSION"
	AnomalyImplausibleJump AnomalyReason = "IMPLAUSIBLE_JUMP"
)

// UsageDecision 使用计数校验决定
type UsageDecision struct {
	Outcome   UsageOutcome  `json:"outcome"`
	Reason    AnomalyReason `json:"reason,omitempty"`
	Delta     float64       `json:"delta"` // reading - lastKnown
	LastKnown float64       `json:"last_known"`
	Reading   float64       `json:"reading"`
	Threshold float64       `json:"threshold"`
}

// NeedsConfirmation 是否需要人工确认
func (d UsageDecision) NeedsConfirmation() bool {
	return d.Outcome == UsageNeedsConfirmation
}
