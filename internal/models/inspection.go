package models

import (
	"time"
)

// Verdict 检查项结论
type Verdict string

const (
	VerdictGood          Verdict = "GOOD"
	VerdictFair          Verdict = "FAIR"
	VerdictBad           Verdict = "BAD"
	VerdictNotApplicable Verdict = "NOT_APPLICABLE"
)

// Valid 是否为已知结论
func (v Verdict) Valid() bool {
	switch v {
	case VerdictGood, VerdictFair, VerdictBad, VerdictNotApplicable:
		return true
	}
	return false
}

// Overall 检查总体结论
type Overall string

const (
	OverallApproved Overall = "APPROVED"
	OverallRejected Overall = "REJECTED"
)

// ChecklistItem 检查项
type ChecklistItem struct {
	ItemID   string `json:"item_id"`
	Label    string `json:"label"`
	Critical bool   `json:"critical"`           // 关键项：BAD 即驳回
	Category string `json:"category,omitempty"` // 分组，如 "brakes", "lights"
	Optional bool   `json:"optional,omitempty"` // 非必答项，未作答按 NOT_APPLICABLE 处理
}

// ChecklistDefinition 检查表定义（按资产类型分版本，对应 checklist_definitions 表）
type ChecklistDefinition struct {
	DefinitionID string          `json:"definition_id"`
	TenantID     string          `json:"tenant_id"`
	AssetKind    AssetKind       `json:"asset_kind"`
	Version      int             `json:"version"`
	Items        []ChecklistItem `json:"items"`
}

// InspectionSubmission 一次检查提交
type InspectionSubmission struct {
	SubmissionID       string             `json:"submission_id"`
	AssetID            string             `json:"asset_id"`
	Timestamp          time.Time          `json:"timestamp"`
	InspectorID        string             `json:"inspector_id,omitempty"`
	OperatorSleepHours *float64           `json:"operator_sleep_hours,omitempty"` // 操作员睡眠时长（小时），未上报为 nil
	UsageReading       *float64           `json:"usage_reading,omitempty"`        // 本次上报的使用计数
	UsageConfirmed     bool               `json:"usage_confirmed,omitempty"`      // 操作员已确认异常读数
	Responses          map[string]Verdict `json:"responses"`
}

// FailureReason 驳回原因
type FailureReason struct {
	Kind    string `json:"kind"`             // critical_item, compliance, fatigue
	Subject string `json:"subject"`          // 检查项ID、类别或 "operator"
	Detail  string `json:"detail,omitempty"` // 说明
}

const (
	ReasonCriticalItem = "critical_item"
	ReasonCompliance   = "compliance"
	ReasonFatigue      = "fatigue"
)

// ItemOutcome 单项计分结果（包括由合规状态派生的伪检查项）
type ItemOutcome struct {
	ItemID   string  `json:"item_id"`
	Verdict  Verdict `json:"verdict"`
	Critical bool    `json:"critical"`
	Derived  bool    `json:"derived,omitempty"` // 由合规状态派生
	Points   float64 `json:"points"`
}

// InspectionResult 检查结果（生成后不可变，对应 inspection_results 表）
type InspectionResult struct {
	ResultID        string             `json:"result_id"`
	TenantID        string             `json:"tenant_id"`
	SubmissionID    string             `json:"submission_id"`
	AssetID         string             `json:"asset_id"`
	DefinitionID    string             `json:"definition_id"`
	Score           float64            `json:"score"`      // 人工检查项与合规伪检查项合计得分
	ItemScore       float64            `json:"item_score"` // 仅人工检查项得分，不含合规伪检查项
	CriticalFailure bool               `json:"critical_failure"`
	Overall         Overall            `json:"overall"`
	Reasons         []FailureReason    `json:"reasons"`
	Items           []ItemOutcome      `json:"items"`
	Compliance      []ComplianceStatus `json:"compliance"`
	UsageDecision   *UsageDecision     `json:"usage_decision,omitempty"`
	EvaluatedAt     time.Time          `json:"evaluated_at"`
}

// ItemScore 只按人工检查项计分（排除 Derived 与 NOT_APPLICABLE），全部不适用时为 0
func ItemScore(items []ItemOutcome) float64 {
	var sum float64
	var n int
	for _, item := range items {
		if item.Derived || item.Verdict == VerdictNotApplicable {
			continue
		}
		sum += item.Points
		n++
	}
	return 100 * sum / float64(max(n, 1))
}
