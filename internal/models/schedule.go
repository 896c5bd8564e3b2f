package models

import (
	"time"
)

// ScheduleStatus 计划状态
type ScheduleStatus string

const (
	ScheduleNeverInspected ScheduleStatus = "NEVER_INSPECTED"
	ScheduleExpired        ScheduleStatus = "EXPIRED"
	ScheduleDueSoon        ScheduleStatus = "DUE_SOON"
	ScheduleCurrent        ScheduleStatus = "CURRENT"
)

// ScheduleFilter 计划投影过滤条件
// Month/Year 为 0 表示不限；EXPIRED 和 NEVER_INSPECTED 不受时间窗口约束
type ScheduleFilter struct {
	Category *Category  `json:"category,omitempty"`
	Kind     *AssetKind `json:"kind,omitempty"`
	Query    string     `json:"query,omitempty"`
	Month    int        `json:"month,omitempty"` // 1-12
	Year     int        `json:"year,omitempty"`
}

// AssetHistory 资产及其按类别分组的维护事件
type AssetHistory struct {
	Asset  Asset
	Events map[Category][]MaintenanceEvent
}

// ScheduleEntry 计划条目（资产 × 类别）
type ScheduleEntry struct {
	AssetID   string         `json:"asset_id"`
	AssetName string         `json:"asset_name"`
	Kind      AssetKind      `json:"kind"`
	Category  Category       `json:"category"`
	Status    ScheduleStatus `json:"status"`
	Remaining float64        `json:"remaining"`
	Unit      string         `json:"unit"`
	DueDate   *time.Time     `json:"due_date,omitempty"`
	DueUsage  *float64       `json:"due_usage,omitempty"`
}
