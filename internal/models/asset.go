package models

import (
	"time"
)

// AssetKind 资产类型
type AssetKind string

const (
	AssetKindVehicle         AssetKind = "vehicle"          // 车辆（使用计数 = 里程，km）
	AssetKindMachinery       AssetKind = "machinery"        // 机械（使用计数 = 运行小时）
	AssetKindSafetyEquipment AssetKind = "safety_equipment" // 安全设备
)

// AllAssetKinds 所有资产类型
var AllAssetKinds = []AssetKind{AssetKindVehicle, AssetKindMachinery, AssetKindSafetyEquipment}

// Valid 是否为已知资产类型
func (k AssetKind) Valid() bool {
	for _, known := range AllAssetKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Category 维护/合规类别
type Category string

const (
	CategoryInsurance             Category = "insurance"
	CategoryCertification         Category = "certification"
	CategoryPreventiveMaintenance Category = "preventive_maintenance"
	CategoryOther                 Category = "other"
)

// AllCategories 所有类别
var AllCategories = []Category{
	CategoryInsurance,
	CategoryCertification,
	CategoryPreventiveMaintenance,
	CategoryOther,
}

// Valid 是否为已知类别
func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Asset 受监管资产（对应 assets 表）
// 引擎只读取/更新 UsageCounter，其它字段由资产台账维护
type Asset struct {
	AssetID       string     `json:"asset_id" db:"asset_id"`
	TenantID      string     `json:"tenant_id" db:"tenant_id"`
	AssetName     string     `json:"asset_name" db:"asset_name"`
	Kind          AssetKind  `json:"kind" db:"kind"`
	UsageCounter  float64    `json:"usage_counter" db:"usage_counter"`
	LastUsageDate *time.Time `json:"last_usage_date,omitempty" db:"last_usage_date"`
}

// MaintenanceEvent 维护事件（对应 maintenance_events 表，只追加）
// 只有带目标值（NextDateTarget / NextUsageTarget）的最新事件才有效
type MaintenanceEvent struct {
	EventID         string     `json:"event_id" db:"event_id"`
	TenantID        string     `json:"tenant_id" db:"tenant_id"`
	AssetID         string     `json:"asset_id" db:"asset_id"`
	Category        Category   `json:"category" db:"category"`
	OccurredAt      time.Time  `json:"occurred_at" db:"occurred_at"`
	RecordedAt      time.Time  `json:"recorded_at" db:"recorded_at"`
	UsageAtEvent    float64    `json:"usage_at_event" db:"usage_at_event"`
	NextUsageTarget *float64   `json:"next_usage_target,omitempty" db:"next_usage_target"`
	NextDateTarget  *time.Time `json:"next_date_target,omitempty" db:"next_date_target"`
	Notes           string     `json:"notes,omitempty" db:"notes"`
}

// InventoryFilter 资产台账查询条件
// 文本匹配需要忽略重音，由 evaluator 在内存中完成，不下推到 SQL
type InventoryFilter struct {
	Kind *AssetKind // 资产类型（为空表示全部）
}
