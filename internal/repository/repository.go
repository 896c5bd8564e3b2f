package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"go.uber.org/zap"
)

// AssetsRepository 资产Repository接口
type AssetsRepository interface {
	// 获取单个资产
	GetAsset(ctx context.Context, tenantID, assetID string) (*models.Asset, error)

	// 资产台账（按资产ID排序）
	ListInventory(ctx context.Context, tenantID string, filter models.InventoryFilter) ([]models.Asset, error)

	// 登记资产
	CreateAsset(ctx context.Context, tenantID string, asset *models.Asset) error

	// 更新使用计数（只由 service 在校验通过后调用）
	UpdateAssetUsage(ctx context.Context, tenantID, assetID string, counter float64, usedAt time.Time) error
}

// MaintenanceEventsRepository 维护事件Repository接口
// 事件只追加，不修改、不删除
type MaintenanceEventsRepository interface {
	// 查询资产的维护事件，category 为 nil 时返回全部类别（按 occurred_at 倒序）
	ListMaintenanceEvents(ctx context.Context, tenantID, assetID string, category *models.Category) ([]models.MaintenanceEvent, error)

	// 追加维护事件
	AppendMaintenanceEvent(ctx context.Context, tenantID string, event *models.MaintenanceEvent) error
}

// ChecklistRepository 检查表定义Repository接口
type ChecklistRepository interface {
	// 获取资产类型当前（最高版本）的检查表
	GetChecklistDefinition(ctx context.Context, tenantID string, kind models.AssetKind) (*models.ChecklistDefinition, error)

	// 保存新版本检查表
	SaveChecklistDefinition(ctx context.Context, tenantID string, def *models.ChecklistDefinition) error
}

// InspectionsRepository 检查结果Repository接口
type InspectionsRepository interface {
	// 追加检查结果（连同原始提交一起保存）
	AppendInspectionResult(ctx context.Context, tenantID string, result *models.InspectionResult, sub *models.InspectionSubmission) error

	// 获取检查结果
	GetInspectionResult(ctx context.Context, tenantID, resultID string) (*models.InspectionResult, error)
}

// Repositories 服务依赖的全部Repository
type Repositories struct {
	Assets      AssetsRepository
	Events      MaintenanceEventsRepository
	Checklists  ChecklistRepository
	Inspections InspectionsRepository
}

// NewPostgresRepositories 以同一个连接池创建全部 PostgreSQL Repository
func NewPostgresRepositories(db *sql.DB, logger *zap.Logger) Repositories {
	return Repositories{
		Assets:      NewPostgresAssetsRepository(db, logger),
		Events:      NewPostgresMaintenanceEventsRepository(db, logger),
		Checklists:  NewPostgresChecklistRepository(db, logger),
		Inspections: NewPostgresInspectionsRepository(db, logger),
	}
}
