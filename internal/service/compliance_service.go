package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nelsonsanch/Persontx-sub001/internal/cache"
	"github.com/nelsonsanch/Persontx-sub001/internal/evaluator"
	"github.com/nelsonsanch/Persontx-sub001/internal/models"
	"github.com/nelsonsanch/Persontx-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// DefaultProposalTTL 待确认使用计数的默认保留时间
const DefaultProposalTTL = 15 * time.Minute

// ComplianceService 合规与检查服务（整合 Repository、Evaluator、提议缓存与通知）
// 每次调用都从存储重新读取并重新计算，不缓存合规状态
type ComplianceService struct {
	tenantID  string
	repos     repository.Repositories
	evaluator *evaluator.Evaluator
	proposals *cache.ProposalStore
	publisher ResultPublisher
	notifier  Notifier
	clock     clockz.Clock
	logger    *zap.Logger

	proposalTTL time.Duration
}

// Options 可选依赖
type Options struct {
	Publisher   ResultPublisher // 为 nil 时不发布检查结果
	Notifier    Notifier        // 为 nil 时不发送告警
	Clock       clockz.Clock    // 为 nil 时使用系统时钟
	ProposalTTL time.Duration   // <= 0 时使用 DefaultProposalTTL
}

// NewComplianceService 创建合规服务
func NewComplianceService(
	tenantID string,
	repos repository.Repositories,
	eval *evaluator.Evaluator,
	proposals *cache.ProposalStore,
	opts Options,
	logger *zap.Logger,
) *ComplianceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clockz.RealClock
	}
	if opts.ProposalTTL <= 0 {
		opts.ProposalTTL = DefaultProposalTTL
	}
	return &ComplianceService{
		tenantID:    tenantID,
		repos:       repos,
		evaluator:   eval,
		proposals:   proposals,
		publisher:   opts.Publisher,
		notifier:    opts.Notifier,
		clock:       opts.Clock,
		logger:      logger,
		proposalTTL: opts.ProposalTTL,
	}
}

// TenantID 服务所属租户
func (s *ComplianceService) TenantID() string {
	return s.tenantID
}

// Thresholds 当前生效的阈值表
func (s *ComplianceService) Thresholds() *evaluator.Thresholds {
	return s.evaluator.Thresholds()
}

// DeriveComplianceStatus 计算资产某类别的合规状态
func (s *ComplianceService) DeriveComplianceStatus(ctx context.Context, assetID string, category models.Category) (models.ComplianceStatus, error) {
	if !category.Valid() {
		return models.ComplianceStatus{}, models.NewValidationError("category", fmt.Sprintf("unknown category %q", category))
	}
	asset, err := s.repos.Assets.GetAsset(ctx, s.tenantID, assetID)
	if err != nil {
		return models.ComplianceStatus{}, err
	}
	events, err := s.repos.Events.ListMaintenanceEvents(ctx, s.tenantID, assetID, &category)
	if err != nil {
		return models.ComplianceStatus{}, err
	}
	return s.evaluator.DeriveCompliance(*asset, category, events, s.clock.Now())
}

// DeriveAssetCompliance 计算资产全部已配置类别的合规状态
func (s *ComplianceService) DeriveAssetCompliance(ctx context.Context, assetID string) ([]models.ComplianceStatus, error) {
	asset, err := s.repos.Assets.GetAsset(ctx, s.tenantID, assetID)
	if err != nil {
		return nil, err
	}
	history, err := s.loadHistory(ctx, asset.AssetID)
	if err != nil {
		return nil, err
	}
	return s.evaluator.DeriveAll(*asset, history, s.clock.Now())
}

// ProjectSchedule 资产台账的合规排期
func (s *ComplianceService) ProjectSchedule(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error) {
	if filter.Kind != nil && !filter.Kind.Valid() {
		return nil, models.NewValidationError("kind", fmt.Sprintf("unknown asset kind %q", *filter.Kind))
	}
	if filter.Category != nil && !filter.Category.Valid() {
		return nil, models.NewValidationError("category", fmt.Sprintf("unknown category %q", *filter.Category))
	}

	assets, err := s.repos.Assets.ListInventory(ctx, s.tenantID, models.InventoryFilter{Kind: filter.Kind})
	if err != nil {
		return nil, err
	}

	inventory := make([]models.AssetHistory, 0, len(assets))
	for _, asset := range assets {
		history, err := s.loadHistory(ctx, asset.AssetID)
		if err != nil {
			return nil, err
		}
		inventory = append(inventory, models.AssetHistory{Asset: asset, Events: history})
	}
	return s.evaluator.ProjectSchedule(inventory, filter, s.clock.Now())
}

// RecordMaintenanceEvent 追加维护事件（历史事件不可修改）
func (s *ComplianceService) RecordMaintenanceEvent(ctx context.Context, event models.MaintenanceEvent) (*models.MaintenanceEvent, error) {
	if event.AssetID == "" {
		return nil, models.NewValidationError("asset_id", "is required")
	}
	if !event.Category.Valid() {
		return nil, models.NewValidationError("category", fmt.Sprintf("unknown category %q", event.Category))
	}
	if event.OccurredAt.IsZero() {
		return nil, models.NewValidationError("occurred_at", "is required")
	}
	if event.UsageAtEvent < 0 {
		return nil, models.NewValidationError("usage_at_event", "must not be negative")
	}

	asset, err := s.repos.Assets.GetAsset(ctx, s.tenantID, event.AssetID)
	if err != nil {
		return nil, err
	}
	rule, err := s.evaluator.Thresholds().Rule(asset.Kind, event.Category)
	if err != nil {
		return nil, err
	}
	// 目标值必须与类别的度量方式一致
	if rule.Measure == models.MeasureDate && event.NextUsageTarget != nil {
		return nil, models.NewValidationError("next_usage_target", "category is measured by date")
	}
	if rule.Measure == models.MeasureUsage && event.NextDateTarget != nil {
		return nil, models.NewValidationError("next_date_target", "category is measured by usage")
	}

	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	event.TenantID = s.tenantID
	event.RecordedAt = s.clock.Now()

	if err := s.repos.Events.AppendMaintenanceEvent(ctx, s.tenantID, &event); err != nil {
		return nil, err
	}

	s.logger.Info("Maintenance event recorded",
		zap.String("tenant_id", s.tenantID),
		zap.String("asset_id", event.AssetID),
		zap.String("category", string(event.Category)),
		zap.String("event_id", event.EventID),
	)
	return &event, nil
}

// RegisterAsset 登记资产
func (s *ComplianceService) RegisterAsset(ctx context.Context, asset models.Asset) (*models.Asset, error) {
	if asset.AssetName == "" {
		return nil, models.NewValidationError("asset_name", "is required")
	}
	if !asset.Kind.Valid() {
		return nil, models.NewValidationError("kind", fmt.Sprintf("unknown asset kind %q", asset.Kind))
	}
	if asset.UsageCounter < 0 {
		return nil, models.NewValidationError("usage_counter", "must not be negative")
	}
	if len(s.evaluator.Thresholds().Categories(asset.Kind)) == 0 {
		return nil, &models.ConfigurationError{Kind: asset.Kind, Reason: "no compliance categories configured"}
	}
	if asset.AssetID == "" {
		asset.AssetID = uuid.NewString()
	}
	asset.TenantID = s.tenantID

	if err := s.repos.Assets.CreateAsset(ctx, s.tenantID, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// SaveChecklistDefinition 发布新版本检查表（版本号自动递增）
func (s *ComplianceService) SaveChecklistDefinition(ctx context.Context, def models.ChecklistDefinition) (*models.ChecklistDefinition, error) {
	if !def.AssetKind.Valid() {
		return nil, models.NewValidationError("asset_kind", fmt.Sprintf("unknown asset kind %q", def.AssetKind))
	}
	if len(def.Items) == 0 {
		return nil, models.NewValidationError("items", "at least one item is required")
	}
	seen := make(map[string]struct{}, len(def.Items))
	for _, item := range def.Items {
		if item.ItemID == "" {
			return nil, models.NewValidationError("items", "item_id is required")
		}
		if _, dup := seen[item.ItemID]; dup {
			return nil, models.NewValidationError("items."+item.ItemID, "duplicate item_id")
		}
		seen[item.ItemID] = struct{}{}
	}

	def.Version = 1
	current, err := s.repos.Checklists.GetChecklistDefinition(ctx, s.tenantID, def.AssetKind)
	switch {
	case err == nil:
		def.Version = current.Version + 1
	case !isNotFound(err):
		return nil, err
	}
	if def.DefinitionID == "" {
		def.DefinitionID = uuid.NewString()
	}
	def.TenantID = s.tenantID

	if err := s.repos.Checklists.SaveChecklistDefinition(ctx, s.tenantID, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// GetInspectionResult 查询检查结果
func (s *ComplianceService) GetInspectionResult(ctx context.Context, resultID string) (*models.InspectionResult, error) {
	return s.repos.Inspections.GetInspectionResult(ctx, s.tenantID, resultID)
}

// loadHistory 读取资产全部维护事件并按类别分组
func (s *ComplianceService) loadHistory(ctx context.Context, assetID string) (map[models.Category][]models.MaintenanceEvent, error) {
	events, err := s.repos.Events.ListMaintenanceEvents(ctx, s.tenantID, assetID, nil)
	if err != nil {
		return nil, err
	}
	history := make(map[models.Category][]models.MaintenanceEvent)
	for _, ev := range events {
		history[ev.Category] = append(history[ev.Category], ev)
	}
	return history, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
