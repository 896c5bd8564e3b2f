package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"
)

// MemoryStore DB 未启用时使用的内存实现（同时实现全部Repository接口）
// 按 tenantID 隔离数据
type MemoryStore struct {
	mu          sync.RWMutex
	assets      map[string]map[string]models.Asset   // tenantID -> assetID -> Asset
	events      map[string][]models.MaintenanceEvent // tenantID -> events
	checklists  map[string]map[models.AssetKind][]models.ChecklistDefinition
	inspections map[string]map[string]storedInspection // tenantID -> resultID -> result
}

type storedInspection struct {
	result     models.InspectionResult
	submission models.InspectionSubmission
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assets:      map[string]map[string]models.Asset{},
		events:      map[string][]models.MaintenanceEvent{},
		checklists:  map[string]map[models.AssetKind][]models.ChecklistDefinition{},
		inspections: map[string]map[string]storedInspection{},
	}
}

var (
	_ AssetsRepository            = (*MemoryStore)(nil)
	_ MaintenanceEventsRepository = (*MemoryStore)(nil)
	_ ChecklistRepository         = (*MemoryStore)(nil)
	_ InspectionsRepository       = (*MemoryStore)(nil)
)

// Repositories 以同一个内存存储提供全部Repository
func (s *MemoryStore) Repositories() Repositories {
	return Repositories{Assets: s, Events: s, Checklists: s, Inspections: s}
}

func (s *MemoryStore) GetAsset(_ context.Context, tenantID, assetID string) (*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	asset, ok := s.assets[tenantID][assetID]
	if !ok {
		return nil, models.NotFoundError("asset", assetID)
	}
	return &asset, nil
}

func (s *MemoryStore) ListInventory(_ context.Context, tenantID string, filter models.InventoryFilter) ([]models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Asset{}
	for _, asset := range s.assets[tenantID] {
		if filter.Kind != nil && asset.Kind != *filter.Kind {
			continue
		}
		out = append(out, asset)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AssetID < out[j].AssetID
	})
	return out, nil
}

func (s *MemoryStore) CreateAsset(_ context.Context, tenantID string, asset *models.Asset) error {
	if asset == nil {
		return fmt.Errorf("asset is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.assets[tenantID] == nil {
		s.assets[tenantID] = map[string]models.Asset{}
	}
	if _, exists := s.assets[tenantID][asset.AssetID]; exists {
		return fmt.Errorf("asset already exists: %s", asset.AssetID)
	}
	a := *asset
	a.TenantID = tenantID
	s.assets[tenantID][a.AssetID] = a
	return nil
}

func (s *MemoryStore) UpdateAssetUsage(_ context.Context, tenantID, assetID string, counter float64, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[tenantID][assetID]
	if !ok {
		return models.NotFoundError("asset", assetID)
	}
	asset.UsageCounter = counter
	asset.LastUsageDate = &usedAt
	s.assets[tenantID][assetID] = asset
	return nil
}

func (s *MemoryStore) ListMaintenanceEvents(_ context.Context, tenantID, assetID string, category *models.Category) ([]models.MaintenanceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.MaintenanceEvent{}
	for _, ev := range s.events[tenantID] {
		if ev.AssetID != assetID {
			continue
		}
		if category != nil && ev.Category != *category {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	return out, nil
}

func (s *MemoryStore) AppendMaintenanceEvent(_ context.Context, tenantID string, event *models.MaintenanceEvent) error {
	if event == nil {
		return fmt.Errorf("event is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assets[tenantID][event.AssetID]; !ok {
		return models.NotFoundError("asset", event.AssetID)
	}
	ev := *event
	ev.TenantID = tenantID
	s.events[tenantID] = append(s.events[tenantID], ev)
	return nil
}

func (s *MemoryStore) GetChecklistDefinition(_ context.Context, tenantID string, kind models.AssetKind) (*models.ChecklistDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.checklists[tenantID][kind]
	if len(versions) == 0 {
		return nil, models.NotFoundError("checklist definition", string(kind))
	}
	latest := versions[0]
	for _, def := range versions[1:] {
		if def.Version > latest.Version {
			latest = def
		}
	}
	return &latest, nil
}

func (s *MemoryStore) SaveChecklistDefinition(_ context.Context, tenantID string, def *models.ChecklistDefinition) error {
	if def == nil {
		return fmt.Errorf("definition is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checklists[tenantID] == nil {
		s.checklists[tenantID] = map[models.AssetKind][]models.ChecklistDefinition{}
	}
	for _, existing := range s.checklists[tenantID][def.AssetKind] {
		if existing.Version == def.Version {
			return fmt.Errorf("checklist definition version already exists: %s v%d", def.AssetKind, def.Version)
		}
	}
	d := *def
	d.TenantID = tenantID
	d.Items = append([]models.ChecklistItem(nil), def.Items...)
	s.checklists[tenantID][d.AssetKind] = append(s.checklists[tenantID][d.AssetKind], d)
	return nil
}

func (s *MemoryStore) AppendInspectionResult(_ context.Context, tenantID string, result *models.InspectionResult, sub *models.InspectionSubmission) error {
	if result == nil || sub == nil {
		return fmt.Errorf("result and submission are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inspections[tenantID] == nil {
		s.inspections[tenantID] = map[string]storedInspection{}
	}
	s.inspections[tenantID][result.ResultID] = storedInspection{result: *result, submission: *sub}
	return nil
}

func (s *MemoryStore) GetInspectionResult(_ context.Context, tenantID, resultID string) (*models.InspectionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.inspections[tenantID][resultID]
	if !ok {
		return nil, models.NotFoundError("inspection result", resultID)
	}
	result := stored.result
	return &result, nil
}

// InspectionCount 已保存的检查结果数量
func (s *MemoryStore) InspectionCount(tenantID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.inspections[tenantID])
}
