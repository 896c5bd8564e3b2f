package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"go.uber.org/zap"
)

// PostgresChecklistRepository 检查表定义Repository实现（items 存为 JSONB）
type PostgresChecklistRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresChecklistRepository 创建检查表定义Repository
func NewPostgresChecklistRepository(db *sql.DB, logger *zap.Logger) *PostgresChecklistRepository {
	return &PostgresChecklistRepository{db: db, logger: logger}
}

var _ ChecklistRepository = (*PostgresChecklistRepository)(nil)

// GetChecklistDefinition 获取资产类型最高版本的检查表
func (r *PostgresChecklistRepository) GetChecklistDefinition(ctx context.Context, tenantID string, kind models.AssetKind) (*models.ChecklistDefinition, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT definition_id, tenant_id, asset_kind, version, items
		FROM checklist_definitions
		WHERE tenant_id = $1 AND asset_kind = $2
		ORDER BY version DESC
		LIMIT 1
	`

	var def models.ChecklistDefinition
	var items []byte
	err := r.db.QueryRowContext(ctx, query, tenantID, string(kind)).Scan(
		&def.DefinitionID,
		&def.TenantID,
		&def.AssetKind,
		&def.Version,
		&items,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NotFoundError("checklist definition", string(kind))
		}
		return nil, fmt.Errorf("failed to get checklist definition: %w", err)
	}

	if len(items) > 0 {
		if err := json.Unmarshal(items, &def.Items); err != nil {
			return nil, fmt.Errorf("failed to decode checklist items: %w", err)
		}
	}
	return &def, nil
}

// SaveChecklistDefinition 保存新版本检查表
func (r *PostgresChecklistRepository) SaveChecklistDefinition(ctx context.Context, tenantID string, def *models.ChecklistDefinition) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if def == nil {
		return fmt.Errorf("definition is required")
	}

	items, err := json.Marshal(def.Items)
	if err != nil {
		return fmt.Errorf("failed to encode checklist items: %w", err)
	}

	query := `
		INSERT INTO checklist_definitions (definition_id, tenant_id, asset_kind, version, items)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query,
		def.DefinitionID,
		tenantID,
		string(def.AssetKind),
		def.Version,
		string(items),
	); err != nil {
		return fmt.Errorf("failed to save checklist definition: %w", err)
	}

	r.logger.Info("Checklist definition saved",
		zap.String("tenant_id", tenantID),
		zap.String("asset_kind", string(def.AssetKind)),
		zap.Int("version", def.Version),
		zap.Int("items", len(def.Items)),
	)
	return nil
}
