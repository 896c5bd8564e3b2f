package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"go.uber.org/zap"
)

// PostgresAssetsRepository 资产Repository实现
type PostgresAssetsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresAssetsRepository 创建资产Repository
func NewPostgresAssetsRepository(db *sql.DB, logger *zap.Logger) *PostgresAssetsRepository {
	return &PostgresAssetsRepository{db: db, logger: logger}
}

// 确保实现了接口
var _ AssetsRepository = (*PostgresAssetsRepository)(nil)

const assetColumns = `asset_id, tenant_id, asset_name, kind, usage_counter, last_usage_date`

func scanAsset(row interface{ Scan(dest ...any) error }) (*models.Asset, error) {
	var asset models.Asset
	var lastUsage sql.NullTime
	if err := row.Scan(
		&asset.AssetID,
		&asset.TenantID,
		&asset.AssetName,
		&asset.Kind,
		&asset.UsageCounter,
		&lastUsage,
	); err != nil {
		return nil, err
	}
	if lastUsage.Valid {
		asset.LastUsageDate = &lastUsage.Time
	}
	return &asset, nil
}

// GetAsset 根据 asset_id 获取资产（需验证 tenant_id）
func (r *PostgresAssetsRepository) GetAsset(ctx context.Context, tenantID, assetID string) (*models.Asset, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	if assetID == "" {
		return nil, fmt.Errorf("asset_id is required")
	}

	query := `SELECT ` + assetColumns + `
		FROM assets
		WHERE tenant_id = $1 AND asset_id = $2`

	asset, err := scanAsset(r.db.QueryRowContext(ctx, query, tenantID, assetID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NotFoundError("asset", assetID)
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return asset, nil
}

// ListInventory 资产台账
func (r *PostgresAssetsRepository) ListInventory(ctx context.Context, tenantID string, filter models.InventoryFilter) ([]models.Asset, error) {
	if tenantID == "" {
		return []models.Asset{}, nil
	}

	query := `SELECT ` + assetColumns + ` FROM assets WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if filter.Kind != nil {
		query += ` AND kind = $2`
		args = append(args, string(*filter.Kind))
	}
	query += ` ORDER BY asset_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := []models.Asset{}
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}
	return assets, nil
}

// CreateAsset 登记资产
func (r *PostgresAssetsRepository) CreateAsset(ctx context.Context, tenantID string, asset *models.Asset) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if asset == nil {
		return fmt.Errorf("asset is required")
	}

	query := `
		INSERT INTO assets (asset_id, tenant_id, asset_name, kind, usage_counter, last_usage_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		asset.AssetID,
		tenantID,
		asset.AssetName,
		string(asset.Kind),
		asset.UsageCounter,
		asset.LastUsageDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

// UpdateAssetUsage 更新使用计数
func (r *PostgresAssetsRepository) UpdateAssetUsage(ctx context.Context, tenantID, assetID string, counter float64, usedAt time.Time) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}

	query := `
		UPDATE assets
		SET usage_counter = $3, last_usage_date = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND asset_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, tenantID, assetID, counter, usedAt)
	if err != nil {
		return fmt.Errorf("failed to update asset usage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return models.NotFoundError("asset", assetID)
	}

	r.logger.Debug("Asset usage updated",
		zap.String("tenant_id", tenantID),
		zap.String("asset_id", assetID),
		zap.Float64("usage_counter", counter),
	)
	return nil
}
