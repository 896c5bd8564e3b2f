package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

var assetRowColumns = []string{"asset_id", "tenant_id", "asset_name", "kind", "usage_counter", "last_usage_date"}

func TestGetAsset_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresAssetsRepository(db, zap.NewNop())

	lastUsage := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(assetRowColumns).
		AddRow("veh-1", "tenant-1", "Camión Volvo FH", "vehicle", 50000.0, lastUsage)
	mock.ExpectQuery(`SELECT .* FROM assets`).
		WithArgs("tenant-1", "veh-1").
		WillReturnRows(rows)

	asset, err := repo.GetAsset(context.Background(), "tenant-1", "veh-1")
	require.NoError(t, err)
	assert.Equal(t, "veh-1", asset.AssetID)
	assert.Equal(t, models.AssetKindVehicle, asset.Kind)
	assert.Equal(t, 50000.0, asset.UsageCounter)
	require.NotNil(t, asset.LastUsageDate)
	assert.True(t, lastUsage.Equal(*asset.LastUsageDate))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAsset_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresAssetsRepository(db, zap.NewNop())

	mock.ExpectQuery(`SELECT .* FROM assets`).
		WithArgs("tenant-1", "missing").
		WillReturnError(sql.ErrNoRows)

	asset, err := repo.GetAsset(context.Background(), "tenant-1", "missing")
	assert.Nil(t, asset)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.Contains(t, err.Error(), "not found")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAsset_InvalidTenantID(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresAssetsRepository(db, zap.NewNop())

	_, err := repo.GetAsset(context.Background(), "", "veh-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant_id is required")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListInventory_FilterByKind(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresAssetsRepository(db, zap.NewNop())

	rows := sqlmock.NewRows(assetRowColumns).
		AddRow("mq-1", "tenant-1", "Grúa", "machinery", 1200.0, nil).
		AddRow("mq-2", "tenant-1", "Excavadora", "machinery", 300.5, nil)
	mock.ExpectQuery(`SELECT .* FROM assets WHERE tenant_id = \$1 AND kind = \$2 ORDER BY asset_id`).
		WithArgs("tenant-1", "machinery").
		WillReturnRows(rows)

	kind := models.AssetKindMachinery
	assets, err := repo.ListInventory(context.Background(), "tenant-1", models.InventoryFilter{Kind: &kind})
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "mq-2", assets[1].AssetID)
	assert.Nil(t, assets[0].LastUsageDate)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListInventory_EmptyTenant(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresAssetsRepository(db, zap.NewNop())

	assets, err := repo.ListInventory(context.Background(), "", models.InventoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, assets)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAssetUsage(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresAssetsRepository(db, zap.NewNop())
	usedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE assets`).
		WithArgs("tenant-1", "veh-1", 54000.0, usedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateAssetUsage(context.Background(), "tenant-1", "veh-1", 54000, usedAt)
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAssetUsage_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresAssetsRepository(db, zap.NewNop())

	mock.ExpectExec(`UPDATE assets`).
		WithArgs("tenant-1", "ghost", 10.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateAssetUsage(context.Background(), "tenant-1", "ghost", 10, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAsset(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresAssetsRepository(db, zap.NewNop())

	mock.ExpectExec(`INSERT INTO assets`).
		WithArgs("ext-1", "tenant-1", "Extintor", "safety_equipment", 0.0, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateAsset(context.Background(), "tenant-1", &models.Asset{
		AssetID:   "ext-1",
		AssetName: "Extintor",
		Kind:      models.AssetKindSafetyEquipment,
	})
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}
