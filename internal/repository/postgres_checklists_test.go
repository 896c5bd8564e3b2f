package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"
)

func TestGetChecklistDefinition_DecodesItems(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresChecklistRepository(db, zap.NewNop())

	items := `[{"item_id":"brakes","label":"Frenos","critical":true},{"item_id":"horn","label":"Bocina","critical":false,"optional":true}]`
	mock.ExpectQuery(`SELECT .* FROM checklist_definitions .* ORDER BY version DESC`).
		WithArgs("tenant-1", "vehicle").
		WillReturnRows(sqlmock.NewRows([]string{"definition_id", "tenant_id", "asset_kind", "version", "items"}).
			AddRow("def-3", "tenant-1", "vehicle", 3, []byte(items)))

	def, err := repo.GetChecklistDefinition(context.Background(), "tenant-1", models.AssetKindVehicle)
	require.NoError(t, err)
	assert.Equal(t, "def-3", def.DefinitionID)
	assert.Equal(t, 3, def.Version)
	require.Len(t, def.Items, 2)
	assert.True(t, def.Items[0].Critical)
	assert.True(t, def.Items[1].Optional)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetChecklistDefinition_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresChecklistRepository(db, zap.NewNop())

	mock.ExpectQuery(`SELECT .* FROM checklist_definitions`).
		WithArgs("tenant-1", "machinery").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetChecklistDefinition(context.Background(), "tenant-1", models.AssetKindMachinery)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveChecklistDefinition(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresChecklistRepository(db, zap.NewNop())

	mock.ExpectExec(`INSERT INTO checklist_definitions`).
		WithArgs("def-1", "tenant-1", "vehicle", 1, `[{"item_id":"brakes","label":"Frenos","critical":true}]`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveChecklistDefinition(context.Background(), "tenant-1", &models.ChecklistDefinition{
		DefinitionID: "def-1",
		AssetKind:    models.AssetKindVehicle,
		Version:      1,
		Items:        []models.ChecklistItem{{ItemID: "brakes", Label: "Frenos", Critical: true}},
	})
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}
