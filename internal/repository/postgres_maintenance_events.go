package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"go.uber.org/zap"
)

// PostgresMaintenanceEventsRepository 维护事件Repository实现
type PostgresMaintenanceEventsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresMaintenanceEventsRepository 创建维护事件Repository
func NewPostgresMaintenanceEventsRepository(db *sql.DB, logger *zap.Logger) *PostgresMaintenanceEventsRepository {
	return &PostgresMaintenanceEventsRepository{db: db, logger: logger}
}

var _ MaintenanceEventsRepository = (*PostgresMaintenanceEventsRepository)(nil)

// ListMaintenanceEvents 查询资产的维护事件
func (r *PostgresMaintenanceEventsRepository) ListMaintenanceEvents(ctx context.Context, tenantID, assetID string, category *models.Category) ([]models.MaintenanceEvent, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	if assetID == "" {
		return nil, fmt.Errorf("asset_id is required")
	}

	query := `
		SELECT
			event_id,
			tenant_id,
			asset_id,
			category,
			occurred_at,
			recorded_at,
			usage_at_event,
			next_usage_target,
			next_date_target,
			notes
		FROM maintenance_events
		WHERE tenant_id = $1 AND asset_id = $2`
	args := []interface{}{tenantID, assetID}
	if category != nil {
		query += ` AND category = $3`
		args = append(args, string(*category))
	}
	query += ` ORDER BY occurred_at DESC, recorded_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list maintenance events: %w", err)
	}
	defer rows.Close()

	events := []models.MaintenanceEvent{}
	for rows.Next() {
		var ev models.MaintenanceEvent
		var usageTarget sql.NullFloat64
		var dateTarget sql.NullTime
		var notes sql.NullString
		if err := rows.Scan(
			&ev.EventID,
			&ev.TenantID,
			&ev.AssetID,
			&ev.Category,
			&ev.OccurredAt,
			&ev.RecordedAt,
			&ev.UsageAtEvent,
			&usageTarget,
			&dateTarget,
			&notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan maintenance event: %w", err)
		}
		if usageTarget.Valid {
			ev.NextUsageTarget = &usageTarget.Float64
		}
		if dateTarget.Valid {
			ev.NextDateTarget = &dateTarget.Time
		}
		if notes.Valid {
			ev.Notes = notes.String
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate maintenance events: %w", err)
	}
	return events, nil
}

// AppendMaintenanceEvent 追加维护事件
func (r *PostgresMaintenanceEventsRepository) AppendMaintenanceEvent(ctx context.Context, tenantID string, event *models.MaintenanceEvent) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if event == nil {
		return fmt.Errorf("event is required")
	}

	var notes *string
	if event.Notes != "" {
		notes = &event.Notes
	}

	query := `
		INSERT INTO maintenance_events (
			event_id,
			tenant_id,
			asset_id,
			category,
			occurred_at,
			recorded_at,
			usage_at_event,
			next_usage_target,
			next_date_target,
			notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.EventID,
		tenantID,
		event.AssetID,
		string(event.Category),
		event.OccurredAt,
		event.RecordedAt,
		event.UsageAtEvent,
		event.NextUsageTarget,
		event.NextDateTarget,
		notes,
	)
	if err != nil {
		return fmt.Errorf("failed to append maintenance event: %w", err)
	}

	r.logger.Debug("Maintenance event appended",
		zap.String("tenant_id", tenantID),
		zap.String("asset_id", event.AssetID),
		zap.String("category", string(event.Category)),
		zap.String("event_id", event.EventID),
	)
	return nil
}
