package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"go.uber.org/zap"
)

// PostgresInspectionsRepository 检查结果Repository实现
// reasons/items/compliance/usage_decision/submission 存为 JSONB
type PostgresInspectionsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresInspectionsRepository 创建检查结果Repository
func NewPostgresInspectionsRepository(db *sql.DB, logger *zap.Logger) *PostgresInspectionsRepository {
	return &PostgresInspectionsRepository{db: db, logger: logger}
}

var _ InspectionsRepository = (*PostgresInspectionsRepository)(nil)

// AppendInspectionResult 追加检查结果
func (r *PostgresInspectionsRepository) AppendInspectionResult(ctx context.Context, tenantID string, result *models.InspectionResult, sub *models.InspectionSubmission) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if result == nil || sub == nil {
		return fmt.Errorf("result and submission are required")
	}

	reasons, err := json.Marshal(result.Reasons)
	if err != nil {
		return fmt.Errorf("failed to encode reasons: %w", err)
	}
	items, err := json.Marshal(result.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}
	compliance, err := json.Marshal(result.Compliance)
	if err != nil {
		return fmt.Errorf("failed to encode compliance: %w", err)
	}
	submission, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to encode submission: %w", err)
	}
	var decision interface{}
	if result.UsageDecision != nil {
		b, err := json.Marshal(result.UsageDecision)
		if err != nil {
			return fmt.Errorf("failed to encode usage decision: %w", err)
		}
		decision = string(b)
	}

	query := `
		INSERT INTO inspection_results (
			result_id,
			tenant_id,
			submission_id,
			asset_id,
			definition_id,
			score,
			critical_failure,
			overall,
			reasons,
			items,
			compliance,
			usage_decision,
			submission,
			evaluated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = r.db.ExecContext(ctx, query,
		result.ResultID,
		tenantID,
		result.SubmissionID,
		result.AssetID,
		result.DefinitionID,
		result.Score,
		result.CriticalFailure,
		string(result.Overall),
		string(reasons),
		string(items),
		string(compliance),
		decision,
		string(submission),
		result.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append inspection result: %w", err)
	}
	return nil
}

// GetInspectionResult 获取检查结果
func (r *PostgresInspectionsRepository) GetInspectionResult(ctx context.Context, tenantID, resultID string) (*models.InspectionResult, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT
			result_id,
			tenant_id,
			submission_id,
			asset_id,
			definition_id,
			score,
			critical_failure,
			overall,
			reasons,
			items,
			compliance,
			usage_decision,
			evaluated_at
		FROM inspection_results
		WHERE tenant_id = $1 AND result_id = $2
	`

	var result models.InspectionResult
	var reasons, items, compliance, decision []byte
	err := r.db.QueryRowContext(ctx, query, tenantID, resultID).Scan(
		&result.ResultID,
		&result.TenantID,
		&result.SubmissionID,
		&result.AssetID,
		&result.DefinitionID,
		&result.Score,
		&result.CriticalFailure,
		&result.Overall,
		&reasons,
		&items,
		&compliance,
		&decision,
		&result.EvaluatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NotFoundError("inspection result", resultID)
		}
		return nil, fmt.Errorf("failed to get inspection result: %w", err)
	}

	// 处理 JSONB 字段
	if err := unmarshalJSONB(reasons, &result.Reasons); err != nil {
		return nil, fmt.Errorf("failed to decode reasons: %w", err)
	}
	if err := unmarshalJSONB(items, &result.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	if err := unmarshalJSONB(compliance, &result.Compliance); err != nil {
		return nil, fmt.Errorf("failed to decode compliance: %w", err)
	}
	// item_score 不单独存列，由 items 重新计算
	result.ItemScore = models.ItemScore(result.Items)
	if len(decision) > 0 {
		var d models.UsageDecision
		if err := json.Unmarshal(decision, &d); err != nil {
			return nil, fmt.Errorf("failed to decode usage decision: %w", err)
		}
		result.UsageDecision = &d
	}
	return &result, nil
}

func unmarshalJSONB(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
