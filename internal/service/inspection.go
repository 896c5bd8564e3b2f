package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nelsonsanch/Persontx-sub001/internal/evaluator"
	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EvaluateChecklist 处理一次检查提交
//
// 流程：校验提交 → 使用计数校验（需要确认且未确认时返回 AnomalyPendingError，不产生结论）
// → 按待提交的计数计算全部类别合规状态 → 计分 → 保存结果 → 提交计数 → 发布结果/告警（失败只记录日志）。
// 结果保存失败时资产计数保持不变。
func (s *ComplianceService) EvaluateChecklist(ctx context.Context, sub models.InspectionSubmission) (*models.InspectionResult, error) {
	if sub.AssetID == "" {
		return nil, models.NewValidationError("asset_id", "is required")
	}
	asset, err := s.repos.Assets.GetAsset(ctx, s.tenantID, sub.AssetID)
	if err != nil {
		return nil, err
	}
	def, err := s.repos.Checklists.GetChecklistDefinition(ctx, s.tenantID, asset.Kind)
	if err != nil {
		return nil, err
	}
	if err := evaluator.ValidateSubmission(sub, *def); err != nil {
		return nil, err
	}
	if sub.SubmissionID == "" {
		sub.SubmissionID = uuid.NewString()
	}

	decision, err := s.guardUsage(ctx, asset, sub)
	if err != nil {
		return nil, err
	}

	// 合规状态按提交后的计数计算，资产本身等结果保存后再更新
	working := *asset
	if decision != nil {
		if counter, changed := evaluator.CommittedCounter(asset.UsageCounter, decision.Reading); changed {
			working.UsageCounter = counter
			working.LastUsageDate = &sub.Timestamp
		}
	}

	history, err := s.loadHistory(ctx, asset.AssetID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	statuses, err := s.evaluator.DeriveAll(working, history, now)
	if err != nil {
		return nil, err
	}

	result, err := s.evaluator.EvaluateChecklist(sub, *def, statuses)
	if err != nil {
		return nil, err
	}
	result.ResultID = uuid.NewString()
	result.TenantID = s.tenantID
	result.EvaluatedAt = now
	result.UsageDecision = decision

	if err := s.repos.Inspections.AppendInspectionResult(ctx, s.tenantID, &result, &sub); err != nil {
		return nil, err
	}
	if decision != nil {
		if err := s.applyUsage(ctx, asset, *decision, sub.Timestamp); err != nil {
			return nil, fmt.Errorf("inspection %s saved but usage counter not updated: %w", result.ResultID, err)
		}
	}

	s.logger.Info("Inspection evaluated",
		zap.String("tenant_id", s.tenantID),
		zap.String("asset_id", asset.AssetID),
		zap.String("result_id", result.ResultID),
		zap.Float64("score", result.Score),
		zap.String("overall", string(result.Overall)),
	)

	s.announce(ctx, &result)
	return &result, nil
}

// guardUsage 校验提交携带的使用计数，不修改资产
//
// 未携带读数时：计数类资产返回 ValidationError，其它资产跳过。
// 需要确认的读数只有在已存在一致的待确认提议时，usage_confirmed 才生效；
// 否则保存提议并返回 AnomalyPendingError。
func (s *ComplianceService) guardUsage(ctx context.Context, asset *models.Asset, sub models.InspectionSubmission) (*models.UsageDecision, error) {
	tracks := s.evaluator.Thresholds().TracksUsage(asset.Kind)
	if sub.UsageReading == nil {
		if tracks {
			return nil, models.NewValidationError("usage_reading", "is required for usage-tracked assets")
		}
		return nil, nil
	}
	if !tracks {
		return nil, models.NewValidationError("usage_reading", "asset kind does not track usage")
	}

	decision, err := s.evaluator.ProposeUsage(asset.Kind, asset.UsageCounter, *sub.UsageReading)
	if err != nil {
		return nil, err
	}
	if !decision.NeedsConfirmation() {
		return &decision, nil
	}

	if sub.UsageConfirmed {
		pending, err := s.proposals.Get(ctx, s.tenantID, asset.AssetID)
		switch {
		case err == nil:
			if pending.Reading != decision.Reading {
				return nil, models.NewValidationError("usage_reading",
					fmt.Sprintf("does not match pending proposal (%g)", pending.Reading))
			}
			return &decision, nil
		case !isNoPendingProposal(err):
			return nil, err
		}
		s.logger.Warn("Usage confirmation without pending proposal",
			zap.String("asset_id", asset.AssetID),
			zap.Float64("reading", decision.Reading),
		)
	}

	if err := s.holdProposal(ctx, asset, decision); err != nil {
		return nil, err
	}
	return nil, &models.AnomalyPendingError{AssetID: asset.AssetID, Decision: decision}
}

// applyUsage 结果保存后提交计数，并清理已消耗的待确认提议
func (s *ComplianceService) applyUsage(ctx context.Context, asset *models.Asset, decision models.UsageDecision, usedAt time.Time) error {
	if err := s.commitUsage(ctx, asset, decision.Reading, usedAt); err != nil {
		return err
	}
	if !decision.NeedsConfirmation() {
		return nil
	}
	s.logger.Info("Usage anomaly confirmed on submission",
		zap.String("asset_id", asset.AssetID),
		zap.String("reason", string(decision.Reason)),
		zap.Float64("delta", decision.Delta),
	)
	if err := s.proposals.Delete(ctx, s.tenantID, asset.AssetID); err != nil && !isNoPendingProposal(err) {
		s.logger.Warn("Failed to discard usage proposal", zap.String("asset_id", asset.AssetID), zap.Error(err))
	}
	return nil
}

// announce 发布检查结果；REJECTED 与 EXPIRED 合规状态发送告警。失败只记录日志
func (s *ComplianceService) announce(ctx context.Context, result *models.InspectionResult) {
	if s.publisher != nil {
		if err := s.publisher.PublishResult(ctx, result); err != nil {
			s.logger.Warn("Failed to publish inspection result",
				zap.String("result_id", result.ResultID),
				zap.Error(err),
			)
		}
	}
	if s.notifier == nil {
		return
	}

	if result.Overall == models.OverallRejected {
		s.notify(ctx, Alert{
			Type:       AlertInspectionRejected,
			TenantID:   s.tenantID,
			AssetID:    result.AssetID,
			ResultID:   result.ResultID,
			Score:      result.Score,
			Reasons:    result.Reasons,
			OccurredAt: result.EvaluatedAt,
		})
	}
	for _, status := range result.Compliance {
		if status.State != models.ComplianceExpired {
			continue
		}
		s.notify(ctx, Alert{
			Type:       AlertComplianceExpired,
			TenantID:   s.tenantID,
			AssetID:    result.AssetID,
			ResultID:   result.ResultID,
			Category:   status.Category,
			Remaining:  status.Remaining,
			Unit:       status.Unit,
			OccurredAt: result.EvaluatedAt,
		})
	}
}

func (s *ComplianceService) notify(ctx context.Context, alert Alert) {
	if err := s.notifier.Notify(ctx, alert); err != nil {
		s.logger.Warn("Failed to send compliance alert",
			zap.String("type", string(alert.Type)),
			zap.String("asset_id", alert.AssetID),
			zap.Error(err),
		)
	}
}
