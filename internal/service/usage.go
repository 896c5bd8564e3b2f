package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nelsonsanch/Persontx-sub001/internal/cache"
	"github.com/nelsonsanch/Persontx-sub001/internal/evaluator"
	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProposeUsageReading 校验新的使用计数
//
// ACCEPTED 时立即提交；NEEDS_CONFIRMATION 时保存为待确认提议（TTL 到期即丢弃），
// 需要再调用 ConfirmUsageReading 才会提交。
func (s *ComplianceService) ProposeUsageReading(ctx context.Context, assetID string, reading float64) (models.UsageDecision, error) {
	asset, err := s.repos.Assets.GetAsset(ctx, s.tenantID, assetID)
	if err != nil {
		return models.UsageDecision{}, err
	}
	if !s.evaluator.Thresholds().TracksUsage(asset.Kind) {
		return models.UsageDecision{}, models.NewValidationError("usage_reading", "asset kind does not track usage")
	}

	decision, err := s.evaluator.ProposeUsage(asset.Kind, asset.UsageCounter, reading)
	if err != nil {
		return models.UsageDecision{}, err
	}

	if decision.NeedsConfirmation() {
		if err := s.holdProposal(ctx, asset, decision); err != nil {
			return models.UsageDecision{}, err
		}
		return decision, nil
	}

	if err := s.commitUsage(ctx, asset, reading, s.clock.Now()); err != nil {
		return models.UsageDecision{}, err
	}
	// 之前未确认的提议已被新的有效读数取代
	if err := s.proposals.Delete(ctx, s.tenantID, asset.AssetID); err != nil {
		s.logger.Warn("Failed to discard superseded usage proposal",
			zap.String("asset_id", asset.AssetID),
			zap.Error(err),
		)
	}
	return decision, nil
}

// ConfirmUsageReading 确认待确认的使用计数并提交
// reading 必须与待确认提议一致；没有提议（未提出或已过期）时返回 cache.ErrNoPendingProposal
func (s *ComplianceService) ConfirmUsageReading(ctx context.Context, assetID string, reading float64) error {
	if math.IsNaN(reading) || math.IsInf(reading, 0) {
		return models.NewValidationError("usage_reading", "must be a finite number")
	}
	pending, err := s.proposals.Get(ctx, s.tenantID, assetID)
	if err != nil {
		return err
	}
	if pending.Reading != reading {
		return models.NewValidationError("usage_reading",
			fmt.Sprintf("does not match pending proposal (%g)", pending.Reading))
	}

	asset, err := s.repos.Assets.GetAsset(ctx, s.tenantID, assetID)
	if err != nil {
		return err
	}
	if err := s.commitUsage(ctx, asset, reading, s.clock.Now()); err != nil {
		return err
	}
	if err := s.proposals.Delete(ctx, s.tenantID, assetID); err != nil {
		return err
	}

	s.logger.Info("Usage reading confirmed",
		zap.String("tenant_id", s.tenantID),
		zap.String("asset_id", assetID),
		zap.String("reason", string(pending.Decision.Reason)),
		zap.Float64("reading", reading),
		zap.Float64("usage_counter", asset.UsageCounter),
	)
	return nil
}

// RollbackAssetUsage 显式回退资产使用计数（唯一允许计数变小的操作）
func (s *ComplianceService) RollbackAssetUsage(ctx context.Context, assetID string, counter float64, reason string) error {
	if math.IsNaN(counter) || math.IsInf(counter, 0) || counter < 0 {
		return models.NewValidationError("usage_counter", "must be a finite non-negative number")
	}
	if reason == "" {
		return models.NewValidationError("reason", "is required")
	}

	asset, err := s.repos.Assets.GetAsset(ctx, s.tenantID, assetID)
	if err != nil {
		return err
	}
	if counter >= asset.UsageCounter {
		return models.NewValidationError("usage_counter",
			fmt.Sprintf("rollback must lower the counter (current %g)", asset.UsageCounter))
	}

	if err := s.repos.Assets.UpdateAssetUsage(ctx, s.tenantID, assetID, counter, s.clock.Now()); err != nil {
		return err
	}

	s.logger.Warn("Asset usage rolled back",
		zap.String("tenant_id", s.tenantID),
		zap.String("asset_id", assetID),
		zap.Float64("from", asset.UsageCounter),
		zap.Float64("to", counter),
		zap.String("reason", reason),
	)
	return nil
}

// ListPendingProposals 列出租户下待确认的使用计数
func (s *ComplianceService) ListPendingProposals(ctx context.Context) ([]cache.PendingProposal, error) {
	return s.proposals.List(ctx, s.tenantID)
}

// DiscardUsageProposal 放弃待确认的使用计数
func (s *ComplianceService) DiscardUsageProposal(ctx context.Context, assetID string) error {
	if _, err := s.proposals.Get(ctx, s.tenantID, assetID); err != nil {
		return err
	}
	return s.proposals.Delete(ctx, s.tenantID, assetID)
}

func (s *ComplianceService) holdProposal(ctx context.Context, asset *models.Asset, decision models.UsageDecision) error {
	now := s.clock.Now()
	p := cache.PendingProposal{
		ProposalID: uuid.NewString(),
		TenantID:   s.tenantID,
		AssetID:    asset.AssetID,
		Kind:       asset.Kind,
		Reading:    decision.Reading,
		Decision:   decision,
		ProposedAt: now,
		ExpiresAt:  now.Add(s.proposalTTL),
	}
	return s.proposals.Put(ctx, p, s.proposalTTL)
}

// commitUsage 按只增不减的规则更新资产计数
func (s *ComplianceService) commitUsage(ctx context.Context, asset *models.Asset, reading float64, usedAt time.Time) error {
	counter, changed := evaluator.CommittedCounter(asset.UsageCounter, reading)
	if !changed {
		if reading < asset.UsageCounter {
			s.logger.Warn("Confirmed lower usage reading kept on record only",
				zap.String("asset_id", asset.AssetID),
				zap.Float64("usage_counter", asset.UsageCounter),
				zap.Float64("reading", reading),
			)
		}
		return nil
	}
	if err := s.repos.Assets.UpdateAssetUsage(ctx, s.tenantID, asset.AssetID, counter, usedAt); err != nil {
		return err
	}
	asset.UsageCounter = counter
	asset.LastUsageDate = &usedAt
	return nil
}

func isNoPendingProposal(err error) bool {
	return errors.Is(err, cache.ErrNoPendingProposal)
}
