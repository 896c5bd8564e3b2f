package evaluator

import (
	"time"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"go.uber.org/zap"
)

// DeriveCompliance 计算某资产某类别的合规状态
//
// 只取该类别下带有对应目标值的最新事件（date 类取 NextDateTarget，usage 类取 NextUsageTarget），
// 缺少目标值的事件即使更新也被忽略。没有任何合格事件时返回 EXPIRED + critical。
func (e *Evaluator) DeriveCompliance(asset models.Asset, category models.Category, events []models.MaintenanceEvent, now time.Time) (models.ComplianceStatus, error) {
	rule, err := e.thresholds.Rule(asset.Kind, category)
	if err != nil {
		return models.ComplianceStatus{}, err
	}

	status := models.ComplianceStatus{
		AssetID:  asset.AssetID,
		Category: category,
		Measure:  rule.Measure,
		Unit:     e.thresholds.unitFor(rule),
	}

	latest := latestQualifying(events, asset.AssetID, category, rule.Measure)
	if latest == nil {
		// 无合规证明即视为不合规
		status.State = models.ComplianceExpired
		status.Critical = true
		e.logger.Debug("No qualifying maintenance event",
			zap.String("asset_id", asset.AssetID),
			zap.String("category", string(category)),
		)
		return status, nil
	}

	status.SourceEventID = latest.EventID
	switch rule.Measure {
	case models.MeasureDate:
		due := *latest.NextDateTarget
		status.DueDate = &due
		status.Remaining = float64(calendarDays(now, due))
	default:
		target := *latest.NextUsageTarget
		status.DueUsage = &target
		status.Remaining = target - asset.UsageCounter
	}

	status.State, status.Critical = classify(status.Remaining, rule.Warning)
	return status, nil
}

// DeriveAll 计算资产类型配置的全部类别
func (e *Evaluator) DeriveAll(asset models.Asset, events map[models.Category][]models.MaintenanceEvent, now time.Time) ([]models.ComplianceStatus, error) {
	categories := e.thresholds.Categories(asset.Kind)
	if len(categories) == 0 {
		return nil, &models.ConfigurationError{Kind: asset.Kind, Reason: "no compliance categories configured"}
	}

	statuses := make([]models.ComplianceStatus, 0, len(categories))
	for _, category := range categories {
		status, err := e.DeriveCompliance(asset, category, events[category], now)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func classify(remaining, warning float64) (models.ComplianceState, bool) {
	switch {
	case remaining < 0:
		return models.ComplianceExpired, true
	case remaining <= warning:
		return models.ComplianceWarning, false
	default:
		return models.ComplianceOK, false
	}
}

// latestQualifying 选出带目标值的最新事件（OccurredAt 优先，相同时比较 RecordedAt）
func latestQualifying(events []models.MaintenanceEvent, assetID string, category models.Category, measure models.Measure) *models.MaintenanceEvent {
	var latest *models.MaintenanceEvent
	for i := range events {
		ev := &events[i]
		if ev.Category != category || (ev.AssetID != "" && ev.AssetID != assetID) {
			continue
		}
		if measure == models.MeasureDate && ev.NextDateTarget == nil {
			continue
		}
		if measure == models.MeasureUsage && ev.NextUsageTarget == nil {
			continue
		}
		if latest == nil || newerThan(ev, latest) {
			latest = ev
		}
	}
	return latest
}

func newerThan(a, b *models.MaintenanceEvent) bool {
	if !a.OccurredAt.Equal(b.OccurredAt) {
		return a.OccurredAt.After(b.OccurredAt)
	}
	return a.RecordedAt.After(b.RecordedAt)
}

// calendarDays 返回 from 到 to 的日历天数
// 两端各按自身时区取日期：到期日通常是零点 UTC 的纯日期，换算到本地时区会错一天
func calendarDays(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
