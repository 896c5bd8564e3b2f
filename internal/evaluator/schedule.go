package evaluator

import (
	"sort"
	"time"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"
)

var scheduleWeight = map[models.ScheduleStatus]int{
	models.ScheduleNeverInspected: 0,
	models.ScheduleExpired:        0,
	models.ScheduleDueSoon:        1,
	models.ScheduleCurrent:        2,
}

// ProjectSchedule 对资产台账分类并排序，供看板/告警使用
//
// 类别、资产类型与文本过滤作用于全部条目；月份/年份窗口只作用于 DUE_SOON 和 CURRENT，
// EXPIRED 与 NEVER_INSPECTED 永远出现在结果中。
func (e *Evaluator) ProjectSchedule(inventory []models.AssetHistory, filter models.ScheduleFilter, now time.Time) ([]models.ScheduleEntry, error) {
	window, err := newMonthWindow(filter, now)
	if err != nil {
		return nil, err
	}

	entries := []models.ScheduleEntry{}
	for _, history := range inventory {
		asset := history.Asset
		if filter.Kind != nil && asset.Kind != *filter.Kind {
			continue
		}
		if !matchesText(filter.Query, asset.AssetID, asset.AssetName) {
			continue
		}

		categories := e.thresholds.Categories(asset.Kind)
		if len(categories) == 0 {
			return nil, &models.ConfigurationError{Kind: asset.Kind, Reason: "no compliance categories configured"}
		}

		for _, category := range categories {
			if filter.Category != nil && category != *filter.Category {
				continue
			}
			entry, err := e.projectEntry(asset, category, history.Events[category], now)
			if err != nil {
				return nil, err
			}
			if !window.includes(entry) {
				continue
			}
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return rankLess(entries[i], entries[j])
	})
	return entries, nil
}

func (e *Evaluator) projectEntry(asset models.Asset, category models.Category, events []models.MaintenanceEvent, now time.Time) (models.ScheduleEntry, error) {
	entry := models.ScheduleEntry{
		AssetID:   asset.AssetID,
		AssetName: asset.AssetName,
		Kind:      asset.Kind,
		Category:  category,
	}

	if !hasHistory(events, asset.AssetID, category) {
		rule, err := e.thresholds.Rule(asset.Kind, category)
		if err != nil {
			return entry, err
		}
		entry.Status = models.ScheduleNeverInspected
		entry.Unit = e.thresholds.unitFor(rule)
		return entry, nil
	}

	status, err := e.DeriveCompliance(asset, category, events, now)
	if err != nil {
		return entry, err
	}
	entry.Remaining = status.Remaining
	entry.Unit = status.Unit
	entry.DueDate = status.DueDate
	entry.DueUsage = status.DueUsage
	switch status.State {
	case models.ComplianceExpired:
		entry.Status = models.ScheduleExpired
	case models.ComplianceWarning:
		entry.Status = models.ScheduleDueSoon
	default:
		entry.Status = models.ScheduleCurrent
	}
	return entry, nil
}

func hasHistory(events []models.MaintenanceEvent, assetID string, category models.Category) bool {
	for _, ev := range events {
		if ev.Category == category && (ev.AssetID == "" || ev.AssetID == assetID) {
			return true
		}
	}
	return false
}

// rankLess 严重程度权重 → NEVER_INSPECTED 优先 → remaining 升序 → 资产ID/类别
func rankLess(a, b models.ScheduleEntry) bool {
	wa, wb := scheduleWeight[a.Status], scheduleWeight[b.Status]
	if wa != wb {
		return wa < wb
	}
	na, nb := a.Status == models.ScheduleNeverInspected, b.Status == models.ScheduleNeverInspected
	if na != nb {
		return na
	}
	if a.Remaining != b.Remaining {
		return a.Remaining < b.Remaining
	}
	if a.AssetID != b.AssetID {
		return a.AssetID < b.AssetID
	}
	return a.Category < b.Category
}

// monthWindow 月份/年份窗口，[start, end)
type monthWindow struct {
	active     bool
	start, end time.Time
}

func newMonthWindow(filter models.ScheduleFilter, now time.Time) (monthWindow, error) {
	if filter.Month < 0 || filter.Month > 12 {
		return monthWindow{}, models.NewValidationError("month", "must be between 1 and 12")
	}
	if filter.Year != 0 && (filter.Year < 1900 || filter.Year > 9999) {
		return monthWindow{}, models.NewValidationError("year", "out of range")
	}
	if filter.Month == 0 && filter.Year == 0 {
		return monthWindow{}, nil
	}

	year := filter.Year
	if year == 0 {
		year = now.Year()
	}
	loc := now.Location()
	if filter.Month == 0 {
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		return monthWindow{active: true, start: start, end: start.AddDate(1, 0, 0)}, nil
	}
	start := time.Date(year, time.Month(filter.Month), 1, 0, 0, 0, 0, loc)
	return monthWindow{active: true, start: start, end: start.AddDate(0, 1, 0)}, nil
}

// includes EXPIRED / NEVER_INSPECTED 不受窗口限制；没有到期日期的条目无法落入窗口
func (w monthWindow) includes(entry models.ScheduleEntry) bool {
	if !w.active {
		return true
	}
	if entry.Status == models.ScheduleExpired || entry.Status == models.ScheduleNeverInspected {
		return true
	}
	if entry.DueDate == nil {
		return false
	}
	due := entry.DueDate.In(w.start.Location())
	return !due.Before(w.start) && due.Before(w.end)
}
