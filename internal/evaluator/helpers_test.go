package evaluator

import (
	"time"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"go.uber.org/zap"
)

// 固定的评估时间：2026-03-10 12:00 UTC
var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestEvaluator() *Evaluator {
	return NewEvaluator(DefaultThresholds(), zap.NewNop())
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func floatPtr(f float64) *float64 {
	return &f
}

func dateEvent(id string, category models.Category, occurred time.Time, target *time.Time) models.MaintenanceEvent {
	return models.MaintenanceEvent{
		EventID:        id,
		AssetID:        "veh-1",
		Category:       category,
		OccurredAt:     occurred,
		RecordedAt:     occurred,
		NextDateTarget: target,
	}
}

func usageEvent(id string, occurred time.Time, usage float64, target *float64) models.MaintenanceEvent {
	return models.MaintenanceEvent{
		EventID:         id,
		AssetID:         "veh-1",
		Category:        models.CategoryPreventiveMaintenance,
		OccurredAt:      occurred,
		RecordedAt:      occurred,
		UsageAtEvent:    usage,
		NextUsageTarget: target,
	}
}

func testVehicle(counter float64) models.Asset {
	return models.Asset{
		AssetID:      "veh-1",
		TenantID:     "tenant-1",
		AssetName:    "Camión Volvo FH",
		Kind:         models.AssetKindVehicle,
		UsageCounter: counter,
	}
}
