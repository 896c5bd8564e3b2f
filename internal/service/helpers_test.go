package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nelsonsanch/Persontx-sub001/internal/cache"
	"github.com/nelsonsanch/Persontx-sub001/internal/evaluator"
	"github.com/nelsonsanch/Persontx-sub001/internal/models"
	"github.com/nelsonsanch/Persontx-sub001/internal/repository"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

const testTenant = "tenant-1"

type fakePublisher struct {
	mu      sync.Mutex
	results []models.InspectionResult
	err     error
}

func (p *fakePublisher) PublishResult(_ context.Context, result *models.InspectionResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.results = append(p.results, *result)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []Alert
}

func (n *fakeNotifier) Notify(_ context.Context, alert Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return nil
}

func (n *fakeNotifier) types() []AlertType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]AlertType, 0, len(n.alerts))
	for _, a := range n.alerts {
		out = append(out, a.Type)
	}
	return out
}

type fixture struct {
	svc       *ComplianceService
	store     *repository.MemoryStore
	publisher *fakePublisher
	notifier  *fakeNotifier
	now       func() time.Time
	advance   func(time.Duration)
	build     func(repository.Repositories) *ComplianceService
}

// newFixture 准备一个 50000 km 的车辆、车辆检查表和全部合规的维护记录
func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := clockz.NewFakeClock()
	store := repository.NewMemoryStore()
	publisher := &fakePublisher{}
	notifier := &fakeNotifier{}

	proposals := cache.NewProposalStore(cache.NewMemoryKV(clock))
	build := func(repos repository.Repositories) *ComplianceService {
		return NewComplianceService(
			testTenant,
			repos,
			evaluator.NewEvaluator(evaluator.DefaultThresholds(), zap.NewNop()),
			proposals,
			Options{
				Publisher:   publisher,
				Notifier:    notifier,
				Clock:       clock,
				ProposalTTL: 10 * time.Minute,
			},
			zap.NewNop(),
		)
	}

	f := &fixture{
		svc:       build(store.Repositories()),
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		now:       clock.Now,
		advance:   clock.Advance,
		build:     build,
	}

	ctx := context.Background()
	require.NoError(t, store.CreateAsset(ctx, testTenant, &models.Asset{
		AssetID:      "veh-1",
		AssetName:    "Camión Volvo FH",
		Kind:         models.AssetKindVehicle,
		UsageCounter: 50000,
	}))
	require.NoError(t, store.SaveChecklistDefinition(ctx, testTenant, &models.ChecklistDefinition{
		DefinitionID: "def-vehicle-1",
		AssetKind:    models.AssetKindVehicle,
		Version:      1,
		Items: []models.ChecklistItem{
			{ItemID: "brakes", Label: "Frenos", Critical: true},
			{ItemID: "lights", Label: "Luces"},
			{ItemID: "tires", Label: "Neumáticos"},
			{ItemID: "horn", Label: "Bocina", Optional: true},
		},
	}))

	now := clock.Now()
	f.addEvent(t, models.MaintenanceEvent{EventID: "ins-1", AssetID: "veh-1", Category: models.CategoryInsurance,
		OccurredAt: now.AddDate(0, -2, 0), NextDateTarget: timePtr(now.AddDate(0, 0, 200))})
	f.addEvent(t, models.MaintenanceEvent{EventID: "cert-1", AssetID: "veh-1", Category: models.CategoryCertification,
		OccurredAt: now.AddDate(0, -2, 0), NextDateTarget: timePtr(now.AddDate(0, 0, 100))})
	f.addEvent(t, models.MaintenanceEvent{EventID: "pm-1", AssetID: "veh-1", Category: models.CategoryPreventiveMaintenance,
		OccurredAt: now.AddDate(0, -1, 0), UsageAtEvent: 49000, NextUsageTarget: floatPtr(60000)})

	return f
}

func (f *fixture) addEvent(t *testing.T, ev models.MaintenanceEvent) {
	t.Helper()
	if ev.RecordedAt.IsZero() {
		ev.RecordedAt = ev.OccurredAt
	}
	require.NoError(t, f.store.AppendMaintenanceEvent(context.Background(), testTenant, &ev))
}

func (f *fixture) counter(t *testing.T) float64 {
	t.Helper()
	asset, err := f.store.GetAsset(context.Background(), testTenant, "veh-1")
	require.NoError(t, err)
	return asset.UsageCounter
}

func (f *fixture) submission(reading *float64, responses map[string]models.Verdict) models.InspectionSubmission {
	return models.InspectionSubmission{
		AssetID:      "veh-1",
		Timestamp:    f.now(),
		InspectorID:  "insp-7",
		UsageReading: reading,
		Responses:    responses,
	}
}

func allGood() map[string]models.Verdict {
	return map[string]models.Verdict{
		"brakes": models.VerdictGood,
		"lights": models.VerdictGood,
		"tires":  models.VerdictGood,
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func floatPtr(f float64) *float64 {
	return &f
}

var errPublish = errors.New("stream unavailable")

var errStorage = errors.New("db down")

// failingInspections 保存结果总是失败
type failingInspections struct {
	repository.InspectionsRepository
}

func (failingInspections) AppendInspectionResult(context.Context, string, *models.InspectionResult, *models.InspectionSubmission) error {
	return errStorage
}
