package evaluator

import (
	"errors"
	"math"
	"testing"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposeUsage(t *testing.T) {
	e := newTestEvaluator()

	tests := []struct {
		name    string
		reading float64
		outcome models.UsageOutcome
		reason  models.AnomalyReason
		delta   float64
	}{
		{"small increase", 50001, models.UsageAccepted, "", 1},
		{"unchanged", 50000, models.UsageAccepted, "", 0},
		{"at threshold", 53000, models.UsageAccepted, "", 3000},
		{"regression", 49999, models.UsageNeedsConfirmation, models.AnomalyRegression, -1},
		{"jump over threshold", 53001, models.UsageNeedsConfirmation, models.AnomalyImplausibleJump, 3001},
		{"large jump", 54000, models.UsageNeedsConfirmation, models.AnomalyImplausibleJump, 4000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := e.ProposeUsage(models.AssetKindVehicle, 50000, tt.reading)
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, decision.Outcome)
			assert.Equal(t, tt.reason, decision.Reason)
			assert.Equal(t, tt.delta, decision.Delta)
			assert.Equal(t, 3000.0, decision.Threshold)
			assert.Equal(t, tt.outcome == models.UsageNeedsConfirmation, decision.NeedsConfirmation())
		})
	}
}

func TestProposeUsage_MachineryThreshold(t *testing.T) {
	e := newTestEvaluator()

	decision, err := e.ProposeUsage(models.AssetKindMachinery, 1200, 1450)
	require.NoError(t, err)
	assert.Equal(t, models.UsageNeedsConfirmation, decision.Outcome)
	assert.Equal(t, models.AnomalyImplausibleJump, decision.Reason)
	assert.Equal(t, 200.0, decision.Threshold)
}

func TestProposeUsage_NoThresholdConfigured(t *testing.T) {
	e := newTestEvaluator()

	_, err := e.ProposeUsage(models.AssetKindSafetyEquipment, 0, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestProposeUsage_InvalidReading(t *testing.T) {
	e := newTestEvaluator()

	for _, reading := range []float64{math.NaN(), math.Inf(1), -5} {
		_, err := e.ProposeUsage(models.AssetKindVehicle, 100, reading)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrValidation), "reading %v", reading)
	}
}

func TestCommittedCounter(t *testing.T) {
	counter, changed := CommittedCounter(50000, 54000)
	assert.Equal(t, 54000.0, counter)
	assert.True(t, changed)

	// 确认过的回退读数不会让计数变小
	counter, changed = CommittedCounter(50000, 49999)
	assert.Equal(t, 50000.0, counter)
	assert.False(t, changed)

	counter, changed = CommittedCounter(50000, 50000)
	assert.Equal(t, 50000.0, counter)
	assert.False(t, changed)
}
