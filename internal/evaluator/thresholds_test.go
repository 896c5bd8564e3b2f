package evaluator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()

	rule, err := th.Rule(models.AssetKindVehicle, models.CategoryInsurance)
	require.NoError(t, err)
	assert.Equal(t, models.MeasureDate, rule.Measure)
	assert.Equal(t, 30.0, rule.Warning)

	rule, err = th.Rule(models.AssetKindVehicle, models.CategoryPreventiveMaintenance)
	require.NoError(t, err)
	assert.Equal(t, models.MeasureUsage, rule.Measure)
	assert.Equal(t, 1000.0, rule.Warning)

	anomaly, err := th.AnomalyThreshold(models.AssetKindVehicle)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, anomaly)

	// 跳变阈值与保养预警窗口相互独立
	assert.NotEqual(t, rule.Warning, anomaly)

	assert.Equal(t, "km", th.UsageUnit(models.AssetKindVehicle))
	assert.Equal(t, "hours", th.UsageUnit(models.AssetKindMachinery))
	assert.Equal(t, 6.0, th.MinSleepHours())
	assert.Equal(t, []models.Category{
		models.CategoryInsurance,
		models.CategoryCertification,
		models.CategoryPreventiveMaintenance,
	}, th.Categories(models.AssetKindVehicle))
	assert.False(t, th.TracksUsage(models.AssetKindSafetyEquipment))
}

func TestThresholds_MissingEntryIsConfigurationError(t *testing.T) {
	th := DefaultThresholds()

	_, err := th.Rule(models.AssetKindSafetyEquipment, models.CategoryInsurance)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConfiguration))

	_, err = th.AnomalyThreshold(models.AssetKindSafetyEquipment)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestParseThresholds_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown kind": `
categories:
  - {kind: boat, category: insurance, measure: date, warning: 30}
fatigue: {min_sleep_hours: 6}
`,
		"unknown measure": `
categories:
  - {kind: vehicle, category: insurance, measure: weekly, warning: 30}
fatigue: {min_sleep_hours: 6}
`,
		"negative warning": `
categories:
  - {kind: vehicle, category: insurance, measure: date, warning: -1}
fatigue: {min_sleep_hours: 6}
`,
		"duplicate rule": `
categories:
  - {kind: vehicle, category: insurance, measure: date, warning: 30}
  - {kind: vehicle, category: insurance, measure: date, warning: 10}
fatigue: {min_sleep_hours: 6}
`,
		"missing fatigue": `
categories:
  - {kind: vehicle, category: insurance, measure: date, warning: 30}
`,
		"unknown anomaly kind": `
anomaly: {boat: 10}
fatigue: {min_sleep_hours: 6}
`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseThresholds([]byte(content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrConfiguration))
		})
	}
}

func TestLoadThresholds(t *testing.T) {
	th, err := LoadThresholds("")
	require.NoError(t, err)
	assert.NotEmpty(t, th.Rules())

	_, err = LoadThresholds(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConfiguration))

	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	content := []byte(`
categories:
  - kind: machinery
    category: preventive_maintenance
    measure: usage
    warning: 25
usage_units:
  machinery: hours
anomaly:
  machinery: 120
fatigue:
  min_sleep_hours: 5
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	th, err = LoadThresholds(path)
	require.NoError(t, err)
	rule, err := th.Rule(models.AssetKindMachinery, models.CategoryPreventiveMaintenance)
	require.NoError(t, err)
	assert.Equal(t, 25.0, rule.Warning)
	anomaly, err := th.AnomalyThreshold(models.AssetKindMachinery)
	require.NoError(t, err)
	assert.Equal(t, 120.0, anomaly)
	assert.Equal(t, 5.0, th.MinSleepHours())

	_, err = th.Rule(models.AssetKindVehicle, models.CategoryInsurance)
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestThresholds_TableRoundTrip(t *testing.T) {
	th := DefaultThresholds()

	data, err := yaml.Marshal(th.Table())
	require.NoError(t, err)

	again, err := ParseThresholds(data)
	require.NoError(t, err)
	assert.Equal(t, th.Rules(), again.Rules())
	assert.Equal(t, th.MinSleepHours(), again.MinSleepHours())
	assert.Equal(t, "km", again.UsageUnit(models.AssetKindVehicle))
	anomaly, err := again.AnomalyThreshold(models.AssetKindMachinery)
	require.NoError(t, err)
	assert.Equal(t, 200.0, anomaly)
}
