package evaluator

import (
	"math"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"go.uber.org/zap"
)

// ProposeUsage 校验新上报的使用计数，规则按顺序：
//  1. reading < lastKnown → NEEDS_CONFIRMATION(REGRESSION)
//  2. reading - lastKnown > threshold(kind) → NEEDS_CONFIRMATION(IMPLAUSIBLE_JUMP)
//  3. 其它 → ACCEPTED
func (e *Evaluator) ProposeUsage(kind models.AssetKind, lastKnown, reading float64) (models.UsageDecision, error) {
	if err := validateReading(reading); err != nil {
		return models.UsageDecision{}, err
	}
	threshold, err := e.thresholds.AnomalyThreshold(kind)
	if err != nil {
		return models.UsageDecision{}, err
	}

	decision := models.UsageDecision{
		Outcome:   models.UsageAccepted,
		Delta:     reading - lastKnown,
		LastKnown: lastKnown,
		Reading:   reading,
		Threshold: threshold,
	}

	switch {
	case reading < lastKnown:
		decision.Outcome = models.UsageNeedsConfirmation
		decision.Reason = models.AnomalyRegression
	case reading-lastKnown > threshold:
		decision.Outcome = models.UsageNeedsConfirmation
		decision.Reason = models.AnomalyImplausibleJump
	}

	if decision.NeedsConfirmation() {
		e.logger.Info("Usage reading needs confirmation",
			zap.String("kind", string(kind)),
			zap.String("reason", string(decision.Reason)),
			zap.Float64("last_known", lastKnown),
			zap.Float64("reading", reading),
			zap.Float64("delta", decision.Delta),
		)
	}
	return decision, nil
}

// CommittedCounter 返回提交后资产应有的使用计数：只增不减。
// 确认过的较小读数只记录在检查上，不回滚资产计数。
func CommittedCounter(lastKnown, reading float64) (float64, bool) {
	if reading > lastKnown {
		return reading, true
	}
	return lastKnown, false
}

func validateReading(reading float64) error {
	if math.IsNaN(reading) || math.IsInf(reading, 0) {
		return models.NewValidationError("usage_reading", "must be a finite number")
	}
	if reading < 0 {
		return models.NewValidationError("usage_reading", "must not be negative")
	}
	return nil
}
