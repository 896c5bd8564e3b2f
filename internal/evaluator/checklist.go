package evaluator

import (
	"fmt"
	"math"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"go.uber.org/zap"
)

// compliancePrefix 合规状态派生伪检查项的 ID 前缀
const compliancePrefix = "compliance:"

var verdictPoints = map[models.Verdict]float64{
	models.VerdictGood: 1,
	models.VerdictFair: 0.5,
	models.VerdictBad:  0,
}

// ValidateSubmission 校验提交；有必答项未作答时返回 ValidationError，不产生任何结论
func ValidateSubmission(sub models.InspectionSubmission, def models.ChecklistDefinition) error {
	if sub.AssetID == "" {
		return models.NewValidationError("asset_id", "is required")
	}
	if sub.Timestamp.IsZero() {
		return models.NewValidationError("timestamp", "is required")
	}
	if sub.OperatorSleepHours != nil {
		h := *sub.OperatorSleepHours
		if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 || h > 24 {
			return models.NewValidationError("operator_sleep_hours", "must be between 0 and 24")
		}
	}

	known := make(map[string]struct{}, len(def.Items))
	for _, item := range def.Items {
		known[item.ItemID] = struct{}{}
	}
	for itemID, verdict := range sub.Responses {
		if _, ok := known[itemID]; !ok {
			return models.NewValidationError("responses."+itemID, "unknown checklist item")
		}
		if !verdict.Valid() {
			return models.NewValidationError("responses."+itemID, fmt.Sprintf("unknown verdict %q", verdict))
		}
	}

	for _, item := range def.Items {
		if item.Optional {
			continue
		}
		if _, ok := sub.Responses[item.ItemID]; !ok {
			return models.NewValidationError("responses."+item.ItemID, "required item unanswered")
		}
	}
	return nil
}

// EvaluateChecklist 对一次提交计分并给出结论
//
// compliance 为 DeriveAll 的输出，作为伪检查项参与计分：OK=GOOD, WARNING=FAIR, EXPIRED=BAD。
// Score 的分母包含这些伪检查项；ItemScore 只统计人工作答的检查项。
// 分数与结论相互独立：任一关键项 BAD、任一合规状态 critical、或睡眠时长不足都会驳回。
func (e *Evaluator) EvaluateChecklist(sub models.InspectionSubmission, def models.ChecklistDefinition, compliance []models.ComplianceStatus) (models.InspectionResult, error) {
	if err := ValidateSubmission(sub, def); err != nil {
		return models.InspectionResult{}, err
	}

	result := models.InspectionResult{
		SubmissionID: sub.SubmissionID,
		AssetID:      sub.AssetID,
		DefinitionID: def.DefinitionID,
		Reasons:      []models.FailureReason{},
		Items:        make([]models.ItemOutcome, 0, len(def.Items)+len(compliance)),
		Compliance:   compliance,
	}

	var sum float64
	var denominator int

	for _, item := range def.Items {
		verdict, answered := sub.Responses[item.ItemID]
		if !answered {
			verdict = models.VerdictNotApplicable
		}
		outcome := models.ItemOutcome{ItemID: item.ItemID, Verdict: verdict, Critical: item.Critical}
		if verdict != models.VerdictNotApplicable {
			outcome.Points = verdictPoints[verdict]
			sum += outcome.Points
			denominator++
		}
		if item.Critical && verdict == models.VerdictBad {
			result.CriticalFailure = true
			result.Reasons = append(result.Reasons, models.FailureReason{
				Kind:    models.ReasonCriticalItem,
				Subject: item.ItemID,
				Detail:  item.Label,
			})
		}
		result.Items = append(result.Items, outcome)
	}

	for _, status := range compliance {
		verdict := complianceVerdict(status.State)
		outcome := models.ItemOutcome{
			ItemID:   compliancePrefix + string(status.Category),
			Verdict:  verdict,
			Critical: status.Critical,
			Derived:  true,
			Points:   verdictPoints[verdict],
		}
		sum += outcome.Points
		denominator++
		if status.Critical {
			result.CriticalFailure = true
			result.Reasons = append(result.Reasons, models.FailureReason{
				Kind:    models.ReasonCompliance,
				Subject: string(status.Category),
				Detail:  fmt.Sprintf("state=%s remaining=%g %s", status.State, status.Remaining, status.Unit),
			})
		}
		result.Items = append(result.Items, outcome)
	}

	// 疲劳规则：独立于检查内容
	if sub.OperatorSleepHours != nil && *sub.OperatorSleepHours <= e.thresholds.MinSleepHours() {
		result.CriticalFailure = true
		result.Reasons = append(result.Reasons, models.FailureReason{
			Kind:    models.ReasonFatigue,
			Subject: "operator",
			Detail:  fmt.Sprintf("slept %g h, minimum is more than %g h", *sub.OperatorSleepHours, e.thresholds.MinSleepHours()),
		})
	}

	result.Score = 100 * sum / float64(max(denominator, 1))
	result.ItemScore = models.ItemScore(result.Items)
	if result.CriticalFailure {
		result.Overall = models.OverallRejected
	} else {
		result.Overall = models.OverallApproved
	}

	e.logger.Debug("Checklist evaluated",
		zap.String("asset_id", sub.AssetID),
		zap.Float64("score", result.Score),
		zap.String("overall", string(result.Overall)),
		zap.Int("reasons", len(result.Reasons)),
	)

	return result, nil
}

func complianceVerdict(state models.ComplianceState) models.Verdict {
	switch state {
	case models.ComplianceOK:
		return models.VerdictGood
	case models.ComplianceWarning:
		return models.VerdictFair
	default:
		return models.VerdictBad
	}
}
