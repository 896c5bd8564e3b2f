package evaluator

import (
	"go.uber.org/zap"
)

// Evaluator 资产合规与检查决策引擎
// 所有方法都是输入（含 now）上的纯函数，不缓存合规状态，可并发调用
type Evaluator struct {
	thresholds *Thresholds
	logger     *zap.Logger
}

// NewEvaluator 创建评估器
func NewEvaluator(thresholds *Thresholds, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		thresholds: thresholds,
		logger:     logger,
	}
}

// Thresholds 返回当前阈值表
func (e *Evaluator) Thresholds() *Thresholds {
	return e.thresholds
}
