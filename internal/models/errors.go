package models

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation 输入缺失或格式错误，在计算结论前拒绝
	ErrValidation = errors.New("validation error")
	// ErrNotFound 资产或检查表定义不存在
	ErrNotFound = errors.New("not found")
	// ErrConfiguration 阈值或类别映射缺失（致命，按失败处理）
	ErrConfiguration = errors.New("configuration error")
	// ErrAnomalyPending 使用计数需要确认（控制流分支，不是失败）
	ErrAnomalyPending = errors.New("usage reading needs confirmation")
)

// ValidationError 校验错误
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Reason)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError 创建校验错误
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConfigurationError 配置错误
type ConfigurationError struct {
	Kind     AssetKind
	Category Category
	Reason   string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Kind != "" && e.Category != "":
		return fmt.Sprintf("configuration error: kind=%s category=%s: %s", e.Kind, e.Category, e.Reason)
	case e.Kind != "":
		return fmt.Sprintf("configuration error: kind=%s: %s", e.Kind, e.Reason)
	default:
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// AnomalyPendingError 使用计数需要确认，携带校验决定
type AnomalyPendingError struct {
	AssetID  string
	Decision UsageDecision
}

func (e *AnomalyPendingError) Error() string {
	return fmt.Sprintf("usage reading needs confirmation: asset_id=%s reason=%s delta=%g",
		e.AssetID, e.Decision.Reason, e.Decision.Delta)
}

func (e *AnomalyPendingError) Is(target error) bool {
	return target == ErrAnomalyPending
}

// NotFoundError 生成包装 ErrNotFound 的错误
func NotFoundError(entity, id string) error {
	return fmt.Errorf("%s not found: %s: %w", entity, id, ErrNotFound)
}
