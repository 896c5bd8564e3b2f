package evaluator

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/nelsonsanch/Persontx-sub001/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed thresholds.default.yaml
var defaultThresholdsYAML []byte

// CategoryRule 阈值表中的一行，按 (kind, category) 索引
type CategoryRule struct {
	Kind     models.AssetKind `yaml:"kind" json:"kind"`
	Category models.Category  `yaml:"category" json:"category"`
	Measure  models.Measure   `yaml:"measure" json:"measure"`
	Warning  float64          `yaml:"warning" json:"warning"` // 预警窗口：天 或 使用量
}

// thresholdsFile 阈值文件根结构
type thresholdsFile struct {
	Categories []CategoryRule     `yaml:"categories"`
	UsageUnits map[string]string  `yaml:"usage_units"`
	Anomaly    map[string]float64 `yaml:"anomaly"`
	Fatigue    *struct {
		MinSleepHours *float64 `yaml:"min_sleep_hours"`
	} `yaml:"fatigue"`
}

type ruleKey struct {
	kind     models.AssetKind
	category models.Category
}

// Thresholds 合规阈值配置表（只读，可并发使用）
type Thresholds struct {
	rules         map[ruleKey]CategoryRule
	order         []CategoryRule
	usageUnits    map[models.AssetKind]string
	anomaly       map[models.AssetKind]float64
	minSleepHours float64
}

// DefaultThresholds 返回内置默认阈值表
func DefaultThresholds() *Thresholds {
	t, err := ParseThresholds(defaultThresholdsYAML)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in thresholds: %v", err))
	}
	return t
}

// LoadThresholds 从 path 加载 YAML 阈值表；path 为空时使用内置默认值。
// 指定了文件但文件不存在视为配置错误，不回退到默认值。
func LoadThresholds(path string) (*Thresholds, error) {
	if path == "" {
		return DefaultThresholds(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.ConfigurationError{Reason: fmt.Sprintf("read thresholds %s: %v", path, err)}
	}
	return ParseThresholds(data)
}

// ParseThresholds 解析并校验阈值表
func ParseThresholds(data []byte) (*Thresholds, error) {
	var f thresholdsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &models.ConfigurationError{Reason: fmt.Sprintf("thresholds unmarshal: %v", err)}
	}

	t := &Thresholds{
		rules:      make(map[ruleKey]CategoryRule, len(f.Categories)),
		usageUnits: make(map[models.AssetKind]string),
		anomaly:    make(map[models.AssetKind]float64),
	}

	for _, rule := range f.Categories {
		if !rule.Kind.Valid() {
			return nil, &models.ConfigurationError{Kind: rule.Kind, Reason: "unknown asset kind"}
		}
		if !rule.Category.Valid() {
			return nil, &models.ConfigurationError{Kind: rule.Kind, Category: rule.Category, Reason: "unknown category"}
		}
		if rule.Measure != models.MeasureDate && rule.Measure != models.MeasureUsage {
			return nil, &models.ConfigurationError{Kind: rule.Kind, Category: rule.Category,
				Reason: fmt.Sprintf("unknown measure %q", rule.Measure)}
		}
		if rule.Warning < 0 {
			return nil, &models.ConfigurationError{Kind: rule.Kind, Category: rule.Category, Reason: "warning window must not be negative"}
		}
		key := ruleKey{kind: rule.Kind, category: rule.Category}
		if _, dup := t.rules[key]; dup {
			return nil, &models.ConfigurationError{Kind: rule.Kind, Category: rule.Category, Reason: "duplicate rule"}
		}
		t.rules[key] = rule
		t.order = append(t.order, rule)
	}

	for kind, unit := range f.UsageUnits {
		k := models.AssetKind(kind)
		if !k.Valid() {
			return nil, &models.ConfigurationError{Kind: k, Reason: "unknown asset kind in usage_units"}
		}
		t.usageUnits[k] = unit
	}

	for kind, threshold := range f.Anomaly {
		k := models.AssetKind(kind)
		if !k.Valid() {
			return nil, &models.ConfigurationError{Kind: k, Reason: "unknown asset kind in anomaly"}
		}
		if threshold < 0 {
			return nil, &models.ConfigurationError{Kind: k, Reason: "anomaly threshold must not be negative"}
		}
		t.anomaly[k] = threshold
	}

	if f.Fatigue == nil || f.Fatigue.MinSleepHours == nil {
		return nil, &models.ConfigurationError{Reason: "fatigue.min_sleep_hours is required"}
	}
	if *f.Fatigue.MinSleepHours < 0 {
		return nil, &models.ConfigurationError{Reason: "fatigue.min_sleep_hours must not be negative"}
	}
	t.minSleepHours = *f.Fatigue.MinSleepHours

	return t, nil
}

// Rule 返回 (kind, category) 的规则；缺失时返回 ConfigurationError
func (t *Thresholds) Rule(kind models.AssetKind, category models.Category) (CategoryRule, error) {
	rule, ok := t.rules[ruleKey{kind: kind, category: category}]
	if !ok {
		return CategoryRule{}, &models.ConfigurationError{Kind: kind, Category: category, Reason: "no threshold configured"}
	}
	return rule, nil
}

// Categories 返回某资产类型配置的类别（按配置顺序）
func (t *Thresholds) Categories(kind models.AssetKind) []models.Category {
	var categories []models.Category
	for _, rule := range t.order {
		if rule.Kind == kind {
			categories = append(categories, rule.Category)
		}
	}
	return categories
}

// Rules 返回全部规则（按配置顺序）
func (t *Thresholds) Rules() []CategoryRule {
	out := make([]CategoryRule, len(t.order))
	copy(out, t.order)
	return out
}

// AnomalyThreshold 返回某资产类型的使用计数跳变阈值
func (t *Thresholds) AnomalyThreshold(kind models.AssetKind) (float64, error) {
	threshold, ok := t.anomaly[kind]
	if !ok {
		return 0, &models.ConfigurationError{Kind: kind, Reason: "no anomaly threshold configured"}
	}
	return threshold, nil
}

// TracksUsage 资产类型是否有使用计数
func (t *Thresholds) TracksUsage(kind models.AssetKind) bool {
	_, ok := t.anomaly[kind]
	return ok
}

// UsageUnit 使用计数单位
func (t *Thresholds) UsageUnit(kind models.AssetKind) string {
	if unit, ok := t.usageUnits[kind]; ok {
		return unit
	}
	return "units"
}

// MinSleepHours 疲劳规则：睡眠时长小于等于该值即驳回
func (t *Thresholds) MinSleepHours() float64 {
	return t.minSleepHours
}

// unitFor 返回规则的剩余量单位
func (t *Thresholds) unitFor(rule CategoryRule) string {
	if rule.Measure == models.MeasureDate {
		return "days"
	}
	return t.UsageUnit(rule.Kind)
}

// Table 生效阈值表的导出视图，格式与阈值文件一致，可再次被 ParseThresholds 读取
type Table struct {
	Categories []CategoryRule     `yaml:"categories" json:"categories"`
	UsageUnits map[string]string  `yaml:"usage_units" json:"usage_units"`
	Anomaly    map[string]float64 `yaml:"anomaly" json:"anomaly"`
	Fatigue    struct {
		MinSleepHours float64 `yaml:"min_sleep_hours" json:"min_sleep_hours"`
	} `yaml:"fatigue" json:"fatigue"`
}

// Table 导出当前阈值表
func (t *Thresholds) Table() Table {
	out := Table{
		Categories: t.Rules(),
		UsageUnits: make(map[string]string, len(t.usageUnits)),
		Anomaly:    make(map[string]float64, len(t.anomaly)),
	}
	for kind, unit := range t.usageUnits {
		out.UsageUnits[string(kind)] = unit
	}
	for kind, threshold := range t.anomaly {
		out.Anomaly[string(kind)] = threshold
	}
	out.Fatigue.MinSleepHours = t.minSleepHours
	return out
}
