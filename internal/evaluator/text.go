package evaluator

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalizeText 去掉重音并做大小写折叠，"Camión" 与 "camion" 视为相同
// transform.Chain 与 cases.Caser 都有内部状态，每次调用重新创建
func normalizeText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// matchesText 任一字段包含查询词即匹配；空查询匹配全部
func matchesText(query string, fields ...string) bool {
	q := normalizeText(query)
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(normalizeText(f), q) {
			return true
		}
	}
	return false
}
