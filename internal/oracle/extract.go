// v1
// internal/oracle/extract.go
package oracle

import "strings"

// Extractor pulls structured lines out of Oracle prose. Keyword matching is
// fragile by nature; keeping it behind an interface lets structured-output
// variants replace it without touching pipeline logic.
type Extractor interface {
	Extract(text string) []string
}

// KeywordLines keeps lines containing any of the keywords, case-insensitive,
// up to Limit.
type KeywordLines struct {
	Keywords []string
	Limit    int
}

func (k KeywordLines) Extract(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		for _, kw := range k.Keywords {
			if strings.Contains(lower, kw) {
				out = append(out, line)
				break
			}
		}
		if k.Limit > 0 && len(out) >= k.Limit {
			break
		}
	}
	return out
}

// MarkerOrPercent keeps non-empty lines carrying the action marker or a
// percentage figure, up to Limit.
type MarkerOrPercent struct {
	Marker string
	Limit  int
}

func (m MarkerOrPercent) Extract(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, m.Marker) || hasPercentFigure(line) {
			out = append(out, line)
		}
		if m.Limit > 0 && len(out) >= m.Limit {
			break
		}
	}
	return out
}

// CampusPolicyLines keeps lines announcing campus policy actions, up to Limit.
type CampusPolicyLines struct {
	Limit int
}

func (c CampusPolicyLines) Extract(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, "CAMPUS POLICY:") || strings.Contains(strings.ToUpper(line), "CAMPUS") {
			out = append(out, line)
		}
		if c.Limit > 0 && len(out) >= c.Limit {
			break
		}
	}
	return out
}

// hasPercentFigure reports whether the line carries a numeric percentage.
func hasPercentFigure(line string) bool {
	return strings.ContainsAny(line, "0123456789") && strings.Contains(line, "%")
}

// AnomalyKeywords are the markers scanned for in anomaly analysis replies.
var AnomalyKeywords = []string{"unusual", "anomaly", "unexpected", "high", "waste"}

// DefaultAnomalyExtractor keeps at most 3 anomaly lines.
func DefaultAnomalyExtractor() Extractor {
	return KeywordLines{Keywords: AnomalyKeywords, Limit: 3}
}

// DefaultRecommendationExtractor keeps at most 5 action lines.
func DefaultRecommendationExtractor() Extractor {
	return MarkerOrPercent{Marker: "ACTION:", Limit: 5}
}
