package pipeline

import (
	"encoding/json"
	"strings"
)

// ParsedVerdict is the tagged outcome of parsing critic output: either a
// structured Verdict plus the raw text it came from, or just the raw text
// when no structure could be recovered. Parsing never fails the run.
type ParsedVerdict struct {
	Verdict *Verdict `json:"verdict,omitempty"`
	Raw     string   `json:"raw"`
}

// Parsed reports whether a structured verdict was recovered.
func (p *ParsedVerdict) Parsed() bool {
	return p != nil && p.Verdict != nil
}

// NeedsRevision decides whether the draft must be revised. When the verdict
// parsed, the structured fields are authoritative: revise unless the critic
// reported low hallucination risk and an overall score of at least 0.7. When
// the verdict did not parse, fall back to scanning the raw text for the
// legacy "VERDICT: REVISE" marker.
func (p *ParsedVerdict) NeedsRevision() bool {
	if p == nil {
		return false
	}
	if v := p.Verdict; v != nil {
		if v.HallucinationRisk != RiskLow {
			return true
		}
		if v.OverallScore != nil && *v.OverallScore < 0.7 {
			return true
		}
		return false
	}
	return strings.Contains(strings.ToUpper(p.Raw), "VERDICT: REVISE")
}

// ParseVerdict applies the two-tier parse-or-degrade strategy: try the whole
// string (after stripping code fences), then try to recover an object between
// the first "{" and the last "}". Malformed input degrades to an unparsed
// verdict instead of an error.
func ParseVerdict(raw string) *ParsedVerdict {
	out := &ParsedVerdict{Raw: raw}

	clean := stripFences(raw)
	if v, ok := decodeVerdict(clean); ok {
		out.Verdict = v
		return out
	}

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start >= 0 && end > start {
		if v, ok := decodeVerdict(clean[start : end+1]); ok {
			out.Verdict = v
		}
	}
	return out
}

func decodeVerdict(s string) (*Verdict, bool) {
	var v Verdict
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	v.HallucinationRisk = normalizeRisk(v.HallucinationRisk)
	return &v, true
}

func normalizeRisk(r RiskLevel) RiskLevel {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(string(r)))) {
	case RiskLow:
		return RiskLow
	case RiskMedium:
		return RiskMedium
	case RiskHigh:
		return RiskHigh
	}
	return RiskUnknown
}

func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = trimmed[3:]
		trimmed = strings.TrimPrefix(trimmed, "json")
		trimmed = strings.TrimPrefix(trimmed, "JSON")
		if idx := strings.Index(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
	}
	return strings.TrimSpace(trimmed)
}
