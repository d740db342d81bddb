// Package constraint validates generated text against length and style
// constraints, producing a compliance record with a pass/warn/violate verdict.
package constraint

import "strings"

type Verdict string

const (
	VerdictCompliant Verdict = "compliant"
	VerdictWarning   Verdict = "warning"
	VerdictViolation Verdict = "violation"
)

type Constraint struct {
	TargetLength int     `json:"target_length"`
	TolerancePct float64 `json:"tolerance_pct"`
	Style        string  `json:"style"`
	Strict       bool    `json:"strict"`
}

type ComplianceRecord struct {
	Phase           string  `json:"phase,omitempty"`
	ActualLength    int     `json:"actual_length"`
	TargetLength    int     `json:"target_length"`
	TolerancePct    float64 `json:"tolerance_pct"`
	VariancePct     float64 `json:"variance_pct"`
	WithinTolerance bool    `json:"within_tolerance"`
	StyleTag        string  `json:"style_tag"`
	StrictEnforced  bool    `json:"strict_enforced"`
	Verdict         Verdict `json:"verdict"`
}

// WordCount counts whitespace-delimited tokens. Locale-agnostic, no stemming.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Validate computes a compliance record for text against c. It is pure and
// deterministic; the Phase field is left empty for the caller to fill in.
// A variance exactly on the tolerance boundary counts as within tolerance.
func Validate(text string, c Constraint) ComplianceRecord {
	actual := WordCount(text)

	var variance float64
	if c.TargetLength > 0 {
		variance = float64(actual-c.TargetLength) / float64(c.TargetLength) * 100
	}

	within := variance <= c.TolerancePct && variance >= -c.TolerancePct

	verdict := VerdictCompliant
	if !within {
		if c.Strict {
			verdict = VerdictViolation
		} else {
			verdict = VerdictWarning
		}
	}

	return ComplianceRecord{
		ActualLength:    actual,
		TargetLength:    c.TargetLength,
		TolerancePct:    c.TolerancePct,
		VariancePct:     variance,
		WithinTolerance: within,
		StyleTag:        c.Style,
		StrictEnforced:  c.Strict,
		Verdict:         verdict,
	}
}
