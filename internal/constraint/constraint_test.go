package constraint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestValidate_Compliant(t *testing.T) {
	c := Constraint{TargetLength: 800, TolerancePct: 10, Style: "formal", Strict: true}

	rec := Validate(words(795), c)

	assert.Equal(t, 795, rec.ActualLength)
	assert.Equal(t, 800, rec.TargetLength)
	assert.InDelta(t, -0.625, rec.VariancePct, 1e-9)
	assert.True(t, rec.WithinTolerance)
	assert.Equal(t, VerdictCompliant, rec.Verdict)
	assert.Equal(t, "formal", rec.StyleTag)
	assert.True(t, rec.StrictEnforced)
}

func TestValidate_BoundaryIsWithinTolerance(t *testing.T) {
	// 880 words vs 800 target is exactly +10%; <= counts as within.
	c := Constraint{TargetLength: 800, TolerancePct: 10, Strict: true}

	rec := Validate(words(880), c)

	assert.InDelta(t, 10.0, rec.VariancePct, 1e-9)
	assert.True(t, rec.WithinTolerance)
	assert.Equal(t, VerdictCompliant, rec.Verdict)
}

func TestValidate_LowerBoundary(t *testing.T) {
	c := Constraint{TargetLength: 800, TolerancePct: 10, Strict: true}

	rec := Validate(words(720), c)

	assert.InDelta(t, -10.0, rec.VariancePct, 1e-9)
	assert.True(t, rec.WithinTolerance)
}

func TestValidate_StrictViolation(t *testing.T) {
	c := Constraint{TargetLength: 800, TolerancePct: 10, Strict: true}

	rec := Validate(words(500), c)

	assert.False(t, rec.WithinTolerance)
	assert.Equal(t, VerdictViolation, rec.Verdict)
	assert.InDelta(t, -37.5, rec.VariancePct, 1e-9)
}

func TestValidate_LenientWarning(t *testing.T) {
	c := Constraint{TargetLength: 800, TolerancePct: 10, Strict: false}

	rec := Validate(words(500), c)

	assert.False(t, rec.WithinTolerance)
	assert.Equal(t, VerdictWarning, rec.Verdict)
}

func TestValidate_Deterministic(t *testing.T) {
	c := Constraint{TargetLength: 100, TolerancePct: 5, Style: "casual", Strict: true}
	text := words(97)

	first := Validate(text, c)
	second := Validate(text, c)

	assert.Equal(t, first, second)
}

func TestValidate_ZeroTarget(t *testing.T) {
	rec := Validate(words(50), Constraint{TargetLength: 0, TolerancePct: 10})

	assert.Equal(t, 0.0, rec.VariancePct)
	assert.True(t, rec.WithinTolerance)
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount("   \n\t "))
	assert.Equal(t, 3, WordCount("one two three"))
	assert.Equal(t, 3, WordCount("  one\ntwo\t\tthree  "))
}
