package task

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gladlabs/copydesk/internal/constraint"
)

func TestNewTask(t *testing.T) {
	c := constraint.Constraint{TargetLength: 800, TolerancePct: 10, Style: "formal", Strict: true}

	tsk := NewTask("solar power", "formal", "optimistic", []string{"energy"}, c)

	assert.NotEmpty(t, tsk.ID)
	assert.Equal(t, "solar power", tsk.Topic)
	assert.Equal(t, "formal", tsk.Style)
	assert.Equal(t, "optimistic", tsk.Tone)
	assert.Equal(t, []string{"energy"}, tsk.Tags)
	assert.Equal(t, c, tsk.Constraint)
	assert.Equal(t, PhaseResearch, tsk.Phase)
	assert.Equal(t, StatusPending, tsk.Status)
	assert.NotNil(t, tsk.Attempts)
	assert.Nil(t, tsk.Compliance)
	assert.Nil(t, tsk.Result)
	assert.False(t, tsk.CreatedAt.IsZero())
}

func TestTerminal(t *testing.T) {
	tsk := NewTask("topic", "", "", nil, constraint.Constraint{TargetLength: 100})

	assert.False(t, tsk.Terminal())

	tsk.Status = StatusRunning
	assert.False(t, tsk.Terminal())

	tsk.Status = StatusCompleted
	assert.True(t, tsk.Terminal())

	tsk.Status = StatusFailed
	assert.True(t, tsk.Terminal())
}

func TestRecordCompliance(t *testing.T) {
	tsk := NewTask("topic", "", "", nil, constraint.Constraint{TargetLength: 100})

	rec := constraint.Validate("some words here", tsk.Constraint)
	tsk.RecordCompliance(PhaseDraft, rec)

	assert.NotNil(t, tsk.Compliance)
	assert.Equal(t, string(PhaseDraft), tsk.Compliance.Phase)
	assert.Len(t, tsk.ComplianceHistory, 1)

	rec2 := constraint.Validate("more words over here now", tsk.Constraint)
	tsk.RecordCompliance(PhaseRefine, rec2)

	assert.Equal(t, string(PhaseRefine), tsk.Compliance.Phase)
	assert.Len(t, tsk.ComplianceHistory, 2)
	assert.Equal(t, string(PhaseDraft), tsk.ComplianceHistory[0].Phase)
}

func TestJSONRoundTrip(t *testing.T) {
	original := NewTask("topic", "casual", "witty", []string{"a", "b"}, constraint.Constraint{TargetLength: 500, TolerancePct: 15})
	original.Attempts[PhaseDraft] = 2
	original.Result = &Result{Title: "A Title", Body: "body text", WordCount: 2}
	original.Error = &PipelineError{Phase: PhasePublish, Cause: "sink down", Retryable: true}

	data, err := original.ToJSON()
	assert.NoError(t, err)

	restored, err := FromJSON(data)
	assert.NoError(t, err)
	assert.Equal(t, original.ID, restored.ID)
	assert.Equal(t, original.Topic, restored.Topic)
	assert.Equal(t, original.Constraint, restored.Constraint)
	assert.Equal(t, 2, restored.Attempts[PhaseDraft])
	assert.Equal(t, original.Result, restored.Result)
	assert.Equal(t, original.Error, restored.Error)
}

func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON("not json")

	assert.Error(t, err)
}
