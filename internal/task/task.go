// Package task defines the content pipeline task domain model used by the
// orchestrator, store and API layers. It contains the phase and status
// definitions, the generation constraint, and serialization helpers.
package task

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/gladlabs/copydesk/internal/constraint"
)

type (
	Phase  string
	Status string
)

const (
	PhaseResearch   Phase = "research"
	PhaseDraft      Phase = "draft"
	PhaseCritique   Phase = "critique"
	PhaseRefine     Phase = "refine"
	PhaseIllustrate Phase = "illustrate"
	PhasePublish    Phase = "publish"
	PhaseDone       Phase = "done"
)

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Result is the final article artifact, populated before the publish phase
// commits so that a publish failure never discards generated content.
type Result struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags,omitempty"`
	ImageURL  string   `json:"image_url,omitempty"`
	WordCount int      `json:"word_count"`
}

// PipelineError records why a task failed and where.
type PipelineError struct {
	Phase     Phase  `json:"phase"`
	Cause     string `json:"cause"`
	Retryable bool   `json:"retryable"`
}

type Task struct {
	ID         string                `json:"id"`
	Topic      string                `json:"topic"`
	Style      string                `json:"style"`
	Tone       string                `json:"tone"`
	Tags       []string              `json:"tags,omitempty"`
	Constraint constraint.Constraint `json:"constraint"`

	Phase    Phase         `json:"phase"`
	Status   Status        `json:"status"`
	Attempts map[Phase]int `json:"attempts_per_phase"`

	Compliance        *constraint.ComplianceRecord  `json:"compliance,omitempty"`
	ComplianceHistory []constraint.ComplianceRecord `json:"compliance_history,omitempty"`

	Result *Result        `json:"result,omitempty"`
	Error  *PipelineError `json:"error,omitempty"`

	CancelRequested bool `json:"cancel_requested,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func NewTask(topic, style, tone string, tags []string, c constraint.Constraint) *Task {
	now := time.Now()
	return &Task{
		ID:         uuid.New().String(),
		Topic:      topic,
		Style:      style,
		Tone:       tone,
		Tags:       tags,
		Constraint: c,
		Phase:      PhaseResearch,
		Status:     StatusPending,
		Attempts:   make(map[Phase]int),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Terminal reports whether the task has reached a final status.
func (t *Task) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// RecordCompliance attaches rec as the latest snapshot and appends it to the
// per-phase history.
func (t *Task) RecordCompliance(phase Phase, rec constraint.ComplianceRecord) {
	rec.Phase = string(phase)
	t.Compliance = &rec
	t.ComplianceHistory = append(t.ComplianceHistory, rec)
}

func (t *Task) ToJSON() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func FromJSON(data string) (*Task, error) {
	var t Task
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, err
	}

	return &t, nil
}
