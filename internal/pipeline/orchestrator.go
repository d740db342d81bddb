// Package pipeline drives the self-critique content pipeline: a bounded
// state machine running research, draft, critique, refine, illustrate and
// publish phases for one task. Phase executors return proposed outputs; only
// the orchestrator commits task mutations to the store, and every transition
// is persisted before the next phase runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gladlabs/copydesk/internal/archive"
	"github.com/gladlabs/copydesk/internal/constraint"
	"github.com/gladlabs/copydesk/internal/metrics"
	"github.com/gladlabs/copydesk/internal/provider"
	"github.com/gladlabs/copydesk/internal/router"
	"github.com/gladlabs/copydesk/internal/store"
	"github.com/gladlabs/copydesk/internal/task"
)

const (
	DefaultMaxDraftAttempts  = 2
	DefaultMaxRefineAttempts = 1
)

// Generator routes one generation request through the provider chain.
type Generator interface {
	Generate(ctx context.Context, req provider.Request) (*router.Result, error)
}

// Publisher is the external write-sink the publish phase commits articles to.
type Publisher interface {
	PublishArticle(ctx context.Context, art *archive.Article) error
}

// Notifier is told when a task reaches a terminal status.
type Notifier interface {
	TaskFinished(t *task.Task) error
}

type Orchestrator struct {
	store    store.TaskStore
	gen      Generator
	sink     Publisher
	notifier Notifier

	maxDraftAttempts  int
	maxRefineAttempts int
}

type Option func(*Orchestrator)

func WithMaxDraftAttempts(n int) Option {
	return func(o *Orchestrator) { o.maxDraftAttempts = n }
}

func WithMaxRefineAttempts(n int) Option {
	return func(o *Orchestrator) { o.maxRefineAttempts = n }
}

func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

func New(s store.TaskStore, gen Generator, sink Publisher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:             s,
		gen:               gen,
		sink:              sink,
		maxDraftAttempts:  DefaultMaxDraftAttempts,
		maxRefineAttempts: DefaultMaxRefineAttempts,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Run executes the full pipeline for one task. It returns an error only when
// the task could not even be loaded; pipeline failures are committed to the
// store as status=failed and reported through the status API instead.
func (o *Orchestrator) Run(ctx context.Context, id string) error {
	t, err := o.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load task %s: %w", id, err)
	}
	if t.Terminal() {
		log.Printf("Task %s already terminal (%s), skipping", id, t.Status)
		return nil
	}

	now := time.Now()
	t.Status = task.StatusRunning
	t.StartedAt = &now
	t.Phase = task.PhaseResearch
	if err := o.commit(ctx, t); err != nil {
		return err
	}

	// RESEARCH: failure is fatal, there is nothing to draft from.
	research, err := o.withPhase(ctx, t, task.PhaseResearch, func() (string, error) {
		return o.runResearch(ctx, t)
	})
	if err != nil {
		return o.fail(ctx, t, task.PhaseResearch, err, false)
	}

	// DRAFT with bounded self-correction before critique.
	draft, err := o.withPhase(ctx, t, task.PhaseDraft, func() (string, error) {
		return o.runDraftLoop(ctx, t, research)
	})
	if err != nil {
		return o.fail(ctx, t, task.PhaseDraft, err, true)
	}

	// CRITIQUE never blocks: if no provider can produce a critique, refine
	// proceeds without revision instructions.
	critique, err := o.withPhase(ctx, t, task.PhaseCritique, func() (string, error) {
		return o.runCritique(ctx, t, draft)
	})
	if err != nil {
		if isCancelled(err) || errors.Is(err, errStore) {
			return o.fail(ctx, t, task.PhaseCritique, err, false)
		}
		log.Printf("Task %s: critique unavailable, refining without feedback: %v", t.ID, err)
		critique = ""
	}

	// REFINE with at most one strict-mode length correction pass.
	refined, err := o.withPhase(ctx, t, task.PhaseRefine, func() (string, error) {
		return o.runRefineLoop(ctx, t, draft, critique)
	})
	if err != nil {
		return o.fail(ctx, t, task.PhaseRefine, err, true)
	}

	// The artifact is assembled before illustrate/publish so a late failure
	// never discards generated content.
	title, body := splitTitle(refined)
	t.Result = &task.Result{
		Title:     title,
		Body:      body,
		Tags:      t.Tags,
		WordCount: constraint.WordCount(body),
	}
	if err := o.commit(ctx, t); err != nil {
		return o.fail(ctx, t, t.Phase, err, true)
	}

	// ILLUSTRATE is best-effort: failure degrades to no image.
	imageURL, err := o.withPhase(ctx, t, task.PhaseIllustrate, func() (string, error) {
		return o.runIllustrate(ctx, t)
	})
	if err != nil {
		if isCancelled(err) || errors.Is(err, errStore) {
			return o.fail(ctx, t, task.PhaseIllustrate, err, false)
		}
		log.Printf("Task %s: illustrate failed, continuing without image: %v", t.ID, err)
	} else {
		t.Result.ImageURL = imageURL
	}

	// PUBLISH: sink failure is fatal but the result stays on the task.
	_, err = o.withPhase(ctx, t, task.PhasePublish, func() (string, error) {
		return "", o.runPublish(ctx, t)
	})
	if err != nil {
		return o.fail(ctx, t, task.PhasePublish, err, true)
	}

	t.Phase = task.PhaseDone
	t.Status = task.StatusCompleted
	done := time.Now()
	t.CompletedAt = &done
	if err := o.commit(ctx, t); err != nil {
		return o.fail(ctx, t, task.PhaseDone, err, true)
	}

	metrics.RecordTaskCompleted()
	o.notify(t)
	log.Printf("Task %s completed (verdict: %s)", t.ID, finalVerdict(t))

	return nil
}

var errCancelled = errors.New("cancelled by caller")

func isCancelled(err error) bool {
	return errors.Is(err, errCancelled)
}

// withPhase commits the transition into phase, honors a pending cancellation
// at the boundary, runs fn and records the phase duration.
func (o *Orchestrator) withPhase(ctx context.Context, t *task.Task, phase task.Phase, fn func() (string, error)) (string, error) {
	if cancelled, err := o.cancellationRequested(ctx, t); err == nil && cancelled {
		return "", errCancelled
	}
	if err := ctx.Err(); err != nil {
		return "", errCancelled
	}

	t.Phase = phase
	if err := o.commit(ctx, t); err != nil {
		return "", err
	}

	start := time.Now()
	out, err := fn()
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.RecordPhase(string(phase), outcome, time.Since(start))

	return out, err
}

// cancellationRequested re-reads the task so a cancel flag set by the API
// since the last commit is seen at the phase boundary.
func (o *Orchestrator) cancellationRequested(ctx context.Context, t *task.Task) (bool, error) {
	fresh, err := o.store.Get(ctx, t.ID)
	if err != nil {
		return false, err
	}
	if fresh.CancelRequested {
		t.CancelRequested = true
	}

	return fresh.CancelRequested, nil
}

// errStore marks persistence failures, which are always fatal to the task:
// content that cannot be confirmed durable cannot be reported as progress.
var errStore = errors.New("task store update failed")

func (o *Orchestrator) commit(ctx context.Context, t *task.Task) error {
	t.UpdatedAt = time.Now()
	if err := o.store.Update(ctx, t); err != nil {
		return fmt.Errorf("%w: %v", errStore, err)
	}

	return nil
}

// fail moves the task to its terminal failed status. The generated result,
// if any, is preserved so the caller can retry publish without regenerating.
func (o *Orchestrator) fail(ctx context.Context, t *task.Task, phase task.Phase, cause error, retryable bool) error {
	if isCancelled(cause) {
		retryable = false
	}

	t.Status = task.StatusFailed
	t.Error = &task.PipelineError{
		Phase:     phase,
		Cause:     cause.Error(),
		Retryable: retryable,
	}
	done := time.Now()
	t.CompletedAt = &done

	if err := o.commit(ctx, t); err != nil {
		log.Printf("Task %s: failed to persist failure: %v", t.ID, err)
	}

	metrics.RecordTaskFailed(string(phase))
	o.notify(t)
	log.Printf("Task %s failed in %s: %v", t.ID, phase, cause)

	return nil
}

func (o *Orchestrator) notify(t *task.Task) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.TaskFinished(t); err != nil {
		log.Printf("Task %s: notification failed: %v", t.ID, err)
	}
}

// generate routes one model call and records routing metrics.
func (o *Orchestrator) generate(ctx context.Context, req provider.Request) (string, error) {
	res, err := o.gen.Generate(ctx, req)
	if err != nil {
		return "", err
	}

	inv := res.Invocation
	metrics.RecordInvocation(inv.Provider, inv.FallbackDepth, inv.EstimatedCost)

	return res.Text, nil
}

func finalVerdict(t *task.Task) constraint.Verdict {
	if t.Compliance == nil {
		return constraint.VerdictCompliant
	}

	return t.Compliance.Verdict
}
