package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gladlabs/copydesk/internal/archive"
	"github.com/gladlabs/copydesk/internal/constraint"
	"github.com/gladlabs/copydesk/internal/metrics"
	"github.com/gladlabs/copydesk/internal/provider"
	"github.com/gladlabs/copydesk/internal/task"
)

func (o *Orchestrator) runResearch(ctx context.Context, t *task.Task) (string, error) {
	prompt := fmt.Sprintf(
		"Research the topic %q for an article. List the key facts, angles, and context a writer would need. Be concise and factual.",
		t.Topic,
	)

	return o.generate(ctx, provider.Request{
		System:      "You are a research assistant for an editorial team.",
		Prompt:      prompt,
		Temperature: 0.3,
	})
}

// runDraftLoop drafts the article and re-drafts with an adjusted length hint
// while the validator reports a violation, up to maxDraftAttempts retries.
// The final text always proceeds to critique, flagged or not.
func (o *Orchestrator) runDraftLoop(ctx context.Context, t *task.Task, research string) (string, error) {
	var lengthHint string
	for {
		text, err := o.generate(ctx, provider.Request{
			System:      "You are a professional writer. Begin the article with a single markdown heading line for the title.",
			Prompt:      draftPrompt(t, research, lengthHint),
			Temperature: 0.7,
		})
		if err != nil {
			return "", err
		}

		rec := constraint.Validate(text, t.Constraint)
		t.RecordCompliance(task.PhaseDraft, rec)
		metrics.RecordVerdict(string(task.PhaseDraft), string(rec.Verdict))

		if rec.Verdict == constraint.VerdictViolation && t.Attempts[task.PhaseDraft] < o.maxDraftAttempts {
			t.Attempts[task.PhaseDraft]++
			metrics.RecordPhaseRetry(string(task.PhaseDraft))
			lengthHint = lengthCorrection(rec)
			if err := o.commit(ctx, t); err != nil {
				return "", err
			}
			continue
		}

		return text, nil
	}
}

func (o *Orchestrator) runCritique(ctx context.Context, t *task.Task, draft string) (string, error) {
	prompt := fmt.Sprintf(
		"Critique the following article draft. List concrete issues (clarity, structure, tone vs %q, style vs %q) and give numbered revision instructions.\n\n%s",
		t.Tone, t.Constraint.Style, draft,
	)

	return o.generate(ctx, provider.Request{
		System:      "You are a demanding but constructive editor.",
		Prompt:      prompt,
		Temperature: 0.4,
	})
}

// runRefineLoop rewrites the draft using the critique. In strict mode a
// persisting violation earns at most maxRefineAttempts explicit length
// correction passes; after that the text proceeds with the violation flagged.
func (o *Orchestrator) runRefineLoop(ctx context.Context, t *task.Task, draft, critique string) (string, error) {
	var lengthHint string
	for {
		text, err := o.generate(ctx, provider.Request{
			System:      "You are a professional writer revising your own work. Keep the single markdown heading line for the title.",
			Prompt:      refinePrompt(t, draft, critique, lengthHint),
			Temperature: 0.6,
		})
		if err != nil {
			return "", err
		}

		rec := constraint.Validate(text, t.Constraint)
		t.RecordCompliance(task.PhaseRefine, rec)
		metrics.RecordVerdict(string(task.PhaseRefine), string(rec.Verdict))

		if rec.StrictEnforced && rec.Verdict == constraint.VerdictViolation && t.Attempts[task.PhaseRefine] < o.maxRefineAttempts {
			t.Attempts[task.PhaseRefine]++
			metrics.RecordPhaseRetry(string(task.PhaseRefine))
			lengthHint = lengthCorrection(rec)
			if err := o.commit(ctx, t); err != nil {
				return "", err
			}
			continue
		}

		return text, nil
	}
}

// runIllustrate asks for an image search query and turns it into a stock
// photo reference. Callers treat any error here as "no image".
func (o *Orchestrator) runIllustrate(ctx context.Context, t *task.Task) (string, error) {
	query, err := o.generate(ctx, provider.Request{
		System:      "You pick cover images for articles.",
		Prompt:      fmt.Sprintf("Suggest a short stock-photo search query (3-6 words, one line, no punctuation) for an article about %q.", t.Topic),
		Temperature: 0.5,
		MaxTokens:   50,
	})
	if err != nil {
		return "", err
	}

	query = firstLine(query)
	if query == "" {
		return "", fmt.Errorf("empty image query")
	}

	return "https://source.unsplash.com/featured/?" + url.QueryEscape(query), nil
}

func (o *Orchestrator) runPublish(ctx context.Context, t *task.Task) error {
	art := &archive.Article{
		TaskID:      t.ID,
		Title:       t.Result.Title,
		Body:        t.Result.Body,
		Tags:        t.Result.Tags,
		ImageURL:    t.Result.ImageURL,
		WordCount:   t.Result.WordCount,
		PublishedAt: time.Now(),
	}

	if err := o.sink.PublishArticle(ctx, art); err != nil {
		return fmt.Errorf("publish sink write failed: %w", err)
	}

	return nil
}

func draftPrompt(t *task.Task, research, lengthHint string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write an article about %q.\n", t.Topic)
	fmt.Fprintf(&b, "Style: %s. Tone: %s.\n", t.Constraint.Style, t.Tone)
	fmt.Fprintf(&b, "Target length: %d words (stay within %.0f%%).\n", t.Constraint.TargetLength, t.Constraint.TolerancePct)
	if lengthHint != "" {
		b.WriteString(lengthHint + "\n")
	}
	if research != "" {
		b.WriteString("\nResearch notes:\n" + research + "\n")
	}

	return b.String()
}

func refinePrompt(t *task.Task, draft, critique, lengthHint string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Revise the article below. Target length: %d words (stay within %.0f%%). Style: %s. Tone: %s.\n",
		t.Constraint.TargetLength, t.Constraint.TolerancePct, t.Constraint.Style, t.Tone)
	if lengthHint != "" {
		b.WriteString(lengthHint + "\n")
	}
	if critique != "" {
		b.WriteString("\nEditor feedback to address:\n" + critique + "\n")
	}
	b.WriteString("\nArticle:\n" + draft + "\n")

	return b.String()
}

// lengthCorrection turns a violating compliance record into an explicit
// instruction for the next attempt.
func lengthCorrection(rec constraint.ComplianceRecord) string {
	direction := "Expand"
	if rec.VariancePct > 0 {
		direction = "Shorten"
	}

	return fmt.Sprintf(
		"IMPORTANT: the previous version was %d words, %.1f%% off the %d word target. %s the text to land within %.0f%% of the target.",
		rec.ActualLength, rec.VariancePct, rec.TargetLength, direction, rec.TolerancePct,
	)
}

// splitTitle extracts the leading markdown heading as the title, falling
// back to the first line. The body never keeps the heading marker.
func splitTitle(text string) (title, body string) {
	text = strings.TrimSpace(text)
	line := firstLine(text)
	rest := strings.TrimSpace(strings.TrimPrefix(text, line))

	title = strings.TrimSpace(strings.TrimLeft(line, "# "))
	if title != "" && rest != "" {
		return title, rest
	}

	return title, strings.TrimSpace(strings.TrimLeft(text, "# "))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}

	return s
}
