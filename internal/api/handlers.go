// Package api exposes the caller-facing HTTP surface: submitting generation
// tasks, polling status, cancellation, and the published article listing.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gladlabs/copydesk/internal/archive"
	"github.com/gladlabs/copydesk/internal/constraint"
	"github.com/gladlabs/copydesk/internal/dashboard"
	"github.com/gladlabs/copydesk/internal/httputil"
	"github.com/gladlabs/copydesk/internal/metrics"
	"github.com/gladlabs/copydesk/internal/queue"
	"github.com/gladlabs/copydesk/internal/store"
	"github.com/gladlabs/copydesk/internal/task"
)

type API struct {
	store   store.TaskStore
	queue   *queue.Queue
	archive *archive.Archive
	mux     *http.ServeMux
}

type GenerateRequest struct {
	Topic        string   `json:"topic"`
	Style        string   `json:"style"`
	Tone         string   `json:"tone"`
	TargetLength int      `json:"target_length"`
	TolerancePct float64  `json:"tolerance_pct"`
	Strict       bool     `json:"strict"`
	Tags         []string `json:"tags"`
}

type StatusResponse struct {
	TaskID     string                       `json:"task_id"`
	Phase      task.Phase                   `json:"phase"`
	Status     task.Status                  `json:"status"`
	Compliance *constraint.ComplianceRecord `json:"compliance,omitempty"`
	Result     *task.Result                 `json:"result,omitempty"`
	Error      *task.PipelineError          `json:"error,omitempty"`
}

// NewAPI builds the handler. archive may be nil when the API process has no
// Postgres access; the articles endpoint then reports unavailable.
func NewAPI(s store.TaskStore, q *queue.Queue, a *archive.Archive) *API {
	api := &API{
		store:   s,
		queue:   q,
		archive: a,
		mux:     http.NewServeMux(),
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	a.mux.HandleFunc("/api/generate", a.handleGenerate)
	a.mux.HandleFunc("/api/status/", a.handleStatus)
	a.mux.HandleFunc("/api/tasks", a.handleListTasks)
	a.mux.HandleFunc("/api/tasks/", a.handleTaskAction)
	a.mux.HandleFunc("/api/articles", a.handleArticles)

	dash := dashboard.NewDashboard(a.store)
	a.mux.HandleFunc("/api/dashboard/stats", dash.GetStats)
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *API) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("failed to close request body: %v", err)
		}
	}()

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Topic) == "" {
		httputil.WriteJSONError(w, "Topic is required", http.StatusBadRequest)
		return
	}
	if req.TargetLength <= 0 {
		httputil.WriteJSONError(w, "target_length must be positive", http.StatusBadRequest)
		return
	}
	if req.TolerancePct < 0 {
		httputil.WriteJSONError(w, "tolerance_pct must not be negative", http.StatusBadRequest)
		return
	}

	t := task.NewTask(req.Topic, req.Style, req.Tone, req.Tags, constraint.Constraint{
		TargetLength: req.TargetLength,
		TolerancePct: req.TolerancePct,
		Style:        req.Style,
		Strict:       req.Strict,
	})

	if err := a.store.Create(r.Context(), t); err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := a.queue.Enqueue(r.Context(), t.ID, time.Now()); err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	metrics.RecordTaskSubmitted()

	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{
		"task_id": t.ID,
		"status":  string(task.StatusPending),
	})
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	taskID := strings.TrimPrefix(r.URL.Path, "/api/status/")
	if taskID == "" {
		httputil.WriteJSONError(w, "Task ID is required", http.StatusBadRequest)
		return
	}

	t, err := a.store.Get(r.Context(), taskID)
	if errors.Is(err, store.ErrNotFound) {
		httputil.WriteJSONError(w, "Task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		TaskID:     t.ID,
		Phase:      t.Phase,
		Status:     t.Status,
		Compliance: t.Compliance,
		Result:     t.Result,
		Error:      t.Error,
	})
}

func (a *API) handleListTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tasks, err := a.store.List(r.Context())
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filtered := tasks[:0]
		for _, t := range tasks {
			if t.Status == task.Status(status) {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}

	httputil.WriteJSON(w, http.StatusOK, tasks)
}

func (a *API) handleTaskAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/tasks/")

	if strings.HasSuffix(rest, "/cancel") {
		a.handleCancel(w, r, strings.TrimSuffix(rest, "/cancel"))
		return
	}

	if r.Method != http.MethodGet {
		httputil.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	t, err := a.store.Get(r.Context(), rest)
	if errors.Is(err, store.ErrNotFound) {
		httputil.WriteJSONError(w, "Task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, t)
}

func (a *API) handleCancel(w http.ResponseWriter, r *http.Request, taskID string) {
	if r.Method != http.MethodPost {
		httputil.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if taskID == "" {
		httputil.WriteJSONError(w, "Task ID is required", http.StatusBadRequest)
		return
	}

	err := a.store.RequestCancel(r.Context(), taskID)
	if errors.Is(err, store.ErrNotFound) {
		httputil.WriteJSONError(w, "Task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{
		"task_id": taskID,
		"cancel":  "requested",
	})
}

func (a *API) handleArticles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if a.archive == nil {
		httputil.WriteJSONError(w, "Article archive not configured", http.StatusServiceUnavailable)
		return
	}

	articles, err := a.archive.ListRecent(r.Context(), 20)
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, articles)
}
