package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gladlabs/copydesk/internal/constraint"
	"github.com/gladlabs/copydesk/internal/queue"
	"github.com/gladlabs/copydesk/internal/store"
	"github.com/gladlabs/copydesk/internal/task"
)

func setupTestAPI(t *testing.T) (*API, *store.MockStore, *queue.Queue, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	q, err := queue.NewQueue(mr.Addr())
	require.NoError(t, err)

	s := store.NewMockStore()
	return NewAPI(s, q, nil), s, q, mr
}

func postJSON(t *testing.T, api *API, path string, body any) *httptest.ResponseRecorder {
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	api.ServeHTTP(w, req)

	return w
}

func TestGenerate(t *testing.T) {
	api, s, q, mr := setupTestAPI(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	w := postJSON(t, api, "/api/generate", GenerateRequest{
		Topic:        "solar power",
		Style:        "formal",
		Tone:         "optimistic",
		TargetLength: 800,
		TolerancePct: 10,
		Strict:       true,
		Tags:         []string{"energy"},
	})

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["task_id"])
	assert.Equal(t, "pending", resp["status"])

	// Task persisted and queued.
	require.Len(t, s.CreateCalls, 1)
	created, err := s.Get(context.Background(), resp["task_id"])
	require.NoError(t, err)
	assert.Equal(t, "solar power", created.Topic)
	assert.True(t, created.Constraint.Strict)

	id, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, resp["task_id"], id)
}

func TestGenerate_Validation(t *testing.T) {
	api, _, q, mr := setupTestAPI(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	w := postJSON(t, api, "/api/generate", GenerateRequest{TargetLength: 800})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, api, "/api/generate", GenerateRequest{Topic: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, api, "/api/generate", GenerateRequest{Topic: "x", TargetLength: 800, TolerancePct: -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerate_MethodNotAllowed(t *testing.T) {
	api, _, q, mr := setupTestAPI(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	req := httptest.NewRequest(http.MethodGet, "/api/generate", nil)
	w := httptest.NewRecorder()
	api.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestStatus(t *testing.T) {
	api, s, q, mr := setupTestAPI(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	tsk := task.NewTask("topic", "formal", "neutral", nil, constraint.Constraint{TargetLength: 800, TolerancePct: 10, Strict: true})
	tsk.Status = task.StatusCompleted
	tsk.Phase = task.PhaseDone
	tsk.Compliance = &constraint.ComplianceRecord{Verdict: constraint.VerdictViolation, ActualLength: 500, TargetLength: 800}
	tsk.Result = &task.Result{Title: "Title", Body: "body"}
	require.NoError(t, s.Create(context.Background(), tsk))

	req := httptest.NewRequest(http.MethodGet, "/api/status/"+tsk.ID, nil)
	w := httptest.NewRecorder()
	api.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, tsk.ID, resp.TaskID)
	assert.Equal(t, task.StatusCompleted, resp.Status)
	assert.Equal(t, task.PhaseDone, resp.Phase)

	// A violation is surfaced alongside completed, never hidden.
	require.NotNil(t, resp.Compliance)
	assert.Equal(t, constraint.VerdictViolation, resp.Compliance.Verdict)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "Title", resp.Result.Title)
}

func TestStatus_NotFound(t *testing.T) {
	api, _, q, mr := setupTestAPI(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	req := httptest.NewRequest(http.MethodGet, "/api/status/missing", nil)
	w := httptest.NewRecorder()
	api.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatus_FailedTaskIsWellFormed(t *testing.T) {
	api, s, q, mr := setupTestAPI(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	tsk := task.NewTask("topic", "", "", nil, constraint.Constraint{TargetLength: 800})
	tsk.Status = task.StatusFailed
	tsk.Phase = task.PhasePublish
	tsk.Error = &task.PipelineError{Phase: task.PhasePublish, Cause: "sink down", Retryable: true}
	tsk.Result = &task.Result{Title: "Kept", Body: "content"}
	require.NoError(t, s.Create(context.Background(), tsk))

	req := httptest.NewRequest(http.MethodGet, "/api/status/"+tsk.ID, nil)
	w := httptest.NewRecorder()
	api.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, task.PhasePublish, resp.Error.Phase)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "Kept", resp.Result.Title)
}

func TestListTasks_StatusFilter(t *testing.T) {
	api, s, q, mr := setupTestAPI(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	done := task.NewTask("a", "", "", nil, constraint.Constraint{TargetLength: 100})
	done.Status = task.StatusCompleted
	pending := task.NewTask("b", "", "", nil, constraint.Constraint{TargetLength: 100})
	require.NoError(t, s.Create(context.Background(), done))
	require.NoError(t, s.Create(context.Background(), pending))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks?status=completed", nil)
	w := httptest.NewRecorder()
	api.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var tasks []*task.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, done.ID, tasks[0].ID)
}

func TestCancel(t *testing.T) {
	api, s, q, mr := setupTestAPI(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	tsk := task.NewTask("topic", "", "", nil, constraint.Constraint{TargetLength: 100})
	require.NoError(t, s.Create(context.Background(), tsk))

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+tsk.ID+"/cancel", nil)
	w := httptest.NewRecorder()
	api.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, s.CancelCalls, tsk.ID)
}

func TestCancel_NotFound(t *testing.T) {
	api, _, q, mr := setupTestAPI(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/missing/cancel", nil)
	w := httptest.NewRecorder()
	api.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestArticles_Unconfigured(t *testing.T) {
	api, _, q, mr := setupTestAPI(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	w := httptest.NewRecorder()
	api.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
