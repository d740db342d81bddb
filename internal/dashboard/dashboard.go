// Package dashboard implements the monitoring endpoint aggregating task and
// compliance statistics.
package dashboard

import (
	"net/http"
	"time"

	"github.com/gladlabs/copydesk/internal/httputil"
	"github.com/gladlabs/copydesk/internal/store"
	"github.com/gladlabs/copydesk/internal/task"
)

type Dashboard struct {
	store store.TaskStore
}

type Stats struct {
	TotalTasks     int            `json:"total_tasks"`
	PendingTasks   int            `json:"pending_tasks"`
	RunningTasks   int            `json:"running_tasks"`
	CompletedTasks int            `json:"completed_tasks"`
	FailedTasks    int            `json:"failed_tasks"`
	TasksByPhase   map[string]int `json:"tasks_by_phase"`
	Verdicts       map[string]int `json:"verdicts"`
	AverageRuntime string         `json:"average_runtime"`
	LastUpdated    time.Time      `json:"last_updated"`
}

func NewDashboard(s store.TaskStore) *Dashboard {
	return &Dashboard{store: s}
}

func (d *Dashboard) GetStats(w http.ResponseWriter, r *http.Request) {
	tasks, err := d.store.List(r.Context())
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	stats := Stats{
		TotalTasks:   len(tasks),
		TasksByPhase: make(map[string]int),
		Verdicts:     make(map[string]int),
		LastUpdated:  time.Now(),
	}

	var totalRuntime time.Duration
	runtimeCount := 0

	for _, t := range tasks {
		switch t.Status {
		case task.StatusPending:
			stats.PendingTasks++
		case task.StatusRunning:
			stats.RunningTasks++
		case task.StatusCompleted:
			stats.CompletedTasks++
		case task.StatusFailed:
			stats.FailedTasks++
		}

		stats.TasksByPhase[string(t.Phase)]++

		if t.Compliance != nil {
			stats.Verdicts[string(t.Compliance.Verdict)]++
		}

		if t.StartedAt != nil && t.CompletedAt != nil {
			totalRuntime += t.CompletedAt.Sub(*t.StartedAt)
			runtimeCount++
		}
	}

	if runtimeCount > 0 {
		stats.AverageRuntime = (totalRuntime / time.Duration(runtimeCount)).Round(time.Millisecond).String()
	} else {
		stats.AverageRuntime = "0s"
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}
