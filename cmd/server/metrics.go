package main

import (
	"context"
	"log"
	"time"

	"github.com/gladlabs/copydesk/internal/metrics"
	"github.com/gladlabs/copydesk/internal/queue"
	"github.com/gladlabs/copydesk/internal/store"
)

func startMetricsCollector(s store.TaskStore, q *queue.Queue) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		updateTaskMetrics(s, q)
	}
}

func updateTaskMetrics(s store.TaskStore, q *queue.Queue) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tasks, err := s.List(ctx)
	if err != nil {
		log.Printf("Failed to list tasks for metrics: %v", err)
		return
	}

	byStatusPhase := make(map[string]map[string]int)
	for _, t := range tasks {
		status := string(t.Status)
		if byStatusPhase[status] == nil {
			byStatusPhase[status] = make(map[string]int)
		}
		byStatusPhase[status][string(t.Phase)]++
	}

	metrics.UpdateTaskGauges(byStatusPhase)

	depth, err := q.Depth(ctx)
	if err == nil {
		metrics.UpdateQueueDepth(depth)
	}
}
