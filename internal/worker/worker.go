// Package worker provides the background pool that drains the intake queue
// and runs the pipeline for each task. Each task runs on one goroutine;
// phases within a task are strictly sequential, and the pool size caps how
// many tasks generate concurrently.
package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gladlabs/copydesk/internal/metrics"
	"github.com/gladlabs/copydesk/internal/pipeline"
	"github.com/gladlabs/copydesk/internal/queue"
)

type Pool struct {
	id           string
	queue        *queue.Queue
	orch         *pipeline.Orchestrator
	size         int
	pollInterval time.Duration
	stop         chan struct{}
	wg           sync.WaitGroup
}

func NewPool(id string, q *queue.Queue, orch *pipeline.Orchestrator, size int) *Pool {
	if size <= 0 {
		size = 4
	}

	return &Pool{
		id:           id,
		queue:        q,
		orch:         orch,
		size:         size,
		pollInterval: time.Second,
		stop:         make(chan struct{}),
	}
}

func (p *Pool) SetPollInterval(d time.Duration) {
	p.pollInterval = d
}

func (p *Pool) Start(ctx context.Context) {
	log.Printf("Worker pool %s started with %d workers", p.id, p.size)

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.loop(ctx, i)
	}
}

func (p *Pool) loop(ctx context.Context, n int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		default:
			taskID, err := p.queue.Dequeue(ctx)
			if err != nil {
				log.Printf("Worker %s-%d: dequeue failed: %v", p.id, n, err)
				time.Sleep(p.pollInterval)
				continue
			}
			if taskID == "" {
				time.Sleep(p.pollInterval)
				continue
			}

			p.runTask(ctx, n, taskID)
		}
	}
}

func (p *Pool) runTask(ctx context.Context, n int, taskID string) {
	log.Printf("Worker %s-%d picked up task %s", p.id, n, taskID)
	metrics.WorkersActive.Inc()
	defer metrics.WorkersActive.Dec()

	if err := p.orch.Run(ctx, taskID); err != nil {
		log.Printf("Worker %s-%d: task %s did not run: %v", p.id, n, taskID, err)
	}
}

// Stop signals all workers and waits for in-flight tasks to finish.
func (p *Pool) Stop() {
	close(p.stop)
	p.wg.Wait()
	log.Printf("Worker pool %s stopped", p.id)
}
