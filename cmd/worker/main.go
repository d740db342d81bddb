package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gladlabs/copydesk/internal/archive"
	"github.com/gladlabs/copydesk/internal/httputil"
	"github.com/gladlabs/copydesk/internal/notify"
	"github.com/gladlabs/copydesk/internal/pipeline"
	"github.com/gladlabs/copydesk/internal/provider"
	"github.com/gladlabs/copydesk/internal/queue"
	"github.com/gladlabs/copydesk/internal/router"
	"github.com/gladlabs/copydesk/internal/store"
	"github.com/gladlabs/copydesk/internal/worker"
)

func main() {
	_ = godotenv.Load()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	postgresDSN := os.Getenv("POSTGRES_DSN")
	if postgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	arch, err := archive.NewArchive(postgresDSN)
	if err != nil {
		log.Fatal(err)
	}

	defer func() {
		if err := arch.Close(); err != nil {
			log.Printf("failed to close archive: %v", err)
		}
	}()

	ctx := context.Background()
	if err := arch.EnsureSchema(ctx); err != nil {
		log.Fatal(err)
	}

	taskStore, err := store.NewRedisStore(redisAddr)
	if err != nil {
		log.Fatal(err)
	}

	defer func() {
		if err := taskStore.Close(); err != nil {
			log.Printf("failed to close task store: %v", err)
		}
	}()

	q, err := queue.NewQueue(redisAddr)
	if err != nil {
		log.Fatal(err)
	}

	defer func() {
		if err := q.Close(); err != nil {
			log.Printf("failed to close intake queue: %v", err)
		}
	}()

	chain := provider.ChainFromEnv(ctx)
	for _, a := range chain {
		log.Printf("Provider configured: %s (cost $%.4f/1k tokens)", a.ID(), a.CostPer1K())
	}
	rt := router.New(chain)

	var opts []pipeline.Option
	if notifier := notify.NewEmailNotifierFromEnv(); notifier != nil {
		opts = append(opts, pipeline.WithNotifier(notifier))
	}
	orch := pipeline.New(taskStore, rt, arch, opts...)

	workerID := os.Getenv("WORKER_ID")
	if workerID == "" {
		workerID = fmt.Sprintf("worker-%d", time.Now().Unix())
	}

	poolSize := 4
	if v := os.Getenv("WORKER_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			poolSize = n
		}
	}

	pool := worker.NewPool(workerID, q, orch, poolSize)
	pool.Start(ctx)

	go serveAdmin(rt)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down worker pool...")
	pool.Stop()
}

// serveAdmin exposes Prometheus metrics and the provider chain snapshot on a
// side port.
func serveAdmin(rt *router.Router) {
	port := os.Getenv("ADMIN_PORT")
	if port == "" {
		port = "9090"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/providers", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, rt.Snapshot())
	})

	log.Printf("Admin endpoint on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("admin server stopped: %v", err)
	}
}
