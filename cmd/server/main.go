package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gladlabs/copydesk/internal/api"
	"github.com/gladlabs/copydesk/internal/archive"
	"github.com/gladlabs/copydesk/internal/middleware"
	"github.com/gladlabs/copydesk/internal/queue"
	"github.com/gladlabs/copydesk/internal/store"
)

func main() {
	_ = godotenv.Load()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
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

	// The article archive is optional in the API process; without it only
	// the published-article listing is unavailable.
	var arch *archive.Archive
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		arch, err = archive.NewArchive(dsn)
		if err != nil {
			log.Fatal(err)
		}

		defer func() {
			if err := arch.Close(); err != nil {
				log.Printf("failed to close archive: %v", err)
			}
		}()
	}

	go startMetricsCollector(taskStore, q)

	mux := http.NewServeMux()
	mux.Handle("/api/", api.NewAPI(taskStore, q, arch))
	mux.Handle("/metrics", promhttp.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	log.Printf("Connected to Redis at %s", redisAddr)

	if err := http.ListenAndServe(":"+port, middleware.MetricsMiddleware(mux)); err != nil {
		log.Fatal(err)
	}
}
