// Package httpapi is the admin HTTP surface (A3): health check, queue
// depth stats, and a manual job trigger for operators — a deliberately
// small replacement for the teacher's GraphQL API, which served a browser
// dossier UI that is out of scope here.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/models"
	"github.com/scsilverstein/silver-fin-monitor-sub004/server/internal/queue"
	"go.uber.org/zap"
)

// NewRouter builds the admin HTTP surface bound to the given queue.
func NewRouter(q *queue.Service, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler)
	r.Get("/queue/stats", queueStatsHandler(q, log))
	r.Post("/jobs", triggerJobHandler(q, log))

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func queueStatsHandler(q *queue.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := q.Stats(r.Context())
		if err != nil {
			log.Error("queue stats", zap.Error(err))
			http.Error(w, "failed to read queue stats", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats)
	}
}

// triggerJobRequest is the manual-trigger request body: an operator names a
// job kind and the payload it should carry, bypassing the Freshness Trigger.
type triggerJobRequest struct {
	Kind     models.JobKind    `json:"kind"`
	Payload  map[string]string `json:"payload"`
	Priority int               `json:"priority"`
}

func triggerJobHandler(q *queue.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req triggerJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Kind == "" {
			http.Error(w, "kind is required", http.StatusBadRequest)
			return
		}
		priority := req.Priority
		if priority == 0 {
			priority = models.DefaultPriority
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		deduped, err := q.Enqueue(ctx, req.Kind, req.Payload, priority, 0)
		if err != nil {
			log.Error("manual job trigger", zap.String("kind", string(req.Kind)), zap.Error(err))
			http.Error(w, "failed to enqueue job", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"deduped": deduped})
	}
}
