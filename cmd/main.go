// zepul-pipeline-service
//
// Candidate pipeline engine for the Zepul recruitment marketplace.
// Exposes a REST API used by the Gateway to implement:
//   - changeStatus(candidateId, status)    — state machine transitions
//   - addNote / setScore / flag            — candidate annotations
//   - breakdown / performance queries      — company dashboard aggregates
//   - assignRecruiters(jobId, recruiters)  — whole-set recruiter assignment
//
// Status transitions feed an idempotent counter ledger; a cron job
// periodically rebuilds the ledger from candidate history.
// Publishes EVENT_CANDIDATE_STATUS_CHANGED to Redis for Gateway SSE forward.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"zepul/pipeline-service/internal/assignment"
	"zepul/pipeline-service/internal/auth"
	"zepul/pipeline-service/internal/config"
	"zepul/pipeline-service/internal/db"
	"zepul/pipeline-service/internal/httpserver"
	"zepul/pipeline-service/internal/ledger"
	"zepul/pipeline-service/internal/notify"
	"zepul/pipeline-service/internal/pipeline"
	"zepul/pipeline-service/internal/query"
	"zepul/pipeline-service/internal/reconciler"
	"zepul/pipeline-service/internal/storage/postgres"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	if err := godotenv.Load(); err != nil {
		log.Println("[pipeline-service] No .env file — using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[pipeline-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[pipeline-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[pipeline-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[pipeline-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[pipeline-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[pipeline-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[pipeline-service] Redis connected ✓")

	// ── Wiring ───────────────────────────────────────────────────────────────
	candidates := postgres.NewCandidateStore(pool)
	assignments := postgres.NewAssignmentStore(pool)
	directory := postgres.NewDirectory(pool)
	ledg := ledger.New(postgres.NewLedgerStore(pool))

	authorizer := auth.New(directory, assignments)
	notifier := notify.NewRedis(rdb)

	engine := pipeline.NewEngine(candidates, assignments, ledg, authorizer, notifier)
	queries := query.NewService(ledg, assignments)
	coordinator := assignment.NewCoordinator(assignments, directory, authorizer)

	// ── Ledger reconciliation cron ───────────────────────────────────────────
	rec := reconciler.New(candidates, ledg, cfg.ReconcileIntervalHours)
	if err := rec.Start(ctx); err != nil {
		log.Fatalf("[pipeline-service] Reconciler: %v", err)
	}
	defer rec.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	h := httpserver.NewHandler(engine, queries, coordinator)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[pipeline-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[pipeline-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[pipeline-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[pipeline-service] Shutdown error: %v", err)
	}
	log.Println("[pipeline-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "pipeline-service",
		"version": version,
	})
}
