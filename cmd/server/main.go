package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"locatio/internal/deposit"
	"locatio/internal/event"
	"locatio/internal/lease/handler"
	"locatio/internal/lease/service"
	leasestore "locatio/internal/lease/store"
	"locatio/internal/notice"
	"locatio/internal/platform/config"
	"locatio/internal/platform/httpserver"
	"locatio/internal/platform/logger"
	"locatio/internal/platform/metrics"
	"locatio/internal/platform/middleware"
	platformredis "locatio/internal/platform/redis"
	"locatio/internal/regularization"
	"locatio/internal/revision"
	"locatio/internal/scheduler"
	"locatio/internal/token"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	var db *sql.DB
	var leases service.LeaseStore
	var revisions service.RevisionStore
	var notices service.NoticeStore
	var regularizations service.RegularizationStore
	var settlements service.SettlementStore

	if cfg.PostgresURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			log.Error("opening postgres", "error", err)
			os.Exit(1)
		}
		if err := db.Ping(); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		leases = leasestore.NewPostgresStore(db)
		revisions = revision.NewPostgres(db)
		notices = notice.NewPostgres(db)
		regularizations = regularization.NewPostgres(db)
		settlements = deposit.NewPostgres(db)
		log.Info("using postgres storage")
	} else {
		leases = leasestore.NewInMemoryStore()
		revisions = revision.NewInMemoryStore()
		notices = notice.NewInMemoryStore()
		regularizations = regularization.NewInMemoryStore()
		settlements = deposit.NewInMemoryStore()
		log.Warn("POSTGRES_URL not set, using in-memory storage")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	var dedup revision.DedupStore
	if redisClient != nil {
		dedup = revision.NewRedisDedupStore(redisClient.Client, config.ReminderDedupTTL)
		log.Info("using redis reminder dedup")
	} else {
		dedup = revision.NewInMemoryDedupStore()
		log.Warn("REDIS_URL not set, reminder dedup is process-local")
	}

	var sink event.Sink
	if len(cfg.Kafka.SeedBrokers) > 0 {
		kafkaSink, err := event.NewKafkaSink(cfg.Kafka.SeedBrokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("connecting to kafka", "error", err)
			os.Exit(1)
		}
		sink = kafkaSink
		log.Info("publishing lifecycle events to kafka", "topic", cfg.Kafka.Topic)
	} else {
		sink = event.NewMemorySink()
		log.Warn("KAFKA_SEED_BROKERS not set, lifecycle events stay in-process")
	}
	publisher := event.NewPublisher(sink, event.WithAsyncBuffer(256))

	svc := service.New(leases, revisions, notices, regularizations, settlements,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithEventPublisher(publisher),
	)

	// Lease store List and the lease service both satisfy the scheduler's
	// narrow interfaces.
	sched := scheduler.New(leases, svc, dedup,
		scheduler.WithLogger(log),
		scheduler.WithMetrics(m),
		scheduler.WithEventPublisher(publisher),
	)
	if err := sched.Start(cfg.RevisionScanSpec); err != nil {
		log.Error("starting daily scan", "error", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.Latency(m))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"postgres unreachable"}`))
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"redis unreachable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	// Operational trigger for the daily scan, next to the cron cadence.
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(cfg.AdminToken, log))
		r.Post("/admin/scan", func(w http.ResponseWriter, r *http.Request) {
			if err := sched.RunOnce(r.Context(), time.Now().UTC()); err != nil {
				log.Error("manual scan failed", "error", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(token.NewValidator(cfg.JWTSigningKey), log))
		handler.New(svc, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting locatio", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	sched.Stop()
	if err := publisher.Close(); err != nil {
		log.Error("closing event publisher", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
