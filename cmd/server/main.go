package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "saathi/internal/auth/handler"
	authservice "saathi/internal/auth/service"
	userstore "saathi/internal/auth/store/user"
	"saathi/internal/compliance/cache"
	comphandler "saathi/internal/compliance/handler"
	compmetrics "saathi/internal/compliance/metrics"
	compservice "saathi/internal/compliance/service"
	"saathi/internal/compliance/store"
	profilestore "saathi/internal/compliance/store/profile"
	rulestore "saathi/internal/compliance/store/rule"
	statusstore "saathi/internal/compliance/store/status"
	dashhandler "saathi/internal/dashboard/handler"
	dashservice "saathi/internal/dashboard/service"
	jwttoken "saathi/internal/jwt_token"
	onbhandler "saathi/internal/onboarding/handler"
	onbservice "saathi/internal/onboarding/service"
	"saathi/internal/platform/config"
	"saathi/internal/platform/httpserver"
	"saathi/internal/platform/logger"
	"saathi/internal/platform/metrics"
	"saathi/internal/platform/middleware"
	platformredis "saathi/internal/platform/redis"
	"saathi/pkg/platform/audit"
	auditkafka "saathi/pkg/platform/audit/kafka"
	auditmemory "saathi/pkg/platform/audit/store/memory"
	auditpostgres "saathi/pkg/platform/audit/store/postgres"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	appMetrics := metrics.New()

	ctx := context.Background()

	// Storage: PostgreSQL when configured, in-memory otherwise.
	var (
		rules      compservice.RuleStore
		ruleWriter store.RuleWriter
		profiles   interface {
			onbservice.ProfileStore
			compservice.ProfileStore
		}
		statuses compservice.StatusStore
		users    authservice.UserStore
		auditDB  audit.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("database ping failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pgRules := rulestore.NewPostgres(db)
		rules, ruleWriter = pgRules, pgRules
		profiles = profilestore.NewPostgres(db)
		statuses = statusstore.NewPostgres(db)
		users = userstore.NewPostgres(db)
		auditDB = auditpostgres.New(db)
		log.Info("using postgresql storage")
	} else {
		memRules := rulestore.NewInMemory()
		rules, ruleWriter = memRules, memRules
		profiles = profilestore.NewInMemory()
		statuses = statusstore.NewInMemory()
		users = userstore.NewInMemory()
		auditDB = auditmemory.NewInMemoryStore()
		log.Info("using in-memory storage")
	}

	if err := store.SeedRules(ctx, ruleWriter); err != nil {
		log.Error("failed to seed rule catalog", "error", err)
		os.Exit(1)
	}

	// Audit trail: buffered publisher, optionally fanned out to Kafka.
	auditOpts := []audit.PublisherOption{
		audit.WithAsyncBuffer(256),
		audit.WithLogger(log),
	}
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := auditkafka.New(ctx, cfg.KafkaBrokers)
		if err != nil {
			log.Error("failed to connect audit kafka sink", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		auditOpts = append(auditOpts, audit.WithSink(sink))
		log.Info("audit kafka sink enabled", "topic", auditkafka.Topic)
	}
	auditPub := audit.NewPublisher(auditDB, auditOpts...)
	defer auditPub.Close()

	// Optional Redis score cache.
	complianceOpts := []compservice.Option{
		compservice.WithLogger(log),
		compservice.WithMetrics(compmetrics.New()),
		compservice.WithAuditPublisher(auditPub),
	}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		complianceOpts = append(complianceOpts, compservice.WithScoreCache(
			cache.NewRedisScoreCache(redisClient.Client)))
		log.Info("redis score cache enabled")
	}

	// Services.
	compliance := compservice.New(rules, profiles, statuses, complianceOpts...)
	onboarding := onbservice.New(profiles, compliance,
		onbservice.WithLogger(log),
		onbservice.WithAuditPublisher(auditPub),
	)
	dashboard := dashservice.New(profiles, compliance, log)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "saathi")
	auth := authservice.New(users, jwtService, cfg.AccessTokenTTL,
		authservice.WithLogger(log),
		authservice.WithMetrics(appMetrics),
		authservice.WithAuditPublisher(auditPub),
	)

	// Router.
	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(log, appMetrics))

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := authhandler.New(auth, users, log)
	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), log))
			authHandler.RegisterAuthenticated(r)
			onbhandler.New(onboarding, log).Register(r)
			comphandler.New(compliance, log).Register(r)
			dashhandler.New(dashboard, log).Register(r)
		})
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting saathi server", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
