package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"fairlend/internal/authz"
	"fairlend/internal/consent"
	consenthandler "fairlend/internal/consent/handler"
	consentmetrics "fairlend/internal/consent/metrics"
	"fairlend/internal/decision"
	decisionhandler "fairlend/internal/decision/handler"
	decisionmetrics "fairlend/internal/decision/metrics"
	"fairlend/internal/fairness"
	fairnesshandler "fairlend/internal/fairness/handler"
	fairnessmetrics "fairlend/internal/fairness/metrics"
	governancehandler "fairlend/internal/governance/handler"
	"fairlend/internal/jwtauth"
	"fairlend/internal/ledger"
	ledgermetrics "fairlend/internal/ledger/metrics"
	"fairlend/internal/ledger/publisher"
	"fairlend/internal/override"
	overridehandler "fairlend/internal/override/handler"
	overridemetrics "fairlend/internal/override/metrics"
	"fairlend/internal/platform/config"
	"fairlend/internal/platform/httpserver"
	"fairlend/internal/platform/logger"
	"fairlend/internal/platform/metrics"
	"fairlend/internal/platform/middleware"
	platformredis "fairlend/internal/platform/redis"
)

const verifyInterval = 10 * time.Minute

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gov, err := config.LoadGovernance(cfg.GovernancePath)
	if err != nil {
		return err
	}

	// Ledger backend: Postgres when a DSN is configured, in-memory otherwise.
	var store ledger.Store
	if cfg.LedgerDSN != "" {
		db, err := sql.Open("postgres", cfg.LedgerDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		pgStore := ledger.NewPostgresStore(db)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return err
		}
		store = pgStore
	} else {
		log.Warn("LEDGER_DSN not set, using in-memory ledger store")
		store = ledger.NewMemoryStore()
	}

	// Announce stream, best effort, only when brokers are configured.
	var pub ledger.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := publisher.NewKafka(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		pub = kafka
	}

	ledgerSvc := ledger.NewService(store, log, ledgermetrics.New(), pub, cfg.AppendRetries)
	defer ledgerSvc.Close()

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	checker := authz.NewChecker()
	decisionMetrics := decisionmetrics.New()
	decisionSvc := decision.NewService(ledgerSvc, log, decisionMetrics)
	overrideSvc := override.NewService(ledgerSvc, decisionSvc, checker, log, overridemetrics.New())
	consentSvc := consent.NewService(ledgerSvc, checker, gov.Consent, log, consentmetrics.New())
	fairnessSvc := fairness.NewService(
		ledgerSvc,
		gov.Fairness,
		fairness.NewCache(redisClient, cfg.FairnessCacheTTL),
		log,
		fairnessmetrics.New(),
	)

	jwtSvc := jwtauth.NewService(cfg.JWTSigningKey, "fairlend", "fairlend")
	httpMetrics := metrics.New()

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.Recovery(log),
		middleware.Logger(log),
		httpMetrics.Middleware(),
		middleware.Timeout(30*time.Second),
		middleware.ContentTypeJSON,
	)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtauth.NewMiddlewareAdapter(jwtSvc), log))
		decisionhandler.New(decisionSvc, checker, log, decisionMetrics).Register(r)
		overridehandler.New(overrideSvc, log).Register(r)
		consenthandler.New(consentSvc, log).Register(r)
		fairnesshandler.New(fairnessSvc, checker, log).Register(r)
		governancehandler.New(ledgerSvc, checker, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting fairlend", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Background integrity sweep. A broken chain latches the store against
	// writes even if nobody is watching the verify endpoint.
	g.Go(func() error {
		ticker := time.NewTicker(verifyInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if _, err := ledgerSvc.VerifyChain(gctx); err != nil {
					log.Error("background chain verification failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}
