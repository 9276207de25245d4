package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	jwttoken "tokenvault/internal/jwt_token"
	"tokenvault/internal/platform/config"
	"tokenvault/internal/platform/httpserver"
	"tokenvault/internal/platform/kafka"
	"tokenvault/internal/platform/logger"
	"tokenvault/internal/platform/metrics"
	"tokenvault/internal/platform/middleware"
	"tokenvault/internal/platform/postgres"
	"tokenvault/internal/platform/redis"
	"tokenvault/internal/token"
	tokenhandler "tokenvault/internal/token/handler"
	"tokenvault/internal/vault/address"
	vaulthandler "tokenvault/internal/vault/handler"
	"tokenvault/internal/vault/locker"
	vaultmetrics "tokenvault/internal/vault/metrics"
	vaultservice "tokenvault/internal/vault/service"
	vaultstore "tokenvault/internal/vault/store"
	audit "tokenvault/pkg/platform/audit"
	"tokenvault/pkg/platform/audit/publishers/compliance"
	auditmemory "tokenvault/pkg/platform/audit/store/memory"
	auditpg "tokenvault/pkg/platform/audit/store/postgres"
	"tokenvault/pkg/platform/audit/worker"
	"tokenvault/pkg/platform/httputil"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tokenvault: %v\n", err)
		os.Exit(1)
	}
}

// backends are the storage-dependent collaborators of the vault.
type backends struct {
	db     *sql.DB
	store  vaultservice.Store
	ledger tokenLedger
	tx     vaultservice.VaultTx
	audit  audit.Store
	outbox worker.Outbox
}

// tokenLedger is what both ledger implementations offer the server.
type tokenLedger interface {
	vaultservice.Ledger
	tokenhandler.Ledger
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(reg)

	resolver := address.New(cfg.Vault.ProgramID)
	b, err := openBackends(ctx, cfg, resolver, log)
	if err != nil {
		return err
	}
	if b.db != nil {
		defer b.db.Close()
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	vaultTx := b.tx
	if redisClient != nil {
		defer redisClient.Close()
		locked, err := locker.New(redisClient.Client, b.tx, locker.DefaultOptions(), log)
		if err != nil {
			return fmt.Errorf("build vault locker: %w", err)
		}
		vaultTx = locked
		log.Info("distributed vault lock enabled")
	}

	auditPublisher := compliance.New(b.audit,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics(reg)),
	)
	vault, err := vaultservice.New(resolver, b.store, b.ledger, vaultTx,
		vaultservice.WithLogger(log),
		vaultservice.WithMetrics(vaultmetrics.New(reg)),
		vaultservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return fmt.Errorf("build vault service: %w", err)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("build kafka producer: %w", err)
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, cfg.Kafka.Partitions, 1); err != nil {
			log.Warn("audit topic provisioning failed", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
	}

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/healthz", healthHandler(b.db, redisClient, producer))
	vaulthandler.New(vault, resolver, log, httpMetrics, jwttoken.NewJWTServiceAdapter(jwtService)).Register(r)
	tokenhandler.New(b.ledger, resolver, jwtService, cfg.TokenTTL, auditPublisher, log, httpMetrics, []byte(cfg.AdminTokenHash)).Register(r)

	srv := httpserver.New(cfg.Addr, r, middleware.RequestTimeout)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting tokenvault", "addr", cfg.Addr, "program_id", resolver.ProgramID().String(), "postgres", b.db != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	if producer != nil {
		w := worker.New(b.outbox, producer,
			worker.WithLogger(log),
			worker.WithMetrics(worker.NewMetrics(reg)),
			worker.WithInterval(cfg.Kafka.PollInterval),
			worker.WithBatchSize(cfg.Kafka.BatchSize),
		)
		g.Go(func() error {
			return w.Run(gctx)
		})
		log.Info("audit outbox publishing enabled", "topic", cfg.Kafka.AuditTopic)
	}

	err = g.Wait()
	log.Info("tokenvault stopped")
	return err
}

// openBackends selects PostgreSQL when DATABASE_URL is set and in-memory
// stores otherwise.
func openBackends(ctx context.Context, cfg config.Server, resolver *address.Resolver, log *slog.Logger) (*backends, error) {
	if cfg.Postgres.URL == "" {
		store := vaultstore.NewInMemory()
		ledger := token.NewInMemoryLedger(resolver)
		auditStore := auditmemory.NewInMemoryStore()
		log.Warn("DATABASE_URL is not set; using in-memory stores")
		return &backends{
			store:  store,
			ledger: ledger,
			tx:     vaultservice.NewKeyedTx(store, ledger, cfg.Vault.TxTimeout),
			audit:  auditStore,
			outbox: auditStore,
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	ledger := token.NewPostgresLedger(db, resolver)
	auditStore := auditpg.New(db)
	return &backends{
		db:     db,
		store:  vaultstore.NewPostgres(db),
		ledger: ledger,
		tx:     newVaultPostgresTx(db, ledger, cfg.Vault.TxTimeout),
		audit:  auditStore,
		outbox: auditStore,
	}, nil
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func healthHandler(db *sql.DB, redisClient *redis.Client, producer *kafka.Producer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true
		check := func(name string, fn func(context.Context) error) {
			if err := fn(ctx); err != nil {
				checks[name] = err.Error()
				healthy = false
				return
			}
			checks[name] = "ok"
		}
		if db != nil {
			check("postgres", db.PingContext)
		}
		if redisClient != nil {
			check("redis", redisClient.Health)
		}
		if producer != nil {
			check("kafka", producer.Health)
		}

		if !healthy {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Checks: checks})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Checks: checks})
	}
}
