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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"warranty/internal/identity"
	identitymodels "warranty/internal/identity/models"
	"warranty/internal/identity/rolecache"
	"warranty/internal/identity/rolesource"
	"warranty/internal/identity/token"
	"warranty/internal/objectstore"
	"warranty/internal/platform/config"
	"warranty/internal/platform/httpserver"
	"warranty/internal/platform/kafka"
	"warranty/internal/platform/logger"
	platformmetrics "warranty/internal/platform/metrics"
	"warranty/internal/platform/postgres"
	platformredis "warranty/internal/platform/redis"
	"warranty/internal/ratelimit"
	"warranty/internal/warranty/handler"
	"warranty/internal/warranty/metrics"
	"warranty/internal/warranty/service"
	claimstore "warranty/internal/warranty/store/claim"
	serialstore "warranty/internal/warranty/store/serial"
	"warranty/pkg/platform/audit"
	"warranty/pkg/platform/audit/outbox"
	"warranty/pkg/platform/audit/publisher"
	auditmemory "warranty/pkg/platform/audit/store/memory"
	auditpostgres "warranty/pkg/platform/audit/store/postgres"
	"warranty/pkg/platform/middleware/admin"
	"warranty/pkg/platform/middleware/auth"
	"warranty/pkg/platform/middleware/metadata"
	"warranty/pkg/platform/middleware/request"
	"warranty/pkg/platform/middleware/requesttime"
)

// main wires dependencies and runs the HTTP server plus background workers
// until SIGINT or SIGTERM. Business logic lives in internal/warranty.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// infra holds the optional backends. Nil fields select in-memory adapters.
type infra struct {
	db    *sql.DB
	redis *platformredis.Client
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	var backends infra
	if cfg.Postgres.URL != "" {
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(db); err != nil {
			return err
		}
		backends.db = db
	}
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		backends.redis = redisClient
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	warrantyMetrics := metrics.New(reg)
	httpMetrics := platformmetrics.New(reg)

	auditStore, err := buildAuditStore(backends)
	if err != nil {
		return err
	}
	auditPublisher := publisher.NewPublisher(auditStore, publisher.WithLogger(log), publisher.WithAsyncBuffer(256))
	defer auditPublisher.Close()

	resolver, err := buildResolver(ctx, cfg, backends, auditPublisher, log)
	if err != nil {
		return err
	}
	objects, err := buildObjectStore(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}

	var (
		serials service.SerialStore = serialstore.NewInMemory()
		claims  service.ClaimStore  = claimstore.NewInMemory()
		opts                        = []service.Option{
			service.WithLogger(log),
			service.WithAuditPublisher(auditPublisher),
			service.WithMetrics(warrantyMetrics),
		}
	)
	if backends.db != nil {
		serials = serialstore.NewPostgres(backends.db)
		claims = claimstore.NewPostgres(backends.db)
		opts = append(opts, service.WithTx(newPostgresStoreTx(backends.db)))
	} else {
		opts = append(opts, service.WithTx(service.NewInMemoryStoreTx()))
	}

	registry := service.NewRegistry(serials, claims, opts...)
	ledger := service.NewLedger(serials, claims, opts...)
	reconciler := service.NewReconciler(serials, claims, opts...)
	h := handler.New(handler.Services{
		Registration: service.NewRegistration(registry, objects, opts...),
		Registry:     registry,
		Ledger:       ledger,
		Filing:       service.NewClaimFiling(registry, ledger, claims, objects, opts...),
		Status:       service.NewStatusUpdate(registry, ledger, opts...),
		Importer:     service.NewImporter(registry, opts...),
		Reconciler:   reconciler,
		Roles:        resolver,
	}, log, handler.WithRateLimiter(buildRateLimiter(cfg, backends, reg, log)))

	router := newRouter(cfg, log, httpMetrics, reg, resolver, h)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting warranty service", "addr", cfg.Server.Addr, "postgres", backends.db != nil, "redis", backends.redis != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.ReconcileInterval > 0 {
		g.Go(func() error {
			reconciler.Run(gctx, cfg.ReconcileInterval)
			return nil
		})
	}
	if backends.db != nil && len(cfg.Kafka.Brokers) > 0 {
		relay, closeRelay, err := buildRelay(ctx, cfg.Kafka, backends.db, log)
		if err != nil {
			return err
		}
		defer closeRelay()
		g.Go(func() error {
			if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// buildRateLimiter counts in Redis when configured, with the in-memory
// window as fallback while Redis fails.
func buildRateLimiter(cfg config.Config, backends infra, reg prometheus.Registerer, log *slog.Logger) *ratelimit.Middleware {
	m := ratelimit.NewMetrics(reg)
	var store ratelimit.Store = ratelimit.NewInMemory()
	if backends.redis != nil {
		store = ratelimit.NewGuarded(ratelimit.NewRedis(backends.redis.Client), store, log, m)
	}
	return ratelimit.New(store, log,
		ratelimit.WithMetrics(m),
		ratelimit.WithDisabled(cfg.RateLimitDisabled),
	)
}

func newRouter(cfg config.Config, log *slog.Logger, httpMetrics *platformmetrics.Metrics, reg *prometheus.Registry, authn auth.Authenticator, h *handler.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(log, httpMetrics))
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(authn, log))
		h.Register(r)
		r.Group(func(r chi.Router) {
			r.Use(admin.RequireRole(identitymodels.RoleAdmin.String(), log))
			h.RegisterAdmin(r)
		})
	})
	return r
}

func buildAuditStore(backends infra) (audit.Store, error) {
	if backends.db != nil {
		return auditpostgres.New(backends.db), nil
	}
	return auditmemory.NewInMemoryStore(), nil
}

func buildResolver(ctx context.Context, cfg config.Config, backends infra, auditPublisher *publisher.Publisher, log *slog.Logger) (*identity.Resolver, error) {
	var verifier token.Verifier
	if cfg.Auth.JWKSURL != "" {
		jwks, err := token.NewJWKSVerifier(ctx, cfg.Auth.JWKSURL, cfg.Auth.JWTIssuer, log)
		if err != nil {
			return nil, err
		}
		verifier = jwks
	} else {
		verifier = token.NewHMACVerifier(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)
	}

	var roles identity.RoleSource
	if backends.db != nil {
		source := rolesource.NewPostgres(backends.db)
		for _, adminID := range cfg.Auth.AdminUserIDs {
			if err := source.Grant(ctx, adminID, identitymodels.RoleAdmin); err != nil {
				return nil, fmt.Errorf("seed admin role: %w", err)
			}
		}
		roles = source
	} else {
		roles = rolesource.NewInMemory(cfg.Auth.AdminUserIDs...)
	}

	opts := []identity.Option{
		identity.WithLogger(log),
		identity.WithAuditPublisher(auditPublisher),
	}
	if backends.redis != nil {
		opts = append(opts, identity.WithCache(rolecache.NewRedis(backends.redis.Client, cfg.Auth.RoleCacheTTL)))
	}
	return identity.NewResolver(verifier, roles, opts...)
}

func buildObjectStore(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (service.ObjectStore, error) {
	if cfg.Bucket == "" {
		log.Warn("S3_BUCKET not set, uploads are kept in memory")
		return objectstore.NewInMemory(""), nil
	}
	client, err := objectstore.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return objectstore.NewS3(client, cfg.Bucket, cfg.Region, cfg.PublicBaseURL), nil
}

func buildRelay(ctx context.Context, cfg config.KafkaConfig, db *sql.DB, log *slog.Logger) (*outbox.Relay, func(), error) {
	producer, err := kafka.NewProducer(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := kafka.EnsureTopic(ctx, producer, cfg.AuditTopic, 3, 1); err != nil {
		producer.Close()
		return nil, nil, err
	}
	relay := outbox.NewRelay(db, producer, cfg.AuditTopic, outbox.WithLogger(log))
	return relay, producer.Close, nil
}
