package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/gesledger/internal/adapter/http"
	"github.com/iho/gesledger/internal/adapter/http/handler"
	"github.com/iho/gesledger/internal/adapter/http/middleware"
	"github.com/iho/gesledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/gesledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gesledger/internal/adapter/repository/redis"
	"github.com/iho/gesledger/internal/infrastructure/auth"
	"github.com/iho/gesledger/internal/infrastructure/config"
	"github.com/iho/gesledger/internal/infrastructure/eventpublisher"
	"github.com/iho/gesledger/internal/infrastructure/fx"
	"github.com/iho/gesledger/internal/infrastructure/logger"
	"github.com/iho/gesledger/internal/infrastructure/metrics"
	"github.com/iho/gesledger/internal/infrastructure/postgres"
	"github.com/iho/gesledger/internal/infrastructure/redis"
	"github.com/iho/gesledger/internal/usecase"
)

const rateLimiterIdle = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "gesledger"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := buildApp(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer a.close()

	workers, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()
	a.startWorkers(workers, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      a.router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

type repositories struct {
	txManager usecase.TransactionManager
	investors usecase.InvestorRepository
	projects  usecase.ProjectRepository
	holdings  usecase.HoldingRepository
	requests  usecase.RequestRepository
	entries   usecase.EntryRepository
	banks     usecase.BankRepository
	outbox    usecase.OutboxRepository
	audit     usecase.AuditRepository
	retrier   usecase.Retrier
}

type app struct {
	router    http.Handler
	repos     repositories
	fx        *fx.Provider
	publisher eventpublisher.Publisher
	limiter   *middleware.RateLimiter
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	closers   []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp wires storage, caches and use cases into the HTTP router.
func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg *prometheus.Registry) (*app, error) {
	m := metrics.New(reg)
	a := &app{metrics: m, logger: log}
	checks := map[string]handler.PingFunc{}

	tiers, err := cfg.TierTable()
	if err != nil {
		return nil, err
	}

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		if cfg.MigrateOnStart {
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
				return nil, err
			}
		}
		connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
		pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		checks["postgres"] = pool.Ping
		a.repos = postgresRepositories(pool, cfg.DatabaseLockTimeout, log, m)
		log.Info().Msg("connected to postgres")
	default:
		a.repos = memoryRepositories()
		log.Warn().Msg("using in-memory storage, data is lost on restart")
	}

	var (
		cache       usecase.Cache
		idempotency usecase.IdempotencyStore
	)
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		checks["redis"] = redis.Ping(client)
		cache = redisRepo.NewCache(client)
		idempotency = redisRepo.NewIdempotencyStore(client)
		log.Info().Msg("connected to redis")
	}

	var source fx.Source = fx.StaticSource{Rate: cfg.FXFallbackRate}
	if cfg.FXSourceURL != "" {
		source = fx.NewHTTPSource(&http.Client{Timeout: cfg.FXFetchTimeout}, cfg.FXSourceURL, cfg.FXJSONPath)
	}
	a.fx = fx.NewProvider(fx.Config{
		Source:       source,
		Cache:        cache,
		FallbackRate: cfg.FXFallbackRate,
		CacheTTL:     cfg.FXCacheTTL,
		FetchTimeout: cfg.FXFetchTimeout,
		Metrics:      m,
		Logger:       log,
	})

	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := eventpublisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		a.closers = append(a.closers, func() { _ = kafkaPublisher.Close() })
		a.publisher = kafkaPublisher
	} else {
		a.publisher = eventpublisher.NewLogPublisher(log)
	}

	r := a.repos
	idGen := postgresRepo.NewULIDGenerator()
	portfolio := usecase.NewPortfolioStore(r.investors, r.projects, r.holdings, tiers, a.fx, idGen, cfg.HoldingPeriod, log)
	ledger := usecase.NewLedger(r.investors, r.entries, idGen)
	requestUC := usecase.NewRequestUseCase(r.txManager, r.investors, r.projects, r.holdings, r.requests, r.banks, r.outbox, r.audit, portfolio, idGen, m, log)
	settleUC := usecase.NewSettlementUseCase(r.txManager, r.investors, r.projects, r.requests, r.outbox, r.audit, ledger, portfolio, r.retrier, idGen, m, log)
	investorUC := usecase.NewInvestorUseCase(r.investors, r.audit, portfolio, idGen, log)
	catalogUC := usecase.NewCatalogUseCase(r.projects, r.banks, r.audit, idGen, cfg.SharePrice, log)
	reconUC := usecase.NewReconciliationUseCase(r.investors, r.projects, r.holdings, r.entries)

	authenticator := middleware.HeaderAuth
	if cfg.AuthEnabled {
		authenticator = middleware.AuthMiddleware(auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration))
	}
	if cfg.RateLimitRPS > 0 {
		a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	}

	a.router = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		CatalogHandler:   handler.NewCatalogHandler(catalogUC, portfolio, a.fx),
		PortfolioHandler: handler.NewPortfolioHandler(portfolio, ledger),
		RequestHandler:   handler.NewRequestHandler(requestUC),
		AdminHandler:     handler.NewAdminHandler(requestUC, settleUC, investorUC, reconUC),
		HealthHandler:    handler.NewHealthHandler(checks),
		Authenticator:    authenticator,
		RateLimiter:      a.limiter,
		IdempotencyStore: idempotency,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Metrics:          m,
		MetricsHandler:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Logger:           log,
	})

	return a, nil
}

// startWorkers runs the FX refresher, the outbox relay and rate limiter
// cleanup until ctx is cancelled.
func (a *app) startWorkers(ctx context.Context, cfg *config.Config) {
	go func() {
		_ = a.fx.Run(ctx, cfg.FXRefreshInterval)
	}()

	relay := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: a.repos.outbox,
		Publisher:  a.publisher,
		Metrics:    a.metrics,
		Logger:     a.logger,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error().Err(err).Msg("outbox relay stopped")
		}
	}()

	if a.limiter != nil {
		go func() {
			ticker := time.NewTicker(rateLimiterIdle)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					a.limiter.Cleanup(rateLimiterIdle)
				}
			}
		}()
	}
}

func postgresRepositories(pool *pgxpool.Pool, lockTimeout time.Duration, log zerolog.Logger, m *metrics.Metrics) repositories {
	return repositories{
		txManager: postgresRepo.NewTxManager(pool, postgresRepo.WithLockTimeout(lockTimeout)),
		investors: postgresRepo.NewInvestorRepository(pool),
		projects:  postgresRepo.NewProjectRepository(pool),
		holdings:  postgresRepo.NewHoldingRepository(pool),
		requests:  postgresRepo.NewRequestRepository(pool),
		entries:   postgresRepo.NewEntryRepository(pool),
		banks:     postgresRepo.NewBankRepository(pool),
		outbox:    postgresRepo.NewOutboxRepository(pool),
		audit:     postgresRepo.NewAuditRepository(pool),
		retrier:   postgresRepo.NewRetrier(log, m),
	}
}

func memoryRepositories() repositories {
	store := memory.NewStore()
	return repositories{
		txManager: memory.NewTxManager(store),
		investors: memory.NewInvestorRepository(store),
		projects:  memory.NewProjectRepository(store),
		holdings:  memory.NewHoldingRepository(store),
		requests:  memory.NewRequestRepository(store),
		entries:   memory.NewEntryRepository(store),
		banks:     memory.NewBankRepository(store),
		outbox:    memory.NewOutboxRepository(store),
		audit:     memory.NewAuditRepository(store),
	}
}
