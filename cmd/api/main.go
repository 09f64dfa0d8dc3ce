package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/baharkarakas/copywriter-backend/internal/api"
	"github.com/baharkarakas/copywriter-backend/internal/auth"
	"github.com/baharkarakas/copywriter-backend/internal/config"
	"github.com/baharkarakas/copywriter-backend/internal/db"
	"github.com/baharkarakas/copywriter-backend/internal/generator"
	"github.com/baharkarakas/copywriter-backend/internal/logger"
	"github.com/baharkarakas/copywriter-backend/internal/metrics"
	repo "github.com/baharkarakas/copywriter-backend/internal/repository"
	"github.com/baharkarakas/copywriter-backend/internal/repository/memory"
	"github.com/baharkarakas/copywriter-backend/internal/repository/postgres"
	"github.com/baharkarakas/copywriter-backend/internal/repository/redisstore"
	"github.com/baharkarakas/copywriter-backend/internal/services"
	"github.com/baharkarakas/copywriter-backend/internal/worker"
)

type stores struct {
	balances    repo.Balances
	generations repo.Generations
	auditLogs   repo.AuditLogs
	closers     []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*stores, error) {
	s := &stores{}

	var pool *pgxpool.Pool
	if cfg.StoreBackend == "postgres" || cfg.BalanceBackend == "postgres" {
		p, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		pool = p
		s.closers = append(s.closers, pool.Close)

		if cfg.Migrate {
			if err := db.RunMigrations(ctx, pool); err != nil {
				s.close()
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
	}

	switch cfg.StoreBackend {
	case "postgres":
		pg := postgres.NewRepositories(pool, cfg.SignupTokens)
		s.generations, s.auditLogs, s.balances = pg.Generations, pg.AuditLogs, pg.Balances
	case "memory":
		mem := memory.NewRepositories(cfg.SignupTokens)
		s.generations, s.auditLogs, s.balances = mem.Generations, mem.AuditLogs, mem.Balances
	default:
		s.close()
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	switch cfg.BalanceBackend {
	case "postgres":
		s.balances = postgres.NewRepositories(pool, cfg.SignupTokens).Balances
	case "memory":
		s.balances = memory.NewBalances(cfg.SignupTokens)
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			s.close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		s.closers = append(s.closers, func() { _ = rdb.Close() })
		s.balances = redisstore.NewBalances(rdb, cfg.SignupTokens)
	default:
		s.close()
		return nil, fmt.Errorf("unknown BALANCE_BACKEND %q", cfg.BalanceBackend)
	}

	log.Info("stores ready", "store", cfg.StoreBackend, "balances", cfg.BalanceBackend)
	return s, nil
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogFile)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("exit", "err", err)
		os.Exit(1)
	}
}

// run owns every resource, so its defers have released them by the time main exits.
func run(cfg config.Config, log *slog.Logger) error {
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.GeminiAPIKey == "" {
		return errors.New("GEMINI_API_KEY is not set")
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	gemini, err := generator.NewGemini(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return err
	}
	defer gemini.Close()

	wp := worker.NewPool(cfg.Workers)
	defer wp.Stop()

	cache := services.NewStatsCache(cfg.StatsCacheTTL)
	balanceSvc := services.NewBalanceService(st.balances, st.auditLogs, wp)
	genSvc := services.NewGenerationService(services.GenerationDeps{
		Generator:  generator.New(gemini, cfg.DefaultModel, cfg.GenerationTimeout),
		Ledger:     balanceSvc,
		Store:      st.generations,
		AuditLogs:  st.auditLogs,
		Pool:       wp,
		Cache:      cache,
		MinBalance: cfg.MinBalance,
	})
	historySvc := services.NewHistoryService(st.generations, balanceSvc, cache)
	tm := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	r := api.NewRouter(api.RouterDeps{
		Cfg:        cfg,
		TM:         tm,
		BalanceSvc: balanceSvc,
		GenSvc:     genSvc,
		HistorySvc: historySvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env, "model", cfg.DefaultModel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
