// Package di assembles the agent's object graph.
package di

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/user/scamshield-agent/internal/adapter/chromedp_page"
	"github.com/user/scamshield-agent/internal/adapter/kvstore"
	"github.com/user/scamshield-agent/internal/adapter/memory"
	"github.com/user/scamshield-agent/internal/adapter/postgres"
	redis_adapter "github.com/user/scamshield-agent/internal/adapter/redis"
	"github.com/user/scamshield-agent/internal/adapter/sqlite"
	"github.com/user/scamshield-agent/internal/backend"
	"github.com/user/scamshield-agent/internal/delivery/bus"
	"github.com/user/scamshield-agent/internal/delivery/http/handler"
	"github.com/user/scamshield-agent/internal/delivery/http/router"
	"github.com/user/scamshield-agent/internal/extractor"
	"github.com/user/scamshield-agent/internal/repository"
	"github.com/user/scamshield-agent/internal/tabstate"
	"github.com/user/scamshield-agent/internal/usecase"
	"github.com/user/scamshield-agent/pkg/config"
	"github.com/user/scamshield-agent/pkg/logger"
)

// Cleanup collects shutdown hooks registered by providers. Run executes
// them in reverse registration order.
type Cleanup struct {
	mu  sync.Mutex
	fns []func()
}

func (c *Cleanup) Add(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fns = append(c.fns, fn)
}

func (c *Cleanup) Run() {
	c.mu.Lock()
	fns := c.fns
	c.fns = nil
	c.mu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// redisConn hands out one shared client, created on first use.
type redisConn func() *redis.Client

// storageDeps are the dependencies the storage providers choose between.
type storageDeps struct {
	dig.In

	Config  *config.Config
	Logger  *zap.Logger
	Cleanup *Cleanup
	Redis   redisConn
	Storage repository.LocalStorage
}

// BuildContainer creates and configures the dependency injection container.
// cfg may be nil, in which case configuration is loaded from the environment.
func BuildContainer(cfg *config.Config) (*dig.Container, error) {
	c := dig.New()

	providers := []interface{}{
		func() (*config.Config, error) {
			if cfg != nil {
				return cfg, nil
			}
			return config.Load()
		},
		func(cfg *config.Config) (*zap.Logger, error) {
			return logger.New(cfg.LogLevel, cfg.LogFormat)
		},
		func() *Cleanup { return &Cleanup{} },
		provideRedis,
		provideStorage,
		provideHistoryRepo,
		providePageSource,
		provideBackend,
		func(cleanup *Cleanup) *tabstate.Store {
			s := tabstate.NewStore()
			cleanup.Add(s.Close)
			return s
		},
		func(cfg *config.Config, log *zap.Logger) *extractor.Service {
			return extractor.NewService(log, extractor.NewSelectionManager(cfg.SelectionTimeout))
		},
		func(s *extractor.Service) usecase.ContentExtractor { return s },
		func(b *backend.Client) usecase.Analyzer { return b },
		func(storage repository.LocalStorage, cfg *config.Config) usecase.Settings {
			return usecase.NewSettings(storage, cfg.DefaultLanguage)
		},
		func(repo repository.HistoryRepository, cfg *config.Config) usecase.History {
			return usecase.NewHistory(repo, cfg.HistoryLimit, cfg.HistoryRetention)
		},
		usecase.NewModals,
		usecase.NewNavigator,
		usecase.NewReporter,
		func(cfg *config.Config) usecase.ScannerConfig {
			return usecase.ScannerConfig{PollInterval: cfg.PollInterval, SelectionTimeout: cfg.SelectionTimeout}
		},
		usecase.NewScanner,
		bus.NewDispatcher,
		provideHandler,
		provideServer,
	}
	for _, p := range providers {
		if err := c.Provide(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func provideRedis(cfg *config.Config, cleanup *Cleanup) redisConn {
	var (
		once   sync.Once
		client *redis.Client
	)
	return func() *redis.Client {
		once.Do(func() {
			client = redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			cleanup.Add(func() { _ = client.Close() })
		})
		return client
	}
}

func provideStorage(cfg *config.Config, log *zap.Logger, cleanup *Cleanup, conn redisConn) (repository.LocalStorage, error) {
	switch cfg.StorageDriver {
	case "", "memory":
		log.Warn("Using in-memory local storage; API key and settings will not survive a restart")
		return memory.NewLocalStorage(), nil
	case "redis":
		s := redis_adapter.NewLocalStorage(conn())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Ping(ctx); err != nil {
			return nil, fmt.Errorf("unable to connect to Redis: %w", err)
		}
		log.Info("Redis local storage connected", zap.String("addr", cfg.RedisAddr))
		return s, nil
	case "sqlite":
		s, err := sqlite.NewLocalStorage(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		cleanup.Add(func() { _ = s.Close() })
		log.Info("SQLite local storage opened", zap.String("path", cfg.SQLitePath))
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// provideHistoryRepo prefers Postgres, then a Redis list when Redis is the
// storage driver, and otherwise keeps the log inside local storage.
func provideHistoryRepo(deps storageDeps) (repository.HistoryRepository, error) {
	switch {
	case deps.Config.PostgresURL != "":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pool, err := postgres.NewPool(ctx, deps.Config.PostgresURL)
		if err != nil {
			return nil, err
		}
		deps.Cleanup.Add(pool.Close)
		deps.Logger.Info("PostgreSQL history log connected")
		return postgres.NewHistoryRepo(pool), nil
	case deps.Config.StorageDriver == "redis":
		return redis_adapter.NewHistoryRepo(deps.Redis()), nil
	}
	return kvstore.NewHistoryRepo(deps.Storage), nil
}

func providePageSource(cfg *config.Config, log *zap.Logger, cleanup *Cleanup) repository.PageSource {
	if !cfg.BrowserEnabled {
		return nil
	}
	p := chromedp_page.NewPageSource(2, cfg.PageLoadTimeout, log)
	cleanup.Add(p.Close)
	log.Info("Headless renderer enabled", zap.Duration("page_load_timeout", cfg.PageLoadTimeout))
	return p
}

func provideBackend(cfg *config.Config, storage repository.LocalStorage, log *zap.Logger) *backend.Client {
	return backend.NewClient(backend.Config{
		BaseURL:         cfg.BackendBaseURL,
		FallbackURLs:    cfg.BackendFallbackURLs,
		Timeout:         cfg.BackendTimeout,
		HealthTimeout:   cfg.HealthCheckTimeout,
		KeyTTL:          cfg.APIKeyTTL,
		ClientType:      cfg.ClientType,
		DefaultLanguage: cfg.DefaultLanguage,
	}, storage, log)
}

func provideHandler(d *bus.Dispatcher, storage repository.LocalStorage, history repository.HistoryRepository, log *zap.Logger) *handler.Handler {
	checks := map[string]handler.Pinger{"storage": storage}
	if p, ok := history.(handler.Pinger); ok {
		checks["history"] = p
	}
	return handler.NewHandler(d, checks, log)
}

func provideServer(cfg *config.Config, h *handler.Handler, log *zap.Logger) *http.Server {
	// A social scan may wait out a whole post selection before calling the backend.
	requestTimeout := cfg.SelectionTimeout + cfg.BackendTimeout + cfg.HealthCheckTimeout + 10*time.Second
	return &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router.New(h, log, requestTimeout),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
