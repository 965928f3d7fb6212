package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"catalog/storefront/internal/client"
	"catalog/storefront/internal/config"
	"catalog/storefront/internal/domain"
	"catalog/storefront/internal/domain/task"
	"catalog/storefront/internal/proxy"
	"catalog/storefront/internal/queue"
	"catalog/storefront/internal/repository"
	"catalog/storefront/internal/server"
	"catalog/storefront/internal/service"
	"catalog/storefront/internal/state"
	"catalog/storefront/internal/view"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	Client     client.CatalogClient
	Repository repository.OrderIntentRepository
	Queue      queue.Queue
	Store      state.SelectionStore

	Service *service.Service
	Server  *server.Server

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized. Redis and
// PostgreSQL are only connected when configured.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	proxySupplier := proxy.NewSupplier(ctx, cfg.Catalog.Proxies, cfg.Catalog.ProxyCheckURL, cfg.Catalog.ProxyCheckRate)
	container.Client = client.NewCatalogClient(cfg.Catalog, proxySupplier)

	if cfg.Database.Enabled() {
		db, err := newPool(ctx, cfg.Database)
		if err != nil {
			container.Close()
			return nil, err
		}
		container.db = db
		container.Repository = repository.NewOrderIntentRepository(db)
		log.Info("✅ Connected to PostgreSQL successfully")
	} else {
		container.Repository = repository.NewLogOrderIntentRepository()
		log.Info("No database configured, order intents are only logged")
	}

	var orderQueue queue.Queue
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		container.redis = rdb

		// Test connection
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")

		redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg.Redis.ConsumerGroup, task.OrderIntentTaskType)
		if err != nil {
			container.Close()
			return nil, err
		}
		orderQueue = redisQueue
		container.Store = state.NewRedisSelectionStore(rdb, time.Duration(cfg.Session.TTL)*time.Hour)
	} else {
		container.Store = state.NewMemorySelectionStore(time.Duration(cfg.Session.TTL) * time.Hour)
		log.Info("No Redis configured, selections are kept in memory")
	}
	container.Queue = orderQueue

	container.Service = service.NewService(
		container.Client,
		container.Store,
		orderQueue,
		container.Repository,
		view.NewBuilder(cfg.Catalog.CheckoutURL),
		cfg.Redis.MinIdleTime,
	)

	srv, err := server.New(cfg, container.Service)
	if err != nil {
		container.Close()
		return nil, err
	}
	container.Server = srv

	return container, nil
}

func newPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return db, nil
}

// Run serves the storefront, loads the catalog once and processes order
// intents until ctx is cancelled. A failed catalog load is shown to users and
// does not stop the server.
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Server.Run(ctx)
	})

	g.Go(func() error {
		err := c.Service.LoadCatalog(ctx)
		var loadErr *domain.LoadError
		if err != nil && !errors.As(err, &loadErr) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return c.Service.RunWorkers(ctx, c.Config.Redis.MaxWorkers)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	var errs []error
	if c.Client != nil {
		errs = append(errs, c.Client.Close())
	}
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}

	log.Info("Container shut down successfully")
	return errors.Join(errs...)
}
