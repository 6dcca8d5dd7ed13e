package app

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/retail-orders/internal/cache"
	"github.com/vladislavdragonenkov/retail-orders/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/retail-orders/internal/health"
	"github.com/vladislavdragonenkov/retail-orders/internal/messaging/kafka"
	ordersvc "github.com/vladislavdragonenkov/retail-orders/internal/service/order"
	"github.com/vladislavdragonenkov/retail-orders/internal/storage/memory"
	"github.com/vladislavdragonenkov/retail-orders/internal/storage/postgres"
)

// Dependencies содержит собранные зависимости сервиса. Orders — точка
// входа для транспортного слоя, живущего вне этого репозитория.
type Dependencies struct {
	Store  domain.Store
	Orders *ordersvc.Service
	Logger *log.Entry

	pg       *postgres.Store
	redis    *goredis.Client
	producer *kafka.Producer
}

// NewDependencies инициализирует хранилище, кэш и producer по конфигу.
// Redis и Kafka опциональны: без них соответствующие post-commit шаги
// просто пропускаются. Без DSN сервис работает на in-memory хранилище.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		deps.pg = store
		deps.Store = store
		logger.Info("postgres store initialized")
	} else {
		deps.Store = memory.NewStore()
		logger.Warn("ORDERS_POSTGRES_DSN is not set, using in-memory store")
	}

	var productCache domain.ProductCache
	if cfg.RedisAddr != "" {
		deps.redis = goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		productCache = cache.NewRedisCache(deps.redis, logger.WithField("component", "product-cache"))
		logger.WithField("addr", cfg.RedisAddr).Info("redis product cache initialized")
	}

	var events domain.OrderEventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			deps.producer = producer
			events = producer
			logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")
		}
	}

	deps.Orders = ordersvc.NewService(
		deps.Store,
		productCache,
		events,
		logger.WithField("component", "order-service"),
	)

	return deps, nil
}

// HealthHandler собирает health handler с проверками инициализированных
// компонентов.
func (d *Dependencies) HealthHandler(version string) *healthcheck.Handler {
	handler := healthcheck.NewHandler(version)
	if d.pg != nil {
		handler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			return d.pg.Ping(context.Background())
		}))
	}
	if d.redis != nil {
		handler.RegisterChecker("redis", healthcheck.NewSimpleChecker("redis", func() error {
			return d.redis.Ping(context.Background()).Err()
		}))
	}
	return handler
}

// Close освобождает все ресурсы в обратном порядке инициализации.
func (d *Dependencies) Close() {
	if d.producer != nil {
		if err := d.producer.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close kafka producer")
		}
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close redis client")
		}
	}
	if d.pg != nil {
		if err := d.pg.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
