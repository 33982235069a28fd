package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libredis "chargebook/backend/libs/redis"
	"chargebook/backend/services/booking-service/internal/config"
	"chargebook/backend/services/booking-service/internal/db"
	httpserver "chargebook/backend/services/booking-service/internal/http"
	"chargebook/backend/services/booking-service/internal/http/handlers"
	"chargebook/backend/services/booking-service/internal/notify"
	redisstore "chargebook/backend/services/booking-service/internal/redis"
	"chargebook/backend/services/booking-service/internal/repository"
	"chargebook/backend/services/booking-service/internal/scheduling"
	"chargebook/backend/services/booking-service/internal/service"
	"chargebook/backend/services/booking-service/internal/worker"
)

// App wires booking-service dependencies.
type App struct {
	server      *httpserver.Server
	pool        *pgxpool.Pool
	redisClient *redis.Client
	hub         *notify.Hub
	kafka       *notify.KafkaPublisher
	sweeper     *worker.ExpirySweeper
	channel     string
	logger      *zap.Logger
}

// New constructs the application graph.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	a := &App{logger: logger, channel: cfg.Redis.Channel}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.pool, err = db.NewPool(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	normalizer, err := scheduling.NewNormalizer(cfg.Scheduling.Timezone)
	if err != nil {
		return nil, err
	}

	chargerRepo := repository.NewChargerRepository(a.pool)
	var (
		directory scheduling.ChargerDirectory = chargerRepo
		cache     service.CacheInvalidator
		notifiers notify.Multi
	)

	a.hub = notify.NewHub(cfg.WS.PingInterval, cfg.WS.WriteTimeout, logger)
	if cfg.RedisEnabled() {
		a.redisClient, err = libredis.NewRedisClient(ctx, libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		cached := redisstore.NewChargerDirectory(a.redisClient, chargerRepo, cfg.ChargerCacheTTL(), logger)
		directory, cache = cached, cached
		// subscribers are fed by the relay so every instance sees every event
		notifiers = append(notifiers, notify.NewRedisPublisher(a.redisClient, cfg.Redis.Channel, logger))
	} else {
		notifiers = append(notifiers, a.hub)
	}
	if len(cfg.Kafka.Brokers) > 0 {
		a.kafka = notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		notifiers = append(notifiers, a.kafka)
	}

	scheduler := scheduling.NewScheduler(repository.NewReservationStore(a.pool), directory, logger, scheduling.Options{
		Notifier: notifiers,
		Margin:   cfg.Margin(),
	})

	reservationSvc := service.NewReservationService(scheduler, normalizer, repository.NewReservationRepository(a.pool))
	chargerSvc := service.NewChargerService(chargerRepo, cache, logger)
	maintenanceSvc := service.NewMaintenanceService(repository.NewMaintenanceRepository(a.pool), logger)

	if cfg.CleanupEnabled() {
		a.sweeper, err = worker.NewExpirySweeper(reservationSvc, cfg.Scheduling.CleanupCron, logger)
		if err != nil {
			return nil, err
		}
	}

	routes := httpserver.Routes{
		Health:       handlers.NewHealthHandler(),
		WS:           a.hub.HandleWS,
		Chargers:     handlers.NewChargerHandler(chargerSvc, logger),
		Reservations: handlers.NewReservationHandler(reservationSvc, logger),
		Maintenance:  handlers.NewMaintenanceHandler(maintenanceSvc, logger),
	}
	router := httpserver.NewRouter(routes, cfg.JWT.Secret)
	a.server = httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	logger.Info("booking service configured",
		zap.String("timezone", normalizer.Location().String()),
		zap.Duration("margin", scheduler.Checker().Margin()),
		zap.Bool("redis", a.redisClient != nil),
		zap.Bool("kafka", a.kafka != nil),
		zap.Bool("cleanup", a.sweeper != nil),
	)
	return a, nil
}

// Run starts background workers and the HTTP server.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Start(ctx)
	if a.redisClient != nil {
		go func() {
			if err := notify.Relay(ctx, a.redisClient, a.channel, a.hub, a.logger); err != nil {
				a.logger.Error("event relay stopped", zap.Error(err))
			}
		}()
	}
	if a.sweeper != nil {
		go func() {
			_ = a.sweeper.Run(ctx)
		}()
	}
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.hub != nil {
		a.hub.Close()
	}
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			a.logger.Warn("failed to close kafka writer", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
