package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsvc/internal/health"
	"github.com/vladislavdragonenkov/cartsvc/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/cartsvc/internal/metrics"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/cart"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/outbox"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/rest"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/user"
	"github.com/vladislavdragonenkov/cartsvc/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run собирает зависимости и держит REST и служебный серверы до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close(logger)

	engine := cart.NewService(deps.Users, deps.Carts, deps.Catalog, deps.Settler, cart.Options{
		Cache:   deps.Cache,
		Metrics: metrics.NewCartMetrics(),
		Logger:  logger.WithField("layer", "cart"),
	})
	users := user.NewService(deps.Users, logger.WithField("layer", "users"))
	resolver := user.NewEmailAuthResolver(deps.Users)
	router := rest.NewRouter(engine, users, resolver)

	// Kafka и outbox worker опциональны: без брокера события копятся
	// в outbox до следующего запуска с включённой публикацией.
	var (
		kafkaProducer *kafka.Producer
		workerDone    chan struct{}
	)
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			kafkaProducer = producer
			logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")

			worker := outbox.NewWorker(
				deps.Outbox,
				kafka.NewOutboxPublisher(producer, cfg.EventsTopic),
				outbox.Options{
					Logger:       logger.WithField("layer", "outbox"),
					DLQPublisher: kafka.NewOutboxPublisher(producer, kafka.TopicDeadLetterQueue),
					PollInterval: cfg.OutboxPollInterval,
				},
			)
			workerDone = make(chan struct{})
			go func() {
				defer close(workerDone)
				worker.Run(ctx)
			}()
		}
	}

	healthHandler := health.NewHandler(version.String())
	if store := deps.PostgresStore(); store != nil {
		healthHandler.RegisterChecker("postgres", health.CheckFunc{Name: "postgres", Fn: func() error {
			return store.Ping(context.Background())
		}})
	}
	if client := deps.RedisClient(); client != nil {
		healthHandler.RegisterChecker("redis", health.CheckFunc{Name: "redis", Fn: func() error {
			return client.Ping(context.Background()).Err()
		}})
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("REST API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	shutdown := func() {
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		if workerDone != nil {
			<-workerDone
		}
		if kafkaProducer != nil {
			if err := kafkaProducer.Close(); err != nil {
				logger.WithError(err).Warn("failed to close kafka producer")
			} else {
				logger.Info("kafka producer closed")
			}
		}
	}

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем серверы")
		shutdown()
		return ctx.Err()
	case err := <-errCh:
		shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает служебный HTTP-сервер Prometheus и health-проб.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *health.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", health.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
