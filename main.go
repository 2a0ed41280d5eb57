package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/logger"
	"catalog/internal/metrics"
	"catalog/internal/repositories"
	"catalog/internal/server"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		log.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// --- Store ---
	repo, closeStore, err := newRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := closeStore(shutdownCtx); err != nil {
			log.Warn("failed to close store", zap.Error(err))
		}
	}()

	// --- Product events ---
	// publisher stays a nil interface when events are disabled.
	var publisher services.Publisher
	if cfg.EventsEnabled() {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue}, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := mqClient.Close(); err != nil {
				log.Warn("failed to close RabbitMQ client", zap.Error(err))
			}
		}()
		publisher = mqClient

		if cfg.EventsConsume {
			if err := mqClient.ConsumeProductEvents(productEventHandler(log)); err != nil {
				log.Warn("failed to start product event consumer", zap.Error(err))
			}
		}
	} else {
		log.Info("RABBITMQ_URL not set, product events disabled")
	}

	// --- Metrics ---
	opts := server.Options{Logger: log}
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		opts.Gatherer = reg
	}

	opts.ProductService = services.NewProductService(repo, publisher, m, log)
	app := server.NewApp(opts)

	// --- HTTP server ---
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.ListenAddr()), zap.String("store", cfg.StoreDriver))
		errCh <- app.Listen(cfg.ListenAddr())
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		log.Warn("error during server shutdown", zap.Error(err))
	}
	log.Info("server gracefully stopped")
	return nil
}

// newRepository opens the store selected by cfg.StoreDriver. The returned
// close function releases the underlying connection.
func newRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) (repositories.ProductRepository, func(context.Context) error, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		mongo, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			return nil, nil, err
		}
		repo := repositories.NewMongoProductRepository(mongo.Collection(cfg.MongoCollection))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = mongo.Close(context.Background())
			return nil, nil, err
		}
		return repo, mongo.Close, nil

	case config.DriverPostgres, config.DriverSQLite:
		db, err := database.OpenGORM(cfg.StoreDriver, cfg.DatabaseDSN, log)
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewGORMProductRepository(db), func(ctx context.Context) error {
			return database.CloseGORM(ctx, db)
		}, nil

	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return repositories.NewInMemoryProductRepository(), func(context.Context) error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func productEventHandler(log *zap.Logger) func(amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var event services.ProductEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("failed to decode product event: %w", err)
		}
		log.Info("received product event",
			zap.String("type", event.Type),
			zap.String("product_id", event.Product.ID),
			zap.Time("occurred_at", event.OccurredAt),
		)
		return nil
	}
}
