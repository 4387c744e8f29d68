package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"alert-registry/internal/api"
	"alert-registry/internal/config"
	"alert-registry/internal/db"
	"alert-registry/internal/kafka"
	"alert-registry/internal/logging"
	"alert-registry/internal/observability"
	"alert-registry/internal/providers"
	"alert-registry/internal/services"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Config load failed: ", err)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatal("Logger init failed: ", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()

	// Connect to storage
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("DB connect failed: %v", err)
	}
	defer closeStore()

	// Event sinks
	hub := api.NewHub(logger, cfg.API.AllowedOrigins, cfg.API.MaxStreamConns)
	sinks := []services.EventSink{hub}

	var producer *kafka.Producer
	if cfg.KafkaEnabled() {
		producer = kafka.NewProducer(cfg.Kafka.Broker, cfg.Kafka.EventsTopic)
		sinks = append(sinks, producer)
		logger.Infof("Publishing alert events to Kafka topic %s", cfg.Kafka.EventsTopic)
	}
	if cfg.TelegramEnabled() {
		notifier, err := providers.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.RateLimit, logger)
		if err != nil {
			logger.Fatalf("Telegram init failed: %v", err)
		}
		sinks = append(sinks, notifier)
		logger.Infof("Sending new alerts to Telegram chat %d", cfg.Telegram.ChatID)
	}

	var wg sync.WaitGroup
	dispatcher := services.NewDispatcher(logger, metrics, cfg.Dispatch.QueueSize, cfg.Dispatch.MaxWorkers, sinks...)
	dispatcher.Start(&wg)

	svc := services.New(store, logger, metrics, services.WithPublisher(dispatcher))

	// Start Kafka ingest consumer
	var consumer *kafka.Consumer
	if cfg.Kafka.IngestTopic != "" {
		consumer = kafka.NewConsumer(cfg.Kafka.Broker, cfg.Kafka.IngestTopic, cfg.Kafka.GroupID, svc, logger)
		consumer.Start(ctx, &wg)
	}

	// Start API server
	router := api.NewRouter(api.NewHandler(svc, logger), hub, logger, metrics, cfg)
	srv := &http.Server{Addr: cfg.API.Port, Handler: router}
	go func() {
		logger.Infof("API started on %s", cfg.API.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("API run failed: %v", err)
			stop()
		}
	}()

	// Handle graceful shutdown
	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("API shutdown failed: %v", err)
	}
	hub.Close()

	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Errorf("Kafka consumer close failed: %v", err)
		}
	}
	dispatcher.Stop()
	wg.Wait()

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Errorf("Kafka producer close failed: %v", err)
		}
	}
	logger.Info("Service stopped")
}

// openStore returns the configured persistence service and its close func.
func openStore(ctx context.Context, cfg config.Config, logger *logging.Logger) (services.Store, func(), error) {
	if cfg.DB.DSN == db.MemoryDSN {
		logger.Warn("Using in-memory store; alerts are lost on restart")
		return db.NewMemoryStore(), func() {}, nil
	}

	conn, err := db.New(ctx, cfg.DB.DSN, cfg.DB.MaxConns)
	if err != nil {
		return nil, nil, err
	}
	if err := conn.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, nil, err
	}
	logger.Info("Connected to PostgreSQL")
	return conn, func() {
		conn.Close()
		logger.Info("DB connection closed")
	}, nil
}
