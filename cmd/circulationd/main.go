// Command circulationd runs the circulation service: an HTTP API for opening,
// closing, and listing book loans, backed by Postgres, the catalog service,
// RabbitMQ, and Kafka.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/analisys/circulation-go/catalog"
	"github.com/analisys/circulation-go/circulation"
	"github.com/analisys/circulation-go/config"
	"github.com/analisys/circulation-go/notification"
	"github.com/analisys/circulation-go/postgresrepo"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(logger); err != nil {
		logger.Error("service failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		return cfgErr
	}

	pool, poolErr := config.NewPGXPool(ctx, cfg.PostgresDSN)
	if poolErr != nil {
		return poolErr
	}
	defer pool.Close()

	repository, repoErr := postgresrepo.NewRepositoryFromPGXPool(
		pool,
		postgresrepo.WithTableName(cfg.LoansTable),
		postgresrepo.WithLogger(logger),
	)
	if repoErr != nil {
		return repoErr
	}

	if schemaErr := repository.EnsureSchema(ctx); schemaErr != nil {
		return schemaErr
	}

	catalogClient, catalogErr := catalog.NewClient(
		cfg.CatalogBaseURL,
		catalog.WithHTTPClient(&http.Client{Timeout: cfg.CatalogTimeout}),
		catalog.WithLogger(logger),
	)
	if catalogErr != nil {
		return catalogErr
	}

	queuePublisher, amqpErr := notification.NewAMQPPublisher(
		cfg.AMQPURL,
		notification.WithExchange(cfg.AMQPExchange),
		notification.WithRoutingKey(cfg.AMQPRoutingKey),
	)
	if amqpErr != nil {
		return amqpErr
	}
	defer closeQuietly(logger, "amqp publisher", queuePublisher.Close)

	streamPublisher, kafkaErr := notification.NewKafkaPublisher(
		cfg.KafkaBrokers,
		notification.WithTopic(cfg.KafkaTopic),
	)
	if kafkaErr != nil {
		return kafkaErr
	}
	defer closeQuietly(logger, "kafka publisher", streamPublisher.Close)

	dispatcher, dispatcherErr := notification.NewDispatcher(
		queuePublisher,
		streamPublisher,
		notification.WithLogger(logger),
	)
	if dispatcherErr != nil {
		return dispatcherErr
	}

	workflow, workflowErr := circulation.NewWorkflow(
		repository,
		catalogClient,
		dispatcher,
		circulation.WithLoanPeriod(cfg.LoanPeriod),
		circulation.WithCallTimeout(cfg.CatalogTimeout),
		circulation.WithLogger(logger),
	)
	if workflowErr != nil {
		return workflowErr
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newHTTPHandler(workflow, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrs := make(chan error, 1)

	go func() {
		logger.Info("circulation service listening", "addr", cfg.HTTPAddr)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrs <- err
		}
	}()

	select {
	case err := <-serverErrs:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func closeQuietly(logger *slog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Warn("failed to close "+name, "error", err.Error())
	}
}
