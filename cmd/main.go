// Package main runs the ledger API: account queries, transfers and currency exchanges.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/go-petr/fx-ledger/cmd/httpserver"
	"github.com/go-petr/fx-ledger/internal/middleware"
	"github.com/go-petr/fx-ledger/internal/outbox"
	"github.com/go-petr/fx-ledger/internal/outboxrepo"
	"github.com/go-petr/fx-ledger/pkg/configpkg"
	"github.com/go-petr/fx-ledger/pkg/dbpkg"

	_ "github.com/lib/pq"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.CreateLogger(config)

	db, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to database")
	}
	defer db.Close()

	if err := dbpkg.Migrate(db, config.MigrationURL); err != nil {
		logger.Fatal().Err(err).Msg("cannot migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []httpserver.Option

	if config.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", config.RedisAddr).Msg("redis is not reachable, idempotency keys are not enforced until it is")
		}

		opts = append(opts, httpserver.WithRedis(client))
	}

	server, err := httpserver.New(db, logger, config, opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	var wg sync.WaitGroup

	if brokers := config.Brokers(); len(brokers) > 0 {
		publisher := outbox.NewKafkaPublisher(brokers, config.KafkaTopic, logger)
		defer publisher.Close()

		relay, err := outbox.NewRelay(outboxrepo.NewRepoPGS(db), publisher, server.Metrics,
			config.OutboxPollInterval, config.OutboxBatchSize, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot create outbox relay")
		}

		wg.Add(1)

		go func() {
			defer wg.Done()
			relay.Run(ctx)
		}()
	}

	srv := &http.Server{
		Addr:    config.ServerAddress,
		Handler: server,
	}

	go func() {
		logger.Info().Str("addr", config.ServerAddress).Msg("LEDGER API SERVER HAS STARTED")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("cannot start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}

	wg.Wait()
}
