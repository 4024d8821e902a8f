package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"stamply/internal/company/indexsync"
	"stamply/internal/company/search"
	companyservice "stamply/internal/company/service"
	companystore "stamply/internal/company/store"
	identityservice "stamply/internal/identity/service"
	identitystore "stamply/internal/identity/store"
	"stamply/internal/platform/config"
	"stamply/internal/platform/httpserver"
	"stamply/internal/platform/kafka"
	"stamply/internal/platform/kafka/producer"
	"stamply/internal/platform/logger"
	"stamply/internal/platform/metrics"
	"stamply/internal/platform/postgres"
	platformredis "stamply/internal/platform/redis"
	punchcardservice "stamply/internal/punchcard/service"
	punchcardstore "stamply/internal/punchcard/store"
	httptransport "stamply/internal/transport/http"
)

// main wires the API process: primary store, search index, event producer,
// services, router. Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Postgres.URL)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	index := search.NewRedisIndex(redisClient)
	if err := index.EnsureIndex(ctx); err != nil {
		log.Error("search index setup failed", "error", err)
		os.Exit(1)
	}

	if err := kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.IdentityTopic); err != nil {
		log.Error("topic setup failed", "topic", cfg.Kafka.IdentityTopic, "error", err)
		os.Exit(1)
	}
	prod, err := producer.New(cfg.Kafka.Brokers)
	if err != nil {
		log.Error("kafka unavailable", "error", err)
		os.Exit(1)
	}
	defer prod.Close()

	m := metrics.New()

	identities := identityservice.New(identitystore.NewPostgres(db), prod, m, log)
	companies := companyservice.New(
		companystore.NewPostgres(db),
		index,
		indexsync.New(index, m, log),
	)
	punchcards := punchcardservice.New(punchcardstore.NewPostgres(db), m, log)

	handler := httptransport.NewHandler(identities, companies, punchcards, log)
	srv := httpserver.New(cfg.Server, httptransport.NewRouter(handler, cfg.Auth.AdminSigningKey))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting stamply api", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
