package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	identityconsumer "stamply/internal/identity/consumer"
	"stamply/internal/identity/events"
	identitystore "stamply/internal/identity/store"
	"stamply/internal/platform/config"
	"stamply/internal/platform/kafka"
	"stamply/internal/platform/kafka/consumer"
	"stamply/internal/platform/logger"
	"stamply/internal/platform/metrics"
	"stamply/internal/platform/postgres"
)

// credentiald is the activation daemon: it consumes identity-created events
// and promotes provisional credentials to active. It is the only writer of
// that transition. Broker failures exit non-zero so the supervisor restarts
// the process instead of letting it sit idle with a dead subscription.
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

	if err := kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.IdentityTopic); err != nil {
		log.Error("topic setup failed", "topic", cfg.Kafka.IdentityTopic, "error", err)
		os.Exit(1)
	}

	handler := identityconsumer.NewActivationHandler(
		identitystore.NewPostgres(db),
		metrics.New(),
		log,
	)
	cons, err := consumer.New(consumer.Config{
		Brokers: cfg.Kafka.Brokers,
		Group:   cfg.Kafka.ConsumerGroup,
		Topics:  []string{events.TopicIdentity},
	}, handler, log)
	if err != nil {
		log.Error("kafka unavailable", "error", err)
		os.Exit(1)
	}
	defer cons.Close()

	log.Info("credentiald consuming",
		"group", cfg.Kafka.ConsumerGroup,
		"topic", events.TopicIdentity,
	)
	if err := cons.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("consumer failed", "error", err)
		os.Exit(1)
	}
}
