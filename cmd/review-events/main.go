// Package main tails the review event topic and logs each event.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/theflex/reviews/pkg/common/config"
	"github.com/theflex/reviews/pkg/common/kafka"
	"github.com/theflex/reviews/pkg/common/logger"
	"github.com/theflex/reviews/pkg/common/models"
)

func main() {
	logger.Init()
	cfg := config.Load()

	if !cfg.KafkaEnabled() {
		logger.Log.Fatal("KAFKA_BROKERS is not set")
	}

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaReviewTopic, cfg.KafkaGroupID+"-tail")
	defer consumer.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Log.WithFields(map[string]interface{}{
		"topic":   cfg.KafkaReviewTopic,
		"brokers": cfg.KafkaBrokers,
	}).Info("Review event tail started")

	err := consumer.Consume(ctx, func(ctx context.Context, event models.Event) error {
		entry := logger.Log.WithFields(map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
			"source":     event.Source,
			"timestamp":  event.Timestamp,
		})
		switch event.Type {
		case models.EventReviewsIngested:
			entry.WithFields(event.Data).Info("reviews ingested")
		case models.EventApprovalChanged:
			entry.WithFields(event.Data).Info("review approval changed")
		default:
			entry.Warn("unknown review event")
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.WithError(err).Error("event tail stopped")
		os.Exit(1)
	}

	logger.Log.Info("Review event tail stopped")
}
