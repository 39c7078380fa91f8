package repository

import (
	"context"
	"fmt"
	"time"

	"fluxcast/internal/domain/models"
	domrepo "fluxcast/internal/domain/repository"
	pkgkafka "fluxcast/pkg/kafka"
)

// KafkaForecastPublisher emits finished forecasts for downstream
// planning consumers. One message per run, keyed by restaurant and item
// so per-item ordering holds under partitioning.
type KafkaForecastPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaForecastPublisher(producer *pkgkafka.Producer, topic string) *KafkaForecastPublisher {
	return &KafkaForecastPublisher{producer: producer, topic: topic}
}

var _ domrepo.ForecastPublisher = (*KafkaForecastPublisher)(nil)

func (p *KafkaForecastPublisher) PublishForecasts(ctx context.Context, restaurantID, itemName string, forecasts []models.ForecastDistribution) error {
	if len(forecasts) == 0 {
		return nil
	}
	key := []byte(fmt.Sprintf("%s:%s", restaurantID, itemName))
	return p.producer.Publish(ctx, p.topic, key, map[string]interface{}{
		"restaurant_id": restaurantID,
		"item_name":     itemName,
		"generated_at":  time.Now().UTC(),
		"forecasts":     forecasts,
	})
}

func (p *KafkaForecastPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
