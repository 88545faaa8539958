package repository

import (
	"context"
	"time"

	"GoldPulse/internal/domain/models"
	"GoldPulse/internal/domain/repository"
)

// Producer is the subset of pkg/kafka.Producer used here.
type Producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// displaySnapshot is the Kafka record for one applied view. The chart is left out;
// consumers that need history query the price API themselves.
type displaySnapshot struct {
	Sequence    uint64                    `json:"sequence"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Currency    string                    `json:"currency"`
	Unit        string                    `json:"unit"`
	HasPrice    bool                      `json:"has_price"`
	Price       float64                   `json:"price,omitempty"`
	Timestamp   int64                     `json:"timestamp,omitempty"`
	Changes     []models.PeriodChangeView `json:"changes"`
	Status      string                    `json:"status"`
	StyleClass  models.StyleClass         `json:"style_class"`
	Outcome     models.FetchOutcome       `json:"outcome"`
	StaleData   bool                      `json:"stale_data"`
}

// KafkaDisplayPublisher implements DisplaySink for Kafka.
type KafkaDisplayPublisher struct {
	producer Producer
	topic    string
}

// NewKafkaDisplayPublisher creates Kafka publisher.
func NewKafkaDisplayPublisher(producer Producer, topic string) *KafkaDisplayPublisher {
	return &KafkaDisplayPublisher{producer: producer, topic: topic}
}

var _ repository.DisplaySink = (*KafkaDisplayPublisher)(nil)

func (p *KafkaDisplayPublisher) Name() string { return "kafka" }

func (p *KafkaDisplayPublisher) PublishDisplay(ctx context.Context, v *models.DisplayView) error {
	return p.producer.Publish(ctx, p.topic, []byte(v.Currency), displaySnapshot{
		Sequence:    v.Sequence,
		GeneratedAt: v.GeneratedAt,
		Currency:    v.Currency,
		Unit:        v.Unit,
		HasPrice:    v.HasPrice,
		Price:       v.Price,
		Timestamp:   v.Timestamp,
		Changes:     v.Changes,
		Status:      v.Status.Text,
		StyleClass:  v.Status.StyleClass,
		Outcome:     v.Outcome,
		StaleData:   v.StaleData,
	})
}

func (p *KafkaDisplayPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
