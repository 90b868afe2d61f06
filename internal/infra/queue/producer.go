package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookedbeauty/welcome-offer-gate/internal/usecase"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher is the subset of *amqp.Channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// VerdictProducer publishes audit events; it implements usecase.VerdictPublisher.
type VerdictProducer struct {
	Ch       Publisher
	Exchange string
}

func NewProducer(ch Publisher, exchange string) *VerdictProducer {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &VerdictProducer{Ch: ch, Exchange: exchange}
}

func RoutingKey(kind string) string {
	return "verdict." + kind
}

func (p *VerdictProducer) PublishVerdict(ctx context.Context, event usecase.VerdictEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode verdict event: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		p.Exchange,
		RoutingKey(event.Kind),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			Body:          body,
			DeliveryMode:  amqp.Persistent,
			MessageId:     event.EvaluationID,
			CorrelationId: event.ContactID,
			Timestamp:     event.OccurredAt,
			Type:          event.Kind,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to RabbitMQ: %w", err)
	}
	return nil
}
