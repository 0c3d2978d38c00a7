package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-events/internal/models"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer}
}

// lifecycleMessage is the wire shape of every event lifecycle record.
type lifecycleMessage struct {
	Action     string       `json:"action"`
	OccurredAt time.Time    `json:"occurredAt"`
	Event      models.Event `json:"event"`
}

// PublishEventCreated streams the creation of an event record to Kafka.
func (p *Producer) PublishEventCreated(event models.Event) error {
	return p.publish("event_created", event)
}

// PublishEventUpdated streams an event update to Kafka.
func (p *Producer) PublishEventUpdated(event models.Event) error {
	return p.publish("event_updated", event)
}

// PublishEventDeleted streams an event deletion to Kafka. Only the id of
// the deleted record is meaningful in the payload.
func (p *Producer) PublishEventDeleted(event models.Event) error {
	return p.publish("event_deleted", event)
}

func (p *Producer) publish(action string, event models.Event) error {
	msgBytes, err := json.Marshal(lifecycleMessage{
		Action:     action,
		OccurredAt: time.Now().UTC(),
		Event:      event,
	})
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(event.ID),
			Value: msgBytes,
		},
	)
}

// Close flushes and shuts down the underlying writer.
func (p *Producer) Close() error {
	return p.Writer.Close()
}
