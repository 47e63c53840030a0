package events

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// SubscriberConfig configures a consumer of the exam event topic
type SubscriberConfig struct {
	KafkaBrokers  []string
	ConsumerGroup string
	Logger        *slog.Logger
}

func NewKafkaEventSubscriber(config SubscriberConfig) (message.Subscriber, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               config.KafkaBrokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
		ConsumerGroup:         config.ConsumerGroup,
	}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka subscriber: %w", err)
	}
	return subscriber, nil
}

// DecodeEvent reads an ExamEvent back from a message; Data stays as raw JSON.
func DecodeEvent(msg *message.Message) (*ExamEvent, json.RawMessage, error) {
	var envelope struct {
		ExamEvent
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		return nil, nil, fmt.Errorf("failed to decode exam event %s: %w", msg.UUID, err)
	}

	event := envelope.ExamEvent
	if event.Type == "" {
		event.Type = EventType(msg.Metadata.Get("event_type"))
	}
	event.Data = nil
	return &event, envelope.Data, nil
}
