package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/edcraft/mentoring-engine/internal/events"
)

// EventConfig holds configuration for the event transport
type EventConfig struct {
	Transport           string // kafka or channel (in-process)
	KafkaBrokers        string
	ConsumerGroup       string
	ExportRequestsTopic string
	ExportResultsTopic  string
	ProgressTopic       string
}

func LoadEventConfig() *EventConfig {
	return &EventConfig{
		Transport:           getEnv("EVENTS_TRANSPORT", "kafka"),
		KafkaBrokers:        getEnv("KAFKA_BROKERS", "localhost:9092"),
		ConsumerGroup:       getEnv("KAFKA_CONSUMER_GROUP", "mentoring-engine"),
		ExportRequestsTopic: getEnv("EXPORT_REQUESTS_TOPIC", "export-requests"),
		ExportResultsTopic:  getEnv("EXPORT_RESULTS_TOPIC", "export-results"),
		ProgressTopic:       getEnv("PROGRESS_TOPIC", "student-progress"),
	}
}

// GetKafkaBrokers returns Kafka brokers as a slice
func (c *EventConfig) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokers, ",")
}

// Topics returns the configured topic names
func (c *EventConfig) Topics() events.Topics {
	return events.Topics{
		ExportRequests: c.ExportRequestsTopic,
		ExportResults:  c.ExportResultsTopic,
		Progress:       c.ProgressTopic,
	}
}

// CreateTransport builds the event publisher and the export-request
// subscriber for the configured transport. The in-process channel transport
// backs both ends with the same gochannel pub/sub, handy for development
// without Kafka.
func (c *EventConfig) CreateTransport(logger *slog.Logger) (events.EventPublisher, message.Subscriber, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch c.Transport {
	case "kafka":
		logger.Info("Creating Kafka event transport",
			"brokers", c.KafkaBrokers,
			"consumer_group", c.ConsumerGroup)

		publisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: c.GetKafkaBrokers(),
			Topics:       c.Topics(),
			Logger:       logger,
		})
		if err != nil {
			return nil, nil, err
		}

		subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
			Brokers:       c.GetKafkaBrokers(),
			Unmarshaler:   kafka.DefaultMarshaler{},
			ConsumerGroup: c.ConsumerGroup,
		}, wmLogger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Kafka subscriber: %w", err)
		}

		return publisher, subscriber, nil
	case "channel":
		logger.Info("Using in-process event transport")
		pubSub := gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
		publisher := events.NewWatermillEventPublisher(pubSub, c.Topics(), logger)
		return publisher, pubSub, nil
	default:
		return nil, nil, fmt.Errorf("unknown event transport: %s", c.Transport)
	}
}
