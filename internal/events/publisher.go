package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EventPublisher defines the interface for publishing engine events
type EventPublisher interface {
	PublishExportRequested(ctx context.Context, event *ExportRequestedEvent) error
	PublishExportCompleted(ctx context.Context, event *ExportCompletedEvent) error
	PublishProgress(ctx context.Context, event *ProgressEvent) error
	Close() error
}

// Topics names the destinations for each event kind.
type Topics struct {
	ExportRequests string
	ExportResults  string
	Progress       string
}

// KafkaEventPublisher implements EventPublisher using Watermill with Kafka
type KafkaEventPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
	topics    Topics
}

// PublisherConfig holds configuration for the event publisher
type PublisherConfig struct {
	KafkaBrokers []string
	Topics       Topics
	Logger       *slog.Logger
}

// NewKafkaEventPublisher creates a new Kafka-based event publisher using Watermill
func NewKafkaEventPublisher(config PublisherConfig) (*KafkaEventPublisher, error) {
	logger := watermill.NewSlogLogger(config.Logger)

	publisherConfig := kafka.PublisherConfig{
		Brokers:   config.KafkaBrokers,
		Marshaler: kafka.DefaultMarshaler{},
	}

	publisher, err := kafka.NewPublisher(publisherConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	return &KafkaEventPublisher{
		publisher: publisher,
		logger:    config.Logger,
		topics:    config.Topics,
	}, nil
}

// NewWatermillEventPublisher wraps any Watermill publisher (kafka, gochannel)
// in the EventPublisher interface. Used for in-process transports in dev and
// tests.
func NewWatermillEventPublisher(publisher message.Publisher, topics Topics, logger *slog.Logger) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		publisher: publisher,
		logger:    logger,
		topics:    topics,
	}
}

func (p *KafkaEventPublisher) PublishExportRequested(ctx context.Context, event *ExportRequestedEvent) error {
	return p.publish(p.topics.ExportRequests, EventExportRequested, event.TaskID, event)
}

func (p *KafkaEventPublisher) PublishExportCompleted(ctx context.Context, event *ExportCompletedEvent) error {
	return p.publish(p.topics.ExportResults, EventExportCompleted, event.TaskID, event)
}

func (p *KafkaEventPublisher) PublishProgress(ctx context.Context, event *ProgressEvent) error {
	return p.publish(p.topics.Progress, EventProgress, watermill.NewUUID(), event)
}

func (p *KafkaEventPublisher) publish(topic string, eventType EventType, id string, payload interface{}) error {
	eventBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	msg := message.NewMessage(id, eventBytes)
	msg.Metadata.Set("event_type", string(eventType))
	msg.Metadata.Set("source", "mentoring-engine")
	msg.Metadata.Set("timestamp", time.Now().UTC().Format(time.RFC3339))

	if err := p.publisher.Publish(topic, msg); err != nil {
		p.logger.Error("Failed to publish event",
			"event_id", id,
			"event_type", eventType,
			"topic", topic,
			"error", err)
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	p.logger.Info("Published event",
		"event_id", id,
		"event_type", eventType,
		"topic", topic)

	return nil
}

// Close closes the publisher and releases resources
func (p *KafkaEventPublisher) Close() error {
	return p.publisher.Close()
}

// MockEventPublisher is a mock implementation for testing
type MockEventPublisher struct {
	ExportRequests []ExportRequestedEvent
	ExportResults  []ExportCompletedEvent
	ProgressEvents []ProgressEvent
	Logger         *slog.Logger
}

// NewMockEventPublisher creates a new mock event publisher
func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{Logger: logger}
}

func (m *MockEventPublisher) PublishExportRequested(ctx context.Context, event *ExportRequestedEvent) error {
	m.ExportRequests = append(m.ExportRequests, *event)
	m.Logger.Info("Mock: Published export requested event", "task_id", event.TaskID)
	return nil
}

func (m *MockEventPublisher) PublishExportCompleted(ctx context.Context, event *ExportCompletedEvent) error {
	m.ExportResults = append(m.ExportResults, *event)
	m.Logger.Info("Mock: Published export completed event", "task_id", event.TaskID)
	return nil
}

func (m *MockEventPublisher) PublishProgress(ctx context.Context, event *ProgressEvent) error {
	m.ProgressEvents = append(m.ProgressEvents, *event)
	m.Logger.Info("Mock: Published progress event", "block_id", event.BlockID)
	return nil
}

// Close is a no-op for the mock publisher
func (m *MockEventPublisher) Close() error {
	return nil
}

// ClearEvents clears all recorded events (for testing)
func (m *MockEventPublisher) ClearEvents() {
	m.ExportRequests = nil
	m.ExportResults = nil
	m.ProgressEvents = nil
}
