package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/edcraft/mentoring-engine/internal/cache"
	"github.com/edcraft/mentoring-engine/internal/events"
	"github.com/edcraft/mentoring-engine/internal/models"
	"github.com/edcraft/mentoring-engine/internal/services"
)

// resultTTL bounds how long a finished export result stays pollable.
const resultTTL = 24 * time.Hour

// ResultCacheKey is the cache key holding the result of one export task.
func ResultCacheKey(taskID string) string {
	return "export:result:" + taskID
}

// ExportWorker consumes export requests from the task queue and runs them
// sequentially, one unit of work per message.
type ExportWorker struct {
	subscriber message.Subscriber
	exports    services.ExportService
	results    cache.CacheService
	publisher  events.EventPublisher
	topic      string
	logger     *slog.Logger
}

func NewExportWorker(
	subscriber message.Subscriber,
	exports services.ExportService,
	results cache.CacheService,
	publisher events.EventPublisher,
	topic string,
	logger *slog.Logger,
) *ExportWorker {
	return &ExportWorker{
		subscriber: subscriber,
		exports:    exports,
		results:    results,
		publisher:  publisher,
		topic:      topic,
		logger:     logger,
	}
}

// Run blocks consuming export requests until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context) error {
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(w.logger))
	if err != nil {
		return err
	}
	router.AddNoPublisherHandler("export-requests", w.topic, w.subscriber, w.Handle)
	return router.Run(ctx)
}

// Handle processes one export request message.
func (w *ExportWorker) Handle(msg *message.Message) error {
	var event events.ExportRequestedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// A malformed message will never parse; drop it instead of looping.
		w.logger.Error("Dropping unparseable export request",
			"message_id", msg.UUID,
			"error", err)
		return nil
	}

	ctx := msg.Context()
	w.logger.Info("Processing export request", "task_id", event.TaskID)

	result := w.exports.Export(ctx, &models.ExportRequest{
		TaskID:        event.TaskID,
		CourseID:      event.CourseID,
		SourceBlockID: event.SourceBlockID,
		BlockTypes:    event.BlockTypes,
		StudentID:     event.StudentID,
		MatchString:   event.MatchString,
		GetRoot:       event.GetRoot,
	})

	if err := w.results.Set(ctx, ResultCacheKey(event.TaskID), result, resultTTL); err != nil {
		return err
	}

	if err := w.publisher.PublishExportCompleted(ctx, &events.ExportCompletedEvent{
		TaskID:          event.TaskID,
		ReportFilename:  result.ReportFilename,
		Error:           result.Error,
		GenerationTimeS: result.GenerationTimeS,
	}); err != nil {
		w.logger.Error("Failed to publish export completed event",
			"task_id", event.TaskID,
			"error", err)
	}

	return nil
}
