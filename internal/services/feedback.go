package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/edcraft/mentoring-engine/internal/events"
)

// FeedbackOptions is the configured grading-feedback policy of one block.
// Passed in explicitly so tests can substitute policies without global state.
type FeedbackOptions struct {
	// HideFeedbackIfAttemptsRemain suppresses per-question feedback until the
	// student has exhausted attempts, encouraging retries before revealing
	// correctness.
	HideFeedbackIfAttemptsRemain bool
	// HasSubmitButton is true when the block renders an explicit submit
	// control. Without one, submission happens implicitly per step and render
	// time itself triggers a progress notification.
	HasSubmitButton bool
}

// FeedbackEngine decides whether grade/feedback messages should be shown and
// whether rendering should publish a progress notification.
type FeedbackEngine struct {
	opts      FeedbackOptions
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewFeedbackEngine(opts FeedbackOptions, publisher events.EventPublisher, logger *slog.Logger) *FeedbackEngine {
	return &FeedbackEngine{
		opts:      opts,
		publisher: publisher,
		logger:    logger,
	}
}

// ShowMessage reports whether per-question feedback should be revealed.
// Nothing graded yet means nothing to show, regardless of policy.
func (e *FeedbackEngine) ShowMessage(hasResults, maxAttemptsReached bool) bool {
	if !hasResults {
		return false
	}
	if !e.opts.HideFeedbackIfAttemptsRemain {
		return true
	}
	return maxAttemptsReached
}

// ShouldPublishProgress reports whether rendering the block should emit a
// progress notification. With an explicit submit control the notification
// fires on submit instead, elsewhere.
func (e *FeedbackEngine) ShouldPublishProgress() bool {
	return !e.opts.HasSubmitButton
}

// PublishProgress emits a progress event for the block when the policy calls
// for one at render time.
func (e *FeedbackEngine) PublishProgress(ctx context.Context, blockID, studentID string) error {
	if !e.ShouldPublishProgress() {
		return nil
	}
	e.logger.Debug("Publishing render-time progress", "block_id", blockID, "student_id", studentID)
	return e.publisher.PublishProgress(ctx, &events.ProgressEvent{
		BlockID:   blockID,
		StudentID: studentID,
		Timestamp: time.Now().UTC(),
	})
}
