package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edcraft/mentoring-engine/internal/models"
	"github.com/edcraft/mentoring-engine/internal/repositories"
)

// MessageDefaults maps a message type to its built-in fallback content. The
// table is passed to the resolver explicitly so tests can substitute an
// alternate table without global mutation.
type MessageDefaults map[models.MessageType]string

// DefaultMessages returns the built-in per-type fallback table.
func DefaultMessages() MessageDefaults {
	return MessageDefaults{
		models.MessageCompleted:          "Great job!",
		models.MessageIncomplete:         "Not quite! You can try again, though.",
		models.MessageMaxAttemptsReached: "Sorry, you have used up all of your allowed submissions.",
		models.MessageOnAssessmentReview: "Note: if you retake this assessment, only your final score counts. If you would like to keep this score, please continue to the next unit.",
	}
}

// LinkRewriter is an optional host-supplied transform applied to authored
// message content, typically rewriting internal course links. Nil means no
// rewriting.
type LinkRewriter func(content string) string

// MessageResolver finds the message child of a parent block matching a
// requested message type, falling back to the defaults table.
type MessageResolver struct {
	content  repositories.ContentRepository
	defaults MessageDefaults
	rewrite  LinkRewriter
	logger   *slog.Logger
}

func NewMessageResolver(content repositories.ContentRepository, defaults MessageDefaults, rewrite LinkRewriter, logger *slog.Logger) *MessageResolver {
	return &MessageResolver{
		content:  content,
		defaults: defaults,
		rewrite:  rewrite,
		logger:   logger,
	}
}

// MessageContent scans parent's children in order for the first message slot
// of the given type and returns its content, link-rewritten when a rewriter
// is installed. With no matching slot it returns the paragraph-wrapped
// default when useDefault is set, otherwise the empty string: an author may
// simply omit a message type.
func (r *MessageResolver) MessageContent(ctx context.Context, parent *models.ContentNode, messageType models.MessageType, useDefault bool) (string, error) {
	if !messageType.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidMessageType, messageType)
	}

	childIDs, err := r.content.ChildrenOf(ctx, parent)
	if err != nil {
		return "", fmt.Errorf("failed to list children of %s: %w", parent.NormalizedID(), err)
	}
	for _, childID := range childIDs {
		child, err := r.content.Resolve(ctx, childID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				r.logger.Debug("Skipping unresolvable child while resolving message",
					"parent_id", parent.NormalizedID(),
					"child_id", childID)
				continue
			}
			return "", fmt.Errorf("failed to resolve child %s: %w", childID, err)
		}
		if !child.BlockType.IsMessage() || models.MessageType(child.MessageType) != messageType {
			continue
		}
		content := child.Content
		if r.rewrite != nil {
			content = r.rewrite(content)
		}
		return content, nil
	}

	if useDefault {
		// The WYSIWYG editor wraps authored content in a <p> tag, so the
		// default gets the same wrapper.
		return fmt.Sprintf("<p>%s</p>", r.defaults[messageType]), nil
	}
	return "", nil
}
