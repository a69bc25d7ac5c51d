package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edcraft/mentoring-engine/internal/models"
	"github.com/edcraft/mentoring-engine/internal/repositories"
)

// NodePredicate is a capability test applied to each node during traversal.
type NodePredicate func(*models.ContentNode) bool

// TreeWalker collects nodes of interest from a content subtree.
type TreeWalker interface {
	// Collect traverses root pre-order, depth-first, and returns every node
	// satisfying pred. A matching node is yielded once and its branch is not
	// descended further. Children that fail to resolve are skipped: a single
	// broken link must never abort a walk over a whole course.
	Collect(ctx context.Context, root *models.ContentNode, pred NodePredicate) ([]*models.ContentNode, error)
}

type treeWalker struct {
	content repositories.ContentRepository
	logger  *slog.Logger
}

func NewTreeWalker(content repositories.ContentRepository, logger *slog.Logger) TreeWalker {
	return &treeWalker{
		content: content,
		logger:  logger,
	}
}

func (w *treeWalker) Collect(ctx context.Context, root *models.ContentNode, pred NodePredicate) ([]*models.ContentNode, error) {
	var matches []*models.ContentNode
	if err := w.scan(ctx, root, pred, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (w *treeWalker) scan(ctx context.Context, node *models.ContentNode, pred NodePredicate, matches *[]*models.ContentNode) error {
	if pred(node) {
		*matches = append(*matches, node)
		return nil
	}
	if !node.BlockType.HasChildren() {
		return nil
	}

	childIDs, err := w.content.ChildrenOf(ctx, node)
	if err != nil {
		return fmt.Errorf("failed to list children of %s: %w", node.NormalizedID(), err)
	}
	for _, childID := range childIDs {
		child, err := w.content.Resolve(ctx, childID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				// Nodes may refer to missing children. Don't break in this case.
				w.logger.Debug("Skipping unresolvable child during walk",
					"parent_id", node.NormalizedID(),
					"child_id", childID)
				continue
			}
			return fmt.Errorf("failed to resolve child %s: %w", childID, err)
		}
		if err := w.scan(ctx, child, pred, matches); err != nil {
			return err
		}
	}
	return nil
}

// QuestionPredicate matches answer-bearing question blocks, optionally
// restricted to the given type tags.
func QuestionPredicate(blockTypes []models.BlockType) NodePredicate {
	allowed := make(map[models.BlockType]bool, len(blockTypes))
	if len(blockTypes) == 0 {
		for _, bt := range models.AnswerBearingTypes() {
			allowed[bt] = true
		}
	} else {
		for _, bt := range blockTypes {
			allowed[bt] = true
		}
	}
	return func(node *models.ContentNode) bool {
		return node.BlockType.IsQuestion() && allowed[node.BlockType]
	}
}

// MessagePredicate matches message slot blocks.
func MessagePredicate() NodePredicate {
	return func(node *models.ContentNode) bool {
		return node.BlockType.IsMessage()
	}
}
