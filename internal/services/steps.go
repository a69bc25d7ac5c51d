package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edcraft/mentoring-engine/internal/models"
	"github.com/edcraft/mentoring-engine/internal/repositories"
)

// StepRegistry computes and caches the ordered question children ("steps") of
// one parent block. The cache lifetime equals the registry instance lifetime,
// which should match one render/request lifecycle; obtain a fresh registry or
// call Invalidate after the underlying child list changes.
type StepRegistry struct {
	content repositories.ContentRepository
	logger  *slog.Logger
	parent  *models.ContentNode

	computed bool
	stepIDs  []string
	steps    []*models.ContentNode
}

func NewStepRegistry(content repositories.ContentRepository, parent *models.ContentNode, logger *slog.Logger) *StepRegistry {
	return &StepRegistry{
		content: content,
		logger:  logger,
		parent:  parent,
	}
}

// Invalidate drops the cached step list so the next query recomputes it.
func (r *StepRegistry) Invalidate() {
	r.computed = false
	r.stepIDs = nil
	r.steps = nil
}

// StepIDs returns the normalized ids of the parent's question children, in
// child order. Unresolvable children are skipped.
func (r *StepRegistry) StepIDs(ctx context.Context) ([]string, error) {
	if err := r.compute(ctx); err != nil {
		return nil, err
	}
	return r.stepIDs, nil
}

// Steps returns the resolved question children, in child order.
func (r *StepRegistry) Steps(ctx context.Context) ([]*models.ContentNode, error) {
	if err := r.compute(ctx); err != nil {
		return nil, err
	}
	return r.steps, nil
}

// StepNumber returns the 1-based position of step within its parent's step
// list. A step absent from the list is an authoring-tree inconsistency.
func (r *StepRegistry) StepNumber(ctx context.Context, step *models.ContentNode) (int, error) {
	ids, err := r.StepIDs(ctx)
	if err != nil {
		return 0, err
	}
	target := step.NormalizedID()
	for i, id := range ids {
		if id == target {
			return i + 1, nil
		}
	}
	return 0, NewConsistencyError(target, r.parent.NormalizedID())
}

// IsLonely reports whether step is its parent's only step. Like StepNumber it
// raises a ConsistencyError when the step is missing from the parent's list.
func (r *StepRegistry) IsLonely(ctx context.Context, step *models.ContentNode) (bool, error) {
	if _, err := r.StepNumber(ctx, step); err != nil {
		return false, err
	}
	ids, err := r.StepIDs(ctx)
	if err != nil {
		return false, err
	}
	return len(ids) == 1, nil
}

// DisplayTitle returns the author-provided title, or a synthesized
// "Question N" default. A lonely step gets just "Question": numbering a
// single, unambiguous question is noise.
func (r *StepRegistry) DisplayTitle(ctx context.Context, step *models.ContentNode) (string, error) {
	if step.DisplayName != "" {
		return step.DisplayName, nil
	}
	lonely, err := r.IsLonely(ctx, step)
	if err != nil {
		return "", err
	}
	if lonely {
		return models.QuestionCaption, nil
	}
	number, err := r.StepNumber(ctx, step)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %d", models.QuestionCaption, number), nil
}

func (r *StepRegistry) compute(ctx context.Context) error {
	if r.computed {
		return nil
	}

	childIDs, err := r.content.ChildrenOf(ctx, r.parent)
	if err != nil {
		return fmt.Errorf("failed to list children of %s: %w", r.parent.NormalizedID(), err)
	}

	var stepIDs []string
	var steps []*models.ContentNode
	for _, childID := range childIDs {
		child, err := r.content.Resolve(ctx, childID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				r.logger.Debug("Skipping unresolvable child while computing steps",
					"parent_id", r.parent.NormalizedID(),
					"child_id", childID)
				continue
			}
			return fmt.Errorf("failed to resolve child %s: %w", childID, err)
		}
		if !child.BlockType.IsQuestion() {
			continue
		}
		stepIDs = append(stepIDs, child.NormalizedID())
		steps = append(steps, child)
	}

	r.stepIDs = stepIDs
	r.steps = steps
	r.computed = true
	return nil
}
