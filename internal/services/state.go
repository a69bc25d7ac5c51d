package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edcraft/mentoring-engine/internal/models"
	"github.com/edcraft/mentoring-engine/internal/repositories"
)

// NestedBlocksKey is the reserved key nesting child projections.
const NestedBlocksKey = "components"

// TransformFunc rewrites one field value before it is projected.
type TransformFunc func(value interface{}) interface{}

// StateProjector flattens a node's persisted per-student fields, plus the
// recursively collected state of its children, into one JSON-able mapping.
type StateProjector struct {
	content    repositories.ContentRepository
	allowLists map[models.BlockType][]string
	transforms map[models.BlockType]map[string]TransformFunc
	logger     *slog.Logger
}

func NewStateProjector(content repositories.ContentRepository, logger *slog.Logger) *StateProjector {
	return &StateProjector{
		content:    content,
		allowLists: DefaultStateFields(),
		transforms: DefaultStateTransforms(),
		logger:     logger,
	}
}

// DefaultStateFields is the per-block-type allow-list of projectable fields.
func DefaultStateFields() map[models.BlockType][]string {
	return map[models.BlockType][]string{
		models.BlockMentoring: {"num_attempts", "completed", "student_results"},
		models.BlockMCQ:       {"student_choice"},
		models.BlockRating:    {"student_choice"},
		models.BlockAnswer:    {"student_input"},
	}
}

// DefaultStateTransforms registers the per-block-type field transforms.
func DefaultStateTransforms() map[models.BlockType]map[string]TransformFunc {
	return map[models.BlockType]map[string]TransformFunc{
		models.BlockMentoring: {
			"student_results": StripTips,
		},
	}
}

var includeScopes = map[models.FieldScope]bool{
	models.ScopeUserState:   true,
	models.ScopeUserInfo:    true,
	models.ScopePreferences: true,
}

// Project builds the exportable view of node's persisted student state.
// Unresolvable children are omitted, not errored.
func (p *StateProjector) Project(ctx context.Context, node *models.ContentNode) (map[string]interface{}, error) {
	result := map[string]interface{}{}

	bag, err := node.FieldBag()
	if err != nil {
		return nil, fmt.Errorf("failed to decode fields of %s: %w", node.NormalizedID(), err)
	}

	allowed := map[string]bool{}
	for _, name := range p.allowLists[node.BlockType] {
		allowed[name] = true
	}
	transforms := p.transforms[node.BlockType]

	for name, field := range bag {
		if !includeScopes[field.Scope] || !allowed[name] {
			continue
		}
		value := field.Value
		if transform, ok := transforms[name]; ok {
			value = transform(value)
		}
		result[name] = encodeValue(value)
	}

	if node.BlockType.HasChildren() {
		components := map[string]interface{}{}
		childIDs, err := p.content.ChildrenOf(ctx, node)
		if err != nil {
			return nil, fmt.Errorf("failed to list children of %s: %w", node.NormalizedID(), err)
		}
		for _, childID := range childIDs {
			child, err := p.content.Resolve(ctx, childID)
			if err != nil {
				if repositories.IsNotFoundError(err) {
					p.logger.Debug("Omitting unresolvable child from projection",
						"parent_id", node.NormalizedID(),
						"child_id", childID)
					continue
				}
				return nil, fmt.Errorf("failed to resolve child %s: %w", childID, err)
			}
			childState, err := p.Project(ctx, child)
			if err != nil {
				return nil, err
			}
			components[models.NormalizeID(childID)] = childState
		}
		result[NestedBlocksKey] = components
	}

	return result, nil
}

// StripTips removes the nested "tips" entries from graded results: the tip
// content is already part of the authored view and is redundant in state.
// Tolerates any shape; absent keys are fine.
func StripTips(value interface{}) interface{} {
	results, ok := value.([]interface{})
	if !ok {
		return value
	}
	for _, entry := range results {
		// Each entry is a [name, result] pair.
		pair, ok := entry.([]interface{})
		if !ok || len(pair) < 2 {
			continue
		}
		result, ok := pair[1].(map[string]interface{})
		if !ok {
			continue
		}
		if choices, ok := result["choices"].([]interface{}); ok {
			for _, c := range choices {
				if choice, ok := c.(map[string]interface{}); ok {
					delete(choice, "tips")
				}
			}
		}
		delete(result, "tips")
	}
	return results
}

// encodeValue makes a value JSON-serializable, rendering timestamps as
// ISO-8601 strings.
func encodeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, val := range v {
			out[key] = encodeValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = encodeValue(val)
		}
		return out
	default:
		return value
	}
}
