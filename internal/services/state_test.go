package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/edcraft/mentoring-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withFields(t *testing.T, node *models.ContentNode, fields map[string]models.Field) *models.ContentNode {
	t.Helper()
	encoded, err := json.Marshal(fields)
	require.NoError(t, err)
	node.Fields = encoded
	return node
}

func TestStateProjector_Project(t *testing.T) {
	ctx := context.Background()
	logger := testLogger(t)

	t.Run("projects allow-listed user-scoped fields only", func(t *testing.T) {
		block := withFields(t, containerNode("block-1", "c1", models.BlockMentoring, nil, "Block"), map[string]models.Field{
			"num_attempts": {Scope: models.ScopeUserState, Value: float64(2)},
			"completed":    {Scope: models.ScopeUserState, Value: true},
			// Settings-scoped and unlisted fields stay private.
			"max_attempts":  {Scope: models.ScopeSettings, Value: float64(3)},
			"grading_notes": {Scope: models.ScopeUserState, Value: "internal"},
		})
		repo := newFakeContentRepo(block)

		projector := NewStateProjector(repo, logger)
		state, err := projector.Project(ctx, block)
		require.NoError(t, err)

		assert.Equal(t, float64(2), state["num_attempts"])
		assert.Equal(t, true, state["completed"])
		assert.NotContains(t, state, "max_attempts")
		assert.NotContains(t, state, "grading_notes")
	})

	t.Run("nests child state under components, omitting unresolvable children", func(t *testing.T) {
		block := containerNode("block-1", "c1", models.BlockMentoring, nil, "Block")
		mcq := withFields(t, containerNode("q-1", "c1", models.BlockMCQ, stringPtr("block-1"), ""), map[string]models.Field{
			"student_choice": {Scope: models.ScopeUserState, Value: "yes"},
		})
		repo := newFakeContentRepo(block, mcq)
		repo.children["block-1"] = append(repo.children["block-1"], "q-gone")

		projector := NewStateProjector(repo, logger)
		state, err := projector.Project(ctx, block)
		require.NoError(t, err)

		components, ok := state[NestedBlocksKey].(map[string]interface{})
		require.True(t, ok)
		require.Len(t, components, 1)

		childState, ok := components["q-1"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "yes", childState["student_choice"])
	})

	t.Run("leaf answer blocks carry no components key", func(t *testing.T) {
		answer := withFields(t, containerNode("q-1", "c1", models.BlockAnswer, nil, ""), map[string]models.Field{
			"student_input": {Scope: models.ScopeUserState, Value: "free text"},
		})
		repo := newFakeContentRepo(answer)

		projector := NewStateProjector(repo, logger)
		state, err := projector.Project(ctx, answer)
		require.NoError(t, err)

		assert.Equal(t, "free text", state["student_input"])
		assert.NotContains(t, state, NestedBlocksKey)
	})

	t.Run("strips tips from graded results", func(t *testing.T) {
		results := []interface{}{
			[]interface{}{"q-1", map[string]interface{}{
				"status": "correct",
				"tips":   "<p>tip body</p>",
				"choices": []interface{}{
					map[string]interface{}{"value": "yes", "tips": "<p>choice tip</p>"},
				},
			}},
		}
		block := withFields(t, containerNode("block-1", "c1", models.BlockMentoring, nil, "Block"), map[string]models.Field{
			"student_results": {Scope: models.ScopeUserState, Value: results},
		})
		repo := newFakeContentRepo(block)

		projector := NewStateProjector(repo, logger)
		state, err := projector.Project(ctx, block)
		require.NoError(t, err)

		projected, ok := state["student_results"].([]interface{})
		require.True(t, ok)
		pair := projected[0].([]interface{})
		result := pair[1].(map[string]interface{})
		assert.NotContains(t, result, "tips")
		assert.Equal(t, "correct", result["status"])
		choice := result["choices"].([]interface{})[0].(map[string]interface{})
		assert.NotContains(t, choice, "tips")
		assert.Equal(t, "yes", choice["value"])
	})
}

func TestStripTips_ToleratesUnexpectedShapes(t *testing.T) {
	assert.Equal(t, "scalar", StripTips("scalar"))
	assert.Nil(t, StripTips(nil))

	malformed := []interface{}{"not a pair", []interface{}{"lonely"}}
	assert.Equal(t, malformed, StripTips(malformed))
}

func TestEncodeValue_Timestamps(t *testing.T) {
	submitted := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	assert.Equal(t, "2026-03-14T09:26:53Z", encodeValue(submitted))

	nested := map[string]interface{}{"submitted_at": submitted}
	encoded := encodeValue(nested).(map[string]interface{})
	assert.Equal(t, "2026-03-14T09:26:53Z", encoded["submitted_at"])
}
