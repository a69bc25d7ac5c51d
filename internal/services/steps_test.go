package services

import (
	"context"
	"testing"

	"github.com/edcraft/mentoring-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStepFixture(t *testing.T) (*fakeContentRepo, *models.ContentNode, *StepRegistry) {
	t.Helper()
	parent := containerNode("block-1", "c1", models.BlockMentoring, nil, "Block")
	repo := newFakeContentRepo(parent)
	return repo, parent, NewStepRegistry(repo, parent, testLogger(t))
}

func TestStepRegistry_StepIDs(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps question children in child order, drops the rest", func(t *testing.T) {
		repo, _, registry := newStepFixture(t)
		repo.add(containerNode("html-1", "c1", models.BlockHTML, stringPtr("block-1"), ""))
		repo.add(containerNode("q-1", "c1", models.BlockMCQ, stringPtr("block-1"), ""))
		repo.add(containerNode("msg-1", "c1", models.BlockMessage, stringPtr("block-1"), ""))
		repo.add(containerNode("q-2", "c1", models.BlockAnswer, stringPtr("block-1"), ""))

		ids, err := registry.StepIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"q-1", "q-2"}, ids)
	})

	t.Run("normalizes qualified child ids", func(t *testing.T) {
		repo, _, registry := newStepFixture(t)
		repo.add(containerNode("q-1?branch=draft&version=7", "c1", models.BlockMCQ, stringPtr("block-1"), ""))

		ids, err := registry.StepIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"q-1"}, ids)
	})

	t.Run("skips unresolvable children", func(t *testing.T) {
		repo, _, registry := newStepFixture(t)
		repo.add(containerNode("q-1", "c1", models.BlockMCQ, stringPtr("block-1"), ""))
		repo.children["block-1"] = append(repo.children["block-1"], "q-gone")
		repo.add(containerNode("q-2", "c1", models.BlockRating, stringPtr("block-1"), ""))

		ids, err := registry.StepIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"q-1", "q-2"}, ids)
	})
}

func TestStepRegistry_StepNumber(t *testing.T) {
	ctx := context.Background()

	t.Run("numbers steps from one in child order", func(t *testing.T) {
		repo, _, registry := newStepFixture(t)
		q1 := containerNode("q-1", "c1", models.BlockMCQ, stringPtr("block-1"), "")
		q2 := containerNode("q-2", "c1", models.BlockAnswer, stringPtr("block-1"), "")
		q3 := containerNode("q-3", "c1", models.BlockRating, stringPtr("block-1"), "")
		repo.add(q1)
		repo.add(q2)
		repo.add(q3)

		for i, step := range []*models.ContentNode{q1, q2, q3} {
			number, err := registry.StepNumber(ctx, step)
			require.NoError(t, err)
			assert.Equal(t, i+1, number)
		}
	})

	t.Run("foreign step raises a consistency error", func(t *testing.T) {
		repo, _, registry := newStepFixture(t)
		repo.add(containerNode("q-1", "c1", models.BlockMCQ, stringPtr("block-1"), ""))
		foreign := containerNode("q-other", "c1", models.BlockMCQ, stringPtr("block-2"), "")

		_, err := registry.StepNumber(ctx, foreign)
		require.Error(t, err)
		assert.True(t, IsConsistency(err))
	})

	t.Run("invalidate picks up children added after first compute", func(t *testing.T) {
		repo, _, registry := newStepFixture(t)
		q1 := containerNode("q-1", "c1", models.BlockMCQ, stringPtr("block-1"), "")
		repo.add(q1)

		ids, err := registry.StepIDs(ctx)
		require.NoError(t, err)
		require.Len(t, ids, 1)

		// A step appended behind the cached list stays invisible until the
		// registry is invalidated.
		q2 := containerNode("q-2", "c1", models.BlockAnswer, stringPtr("block-1"), "")
		repo.add(q2)
		_, err = registry.StepNumber(ctx, q2)
		require.Error(t, err)
		assert.True(t, IsConsistency(err))

		registry.Invalidate()
		number, err := registry.StepNumber(ctx, q2)
		require.NoError(t, err)
		assert.Equal(t, 2, number)
	})
}

func TestStepRegistry_DisplayTitle(t *testing.T) {
	ctx := context.Background()

	t.Run("author-provided display name wins", func(t *testing.T) {
		repo, _, registry := newStepFixture(t)
		q1 := containerNode("q-1", "c1", models.BlockMCQ, stringPtr("block-1"), "Pick one")
		repo.add(q1)

		title, err := registry.DisplayTitle(ctx, q1)
		require.NoError(t, err)
		assert.Equal(t, "Pick one", title)
	})

	t.Run("lonely step is just Question", func(t *testing.T) {
		repo, _, registry := newStepFixture(t)
		q1 := containerNode("q-1", "c1", models.BlockMCQ, stringPtr("block-1"), "")
		repo.add(q1)

		lonely, err := registry.IsLonely(ctx, q1)
		require.NoError(t, err)
		assert.True(t, lonely)

		title, err := registry.DisplayTitle(ctx, q1)
		require.NoError(t, err)
		assert.Equal(t, "Question", title)
	})

	t.Run("siblings get numbered titles", func(t *testing.T) {
		repo, _, registry := newStepFixture(t)
		q1 := containerNode("q-1", "c1", models.BlockMCQ, stringPtr("block-1"), "")
		q2 := containerNode("q-2", "c1", models.BlockAnswer, stringPtr("block-1"), "")
		repo.add(q1)
		repo.add(q2)

		title1, err := registry.DisplayTitle(ctx, q1)
		require.NoError(t, err)
		assert.Equal(t, "Question 1", title1)

		title2, err := registry.DisplayTitle(ctx, q2)
		require.NoError(t, err)
		assert.Equal(t, "Question 2", title2)
	})
}
