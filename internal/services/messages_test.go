package services

import (
	"context"
	"strings"
	"testing"

	"github.com/edcraft/mentoring-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageChild(id, parentID string, messageType models.MessageType, content string) *models.ContentNode {
	node := containerNode(id, "c1", models.BlockMessage, stringPtr(parentID), "")
	node.MessageType = string(messageType)
	node.Content = content
	return node
}

func TestMessageResolver_MessageContent(t *testing.T) {
	ctx := context.Background()
	logger := testLogger(t)

	t.Run("authored message wins over default", func(t *testing.T) {
		parent := containerNode("block-1", "c1", models.BlockMentoring, nil, "Block")
		repo := newFakeContentRepo(parent,
			messageChild("msg-1", "block-1", models.MessageCompleted, "<p>Well done, keep going.</p>"))

		resolver := NewMessageResolver(repo, DefaultMessages(), nil, logger)
		content, err := resolver.MessageContent(ctx, parent, models.MessageCompleted, true)
		require.NoError(t, err)
		assert.Equal(t, "<p>Well done, keep going.</p>", content)
	})

	t.Run("first matching slot in child order wins", func(t *testing.T) {
		parent := containerNode("block-1", "c1", models.BlockMentoring, nil, "Block")
		repo := newFakeContentRepo(parent,
			messageChild("msg-1", "block-1", models.MessageIncomplete, "<p>try again</p>"),
			messageChild("msg-2", "block-1", models.MessageCompleted, "<p>first</p>"),
			messageChild("msg-3", "block-1", models.MessageCompleted, "<p>second</p>"))

		resolver := NewMessageResolver(repo, DefaultMessages(), nil, logger)
		content, err := resolver.MessageContent(ctx, parent, models.MessageCompleted, true)
		require.NoError(t, err)
		assert.Equal(t, "<p>first</p>", content)
	})

	t.Run("missing slot falls back to wrapped default", func(t *testing.T) {
		parent := containerNode("block-1", "c1", models.BlockMentoring, nil, "Block")
		repo := newFakeContentRepo(parent)

		resolver := NewMessageResolver(repo, DefaultMessages(), nil, logger)
		content, err := resolver.MessageContent(ctx, parent, models.MessageCompleted, true)
		require.NoError(t, err)
		assert.Equal(t, "<p>Great job!</p>", content)
	})

	t.Run("missing slot without default yields empty content", func(t *testing.T) {
		parent := containerNode("block-1", "c1", models.BlockMentoring, nil, "Block")
		repo := newFakeContentRepo(parent)

		resolver := NewMessageResolver(repo, DefaultMessages(), nil, logger)
		content, err := resolver.MessageContent(ctx, parent, models.MessageMaxAttemptsReached, false)
		require.NoError(t, err)
		assert.Equal(t, "", content)
	})

	t.Run("link rewriter applies to authored content only", func(t *testing.T) {
		parent := containerNode("block-1", "c1", models.BlockMentoring, nil, "Block")
		repo := newFakeContentRepo(parent,
			messageChild("msg-1", "block-1", models.MessageCompleted, `<a href="/jump_to_id/unit-2">next</a>`))

		rewrite := func(content string) string {
			return strings.ReplaceAll(content, "/jump_to_id/", "/courses/c1/jump_to_id/")
		}
		resolver := NewMessageResolver(repo, DefaultMessages(), rewrite, logger)
		content, err := resolver.MessageContent(ctx, parent, models.MessageCompleted, true)
		require.NoError(t, err)
		assert.Equal(t, `<a href="/courses/c1/jump_to_id/unit-2">next</a>`, content)

		// The fallback path must not run through the rewriter.
		fallback, err := resolver.MessageContent(ctx, parent, models.MessageIncomplete, true)
		require.NoError(t, err)
		assert.Equal(t, "<p>Not quite! You can try again, though.</p>", fallback)
	})

	t.Run("unknown message type is rejected", func(t *testing.T) {
		parent := containerNode("block-1", "c1", models.BlockMentoring, nil, "Block")
		repo := newFakeContentRepo(parent)

		resolver := NewMessageResolver(repo, DefaultMessages(), nil, logger)
		_, err := resolver.MessageContent(ctx, parent, models.MessageType("celebration"), true)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidMessageType)
	})
}
