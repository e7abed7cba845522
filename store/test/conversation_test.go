package test

import (
	"context"
	"testing"

	"github.com/lithammer/shortuuid/v4"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/converse/store"
)

func createTestingConversation(ctx context.Context, t *testing.T, ts *store.Store, title string) *store.Conversation {
	conversation, err := ts.CreateConversation(ctx, &store.Conversation{
		UID:   shortuuid.New(),
		Title: title,
	})
	require.NoError(t, err)
	require.Greater(t, conversation.ID, int32(0))
	return conversation
}

func TestConversationStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	conversation := createTestingConversation(ctx, t, ts, "First chat")
	require.NotZero(t, conversation.CreatedTs)
	require.NotZero(t, conversation.UpdatedTs)

	// Get by ID and by UID resolve the same row.
	found, err := ts.GetConversation(ctx, &store.FindConversation{ID: &conversation.ID})
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "First chat", found.Title)

	foundByUID, err := ts.GetConversation(ctx, &store.FindConversation{UID: &conversation.UID})
	require.NoError(t, err)
	require.NotNil(t, foundByUID)
	require.Equal(t, conversation.ID, foundByUID.ID)

	// Missing row yields nil, not an error.
	missingID := conversation.ID + 1000
	missing, err := ts.GetConversation(ctx, &store.FindConversation{ID: &missingID})
	require.NoError(t, err)
	require.Nil(t, missing)

	// Update title bumps the row.
	newTitle := "Renamed chat"
	updated, err := ts.UpdateConversation(ctx, &store.UpdateConversation{
		ID:    conversation.ID,
		Title: &newTitle,
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed chat", updated.Title)

	// List and count see both rows.
	createTestingConversation(ctx, t, ts, "Second chat")
	list, err := ts.ListConversations(ctx, &store.FindConversation{})
	require.NoError(t, err)
	require.Len(t, list, 2)

	count, err := ts.CountConversations(ctx, &store.FindConversation{})
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	limit, offset := 1, 1
	page, err := ts.ListConversations(ctx, &store.FindConversation{Limit: &limit, Offset: &offset})
	require.NoError(t, err)
	require.Len(t, page, 1)
}

func TestConversationDeleteCascades(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	conversation := createTestingConversation(ctx, t, ts, "Doomed")
	message := createTestingMessage(ctx, t, ts, conversation.ID, store.MessageRoleUser, "hello")
	_, err := ts.UpsertMessageFeedback(ctx, &store.UpsertMessageFeedback{
		MessageID: message.ID,
		Rating:    4,
	})
	require.NoError(t, err)
	_, err = ts.UpsertConversationFeedback(ctx, &store.UpsertConversationFeedback{
		ConversationID:    conversation.ID,
		OverallRating:     5,
		HelpfulnessRating: 4,
		AccuracyRating:    3,
	})
	require.NoError(t, err)

	err = ts.DeleteConversation(ctx, &store.DeleteConversation{ID: conversation.ID})
	require.NoError(t, err)

	gone, err := ts.GetConversation(ctx, &store.FindConversation{ID: &conversation.ID})
	require.NoError(t, err)
	require.Nil(t, gone)

	messages, err := ts.ListMessages(ctx, &store.FindMessage{ConversationID: &conversation.ID})
	require.NoError(t, err)
	require.Empty(t, messages)

	messageFeedback, err := ts.GetMessageFeedback(ctx, &store.FindMessageFeedback{MessageID: &message.ID})
	require.NoError(t, err)
	require.Nil(t, messageFeedback)

	conversationFeedback, err := ts.GetConversationFeedback(ctx, &store.FindConversationFeedback{ConversationID: &conversation.ID})
	require.NoError(t, err)
	require.Nil(t, conversationFeedback)
}
