package test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/converse/store"
)

func createTestingMessage(ctx context.Context, t *testing.T, ts *store.Store, conversationID int32, role store.MessageRole, text string) *store.Message {
	message, err := ts.AppendMessage(ctx, &store.Message{
		UID:            shortuuid.New(),
		ConversationID: conversationID,
		Role:           role,
		Text:           text,
		CreatedTs:      time.Now().Unix(),
	})
	require.NoError(t, err)
	return message
}

func TestMessageSequenceAssignment(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	conversation := createTestingConversation(ctx, t, ts, "Sequencing")

	for i := 1; i <= 5; i++ {
		role := store.MessageRoleUser
		if i%2 == 0 {
			role = store.MessageRoleAI
		}
		message := createTestingMessage(ctx, t, ts, conversation.ID, role, "turn")
		require.Equal(t, int32(i), message.Sequence)
	}

	messages, err := ts.ListMessages(ctx, &store.FindMessage{ConversationID: &conversation.ID})
	require.NoError(t, err)
	require.Len(t, messages, 5)
	for i, message := range messages {
		require.Equal(t, int32(i+1), message.Sequence)
	}
}

func TestMessageSequencePerConversation(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	first := createTestingConversation(ctx, t, ts, "First")
	second := createTestingConversation(ctx, t, ts, "Second")

	createTestingMessage(ctx, t, ts, first.ID, store.MessageRoleUser, "a")
	createTestingMessage(ctx, t, ts, first.ID, store.MessageRoleAI, "b")
	message := createTestingMessage(ctx, t, ts, second.ID, store.MessageRoleUser, "c")

	// Sequences are independent per conversation.
	require.Equal(t, int32(1), message.Sequence)
}

func TestMessageConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	conversation := createTestingConversation(ctx, t, ts, "Concurrent")

	const writers = 16
	var wg sync.WaitGroup
	results := make(chan int32, writers)
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			message, err := ts.AppendMessage(ctx, &store.Message{
				UID:            shortuuid.New(),
				ConversationID: conversation.ID,
				Role:           store.MessageRoleUser,
				Text:           "racing",
				CreatedTs:      time.Now().Unix(),
			})
			if err != nil {
				errs <- err
				return
			}
			results <- message.Sequence
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent append failed: %v", err)
	}

	// Every writer got a distinct sequence and the set is gap-free.
	seen := make(map[int32]bool, writers)
	for sequence := range results {
		require.False(t, seen[sequence], "sequence %d assigned twice", sequence)
		seen[sequence] = true
	}
	require.Len(t, seen, writers)
	for i := int32(1); i <= writers; i++ {
		require.True(t, seen[i], "sequence %d missing", i)
	}
}

func TestMessageAppendTouchesConversation(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	conversation := createTestingConversation(ctx, t, ts, "Touched")

	before := conversation.UpdatedTs
	time.Sleep(1100 * time.Millisecond)
	createTestingMessage(ctx, t, ts, conversation.ID, store.MessageRoleUser, "ping")

	touched, err := ts.GetConversation(ctx, &store.FindConversation{ID: &conversation.ID})
	require.NoError(t, err)
	require.NotNil(t, touched)
	require.Greater(t, touched.UpdatedTs, before)
}

func TestMessageSequenceCursor(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	conversation := createTestingConversation(ctx, t, ts, "Cursor")

	for i := 0; i < 6; i++ {
		createTestingMessage(ctx, t, ts, conversation.ID, store.MessageRoleUser, "turn")
	}

	after := int32(4)
	tail, err := ts.ListMessages(ctx, &store.FindMessage{
		ConversationID: &conversation.ID,
		SequenceAfter:  &after,
	})
	require.NoError(t, err)
	require.Len(t, tail, 2)
	require.Equal(t, int32(5), tail[0].Sequence)
	require.Equal(t, int32(6), tail[1].Sequence)

	// Descending window before a sequence, the history shape.
	before := int32(5)
	limit := 3
	history, err := ts.ListMessages(ctx, &store.FindMessage{
		ConversationID:     &conversation.ID,
		SequenceBefore:     &before,
		SequenceDescending: true,
		Limit:              &limit,
	})
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, int32(4), history[0].Sequence)
	require.Equal(t, int32(2), history[2].Sequence)
}

func TestMessageDelete(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	conversation := createTestingConversation(ctx, t, ts, "Deleting")

	message := createTestingMessage(ctx, t, ts, conversation.ID, store.MessageRoleUser, "gone")
	err := ts.DeleteMessage(ctx, &store.DeleteMessage{ID: &message.ID})
	require.NoError(t, err)

	found, err := ts.GetMessage(ctx, &store.FindMessage{ID: &message.ID})
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestMessageSequenceUniqueBackstop(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	conversation := createTestingConversation(ctx, t, ts, "Backstop")

	createTestingMessage(ctx, t, ts, conversation.ID, store.MessageRoleUser, "first")

	// A second row claiming the same sequence must be rejected by the schema.
	_, err := ts.GetDriver().GetDB().ExecContext(ctx,
		"INSERT INTO message (uid, conversation_id, role, text, sequence) VALUES (?, ?, 'user', 'dup', 1)",
		shortuuid.New(), conversation.ID,
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "UNIQUE")
}

func TestMessageUIDCollisionNotDuplicateSequence(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	conversation := createTestingConversation(ctx, t, ts, "Colliding")

	uid := shortuuid.New()
	_, err := ts.AppendMessage(ctx, &store.Message{
		UID:            uid,
		ConversationID: conversation.ID,
		Role:           store.MessageRoleUser,
		Text:           "first",
	})
	require.NoError(t, err)

	// A reused uid trips the uid constraint; it must not be reported as a
	// sequence collision.
	_, err = ts.AppendMessage(ctx, &store.Message{
		UID:            uid,
		ConversationID: conversation.ID,
		Role:           store.MessageRoleUser,
		Text:           "second",
	})
	require.Error(t, err)
	require.False(t, errors.Is(err, store.ErrDuplicateSequence))
}
