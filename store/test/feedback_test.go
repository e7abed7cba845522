package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/converse/store"
)

func TestMessageFeedbackUpsert(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	conversation := createTestingConversation(ctx, t, ts, "Rated chat")
	message := createTestingMessage(ctx, t, ts, conversation.ID, store.MessageRoleAI, "answer")

	// Absent feedback reads as nil.
	feedback, err := ts.GetMessageFeedback(ctx, &store.FindMessageFeedback{MessageID: &message.ID})
	require.NoError(t, err)
	require.Nil(t, feedback)

	created, err := ts.UpsertMessageFeedback(ctx, &store.UpsertMessageFeedback{
		MessageID: message.ID,
		Rating:    5,
		Comment:   "great",
	})
	require.NoError(t, err)
	require.Greater(t, created.ID, int32(0))
	require.Equal(t, int32(5), created.Rating)
	require.Equal(t, "great", created.Comment)

	// A second upsert replaces the values and keeps one row per message.
	updated, err := ts.UpsertMessageFeedback(ctx, &store.UpsertMessageFeedback{
		MessageID: message.ID,
		Rating:    2,
		Comment:   "changed my mind",
	})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, int32(2), updated.Rating)
	require.Equal(t, "changed my mind", updated.Comment)

	rows, err := ts.ListMessageFeedback(ctx, &store.FindMessageFeedback{ConversationID: &conversation.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, conversation.ID, rows[0].ConversationID)
	require.Equal(t, "Rated chat", rows[0].ConversationTitle)
}

func TestConversationFeedbackUpsert(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	conversation := createTestingConversation(ctx, t, ts, "Reviewed chat")

	created, err := ts.UpsertConversationFeedback(ctx, &store.UpsertConversationFeedback{
		ConversationID:    conversation.ID,
		OverallRating:     4,
		HelpfulnessRating: 5,
		AccuracyRating:    3,
		Comment:           "solid",
	})
	require.NoError(t, err)
	require.Equal(t, int32(4), created.OverallRating)
	require.Equal(t, int32(5), created.HelpfulnessRating)
	require.Equal(t, int32(3), created.AccuracyRating)

	updated, err := ts.UpsertConversationFeedback(ctx, &store.UpsertConversationFeedback{
		ConversationID:    conversation.ID,
		OverallRating:     5,
		HelpfulnessRating: 5,
		AccuracyRating:    5,
		Comment:           "solid",
	})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, int32(5), updated.OverallRating)

	found, err := ts.GetConversationFeedback(ctx, &store.FindConversationFeedback{ConversationID: &conversation.ID})
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "Reviewed chat", found.ConversationTitle)
}

func TestMessageFeedbackStats(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	conversation := createTestingConversation(ctx, t, ts, "Stats chat")

	first := createTestingMessage(ctx, t, ts, conversation.ID, store.MessageRoleAI, "one")
	second := createTestingMessage(ctx, t, ts, conversation.ID, store.MessageRoleAI, "two")

	_, err := ts.UpsertMessageFeedback(ctx, &store.UpsertMessageFeedback{MessageID: first.ID, Rating: 5})
	require.NoError(t, err)
	_, err = ts.UpsertMessageFeedback(ctx, &store.UpsertMessageFeedback{MessageID: second.ID, Rating: 3})
	require.NoError(t, err)

	sinceTs := time.Now().Unix() - 3600
	stats, err := ts.GetMessageFeedbackStats(ctx, sinceTs)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.Total)
	require.NotNil(t, stats.AvgRating)
	require.InDelta(t, 4.0, *stats.AvgRating, 0.001)
	require.Equal(t, int64(1), stats.ExcellentCount)
	require.Equal(t, int64(0), stats.GoodCount)
	require.Equal(t, int64(1), stats.FairCount)
	require.Equal(t, int64(0), stats.PoorCount)
	require.Equal(t, int64(0), stats.VeryPoorCount)

	// A window starting in the future sees nothing and yields a nil average.
	futureTs := time.Now().Unix() + 3600
	empty, err := ts.GetMessageFeedbackStats(ctx, futureTs)
	require.NoError(t, err)
	require.Equal(t, int64(0), empty.Total)
	require.Nil(t, empty.AvgRating)
}

func TestConversationFeedbackStats(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	first := createTestingConversation(ctx, t, ts, "One")
	second := createTestingConversation(ctx, t, ts, "Two")

	_, err := ts.UpsertConversationFeedback(ctx, &store.UpsertConversationFeedback{
		ConversationID:    first.ID,
		OverallRating:     5,
		HelpfulnessRating: 4,
		AccuracyRating:    4,
	})
	require.NoError(t, err)
	_, err = ts.UpsertConversationFeedback(ctx, &store.UpsertConversationFeedback{
		ConversationID:    second.ID,
		OverallRating:     1,
		HelpfulnessRating: 2,
		AccuracyRating:    2,
	})
	require.NoError(t, err)

	sinceTs := time.Now().Unix() - 3600
	stats, err := ts.GetConversationFeedbackStats(ctx, sinceTs)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.Total)
	require.NotNil(t, stats.AvgRating)
	require.InDelta(t, 3.0, *stats.AvgRating, 0.001)
	require.NotNil(t, stats.AvgHelpfulnessRating)
	require.InDelta(t, 3.0, *stats.AvgHelpfulnessRating, 0.001)
	require.NotNil(t, stats.AvgAccuracyRating)
	require.InDelta(t, 3.0, *stats.AvgAccuracyRating, 0.001)
	require.Equal(t, int64(1), stats.ExcellentCount)
	require.Equal(t, int64(1), stats.VeryPoorCount)
}

func TestRecentFeedbackOrdering(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	conversation := createTestingConversation(ctx, t, ts, "Recency")

	var messageIDs []int32
	for i := 0; i < 3; i++ {
		message := createTestingMessage(ctx, t, ts, conversation.ID, store.MessageRoleAI, "row")
		messageIDs = append(messageIDs, message.ID)
	}
	for _, id := range messageIDs {
		_, err := ts.UpsertMessageFeedback(ctx, &store.UpsertMessageFeedback{MessageID: id, Rating: 4})
		require.NoError(t, err)
	}

	limit := 2
	sinceTs := time.Now().Unix() - 3600
	rows, err := ts.ListMessageFeedback(ctx, &store.FindMessageFeedback{
		CreatedTsAfter:       &sinceTs,
		OrderByCreatedTsDesc: true,
		Limit:                &limit,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.GreaterOrEqual(t, rows[0].CreatedTs, rows[1].CreatedTs)
}
