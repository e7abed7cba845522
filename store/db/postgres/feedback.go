package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/converse/store"
)

func (d *DB) UpsertMessageFeedback(ctx context.Context, upsert *store.UpsertMessageFeedback) (*store.MessageFeedback, error) {
	now := time.Now().Unix()
	stmt := `INSERT INTO message_feedback (message_id, rating, comment, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (message_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			comment = EXCLUDED.comment,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, created_ts, updated_ts`

	feedback := &store.MessageFeedback{
		MessageID: upsert.MessageID,
		Rating:    upsert.Rating,
		Comment:   upsert.Comment,
	}
	if err := d.db.QueryRowContext(ctx, stmt, upsert.MessageID, upsert.Rating, upsert.Comment, now, now).Scan(
		&feedback.ID, &feedback.CreatedTs, &feedback.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert message feedback: %w", err)
	}

	return feedback, nil
}

func (d *DB) ListMessageFeedback(ctx context.Context, find *store.FindMessageFeedback) ([]*store.MessageFeedback, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "message_feedback.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.MessageID; v != nil {
		where, args = append(where, "message_feedback.message_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ConversationID; v != nil {
		where, args = append(where, "message.conversation_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatedTsAfter; v != nil {
		where, args = append(where, "message_feedback.created_ts >= "+placeholder(len(args)+1)), append(args, *v)
	}

	orderBy := "ORDER BY message_feedback.id ASC"
	if find.OrderByCreatedTsDesc {
		orderBy = "ORDER BY message_feedback.created_ts DESC, message_feedback.id DESC"
	}

	query := `
		SELECT
			message_feedback.id,
			message_feedback.message_id,
			message_feedback.rating,
			message_feedback.comment,
			message_feedback.created_ts,
			message_feedback.updated_ts,
			message.conversation_id,
			conversation.title
		FROM message_feedback
		JOIN message ON message.id = message_feedback.message_id
		JOIN conversation ON conversation.id = message.conversation_id
		WHERE ` + strings.Join(where, " AND ") + ` ` + orderBy
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list message feedback: %w", err)
	}
	defer rows.Close()

	list := make([]*store.MessageFeedback, 0)
	for rows.Next() {
		f := &store.MessageFeedback{}
		if err := rows.Scan(
			&f.ID, &f.MessageID, &f.Rating, &f.Comment, &f.CreatedTs, &f.UpdatedTs,
			&f.ConversationID, &f.ConversationTitle,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message feedback: %w", err)
		}
		list = append(list, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message feedback: %w", err)
	}

	return list, nil
}

func (d *DB) GetMessageFeedbackStats(ctx context.Context, sinceTs int64) (*store.FeedbackStats, error) {
	query := `
		SELECT
			COUNT(id),
			AVG(rating),
			SUM(CASE WHEN rating = 5 THEN 1 ELSE 0 END),
			SUM(CASE WHEN rating = 4 THEN 1 ELSE 0 END),
			SUM(CASE WHEN rating = 3 THEN 1 ELSE 0 END),
			SUM(CASE WHEN rating = 2 THEN 1 ELSE 0 END),
			SUM(CASE WHEN rating = 1 THEN 1 ELSE 0 END)
		FROM message_feedback
		WHERE created_ts >= $1`

	stats := &store.FeedbackStats{}
	var avg sql.NullFloat64
	var excellent, good, fair, poor, veryPoor sql.NullInt64
	if err := d.db.QueryRowContext(ctx, query, sinceTs).Scan(
		&stats.Total, &avg, &excellent, &good, &fair, &poor, &veryPoor,
	); err != nil {
		return nil, fmt.Errorf("failed to aggregate message feedback: %w", err)
	}
	if avg.Valid {
		stats.AvgRating = &avg.Float64
	}
	stats.ExcellentCount = excellent.Int64
	stats.GoodCount = good.Int64
	stats.FairCount = fair.Int64
	stats.PoorCount = poor.Int64
	stats.VeryPoorCount = veryPoor.Int64

	return stats, nil
}

func (d *DB) UpsertConversationFeedback(ctx context.Context, upsert *store.UpsertConversationFeedback) (*store.ConversationFeedback, error) {
	now := time.Now().Unix()
	stmt := `INSERT INTO conversation_feedback
			(conversation_id, overall_rating, helpfulness_rating, accuracy_rating, comment, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (conversation_id) DO UPDATE SET
			overall_rating = EXCLUDED.overall_rating,
			helpfulness_rating = EXCLUDED.helpfulness_rating,
			accuracy_rating = EXCLUDED.accuracy_rating,
			comment = EXCLUDED.comment,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, created_ts, updated_ts`

	feedback := &store.ConversationFeedback{
		ConversationID:    upsert.ConversationID,
		OverallRating:     upsert.OverallRating,
		HelpfulnessRating: upsert.HelpfulnessRating,
		AccuracyRating:    upsert.AccuracyRating,
		Comment:           upsert.Comment,
	}
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.ConversationID, upsert.OverallRating, upsert.HelpfulnessRating, upsert.AccuracyRating, upsert.Comment, now, now,
	).Scan(&feedback.ID, &feedback.CreatedTs, &feedback.UpdatedTs); err != nil {
		return nil, fmt.Errorf("failed to upsert conversation feedback: %w", err)
	}

	return feedback, nil
}

func (d *DB) ListConversationFeedback(ctx context.Context, find *store.FindConversationFeedback) ([]*store.ConversationFeedback, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "conversation_feedback.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ConversationID; v != nil {
		where, args = append(where, "conversation_feedback.conversation_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatedTsAfter; v != nil {
		where, args = append(where, "conversation_feedback.created_ts >= "+placeholder(len(args)+1)), append(args, *v)
	}

	orderBy := "ORDER BY conversation_feedback.id ASC"
	if find.OrderByCreatedTsDesc {
		orderBy = "ORDER BY conversation_feedback.created_ts DESC, conversation_feedback.id DESC"
	}

	query := `
		SELECT
			conversation_feedback.id,
			conversation_feedback.conversation_id,
			conversation_feedback.overall_rating,
			conversation_feedback.helpfulness_rating,
			conversation_feedback.accuracy_rating,
			conversation_feedback.comment,
			conversation_feedback.created_ts,
			conversation_feedback.updated_ts,
			conversation.title
		FROM conversation_feedback
		JOIN conversation ON conversation.id = conversation_feedback.conversation_id
		WHERE ` + strings.Join(where, " AND ") + ` ` + orderBy
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation feedback: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ConversationFeedback, 0)
	for rows.Next() {
		f := &store.ConversationFeedback{}
		if err := rows.Scan(
			&f.ID, &f.ConversationID, &f.OverallRating, &f.HelpfulnessRating, &f.AccuracyRating,
			&f.Comment, &f.CreatedTs, &f.UpdatedTs, &f.ConversationTitle,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation feedback: %w", err)
		}
		list = append(list, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation feedback: %w", err)
	}

	return list, nil
}

func (d *DB) GetConversationFeedbackStats(ctx context.Context, sinceTs int64) (*store.FeedbackStats, error) {
	query := `
		SELECT
			COUNT(id),
			AVG(overall_rating),
			AVG(helpfulness_rating),
			AVG(accuracy_rating),
			SUM(CASE WHEN overall_rating = 5 THEN 1 ELSE 0 END),
			SUM(CASE WHEN overall_rating = 4 THEN 1 ELSE 0 END),
			SUM(CASE WHEN overall_rating = 3 THEN 1 ELSE 0 END),
			SUM(CASE WHEN overall_rating = 2 THEN 1 ELSE 0 END),
			SUM(CASE WHEN overall_rating = 1 THEN 1 ELSE 0 END)
		FROM conversation_feedback
		WHERE created_ts >= $1`

	stats := &store.FeedbackStats{}
	var avgOverall, avgHelpfulness, avgAccuracy sql.NullFloat64
	var excellent, good, fair, poor, veryPoor sql.NullInt64
	if err := d.db.QueryRowContext(ctx, query, sinceTs).Scan(
		&stats.Total, &avgOverall, &avgHelpfulness, &avgAccuracy,
		&excellent, &good, &fair, &poor, &veryPoor,
	); err != nil {
		return nil, fmt.Errorf("failed to aggregate conversation feedback: %w", err)
	}
	if avgOverall.Valid {
		stats.AvgRating = &avgOverall.Float64
	}
	if avgHelpfulness.Valid {
		stats.AvgHelpfulnessRating = &avgHelpfulness.Float64
	}
	if avgAccuracy.Valid {
		stats.AvgAccuracyRating = &avgAccuracy.Float64
	}
	stats.ExcellentCount = excellent.Int64
	stats.GoodCount = good.Int64
	stats.FairCount = fair.Int64
	stats.PoorCount = poor.Int64
	stats.VeryPoorCount = veryPoor.Int64

	return stats, nil
}
