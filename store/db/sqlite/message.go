package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/converse/store"
)

// AppendMessage inserts a message with the next sequence number for its
// conversation. The transaction starts immediate (see NewDB), so the
// read-max-sequence and the insert execute under the database write lock and
// concurrent appenders are serialized by the engine. The UNIQUE
// (conversation_id, sequence) constraint is the backstop: if it ever fires,
// the serialization was bypassed and ErrDuplicateSequence is surfaced rather
// than a silently wrong sequence.
func (d *DB) AppendMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int32
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM message WHERE conversation_id = ?`,
		create.ConversationID,
	).Scan(&next); err != nil {
		return nil, fmt.Errorf("failed to read max sequence: %w", err)
	}
	create.Sequence = next

	fields := []string{"uid", "conversation_id", "role", "text", "sequence"}
	args := []any{create.UID, create.ConversationID, create.Role, create.Text, create.Sequence}
	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		args = append(args, create.CreatedTs)
	}

	stmt := `INSERT INTO message (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts`
	if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&create.ID, &create.CreatedTs); err != nil {
		if isDuplicateSequence(err) {
			return nil, fmt.Errorf("%w: conversation %d sequence %d", store.ErrDuplicateSequence, create.ConversationID, create.Sequence)
		}
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message append: %w", err)
	}

	return create, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ConversationID; v != nil {
		where, args = append(where, "conversation_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.SequenceAfter; v != nil {
		where, args = append(where, "sequence > "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.SequenceBefore; v != nil {
		where, args = append(where, "sequence < "+placeholder(len(args)+1)), append(args, *v)
	}

	orderBy := "ORDER BY sequence ASC, id ASC"
	if find.SequenceDescending {
		orderBy = "ORDER BY sequence DESC, id DESC"
	}

	query := `SELECT id, uid, conversation_id, role, text, sequence, created_ts FROM message
		WHERE ` + strings.Join(where, " AND ") + ` ` + orderBy
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Message, 0)
	for rows.Next() {
		m := &store.Message{}
		if err := rows.Scan(&m.ID, &m.UID, &m.ConversationID, &m.Role, &m.Text, &m.Sequence, &m.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		list = append(list, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return list, nil
}

func (d *DB) DeleteMessage(ctx context.Context, delete *store.DeleteMessage) error {
	where, args := []string{}, []any{}

	if v := delete.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := delete.ConversationID; v != nil {
		where, args = append(where, "conversation_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(where) == 0 {
		return fmt.Errorf("no filter to delete messages")
	}

	filter := strings.Join(where, " AND ")
	if _, err := d.db.ExecContext(ctx, `DELETE FROM message_feedback WHERE message_id IN (SELECT id FROM message WHERE `+filter+`)`, args...); err != nil {
		return fmt.Errorf("failed to delete message feedback: %w", err)
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM message WHERE `+filter, args...); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}
