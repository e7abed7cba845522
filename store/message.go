package store

import "errors"

type MessageRole string

const (
	MessageRoleUser MessageRole = "user"
	MessageRoleAI   MessageRole = "ai"
)

// ErrDuplicateSequence is returned when a message insert collides on
// (conversation_id, sequence). It indicates the per-conversation append
// serialization was bypassed and must never be papered over with a retry.
var ErrDuplicateSequence = errors.New("duplicate message sequence for conversation")

type Message struct {
	ID             int32
	UID            string
	ConversationID int32
	Role           MessageRole
	Text           string
	// Sequence is assigned by the driver on append: strictly increasing,
	// gap-free per conversation, starting at 1.
	Sequence  int32
	CreatedTs int64
}

type FindMessage struct {
	ID             *int32
	UID            *string
	ConversationID *int32
	// SequenceAfter filters to messages with sequence > the given value.
	SequenceAfter *int32
	// SequenceBefore filters to messages with sequence < the given value.
	SequenceBefore *int32
	// SequenceDescending reverses the default ascending sequence order.
	SequenceDescending bool

	Limit *int
}

type DeleteMessage struct {
	ID             *int32
	ConversationID *int32
}
