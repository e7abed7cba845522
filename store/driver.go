package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Conversation model related methods.
	CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error)
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)
	CountConversations(ctx context.Context, find *FindConversation) (int64, error)
	UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error)
	DeleteConversation(ctx context.Context, delete *DeleteConversation) error

	// Message model related methods.
	//
	// AppendMessage assigns the message's sequence number inside the same
	// storage transaction that inserts the row: the read-max-then-insert
	// critical section is serialized per conversation at the database level,
	// so concurrent appenders on one conversation never collide while
	// appenders on different conversations proceed independently. A unique
	// violation on (conversation_id, sequence) surfaces ErrDuplicateSequence.
	AppendMessage(ctx context.Context, create *Message) (*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)
	DeleteMessage(ctx context.Context, delete *DeleteMessage) error

	// MessageFeedback model related methods.
	UpsertMessageFeedback(ctx context.Context, upsert *UpsertMessageFeedback) (*MessageFeedback, error)
	ListMessageFeedback(ctx context.Context, find *FindMessageFeedback) ([]*MessageFeedback, error)
	GetMessageFeedbackStats(ctx context.Context, sinceTs int64) (*FeedbackStats, error)

	// ConversationFeedback model related methods.
	UpsertConversationFeedback(ctx context.Context, upsert *UpsertConversationFeedback) (*ConversationFeedback, error)
	ListConversationFeedback(ctx context.Context, find *FindConversationFeedback) ([]*ConversationFeedback, error)
	GetConversationFeedbackStats(ctx context.Context, sinceTs int64) (*FeedbackStats, error)
}
