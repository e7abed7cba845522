package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrygo/converse/internal/profile"
	"github.com/hrygo/converse/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Cache settings
	cacheConfig cache.Config

	// Caches
	conversationCache *cache.Cache // cache for conversations
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	// Default cache settings
	cacheConfig := cache.Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        1000,
		OnEviction:      nil,
	}

	store := &Store{
		driver:            driver,
		profile:           profile,
		cacheConfig:       cacheConfig,
		conversationCache: cache.New(cacheConfig),
	}

	return store
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	// Stop all cache cleanup goroutines
	s.conversationCache.Close()

	return s.driver.Close()
}

func conversationCacheKey(id int32) string {
	return fmt.Sprintf("conversation:%d", id)
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	conversation, err := s.driver.CreateConversation(ctx, create)
	if err != nil {
		return nil, err
	}
	s.conversationCache.Set(conversationCacheKey(conversation.ID), conversation)
	return conversation, nil
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

func (s *Store) CountConversations(ctx context.Context, find *FindConversation) (int64, error) {
	return s.driver.CountConversations(ctx, find)
}

// GetConversation returns a single conversation matching find, or nil when
// none exists. Lookups by ID are served from the cache when possible.
func (s *Store) GetConversation(ctx context.Context, find *FindConversation) (*Conversation, error) {
	if find.ID != nil && find.UID == nil {
		if v, ok := s.conversationCache.Get(conversationCacheKey(*find.ID)); ok {
			if conversation, ok := v.(*Conversation); ok {
				return conversation, nil
			}
		}
	}

	list, err := s.driver.ListConversations(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	conversation := list[0]
	s.conversationCache.Set(conversationCacheKey(conversation.ID), conversation)
	return conversation, nil
}

func (s *Store) UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error) {
	conversation, err := s.driver.UpdateConversation(ctx, update)
	if err != nil {
		return nil, err
	}
	s.conversationCache.Set(conversationCacheKey(conversation.ID), conversation)
	return conversation, nil
}

func (s *Store) DeleteConversation(ctx context.Context, delete *DeleteConversation) error {
	if err := s.driver.DeleteConversation(ctx, delete); err != nil {
		return err
	}
	s.conversationCache.Delete(conversationCacheKey(delete.ID))
	return nil
}

// AppendMessage persists a message with the next per-conversation sequence
// number, then touches the parent conversation's updated_ts. The touch is a
// deliberate, visible part of the append contract but is best-effort: it runs
// outside the insert's transaction and a failure does not undo the append.
func (s *Store) AppendMessage(ctx context.Context, create *Message) (*Message, error) {
	message, err := s.driver.AppendMessage(ctx, create)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	if _, err := s.UpdateConversation(ctx, &UpdateConversation{
		ID:        message.ConversationID,
		UpdatedTs: &now,
	}); err != nil {
		slog.Warn("failed to touch conversation after message append",
			slog.Int("conversation_id", int(message.ConversationID)),
			slog.String("error", err.Error()),
		)
	}

	return message, nil
}

func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}

// GetMessage returns a single message matching find, or nil when none exists.
func (s *Store) GetMessage(ctx context.Context, find *FindMessage) (*Message, error) {
	list, err := s.driver.ListMessages(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteMessage(ctx context.Context, delete *DeleteMessage) error {
	return s.driver.DeleteMessage(ctx, delete)
}

func (s *Store) UpsertMessageFeedback(ctx context.Context, upsert *UpsertMessageFeedback) (*MessageFeedback, error) {
	return s.driver.UpsertMessageFeedback(ctx, upsert)
}

func (s *Store) ListMessageFeedback(ctx context.Context, find *FindMessageFeedback) ([]*MessageFeedback, error) {
	return s.driver.ListMessageFeedback(ctx, find)
}

// GetMessageFeedback returns the feedback row for find, or nil when none exists.
func (s *Store) GetMessageFeedback(ctx context.Context, find *FindMessageFeedback) (*MessageFeedback, error) {
	list, err := s.driver.ListMessageFeedback(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) GetMessageFeedbackStats(ctx context.Context, sinceTs int64) (*FeedbackStats, error) {
	return s.driver.GetMessageFeedbackStats(ctx, sinceTs)
}

func (s *Store) UpsertConversationFeedback(ctx context.Context, upsert *UpsertConversationFeedback) (*ConversationFeedback, error) {
	return s.driver.UpsertConversationFeedback(ctx, upsert)
}

func (s *Store) ListConversationFeedback(ctx context.Context, find *FindConversationFeedback) ([]*ConversationFeedback, error) {
	return s.driver.ListConversationFeedback(ctx, find)
}

// GetConversationFeedback returns the feedback row for find, or nil when none exists.
func (s *Store) GetConversationFeedback(ctx context.Context, find *FindConversationFeedback) (*ConversationFeedback, error) {
	list, err := s.driver.ListConversationFeedback(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) GetConversationFeedbackStats(ctx context.Context, sinceTs int64) (*FeedbackStats, error) {
	return s.driver.GetConversationFeedbackStats(ctx, sinceTs)
}
