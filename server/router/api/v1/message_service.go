package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/converse/plugin/llm"
	apierrors "github.com/hrygo/converse/server/internal/errors"
	"github.com/hrygo/converse/store"
)

const (
	// maxMessageLength bounds a user turn, in characters.
	maxMessageLength = 1000

	// historyWindow is how many prior messages are sent to the LLM as
	// conversational context.
	historyWindow = 10

	defaultMessagePageSize = 50
	maxMessagePageSize     = 200
)

// Message is the API representation of a message. Feedback embeds the
// message's feedback row when one exists.
type Message struct {
	ID           int32           `json:"id"`
	UID          string          `json:"uid"`
	Conversation int32           `json:"conversation"`
	Role         string          `json:"role"`
	Text         string          `json:"text"`
	CreatedAt    string          `json:"created_at"`
	Sequence     int32           `json:"sequence"`
	Feedback     *NestedFeedback `json:"feedback"`
}

// NestedFeedback is the compact feedback representation embedded in Message.
type NestedFeedback struct {
	ID        int32   `json:"id"`
	Rating    int32   `json:"rating"`
	Comment   *string `json:"comment"`
	CreatedAt string  `json:"created_at"`
}

func convertMessageFromStore(m *store.Message, feedback *store.MessageFeedback) *Message {
	message := &Message{
		ID:           m.ID,
		UID:          m.UID,
		Conversation: m.ConversationID,
		Role:         string(m.Role),
		Text:         m.Text,
		CreatedAt:    formatTs(m.CreatedTs),
		Sequence:     m.Sequence,
	}
	if feedback != nil {
		message.Feedback = &NestedFeedback{
			ID:        feedback.ID,
			Rating:    feedback.Rating,
			Comment:   nullableString(feedback.Comment),
			CreatedAt: formatTs(feedback.CreatedTs),
		}
	}
	return message
}

type listMessagesResponse struct {
	Results []*Message `json:"results"`
	LastSeq int32      `json:"lastSeq"`
}

func (s *APIV1Service) ListMessages(c echo.Context) error {
	ctx := c.Request().Context()

	conversationID, err := pathID(c)
	if err != nil {
		return renderError(c, err)
	}
	conversation, err := s.Store.GetConversation(ctx, &store.FindConversation{ID: &conversationID})
	if err != nil {
		return renderError(c, apierrors.Internal("failed to get conversation", err))
	}
	if conversation == nil {
		return renderError(c, apierrors.NotFound("conversation not found"))
	}

	since := int32(queryInt(c, "since", 0))
	limit := queryInt(c, "limit", defaultMessagePageSize)
	if limit > maxMessagePageSize {
		limit = maxMessagePageSize
	}
	if limit < 0 {
		limit = defaultMessagePageSize
	}

	find := &store.FindMessage{
		ConversationID: &conversationID,
		Limit:          &limit,
	}
	if since > 0 {
		find.SequenceAfter = &since
	}
	messages, err := s.Store.ListMessages(ctx, find)
	if err != nil {
		return renderError(c, apierrors.Internal("failed to list messages", err))
	}

	// Batch-load feedback for the conversation to embed per message.
	feedbackByMessage, err := s.feedbackByMessageID(c, conversationID)
	if err != nil {
		return renderError(c, err)
	}

	resp := &listMessagesResponse{
		Results: make([]*Message, 0, len(messages)),
		LastSeq: since,
	}
	for _, message := range messages {
		resp.Results = append(resp.Results, convertMessageFromStore(message, feedbackByMessage[message.ID]))
	}
	if len(messages) > 0 {
		resp.LastSeq = messages[len(messages)-1].Sequence
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) feedbackByMessageID(c echo.Context, conversationID int32) (map[int32]*store.MessageFeedback, error) {
	rows, err := s.Store.ListMessageFeedback(c.Request().Context(), &store.FindMessageFeedback{
		ConversationID: &conversationID,
	})
	if err != nil {
		return nil, apierrors.Internal("failed to list message feedback", err)
	}
	byMessage := make(map[int32]*store.MessageFeedback, len(rows))
	for _, row := range rows {
		byMessage[row.MessageID] = row
	}
	return byMessage, nil
}

type createMessageRequest struct {
	Text string `json:"text"`
}

type createMessageResponse struct {
	UserMessage *Message `json:"user_message"`
	AIMessage   *Message `json:"ai_message"`
}

// CreateMessage appends a user turn and produces the AI reply:
// validate, persist the user message via the sequencer, gather recent
// history, call the LLM under a bounded timeout, persist the AI message.
//
// When the LLM call fails the already-persisted user message is retained and
// the failure surfaces as a gateway error. This asymmetry is deliberate and
// matches the long-standing API behavior; clients resubmit the turn to retry.
func (s *APIV1Service) CreateMessage(c echo.Context) error {
	ctx := c.Request().Context()

	conversationID, err := pathID(c)
	if err != nil {
		return renderError(c, err)
	}
	conversation, err := s.Store.GetConversation(ctx, &store.FindConversation{ID: &conversationID})
	if err != nil {
		return renderError(c, apierrors.Internal("failed to get conversation", err))
	}
	if conversation == nil {
		return renderError(c, apierrors.NotFound("conversation not found"))
	}

	request := &createMessageRequest{}
	if err := c.Bind(request); err != nil {
		return renderError(c, apierrors.InvalidArgument("malformed request body"))
	}
	text := strings.TrimSpace(request.Text)
	if text == "" {
		return renderError(c, apierrors.InvalidField("text", "Message text cannot be empty."))
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		return renderError(c, apierrors.InvalidField("text", "Message text must be at most 1000 characters."))
	}

	userMessage, err := s.appendMessage(c, conversationID, store.MessageRoleUser, text)
	if err != nil {
		return renderError(c, err)
	}

	history, err := s.recentHistory(c, conversationID, userMessage.Sequence)
	if err != nil {
		return renderError(c, err)
	}

	reply, err := s.generateReply(ctx, history, text)
	if err != nil {
		return renderError(c, apierrors.UpstreamFailure("failed to generate AI reply", err))
	}

	aiMessage, err := s.appendMessage(c, conversationID, store.MessageRoleAI, reply)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(http.StatusCreated, &createMessageResponse{
		UserMessage: convertMessageFromStore(userMessage, nil),
		AIMessage:   convertMessageFromStore(aiMessage, nil),
	})
}

func (s *APIV1Service) appendMessage(c echo.Context, conversationID int32, role store.MessageRole, text string) (*store.Message, error) {
	message, err := s.Store.AppendMessage(c.Request().Context(), &store.Message{
		UID:            shortuuid.New(),
		ConversationID: conversationID,
		Role:           role,
		Text:           text,
		CreatedTs:      time.Now().Unix(),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateSequence) {
			return nil, apierrors.DuplicateSequence(err)
		}
		return nil, apierrors.Internal("failed to append message", err)
	}
	return message, nil
}

// recentHistory returns up to historyWindow messages preceding the given
// sequence, oldest first.
func (s *APIV1Service) recentHistory(c echo.Context, conversationID int32, beforeSequence int32) ([]llm.Turn, error) {
	limit := historyWindow
	messages, err := s.Store.ListMessages(c.Request().Context(), &store.FindMessage{
		ConversationID:     &conversationID,
		SequenceBefore:     &beforeSequence,
		SequenceDescending: true,
		Limit:              &limit,
	})
	if err != nil {
		return nil, apierrors.Internal("failed to load conversation history", err)
	}

	// Reverse into chronological order.
	turns := make([]llm.Turn, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		turns = append(turns, llm.Turn{
			Role: string(messages[i].Role),
			Text: messages[i].Text,
		})
	}
	return turns, nil
}

func (s *APIV1Service) generateReply(ctx context.Context, history []llm.Turn, prompt string) (string, error) {
	if err := s.llmSemaphore.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.llmSemaphore.Release(1)

	return s.LLM.GenerateReply(ctx, history, prompt)
}
