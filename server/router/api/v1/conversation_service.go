package v1

import (
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	apierrors "github.com/hrygo/converse/server/internal/errors"
	"github.com/hrygo/converse/store"
)

const (
	// maxTitleLength bounds a conversation title, in characters.
	maxTitleLength = 200

	defaultConversationPageSize = 20
	maxConversationPageSize     = 100
)

// Conversation is the API representation of a conversation.
type Conversation struct {
	ID        int32   `json:"id"`
	UID       string  `json:"uid"`
	Title     *string `json:"title"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func convertConversationFromStore(c *store.Conversation) *Conversation {
	return &Conversation{
		ID:        c.ID,
		UID:       c.UID,
		Title:     nullableString(c.Title),
		CreatedAt: formatTs(c.CreatedTs),
		UpdatedAt: formatTs(c.UpdatedTs),
	}
}

type listConversationsResponse struct {
	Results []*Conversation `json:"results"`
	Count   int64           `json:"count"`
	Offset  int             `json:"offset"`
	Limit   int             `json:"limit"`
}

func (s *APIV1Service) ListConversations(c echo.Context) error {
	ctx := c.Request().Context()

	limit := queryInt(c, "limit", defaultConversationPageSize)
	if limit > maxConversationPageSize {
		limit = maxConversationPageSize
	}
	if limit < 0 {
		limit = defaultConversationPageSize
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	conversations, err := s.Store.ListConversations(ctx, &store.FindConversation{
		Limit:  &limit,
		Offset: &offset,
	})
	if err != nil {
		return renderError(c, apierrors.Internal("failed to list conversations", err))
	}
	count, err := s.Store.CountConversations(ctx, &store.FindConversation{})
	if err != nil {
		return renderError(c, apierrors.Internal("failed to count conversations", err))
	}

	resp := &listConversationsResponse{
		Results: make([]*Conversation, 0, len(conversations)),
		Count:   count,
		Offset:  offset,
		Limit:   limit,
	}
	for _, conversation := range conversations {
		resp.Results = append(resp.Results, convertConversationFromStore(conversation))
	}

	return c.JSON(http.StatusOK, resp)
}

type createConversationRequest struct {
	Title *string `json:"title"`
}

func (s *APIV1Service) CreateConversation(c echo.Context) error {
	ctx := c.Request().Context()

	request := &createConversationRequest{}
	if err := c.Bind(request); err != nil {
		return renderError(c, apierrors.InvalidArgument("malformed request body"))
	}

	title := ""
	if request.Title != nil {
		title = *request.Title
		if utf8.RuneCountInString(title) > maxTitleLength {
			return renderError(c, apierrors.InvalidField("title", "Title must be at most 200 characters."))
		}
	}

	now := time.Now().Unix()
	conversation, err := s.Store.CreateConversation(ctx, &store.Conversation{
		UID:       shortuuid.New(),
		Title:     title,
		CreatedTs: now,
		UpdatedTs: now,
	})
	if err != nil {
		return renderError(c, apierrors.Internal("failed to create conversation", err))
	}

	return c.JSON(http.StatusCreated, convertConversationFromStore(conversation))
}

func (s *APIV1Service) GetConversation(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := pathID(c)
	if err != nil {
		return renderError(c, err)
	}

	conversation, err := s.Store.GetConversation(ctx, &store.FindConversation{ID: &id})
	if err != nil {
		return renderError(c, apierrors.Internal("failed to get conversation", err))
	}
	if conversation == nil {
		return renderError(c, apierrors.NotFound("conversation not found"))
	}

	return c.JSON(http.StatusOK, convertConversationFromStore(conversation))
}

type updateConversationRequest struct {
	Title *string `json:"title"`
}

func (s *APIV1Service) UpdateConversation(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := pathID(c)
	if err != nil {
		return renderError(c, err)
	}

	conversation, err := s.Store.GetConversation(ctx, &store.FindConversation{ID: &id})
	if err != nil {
		return renderError(c, apierrors.Internal("failed to get conversation", err))
	}
	if conversation == nil {
		return renderError(c, apierrors.NotFound("conversation not found"))
	}

	request := &updateConversationRequest{}
	if err := c.Bind(request); err != nil {
		return renderError(c, apierrors.InvalidArgument("malformed request body"))
	}

	update := &store.UpdateConversation{ID: id}
	if request.Title != nil {
		if utf8.RuneCountInString(*request.Title) > maxTitleLength {
			return renderError(c, apierrors.InvalidField("title", "Title must be at most 200 characters."))
		}
		update.Title = request.Title
	}
	now := time.Now().Unix()
	update.UpdatedTs = &now

	updated, err := s.Store.UpdateConversation(ctx, update)
	if err != nil {
		return renderError(c, apierrors.Internal("failed to update conversation", err))
	}

	return c.JSON(http.StatusOK, convertConversationFromStore(updated))
}

func (s *APIV1Service) DeleteConversation(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := pathID(c)
	if err != nil {
		return renderError(c, err)
	}

	conversation, err := s.Store.GetConversation(ctx, &store.FindConversation{ID: &id})
	if err != nil {
		return renderError(c, apierrors.Internal("failed to get conversation", err))
	}
	if conversation == nil {
		return renderError(c, apierrors.NotFound("conversation not found"))
	}

	if err := s.Store.DeleteConversation(ctx, &store.DeleteConversation{ID: id}); err != nil {
		return renderError(c, apierrors.Internal("failed to delete conversation", err))
	}

	return c.NoContent(http.StatusNoContent)
}
