package v1

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/converse/internal/profile"
	"github.com/hrygo/converse/plugin/llm"
	apierrors "github.com/hrygo/converse/server/internal/errors"
	"github.com/hrygo/converse/store"
)

// LLMProvider is the upstream generation client used by the chat workflow.
// It is satisfied by *llm.Provider and stubbed in tests.
type LLMProvider interface {
	GenerateReply(ctx context.Context, history []llm.Turn, prompt string) (string, error)
	GenerateTitle(ctx context.Context, message string) (string, error)
}

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	LLM     LLMProvider

	// llmSemaphore limits concurrent upstream LLM calls so a burst of chat
	// requests cannot pile up slow outbound connections.
	llmSemaphore *semaphore.Weighted
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, llmProvider LLMProvider) *APIV1Service {
	return &APIV1Service{
		Profile:      profile,
		Store:        store,
		LLM:          llmProvider,
		llmSemaphore: semaphore.NewWeighted(4), // Limit to 4 concurrent LLM calls
	}
}

// RegisterRoutes registers the REST routes with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	g := echoServer.Group("/api/v1")

	g.GET("/conversations", s.ListConversations)
	g.POST("/conversations", s.CreateConversation)
	g.POST("/conversations/generate-title", s.GenerateConversationTitle)
	g.GET("/conversations/:id", s.GetConversation)
	g.PATCH("/conversations/:id", s.UpdateConversation)
	g.DELETE("/conversations/:id", s.DeleteConversation)

	g.GET("/conversations/:id/messages", s.ListMessages)
	g.POST("/conversations/:id/messages", s.CreateMessage)

	g.POST("/conversations/:id/feedback", s.UpsertConversationFeedback)
	g.GET("/conversations/:id/feedback", s.GetConversationFeedback)
	g.POST("/messages/:id/feedback", s.UpsertMessageFeedback)
	g.GET("/messages/:id/feedback", s.GetMessageFeedback)

	g.GET("/feedback/insights", s.GetFeedbackInsights)
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

// renderError maps a service error to its HTTP response.
func renderError(c echo.Context, err error) error {
	code := apierrors.GetCodeFromError(err, apierrors.ErrCodeInternal)

	status := http.StatusInternalServerError
	switch code {
	case apierrors.ErrCodeInvalidArgument:
		status = http.StatusBadRequest
	case apierrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apierrors.ErrCodeUpstreamFailure:
		status = http.StatusBadGateway
	case apierrors.ErrCodeDuplicateSequence, apierrors.ErrCodeInternal:
		status = http.StatusInternalServerError
	}

	resp := errorResponse{Detail: err.Error()}
	if svcErr, ok := err.(*apierrors.ServiceError); ok {
		resp.Detail = svcErr.Message
		resp.Field = svcErr.Field
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", slog.String("code", string(code)), slog.String("error", err.Error()))
	}

	return c.JSON(status, resp)
}

// pathID parses the numeric :id path parameter.
func pathID(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apierrors.InvalidArgument("invalid id")
	}
	return int32(id), nil
}

// queryInt parses an integer query parameter, falling back to def on missing
// or malformed values, matching the tolerant behavior of the original API.
func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// formatTs renders a unix-seconds timestamp as RFC 3339 UTC.
func formatTs(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

// nullableString renders empty strings as JSON null.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
