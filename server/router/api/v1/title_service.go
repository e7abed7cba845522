package v1

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/converse/plugin/llm"
	apierrors "github.com/hrygo/converse/server/internal/errors"
)

type generateTitleRequest struct {
	Message string `json:"message"`
}

type generateTitleResponse struct {
	Title string `json:"title"`
}

// GenerateConversationTitle produces a short title for a conversation from
// its first message. Upstream failures degrade to a local heuristic instead
// of erroring, so the client always gets a usable title.
func (s *APIV1Service) GenerateConversationTitle(c echo.Context) error {
	ctx := c.Request().Context()

	request := &generateTitleRequest{}
	if err := c.Bind(request); err != nil {
		return renderError(c, apierrors.InvalidArgument("malformed request body"))
	}
	message := strings.TrimSpace(request.Message)
	if message == "" {
		return renderError(c, apierrors.InvalidField("message", "Message is required."))
	}

	title, err := s.generateTitle(ctx, message)
	if err != nil || title == "" {
		if err != nil {
			slog.Warn("title generation failed, using fallback", slog.Any("err", err))
		}
		title = llm.FallbackTitle(message)
	}
	return c.JSON(http.StatusOK, &generateTitleResponse{Title: title})
}

func (s *APIV1Service) generateTitle(ctx context.Context, message string) (string, error) {
	if err := s.llmSemaphore.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.llmSemaphore.Release(1)

	return s.LLM.GenerateTitle(ctx, message)
}
