package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apierrors "github.com/hrygo/converse/server/internal/errors"
	"github.com/hrygo/converse/store"
)

// MessageFeedback is the API representation of a single-rating feedback row.
type MessageFeedback struct {
	ID                int32   `json:"id"`
	Message           int32   `json:"message"`
	ConversationID    int32   `json:"conversation_id"`
	ConversationTitle *string `json:"conversation_title"`
	Rating            int32   `json:"rating"`
	Comment           *string `json:"comment"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

func convertMessageFeedbackFromStore(f *store.MessageFeedback) *MessageFeedback {
	return &MessageFeedback{
		ID:                f.ID,
		Message:           f.MessageID,
		ConversationID:    f.ConversationID,
		ConversationTitle: nullableString(f.ConversationTitle),
		Rating:            f.Rating,
		Comment:           nullableString(f.Comment),
		CreatedAt:         formatTs(f.CreatedTs),
		UpdatedAt:         formatTs(f.UpdatedTs),
	}
}

// ConversationFeedback is the API representation of a three-dimension
// conversation rating.
type ConversationFeedback struct {
	ID                int32   `json:"id"`
	Conversation      int32   `json:"conversation"`
	ConversationTitle *string `json:"conversation_title"`
	OverallRating     int32   `json:"overall_rating"`
	HelpfulnessRating int32   `json:"helpfulness_rating"`
	AccuracyRating    int32   `json:"accuracy_rating"`
	Comment           *string `json:"comment"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

func convertConversationFeedbackFromStore(f *store.ConversationFeedback) *ConversationFeedback {
	return &ConversationFeedback{
		ID:                f.ID,
		Conversation:      f.ConversationID,
		ConversationTitle: nullableString(f.ConversationTitle),
		OverallRating:     f.OverallRating,
		HelpfulnessRating: f.HelpfulnessRating,
		AccuracyRating:    f.AccuracyRating,
		Comment:           nullableString(f.Comment),
		CreatedAt:         formatTs(f.CreatedTs),
		UpdatedAt:         formatTs(f.UpdatedTs),
	}
}

func validateRating(field string, label string, rating int32) error {
	if rating < store.RatingMin || rating > store.RatingMax {
		return apierrors.InvalidField(field, label+" must be between 1 and 5.")
	}
	return nil
}

type upsertMessageFeedbackRequest struct {
	Rating  *int32  `json:"rating"`
	Comment *string `json:"comment"`
}

// UpsertMessageFeedback creates feedback for a message, or partially updates
// the existing row. Only fields present in the request body are changed on
// update; the response status distinguishes the two outcomes.
func (s *APIV1Service) UpsertMessageFeedback(c echo.Context) error {
	ctx := c.Request().Context()

	messageID, err := pathID(c)
	if err != nil {
		return renderError(c, err)
	}
	message, err := s.Store.GetMessage(ctx, &store.FindMessage{ID: &messageID})
	if err != nil {
		return renderError(c, apierrors.Internal("failed to get message", err))
	}
	if message == nil {
		return renderError(c, apierrors.NotFound("message not found"))
	}

	request := &upsertMessageFeedbackRequest{}
	if err := c.Bind(request); err != nil {
		return renderError(c, apierrors.InvalidArgument("malformed request body"))
	}
	if request.Rating != nil {
		if err := validateRating("rating", "Rating", *request.Rating); err != nil {
			return renderError(c, err)
		}
	}

	existing, err := s.Store.GetMessageFeedback(ctx, &store.FindMessageFeedback{MessageID: &messageID})
	if err != nil {
		return renderError(c, apierrors.Internal("failed to get message feedback", err))
	}

	upsert := &store.UpsertMessageFeedback{MessageID: messageID}
	status := http.StatusOK
	if existing == nil {
		if request.Rating == nil {
			return renderError(c, apierrors.InvalidField("rating", "Rating is required."))
		}
		upsert.Rating = *request.Rating
		if request.Comment != nil {
			upsert.Comment = *request.Comment
		}
		status = http.StatusCreated
	} else {
		upsert.Rating = existing.Rating
		upsert.Comment = existing.Comment
		if request.Rating != nil {
			upsert.Rating = *request.Rating
		}
		if request.Comment != nil {
			upsert.Comment = *request.Comment
		}
	}

	if _, err := s.Store.UpsertMessageFeedback(ctx, upsert); err != nil {
		return renderError(c, apierrors.Internal("failed to upsert message feedback", err))
	}
	// Re-read through the joined lookup so the response carries the
	// conversation fields.
	feedback, err := s.Store.GetMessageFeedback(ctx, &store.FindMessageFeedback{MessageID: &messageID})
	if err != nil || feedback == nil {
		return renderError(c, apierrors.Internal("failed to get message feedback", err))
	}
	return c.JSON(status, convertMessageFeedbackFromStore(feedback))
}

func (s *APIV1Service) GetMessageFeedback(c echo.Context) error {
	ctx := c.Request().Context()

	messageID, err := pathID(c)
	if err != nil {
		return renderError(c, err)
	}
	message, err := s.Store.GetMessage(ctx, &store.FindMessage{ID: &messageID})
	if err != nil {
		return renderError(c, apierrors.Internal("failed to get message", err))
	}
	if message == nil {
		return renderError(c, apierrors.NotFound("message not found"))
	}

	feedback, err := s.Store.GetMessageFeedback(ctx, &store.FindMessageFeedback{MessageID: &messageID})
	if err != nil {
		return renderError(c, apierrors.Internal("failed to get message feedback", err))
	}
	if feedback == nil {
		return renderError(c, apierrors.NotFound("No feedback found for this message"))
	}
	return c.JSON(http.StatusOK, convertMessageFeedbackFromStore(feedback))
}

type upsertConversationFeedbackRequest struct {
	OverallRating     *int32  `json:"overall_rating"`
	HelpfulnessRating *int32  `json:"helpfulness_rating"`
	AccuracyRating    *int32  `json:"accuracy_rating"`
	Comment           *string `json:"comment"`
}

func (r *upsertConversationFeedbackRequest) validate() error {
	if r.OverallRating != nil {
		if err := validateRating("overall_rating", "Overall rating", *r.OverallRating); err != nil {
			return err
		}
	}
	if r.HelpfulnessRating != nil {
		if err := validateRating("helpfulness_rating", "Helpfulness rating", *r.HelpfulnessRating); err != nil {
			return err
		}
	}
	if r.AccuracyRating != nil {
		if err := validateRating("accuracy_rating", "Accuracy rating", *r.AccuracyRating); err != nil {
			return err
		}
	}
	return nil
}

// UpsertConversationFeedback mirrors UpsertMessageFeedback for the
// three-dimension conversation rating. All three ratings are required on
// create; updates merge per field.
func (s *APIV1Service) UpsertConversationFeedback(c echo.Context) error {
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

	request := &upsertConversationFeedbackRequest{}
	if err := c.Bind(request); err != nil {
		return renderError(c, apierrors.InvalidArgument("malformed request body"))
	}
	if err := request.validate(); err != nil {
		return renderError(c, err)
	}

	existing, err := s.Store.GetConversationFeedback(ctx, &store.FindConversationFeedback{ConversationID: &conversationID})
	if err != nil {
		return renderError(c, apierrors.Internal("failed to get conversation feedback", err))
	}

	upsert := &store.UpsertConversationFeedback{ConversationID: conversationID}
	status := http.StatusOK
	if existing == nil {
		if request.OverallRating == nil {
			return renderError(c, apierrors.InvalidField("overall_rating", "Overall rating is required."))
		}
		if request.HelpfulnessRating == nil {
			return renderError(c, apierrors.InvalidField("helpfulness_rating", "Helpfulness rating is required."))
		}
		if request.AccuracyRating == nil {
			return renderError(c, apierrors.InvalidField("accuracy_rating", "Accuracy rating is required."))
		}
		upsert.OverallRating = *request.OverallRating
		upsert.HelpfulnessRating = *request.HelpfulnessRating
		upsert.AccuracyRating = *request.AccuracyRating
		if request.Comment != nil {
			upsert.Comment = *request.Comment
		}
		status = http.StatusCreated
	} else {
		upsert.OverallRating = existing.OverallRating
		upsert.HelpfulnessRating = existing.HelpfulnessRating
		upsert.AccuracyRating = existing.AccuracyRating
		upsert.Comment = existing.Comment
		if request.OverallRating != nil {
			upsert.OverallRating = *request.OverallRating
		}
		if request.HelpfulnessRating != nil {
			upsert.HelpfulnessRating = *request.HelpfulnessRating
		}
		if request.AccuracyRating != nil {
			upsert.AccuracyRating = *request.AccuracyRating
		}
		if request.Comment != nil {
			upsert.Comment = *request.Comment
		}
	}

	if _, err := s.Store.UpsertConversationFeedback(ctx, upsert); err != nil {
		return renderError(c, apierrors.Internal("failed to upsert conversation feedback", err))
	}
	feedback, err := s.Store.GetConversationFeedback(ctx, &store.FindConversationFeedback{ConversationID: &conversationID})
	if err != nil || feedback == nil {
		return renderError(c, apierrors.Internal("failed to get conversation feedback", err))
	}
	return c.JSON(status, convertConversationFeedbackFromStore(feedback))
}

func (s *APIV1Service) GetConversationFeedback(c echo.Context) error {
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

	feedback, err := s.Store.GetConversationFeedback(ctx, &store.FindConversationFeedback{ConversationID: &conversationID})
	if err != nil {
		return renderError(c, apierrors.Internal("failed to get conversation feedback", err))
	}
	if feedback == nil {
		return renderError(c, apierrors.NotFound("No feedback found for this conversation"))
	}
	return c.JSON(http.StatusOK, convertConversationFeedbackFromStore(feedback))
}
