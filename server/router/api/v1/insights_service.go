package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apierrors "github.com/hrygo/converse/server/internal/errors"
	"github.com/hrygo/converse/store"
)

const (
	defaultInsightsWindowDays = 30
	recentFeedbackLimit       = 10
)

type messageFeedbackInsights struct {
	TotalFeedback  int64              `json:"total_feedback"`
	AvgRating      *float64           `json:"avg_rating"`
	ExcellentCount int64              `json:"excellent_count"`
	GoodCount      int64              `json:"good_count"`
	FairCount      int64              `json:"fair_count"`
	PoorCount      int64              `json:"poor_count"`
	VeryPoorCount  int64              `json:"very_poor_count"`
	RecentFeedback []*MessageFeedback `json:"recent_feedback"`
}

type conversationFeedbackInsights struct {
	TotalFeedback        int64                   `json:"total_feedback"`
	AvgOverallRating     *float64                `json:"avg_overall_rating"`
	AvgHelpfulnessRating *float64                `json:"avg_helpfulness_rating"`
	AvgAccuracyRating    *float64                `json:"avg_accuracy_rating"`
	ExcellentCount       int64                   `json:"excellent_count"`
	GoodCount            int64                   `json:"good_count"`
	FairCount            int64                   `json:"fair_count"`
	PoorCount            int64                   `json:"poor_count"`
	VeryPoorCount        int64                   `json:"very_poor_count"`
	RecentFeedback       []*ConversationFeedback `json:"recent_feedback"`
}

type feedbackInsightsResponse struct {
	PeriodDays           int                           `json:"period_days"`
	MessageFeedback      *messageFeedbackInsights      `json:"message_feedback"`
	ConversationFeedback *conversationFeedbackInsights `json:"conversation_feedback"`
}

// GetFeedbackInsights aggregates both feedback kinds over a trailing window
// of days, with the most recent rows included for drill-down.
func (s *APIV1Service) GetFeedbackInsights(c echo.Context) error {
	ctx := c.Request().Context()

	days := queryInt(c, "days", defaultInsightsWindowDays)
	if days <= 0 {
		days = defaultInsightsWindowDays
	}
	sinceTs := time.Now().Unix() - int64(days)*86400

	messageStats, err := s.Store.GetMessageFeedbackStats(ctx, sinceTs)
	if err != nil {
		return renderError(c, apierrors.Internal("failed to aggregate message feedback", err))
	}
	conversationStats, err := s.Store.GetConversationFeedbackStats(ctx, sinceTs)
	if err != nil {
		return renderError(c, apierrors.Internal("failed to aggregate conversation feedback", err))
	}

	limit := recentFeedbackLimit
	recentMessageRows, err := s.Store.ListMessageFeedback(ctx, &store.FindMessageFeedback{
		CreatedTsAfter:       &sinceTs,
		OrderByCreatedTsDesc: true,
		Limit:                &limit,
	})
	if err != nil {
		return renderError(c, apierrors.Internal("failed to list recent message feedback", err))
	}
	recentConversationRows, err := s.Store.ListConversationFeedback(ctx, &store.FindConversationFeedback{
		CreatedTsAfter:       &sinceTs,
		OrderByCreatedTsDesc: true,
		Limit:                &limit,
	})
	if err != nil {
		return renderError(c, apierrors.Internal("failed to list recent conversation feedback", err))
	}

	recentMessage := make([]*MessageFeedback, 0, len(recentMessageRows))
	for _, row := range recentMessageRows {
		recentMessage = append(recentMessage, convertMessageFeedbackFromStore(row))
	}
	recentConversation := make([]*ConversationFeedback, 0, len(recentConversationRows))
	for _, row := range recentConversationRows {
		recentConversation = append(recentConversation, convertConversationFeedbackFromStore(row))
	}

	return c.JSON(http.StatusOK, &feedbackInsightsResponse{
		PeriodDays: days,
		MessageFeedback: &messageFeedbackInsights{
			TotalFeedback:  messageStats.Total,
			AvgRating:      messageStats.AvgRating,
			ExcellentCount: messageStats.ExcellentCount,
			GoodCount:      messageStats.GoodCount,
			FairCount:      messageStats.FairCount,
			PoorCount:      messageStats.PoorCount,
			VeryPoorCount:  messageStats.VeryPoorCount,
			RecentFeedback: recentMessage,
		},
		ConversationFeedback: &conversationFeedbackInsights{
			TotalFeedback:        conversationStats.Total,
			AvgOverallRating:     conversationStats.AvgRating,
			AvgHelpfulnessRating: conversationStats.AvgHelpfulnessRating,
			AvgAccuracyRating:    conversationStats.AvgAccuracyRating,
			ExcellentCount:       conversationStats.ExcellentCount,
			GoodCount:            conversationStats.GoodCount,
			FairCount:            conversationStats.FairCount,
			PoorCount:            conversationStats.PoorCount,
			VeryPoorCount:        conversationStats.VeryPoorCount,
			RecentFeedback:       recentConversation,
		},
	})
}
