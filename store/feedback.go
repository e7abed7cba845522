package store

// Rating bounds shared by every feedback rating dimension.
const (
	RatingMin = 1
	RatingMax = 5
)

type MessageFeedback struct {
	ID        int32
	MessageID int32
	Rating    int32
	Comment   string
	CreatedTs int64
	UpdatedTs int64

	// Denormalized from the owning message's conversation for API payloads.
	ConversationID    int32
	ConversationTitle string
}

type FindMessageFeedback struct {
	ID        *int32
	MessageID *int32
	// ConversationID filters to feedback on messages of one conversation.
	ConversationID *int32
	// CreatedTsAfter filters to rows created at or after the given timestamp.
	CreatedTsAfter *int64
	// OrderByCreatedTsDesc returns newest rows first.
	OrderByCreatedTsDesc bool

	Limit *int
}

// UpsertMessageFeedback carries the full values to persist. Partial-update
// merging of client-provided fields happens in the service layer before the
// driver is invoked.
type UpsertMessageFeedback struct {
	MessageID int32
	Rating    int32
	Comment   string
}

type ConversationFeedback struct {
	ID                int32
	ConversationID    int32
	OverallRating     int32
	HelpfulnessRating int32
	AccuracyRating    int32
	Comment           string
	CreatedTs         int64
	UpdatedTs         int64

	ConversationTitle string
}

type FindConversationFeedback struct {
	ID                   *int32
	ConversationID       *int32
	CreatedTsAfter       *int64
	OrderByCreatedTsDesc bool

	Limit *int
}

type UpsertConversationFeedback struct {
	ConversationID    int32
	OverallRating     int32
	HelpfulnessRating int32
	AccuracyRating    int32
	Comment           string
}

// FeedbackStats is the aggregate rollup over one feedback kind within a
// trailing window. AvgRating is nil when Total is zero.
type FeedbackStats struct {
	Total          int64
	AvgRating      *float64
	ExcellentCount int64 // rating 5
	GoodCount      int64 // rating 4
	FairCount      int64 // rating 3
	PoorCount      int64 // rating 2
	VeryPoorCount  int64 // rating 1

	// Conversation feedback only: means of the secondary dimensions.
	AvgHelpfulnessRating *float64
	AvgAccuracyRating    *float64
}
