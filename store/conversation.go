package store

type Conversation struct {
	ID        int32
	UID       string
	Title     string
	CreatedTs int64
	UpdatedTs int64
}

type FindConversation struct {
	ID  *int32
	UID *string

	// Pagination
	Limit  *int
	Offset *int
}

type UpdateConversation struct {
	ID        int32
	Title     *string
	UpdatedTs *int64
}

type DeleteConversation struct {
	ID int32
}
