package store

// Conversation is a single chat thread owned by one user.
type Conversation struct {
	ID        int32
	CreatorID string
	CreatedTs int64
	UpdatedTs int64
}

// Message is a single turn within a conversation. CreatorID is a redundant
// copy of the conversation owner kept on every row for defense-in-depth
// filtering.
type Message struct {
	ID             int32
	ConversationID int32
	CreatorID      string
	Role           string // RoleUser | RoleAssistant
	Content        string
	CreatedTs      int64
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// FindConversation filters for ListConversations.
type FindConversation struct {
	ID        *int32
	CreatorID *string
	Limit     *int
}

// DeleteConversation removes a conversation and all its messages (cascade).
type DeleteConversation struct {
	ID int32
}

// FindMessage filters for ListMessages. When Limit is set the driver returns
// the most recent Limit rows and the store reverses them back to
// chronological order.
type FindMessage struct {
	ConversationID int32
	CreatorID      *string
	Limit          *int
}
