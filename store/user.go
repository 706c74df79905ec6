package store

// User is an authentication identity. Users exclusively own their tasks and
// conversations.
type User struct {
	ID           string
	Email        string
	Nickname     string
	PasswordHash string
	CreatedTs    int64
	UpdatedTs    int64
}

// FindUser filters for ListUsers / GetUser.
type FindUser struct {
	ID    *string
	Email *string
}

// DeleteUser removes a user and cascades to all owned tasks, conversations
// and messages.
type DeleteUser struct {
	ID string
}
