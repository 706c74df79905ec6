package store

import (
	"context"
	"slices"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const maxMessageContentLength = 5000

// CreateConversation creates a new conversation thread.
func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	if create.CreatorID == "" {
		return nil, errors.Wrap(ErrValidation, "creator id is required")
	}
	return s.driver.CreateConversation(ctx, create)
}

// ListConversations lists conversations matching the given filter, most
// recently updated first.
func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// GetConversation returns the first conversation matching the given filter,
// or ErrNotFound. A conversation owned by someone else reports the same
// ErrNotFound as a missing one.
func (s *Store) GetConversation(ctx context.Context, find *FindConversation) (*Conversation, error) {
	list, err := s.driver.ListConversations(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Wrap(ErrNotFound, "conversation")
	}
	return list[0], nil
}

// DeleteConversation deletes a conversation and all its messages.
func (s *Store) DeleteConversation(ctx context.Context, delete *DeleteConversation) error {
	return s.driver.DeleteConversation(ctx, delete)
}

// CreateMessage appends one turn to a conversation and bumps the
// conversation's updated time.
func (s *Store) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	if create.Role != RoleUser && create.Role != RoleAssistant {
		return nil, errors.Wrapf(ErrValidation, "role must be %q or %q", RoleUser, RoleAssistant)
	}
	if create.Content == "" {
		return nil, errors.Wrap(ErrValidation, "content cannot be empty")
	}
	if utf8.RuneCountInString(create.Content) > maxMessageContentLength {
		return nil, errors.Wrapf(ErrValidation, "content must be at most %d characters", maxMessageContentLength)
	}
	if create.CreatorID == "" {
		return nil, errors.Wrap(ErrValidation, "creator id is required")
	}
	return s.driver.CreateMessage(ctx, create)
}

// ListMessages returns a conversation's messages in chronological order,
// oldest first. With FindMessage.Limit set, only the most recent Limit
// messages are returned, still oldest first.
func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	list, err := s.driver.ListMessages(ctx, find)
	if err != nil {
		return nil, err
	}
	if find.Limit != nil {
		// The driver returns newest-first when a window is requested.
		slices.Reverse(list)
	}
	return list, nil
}
