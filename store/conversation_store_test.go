package store_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/usetaskchat/taskchat/store"
)

func createTestConversation(t *testing.T, st *store.Store, creatorID string) *store.Conversation {
	t.Helper()
	conv, err := st.CreateConversation(context.Background(), &store.Conversation{CreatorID: creatorID})
	require.NoError(t, err)
	return conv
}

func createTestMessage(t *testing.T, st *store.Store, conv *store.Conversation, role, content string) *store.Message {
	t.Helper()
	msg, err := st.CreateMessage(context.Background(), &store.Message{
		ConversationID: conv.ID,
		CreatorID:      conv.CreatorID,
		Role:           role,
		Content:        content,
	})
	require.NoError(t, err)
	return msg
}

func TestCreateConversation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com")

	conv := createTestConversation(t, st, user.ID)
	require.NotZero(t, conv.ID)
	require.Equal(t, user.ID, conv.CreatorID)
	require.NotZero(t, conv.CreatedTs)

	got, err := st.GetConversation(ctx, &store.FindConversation{ID: &conv.ID, CreatorID: &user.ID})
	require.NoError(t, err)
	require.Equal(t, conv.ID, got.ID)

	_, err = st.CreateConversation(ctx, &store.Conversation{})
	require.ErrorIs(t, err, store.ErrValidation)
}

func TestConversationOwnerIsolation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	alice := createTestUser(t, st, "alice@example.com")
	mallory := createTestUser(t, st, "mallory@example.com")

	conv := createTestConversation(t, st, alice.ID)
	createTestMessage(t, st, conv, store.RoleUser, "my secret plans")

	// A foreign conversation id resolves exactly like a missing one.
	_, err := st.GetConversation(ctx, &store.FindConversation{ID: &conv.ID, CreatorID: &mallory.ID})
	require.ErrorIs(t, err, store.ErrNotFound)

	// The redundant creator filter on messages keeps them invisible too.
	messages, err := st.ListMessages(ctx, &store.FindMessage{
		ConversationID: conv.ID,
		CreatorID:      &mallory.ID,
	})
	require.NoError(t, err)
	require.Empty(t, messages)

	list, err := st.ListConversations(ctx, &store.FindConversation{CreatorID: &mallory.ID})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestCreateMessageValidation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com")
	conv := createTestConversation(t, st, user.ID)

	tests := []struct {
		name    string
		message *store.Message
	}{
		{"bad role", &store.Message{ConversationID: conv.ID, CreatorID: user.ID, Role: "system", Content: "hi"}},
		{"empty content", &store.Message{ConversationID: conv.ID, CreatorID: user.ID, Role: store.RoleUser, Content: ""}},
		{"content too long", &store.Message{ConversationID: conv.ID, CreatorID: user.ID, Role: store.RoleUser, Content: strings.Repeat("x", 5001)}},
		{"missing creator", &store.Message{ConversationID: conv.ID, Role: store.RoleUser, Content: "hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := st.CreateMessage(ctx, tt.message)
			require.ErrorIs(t, err, store.ErrValidation)
		})
	}

	// Content of exactly the maximum length is allowed.
	_, err := st.CreateMessage(ctx, &store.Message{
		ConversationID: conv.ID,
		CreatorID:      user.ID,
		Role:           store.RoleAssistant,
		Content:        strings.Repeat("x", 5000),
	})
	require.NoError(t, err)
}

func TestListMessagesOrderAndWindow(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com")
	conv := createTestConversation(t, st, user.ID)

	contents := []string{"one", "two", "three", "four", "five"}
	for i, content := range contents {
		role := store.RoleUser
		if i%2 == 1 {
			role = store.RoleAssistant
		}
		createTestMessage(t, st, conv, role, content)
	}

	// Without a window every turn comes back, oldest first.
	all, err := st.ListMessages(ctx, &store.FindMessage{ConversationID: conv.ID})
	require.NoError(t, err)
	require.Len(t, all, len(contents))
	for i, m := range all {
		require.Equal(t, contents[i], m.Content)
		if i > 0 {
			require.GreaterOrEqual(t, m.CreatedTs, all[i-1].CreatedTs)
		}
	}

	// A window keeps only the most recent turns, still oldest first.
	limit := 3
	windowed, err := st.ListMessages(ctx, &store.FindMessage{ConversationID: conv.ID, Limit: &limit})
	require.NoError(t, err)
	require.Len(t, windowed, 3)
	require.Equal(t, "three", windowed[0].Content)
	require.Equal(t, "four", windowed[1].Content)
	require.Equal(t, "five", windowed[2].Content)
}

func TestCreateMessageBumpsConversation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com")
	conv := createTestConversation(t, st, user.ID)

	createTestMessage(t, st, conv, store.RoleUser, "hello")

	got, err := st.GetConversation(ctx, &store.FindConversation{ID: &conv.ID, CreatorID: &user.ID})
	require.NoError(t, err)
	require.GreaterOrEqual(t, got.UpdatedTs, conv.UpdatedTs)
}

func TestListConversationsOrder(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com")

	first := createTestConversation(t, st, user.ID)
	second := createTestConversation(t, st, user.ID)

	list, err := st.ListConversations(ctx, &store.FindConversation{CreatorID: &user.ID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Most recently updated first; with equal timestamps the newer id wins.
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)
}

func TestDeleteConversationCascades(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com")
	conv := createTestConversation(t, st, user.ID)
	keep := createTestConversation(t, st, user.ID)

	createTestMessage(t, st, conv, store.RoleUser, "to be removed")
	createTestMessage(t, st, keep, store.RoleUser, "to be kept")

	require.NoError(t, st.DeleteConversation(ctx, &store.DeleteConversation{ID: conv.ID}))

	_, err := st.GetConversation(ctx, &store.FindConversation{ID: &conv.ID, CreatorID: &user.ID})
	require.ErrorIs(t, err, store.ErrNotFound)

	gone, err := st.ListMessages(ctx, &store.FindMessage{ConversationID: conv.ID})
	require.NoError(t, err)
	require.Empty(t, gone)

	kept, err := st.ListMessages(ctx, &store.FindMessage{ConversationID: keep.ID})
	require.NoError(t, err)
	require.Len(t, kept, 1)
	require.Equal(t, "to be kept", kept[0].Content)
}
