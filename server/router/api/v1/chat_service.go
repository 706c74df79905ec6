package v1

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v5"
	"github.com/pkg/errors"

	"github.com/usetaskchat/taskchat/internal/agent"
	"github.com/usetaskchat/taskchat/plugin/llm"
	"github.com/usetaskchat/taskchat/store"
)

const (
	// maxChatInputLength bounds a single chat message from the user.
	maxChatInputLength = 1000

	// maxStoredReplyLength mirrors the store's message content cap; longer
	// model output is truncated rather than rejected.
	maxStoredReplyLength = 5000

	// conversationPageSize is how many conversations the listing returns.
	conversationPageSize = 20

	fallbackNotice = "\n\n_Note: Using simplified responses while the AI service is unavailable._"
)

type chatRequest struct {
	ConversationID *int32 `json:"conversation_id"`
	Message        string `json:"message"`
}

type chatResponse struct {
	ConversationID  int32              `json:"conversation_id"`
	Reply           string             `json:"reply"`
	ToolInvocations []agent.Invocation `json:"tool_invocations"`
}

type conversationResponse struct {
	ID        int32 `json:"id"`
	CreatedTs int64 `json:"created_ts"`
	UpdatedTs int64 `json:"updated_ts"`
}

type chatMessageResponse struct {
	ID        int32  `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedTs int64  `json:"created_ts"`
}

func (s *APIV1Service) registerChatRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/users/:uid")
	g.POST("/chat", s.handleChat)
	g.GET("/conversations", s.listConversations)
	g.GET("/conversations/:cid/messages", s.listConversationMessages)
	g.DELETE("/conversations/:cid", s.deleteConversation)
}

// handleChat runs one conversational turn: resolve the conversation, persist
// the user's message, let the agent (or the keyword fallback) produce a
// reply, persist that too and return it with the tool calls that were made.
func (s *APIV1Service) handleChat(c *echo.Context) error {
	user, err := s.requireAuthOwner(c)
	if user == nil {
		return err
	}
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, errKindValidation, "malformed request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return errorJSON(c, http.StatusBadRequest, errKindValidation, "message cannot be empty")
	}
	if utf8.RuneCountInString(req.Message) > maxChatInputLength {
		return errorJSON(c, http.StatusBadRequest, errKindValidation,
			"message must be at most "+strconv.Itoa(maxChatInputLength)+" characters")
	}

	ctx := c.Request().Context()

	// Absent id starts a fresh conversation. A foreign or unknown id is a
	// plain 404: whether it exists for someone else is not revealed.
	var conv *store.Conversation
	if req.ConversationID != nil {
		conv, err = s.Store.GetConversation(ctx, &store.FindConversation{
			ID:        req.ConversationID,
			CreatorID: &user.ID,
		})
	} else {
		conv, err = s.Store.CreateConversation(ctx, &store.Conversation{CreatorID: user.ID})
	}
	if err != nil {
		return storeErrorJSON(c, err)
	}

	// History is loaded before the new message is stored, so the window
	// holds prior turns only.
	window := s.Profile.HistoryWindow
	history, err := s.Store.ListMessages(ctx, &store.FindMessage{
		ConversationID: conv.ID,
		Limit:          &window,
	})
	if err != nil {
		return storeErrorJSON(c, err)
	}

	if _, err := s.Store.CreateMessage(ctx, &store.Message{
		ConversationID: conv.ID,
		CreatorID:      user.ID,
		Role:           store.RoleUser,
		Content:        req.Message,
	}); err != nil {
		return storeErrorJSON(c, err)
	}

	registry := agent.NewRegistry(s.Store, user.ID)
	result, err := agent.New(s.LLM, registry).Run(ctx, toLLMMessages(history), req.Message)
	if errors.Is(err, agent.ErrInferenceUnavailable) {
		slog.Warn("completion provider unavailable, using keyword fallback", "err", err)
		result = agent.NewFallback(registry).Respond(ctx, req.Message)
		result.Reply += fallbackNotice
	} else if err != nil {
		return storeErrorJSON(c, err)
	}

	reply := truncateRunes(result.Reply, maxStoredReplyLength)
	if _, err := s.Store.CreateMessage(ctx, &store.Message{
		ConversationID: conv.ID,
		CreatorID:      user.ID,
		Role:           store.RoleAssistant,
		Content:        reply,
	}); err != nil {
		// The user's message is already durable, so the caller can retry
		// against the same conversation.
		return storeErrorJSON(c, err)
	}

	return c.JSON(http.StatusOK, chatResponse{
		ConversationID:  conv.ID,
		Reply:           reply,
		ToolInvocations: result.Invocations,
	})
}

func (s *APIV1Service) listConversations(c *echo.Context) error {
	user, err := s.requireAuthOwner(c)
	if user == nil {
		return err
	}
	limit := conversationPageSize
	conversations, err := s.Store.ListConversations(c.Request().Context(), &store.FindConversation{
		CreatorID: &user.ID,
		Limit:     &limit,
	})
	if err != nil {
		return storeErrorJSON(c, err)
	}
	resp := make([]conversationResponse, 0, len(conversations))
	for _, conv := range conversations {
		resp = append(resp, conversationResponse{
			ID:        conv.ID,
			CreatedTs: conv.CreatedTs,
			UpdatedTs: conv.UpdatedTs,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) listConversationMessages(c *echo.Context) error {
	user, err := s.requireAuthOwner(c)
	if user == nil {
		return err
	}
	cid, err := conversationIDParam(c)
	if err != nil {
		return storeErrorJSON(c, err)
	}
	if _, err := s.Store.GetConversation(c.Request().Context(), &store.FindConversation{
		ID:        &cid,
		CreatorID: &user.ID,
	}); err != nil {
		return storeErrorJSON(c, err)
	}
	messages, err := s.Store.ListMessages(c.Request().Context(), &store.FindMessage{
		ConversationID: cid,
		CreatorID:      &user.ID,
	})
	if err != nil {
		return storeErrorJSON(c, err)
	}
	resp := make([]chatMessageResponse, 0, len(messages))
	for _, m := range messages {
		resp = append(resp, chatMessageResponse{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedTs: m.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) deleteConversation(c *echo.Context) error {
	user, err := s.requireAuthOwner(c)
	if user == nil {
		return err
	}
	cid, err := conversationIDParam(c)
	if err != nil {
		return storeErrorJSON(c, err)
	}
	if _, err := s.Store.GetConversation(c.Request().Context(), &store.FindConversation{
		ID:        &cid,
		CreatorID: &user.ID,
	}); err != nil {
		return storeErrorJSON(c, err)
	}
	if err := s.Store.DeleteConversation(c.Request().Context(), &store.DeleteConversation{ID: cid}); err != nil {
		return storeErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "conversation deleted"})
}

func conversationIDParam(c *echo.Context) (int32, error) {
	cid, err := strconv.ParseInt(c.Param("cid"), 10, 32)
	if err != nil || cid <= 0 {
		return 0, errors.Wrap(store.ErrValidation, "conversation id must be a positive integer")
	}
	return int32(cid), nil
}

func toLLMMessages(messages []*store.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
