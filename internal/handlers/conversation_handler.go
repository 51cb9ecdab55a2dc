package handlers

import (
	"net/http"

	"github.com/anonto42/campus-p2p/backend/internal/middleware"
	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/service"
	"github.com/labstack/echo/v4"
)

// ConversationHandler handles direct messaging
type ConversationHandler struct {
	chat *service.ChatService
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(chat *service.ChatService) *ConversationHandler {
	return &ConversationHandler{chat: chat}
}

// RegisterConversationRoutes registers messaging routes
func (h *ConversationHandler) RegisterConversationRoutes(g *echo.Group) {
	g.GET("/conversations", h.ListConversations)
	g.POST("/conversations", h.StartConversation)
	g.GET("/conversations/:id/messages", h.ListMessages)
	g.POST("/conversations/:id/messages", h.SendMessage)
}

// ListConversations returns the caller's conversations
func (h *ConversationHandler) ListConversations(c echo.Context) error {
	convs, err := h.chat.ListConversations(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return fail("load conversations", err)
	}
	return c.JSON(http.StatusOK, convs)
}

// StartConversation opens or creates the chat with another user
func (h *ConversationHandler) StartConversation(c echo.Context) error {
	var req models.StartConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	conv, err := h.chat.EnsureConversation(c.Request().Context(), middleware.Actor(c), req.UserID, req.Name)
	if err != nil {
		return fail("start conversation", err)
	}
	return c.JSON(http.StatusOK, conv)
}

// ListMessages returns a conversation's messages
func (h *ConversationHandler) ListMessages(c echo.Context) error {
	msgs, err := h.chat.ListMessages(c.Request().Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		return fail("load messages", err)
	}
	return c.JSON(http.StatusOK, msgs)
}

// SendMessage sends a message in a conversation
func (h *ConversationHandler) SendMessage(c echo.Context) error {
	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	msg, err := h.chat.SendMessage(c.Request().Context(), middleware.Actor(c), c.Param("id"), req.Text)
	if err != nil {
		return fail("send message", err)
	}
	return c.JSON(http.StatusCreated, msg)
}
