package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"jobportal/internal/model"
	"jobportal/internal/service"
)

// Streamer serves the live feed of a chat. *realtime.Hub implements it.
type Streamer interface {
	Serve(c echo.Context, chatID, userID uuid.UUID) error
}

// ChatHandler handles conversation endpoints.
type ChatHandler struct {
	chatService service.ChatService
	streamer    Streamer
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatService service.ChatService, streamer Streamer) *ChatHandler {
	return &ChatHandler{chatService: chatService, streamer: streamer}
}

// StartChatRequest opens a conversation with another user.
type StartChatRequest struct {
	ParticipantID uuid.UUID  `json:"participantId" validate:"required"`
	ApplicationID *uuid.UUID `json:"applicationId"`
}

// SendMessageRequest posts a message.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// ChatsResponse wraps the caller's conversations.
type ChatsResponse struct {
	Chats []service.ChatSummary `json:"chats"`
}

// MessagesResponse wraps the messages of a conversation.
type MessagesResponse struct {
	Messages []model.ChatMessage `json:"messages"`
}

// List godoc
// @Summary Own conversations, most recent first
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ChatsResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /chat [get]
func (h *ChatHandler) List(c echo.Context) error {
	chats, err := h.chatService.ListMine(c.Request().Context(), actor(c))
	if err != nil {
		return err
	}
	if chats == nil {
		chats = []service.ChatSummary{}
	}
	return c.JSON(http.StatusOK, ChatsResponse{Chats: chats})
}

// Start godoc
// @Summary Open or fetch a conversation
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body StartChatRequest true "Other participant"
// @Success 200 {object} model.Chat
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /chat [post]
func (h *ChatHandler) Start(c echo.Context) error {
	var req StartChatRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	chat, err := h.chatService.Start(c.Request().Context(), actor(c), req.ParticipantID, req.ApplicationID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, chat)
}

// Messages godoc
// @Summary Messages of a conversation
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Chat ID"
// @Success 200 {object} MessagesResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /chat/{id}/messages [get]
func (h *ChatHandler) Messages(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	msgs, err := h.chatService.Messages(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	return c.JSON(http.StatusOK, MessagesResponse{Messages: msgs})
}

// Send godoc
// @Summary Post a message
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Chat ID"
// @Param request body SendMessageRequest true "Message"
// @Success 201 {object} model.ChatMessage
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /chat/{id}/messages [post]
func (h *ChatHandler) Send(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req SendMessageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	msg, err := h.chatService.Send(c.Request().Context(), actor(c), id, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}

// MarkRead godoc
// @Summary Mark incoming messages read
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Chat ID"
// @Success 200 {object} CountResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /chat/{id}/read [put]
func (h *ChatHandler) MarkRead(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	n, err := h.chatService.MarkRead(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CountResponse{Count: n})
}

// Stream godoc
// @Summary Live message feed (websocket)
// @Description Pass the token as a bearer header or the token query parameter.
// @Tags chat
// @Security BearerAuth
// @Param id path string true "Chat ID"
// @Param token query string false "JWT for clients that cannot set headers"
// @Success 101
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /chat/{id}/ws [get]
func (h *ChatHandler) Stream(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user := actor(c)
	if _, err := h.chatService.Get(c.Request().Context(), user, id); err != nil {
		return err
	}
	return h.streamer.Serve(c, id, user.ID)
}
