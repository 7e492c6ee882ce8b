package handler

import (
	"github.com/labstack/echo/v4"

	"chatwave/internal/usecase"
	"chatwave/pkg/errors"
	"chatwave/pkg/response"
	"chatwave/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

// CreateDirectChat opens (or returns the existing) direct chat with the
// recipient.
func (h *ChatHandler) CreateDirectChat(c echo.Context) error {
	var req usecase.CreateDirectChatInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	chat, err := h.chatUseCase.CreateDirectChat(c.Request().Context(), userID, req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, chat)
}

func (h *ChatHandler) CreateGroupChat(c echo.Context) error {
	var req usecase.CreateGroupChatInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	chat, err := h.chatUseCase.CreateGroupChat(c.Request().Context(), userID, req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, chat)
}

func (h *ChatHandler) ListChats(c echo.Context) error {
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c)

	chats, total, err := h.chatUseCase.GetUserChats(c.Request().Context(), userID, params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, chats, total, params.Page, params.PageSize)
}

func (h *ChatHandler) GetChat(c echo.Context) error {
	userID := c.Get("uid").(string)

	chat, err := h.chatUseCase.GetChatByID(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}

func (h *ChatHandler) GetMessages(c echo.Context) error {
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c)

	messages, total, err := h.chatUseCase.GetChatMessages(c.Request().Context(), userID, c.Param("id"), params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, messages, total, params.Page, params.PageSize)
}

// SearchMessages filters one conversation's history by message content.
func (h *ChatHandler) SearchMessages(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return response.Error(c, errors.BadRequest("Search query is required", nil))
	}

	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c)

	messages, total, err := h.chatUseCase.SearchChatMessages(c.Request().Context(), userID, c.Param("id"), query, params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, messages, total, params.Page, params.PageSize)
}

// SendMessage is the REST path for posting a message; the websocket
// send_message event goes through the same use case.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req usecase.SendMessageInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	req.ChatID = c.Param("id")
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), userID, req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *ChatHandler) MarkAsRead(c echo.Context) error {
	var req struct {
		MessageID string `json:"message_id"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	if err := h.chatUseCase.MarkChatAsRead(c.Request().Context(), userID, c.Param("id"), req.MessageID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "read"})
}

func (h *ChatHandler) EditMessage(c echo.Context) error {
	var req usecase.EditMessageInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	message, err := h.chatUseCase.EditMessage(c.Request().Context(), userID, c.Param("id"), c.Param("messageId"), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, message)
}

func (h *ChatHandler) DeleteMessage(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.DeleteMessage(c.Request().Context(), userID, c.Param("id"), c.Param("messageId")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "deleted"})
}

func (h *ChatHandler) LeaveGroup(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.LeaveGroup(c.Request().Context(), userID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "left"})
}

func (h *ChatHandler) DeactivateChat(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.DeactivateChat(c.Request().Context(), userID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "deactivated"})
}
