package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/services"
	"github.com/SAP-F-2025/tutor-service/internal/utils"
	"github.com/SAP-F-2025/tutor-service/internal/validator"
)

type ChatHandler struct {
	BaseHandler
	service services.ChatService
}

func NewChatHandler(service services.ChatService, validator *validator.Validator, logger utils.Logger) *ChatHandler {
	return &ChatHandler{
		BaseHandler: NewBaseHandler(logger, validator),
		service:     service,
	}
}

// StartChat opens a new tutor conversation
// @Summary Start chat
// @Tags chat
// @Produce json
// @Success 201 {object} models.ChatSession
// @Router /chat/sessions [post]
func (h *ChatHandler) StartChat(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting chat")

	chat, err := h.service.StartChat(c.Request.Context(), sess)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, chat)
}

// SendMessage sends a message to the tutor
// @Summary Send chat message
// @Description When the tutor fails the student's message is still saved and returned in details
// @Tags chat
// @Accept json
// @Produce json
// @Param request body models.ChatMessageRequest true "Message"
// @Success 200 {object} models.ChatSession
// @Failure 409 {object} ErrorResponse "No active chat"
// @Failure 502 {object} ErrorResponse "Tutor unavailable"
// @Router /chat/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req models.ChatMessageRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	chat, err := h.service.SendMessage(c.Request.Context(), sess, req.Text)
	if err != nil {
		if errors.Is(err, services.ErrTutorUnavailable) && chat != nil {
			c.JSON(http.StatusBadGateway, ErrorResponse{
				Message: "The tutor is unavailable right now, please try again",
				Details: chat,
			})
			return
		}
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, chat)
}

// CurrentChat returns the open conversation
// @Summary Current chat
// @Tags chat
// @Produce json
// @Success 200 {object} models.ChatSession
// @Failure 409 {object} ErrorResponse "No active chat"
// @Router /chat/sessions/current [get]
func (h *ChatHandler) CurrentChat(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	chat, err := h.service.CurrentChat(c.Request.Context(), sess)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, chat)
}
