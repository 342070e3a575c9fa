package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/neuroread/neuroread-api/pkg/errors"
	"github.com/neuroread/neuroread-api/pkg/response"
)

type whatsAppNotifier interface {
	SendWhatsApp(ctx context.Context, to, message string) (string, error)
}

// NotifyHandler serves the WhatsApp notification endpoint.
type NotifyHandler struct {
	service whatsAppNotifier
}

// NewNotifyHandler creates a new handler.
func NewNotifyHandler(svc whatsAppNotifier) *NotifyHandler {
	return &NotifyHandler{service: svc}
}

type whatsAppPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// Send godoc
// @Summary Send a WhatsApp message
// @Description Delivers a notification through the messaging provider
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body whatsAppPayload true "Message payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /whatsapp [post]
func (h *NotifyHandler) Send(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload whatsAppPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid message payload"))
		return
	}

	sid, err := h.service.SendWhatsApp(c.Request.Context(), payload.To, payload.Message)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"message": "Message sent!", "sid": sid})
}
