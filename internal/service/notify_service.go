package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/neuroread/neuroread-api/pkg/errors"
	"github.com/neuroread/neuroread-api/pkg/messaging"
)

// NotifyService sends WhatsApp notifications through the messaging provider.
type NotifyService struct {
	sender messaging.WhatsAppSender
	logger *zap.Logger
}

// NewNotifyService constructs a NotifyService.
func NewNotifyService(sender messaging.WhatsAppSender, logger *zap.Logger) *NotifyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotifyService{sender: sender, logger: logger}
}

// SendWhatsApp delivers one message and returns the provider SID.
func (s *NotifyService) SendWhatsApp(ctx context.Context, to, message string) (string, error) {
	if strings.TrimSpace(to) == "" || strings.TrimSpace(message) == "" {
		return "", appErrors.Clone(appErrors.ErrMissingFields, `missing "to" or "message" field`)
	}

	sid, err := s.sender.SendWhatsApp(ctx, to, message)
	if err != nil {
		s.logger.Warn("whatsapp send failed", zap.Error(err))
		return "", appErrors.Wrap(err, appErrors.ErrMessageSend.Code, appErrors.ErrMessageSend.Status, appErrors.ErrMessageSend.Message)
	}
	return sid, nil
}
