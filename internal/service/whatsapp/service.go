package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
	client "github.com/mamadbah2/swiftcheckout/pkg/clients/whatsapp"
)

// TextSender is the subset of the Cloud API client the service relies on.
type TextSender interface {
	SendTextMessage(ctx context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error)
}

// MetaWhatsAppService delivers outbound notifications such as the daily sales digest.
type MetaWhatsAppService struct {
	client TextSender
	logger *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(sender TextSender, logger *zap.Logger) *MetaWhatsAppService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetaWhatsAppService{client: sender, logger: logger}
}

// SendOutbound sends a text message to a single recipient.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	to := strings.TrimSpace(req.To)
	if to == "" {
		return errors.New("recipient is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return errors.New("message body is required")
	}

	resp, err := s.client.SendTextMessage(ctx, client.SendTextMessageRequest{
		To:         to,
		Body:       req.Message,
		PreviewURL: req.PreviewURL,
	})
	if err != nil {
		return fmt.Errorf("send outbound message: %w", err)
	}

	messageID := ""
	if resp != nil && len(resp.Messages) > 0 {
		messageID = resp.Messages[0].ID
	}
	s.logger.Info("outbound message sent", zap.String("to", to), zap.String("message_id", messageID))
	return nil
}
