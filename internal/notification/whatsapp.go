package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/apperror"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
)

// WhatsAppConfig holds the WhatsApp gateway settings
type WhatsAppConfig struct {
	APIURL string
	APIKey string
}

type whatsAppMessage struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// WhatsAppSender posts messages to a WhatsApp Business gateway
type WhatsAppSender struct {
	config WhatsAppConfig
	client *http.Client
	logger *slog.Logger
}

// NewWhatsAppSender creates a gateway backed sender
func NewWhatsAppSender(cfg WhatsAppConfig, client *http.Client, logger *slog.Logger) *WhatsAppSender {
	if client == nil {
		client = NewHTTPClient(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WhatsAppSender{config: cfg, client: client, logger: logger}
}

// Channel returns model.ChannelWhatsApp
func (s *WhatsAppSender) Channel() model.Channel {
	return model.ChannelWhatsApp
}

// Send posts the notice to the user's WhatsApp number
func (s *WhatsAppSender) Send(ctx context.Context, n *Notice) error {
	if s.config.APIURL == "" || s.config.APIKey == "" {
		return apperror.Unconfigured(string(model.ChannelWhatsApp))
	}
	if n.User == nil || n.User.WhatsAppNumber == nil || *n.User.WhatsAppNumber == "" {
		return apperror.ValidationError("whatsapp_number", "user has no WhatsApp number")
	}

	msg := whatsAppMessage{To: *n.User.WhatsAppNumber, Message: WhatsAppBody(n)}
	if err := postJSON(ctx, s.client, "whatsapp", s.config.APIURL, "Bearer "+s.config.APIKey, msg); err != nil {
		return fmt.Errorf("sending whatsapp for alert %d: %w", n.Alert.ID, err)
	}

	s.logger.Info("WhatsApp notification sent",
		slog.Int64("alert_id", n.Alert.ID),
		slog.Int64("user_id", n.User.ID),
	)
	return nil
}
