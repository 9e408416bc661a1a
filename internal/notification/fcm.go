package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/apperror"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
)

// DefaultFCMEndpoint is the legacy FCM HTTP send endpoint
const DefaultFCMEndpoint = "https://fcm.googleapis.com/fcm/send"

// FCMConfig holds Firebase Cloud Messaging settings
type FCMConfig struct {
	ServerKey string
	Endpoint  string
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound"`
}

type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data"`
	Priority     string            `json:"priority"`
}

// PushSender delivers push notifications through FCM
type PushSender struct {
	config FCMConfig
	client *http.Client
	logger *slog.Logger
}

// NewPushSender creates an FCM backed sender. A nil client gets a 15s timeout.
func NewPushSender(cfg FCMConfig, client *http.Client, logger *slog.Logger) *PushSender {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultFCMEndpoint
	}
	if client == nil {
		client = NewHTTPClient(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PushSender{config: cfg, client: client, logger: logger}
}

// Channel returns model.ChannelPush
func (s *PushSender) Channel() model.Channel {
	return model.ChannelPush
}

// Send pushes the notice to the user's registered device
func (s *PushSender) Send(ctx context.Context, n *Notice) error {
	if s.config.ServerKey == "" {
		return apperror.Unconfigured(string(model.ChannelPush))
	}
	if n.User == nil || n.User.FCMToken == nil || *n.User.FCMToken == "" {
		return apperror.ValidationError("fcm_token", "user has no FCM token")
	}

	msg := fcmMessage{
		To: *n.User.FCMToken,
		Notification: fcmNotification{
			Title: PushTitle,
			Body:  PushBody(n),
			Sound: "default",
		},
		Data: map[string]string{
			"type":          "price_alert",
			"alert_id":      strconv.FormatInt(n.Alert.ID, 10),
			"product_id":    strconv.FormatInt(n.Product.ID, 10),
			"current_price": formatPrice(n.Product.CurrentPrice),
			"target_price":  n.Alert.TargetPrice.StringFixed(2),
		},
		Priority: "high",
	}

	if err := postJSON(ctx, s.client, "fcm", s.config.Endpoint, "key="+s.config.ServerKey, msg); err != nil {
		return fmt.Errorf("sending push for alert %d: %w", n.Alert.ID, err)
	}

	s.logger.Info("Push notification sent",
		slog.Int64("alert_id", n.Alert.ID),
		slog.Int64("user_id", n.User.ID),
	)
	return nil
}
