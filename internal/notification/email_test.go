package notification

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/apperror"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
)

type capturedMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newTestEmailSender(cfg EmailConfig, err error) (*EmailSender, *capturedMail) {
	captured := &capturedMail{}
	s := NewEmailSender(cfg, nil)
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		captured.addr = addr
		captured.auth = a
		captured.from = from
		captured.to = to
		captured.msg = string(msg)
		return err
	}
	return s, captured
}

func TestEmailSender_Send(t *testing.T) {
	t.Parallel()

	s, captured := newTestEmailSender(EmailConfig{
		Host:     "smtp.example.com",
		Port:     "2525",
		Username: "mailer",
		Password: "secret",
		From:     "alerts@jungle-alert.app",
	}, nil)

	err := s.Send(context.Background(), newNotice(model.AlertTypePriceDrop, "Kindle"))
	require.NoError(t, err)

	assert.Equal(t, model.ChannelEmail, s.Channel())
	assert.Equal(t, "smtp.example.com:2525", captured.addr)
	assert.NotNil(t, captured.auth)
	assert.Equal(t, "alerts@jungle-alert.app", captured.from)
	assert.Equal(t, []string{"ana@example.com"}, captured.to)
	assert.Contains(t, captured.msg, "To: ana@example.com\r\n")
	assert.Contains(t, captured.msg, "Subject: =?utf-8?q?")
	assert.Contains(t, captured.msg, "Product: Kindle\r\n")
}

func TestEmailSender_NoAuthWithoutUsername(t *testing.T) {
	t.Parallel()

	s, captured := newTestEmailSender(EmailConfig{Host: "localhost", From: "a@b.c"}, nil)

	require.NoError(t, s.Send(context.Background(), newNotice(model.AlertTypePriceDrop, "Kindle")))
	assert.Nil(t, captured.auth)
	assert.Equal(t, "localhost:587", captured.addr)
}

func TestEmailSender_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     EmailConfig
		sendErr error
		mutate  func(n *Notice)
		check   func(t *testing.T, err error)
	}{
		{
			name: "unconfigured",
			cfg:  EmailConfig{},
			check: func(t *testing.T, err error) {
				assert.True(t, apperror.IsUnconfigured(err))
			},
		},
		{
			name:   "missing address",
			cfg:    EmailConfig{Host: "localhost"},
			mutate: func(n *Notice) { n.User.Email = "" },
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, apperror.ErrValidation)
			},
		},
		{
			name:    "smtp failure",
			cfg:     EmailConfig{Host: "localhost"},
			sendErr: errors.New("connection refused"),
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "connection refused")
				assert.Contains(t, err.Error(), "alert 7")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, _ := newTestEmailSender(tt.cfg, tt.sendErr)
			n := newNotice(model.AlertTypePriceDrop, "Kindle")
			if tt.mutate != nil {
				tt.mutate(n)
			}

			err := s.Send(context.Background(), n)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}
