package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/cbt-dashboard/internal/config"
	"github.com/spec-kit/cbt-dashboard/internal/events"
)

// Mailer delivers a message to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// logMailer stands in for the external mail provider. It records the envelope only.
type logMailer struct {
	from   string
	logger *zap.Logger
}

// NewLogMailer returns a Mailer that logs recipients and subjects without message bodies.
func NewLogMailer(from string, logger *zap.Logger) Mailer {
	return &logMailer{from: from, logger: logger}
}

func (m *logMailer) Send(_ context.Context, to, subject, _ string) error {
	m.logger.Info("email queued", zap.String("from", m.from), zap.String("to", to), zap.String("subject", subject))
	return nil
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     Mailer
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer Mailer, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handleResetRequested)
	n.dispatcher.Subscribe(events.EventPasswordResetCompleted, n.handleResetCompleted)
	n.dispatcher.Subscribe(events.EventUserRoleChanged, n.handleRoleChanged)
}

func (n *NotificationService) handleResetRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	link, err := n.resetLink(payload.Token)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("Hello %s,\n\nUse the link below to choose a new password. It expires at %s.\n\n%s\n",
		payload.Name, payload.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"), link)
	if err := n.mailer.Send(ctx, payload.Email, "Reset your password", body); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleResetCompleted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetCompletedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	body := "Your password was just changed. If this was not you, contact an administrator.\n"
	if err := n.mailer.Send(ctx, payload.Email, "Your password was changed", body); err != nil {
		return fmt.Errorf("send reset confirmation: %w", err)
	}
	return nil
}

func (n *NotificationService) handleRoleChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("UserRoleChanged", zap.String("user_id", event.UserID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) resetLink(token string) (string, error) {
	u, err := url.Parse(n.cfg.ResetURL)
	if err != nil {
		return "", fmt.Errorf("parse reset url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("user_id", event.UserID),
		zap.String("event_type", string(event.Type)))
}
