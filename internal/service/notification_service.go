package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/contractor-portal/internal/config"
	"github.com/spec-kit/contractor-portal/internal/events"
	"github.com/spec-kit/contractor-portal/internal/notify"
)

// NotificationService turns domain events into notifications.
type NotificationService struct {
	dispatcher events.Dispatcher
	sender     notify.Sender
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, sender notify.Sender, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		sender:     sender,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventEmailVerified, n.handleEmailVerified)
	n.dispatcher.Subscribe(events.EventUserApproved, n.handleUserApproved)
	n.dispatcher.Subscribe(events.EventUserRejected, n.handleUserRejected)
	n.dispatcher.Subscribe(events.EventContractorApproved, n.logOnly)
	n.dispatcher.Subscribe(events.EventContractorRejected, n.logOnly)
	n.dispatcher.Subscribe(events.EventStagingMerged, n.logOnly)
	n.dispatcher.Subscribe(events.EventStagingKept, n.logOnly)
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.UserRegisteredPayload)
	if !ok {
		return unexpectedPayload(event)
	}
	return n.send(ctx, event, notify.Message{
		Kind:      notify.KindVerifyEmail,
		To:        p.Email,
		Name:      p.Name,
		Variables: map[string]string{"token": p.VerificationToken},
	})
}

func (n *NotificationService) handleEmailVerified(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.EmailVerifiedPayload)
	if !ok {
		return unexpectedPayload(event)
	}
	if strings.TrimSpace(n.cfg.AdminEmail) == "" {
		return nil
	}
	return n.send(ctx, event, notify.Message{
		Kind:      notify.KindAdminPendingApproval,
		To:        n.cfg.AdminEmail,
		Name:      "Administrator",
		Variables: map[string]string{"user_email": p.Email, "user_name": p.Name},
	})
}

func (n *NotificationService) handleUserApproved(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.UserDecisionPayload)
	if !ok {
		return unexpectedPayload(event)
	}
	return n.send(ctx, event, notify.Message{Kind: notify.KindApproved, To: p.Email, Name: p.Name})
}

func (n *NotificationService) handleUserRejected(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.UserDecisionPayload)
	if !ok {
		return unexpectedPayload(event)
	}
	return n.send(ctx, event, notify.Message{
		Kind:      notify.KindRejected,
		To:        p.Email,
		Name:      p.Name,
		Variables: map[string]string{"reason": p.Reason},
	})
}

// logOnly records decisions that have no recipient.
func (n *NotificationService) logOnly(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("subject_id", event.SubjectID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) send(ctx context.Context, event events.Event, msg notify.Message) error {
	if n.sender == nil || strings.TrimSpace(msg.To) == "" {
		return nil
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.logger.Warn("notification failed",
			zap.String("event_type", string(event.Type)),
			zap.String("kind", string(msg.Kind)),
			zap.String("subject_id", event.SubjectID),
			zap.Error(err))
		return err
	}
	return nil
}

func unexpectedPayload(event events.Event) error {
	return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
}
