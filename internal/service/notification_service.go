package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/tour-service/internal/events"
	"github.com/spec-kit/tour-service/internal/mail"
)

// NotificationService turns domain events into emails. It subscribes to the
// dispatcher; send failures are logged and swallowed so notifications never
// fail the operation that triggered them.
type NotificationService struct {
	mailer mail.Mailer
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(mailer mail.Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{mailer: mailer, logger: logger}
}

// Register subscribes the service to every event type it emails about.
func (n *NotificationService) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventUserRegistered, n.onUserRegistered)
	dispatcher.Subscribe(events.EventUserBlocked, n.onUserBlocked)
	dispatcher.Subscribe(events.EventUserUnblocked, n.onUserUnblocked)
	dispatcher.Subscribe(events.EventTourPurchased, n.onTourPurchased)
	dispatcher.Subscribe(events.EventTourCancelled, n.onTourCancelled)
	dispatcher.Subscribe(events.EventProblemReported, n.onProblemReported)
}

func (n *NotificationService) onUserRegistered(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserRegisteredPayload)
	if !ok {
		return n.badPayload(event)
	}
	n.send(payload.Email, mail.WelcomeSubject(), mail.WelcomeBody(payload.Username, payload.FirstName))
	return nil
}

func (n *NotificationService) onUserBlocked(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserBlockStatusPayload)
	if !ok {
		return n.badPayload(event)
	}
	n.send(payload.Email, mail.BlockedSubject(), mail.BlockedBody(payload.Username))
	return nil
}

func (n *NotificationService) onUserUnblocked(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserBlockStatusPayload)
	if !ok {
		return n.badPayload(event)
	}
	n.send(payload.Email, mail.UnblockedSubject(), mail.UnblockedBody(payload.Username))
	return nil
}

func (n *NotificationService) onTourPurchased(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TourPurchasedPayload)
	if !ok {
		return n.badPayload(event)
	}
	n.send(payload.TouristEmail, mail.PurchaseConfirmationSubject(),
		mail.PurchaseConfirmationBody(payload.TouristName, payload.TourName, payload.FinalPrice))
	return nil
}

func (n *NotificationService) onTourCancelled(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TourCancelledPayload)
	if !ok {
		return n.badPayload(event)
	}
	n.send(payload.TouristEmail, mail.CancellationSubject(),
		mail.CancellationBody(payload.TouristName, payload.TourName, payload.RefundedPoints))
	return nil
}

func (n *NotificationService) onProblemReported(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ProblemReportedPayload)
	if !ok {
		return n.badPayload(event)
	}
	n.send(payload.GuideEmail, mail.ProblemReportedSubject(),
		mail.ProblemReportedBody(payload.GuideName, payload.TourName, payload.TouristName))
	return nil
}

func (n *NotificationService) send(to, subject, body string) {
	if err := n.mailer.Send(to, subject, body); err != nil {
		n.logger.Warn("notification email failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
	}
}

func (n *NotificationService) badPayload(event events.Event) error {
	err := fmt.Errorf("unexpected payload type for event %s", event.Type)
	n.logger.Error("dropping event", zap.String("event_id", event.ID), zap.Error(err))
	return err
}
