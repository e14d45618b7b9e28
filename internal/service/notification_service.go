package service

import (
	"context"
	"log/slog"
	"strings"

	"pulse/internal/featureflags"
	"pulse/internal/middleware"
	"pulse/internal/models"
	"pulse/internal/notifications"
	"pulse/internal/observability"
	"pulse/internal/repository"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

// EventPublisher fans stored notifications out to external consumers.
type EventPublisher interface {
	PublishUser(ctx context.Context, event notifications.Event) error
}

// FlagChecker evaluates feature flags per user.
type FlagChecker interface {
	Enabled(name string, userID string) bool
}

// NotifyInput describes one engagement event.
type NotifyInput struct {
	RecipientID string
	SenderID    string
	Type        models.NotificationType
	PostID      *string
}

// NotificationService stores notifications and exposes the recipient's inbox.
type NotificationService struct {
	repo         repository.NotificationRepository
	publisher    EventPublisher
	flags        FlagChecker
	defaultLimit int
}

// NewNotificationService returns a new NotificationService. publisher and flags may be nil.
func NewNotificationService(
	repo repository.NotificationRepository,
	publisher EventPublisher,
	flags FlagChecker,
	defaultLimit int,
) *NotificationService {
	if defaultLimit <= 0 {
		defaultLimit = defaultNotificationLimit
	}
	return &NotificationService{
		repo:         repo,
		publisher:    publisher,
		flags:        flags,
		defaultLimit: defaultLimit,
	}
}

// Notify stores a notification unless recipient and sender are the same user.
// It never returns an error: failures are logged and counted.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) {
	kind := string(in.Type)
	if in.RecipientID == "" || in.SenderID == "" || !in.Type.Valid() {
		observability.NotificationsTotal.WithLabelValues(kind, "failed").Inc()
		middleware.Logger.WarnContext(ctx, "notification dropped: invalid event",
			slog.String("type", kind),
			slog.String("recipient_id", in.RecipientID),
			slog.String("sender_id", in.SenderID),
		)
		return
	}
	if in.RecipientID == in.SenderID {
		observability.NotificationsTotal.WithLabelValues(kind, "suppressed").Inc()
		return
	}

	n := &models.Notification{
		RecipientID: in.RecipientID,
		SenderID:    in.SenderID,
		Type:        in.Type,
		PostID:      in.PostID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		observability.NotificationsTotal.WithLabelValues(kind, "failed").Inc()
		middleware.Logger.ErrorContext(ctx, "notification write failed",
			slog.String("type", kind),
			slog.String("recipient_id", in.RecipientID),
			slog.String("error", err.Error()),
		)
		return
	}
	observability.NotificationsTotal.WithLabelValues(kind, "created").Inc()

	if s.publisher == nil || s.flags == nil || !s.flags.Enabled(featureflags.NotificationEvents, in.RecipientID) {
		return
	}
	if err := s.publisher.PublishUser(ctx, notifications.EventFrom(n)); err != nil {
		middleware.Logger.WarnContext(ctx, "notification publish failed",
			slog.String("notification_id", n.ID),
			slog.String("error", err.Error()),
		)
	}
}

// List returns the recipient's newest notifications. limit defaults to the
// configured value and is capped at 100.
func (s *NotificationService) List(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error) {
	if strings.TrimSpace(recipientID) == "" {
		return nil, models.NewInvalidInputError("userId is required")
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	return s.repo.ListByRecipient(ctx, recipientID, limit)
}

// MarkAllRead marks every unread notification read and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	if strings.TrimSpace(recipientID) == "" {
		return 0, models.NewInvalidInputError("userId is required")
	}
	return s.repo.MarkAllRead(ctx, recipientID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	if strings.TrimSpace(recipientID) == "" {
		return 0, models.NewInvalidInputError("userId is required")
	}
	return s.repo.CountUnread(ctx, recipientID)
}
