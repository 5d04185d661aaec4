package service

import (
	"context"

	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// notifier sends best-effort notifications. Failures are logged and never
// returned, so a committed mutation is not reported as failed.
type notifier struct {
	users  ports.UserRepository
	sender ports.NotificationSender
	log    zerolog.Logger
}

func (n notifier) toUser(ctx context.Context, userID uuid.UUID, kind domain.NotificationKind, data map[string]string) {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil || user == nil {
		n.log.Warn().Err(err).Str("user_id", userID.String()).Str("kind", string(kind)).
			Msg("notification recipient lookup failed")
		return
	}
	n.to(ctx, user.Email, kind, data)
}

func (n notifier) to(ctx context.Context, recipient string, kind domain.NotificationKind, data map[string]string) {
	if err := n.sender.Notify(ctx, kind, recipient, data); err != nil {
		n.log.Warn().Err(err).Str("kind", string(kind)).Msg("notification delivery failed")
	}
}
