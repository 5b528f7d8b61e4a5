package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Notification event types produced by the spending state machine.
const (
	TypeSpendingRequest  = "spending_request"
	TypeSpendingApproved = "spending_approved"
	TypeSpendingDeclined = "spending_declined"
	TypeSpendingReversed = "spending_reversed"
)

// EnqueueFunc enqueues a dispatch job. Provided by main as a closure over
// river.Client.Insert.
type EnqueueFunc func(ctx context.Context, args DispatchNotificationArgs) error

// Notifier is the fire-and-forget side channel for notification events.
// Enqueue failures are logged and swallowed: notification dispatch is never
// on the critical path of a financial transition.
type Notifier struct {
	enqueue EnqueueFunc
	logger  *slog.Logger
}

func NewNotifier(enqueue EnqueueFunc, logger *slog.Logger) *Notifier {
	return &Notifier{enqueue: enqueue, logger: logger}
}

// Send enqueues one notification event, best-effort.
func (n *Notifier) Send(ctx context.Context, recipientID uuid.UUID, eventType, link, message string) {
	if n == nil || n.enqueue == nil {
		return
	}
	err := n.enqueue(ctx, DispatchNotificationArgs{
		RecipientID: recipientID,
		Type:        eventType,
		Link:        link,
		Message:     message,
	})
	if err != nil {
		n.logger.Error("enqueue notification", "type", eventType, "recipient_id", recipientID, "error", err)
	}
}
