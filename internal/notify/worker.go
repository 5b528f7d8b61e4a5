package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// DispatchNotificationArgs is the payload delivered to the notifier webhook.
type DispatchNotificationArgs struct {
	RecipientID uuid.UUID `json:"recipient_id"`
	Type        string    `json:"type"`
	Link        string    `json:"link"`
	Message     string    `json:"message"`
}

func (DispatchNotificationArgs) Kind() string { return "dispatch_notification" }

// DispatchWorker posts notification events to the configured webhook.
// With no webhook configured the event is logged and dropped.
type DispatchWorker struct {
	river.WorkerDefaults[DispatchNotificationArgs]
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewDispatchWorker(webhookURL string, logger *slog.Logger) *DispatchWorker {
	return &DispatchWorker{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (w *DispatchWorker) Work(ctx context.Context, job *river.Job[DispatchNotificationArgs]) error {
	args := job.Args
	if w.webhookURL == "" {
		w.logger.Info("notification (no webhook configured)",
			"recipient_id", args.RecipientID, "type", args.Type, "message", args.Message)
		return nil
	}

	body, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notifier webhook returned status %d", resp.StatusCode)
	}
	return nil
}
