package worker

import (
	"context"
	"log/slog"

	"github.com/stagelink/stagelink/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. Persist
// failures are logged and dropped; auditing never takes the workflow down.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action,
					"application_id", event.ApplicationID.String(),
					"error", err,
				)
			}
		}
	}
}
