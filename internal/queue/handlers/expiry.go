package handlers

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// HandleCheckExpiringRentals processes the periodic expiry reminder task.
func (h *Handlers) HandleCheckExpiringRentals(ctx context.Context, task *asynq.Task) error {
	h.logger.Info("checking expiring rentals")

	if err := h.usecase.ProcessExpiryReminders(ctx); err != nil {
		h.logger.Error("processing expiry reminders", slog.String("err", err.Error()))
		return err
	}

	h.logger.Info("expiring rentals check completed")
	return nil
}
