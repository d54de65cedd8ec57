package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Title         string
	Message       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ReadAt        *time.Time
	ReferenceID   *uuid.UUID
	ReferenceType string
}

type ListNotificationsOption struct {
	Skip   int
	Limit  int
	UserID uuid.UUID
}

func (u Usecase) CreateNotification(ctx context.Context, n Notification) error {
	return u.repo.CreateNotification(ctx, n)
}

// notify fires a best-effort notification without holding up the
// calling operation.
func (u Usecase) notify(n Notification) {
	go func() {
		if err := u.repo.CreateNotification(context.Background(), n); err != nil {
			slog.Error("failed to create notification",
				slog.String("title", n.Title),
				slog.String("err", err.Error()))
		}
	}()
}

func (u Usecase) ListNotifications(ctx context.Context, opt ListNotificationsOption) ([]Notification, int, int, error) {
	userID, _, err := callerFromContext(ctx)
	if err != nil {
		return nil, 0, 0, err
	}
	return u.repo.ListNotifications(ctx, ListNotificationsOption{
		Skip:   opt.Skip,
		Limit:  opt.Limit,
		UserID: userID,
	})
}

func (u Usecase) ReadNotification(ctx context.Context, id uuid.UUID) error {
	return u.repo.ReadNotification(ctx, id)
}

func (u Usecase) ReadAllNotifications(ctx context.Context) error {
	userID, _, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	return u.repo.ReadAllNotifications(ctx, userID)
}

// StreamNotifications subscribes to the store's notification feed and
// forwards rows addressed to userID until ctx is done.
func (u Usecase) StreamNotifications(ctx context.Context, userID uuid.UUID) (<-chan Notification, error) {
	inbound := make(chan Notification, 10)
	if err := u.repo.SubscribeNotifications(ctx, inbound); err != nil {
		close(inbound)
		return nil, fmt.Errorf("subscribe to notifications: %w", err)
	}

	notifications := make(chan Notification, 10)
	go func() {
		defer close(notifications)
		defer u.repo.UnsubscribeNotifications(ctx, inbound)

		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-inbound:
				if !ok {
					return
				}
				if n.UserID != userID {
					continue
				}
				// Non-blocking send to avoid slow consumers.
				select {
				case notifications <- n:
				default:
				}
			}
		}
	}()

	return notifications, nil
}

// ProcessExpiryReminders notifies every renter whose grant lapses
// within the next day. Called by the queue worker on a schedule;
// expiry itself needs no processing, it is evaluated on read.
func (u Usecase) ProcessExpiryReminders(ctx context.Context) error {
	now := u.now()
	rentals, err := u.repo.ListExpiringRentals(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		return fmt.Errorf("list expiring rentals: %w", err)
	}

	for _, r := range rentals {
		if err := u.repo.CreateNotification(ctx, Notification{
			UserID:        r.UserID,
			Title:         "Rental Expiring",
			Message:       fmt.Sprintf("Your usage right on asset #%d lapses at %s.", r.AssetID, r.ExpiresAt.Format("2006-01-02 03:04 PM")),
			ReferenceType: "RENTAL",
		}); err != nil {
			return fmt.Errorf("notify rental on asset %d: %w", r.AssetID, err)
		}
	}
	return nil
}
