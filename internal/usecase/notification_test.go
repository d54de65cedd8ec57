package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiryReminders(t *testing.T) {
	var (
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		newRental = func(t *testing.T, repo *fakeRepo, assetID int64, userID uuid.UUID, expiresAt time.Time) {
			require.NoError(t, repo.SetRental(context.Background(), Rental{
				AssetID:   assetID,
				UserID:    userID,
				ExpiresAt: expiresAt,
			}))
		}
	)

	t.Run("should notify renters lapsing within a day", func(t *testing.T) {
		// Arrange
		var (
			repo = newFakeRepo()
			sut  = testUsecase(repo, now)

			soon    = uuid.New()
			distant = uuid.New()
			lapsed  = uuid.New()
		)
		newRental(t, repo, 1, soon, now.Add(6*time.Hour))
		newRental(t, repo, 2, distant, now.Add(72*time.Hour))
		newRental(t, repo, 3, lapsed, now.Add(-time.Hour))

		// Act
		err := sut.ProcessExpiryReminders(context.Background())

		// Assert - only the rental inside the window produced a reminder
		require.NoError(t, err)
		notifications, _, total, err := repo.ListNotifications(context.Background(), ListNotificationsOption{UserID: soon})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		assert.Equal(t, "Rental Expiring", notifications[0].Title)
		assert.Equal(t, "RENTAL", notifications[0].ReferenceType)

		_, _, distantTotal, _ := repo.ListNotifications(context.Background(), ListNotificationsOption{UserID: distant})
		_, _, lapsedTotal, _ := repo.ListNotifications(context.Background(), ListNotificationsOption{UserID: lapsed})
		assert.Equal(t, 0, distantTotal)
		assert.Equal(t, 0, lapsedTotal)
	})

	t.Run("should scope listing to the caller", func(t *testing.T) {
		// Arrange
		var (
			repo  = newFakeRepo()
			sut   = testUsecase(repo, now)
			alice = uuid.New()
			bob   = uuid.New()
		)
		require.NoError(t, repo.CreateNotification(context.Background(), Notification{UserID: alice, Title: "A"}))
		require.NoError(t, repo.CreateNotification(context.Background(), Notification{UserID: bob, Title: "B"}))

		// Act
		list, unread, total, err := sut.ListNotifications(asCaller(alice, AccountRoleUser), ListNotificationsOption{Limit: 10})

		// Assert
		require.NoError(t, err)
		require.Equal(t, 1, total)
		assert.Equal(t, 1, unread)
		assert.Equal(t, "A", list[0].Title)
	})
}
