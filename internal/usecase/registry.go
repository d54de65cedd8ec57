package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Settings is the single platform configuration row.
type Settings struct {
	EscrowAccountID uuid.UUID
	BaseURI         string
	UpdatedAt       time.Time
}

// SetAssetUser assigns a time-bound user to an asset, overwriting any
// previous assignment. Permitted callers: the asset's current title
// owner, or the configured escrow account (which is how proposal
// acceptance writes the grant without per-call owner signing).
func (u Usecase) SetAssetUser(ctx context.Context, assetID int64, userID uuid.UUID, expiresAt time.Time) error {
	callerID, _, err := callerFromContext(ctx)
	if err != nil {
		return err
	}

	asset, err := u.repo.GetAssetByID(ctx, assetID)
	if err != nil {
		return err
	}

	if callerID != asset.OwnerID {
		settings, err := u.repo.GetSettings(ctx)
		if err != nil {
			return err
		}
		if settings.EscrowAccountID == uuid.Nil || callerID != settings.EscrowAccountID {
			return ErrUnauthorized
		}
	}

	return u.repo.SetRental(ctx, Rental{
		AssetID:   assetID,
		UserID:    userID,
		ExpiresAt: expiresAt,
	})
}

// UserOf returns the asset's active user, or uuid.Nil once the stored
// expiry has passed. The activity predicate is computed at read time;
// nothing is ever written back.
func (u Usecase) UserOf(ctx context.Context, assetID int64) (uuid.UUID, error) {
	if _, err := u.repo.GetAssetByID(ctx, assetID); err != nil {
		return uuid.Nil, err
	}
	r, err := u.repo.GetRental(ctx, assetID)
	if err != nil {
		return uuid.Nil, err
	}
	if !u.rentalActive(r) {
		return uuid.Nil, nil
	}
	return r.UserID, nil
}

// UserExpires returns the stored expiry regardless of whether the
// rental is still active. Zero time when no user was ever assigned.
func (u Usecase) UserExpires(ctx context.Context, assetID int64) (time.Time, error) {
	if _, err := u.repo.GetAssetByID(ctx, assetID); err != nil {
		return time.Time{}, err
	}
	r, err := u.repo.GetRental(ctx, assetID)
	if err != nil {
		return time.Time{}, err
	}
	return r.ExpiresAt, nil
}

// SetEscrowAccount configures the single trusted authority allowed to
// bypass title-owner checks in SetAssetUser and custody transfers.
// ADMIN only; reassignable.
func (u Usecase) SetEscrowAccount(ctx context.Context, accountID uuid.UUID) error {
	_, role, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if role != AccountRoleAdmin {
		return ErrUnauthorized
	}
	if accountID == uuid.Nil {
		return ErrInvalidAddress
	}
	if _, err := u.repo.GetAccountByID(ctx, accountID); err != nil {
		return err
	}
	settings, err := u.repo.GetSettings(ctx)
	if err != nil {
		return err
	}
	settings.EscrowAccountID = accountID
	_, err = u.repo.UpdateSettings(ctx, settings)
	return err
}

func (u Usecase) GetSettings(ctx context.Context) (Settings, error) {
	return u.repo.GetSettings(ctx)
}

func (u Usecase) rentalActive(r Rental) bool {
	return r.UserID != uuid.Nil && r.ExpiresAt.After(u.now())
}
