package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Asset struct {
	ID          int64
	OwnerID     uuid.UUID
	OperatorID  *uuid.UUID
	MetadataRef string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Owner  *Account
	Rental *Rental
}

// Rental is the per-asset (user, expiresAt) pair. A zero UserID means
// no user has ever been assigned.
type Rental struct {
	AssetID   int64
	UserID    uuid.UUID
	ExpiresAt time.Time
	UpdatedAt time.Time

	User *Account
}

type ListAssetsOption struct {
	Skip   int
	Limit  int
	SortBy string
	SortIn string

	OwnerID uuid.UUID
	UserID  uuid.UUID
}

// AwardAsset mints a new asset to an owner. ADMIN only; supply is
// capped at the configured maximum.
func (u Usecase) AwardAsset(ctx context.Context, to uuid.UUID, metadataRef string) (Asset, error) {
	_, role, err := callerFromContext(ctx)
	if err != nil {
		return Asset{}, err
	}
	if role != AccountRoleAdmin {
		return Asset{}, ErrUnauthorized
	}
	if to == uuid.Nil {
		return Asset{}, ErrInvalidAddress
	}
	if _, err := u.repo.GetAccountByID(ctx, to); err != nil {
		return Asset{}, err
	}

	minted, err := u.repo.CountAssets(ctx)
	if err != nil {
		return Asset{}, err
	}
	if u.maxSupply > 0 && minted >= u.maxSupply {
		return Asset{}, ErrSupplyExhausted
	}

	return u.repo.CreateAsset(ctx, Asset{
		OwnerID:     to,
		MetadataRef: metadataRef,
	})
}

func (u Usecase) GetAssetByID(ctx context.Context, id int64) (Asset, error) {
	return u.repo.GetAssetByID(ctx, id)
}

func (u Usecase) ListAssets(ctx context.Context, opt ListAssetsOption) ([]Asset, int, error) {
	return u.repo.ListAssets(ctx, opt)
}

// AssetURI resolves the metadata reference for an asset: the explicit
// ref recorded at mint time, else baseURI/<id>.json.
func (u Usecase) AssetURI(ctx context.Context, id int64) (string, error) {
	a, err := u.repo.GetAssetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if a.MetadataRef != "" {
		return a.MetadataRef, nil
	}
	settings, err := u.repo.GetSettings(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%d.json", settings.BaseURI, a.ID), nil
}

// SetBaseURI reconfigures the fallback metadata root. ADMIN only.
func (u Usecase) SetBaseURI(ctx context.Context, baseURI string) error {
	_, role, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if role != AccountRoleAdmin {
		return ErrUnauthorized
	}
	if baseURI == "" {
		return ErrInvalidInputf("base uri is required")
	}
	settings, err := u.repo.GetSettings(ctx)
	if err != nil {
		return err
	}
	settings.BaseURI = baseURI
	_, err = u.repo.UpdateSettings(ctx, settings)
	return err
}

// RenounceMinter hands the ADMIN role to the fixed beneficiary
// configured at startup. The caller keeps no special rights.
func (u Usecase) RenounceMinter(ctx context.Context) error {
	callerID, role, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if role != AccountRoleAdmin {
		return ErrUnauthorized
	}
	if u.fixedBeneficiary == uuid.Nil {
		return ErrInvalidInputf("no fixed beneficiary is configured")
	}
	if err := u.repo.UpdateAccountRole(ctx, u.fixedBeneficiary, AccountRoleAdmin); err != nil {
		return err
	}
	return u.repo.UpdateAccountRole(ctx, callerID, AccountRoleUser)
}
