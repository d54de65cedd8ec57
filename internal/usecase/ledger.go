package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Capability set identifiers reported by SupportsCapabilitySet.
const (
	CapabilityIntrospection = "0x01ffc9a7"
	CapabilityOwnership     = "0x80ac58cd"
	CapabilityDelegatedUse  = "0xad092b5c"
)

type ControllerKind string

const (
	ControllerOwner ControllerKind = "OWNER"
	ControllerUser  ControllerKind = "USER"
)

// Controller is the resolved effective controller of an asset: the
// active user while the rental holds, the title owner otherwise.
type Controller struct {
	Kind      ControllerKind
	AccountID uuid.UUID
}

// AssetEvent records a capability invocation against an asset.
type AssetEvent struct {
	ID        uuid.UUID
	AssetID   int64
	ActorID   uuid.UUID
	ActorKind ControllerKind
	Action    string
	Payload   datatypes.JSON
	CreatedAt time.Time
}

type ListAssetEventsOption struct {
	Skip  int
	Limit int

	AssetID int64
	ActorID uuid.UUID
}

type TransferAssetOption struct {
	AssetID int64
	To      uuid.UUID

	// ClearRental resets the rental record alongside the title
	// change. Used by loss resolution.
	ClearRental bool
}

func (u Usecase) OwnerOf(ctx context.Context, assetID int64) (uuid.UUID, error) {
	a, err := u.repo.GetAssetByID(ctx, assetID)
	if err != nil {
		return uuid.Nil, err
	}
	return a.OwnerID, nil
}

func (u Usecase) AssetBalanceOf(ctx context.Context, ownerID uuid.UUID) (int, error) {
	return u.repo.CountAssetsByOwner(ctx, ownerID)
}

// ApproveOperator lets the title owner delegate transfer rights for a
// single asset. A nil operator clears the approval.
func (u Usecase) ApproveOperator(ctx context.Context, assetID int64, operatorID uuid.UUID) error {
	callerID, _, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	asset, err := u.repo.GetAssetByID(ctx, assetID)
	if err != nil {
		return err
	}
	if callerID != asset.OwnerID {
		return ErrNotOwner
	}
	var op *uuid.UUID
	if operatorID != uuid.Nil {
		op = &operatorID
	}
	return u.repo.SetAssetOperator(ctx, assetID, op)
}

// TransferAsset moves title to a new owner. Rejected for every caller,
// including the owner, while a rental is active: renting freezes
// transferability. Custody deposit goes through DepositAsset instead,
// which is the one sanctioned exception to the lock.
func (u Usecase) TransferAsset(ctx context.Context, assetID int64, to uuid.UUID) error {
	callerID, _, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if to == uuid.Nil {
		return ErrInvalidAddress
	}
	asset, err := u.repo.GetAssetByID(ctx, assetID)
	if err != nil {
		return err
	}

	approved := callerID == asset.OwnerID ||
		(asset.OperatorID != nil && callerID == *asset.OperatorID)
	if !approved {
		return ErrUnauthorized
	}

	rental, err := u.repo.GetRental(ctx, assetID)
	if err != nil {
		return err
	}
	if u.rentalActive(rental) {
		return ErrActiveRentalLock
	}

	if _, err := u.repo.GetAccountByID(ctx, to); err != nil {
		return err
	}

	return u.repo.TransferAsset(ctx, TransferAssetOption{
		AssetID: assetID,
		To:      to,
	})
}

// EffectiveController resolves who currently speaks for the asset.
// Every capability check consumes this one resolver instead of
// scattering owner/user branches across call sites.
func (u Usecase) EffectiveController(ctx context.Context, assetID int64) (Controller, error) {
	asset, err := u.repo.GetAssetByID(ctx, assetID)
	if err != nil {
		return Controller{}, err
	}
	rental, err := u.repo.GetRental(ctx, assetID)
	if err != nil {
		return Controller{}, err
	}
	if u.rentalActive(rental) {
		return Controller{Kind: ControllerUser, AccountID: rental.UserID}, nil
	}
	return Controller{Kind: ControllerOwner, AccountID: asset.OwnerID}, nil
}

// InvokeAssetAction performs a gated capability ("use the item") as
// the asset's effective controller and records it as an event. The
// right migrates to the renter exactly while UserOf reports a user
// and reverts to the owner the moment the rental lapses.
func (u Usecase) InvokeAssetAction(ctx context.Context, assetID int64, action string, payload []byte) (AssetEvent, error) {
	callerID, _, err := callerFromContext(ctx)
	if err != nil {
		return AssetEvent{}, err
	}
	if action == "" {
		return AssetEvent{}, ErrInvalidInputf("action is required")
	}

	controller, err := u.EffectiveController(ctx, assetID)
	if err != nil {
		return AssetEvent{}, err
	}
	if callerID != controller.AccountID {
		return AssetEvent{}, ErrNotAuthorized
	}

	event, err := u.repo.CreateAssetEvent(ctx, AssetEvent{
		AssetID:   assetID,
		ActorID:   callerID,
		ActorKind: controller.Kind,
		Action:    action,
		Payload:   datatypes.JSON(payload),
	})
	if err != nil {
		return AssetEvent{}, err
	}

	// Let the title owner know a delegated user exercised the asset.
	if controller.Kind == ControllerUser {
		asset, err := u.repo.GetAssetByID(ctx, assetID)
		if err == nil {
			u.notify(Notification{
				UserID:        asset.OwnerID,
				Title:         "Asset Used",
				Message:       fmt.Sprintf("Your asset #%d was used by its current renter (%s).", assetID, action),
				ReferenceType: "ASSET",
				ReferenceID:   &event.ID,
			})
		}
	}

	return event, nil
}

func (u Usecase) ListAssetEvents(ctx context.Context, opt ListAssetEventsOption) ([]AssetEvent, int, error) {
	return u.repo.ListAssetEvents(ctx, opt)
}

// SupportsCapabilitySet reports whether this ledger implements the
// given capability set id.
func (u Usecase) SupportsCapabilitySet(id string) bool {
	switch id {
	case CapabilityIntrospection, CapabilityOwnership, CapabilityDelegatedUse:
		return true
	}
	return false
}
