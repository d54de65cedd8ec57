package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenDecimals is the fixed display precision reported for the
// fungible balance ledger. Balances themselves are base units.
const TokenDecimals = 18

type LedgerEntryKind string

const (
	LedgerEntryMint       LedgerEntryKind = "MINT"
	LedgerEntryTransfer   LedgerEntryKind = "TRANSFER"
	LedgerEntrySettlement LedgerEntryKind = "SETTLEMENT"
)

// LedgerEntry is an immutable audit row appended on every balance
// mutation.
type LedgerEntry struct {
	ID        uuid.UUID
	Kind      LedgerEntryKind
	FromID    *uuid.UUID
	ToID      uuid.UUID
	Amount    int64
	AssetID   *int64
	CreatedAt time.Time
}

type ListLedgerEntriesOption struct {
	Skip  int
	Limit int

	AccountID uuid.UUID
	Kind      LedgerEntryKind
}

type TransferTokensOption struct {
	From   uuid.UUID
	To     uuid.UUID
	Amount int64
	Kind   LedgerEntryKind

	// SpenderID, when set, consumes the From->Spender allowance
	// instead of requiring From to be the caller.
	SpenderID *uuid.UUID

	// AssetID ties settlement entries back to the rented asset.
	AssetID *int64
}

func (u Usecase) Decimals() int {
	return TokenDecimals
}

// MintTokens issues new balance to an account. ADMIN only.
func (u Usecase) MintTokens(ctx context.Context, to uuid.UUID, amount int64) error {
	_, role, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if role != AccountRoleAdmin {
		return ErrUnauthorized
	}
	if to == uuid.Nil {
		return ErrInvalidAddress
	}
	if amount <= 0 {
		return ErrInvalidInputf("mint amount must be positive")
	}
	if _, err := u.repo.GetAccountByID(ctx, to); err != nil {
		return err
	}
	return u.repo.MintTokens(ctx, to, amount)
}

func (u Usecase) BalanceOf(ctx context.Context, id uuid.UUID) (int64, error) {
	a, err := u.repo.GetAccountByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return a.Balance, nil
}

// Approve sets the caller's allowance for spender. Overwrite
// semantics, not additive.
func (u Usecase) Approve(ctx context.Context, spender uuid.UUID, amount int64) error {
	callerID, _, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if spender == uuid.Nil {
		return ErrInvalidAddress
	}
	if amount < 0 {
		return ErrInvalidInputf("allowance must not be negative")
	}
	return u.repo.SetAllowance(ctx, callerID, spender, amount)
}

func (u Usecase) Allowance(ctx context.Context, owner, spender uuid.UUID) (int64, error) {
	return u.repo.GetAllowance(ctx, owner, spender)
}

// TransferTokens moves balance out of the caller's own account.
func (u Usecase) TransferTokens(ctx context.Context, to uuid.UUID, amount int64) error {
	callerID, _, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if to == uuid.Nil {
		return ErrInvalidAddress
	}
	if amount <= 0 {
		return ErrInvalidInputf("transfer amount must be positive")
	}
	return u.repo.TransferTokens(ctx, TransferTokensOption{
		From:   callerID,
		To:     to,
		Amount: amount,
		Kind:   LedgerEntryTransfer,
	})
}

func (u Usecase) ListLedgerEntries(ctx context.Context, opt ListLedgerEntriesOption) ([]LedgerEntry, int, error) {
	return u.repo.ListLedgerEntries(ctx, opt)
}
