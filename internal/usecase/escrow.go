package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Proposal is a renter's offer on an asset. The settlement amount is
// bound when the proposal is made; acceptance only supplies the
// expiry. Rows are deactivated, never deleted, so terminal proposals
// stay queryable.
type Proposal struct {
	ID            int64
	AssetID       int64
	ProposerID    uuid.UUID
	OwnerSnapshot uuid.UUID
	Amount        int64
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Proposer *Account
	Asset    *Asset
}

type ListProposalsOption struct {
	Skip   int
	Limit  int
	SortBy string
	SortIn string

	AssetID    int64
	ProposerID uuid.UUID
	ActiveOnly bool
}

type SessionOutcome string

const (
	SessionOutcomeReleased  SessionOutcome = "RELEASED"
	SessionOutcomeForfeited SessionOutcome = "FORFEITED"
)

// Session is the bookkeeping row for a custody deposit. The custody
// predicate itself is ownership: an asset is in escrow iff the escrow
// account holds its title.
type Session struct {
	ID          uuid.UUID
	AssetID     int64
	DepositorID uuid.UUID
	DepositedAt time.Time
	ResolvedAt  *time.Time
	Outcome     SessionOutcome
	WinnerID    *uuid.UUID
}

type ListSessionsOption struct {
	Skip  int
	Limit int

	AssetID  int64
	OpenOnly bool
}

type SettleProposalOption struct {
	ProposalID int64
	AssetID    int64
	Payer      uuid.UUID
	Payee      uuid.UUID
	Spender    uuid.UUID
	Amount     int64
	UserID     uuid.UUID
	ExpiresAt  time.Time
}

type ResolveSessionOption struct {
	SessionID uuid.UUID
	AssetID   int64
	WinnerID  uuid.UUID
	Outcome   SessionOutcome
}

// MakeProposal records an offer to rent an asset. Anyone may propose;
// no funds move and no balance is required until acceptance.
func (u Usecase) MakeProposal(ctx context.Context, assetID int64, amount int64) (Proposal, error) {
	callerID, _, err := callerFromContext(ctx)
	if err != nil {
		return Proposal{}, err
	}
	if amount <= 0 {
		return Proposal{}, ErrInvalidInputf("proposal amount must be positive")
	}
	asset, err := u.repo.GetAssetByID(ctx, assetID)
	if err != nil {
		return Proposal{}, err
	}

	return u.repo.CreateProposal(ctx, Proposal{
		AssetID:       assetID,
		ProposerID:    callerID,
		OwnerSnapshot: asset.OwnerID,
		Amount:        amount,
		Active:        true,
	})
}

func (u Usecase) GetProposalByID(ctx context.Context, id int64) (Proposal, error) {
	return u.repo.GetProposalByID(ctx, id)
}

func (u Usecase) ListProposals(ctx context.Context, opt ListProposalsOption) ([]Proposal, int, error) {
	return u.repo.ListProposals(ctx, opt)
}

// WithdrawProposal deactivates a proposal. Proposer only; terminal.
func (u Usecase) WithdrawProposal(ctx context.Context, proposalID int64) error {
	callerID, _, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	p, err := u.repo.GetProposalByID(ctx, proposalID)
	if err != nil {
		return err
	}
	if p.ProposerID != callerID {
		return ErrNotProposer
	}
	if !p.Active {
		return ErrProposalNotActive
	}
	return u.repo.DeactivateProposal(ctx, proposalID)
}

// AcceptProposal settles a proposal: payment is pulled from the
// proposer to the accepting owner and the time-bound user grant is
// written, all-or-nothing. Preconditions are checked in a fixed order
// so each failure keeps a distinct cause:
//
//  1. the proposal is active
//  2. the caller is the asset's current title owner (not the snapshot)
//  3. the asset has no active rental
//  4. the proposer can fund the settlement
//  5. the proposer has authorized the escrow account as spender
//
// The store deactivates the proposal before moving funds so that no
// reentrant observer can settle the same proposal twice.
func (u Usecase) AcceptProposal(ctx context.Context, proposalID int64, expiresAt time.Time) (Proposal, error) {
	callerID, _, err := callerFromContext(ctx)
	if err != nil {
		return Proposal{}, err
	}
	if !expiresAt.After(u.now()) {
		return Proposal{}, ErrInvalidInputf("expiry must be in the future")
	}

	p, err := u.repo.GetProposalByID(ctx, proposalID)
	if err != nil {
		return Proposal{}, err
	}
	if !p.Active {
		return Proposal{}, ErrProposalNotActive
	}

	asset, err := u.repo.GetAssetByID(ctx, p.AssetID)
	if err != nil {
		return Proposal{}, err
	}
	if callerID != asset.OwnerID {
		return Proposal{}, ErrNotOwner
	}

	rental, err := u.repo.GetRental(ctx, p.AssetID)
	if err != nil {
		return Proposal{}, err
	}
	if u.rentalActive(rental) {
		return Proposal{}, ErrAlreadyRented
	}

	proposer, err := u.repo.GetAccountByID(ctx, p.ProposerID)
	if err != nil {
		return Proposal{}, err
	}
	if proposer.Balance < p.Amount {
		return Proposal{}, ErrInsufficientFunds
	}

	settings, err := u.repo.GetSettings(ctx)
	if err != nil {
		return Proposal{}, err
	}
	if settings.EscrowAccountID == uuid.Nil {
		return Proposal{}, ErrInvalidInputf("no escrow account is configured")
	}
	allowance, err := u.repo.GetAllowance(ctx, p.ProposerID, settings.EscrowAccountID)
	if err != nil {
		return Proposal{}, err
	}
	if allowance < p.Amount {
		return Proposal{}, ErrNotAuthorizedSpender
	}

	if err := u.repo.SettleProposal(ctx, SettleProposalOption{
		ProposalID: proposalID,
		AssetID:    p.AssetID,
		Payer:      p.ProposerID,
		Payee:      callerID,
		Spender:    settings.EscrowAccountID,
		Amount:     p.Amount,
		UserID:     p.ProposerID,
		ExpiresAt:  expiresAt,
	}); err != nil {
		return Proposal{}, err
	}

	u.notify(Notification{
		UserID:        p.ProposerID,
		Title:         "Proposal Accepted",
		Message:       fmt.Sprintf("Your proposal on asset #%d was accepted. You hold its usage right until %s.", p.AssetID, expiresAt.Format("2006-01-02 03:04 PM")),
		ReferenceType: "PROPOSAL",
	})

	return u.repo.GetProposalByID(ctx, proposalID)
}

// InEscrow reports whether the escrow account currently holds title.
func (u Usecase) InEscrow(ctx context.Context, assetID int64) (bool, error) {
	asset, err := u.repo.GetAssetByID(ctx, assetID)
	if err != nil {
		return false, err
	}
	settings, err := u.repo.GetSettings(ctx)
	if err != nil {
		return false, err
	}
	return settings.EscrowAccountID != uuid.Nil && asset.OwnerID == settings.EscrowAccountID, nil
}

// DepositAsset opens a custody session by transferring title to the
// escrow account. Only the effective controller may deposit, and this
// is the one transfer path that ignores the active-rental lock.
func (u Usecase) DepositAsset(ctx context.Context, assetID int64) (Session, error) {
	callerID, _, err := callerFromContext(ctx)
	if err != nil {
		return Session{}, err
	}

	settings, err := u.repo.GetSettings(ctx)
	if err != nil {
		return Session{}, err
	}
	if settings.EscrowAccountID == uuid.Nil {
		return Session{}, ErrInvalidInputf("no escrow account is configured")
	}

	held, err := u.InEscrow(ctx, assetID)
	if err != nil {
		return Session{}, err
	}
	if held {
		return Session{}, ErrAlreadyInEscrow
	}

	controller, err := u.EffectiveController(ctx, assetID)
	if err != nil {
		return Session{}, err
	}
	if callerID != controller.AccountID {
		return Session{}, ErrNotAuthorizedForSession
	}

	if err := u.repo.TransferAsset(ctx, TransferAssetOption{
		AssetID: assetID,
		To:      settings.EscrowAccountID,
	}); err != nil {
		return Session{}, err
	}

	return u.repo.CreateSession(ctx, Session{
		AssetID:     assetID,
		DepositorID: callerID,
	})
}

// ResolveSession settles a disputed or forfeited custody session by
// assigning title to the declared winner. ARBITER only. Any active
// rental dies with the title change: it bound the previous owner.
func (u Usecase) ResolveSession(ctx context.Context, assetID int64, winnerID uuid.UUID) error {
	_, role, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if role != AccountRoleArbiter {
		return ErrUnauthorized
	}
	if winnerID == uuid.Nil {
		return ErrInvalidAddress
	}
	if _, err := u.repo.GetAccountByID(ctx, winnerID); err != nil {
		return err
	}
	return u.closeSession(ctx, assetID, winnerID, SessionOutcomeForfeited)
}

// ReleaseSession hands custody back to whoever deposited the asset.
// ARBITER only.
func (u Usecase) ReleaseSession(ctx context.Context, assetID int64) error {
	_, role, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if role != AccountRoleArbiter {
		return ErrUnauthorized
	}
	session, err := u.repo.GetOpenSession(ctx, assetID)
	if err != nil {
		return err
	}
	return u.closeSession(ctx, assetID, session.DepositorID, SessionOutcomeReleased)
}

func (u Usecase) closeSession(ctx context.Context, assetID int64, winnerID uuid.UUID, outcome SessionOutcome) error {
	held, err := u.InEscrow(ctx, assetID)
	if err != nil {
		return err
	}
	if !held {
		return ErrNotInEscrow
	}

	session, err := u.repo.GetOpenSession(ctx, assetID)
	if err != nil {
		return err
	}

	if err := u.repo.ResolveSession(ctx, ResolveSessionOption{
		SessionID: session.ID,
		AssetID:   assetID,
		WinnerID:  winnerID,
		Outcome:   outcome,
	}); err != nil {
		return err
	}

	u.notify(Notification{
		UserID:        winnerID,
		Title:         "Custody Session Resolved",
		Message:       fmt.Sprintf("Asset #%d is now yours (%s).", assetID, outcome),
		ReferenceType: "SESSION",
		ReferenceID:   &session.ID,
	})
	return nil
}

func (u Usecase) ListSessions(ctx context.Context, opt ListSessionsOption) ([]Session, int, error) {
	return u.repo.ListSessions(ctx, opt)
}
