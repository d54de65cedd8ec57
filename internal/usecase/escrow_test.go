package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposals(t *testing.T) {
	var (
		now    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		expiry = now.Add(7 * 24 * time.Hour)

		newAccount = func(t *testing.T, repo *fakeRepo, role AccountRole) Account {
			a, err := repo.CreateAccount(context.Background(), Account{Name: "acct", Role: role})
			require.NoError(t, err)
			return a
		}
		newAsset = func(t *testing.T, repo *fakeRepo, owner uuid.UUID) Asset {
			a, err := repo.CreateAsset(context.Background(), Asset{OwnerID: owner})
			require.NoError(t, err)
			return a
		}
		// fund gives the account balance and authorizes the escrow
		// account as spender for it.
		fund = func(t *testing.T, repo *fakeRepo, sut Usecase, id uuid.UUID, amount int64) {
			require.NoError(t, repo.MintTokens(context.Background(), id, amount))
			require.NoError(t, sut.Approve(asCaller(id, AccountRoleUser), repo.settings.EscrowAccountID, amount))
		}
	)

	t.Run("should record a proposal with the owner snapshot", func(t *testing.T) {
		// Arrange
		var (
			repo     = newFakeRepo()
			sut      = testUsecase(repo, now)
			owner    = newAccount(t, repo, AccountRoleUser)
			proposer = newAccount(t, repo, AccountRoleUser)
			asset    = newAsset(t, repo, owner.ID)
		)

		// Act
		p, err := sut.MakeProposal(asCaller(proposer.ID, proposer.Role), asset.ID, 250)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, asset.ID, p.AssetID)
		assert.Equal(t, proposer.ID, p.ProposerID)
		assert.Equal(t, owner.ID, p.OwnerSnapshot)
		assert.Equal(t, int64(250), p.Amount)
		assert.True(t, p.Active)
	})

	t.Run("should reject a non-positive proposal amount", func(t *testing.T) {
		// Arrange
		var (
			repo     = newFakeRepo()
			sut      = testUsecase(repo, now)
			owner    = newAccount(t, repo, AccountRoleUser)
			proposer = newAccount(t, repo, AccountRoleUser)
			asset    = newAsset(t, repo, owner.ID)
		)

		// Act
		_, err := sut.MakeProposal(asCaller(proposer.ID, proposer.Role), asset.ID, 0)

		// Assert
		assert.Equal(t, CodeInvalidInput, CodeOf(err))
	})

	t.Run("should only let the proposer withdraw", func(t *testing.T) {
		// Arrange
		var (
			repo     = newFakeRepo()
			sut      = testUsecase(repo, now)
			owner    = newAccount(t, repo, AccountRoleUser)
			proposer = newAccount(t, repo, AccountRoleUser)
			other    = newAccount(t, repo, AccountRoleUser)
			asset    = newAsset(t, repo, owner.ID)
		)
		p, err := sut.MakeProposal(asCaller(proposer.ID, proposer.Role), asset.ID, 250)
		require.NoError(t, err)

		// Act
		otherErr := sut.WithdrawProposal(asCaller(other.ID, other.Role), p.ID)
		proposerErr := sut.WithdrawProposal(asCaller(proposer.ID, proposer.Role), p.ID)

		// Assert
		assert.Equal(t, CodeNotProposer, CodeOf(otherErr))
		require.NoError(t, proposerErr)

		withdrawn, err := sut.GetProposalByID(context.Background(), p.ID)
		require.NoError(t, err)
		assert.False(t, withdrawn.Active)
	})

	t.Run("should reject withdrawing twice", func(t *testing.T) {
		// Arrange
		var (
			repo     = newFakeRepo()
			sut      = testUsecase(repo, now)
			owner    = newAccount(t, repo, AccountRoleUser)
			proposer = newAccount(t, repo, AccountRoleUser)
			asset    = newAsset(t, repo, owner.ID)
		)
		p, err := sut.MakeProposal(asCaller(proposer.ID, proposer.Role), asset.ID, 250)
		require.NoError(t, err)
		require.NoError(t, sut.WithdrawProposal(asCaller(proposer.ID, proposer.Role), p.ID))

		// Act
		err = sut.WithdrawProposal(asCaller(proposer.ID, proposer.Role), p.ID)

		// Assert
		assert.Equal(t, CodeProposalNotActive, CodeOf(err))
	})

	t.Run("should settle an accepted proposal atomically", func(t *testing.T) {
		// Arrange
		var (
			repo     = newFakeRepo()
			sut      = testUsecase(repo, now)
			owner    = newAccount(t, repo, AccountRoleUser)
			proposer = newAccount(t, repo, AccountRoleUser)
			escrow   = newAccount(t, repo, AccountRoleUser)
			asset    = newAsset(t, repo, owner.ID)
		)
		repo.settings.EscrowAccountID = escrow.ID
		fund(t, repo, sut, proposer.ID, 1000)

		p, err := sut.MakeProposal(asCaller(proposer.ID, proposer.Role), asset.ID, 250)
		require.NoError(t, err)

		// Act
		accepted, err := sut.AcceptProposal(asCaller(owner.ID, owner.Role), p.ID, expiry)

		// Assert
		require.NoError(t, err)
		assert.False(t, accepted.Active)

		proposerBalance, _ := sut.BalanceOf(context.Background(), proposer.ID)
		ownerBalance, _ := sut.BalanceOf(context.Background(), owner.ID)
		assert.Equal(t, int64(750), proposerBalance)
		assert.Equal(t, int64(250), ownerBalance)

		userID, _ := sut.UserOf(context.Background(), asset.ID)
		assert.Equal(t, proposer.ID, userID)

		storedExpiry, _ := sut.UserExpires(context.Background(), asset.ID)
		assert.True(t, storedExpiry.Equal(expiry))

		// Allowance was consumed, and settlement hit the audit trail.
		allowance, _ := sut.Allowance(context.Background(), proposer.ID, escrow.ID)
		assert.Equal(t, int64(750), allowance)

		entries, total, err := sut.ListLedgerEntries(context.Background(), ListLedgerEntriesOption{Kind: LedgerEntrySettlement})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.NotNil(t, entries[0].AssetID)
		assert.Equal(t, asset.ID, *entries[0].AssetID)
	})

	t.Run("should check acceptance preconditions in order", func(t *testing.T) {
		// Arrange
		var (
			repo     = newFakeRepo()
			sut      = testUsecase(repo, now)
			owner    = newAccount(t, repo, AccountRoleUser)
			proposer = newAccount(t, repo, AccountRoleUser)
			escrow   = newAccount(t, repo, AccountRoleUser)
			other    = newAccount(t, repo, AccountRoleUser)
			asset    = newAsset(t, repo, owner.ID)
		)
		repo.settings.EscrowAccountID = escrow.ID

		p, err := sut.MakeProposal(asCaller(proposer.ID, proposer.Role), asset.ID, 250)
		require.NoError(t, err)

		// Act / Assert - non-owner fails before funding is even looked at
		_, err = sut.AcceptProposal(asCaller(other.ID, other.Role), p.ID, expiry)
		assert.Equal(t, CodeNotOwner, CodeOf(err))

		// Unfunded proposer: the owner hits the balance check.
		_, err = sut.AcceptProposal(asCaller(owner.ID, owner.Role), p.ID, expiry)
		assert.Equal(t, CodeInsufficientFunds, CodeOf(err))

		// Funded but no allowance for the escrow account.
		require.NoError(t, repo.MintTokens(context.Background(), proposer.ID, 1000))
		_, err = sut.AcceptProposal(asCaller(owner.ID, owner.Role), p.ID, expiry)
		assert.Equal(t, CodeNotAuthorizedSpender, CodeOf(err))

		// Fully funded and authorized: acceptance settles.
		require.NoError(t, sut.Approve(asCaller(proposer.ID, proposer.Role), escrow.ID, 250))
		_, err = sut.AcceptProposal(asCaller(owner.ID, owner.Role), p.ID, expiry)
		require.NoError(t, err)

		// A second acceptance finds the proposal spent.
		_, err = sut.AcceptProposal(asCaller(owner.ID, owner.Role), p.ID, expiry)
		assert.Equal(t, CodeProposalNotActive, CodeOf(err))
	})

	t.Run("should reject acceptance while another rental is active", func(t *testing.T) {
		// Arrange
		var (
			repo     = newFakeRepo()
			sut      = testUsecase(repo, now)
			owner    = newAccount(t, repo, AccountRoleUser)
			proposer = newAccount(t, repo, AccountRoleUser)
			escrow   = newAccount(t, repo, AccountRoleUser)
			sitting  = newAccount(t, repo, AccountRoleUser)
			asset    = newAsset(t, repo, owner.ID)
		)
		repo.settings.EscrowAccountID = escrow.ID
		fund(t, repo, sut, proposer.ID, 1000)
		require.NoError(t, sut.SetAssetUser(asCaller(owner.ID, owner.Role), asset.ID, sitting.ID, now.Add(time.Hour)))

		p, err := sut.MakeProposal(asCaller(proposer.ID, proposer.Role), asset.ID, 250)
		require.NoError(t, err)

		// Act
		_, err = sut.AcceptProposal(asCaller(owner.ID, owner.Role), p.ID, expiry)

		// Assert
		assert.Equal(t, CodeAlreadyRented, CodeOf(err))
	})

	t.Run("should reject an expiry that is not in the future", func(t *testing.T) {
		// Arrange
		var (
			repo     = newFakeRepo()
			sut      = testUsecase(repo, now)
			owner    = newAccount(t, repo, AccountRoleUser)
			proposer = newAccount(t, repo, AccountRoleUser)
			asset    = newAsset(t, repo, owner.ID)
		)
		p, err := sut.MakeProposal(asCaller(proposer.ID, proposer.Role), asset.ID, 250)
		require.NoError(t, err)

		// Act
		_, err = sut.AcceptProposal(asCaller(owner.ID, owner.Role), p.ID, now)

		// Assert
		assert.Equal(t, CodeInvalidInput, CodeOf(err))
	})

	t.Run("should let the current owner accept after a title change", func(t *testing.T) {
		// Arrange - the snapshot goes stale when the asset is sold
		var (
			repo     = newFakeRepo()
			sut      = testUsecase(repo, now)
			seller   = newAccount(t, repo, AccountRoleUser)
			buyer    = newAccount(t, repo, AccountRoleUser)
			proposer = newAccount(t, repo, AccountRoleUser)
			escrow   = newAccount(t, repo, AccountRoleUser)
			asset    = newAsset(t, repo, seller.ID)
		)
		repo.settings.EscrowAccountID = escrow.ID
		fund(t, repo, sut, proposer.ID, 1000)

		p, err := sut.MakeProposal(asCaller(proposer.ID, proposer.Role), asset.ID, 250)
		require.NoError(t, err)
		require.NoError(t, sut.TransferAsset(asCaller(seller.ID, seller.Role), asset.ID, buyer.ID))

		// Act
		_, sellerErr := sut.AcceptProposal(asCaller(seller.ID, seller.Role), p.ID, expiry)
		_, buyerErr := sut.AcceptProposal(asCaller(buyer.ID, buyer.Role), p.ID, expiry)

		// Assert - payment lands with the accepting owner, not the snapshot
		assert.Equal(t, CodeNotOwner, CodeOf(sellerErr))
		require.NoError(t, buyerErr)
		buyerBalance, _ := sut.BalanceOf(context.Background(), buyer.ID)
		assert.Equal(t, int64(250), buyerBalance)
	})
}

func TestCustodySessions(t *testing.T) {
	var (
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		newAccount = func(t *testing.T, repo *fakeRepo, role AccountRole) Account {
			a, err := repo.CreateAccount(context.Background(), Account{Name: "acct", Role: role})
			require.NoError(t, err)
			return a
		}
		newAsset = func(t *testing.T, repo *fakeRepo, owner uuid.UUID) Asset {
			a, err := repo.CreateAsset(context.Background(), Asset{OwnerID: owner})
			require.NoError(t, err)
			return a
		}
	)

	t.Run("should move title to the escrow account on deposit", func(t *testing.T) {
		// Arrange
		var (
			repo   = newFakeRepo()
			sut    = testUsecase(repo, now)
			owner  = newAccount(t, repo, AccountRoleUser)
			escrow = newAccount(t, repo, AccountRoleUser)
			asset  = newAsset(t, repo, owner.ID)
		)
		repo.settings.EscrowAccountID = escrow.ID

		// Act
		session, err := sut.DepositAsset(asCaller(owner.ID, owner.Role), asset.ID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, owner.ID, session.DepositorID)

		held, err := sut.InEscrow(context.Background(), asset.ID)
		require.NoError(t, err)
		assert.True(t, held)

		titleHolder, _ := sut.OwnerOf(context.Background(), asset.ID)
		assert.Equal(t, escrow.ID, titleHolder)
	})

	t.Run("should let the active renter deposit, bypassing the transfer lock", func(t *testing.T) {
		// Arrange
		var (
			repo   = newFakeRepo()
			sut    = testUsecase(repo, now)
			owner  = newAccount(t, repo, AccountRoleUser)
			renter = newAccount(t, repo, AccountRoleUser)
			escrow = newAccount(t, repo, AccountRoleUser)
			asset  = newAsset(t, repo, owner.ID)
		)
		repo.settings.EscrowAccountID = escrow.ID
		require.NoError(t, sut.SetAssetUser(asCaller(owner.ID, owner.Role), asset.ID, renter.ID, now.Add(time.Hour)))

		// Act - the owner is not the effective controller right now
		_, ownerErr := sut.DepositAsset(asCaller(owner.ID, owner.Role), asset.ID)
		session, renterErr := sut.DepositAsset(asCaller(renter.ID, renter.Role), asset.ID)

		// Assert
		assert.Equal(t, CodeNotAuthorizedForSession, CodeOf(ownerErr))
		require.NoError(t, renterErr)
		assert.Equal(t, renter.ID, session.DepositorID)
	})

	t.Run("should reject double deposit", func(t *testing.T) {
		// Arrange
		var (
			repo   = newFakeRepo()
			sut    = testUsecase(repo, now)
			owner  = newAccount(t, repo, AccountRoleUser)
			escrow = newAccount(t, repo, AccountRoleUser)
			asset  = newAsset(t, repo, owner.ID)
		)
		repo.settings.EscrowAccountID = escrow.ID
		_, err := sut.DepositAsset(asCaller(owner.ID, owner.Role), asset.ID)
		require.NoError(t, err)

		// Act - even the escrow account itself cannot re-deposit
		_, err = sut.DepositAsset(asCaller(escrow.ID, AccountRoleUser), asset.ID)

		// Assert
		assert.Equal(t, CodeAlreadyInEscrow, CodeOf(err))
	})

	t.Run("should reject deposit when no escrow account is configured", func(t *testing.T) {
		// Arrange
		var (
			repo  = newFakeRepo()
			sut   = testUsecase(repo, now)
			owner = newAccount(t, repo, AccountRoleUser)
			asset = newAsset(t, repo, owner.ID)
		)

		// Act
		_, err := sut.DepositAsset(asCaller(owner.ID, owner.Role), asset.ID)

		// Assert
		assert.Equal(t, CodeInvalidInput, CodeOf(err))
	})

	t.Run("should award title to the winner on forfeiture", func(t *testing.T) {
		// Arrange
		var (
			repo    = newFakeRepo()
			sut     = testUsecase(repo, now)
			owner   = newAccount(t, repo, AccountRoleUser)
			renter  = newAccount(t, repo, AccountRoleUser)
			escrow  = newAccount(t, repo, AccountRoleUser)
			arbiter = newAccount(t, repo, AccountRoleArbiter)
			asset   = newAsset(t, repo, owner.ID)
		)
		repo.settings.EscrowAccountID = escrow.ID
		require.NoError(t, sut.SetAssetUser(asCaller(owner.ID, owner.Role), asset.ID, renter.ID, now.Add(time.Hour)))
		_, err := sut.DepositAsset(asCaller(renter.ID, renter.Role), asset.ID)
		require.NoError(t, err)

		// Act
		err = sut.ResolveSession(asCaller(arbiter.ID, arbiter.Role), asset.ID, owner.ID)

		// Assert
		require.NoError(t, err)
		titleHolder, _ := sut.OwnerOf(context.Background(), asset.ID)
		assert.Equal(t, owner.ID, titleHolder)

		// The title change killed the rental.
		userID, _ := sut.UserOf(context.Background(), asset.ID)
		assert.Equal(t, uuid.Nil, userID)

		sessions, total, err := sut.ListSessions(context.Background(), ListSessionsOption{AssetID: asset.ID})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		assert.Equal(t, SessionOutcomeForfeited, sessions[0].Outcome)
		require.NotNil(t, sessions[0].WinnerID)
		assert.Equal(t, owner.ID, *sessions[0].WinnerID)
	})

	t.Run("should hand title back to the depositor on release", func(t *testing.T) {
		// Arrange
		var (
			repo    = newFakeRepo()
			sut     = testUsecase(repo, now)
			owner   = newAccount(t, repo, AccountRoleUser)
			escrow  = newAccount(t, repo, AccountRoleUser)
			arbiter = newAccount(t, repo, AccountRoleArbiter)
			asset   = newAsset(t, repo, owner.ID)
		)
		repo.settings.EscrowAccountID = escrow.ID
		_, err := sut.DepositAsset(asCaller(owner.ID, owner.Role), asset.ID)
		require.NoError(t, err)

		// Act
		err = sut.ReleaseSession(asCaller(arbiter.ID, arbiter.Role), asset.ID)

		// Assert
		require.NoError(t, err)
		titleHolder, _ := sut.OwnerOf(context.Background(), asset.ID)
		assert.Equal(t, owner.ID, titleHolder)

		sessions, _, err := sut.ListSessions(context.Background(), ListSessionsOption{AssetID: asset.ID})
		require.NoError(t, err)
		assert.Equal(t, SessionOutcomeReleased, sessions[0].Outcome)
	})

	t.Run("should gate resolution to arbiters", func(t *testing.T) {
		// Arrange
		var (
			repo   = newFakeRepo()
			sut    = testUsecase(repo, now)
			owner  = newAccount(t, repo, AccountRoleUser)
			escrow = newAccount(t, repo, AccountRoleUser)
			admin  = newAccount(t, repo, AccountRoleAdmin)
			asset  = newAsset(t, repo, owner.ID)
		)
		repo.settings.EscrowAccountID = escrow.ID
		_, err := sut.DepositAsset(asCaller(owner.ID, owner.Role), asset.ID)
		require.NoError(t, err)

		// Act - neither plain users nor admins may resolve
		ownerErr := sut.ResolveSession(asCaller(owner.ID, owner.Role), asset.ID, owner.ID)
		adminErr := sut.ResolveSession(asCaller(admin.ID, admin.Role), asset.ID, owner.ID)

		// Assert
		assert.Equal(t, CodeUnauthorized, CodeOf(ownerErr))
		assert.Equal(t, CodeUnauthorized, CodeOf(adminErr))
	})

	t.Run("should reject resolving an asset that is not in custody", func(t *testing.T) {
		// Arrange
		var (
			repo    = newFakeRepo()
			sut     = testUsecase(repo, now)
			owner   = newAccount(t, repo, AccountRoleUser)
			escrow  = newAccount(t, repo, AccountRoleUser)
			arbiter = newAccount(t, repo, AccountRoleArbiter)
			asset   = newAsset(t, repo, owner.ID)
		)
		repo.settings.EscrowAccountID = escrow.ID

		// Act
		err := sut.ResolveSession(asCaller(arbiter.ID, arbiter.Role), asset.ID, owner.ID)

		// Assert
		assert.Equal(t, CodeNotInEscrow, CodeOf(err))
	})
}
