package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetLedger(t *testing.T) {
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

	t.Run("should transfer title when no rental is active", func(t *testing.T) {
		// Arrange
		var (
			repo  = newFakeRepo()
			sut   = testUsecase(repo, now)
			owner = newAccount(t, repo, AccountRoleUser)
			buyer = newAccount(t, repo, AccountRoleUser)
			asset = newAsset(t, repo, owner.ID)
		)

		// Act
		err := sut.TransferAsset(asCaller(owner.ID, owner.Role), asset.ID, buyer.ID)

		// Assert
		require.NoError(t, err)
		newOwner, err := sut.OwnerOf(context.Background(), asset.ID)
		require.NoError(t, err)
		assert.Equal(t, buyer.ID, newOwner)
	})

	t.Run("should lock transfers while a rental is active, even for the owner", func(t *testing.T) {
		// Arrange
		var (
			repo   = newFakeRepo()
			sut    = testUsecase(repo, now)
			owner  = newAccount(t, repo, AccountRoleUser)
			renter = newAccount(t, repo, AccountRoleUser)
			buyer  = newAccount(t, repo, AccountRoleUser)
			asset  = newAsset(t, repo, owner.ID)
		)
		require.NoError(t, sut.SetAssetUser(asCaller(owner.ID, owner.Role), asset.ID, renter.ID, now.Add(time.Hour)))

		// Act
		err := sut.TransferAsset(asCaller(owner.ID, owner.Role), asset.ID, buyer.ID)

		// Assert
		assert.Equal(t, CodeActiveRentalLock, CodeOf(err))
	})

	t.Run("should unlock transfers once the rental lapses", func(t *testing.T) {
		// Arrange
		var (
			repo   = newFakeRepo()
			sut    = testUsecase(repo, now)
			owner  = newAccount(t, repo, AccountRoleUser)
			renter = newAccount(t, repo, AccountRoleUser)
			buyer  = newAccount(t, repo, AccountRoleUser)
			asset  = newAsset(t, repo, owner.ID)
		)
		require.NoError(t, sut.SetAssetUser(asCaller(owner.ID, owner.Role), asset.ID, renter.ID, now.Add(time.Hour)))

		// Act - same data, later clock
		var later = testUsecase(repo, now.Add(2*time.Hour))
		err := later.TransferAsset(asCaller(owner.ID, owner.Role), asset.ID, buyer.ID)

		// Assert
		require.NoError(t, err)
	})

	t.Run("should let an approved operator transfer", func(t *testing.T) {
		// Arrange
		var (
			repo     = newFakeRepo()
			sut      = testUsecase(repo, now)
			owner    = newAccount(t, repo, AccountRoleUser)
			operator = newAccount(t, repo, AccountRoleUser)
			buyer    = newAccount(t, repo, AccountRoleUser)
			asset    = newAsset(t, repo, owner.ID)
		)
		require.NoError(t, sut.ApproveOperator(asCaller(owner.ID, owner.Role), asset.ID, operator.ID))

		// Act
		err := sut.TransferAsset(asCaller(operator.ID, operator.Role), asset.ID, buyer.ID)

		// Assert
		require.NoError(t, err)

		// Approval does not survive the transfer.
		transferred, err := sut.GetAssetByID(context.Background(), asset.ID)
		require.NoError(t, err)
		assert.Nil(t, transferred.OperatorID)
	})

	t.Run("should reject transfer from an unapproved caller", func(t *testing.T) {
		// Arrange
		var (
			repo     = newFakeRepo()
			sut      = testUsecase(repo, now)
			owner    = newAccount(t, repo, AccountRoleUser)
			stranger = newAccount(t, repo, AccountRoleUser)
			asset    = newAsset(t, repo, owner.ID)
		)

		// Act
		err := sut.TransferAsset(asCaller(stranger.ID, stranger.Role), asset.ID, stranger.ID)

		// Assert
		assert.Equal(t, CodeUnauthorized, CodeOf(err))
	})

	t.Run("should gate operator approval to the owner", func(t *testing.T) {
		// Arrange
		var (
			repo     = newFakeRepo()
			sut      = testUsecase(repo, now)
			owner    = newAccount(t, repo, AccountRoleUser)
			stranger = newAccount(t, repo, AccountRoleUser)
			asset    = newAsset(t, repo, owner.ID)
		)

		// Act
		err := sut.ApproveOperator(asCaller(stranger.ID, stranger.Role), asset.ID, stranger.ID)

		// Assert
		assert.Equal(t, CodeNotOwner, CodeOf(err))
	})

	t.Run("should resolve the renter as effective controller while active", func(t *testing.T) {
		// Arrange
		var (
			repo   = newFakeRepo()
			sut    = testUsecase(repo, now)
			owner  = newAccount(t, repo, AccountRoleUser)
			renter = newAccount(t, repo, AccountRoleUser)
			asset  = newAsset(t, repo, owner.ID)
		)
		require.NoError(t, sut.SetAssetUser(asCaller(owner.ID, owner.Role), asset.ID, renter.ID, now.Add(time.Hour)))

		// Act
		active, err := sut.EffectiveController(context.Background(), asset.ID)
		require.NoError(t, err)

		var later = testUsecase(repo, now.Add(2*time.Hour))
		lapsed, err := later.EffectiveController(context.Background(), asset.ID)
		require.NoError(t, err)

		// Assert
		assert.Equal(t, ControllerUser, active.Kind)
		assert.Equal(t, renter.ID, active.AccountID)
		assert.Equal(t, ControllerOwner, lapsed.Kind)
		assert.Equal(t, owner.ID, lapsed.AccountID)
	})

	t.Run("should dispatch gated actions to the effective controller only", func(t *testing.T) {
		// Arrange
		var (
			repo   = newFakeRepo()
			sut    = testUsecase(repo, now)
			owner  = newAccount(t, repo, AccountRoleUser)
			renter = newAccount(t, repo, AccountRoleUser)
			asset  = newAsset(t, repo, owner.ID)
		)
		require.NoError(t, sut.SetAssetUser(asCaller(owner.ID, owner.Role), asset.ID, renter.ID, now.Add(time.Hour)))

		// Act - the owner is locked out while the rental is active
		_, ownerErr := sut.InvokeAssetAction(asCaller(owner.ID, owner.Role), asset.ID, "play", nil)
		event, renterErr := sut.InvokeAssetAction(asCaller(renter.ID, renter.Role), asset.ID, "play", nil)

		// Assert
		assert.Equal(t, CodeNotAuthorized, CodeOf(ownerErr))
		require.NoError(t, renterErr)
		assert.Equal(t, ControllerUser, event.ActorKind)
		assert.Equal(t, renter.ID, event.ActorID)
	})

	t.Run("should hand the action right back to the owner after expiry", func(t *testing.T) {
		// Arrange
		var (
			repo   = newFakeRepo()
			sut    = testUsecase(repo, now)
			owner  = newAccount(t, repo, AccountRoleUser)
			renter = newAccount(t, repo, AccountRoleUser)
			asset  = newAsset(t, repo, owner.ID)
		)
		require.NoError(t, sut.SetAssetUser(asCaller(owner.ID, owner.Role), asset.ID, renter.ID, now.Add(time.Hour)))

		// Act
		var later = testUsecase(repo, now.Add(2*time.Hour))
		_, renterErr := later.InvokeAssetAction(asCaller(renter.ID, renter.Role), asset.ID, "play", nil)
		event, ownerErr := later.InvokeAssetAction(asCaller(owner.ID, owner.Role), asset.ID, "play", nil)

		// Assert
		assert.Equal(t, CodeNotAuthorized, CodeOf(renterErr))
		require.NoError(t, ownerErr)
		assert.Equal(t, ControllerOwner, event.ActorKind)
	})

	t.Run("should count assets per owner", func(t *testing.T) {
		// Arrange
		var (
			repo  = newFakeRepo()
			sut   = testUsecase(repo, now)
			owner = newAccount(t, repo, AccountRoleUser)
			other = newAccount(t, repo, AccountRoleUser)
		)
		newAsset(t, repo, owner.ID)
		newAsset(t, repo, owner.ID)
		newAsset(t, repo, other.ID)

		// Act
		count, err := sut.AssetBalanceOf(context.Background(), owner.ID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("should report supported capability sets", func(t *testing.T) {
		// Arrange
		var sut = testUsecase(newFakeRepo(), now)

		// Assert
		assert.True(t, sut.SupportsCapabilitySet(CapabilityIntrospection))
		assert.True(t, sut.SupportsCapabilitySet(CapabilityOwnership))
		assert.True(t, sut.SupportsCapabilitySet(CapabilityDelegatedUse))
		assert.False(t, sut.SupportsCapabilitySet("0xffffffff"))
		assert.False(t, sut.SupportsCapabilitySet(""))
	})
}
