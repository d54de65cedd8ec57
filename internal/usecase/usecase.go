package usecase

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/assetlease/assetlease/internal/config"
)

// DefaultMaxSupply caps minting when ASSET_MAX_SUPPLY is not set.
const DefaultMaxSupply = 100

// Repository is the storage boundary. Multi-write operations
// (settlement, custody resolution) are single repository calls so the
// store can make them atomic.
type Repository interface {
	Health() map[string]string
	Close() error

	CreateAccount(context.Context, Account) (Account, error)
	GetAccountByID(context.Context, uuid.UUID) (Account, error)
	ListAccounts(context.Context, ListAccountsOption) ([]Account, int, error)
	UpdateAccountRole(context.Context, uuid.UUID, AccountRole) error

	MintTokens(ctx context.Context, to uuid.UUID, amount int64) error
	SetAllowance(ctx context.Context, owner, spender uuid.UUID, amount int64) error
	GetAllowance(ctx context.Context, owner, spender uuid.UUID) (int64, error)
	TransferTokens(context.Context, TransferTokensOption) error
	ListLedgerEntries(context.Context, ListLedgerEntriesOption) ([]LedgerEntry, int, error)

	CreateAsset(context.Context, Asset) (Asset, error)
	GetAssetByID(context.Context, int64) (Asset, error)
	ListAssets(context.Context, ListAssetsOption) ([]Asset, int, error)
	CountAssets(context.Context) (int, error)
	CountAssetsByOwner(context.Context, uuid.UUID) (int, error)
	SetAssetOperator(ctx context.Context, assetID int64, operatorID *uuid.UUID) error
	TransferAsset(context.Context, TransferAssetOption) error

	GetRental(ctx context.Context, assetID int64) (Rental, error)
	SetRental(context.Context, Rental) error
	ListExpiringRentals(ctx context.Context, from, to time.Time) ([]Rental, error)

	CreateProposal(context.Context, Proposal) (Proposal, error)
	GetProposalByID(context.Context, int64) (Proposal, error)
	ListProposals(context.Context, ListProposalsOption) ([]Proposal, int, error)
	DeactivateProposal(context.Context, int64) error
	SettleProposal(context.Context, SettleProposalOption) error

	CreateSession(context.Context, Session) (Session, error)
	GetOpenSession(ctx context.Context, assetID int64) (Session, error)
	ResolveSession(context.Context, ResolveSessionOption) error
	ListSessions(context.Context, ListSessionsOption) ([]Session, int, error)

	GetSettings(context.Context) (Settings, error)
	UpdateSettings(context.Context, Settings) (Settings, error)

	CreateAssetEvent(context.Context, AssetEvent) (AssetEvent, error)
	ListAssetEvents(context.Context, ListAssetEventsOption) ([]AssetEvent, int, error)

	CreateNotification(context.Context, Notification) error
	ListNotifications(context.Context, ListNotificationsOption) ([]Notification, int, int, error)
	ReadNotification(context.Context, uuid.UUID) error
	ReadAllNotifications(context.Context, uuid.UUID) error
	SubscribeNotifications(context.Context, chan<- Notification) error
	UnsubscribeNotifications(context.Context, chan<- Notification) error
}

type Usecase struct {
	repo Repository

	now              func() time.Time
	maxSupply        int
	fixedBeneficiary uuid.UUID
}

func New(repo Repository) Usecase {
	maxSupply := DefaultMaxSupply
	if v, err := strconv.Atoi(os.Getenv(config.ENV_KEY_ASSET_MAX_SUPPLY)); err == nil && v > 0 {
		maxSupply = v
	}
	beneficiary, _ := uuid.Parse(os.Getenv(config.ENV_KEY_FIXED_BENEFICIARY_ID))

	return Usecase{
		repo:             repo,
		now:              time.Now,
		maxSupply:        maxSupply,
		fixedBeneficiary: beneficiary,
	}
}

func (u Usecase) Health() map[string]string {
	return u.repo.Health()
}

func (u Usecase) Close() error {
	return u.repo.Close()
}
