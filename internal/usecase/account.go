package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/assetlease/assetlease/internal/config"
)

type AccountRole string

const (
	AccountRoleUser    AccountRole = "USER"
	AccountRoleAdmin   AccountRole = "ADMIN"
	AccountRoleArbiter AccountRole = "ARBITER"
)

type Account struct {
	ID        uuid.UUID
	Name      string
	Role      AccountRole
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type ListAccountsOption struct {
	Skip   int
	Limit  int
	SortBy string
	SortIn string

	Name string
	Role AccountRole
}

func (u Usecase) RegisterAccount(ctx context.Context, a Account) (Account, error) {
	if a.Name == "" {
		return Account{}, ErrInvalidInputf("account name is required")
	}
	if a.Role == "" {
		a.Role = AccountRoleUser
	}
	return u.repo.CreateAccount(ctx, a)
}

func (u Usecase) GetAccountByID(ctx context.Context, id uuid.UUID) (Account, error) {
	return u.repo.GetAccountByID(ctx, id)
}

func (u Usecase) ListAccounts(ctx context.Context, opt ListAccountsOption) ([]Account, int, error) {
	return u.repo.ListAccounts(ctx, opt)
}

// GetMe returns the account resolved by the auth middleware.
func (u Usecase) GetMe(ctx context.Context) (Account, error) {
	callerID, _, err := callerFromContext(ctx)
	if err != nil {
		return Account{}, err
	}
	return u.repo.GetAccountByID(ctx, callerID)
}

// callerFromContext reads the authenticated account id and role the
// middleware stuffed into the request context.
func callerFromContext(ctx context.Context) (uuid.UUID, AccountRole, error) {
	callerID, ok := ctx.Value(config.CTX_KEY_USER_ID).(uuid.UUID)
	if !ok {
		return uuid.Nil, "", ErrUnauthorized
	}
	role, ok := ctx.Value(config.CTX_KEY_USER_ROLE).(AccountRole)
	if !ok {
		return uuid.Nil, "", ErrUnauthorized
	}
	return callerID, role, nil
}
