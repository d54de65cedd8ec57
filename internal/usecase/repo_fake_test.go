package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// fakeRepo is an in-memory Repository with the same semantics the
// postgres store guarantees, so the domain layer can be tested
// without a database.
type fakeRepo struct {
	mu sync.Mutex

	accounts   map[uuid.UUID]Account
	allowances map[[2]uuid.UUID]int64
	ledger     []LedgerEntry

	assets      map[int64]Asset
	nextAssetID int64
	rentals     map[int64]Rental

	proposals      map[int64]Proposal
	nextProposalID int64
	sessions       map[uuid.UUID]Session

	settings Settings

	events        []AssetEvent
	notifications []Notification
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		accounts:   make(map[uuid.UUID]Account),
		allowances: make(map[[2]uuid.UUID]int64),
		assets:     make(map[int64]Asset),
		rentals:    make(map[int64]Rental),
		proposals:  make(map[int64]Proposal),
		sessions:   make(map[uuid.UUID]Session),
	}
}

func (f *fakeRepo) Health() map[string]string { return map[string]string{"status": "up"} }
func (f *fakeRepo) Close() error              { return nil }

func (f *fakeRepo) CreateAccount(_ context.Context, a Account) (Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.accounts[a.ID] = a
	return a, nil
}

func (f *fakeRepo) GetAccountByID(_ context.Context, id uuid.UUID) (Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return Account{}, ErrNotFoundf("account not found")
	}
	return a, nil
}

func (f *fakeRepo) ListAccounts(_ context.Context, opt ListAccountsOption) ([]Account, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []Account
	for _, a := range f.accounts {
		if opt.Role != "" && a.Role != opt.Role {
			continue
		}
		list = append(list, a)
	}
	return list, len(list), nil
}

func (f *fakeRepo) UpdateAccountRole(_ context.Context, id uuid.UUID, role AccountRole) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return ErrNotFoundf("account not found")
	}
	a.Role = role
	f.accounts[id] = a
	return nil
}

func (f *fakeRepo) MintTokens(_ context.Context, to uuid.UUID, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[to]
	if !ok {
		return ErrNotFoundf("account not found")
	}
	a.Balance += amount
	f.accounts[to] = a
	f.ledger = append(f.ledger, LedgerEntry{
		ID:     uuid.New(),
		Kind:   LedgerEntryMint,
		ToID:   to,
		Amount: amount,
	})
	return nil
}

func (f *fakeRepo) SetAllowance(_ context.Context, owner, spender uuid.UUID, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allowances[[2]uuid.UUID{owner, spender}] = amount
	return nil
}

func (f *fakeRepo) GetAllowance(_ context.Context, owner, spender uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allowances[[2]uuid.UUID{owner, spender}], nil
}

func (f *fakeRepo) TransferTokens(_ context.Context, opt TransferTokensOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transferTokensLocked(opt)
}

func (f *fakeRepo) transferTokensLocked(opt TransferTokensOption) error {
	if opt.SpenderID != nil {
		key := [2]uuid.UUID{opt.From, *opt.SpenderID}
		if f.allowances[key] < opt.Amount {
			return ErrNotAuthorizedSpender
		}
		f.allowances[key] -= opt.Amount
	}
	from, ok := f.accounts[opt.From]
	if !ok {
		return ErrNotFoundf("account not found")
	}
	if from.Balance < opt.Amount {
		return ErrInsufficientFunds
	}
	to, ok := f.accounts[opt.To]
	if !ok {
		return ErrNotFoundf("account not found")
	}
	from.Balance -= opt.Amount
	to.Balance += opt.Amount
	f.accounts[opt.From] = from
	f.accounts[opt.To] = to

	fromID := opt.From
	f.ledger = append(f.ledger, LedgerEntry{
		ID:      uuid.New(),
		Kind:    opt.Kind,
		FromID:  &fromID,
		ToID:    opt.To,
		Amount:  opt.Amount,
		AssetID: opt.AssetID,
	})
	return nil
}

func (f *fakeRepo) ListLedgerEntries(_ context.Context, opt ListLedgerEntriesOption) ([]LedgerEntry, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []LedgerEntry
	for _, e := range f.ledger {
		if opt.Kind != "" && e.Kind != opt.Kind {
			continue
		}
		if opt.AccountID != uuid.Nil && e.ToID != opt.AccountID &&
			(e.FromID == nil || *e.FromID != opt.AccountID) {
			continue
		}
		list = append(list, e)
	}
	return list, len(list), nil
}

func (f *fakeRepo) CreateAsset(_ context.Context, a Asset) (Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextAssetID++
	a.ID = f.nextAssetID
	f.assets[a.ID] = a
	return a, nil
}

func (f *fakeRepo) GetAssetByID(_ context.Context, id int64) (Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[id]
	if !ok {
		return Asset{}, ErrNotFoundf("asset not found")
	}
	return a, nil
}

func (f *fakeRepo) ListAssets(_ context.Context, opt ListAssetsOption) ([]Asset, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []Asset
	for _, a := range f.assets {
		if opt.OwnerID != uuid.Nil && a.OwnerID != opt.OwnerID {
			continue
		}
		list = append(list, a)
	}
	return list, len(list), nil
}

func (f *fakeRepo) CountAssets(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.assets), nil
}

func (f *fakeRepo) CountAssetsByOwner(_ context.Context, ownerID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for _, a := range f.assets {
		if a.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) SetAssetOperator(_ context.Context, assetID int64, operatorID *uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[assetID]
	if !ok {
		return ErrNotFoundf("asset not found")
	}
	a.OperatorID = operatorID
	f.assets[assetID] = a
	return nil
}

func (f *fakeRepo) TransferAsset(_ context.Context, opt TransferAssetOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[opt.AssetID]
	if !ok {
		return ErrNotFoundf("asset not found")
	}
	a.OwnerID = opt.To
	a.OperatorID = nil
	f.assets[opt.AssetID] = a
	if opt.ClearRental {
		delete(f.rentals, opt.AssetID)
	}
	return nil
}

func (f *fakeRepo) GetRental(_ context.Context, assetID int64) (Rental, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rentals[assetID]
	if !ok {
		return Rental{AssetID: assetID}, nil
	}
	return r, nil
}

func (f *fakeRepo) SetRental(_ context.Context, r Rental) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rentals[r.AssetID] = r
	return nil
}

func (f *fakeRepo) ListExpiringRentals(_ context.Context, from, to time.Time) ([]Rental, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []Rental
	for _, r := range f.rentals {
		if r.UserID != uuid.Nil && r.ExpiresAt.After(from) && !r.ExpiresAt.After(to) {
			list = append(list, r)
		}
	}
	return list, nil
}

func (f *fakeRepo) CreateProposal(_ context.Context, p Proposal) (Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextProposalID++
	p.ID = f.nextProposalID
	f.proposals[p.ID] = p
	return p, nil
}

func (f *fakeRepo) GetProposalByID(_ context.Context, id int64) (Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.proposals[id]
	if !ok {
		return Proposal{}, ErrNotFoundf("proposal not found")
	}
	return p, nil
}

func (f *fakeRepo) ListProposals(_ context.Context, opt ListProposalsOption) ([]Proposal, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []Proposal
	for _, p := range f.proposals {
		if opt.AssetID != 0 && p.AssetID != opt.AssetID {
			continue
		}
		if opt.ProposerID != uuid.Nil && p.ProposerID != opt.ProposerID {
			continue
		}
		if opt.ActiveOnly && !p.Active {
			continue
		}
		list = append(list, p)
	}
	return list, len(list), nil
}

func (f *fakeRepo) DeactivateProposal(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deactivateProposalLocked(id)
}

func (f *fakeRepo) deactivateProposalLocked(id int64) error {
	p, ok := f.proposals[id]
	if !ok || !p.Active {
		return ErrProposalNotActive
	}
	p.Active = false
	f.proposals[id] = p
	return nil
}

func (f *fakeRepo) SettleProposal(_ context.Context, opt SettleProposalOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deactivateProposalLocked(opt.ProposalID); err != nil {
		return err
	}
	spender := opt.Spender
	assetID := opt.AssetID
	if err := f.transferTokensLocked(TransferTokensOption{
		From:      opt.Payer,
		To:        opt.Payee,
		Amount:    opt.Amount,
		Kind:      LedgerEntrySettlement,
		SpenderID: &spender,
		AssetID:   &assetID,
	}); err != nil {
		return err
	}
	f.rentals[opt.AssetID] = Rental{
		AssetID:   opt.AssetID,
		UserID:    opt.UserID,
		ExpiresAt: opt.ExpiresAt,
	}
	return nil
}

func (f *fakeRepo) CreateSession(_ context.Context, s Session) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = uuid.New()
	s.DepositedAt = time.Now()
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeRepo) GetOpenSession(_ context.Context, assetID int64) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.AssetID == assetID && s.ResolvedAt == nil {
			return s, nil
		}
	}
	return Session{}, ErrNotInEscrow
}

func (f *fakeRepo) ResolveSession(_ context.Context, opt ResolveSessionOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[opt.SessionID]
	if !ok || s.ResolvedAt != nil {
		return ErrNotInEscrow
	}
	now := time.Now()
	winner := opt.WinnerID
	s.ResolvedAt = &now
	s.Outcome = opt.Outcome
	s.WinnerID = &winner
	f.sessions[opt.SessionID] = s

	a, ok := f.assets[opt.AssetID]
	if !ok {
		return ErrNotFoundf("asset not found")
	}
	a.OwnerID = opt.WinnerID
	a.OperatorID = nil
	f.assets[opt.AssetID] = a
	delete(f.rentals, opt.AssetID)
	return nil
}

func (f *fakeRepo) ListSessions(_ context.Context, opt ListSessionsOption) ([]Session, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []Session
	for _, s := range f.sessions {
		if opt.AssetID != 0 && s.AssetID != opt.AssetID {
			continue
		}
		if opt.OpenOnly && s.ResolvedAt != nil {
			continue
		}
		list = append(list, s)
	}
	return list, len(list), nil
}

func (f *fakeRepo) GetSettings(_ context.Context) (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings, nil
}

func (f *fakeRepo) UpdateSettings(_ context.Context, s Settings) (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = s
	return s, nil
}

func (f *fakeRepo) CreateAssetEvent(_ context.Context, e AssetEvent) (AssetEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	f.events = append(f.events, e)
	return e, nil
}

func (f *fakeRepo) ListAssetEvents(_ context.Context, opt ListAssetEventsOption) ([]AssetEvent, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []AssetEvent
	for _, e := range f.events {
		if opt.AssetID != 0 && e.AssetID != opt.AssetID {
			continue
		}
		if opt.ActorID != uuid.Nil && e.ActorID != opt.ActorID {
			continue
		}
		list = append(list, e)
	}
	return list, len(list), nil
}

func (f *fakeRepo) CreateNotification(_ context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeRepo) ListNotifications(_ context.Context, opt ListNotificationsOption) ([]Notification, int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []Notification
	var unread int
	for _, n := range f.notifications {
		if opt.UserID != uuid.Nil && n.UserID != opt.UserID {
			continue
		}
		if n.ReadAt == nil {
			unread++
		}
		list = append(list, n)
	}
	return list, unread, len(list), nil
}

func (f *fakeRepo) ReadNotification(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for i, n := range f.notifications {
		if n.ID == id {
			f.notifications[i].ReadAt = &now
			return nil
		}
	}
	return ErrNotFoundf("notification not found")
}

func (f *fakeRepo) ReadAllNotifications(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for i, n := range f.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			f.notifications[i].ReadAt = &now
		}
	}
	return nil
}

func (f *fakeRepo) SubscribeNotifications(_ context.Context, _ chan<- Notification) error {
	return nil
}

func (f *fakeRepo) UnsubscribeNotifications(_ context.Context, _ chan<- Notification) error {
	return nil
}
