package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/assetlease/assetlease/internal/usecase"
)

type Allowance struct {
	OwnerID   uuid.UUID `gorm:"column:owner_id;primaryKey;type:uuid"`
	SpenderID uuid.UUID `gorm:"column:spender_id;primaryKey;type:uuid"`
	Amount    int64     `gorm:"column:amount;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Allowance) TableName() string {
	return "allowances"
}

type LedgerEntry struct {
	ID        uuid.UUID  `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	Kind      string     `gorm:"column:kind;type:varchar(20);not null;index"`
	FromID    *uuid.UUID `gorm:"column:from_id;type:uuid;index"`
	ToID      uuid.UUID  `gorm:"column:to_id;type:uuid;index"`
	Amount    int64      `gorm:"column:amount;not null"`
	AssetID   *int64     `gorm:"column:asset_id"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

func (e LedgerEntry) ConvertToUsecase() usecase.LedgerEntry {
	return usecase.LedgerEntry{
		ID:        e.ID,
		Kind:      usecase.LedgerEntryKind(e.Kind),
		FromID:    e.FromID,
		ToID:      e.ToID,
		Amount:    e.Amount,
		AssetID:   e.AssetID,
		CreatedAt: e.CreatedAt,
	}
}

func (s *service) MintTokens(ctx context.Context, to uuid.UUID, amount int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Account{}).
			Where("id = ?", to).
			Update("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return usecase.ErrNotFoundf("account not found")
		}
		return tx.Create(&LedgerEntry{
			Kind:   string(usecase.LedgerEntryMint),
			ToID:   to,
			Amount: amount,
		}).Error
	})
}

func (s *service) SetAllowance(ctx context.Context, owner, spender uuid.UUID, amount int64) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "spender_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).
		Create(&Allowance{
			OwnerID:   owner,
			SpenderID: spender,
			Amount:    amount,
		}).Error
}

func (s *service) GetAllowance(ctx context.Context, owner, spender uuid.UUID) (int64, error) {
	var a Allowance
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND spender_id = ?", owner, spender).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return a.Amount, nil
}

// TransferTokens moves balance between accounts in one transaction,
// optionally consuming a spender allowance. Balance and allowance
// checks happen inside the transaction so concurrent settlements
// cannot double-spend.
func (s *service) TransferTokens(ctx context.Context, opt usecase.TransferTokensOption) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return transferTokensTx(tx, opt)
	})
}

func transferTokensTx(tx *gorm.DB, opt usecase.TransferTokensOption) error {
	if opt.SpenderID != nil {
		res := tx.Model(&Allowance{}).
			Where("owner_id = ? AND spender_id = ? AND amount >= ?", opt.From, *opt.SpenderID, opt.Amount).
			Update("amount", gorm.Expr("amount - ?", opt.Amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return usecase.ErrNotAuthorizedSpender
		}
	}

	res := tx.Model(&Account{}).
		Where("id = ? AND balance >= ?", opt.From, opt.Amount).
		Update("balance", gorm.Expr("balance - ?", opt.Amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrInsufficientFunds
	}

	res = tx.Model(&Account{}).
		Where("id = ?", opt.To).
		Update("balance", gorm.Expr("balance + ?", opt.Amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrNotFoundf("recipient account not found")
	}

	from := opt.From
	return tx.Create(&LedgerEntry{
		Kind:    string(opt.Kind),
		FromID:  &from,
		ToID:    opt.To,
		Amount:  opt.Amount,
		AssetID: opt.AssetID,
	}).Error
}

func (s *service) ListLedgerEntries(ctx context.Context, opt usecase.ListLedgerEntriesOption) ([]usecase.LedgerEntry, int, error) {
	var (
		entries []LedgerEntry
		count   int64
	)

	db := s.db.Model([]LedgerEntry{}).WithContext(ctx)

	if opt.AccountID != uuid.Nil {
		db = db.Where("from_id = ? OR to_id = ?", opt.AccountID, opt.AccountID)
	}
	if opt.Kind != "" {
		db = db.Where("kind = ?", string(opt.Kind))
	}

	err := db.
		Count(&count).
		Order("created_at desc").
		Limit(opt.Limit).
		Offset(opt.Skip).
		Find(&entries).
		Error
	if err != nil {
		return nil, 0, err
	}

	list := make([]usecase.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		list = append(list, e.ConvertToUsecase())
	}
	return list, int(count), nil
}
