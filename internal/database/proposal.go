package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/assetlease/assetlease/internal/usecase"
)

type Proposal struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	AssetID       int64     `gorm:"column:asset_id;not null;index"`
	Asset         *Asset    `gorm:"foreignKey:AssetID;references:ID"`
	ProposerID    uuid.UUID `gorm:"column:proposer_id;type:uuid;not null;index"`
	Proposer      *Account  `gorm:"foreignKey:ProposerID;references:ID"`
	OwnerSnapshot uuid.UUID `gorm:"column:owner_snapshot;type:uuid;not null"`
	Amount        int64     `gorm:"column:amount;not null"`
	Active        bool      `gorm:"column:active;not null;default:true;index"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (Proposal) TableName() string {
	return "proposals"
}

func (p Proposal) ConvertToUsecase() usecase.Proposal {
	return usecase.Proposal{
		ID:            p.ID,
		AssetID:       p.AssetID,
		ProposerID:    p.ProposerID,
		OwnerSnapshot: p.OwnerSnapshot,
		Amount:        p.Amount,
		Active:        p.Active,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (s *service) CreateProposal(ctx context.Context, p usecase.Proposal) (usecase.Proposal, error) {
	proposal := Proposal{
		AssetID:       p.AssetID,
		ProposerID:    p.ProposerID,
		OwnerSnapshot: p.OwnerSnapshot,
		Amount:        p.Amount,
		Active:        p.Active,
	}
	if err := s.db.WithContext(ctx).Create(&proposal).Error; err != nil {
		return usecase.Proposal{}, err
	}
	return proposal.ConvertToUsecase(), nil
}

func (s *service) GetProposalByID(ctx context.Context, id int64) (usecase.Proposal, error) {
	var p Proposal
	err := s.db.WithContext(ctx).
		Preload("Proposer").
		Where("id = ?", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usecase.Proposal{}, usecase.ErrNotFoundf("proposal not found")
	}
	if err != nil {
		return usecase.Proposal{}, err
	}

	up := p.ConvertToUsecase()
	if p.Proposer != nil {
		proposer := p.Proposer.ConvertToUsecase()
		up.Proposer = &proposer
	}
	return up, nil
}

func (s *service) ListProposals(ctx context.Context, opt usecase.ListProposalsOption) ([]usecase.Proposal, int, error) {
	var (
		proposals []Proposal
		count     int64
	)

	db := s.db.Model([]Proposal{}).WithContext(ctx)

	if opt.AssetID != 0 {
		db = db.Where("asset_id = ?", opt.AssetID)
	}
	if opt.ProposerID != uuid.Nil {
		db = db.Where("proposer_id = ?", opt.ProposerID)
	}
	if opt.ActiveOnly {
		db = db.Where("active = TRUE")
	}

	sortBy := "id"
	if opt.SortBy != "" {
		sortBy = opt.SortBy
	}
	sortIn := "desc"
	if opt.SortIn != "" {
		sortIn = opt.SortIn
	}

	err := db.
		Preload("Proposer").
		Count(&count).
		Order(sortBy + " " + sortIn).
		Limit(opt.Limit).
		Offset(opt.Skip).
		Find(&proposals).
		Error
	if err != nil {
		return nil, 0, err
	}

	list := make([]usecase.Proposal, 0, len(proposals))
	for _, p := range proposals {
		up := p.ConvertToUsecase()
		if p.Proposer != nil {
			proposer := p.Proposer.ConvertToUsecase()
			up.Proposer = &proposer
		}
		list = append(list, up)
	}
	return list, int(count), nil
}

func (s *service) DeactivateProposal(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).
		Model(&Proposal{}).
		Where("id = ? AND active = TRUE", id).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrProposalNotActive
	}
	return nil
}

// SettleProposal performs acceptance as one transaction. The proposal
// is deactivated first: once that row is claimed nothing else can
// settle it, so a failure anywhere later rolls everything back and a
// concurrent acceptance of the same proposal loses cleanly.
func (s *service) SettleProposal(ctx context.Context, opt usecase.SettleProposalOption) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Proposal{}).
			Where("id = ? AND active = TRUE", opt.ProposalID).
			Update("active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return usecase.ErrProposalNotActive
		}

		spender := opt.Spender
		assetID := opt.AssetID
		if err := transferTokensTx(tx, usecase.TransferTokensOption{
			From:      opt.Payer,
			To:        opt.Payee,
			Amount:    opt.Amount,
			Kind:      usecase.LedgerEntrySettlement,
			SpenderID: &spender,
			AssetID:   &assetID,
		}); err != nil {
			return err
		}

		return setRentalTx(tx, usecase.Rental{
			AssetID:   opt.AssetID,
			UserID:    opt.UserID,
			ExpiresAt: opt.ExpiresAt,
		})
	})
}
