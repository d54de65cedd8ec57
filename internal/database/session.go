package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/assetlease/assetlease/internal/usecase"
)

type Session struct {
	ID          uuid.UUID  `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	AssetID     int64      `gorm:"column:asset_id;not null;index"`
	DepositorID uuid.UUID  `gorm:"column:depositor_id;type:uuid;not null"`
	DepositedAt time.Time  `gorm:"column:deposited_at;default:now()"`
	ResolvedAt  *time.Time `gorm:"column:resolved_at"`
	Outcome     string     `gorm:"column:outcome;type:varchar(20)"`
	WinnerID    *uuid.UUID `gorm:"column:winner_id;type:uuid"`
}

func (Session) TableName() string {
	return "sessions"
}

func (c Session) ConvertToUsecase() usecase.Session {
	return usecase.Session{
		ID:          c.ID,
		AssetID:     c.AssetID,
		DepositorID: c.DepositorID,
		DepositedAt: c.DepositedAt,
		ResolvedAt:  c.ResolvedAt,
		Outcome:     usecase.SessionOutcome(c.Outcome),
		WinnerID:    c.WinnerID,
	}
}

func (s *service) CreateSession(ctx context.Context, c usecase.Session) (usecase.Session, error) {
	session := Session{
		AssetID:     c.AssetID,
		DepositorID: c.DepositorID,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return usecase.Session{}, err
	}
	return session.ConvertToUsecase(), nil
}

func (s *service) GetOpenSession(ctx context.Context, assetID int64) (usecase.Session, error) {
	var c Session
	err := s.db.WithContext(ctx).
		Where("asset_id = ? AND resolved_at IS NULL", assetID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usecase.Session{}, usecase.ErrNotInEscrow
	}
	if err != nil {
		return usecase.Session{}, err
	}
	return c.ConvertToUsecase(), nil
}

// ResolveSession closes a custody session and applies its outcome:
// title to the winner, rental cleared, all in one transaction.
func (s *service) ResolveSession(ctx context.Context, opt usecase.ResolveSessionOption) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&Session{}).
			Where("id = ? AND resolved_at IS NULL", opt.SessionID).
			Updates(map[string]any{
				"resolved_at": now,
				"outcome":     string(opt.Outcome),
				"winner_id":   opt.WinnerID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return usecase.ErrNotInEscrow
		}

		upd := tx.Model(&Asset{}).
			Where("id = ?", opt.AssetID).
			Updates(map[string]any{
				"owner_id":    opt.WinnerID,
				"operator_id": nil,
			})
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return usecase.ErrNotFoundf("asset not found")
		}

		return clearRentalTx(tx, opt.AssetID)
	})
}

func (s *service) ListSessions(ctx context.Context, opt usecase.ListSessionsOption) ([]usecase.Session, int, error) {
	var (
		sessions []Session
		count    int64
	)

	db := s.db.Model([]Session{}).WithContext(ctx)

	if opt.AssetID != 0 {
		db = db.Where("asset_id = ?", opt.AssetID)
	}
	if opt.OpenOnly {
		db = db.Where("resolved_at IS NULL")
	}

	err := db.
		Count(&count).
		Order("deposited_at desc").
		Limit(opt.Limit).
		Offset(opt.Skip).
		Find(&sessions).
		Error
	if err != nil {
		return nil, 0, err
	}

	list := make([]usecase.Session, 0, len(sessions))
	for _, c := range sessions {
		list = append(list, c.ConvertToUsecase())
	}
	return list, int(count), nil
}
