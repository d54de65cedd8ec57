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

// Rental keys on the asset id: there is exactly one (user, expiresAt)
// pair per asset. Expired rows are kept as-is; activity is computed
// at read time, never written back.
type Rental struct {
	AssetID   int64     `gorm:"column:asset_id;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	User      *Account  `gorm:"foreignKey:UserID;references:ID"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Rental) TableName() string {
	return "rentals"
}

func (r Rental) ConvertToUsecase() usecase.Rental {
	return usecase.Rental{
		AssetID:   r.AssetID,
		UserID:    r.UserID,
		ExpiresAt: r.ExpiresAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// GetRental returns the zero rental when no row exists; a zero UserID
// means no user was ever assigned.
func (s *service) GetRental(ctx context.Context, assetID int64) (usecase.Rental, error) {
	var r Rental
	err := s.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usecase.Rental{AssetID: assetID}, nil
	}
	if err != nil {
		return usecase.Rental{}, err
	}
	return r.ConvertToUsecase(), nil
}

// SetRental overwrites the rental record unconditionally: last writer
// wins, no extend semantics.
func (s *service) SetRental(ctx context.Context, r usecase.Rental) error {
	return setRentalTx(s.db.WithContext(ctx), r)
}

func setRentalTx(tx *gorm.DB, r usecase.Rental) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "expires_at", "updated_at"}),
	}).Create(&Rental{
		AssetID:   r.AssetID,
		UserID:    r.UserID,
		ExpiresAt: r.ExpiresAt,
	}).Error
}

func clearRentalTx(tx *gorm.DB, assetID int64) error {
	return tx.Where("asset_id = ?", assetID).Delete(&Rental{}).Error
}

func (s *service) ListExpiringRentals(ctx context.Context, from, to time.Time) ([]usecase.Rental, error) {
	var rentals []Rental
	err := s.db.WithContext(ctx).
		Where("user_id != ? AND expires_at > ? AND expires_at <= ?", uuid.Nil, from, to).
		Order("expires_at asc").
		Find(&rentals).Error
	if err != nil {
		return nil, err
	}

	list := make([]usecase.Rental, 0, len(rentals))
	for _, r := range rentals {
		list = append(list, r.ConvertToUsecase())
	}
	return list, nil
}
