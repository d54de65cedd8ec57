package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/assetlease/assetlease/internal/usecase"
)

type Asset struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement"`
	OwnerID     uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index"`
	Owner       *Account   `gorm:"foreignKey:OwnerID;references:ID"`
	OperatorID  *uuid.UUID `gorm:"column:operator_id;type:uuid"`
	MetadataRef string     `gorm:"column:metadata_ref;type:varchar(512)"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`

	Rental *Rental `gorm:"foreignKey:AssetID;references:ID"`
}

func (Asset) TableName() string {
	return "assets"
}

func (a Asset) ConvertToUsecase() usecase.Asset {
	return usecase.Asset{
		ID:          a.ID,
		OwnerID:     a.OwnerID,
		OperatorID:  a.OperatorID,
		MetadataRef: a.MetadataRef,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func (s *service) CreateAsset(ctx context.Context, a usecase.Asset) (usecase.Asset, error) {
	asset := Asset{
		OwnerID:     a.OwnerID,
		MetadataRef: a.MetadataRef,
	}
	if err := s.db.WithContext(ctx).Create(&asset).Error; err != nil {
		return usecase.Asset{}, err
	}
	return asset.ConvertToUsecase(), nil
}

func (s *service) GetAssetByID(ctx context.Context, id int64) (usecase.Asset, error) {
	var a Asset
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Preload("Rental").
		Where("id = ?", id).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usecase.Asset{}, usecase.ErrNotFoundf("asset not found")
	}
	if err != nil {
		return usecase.Asset{}, err
	}

	ua := a.ConvertToUsecase()
	if a.Owner != nil {
		owner := a.Owner.ConvertToUsecase()
		ua.Owner = &owner
	}
	if a.Rental != nil {
		rental := a.Rental.ConvertToUsecase()
		ua.Rental = &rental
	}
	return ua, nil
}

func (s *service) ListAssets(ctx context.Context, opt usecase.ListAssetsOption) ([]usecase.Asset, int, error) {
	var (
		assets []Asset
		count  int64
	)

	db := s.db.Model([]Asset{}).WithContext(ctx)

	if opt.OwnerID != uuid.Nil {
		db = db.Where("owner_id = ?", opt.OwnerID)
	}
	if opt.UserID != uuid.Nil {
		db = db.Joins("Rental").Where("\"Rental\".user_id = ?", opt.UserID)
	}

	sortBy := "id"
	if opt.SortBy != "" {
		sortBy = opt.SortBy
	}
	sortIn := "asc"
	if opt.SortIn != "" {
		sortIn = opt.SortIn
	}

	err := db.
		Preload("Owner").
		Preload("Rental").
		Count(&count).
		Order(sortBy + " " + sortIn).
		Limit(opt.Limit).
		Offset(opt.Skip).
		Find(&assets).
		Error
	if err != nil {
		return nil, 0, err
	}

	list := make([]usecase.Asset, 0, len(assets))
	for _, a := range assets {
		ua := a.ConvertToUsecase()
		if a.Owner != nil {
			owner := a.Owner.ConvertToUsecase()
			ua.Owner = &owner
		}
		if a.Rental != nil {
			rental := a.Rental.ConvertToUsecase()
			ua.Rental = &rental
		}
		list = append(list, ua)
	}
	return list, int(count), nil
}

func (s *service) CountAssets(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Asset{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *service) CountAssetsByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Asset{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *service) SetAssetOperator(ctx context.Context, assetID int64, operatorID *uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Model(&Asset{}).
		Where("id = ?", assetID).
		Update("operator_id", operatorID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrNotFoundf("asset not found")
	}
	return nil
}

// TransferAsset reassigns title and drops any operator approval. The
// caller has already decided the transfer is allowed; rental lock
// enforcement lives in the usecase layer.
func (s *service) TransferAsset(ctx context.Context, opt usecase.TransferAssetOption) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Asset{}).
			Where("id = ?", opt.AssetID).
			Updates(map[string]any{
				"owner_id":    opt.To,
				"operator_id": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return usecase.ErrNotFoundf("asset not found")
		}

		if opt.ClearRental {
			if err := clearRentalTx(tx, opt.AssetID); err != nil {
				return err
			}
		}
		return nil
	})
}
