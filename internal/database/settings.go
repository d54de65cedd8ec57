package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/assetlease/assetlease/internal/usecase"
)

// Settings is a singleton row (id = 1), seeded on migration.
type Settings struct {
	ID              int        `gorm:"column:id;primaryKey"`
	EscrowAccountID *uuid.UUID `gorm:"column:escrow_account_id;type:uuid"`
	BaseURI         string     `gorm:"column:base_uri;type:varchar(512)"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (Settings) TableName() string {
	return "settings"
}

func (s *service) GetSettings(ctx context.Context) (usecase.Settings, error) {
	var row Settings
	if err := s.db.WithContext(ctx).Where("id = 1").First(&row).Error; err != nil {
		return usecase.Settings{}, err
	}

	settings := usecase.Settings{
		BaseURI:   row.BaseURI,
		UpdatedAt: row.UpdatedAt,
	}
	if row.EscrowAccountID != nil {
		settings.EscrowAccountID = *row.EscrowAccountID
	}
	return settings, nil
}

func (s *service) UpdateSettings(ctx context.Context, settings usecase.Settings) (usecase.Settings, error) {
	row := Settings{ID: 1, BaseURI: settings.BaseURI}
	if settings.EscrowAccountID != uuid.Nil {
		id := settings.EscrowAccountID
		row.EscrowAccountID = &id
	}

	err := s.db.WithContext(ctx).
		Model(&Settings{}).
		Where("id = 1").
		Updates(map[string]any{
			"escrow_account_id": row.EscrowAccountID,
			"base_uri":          row.BaseURI,
		}).Error
	if err != nil {
		return usecase.Settings{}, err
	}
	return s.GetSettings(ctx)
}
