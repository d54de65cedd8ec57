package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/assetlease/assetlease/internal/usecase"
)

type AssetEvent struct {
	ID        uuid.UUID      `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	AssetID   int64          `gorm:"column:asset_id;not null;index"`
	ActorID   uuid.UUID      `gorm:"column:actor_id;type:uuid;not null;index"`
	ActorKind string         `gorm:"column:actor_kind;type:varchar(10);not null"`
	Action    string         `gorm:"column:action;type:varchar(100);not null"`
	Payload   datatypes.JSON `gorm:"column:payload"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

func (AssetEvent) TableName() string {
	return "asset_events"
}

func (e AssetEvent) ConvertToUsecase() usecase.AssetEvent {
	return usecase.AssetEvent{
		ID:        e.ID,
		AssetID:   e.AssetID,
		ActorID:   e.ActorID,
		ActorKind: usecase.ControllerKind(e.ActorKind),
		Action:    e.Action,
		Payload:   e.Payload,
		CreatedAt: e.CreatedAt,
	}
}

func (s *service) CreateAssetEvent(ctx context.Context, e usecase.AssetEvent) (usecase.AssetEvent, error) {
	event := AssetEvent{
		AssetID:   e.AssetID,
		ActorID:   e.ActorID,
		ActorKind: string(e.ActorKind),
		Action:    e.Action,
		Payload:   e.Payload,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return usecase.AssetEvent{}, err
	}
	return event.ConvertToUsecase(), nil
}

func (s *service) ListAssetEvents(ctx context.Context, opt usecase.ListAssetEventsOption) ([]usecase.AssetEvent, int, error) {
	var (
		events []AssetEvent
		count  int64
	)

	db := s.db.Model([]AssetEvent{}).WithContext(ctx)

	if opt.AssetID != 0 {
		db = db.Where("asset_id = ?", opt.AssetID)
	}
	if opt.ActorID != uuid.Nil {
		db = db.Where("actor_id = ?", opt.ActorID)
	}

	err := db.
		Count(&count).
		Order("created_at desc").
		Limit(opt.Limit).
		Offset(opt.Skip).
		Find(&events).
		Error
	if err != nil {
		return nil, 0, err
	}

	list := make([]usecase.AssetEvent, 0, len(events))
	for _, e := range events {
		list = append(list, e.ConvertToUsecase())
	}
	return list, int(count), nil
}
