package database

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/assetlease/assetlease/internal/usecase"
)

const notificationChannel = "assetlease_notifications"

type Notification struct {
	ID            uuid.UUID  `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()" json:"id"`
	UserID        uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Title         string     `gorm:"column:title" json:"title"`
	Message       string     `gorm:"column:message" json:"message"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at" json:"updated_at"`
	ReadAt        *time.Time `gorm:"column:read_at" json:"read_at"`
	ReferenceID   *uuid.UUID `gorm:"column:reference_id;type:uuid" json:"reference_id"`
	ReferenceType string     `gorm:"column:reference_type" json:"reference_type"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n Notification) ConvertToUsecase() usecase.Notification {
	return usecase.Notification{
		ID:            n.ID,
		UserID:        n.UserID,
		Title:         n.Title,
		Message:       n.Message,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
		ReadAt:        n.ReadAt,
		ReferenceID:   n.ReferenceID,
		ReferenceType: n.ReferenceType,
	}
}

// notificationHub fans a Postgres NOTIFY stream out to in-process
// subscribers, so every API replica sees inserts from every writer.
type notificationHub struct {
	mu          sync.Mutex
	subscribers map[chan<- usecase.Notification]struct{}
	conn        *pgx.Conn
	logger      *slog.Logger
}

func newNotificationHub(conn *pgx.Conn, logger *slog.Logger) *notificationHub {
	hub := &notificationHub{
		conn:        conn,
		subscribers: make(map[chan<- usecase.Notification]struct{}),
		logger:      logger,
	}
	go hub.listen()
	return hub
}

func (h *notificationHub) listen() {
	ctx := context.Background()
	if _, err := h.conn.Exec(ctx, "LISTEN "+notificationChannel); err != nil {
		h.logger.Error("failed to listen on notification channel", slog.String("err", err.Error()))
		return
	}
	for {
		n, err := h.conn.WaitForNotification(ctx)
		if err != nil {
			h.logger.Error("error waiting for notification", slog.String("err", err.Error()))
			return
		}
		if n == nil {
			continue
		}

		notif := parseNotification(n, h.logger)

		h.mu.Lock()
		for ch := range h.subscribers {
			select {
			case ch <- notif:
			default:
				// Skip rather than block the hub on a full
				// subscriber channel.
				h.logger.Warn("subscriber channel full, dropping notification",
					slog.String("id", notif.ID.String()))
			}
		}
		h.mu.Unlock()
	}
}

func (h *notificationHub) Subscribe(ch chan<- usecase.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[ch] = struct{}{}
}

func (h *notificationHub) Unsubscribe(ch chan<- usecase.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, ch)
}

func parseNotification(n *pgconn.Notification, logger *slog.Logger) usecase.Notification {
	var notification Notification
	if err := json.Unmarshal([]byte(n.Payload), &notification); err != nil {
		logger.Error("error parsing notification payload", slog.String("err", err.Error()))
		return usecase.Notification{}
	}
	return notification.ConvertToUsecase()
}

// CreateNotification inserts the row and broadcasts it on the NOTIFY
// channel in the same transaction.
func (s *service) CreateNotification(ctx context.Context, n usecase.Notification) error {
	notification := Notification{
		UserID:        n.UserID,
		Title:         n.Title,
		Message:       n.Message,
		ReferenceID:   n.ReferenceID,
		ReferenceType: n.ReferenceType,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&notification).Error; err != nil {
			return err
		}
		payload, err := json.Marshal(notification)
		if err != nil {
			return err
		}
		return tx.Exec("SELECT pg_notify(?, ?)", notificationChannel, string(payload)).Error
	})
}

func (s *service) SubscribeNotifications(ctx context.Context, ch chan<- usecase.Notification) error {
	if s.noti == nil {
		return usecase.ErrInvalidInputf("notification streaming is not enabled")
	}
	s.noti.Subscribe(ch)
	return nil
}

func (s *service) UnsubscribeNotifications(ctx context.Context, ch chan<- usecase.Notification) error {
	if s.noti == nil {
		return nil
	}
	s.noti.Unsubscribe(ch)
	return nil
}

func (s *service) ListNotifications(ctx context.Context, opt usecase.ListNotificationsOption) ([]usecase.Notification, int, int, error) {
	var (
		notifications []Notification
		total         int64
	)

	query := s.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ?", opt.UserID).
		Order("created_at desc").
		Limit(opt.Limit).
		Offset(opt.Skip)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, 0, err
	}
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, 0, err
	}

	var unread int64
	if err := s.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND read_at IS NULL", opt.UserID).
		Count(&unread).Error; err != nil {
		return nil, 0, 0, err
	}

	result := make([]usecase.Notification, len(notifications))
	for i, n := range notifications {
		result[i] = n.ConvertToUsecase()
	}
	return result, int(unread), int(total), nil
}

func (s *service) ReadNotification(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ?", id).
		Update("read_at", time.Now()).Error
}

func (s *service) ReadAllNotifications(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", time.Now()).Error
}
