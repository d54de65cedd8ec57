package server

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/assetlease/assetlease/internal/usecase"
)

type Notification struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Message       string  `json:"message"`
	CreatedAt     string  `json:"created_at"`
	ReadAt        *string `json:"read_at,omitempty"`
	ReferenceID   *string `json:"reference_id,omitempty"`
	ReferenceType string  `json:"reference_type"`
}

func ConvertNotificationFrom(n usecase.Notification) Notification {
	noti := Notification{
		ID:            n.ID.String(),
		Title:         n.Title,
		Message:       n.Message,
		CreatedAt:     n.CreatedAt.Format(time.RFC3339),
		ReferenceType: n.ReferenceType,
	}
	if n.ReadAt != nil {
		t := n.ReadAt.Format(time.RFC3339)
		noti.ReadAt = &t
	}
	if n.ReferenceID != nil {
		id := n.ReferenceID.String()
		noti.ReferenceID = &id
	}
	return noti
}

type ListNotificationsRequest struct {
	Skip  int `query:"skip"`
	Limit int `query:"limit" validate:"required,min=1,max=100"`
}

func (s *Server) ListNotifications(ctx echo.Context) error {
	var req ListNotificationsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	notifications, unread, total, err := s.server.ListNotifications(ctx.Request().Context(), usecase.ListNotificationsOption{
		Skip:  req.Skip,
		Limit: req.Limit,
	})
	if err != nil {
		return errorJSON(ctx, err)
	}

	list := make([]Notification, 0, len(notifications))
	for _, n := range notifications {
		list = append(list, ConvertNotificationFrom(n))
	}

	return ctx.JSON(200, Res{
		Data: list,
		Meta: &Meta{
			Unread: &unread,
			Total:  total,
			Skip:   req.Skip,
			Limit:  req.Limit,
		},
	})
}

type ReadNotificationRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) ReadNotification(ctx echo.Context) error {
	var req ReadNotificationRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	id, _ := uuid.Parse(req.ID)

	if err := s.server.ReadNotification(ctx.Request().Context(), id); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.NoContent(204)
}

func (s *Server) ReadAllNotifications(ctx echo.Context) error {
	if err := s.server.ReadAllNotifications(ctx.Request().Context()); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.NoContent(204)
}

type StreamNotificationsRequest struct {
	UserID string `query:"user_id" validate:"required,uuid"`
}

// REF: https://echo.labstack.com/docs/cookbook/sse
func (s *Server) StreamNotifications(ctx echo.Context) error {
	var req StreamNotificationsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	userID, _ := uuid.Parse(req.UserID)

	ch, err := s.server.StreamNotifications(ctx.Request().Context(), userID)
	if err != nil {
		return errorJSON(ctx, err)
	}

	w := ctx.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache, no-store, no-transform")
	w.Header().Set(echo.HeaderConnection, "keep-alive")

	for {
		select {
		case <-ctx.Request().Context().Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				s.logger.Debug("notification stream closed", slog.String("user_id", req.UserID))
				return nil
			}
			if msg.ID == uuid.Nil {
				continue
			}

			noti := ConvertNotificationFrom(msg)
			data, err := json.Marshal(noti)
			if err != nil {
				s.logger.Error("marshalling notification", slog.String("err", err.Error()))
				continue
			}

			w.Write([]byte("data: " + string(data) + "\n\n"))
			w.Flush()
		}
	}
}
