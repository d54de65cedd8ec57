package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func (s *Server) HelloWorldHandler(ctx echo.Context) error {
	resp := map[string]string{
		"message": "Hello World",
	}

	return ctx.JSON(200, resp)
}

func (s *Server) healthHandler(ctx echo.Context) error {
	return ctx.JSON(200, s.server.Health())
}

type GetCapabilityRequest struct {
	ID string `param:"id" validate:"required"`
}

func (s *Server) GetCapability(ctx echo.Context) error {
	var req GetCapabilityRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(200, Res{Data: map[string]any{
		"id":        req.ID,
		"supported": s.server.SupportsCapabilitySet(req.ID),
	}})
}

type WebsocketRequest struct {
	UserID string `query:"user_id" validate:"required,uuid"`
}

// websocketHandler pushes the caller's notifications over a websocket,
// for clients that cannot hold an SSE stream open.
func (s *Server) websocketHandler(ctx echo.Context) error {
	var req WebsocketRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	userID, _ := uuid.Parse(req.UserID)

	socket, err := websocket.Accept(ctx.Response().Writer, ctx.Request(), nil)
	if err != nil {
		s.logger.Error("websocket accept", slog.String("err", err.Error()))
		return err
	}
	defer socket.Close(websocket.StatusGoingAway, "server closing websocket")

	socketCtx := ctx.Request().Context()

	ch, err := s.server.StreamNotifications(socketCtx, userID)
	if err != nil {
		socket.Close(websocket.StatusInternalError, "stream unavailable")
		return nil
	}

	for {
		select {
		case <-socketCtx.Done():
			return nil
		case n, ok := <-ch:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(ConvertNotificationFrom(n))
			if err != nil {
				continue
			}
			writeCtx, cancel := context.WithTimeout(socketCtx, 5*time.Second)
			err = socket.Write(writeCtx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				s.logger.Debug("websocket write", slog.String("err", err.Error()))
				return nil
			}
		}
	}
}
