package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/assetlease/assetlease/internal/usecase"
)

type Session struct {
	ID          string  `json:"id"`
	AssetID     int64   `json:"asset_id"`
	DepositorID string  `json:"depositor_id"`
	DepositedAt string  `json:"deposited_at"`
	ResolvedAt  *string `json:"resolved_at,omitempty"`
	Outcome     string  `json:"outcome,omitempty"`
	WinnerID    *string `json:"winner_id,omitempty"`
}

func ConvertSessionFrom(sn usecase.Session) Session {
	session := Session{
		ID:          sn.ID.String(),
		AssetID:     sn.AssetID,
		DepositorID: sn.DepositorID.String(),
		DepositedAt: sn.DepositedAt.Format(time.RFC3339),
		Outcome:     string(sn.Outcome),
	}
	if sn.ResolvedAt != nil {
		t := sn.ResolvedAt.Format(time.RFC3339)
		session.ResolvedAt = &t
	}
	if sn.WinnerID != nil {
		id := sn.WinnerID.String()
		session.WinnerID = &id
	}
	return session
}

type GetEscrowStatusRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (s *Server) GetEscrowStatus(ctx echo.Context) error {
	var req GetEscrowStatusRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	inEscrow, err := s.server.InEscrow(ctx.Request().Context(), req.ID)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: map[string]any{
		"asset_id":  req.ID,
		"in_escrow": inEscrow,
	}})
}

func (s *Server) DepositAsset(ctx echo.Context) error {
	var req GetEscrowStatusRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	session, err := s.server.DepositAsset(ctx.Request().Context(), req.ID)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(201, Res{Data: ConvertSessionFrom(session)})
}

type ResolveSessionRequest struct {
	ID       int64  `param:"id" validate:"required,gt=0"`
	WinnerID string `json:"winner_id" validate:"required,uuid"`
}

func (s *Server) ResolveSession(ctx echo.Context) error {
	var req ResolveSessionRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	winnerID, _ := uuid.Parse(req.WinnerID)

	if err := s.server.ResolveSession(ctx.Request().Context(), req.ID, winnerID); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "Session resolved."})
}

func (s *Server) ReleaseSession(ctx echo.Context) error {
	var req GetEscrowStatusRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	if err := s.server.ReleaseSession(ctx.Request().Context(), req.ID); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "Session released."})
}

type ListSessionsRequest struct {
	Skip     int   `query:"skip"`
	Limit    int   `query:"limit" validate:"required,gte=1,lte=100"`
	AssetID  int64 `query:"asset_id" validate:"omitempty,gt=0"`
	OpenOnly bool  `query:"open_only"`
}

func (s *Server) ListSessions(ctx echo.Context) error {
	var req ListSessionsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	sessions, total, err := s.server.ListSessions(ctx.Request().Context(), usecase.ListSessionsOption{
		Skip:     req.Skip,
		Limit:    req.Limit,
		AssetID:  req.AssetID,
		OpenOnly: req.OpenOnly,
	})
	if err != nil {
		return errorJSON(ctx, err)
	}

	list := make([]Session, 0, len(sessions))
	for _, sn := range sessions {
		list = append(list, ConvertSessionFrom(sn))
	}

	return ctx.JSON(200, Res{
		Data: list,
		Meta: &Meta{
			Total: total,
			Skip:  req.Skip,
			Limit: req.Limit,
		},
	})
}
