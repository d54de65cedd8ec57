package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Settings struct {
	EscrowAccountID string `json:"escrow_account_id"`
	BaseURI         string `json:"base_uri"`
	UpdatedAt       string `json:"updated_at"`
}

func (s *Server) GetSettings(ctx echo.Context) error {
	st, err := s.server.GetSettings(ctx.Request().Context())
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: Settings{
		EscrowAccountID: st.EscrowAccountID.String(),
		BaseURI:         st.BaseURI,
		UpdatedAt:       st.UpdatedAt.Format(time.RFC3339),
	}})
}

type SetEscrowAccountRequest struct {
	AccountID string `json:"account_id" validate:"required,uuid"`
}

func (s *Server) SetEscrowAccount(ctx echo.Context) error {
	var req SetEscrowAccountRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	accountID, _ := uuid.Parse(req.AccountID)

	if err := s.server.SetEscrowAccount(ctx.Request().Context(), accountID); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "Escrow account updated."})
}

type SetBaseURIRequest struct {
	BaseURI string `json:"base_uri" validate:"required"`
}

func (s *Server) SetBaseURI(ctx echo.Context) error {
	var req SetBaseURIRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	if err := s.server.SetBaseURI(ctx.Request().Context(), req.BaseURI); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "Base URI updated."})
}

func (s *Server) RenounceMinter(ctx echo.Context) error {
	if err := s.server.RenounceMinter(ctx.Request().Context()); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "Minter role renounced."})
}
