package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type GetAssetUserRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

// GetAssetUser reports the asset's current user. An expired grant
// reads back as the zero id; the raw expiry is included either way.
func (s *Server) GetAssetUser(ctx echo.Context) error {
	var req GetAssetUserRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	userID, err := s.server.UserOf(ctx.Request().Context(), req.ID)
	if err != nil {
		return errorJSON(ctx, err)
	}
	expiresAt, err := s.server.UserExpires(ctx.Request().Context(), req.ID)
	if err != nil {
		return errorJSON(ctx, err)
	}

	data := map[string]any{
		"asset_id": req.ID,
		"user_id":  userID.String(),
	}
	if !expiresAt.IsZero() {
		data["expires_at"] = expiresAt.Format(time.RFC3339)
	}

	return ctx.JSON(200, Res{Data: data})
}

type SetAssetUserRequest struct {
	ID        int64  `param:"id" validate:"required,gt=0"`
	UserID    string `json:"user_id" validate:"required,uuid"`
	ExpiresAt string `json:"expires_at" validate:"required"`
}

func (s *Server) SetAssetUser(ctx echo.Context) error {
	var req SetAssetUserRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	userID, _ := uuid.Parse(req.UserID)

	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	if err := s.server.SetAssetUser(ctx.Request().Context(), req.ID, userID, expiresAt); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "Asset user updated."})
}
