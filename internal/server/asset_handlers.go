package server

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/assetlease/assetlease/internal/usecase"
)

type Asset struct {
	ID          int64    `json:"id" param:"id"`
	OwnerID     string   `json:"owner_id"`
	OperatorID  *string  `json:"operator_id,omitempty"`
	MetadataRef string   `json:"metadata_ref,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
	Owner       *Account `json:"owner,omitempty"`
	Rental      *Rental  `json:"rental,omitempty"`
}

type Rental struct {
	AssetID   int64  `json:"asset_id"`
	UserID    string `json:"user_id"`
	ExpiresAt string `json:"expires_at"`
}

type AssetEvent struct {
	ID        string          `json:"id"`
	AssetID   int64           `json:"asset_id"`
	ActorID   string          `json:"actor_id"`
	ActorKind string          `json:"actor_kind"`
	Action    string          `json:"action"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt string          `json:"created_at"`
}

func ConvertAssetFrom(a usecase.Asset) Asset {
	asset := Asset{
		ID:          a.ID,
		OwnerID:     a.OwnerID.String(),
		MetadataRef: a.MetadataRef,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   a.UpdatedAt.Format(time.RFC3339),
	}
	if a.OperatorID != nil {
		op := a.OperatorID.String()
		asset.OperatorID = &op
	}
	if a.Owner != nil {
		owner := ConvertAccountFrom(*a.Owner)
		asset.Owner = &owner
	}
	if a.Rental != nil && a.Rental.UserID != uuid.Nil {
		asset.Rental = &Rental{
			AssetID:   a.Rental.AssetID,
			UserID:    a.Rental.UserID.String(),
			ExpiresAt: a.Rental.ExpiresAt.Format(time.RFC3339),
		}
	}
	return asset
}

func ConvertAssetEventFrom(e usecase.AssetEvent) AssetEvent {
	return AssetEvent{
		ID:        e.ID.String(),
		AssetID:   e.AssetID,
		ActorID:   e.ActorID.String(),
		ActorKind: string(e.ActorKind),
		Action:    e.Action,
		Payload:   json.RawMessage(e.Payload),
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

type ListAssetsRequest struct {
	Skip    int    `query:"skip"`
	Limit   int    `query:"limit" validate:"required,gte=1,lte=100"`
	SortBy  string `query:"sort_by" validate:"omitempty,oneof=created_at updated_at id"`
	SortIn  string `query:"sort_in" validate:"omitempty,oneof=asc desc"`
	OwnerID string `query:"owner_id" validate:"omitempty,uuid"`
	UserID  string `query:"user_id" validate:"omitempty,uuid"`
}

func (s *Server) ListAssets(ctx echo.Context) error {
	var req ListAssetsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	var ownerID, userID uuid.UUID
	if req.OwnerID != "" {
		ownerID, _ = uuid.Parse(req.OwnerID)
	}
	if req.UserID != "" {
		userID, _ = uuid.Parse(req.UserID)
	}

	assets, total, err := s.server.ListAssets(ctx.Request().Context(), usecase.ListAssetsOption{
		Skip:    req.Skip,
		Limit:   req.Limit,
		SortBy:  req.SortBy,
		SortIn:  req.SortIn,
		OwnerID: ownerID,
		UserID:  userID,
	})
	if err != nil {
		return errorJSON(ctx, err)
	}

	list := make([]Asset, 0, len(assets))
	for _, a := range assets {
		list = append(list, ConvertAssetFrom(a))
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

type AwardAssetRequest struct {
	To          string `json:"to" validate:"required,uuid"`
	MetadataRef string `json:"metadata_ref" validate:"omitempty"`
}

func (s *Server) AwardAsset(ctx echo.Context) error {
	var req AwardAssetRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	to, _ := uuid.Parse(req.To)

	a, err := s.server.AwardAsset(ctx.Request().Context(), to, req.MetadataRef)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(201, Res{Data: ConvertAssetFrom(a)})
}

type GetAssetByIDRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (s *Server) GetAssetByID(ctx echo.Context) error {
	var req GetAssetByIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	a, err := s.server.GetAssetByID(ctx.Request().Context(), req.ID)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: ConvertAssetFrom(a)})
}

func (s *Server) GetAssetURI(ctx echo.Context) error {
	var req GetAssetByIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	uri, err := s.server.AssetURI(ctx.Request().Context(), req.ID)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: map[string]any{
		"asset_id": req.ID,
		"uri":      uri,
	}})
}

func (s *Server) GetEffectiveController(ctx echo.Context) error {
	var req GetAssetByIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	c, err := s.server.EffectiveController(ctx.Request().Context(), req.ID)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: map[string]any{
		"asset_id":   req.ID,
		"kind":       string(c.Kind),
		"account_id": c.AccountID.String(),
	}})
}

type TransferAssetRequest struct {
	ID int64  `param:"id" validate:"required,gt=0"`
	To string `json:"to" validate:"required,uuid"`
}

func (s *Server) TransferAsset(ctx echo.Context) error {
	var req TransferAssetRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	to, _ := uuid.Parse(req.To)

	if err := s.server.TransferAsset(ctx.Request().Context(), req.ID, to); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "Asset transferred."})
}

type ApproveOperatorRequest struct {
	ID       int64  `param:"id" validate:"required,gt=0"`
	Operator string `json:"operator" validate:"required,uuid"`
}

func (s *Server) ApproveOperator(ctx echo.Context) error {
	var req ApproveOperatorRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	operator, _ := uuid.Parse(req.Operator)

	if err := s.server.ApproveOperator(ctx.Request().Context(), req.ID, operator); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "Operator approved."})
}

type InvokeAssetActionRequest struct {
	ID      int64           `param:"id" validate:"required,gt=0"`
	Action  string          `json:"action" validate:"required"`
	Payload json.RawMessage `json:"payload" validate:"omitempty"`
}

func (s *Server) InvokeAssetAction(ctx echo.Context) error {
	var req InvokeAssetActionRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	event, err := s.server.InvokeAssetAction(ctx.Request().Context(), req.ID, req.Action, req.Payload)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(201, Res{Data: ConvertAssetEventFrom(event)})
}

type ListAssetEventsRequest struct {
	ID      int64  `param:"id" validate:"required,gt=0"`
	Skip    int    `query:"skip"`
	Limit   int    `query:"limit" validate:"required,gte=1,lte=100"`
	ActorID string `query:"actor_id" validate:"omitempty,uuid"`
}

func (s *Server) ListAssetEvents(ctx echo.Context) error {
	var req ListAssetEventsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	var actorID uuid.UUID
	if req.ActorID != "" {
		actorID, _ = uuid.Parse(req.ActorID)
	}

	events, total, err := s.server.ListAssetEvents(ctx.Request().Context(), usecase.ListAssetEventsOption{
		Skip:    req.Skip,
		Limit:   req.Limit,
		AssetID: req.ID,
		ActorID: actorID,
	})
	if err != nil {
		return errorJSON(ctx, err)
	}

	list := make([]AssetEvent, 0, len(events))
	for _, e := range events {
		list = append(list, ConvertAssetEventFrom(e))
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
