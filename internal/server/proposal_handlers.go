package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/assetlease/assetlease/internal/usecase"
)

type Proposal struct {
	ID            int64    `json:"id" param:"id"`
	AssetID       int64    `json:"asset_id"`
	ProposerID    string   `json:"proposer_id"`
	OwnerSnapshot string   `json:"owner_snapshot"`
	Amount        int64    `json:"amount"`
	Active        bool     `json:"active"`
	CreatedAt     string   `json:"created_at,omitempty"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
	Proposer      *Account `json:"proposer,omitempty"`
	Asset         *Asset   `json:"asset,omitempty"`
}

func ConvertProposalFrom(p usecase.Proposal) Proposal {
	proposal := Proposal{
		ID:            p.ID,
		AssetID:       p.AssetID,
		ProposerID:    p.ProposerID.String(),
		OwnerSnapshot: p.OwnerSnapshot.String(),
		Amount:        p.Amount,
		Active:        p.Active,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.Format(time.RFC3339),
	}
	if p.Proposer != nil {
		proposer := ConvertAccountFrom(*p.Proposer)
		proposal.Proposer = &proposer
	}
	if p.Asset != nil {
		asset := ConvertAssetFrom(*p.Asset)
		proposal.Asset = &asset
	}
	return proposal
}

type ListProposalsRequest struct {
	Skip       int    `query:"skip"`
	Limit      int    `query:"limit" validate:"required,gte=1,lte=100"`
	SortBy     string `query:"sort_by" validate:"omitempty,oneof=created_at updated_at amount"`
	SortIn     string `query:"sort_in" validate:"omitempty,oneof=asc desc"`
	AssetID    int64  `query:"asset_id" validate:"omitempty,gt=0"`
	ProposerID string `query:"proposer_id" validate:"omitempty,uuid"`
	ActiveOnly bool   `query:"active_only"`
}

func (s *Server) ListProposals(ctx echo.Context) error {
	var req ListProposalsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	var proposerID uuid.UUID
	if req.ProposerID != "" {
		proposerID, _ = uuid.Parse(req.ProposerID)
	}

	proposals, total, err := s.server.ListProposals(ctx.Request().Context(), usecase.ListProposalsOption{
		Skip:       req.Skip,
		Limit:      req.Limit,
		SortBy:     req.SortBy,
		SortIn:     req.SortIn,
		AssetID:    req.AssetID,
		ProposerID: proposerID,
		ActiveOnly: req.ActiveOnly,
	})
	if err != nil {
		return errorJSON(ctx, err)
	}

	list := make([]Proposal, 0, len(proposals))
	for _, p := range proposals {
		list = append(list, ConvertProposalFrom(p))
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

type MakeProposalRequest struct {
	AssetID int64 `json:"asset_id" validate:"required,gt=0"`
	Amount  int64 `json:"amount" validate:"required,gt=0"`
}

func (s *Server) MakeProposal(ctx echo.Context) error {
	var req MakeProposalRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	p, err := s.server.MakeProposal(ctx.Request().Context(), req.AssetID, req.Amount)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(201, Res{Data: ConvertProposalFrom(p)})
}

type GetProposalByIDRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (s *Server) GetProposalByID(ctx echo.Context) error {
	var req GetProposalByIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	p, err := s.server.GetProposalByID(ctx.Request().Context(), req.ID)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: ConvertProposalFrom(p)})
}

func (s *Server) WithdrawProposal(ctx echo.Context) error {
	var req GetProposalByIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	if err := s.server.WithdrawProposal(ctx.Request().Context(), req.ID); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "Proposal withdrawn."})
}

type AcceptProposalRequest struct {
	ID        int64  `param:"id" validate:"required,gt=0"`
	ExpiresAt string `json:"expires_at" validate:"required"`
}

func (s *Server) AcceptProposal(ctx echo.Context) error {
	var req AcceptProposalRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	p, err := s.server.AcceptProposal(ctx.Request().Context(), req.ID, expiresAt)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{
		Data:    ConvertProposalFrom(p),
		Message: "Proposal accepted.",
	})
}
