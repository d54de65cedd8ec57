package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/assetlease/assetlease/internal/usecase"
)

type LedgerEntry struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	FromID    *string `json:"from_id,omitempty"`
	ToID      string  `json:"to_id"`
	Amount    int64   `json:"amount"`
	AssetID   *int64  `json:"asset_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func ConvertLedgerEntryFrom(e usecase.LedgerEntry) LedgerEntry {
	entry := LedgerEntry{
		ID:        e.ID.String(),
		Kind:      string(e.Kind),
		ToID:      e.ToID.String(),
		Amount:    e.Amount,
		AssetID:   e.AssetID,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
	if e.FromID != nil {
		from := e.FromID.String()
		entry.FromID = &from
	}
	return entry
}

func (s *Server) GetDecimals(ctx echo.Context) error {
	return ctx.JSON(200, Res{Data: map[string]int{
		"decimals": s.server.Decimals(),
	}})
}

type MintTokensRequest struct {
	To     string `json:"to" validate:"required,uuid"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

func (s *Server) MintTokens(ctx echo.Context) error {
	var req MintTokensRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	to, _ := uuid.Parse(req.To)

	if err := s.server.MintTokens(ctx.Request().Context(), to, req.Amount); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "Tokens minted."})
}

type TransferTokensRequest struct {
	To     string `json:"to" validate:"required,uuid"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

func (s *Server) TransferTokens(ctx echo.Context) error {
	var req TransferTokensRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	to, _ := uuid.Parse(req.To)

	if err := s.server.TransferTokens(ctx.Request().Context(), to, req.Amount); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "Transfer complete."})
}

type ApproveSpenderRequest struct {
	Spender string `json:"spender" validate:"required,uuid"`
	Amount  int64  `json:"amount" validate:"gte=0"`
}

func (s *Server) ApproveSpender(ctx echo.Context) error {
	var req ApproveSpenderRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	spender, _ := uuid.Parse(req.Spender)

	if err := s.server.Approve(ctx.Request().Context(), spender, req.Amount); err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Message: "Allowance set."})
}

type GetAllowanceRequest struct {
	Owner   string `query:"owner" validate:"required,uuid"`
	Spender string `query:"spender" validate:"required,uuid"`
}

func (s *Server) GetAllowance(ctx echo.Context) error {
	var req GetAllowanceRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	owner, _ := uuid.Parse(req.Owner)
	spender, _ := uuid.Parse(req.Spender)

	amount, err := s.server.Allowance(ctx.Request().Context(), owner, spender)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: map[string]any{
		"owner":   req.Owner,
		"spender": req.Spender,
		"amount":  amount,
	}})
}

type ListLedgerEntriesRequest struct {
	Skip      int    `query:"skip"`
	Limit     int    `query:"limit" validate:"required,gte=1,lte=100"`
	AccountID string `query:"account_id" validate:"omitempty,uuid"`
	Kind      string `query:"kind" validate:"omitempty,oneof=MINT TRANSFER SETTLEMENT"`
}

func (s *Server) ListLedgerEntries(ctx echo.Context) error {
	var req ListLedgerEntriesRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	var accountID uuid.UUID
	if req.AccountID != "" {
		accountID, _ = uuid.Parse(req.AccountID)
	}

	entries, total, err := s.server.ListLedgerEntries(ctx.Request().Context(), usecase.ListLedgerEntriesOption{
		Skip:      req.Skip,
		Limit:     req.Limit,
		AccountID: accountID,
		Kind:      usecase.LedgerEntryKind(req.Kind),
	})
	if err != nil {
		return errorJSON(ctx, err)
	}

	list := make([]LedgerEntry, 0, len(entries))
	for _, e := range entries {
		list = append(list, ConvertLedgerEntryFrom(e))
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
