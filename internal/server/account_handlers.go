package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/assetlease/assetlease/internal/usecase"
)

type Account struct {
	ID        string `json:"id" param:"id"`
	Name      string `json:"name" validate:"required"`
	Role      string `json:"role,omitempty"`
	Balance   int64  `json:"balance"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func ConvertAccountFrom(a usecase.Account) Account {
	return Account{
		ID:        a.ID.String(),
		Name:      a.Name,
		Role:      string(a.Role),
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
	}
}

type ListAccountsRequest struct {
	Skip   int    `query:"skip"`
	Limit  int    `query:"limit" validate:"required,gte=1,lte=100"`
	SortBy string `query:"sort_by" validate:"omitempty,oneof=created_at updated_at name"`
	SortIn string `query:"sort_in" validate:"omitempty,oneof=asc desc"`
	Name   string `query:"name" validate:"omitempty"`
	Role   string `query:"role" validate:"omitempty,oneof=USER ADMIN ARBITER"`
}

func (s *Server) ListAccounts(ctx echo.Context) error {
	var req ListAccountsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	accounts, total, err := s.server.ListAccounts(ctx.Request().Context(), usecase.ListAccountsOption{
		Skip:   req.Skip,
		Limit:  req.Limit,
		SortBy: req.SortBy,
		SortIn: req.SortIn,
		Name:   req.Name,
		Role:   usecase.AccountRole(req.Role),
	})
	if err != nil {
		return errorJSON(ctx, err)
	}

	list := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		list = append(list, ConvertAccountFrom(a))
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

type RegisterAccountRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s *Server) RegisterAccount(ctx echo.Context) error {
	var req RegisterAccountRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	a, err := s.server.RegisterAccount(ctx.Request().Context(), usecase.Account{
		Name: req.Name,
	})
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(201, Res{Data: ConvertAccountFrom(a)})
}

type GetAccountByIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetAccountByID(ctx echo.Context) error {
	var req GetAccountByIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	id, _ := uuid.Parse(req.ID)

	a, err := s.server.GetAccountByID(ctx.Request().Context(), id)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: ConvertAccountFrom(a)})
}

func (s *Server) GetMe(ctx echo.Context) error {
	a, err := s.server.GetMe(ctx.Request().Context())
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: ConvertAccountFrom(a)})
}

type GetBalanceRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetBalance(ctx echo.Context) error {
	var req GetBalanceRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	id, _ := uuid.Parse(req.ID)

	balance, err := s.server.BalanceOf(ctx.Request().Context(), id)
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: map[string]any{
		"account_id": req.ID,
		"balance":    balance,
	}})
}
