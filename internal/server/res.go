package server

import (
	"github.com/labstack/echo/v4"

	"github.com/assetlease/assetlease/internal/usecase"
)

type Meta struct {
	Total  int  `json:"total"`
	Skip   int  `json:"skip"`
	Limit  int  `json:"limit"`
	Unread *int `json:"unread,omitempty"`
}

type Res struct {
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// errorJSON maps a domain error's stable code to an HTTP status. The
// code rides along in the body so clients can branch on cause.
func errorJSON(ctx echo.Context, err error) error {
	code := usecase.CodeOf(err)

	status := 500
	switch code {
	case usecase.CodeNotFound:
		status = 404
	case usecase.CodeUnauthorized,
		usecase.CodeNotProposer,
		usecase.CodeNotOwner,
		usecase.CodeNotAuthorized,
		usecase.CodeNotAuthorizedForSession:
		status = 403
	case usecase.CodeProposalNotActive,
		usecase.CodeAlreadyRented,
		usecase.CodeActiveRentalLock,
		usecase.CodeAlreadyInEscrow,
		usecase.CodeNotInEscrow,
		usecase.CodeSupplyExhausted:
		status = 409
	case usecase.CodeInsufficientFunds,
		usecase.CodeNotAuthorizedSpender:
		status = 402
	case usecase.CodeInvalidAddress,
		usecase.CodeInvalidInput:
		status = 422
	}

	return ctx.JSON(status, Res{
		Error:   err.Error(),
		Message: code,
	})
}
