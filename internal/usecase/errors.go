package usecase

import "errors"

// Error is a stable, code-carrying failure returned by the domain
// layer. Every precondition violation maps to exactly one code so
// callers (and handlers) can branch on cause.
type Error struct {
	Code    string
	Message string
}

func (e Error) Error() string {
	return e.Message
}

const (
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeNotProposer             = "NOT_PROPOSER"
	CodeNotOwner                = "NOT_OWNER"
	CodeNotAuthorized           = "NOT_AUTHORIZED"
	CodeNotAuthorizedForSession = "NOT_AUTHORIZED_FOR_SESSION"
	CodeNotAuthorizedSpender    = "NOT_AUTHORIZED_SPENDER"
	CodeProposalNotActive       = "PROPOSAL_NOT_ACTIVE"
	CodeAlreadyRented           = "ALREADY_RENTED"
	CodeActiveRentalLock        = "ACTIVE_RENTAL_LOCK"
	CodeAlreadyInEscrow         = "ALREADY_IN_ESCROW"
	CodeNotInEscrow             = "NOT_IN_ESCROW"
	CodeInvalidAddress          = "INVALID_ADDRESS"
	CodeInvalidInput            = "INVALID_INPUT"
	CodeNotFound                = "NOT_FOUND"
	CodeInsufficientFunds       = "INSUFFICIENT_FUNDS"
	CodeSupplyExhausted         = "SUPPLY_EXHAUSTED"
)

var (
	ErrUnauthorized = Error{Code: CodeUnauthorized, Message: "caller is not permitted to perform this operation"}

	ErrNotProposer             = Error{Code: CodeNotProposer, Message: "you did not make this proposal"}
	ErrNotOwner                = Error{Code: CodeNotOwner, Message: "you do not own this asset"}
	ErrNotAuthorized           = Error{Code: CodeNotAuthorized, Message: "you are not the effective controller of this asset"}
	ErrNotAuthorizedForSession = Error{Code: CodeNotAuthorizedForSession, Message: "you cannot open a custody session for this asset"}
	ErrNotAuthorizedSpender    = Error{Code: CodeNotAuthorizedSpender, Message: "spender allowance does not cover this transfer"}

	ErrProposalNotActive = Error{Code: CodeProposalNotActive, Message: "this proposal is not active"}
	ErrAlreadyRented     = Error{Code: CodeAlreadyRented, Message: "this asset already has an active user"}
	ErrActiveRentalLock  = Error{Code: CodeActiveRentalLock, Message: "this asset cannot be transferred while a rental is active"}
	ErrAlreadyInEscrow   = Error{Code: CodeAlreadyInEscrow, Message: "this asset is already held in custody"}
	ErrNotInEscrow       = Error{Code: CodeNotInEscrow, Message: "this asset is not held in custody"}

	ErrInvalidAddress    = Error{Code: CodeInvalidAddress, Message: "a real account id is required"}
	ErrInsufficientFunds = Error{Code: CodeInsufficientFunds, Message: "the payer does not have enough tokens to complete this transaction"}
	ErrSupplyExhausted   = Error{Code: CodeSupplyExhausted, Message: "not enough assets remaining to mint"}
)

// ErrNotFoundf builds a NOT_FOUND error with a specific message.
func ErrNotFoundf(message string) Error {
	return Error{Code: CodeNotFound, Message: message}
}

// ErrInvalidInputf builds an INVALID_INPUT error with a specific message.
func ErrInvalidInputf(message string) Error {
	return Error{Code: CodeInvalidInput, Message: message}
}

// CodeOf extracts the stable code from err, or "" if err does not
// carry one.
func CodeOf(err error) string {
	var de Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
