package spending

import (
	"errors"

	"github.com/Stratton1/futurepreneurs-sub000/internal/wallet"
)

var (
	// ErrValidation covers malformed or unsatisfiable creation input.
	ErrValidation = errors.New("invalid spending request")
	// ErrUnauthorized is returned when the caller is not the right actor for
	// the operation.
	ErrUnauthorized = errors.New("caller is not permitted to act on this request")
	// ErrVelocityLimitExceeded is returned when the proposed spend breaks a
	// per-transaction, daily or weekly cap.
	ErrVelocityLimitExceeded = errors.New("velocity limit exceeded")
	// ErrInvalidStateTransition is returned when the request is not in the
	// status the operation expects.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrExpiredWindow is returned when a reversal arrives after the
	// cooling-off window closed. The request stays approved; escalation is
	// out-of-band.
	ErrExpiredWindow = errors.New("cooling-off window has expired")
	// ErrNotFound is returned when the request id is unknown.
	ErrNotFound = errors.New("spending request not found")

	// ErrInsufficientFunds is the ledger's shortfall error, re-exported so
	// callers only need this package.
	ErrInsufficientFunds = wallet.ErrInsufficientFunds
)
