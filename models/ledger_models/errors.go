package ledger_models

import (
	"errors"
	"fmt"
)

// Base error kinds. Every error returned by the ledger wraps exactly one of these.
var (
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrInvalidState        = errors.New("operation not allowed in current state")
	ErrNotFound            = errors.New("not found")
	ErrChargeConfigInvalid = errors.New("charge configuration yields a fee not below the amount")
	ErrGatewayFailure      = errors.New("payment gateway call failed")
	ErrNothingToPay        = errors.New("no pending earnings to pay")
	ErrNoBalance           = errors.New("wallet has no balance to settle")
	ErrInvalidInput        = errors.New("invalid input")
)

// Refinements of ErrInvalidState.
var (
	ErrAlreadyProcessed   = fmt.Errorf("%w: already processed", ErrInvalidState)
	ErrDuplicateRefund    = fmt.Errorf("%w: booking already refunded to wallet", ErrInvalidState)
	ErrMissingDestination = fmt.Errorf("%w: payout detail has no destination account", ErrInvalidState)
	ErrWalletInactive     = fmt.Errorf("%w: wallet is inactive", ErrInvalidState)
)

type ErrorKind string

const (
	KindInsufficientBalance ErrorKind = "INSUFFICIENT_BALANCE"
	KindInvalidState        ErrorKind = "INVALID_STATE"
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindChargeConfigInvalid ErrorKind = "CHARGE_CONFIG_INVALID"
	KindGatewayFailure      ErrorKind = "GATEWAY_FAILURE"
	KindNothingToPay        ErrorKind = "NOTHING_TO_PAY"
	KindNoBalance           ErrorKind = "NO_BALANCE"
	KindInvalidInput        ErrorKind = "INVALID_INPUT"
	KindInternal            ErrorKind = "INTERNAL"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrInsufficientBalance, KindInsufficientBalance},
	{ErrInvalidState, KindInvalidState},
	{ErrNotFound, KindNotFound},
	{ErrChargeConfigInvalid, KindChargeConfigInvalid},
	{ErrGatewayFailure, KindGatewayFailure},
	{ErrNothingToPay, KindNothingToPay},
	{ErrNoBalance, KindNoBalance},
	{ErrInvalidInput, KindInvalidInput},
}

// Kind maps an error onto the ledger taxonomy. Unknown errors are KindInternal.
func Kind(err error) ErrorKind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
