package sim

import (
	"errors"
	"fmt"
)

// RejectCode classifies why an order was refused.
type RejectCode string

const (
	RejectValidation           RejectCode = "VALIDATION"
	RejectInsufficientFunds    RejectCode = "INSUFFICIENT_FUNDS"
	RejectInsufficientPosition RejectCode = "INSUFFICIENT_POSITION"
	RejectNoQuote              RejectCode = "NO_QUOTE"
	RejectRiskDenied           RejectCode = "RISK_DENIED"
)

// Rejection is the typed per-order failure returned by Submit. It is
// terminal for that order and never implies any ledger mutation.
type Rejection struct {
	Code   RejectCode
	Reason string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("order rejected (%s): %s", r.Code, r.Reason)
}

// ErrNotCancellable means the order was already terminal when Cancel ran.
var ErrNotCancellable = errors.New("sim: order not cancellable")

// ErrUnknownOrder means no order exists under the given ID.
var ErrUnknownOrder = errors.New("sim: unknown order")
