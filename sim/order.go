package sim

import (
	"time"

	"github.com/quantlab/papertrade/market"
)

// OrderType selects how the execution price is determined.
type OrderType int8

const (
	Market OrderType = iota + 1
	Limit
)

func (t OrderType) String() string {
	switch t {
	case Market:
		return "MARKET"
	case Limit:
		return "LIMIT"
	}
	return "UNKNOWN"
}

// OrderStatus is the order lifecycle state. Filled, Cancelled and Rejected
// are terminal. StatusPartial is reserved for a future order-book model;
// the current matcher fills completely or not at all and never produces it.
type OrderStatus int8

const (
	StatusPending OrderStatus = iota + 1
	StatusPartial
	StatusFilled
	StatusCancelled
	StatusRejected
)

func (s OrderStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusPartial:
		return "PARTIAL"
	case StatusFilled:
		return "FILLED"
	case StatusCancelled:
		return "CANCELLED"
	case StatusRejected:
		return "REJECTED"
	}
	return "UNKNOWN"
}

// Terminal reports whether the order can no longer change state.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusFilled, StatusCancelled, StatusRejected:
		return true
	case StatusPending, StatusPartial:
		return false
	}
	return false
}

// OrderRequest is an order intent from a strategy or manual entry. The
// exchange treats it as untrusted input and validates everything.
type OrderRequest struct {
	Symbol string
	Side   market.Side
	Type   OrderType
	Price  float64 // limit price; ignored for market orders
	Volume int64
	Reason string // optional tag, e.g. "StopLoss"; journaled with the order
}

// Order is the exchange's own order record.
type Order struct {
	ID           string
	Symbol       string
	Side         market.Side
	Type         OrderType
	Price        float64
	Volume       int64
	FilledVolume int64
	Status       OrderStatus
	RejectReason string
	SubmitTime   time.Time
	FilledTime   time.Time

	frozenCash float64 // buy-side freeze estimate, refunded on cancel/reject
	reason     string  // carried onto the fill for trade attribution
}
