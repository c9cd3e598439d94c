// Package journal persists the simulation's append-only event log: accounts,
// positions, orders, trades and equity snapshots. It sits off the hot path;
// the Async decorator keeps a slow disk from stalling order processing.
package journal

import "time"

// AccountRecord mirrors one row of the accounts table.
type AccountRecord struct {
	AccountID      string
	InitialCapital float64
	AvailableCash  float64
	FrozenCash     float64
	TotalAssets    float64
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PositionRecord mirrors one row of the positions table, upserted on
// (account_id, symbol).
type PositionRecord struct {
	AccountID     string
	Symbol        string
	Volume        int64
	AvgCost       float64
	CurrentPrice  float64
	UnrealizedPnL float64
}

// OrderRecord mirrors one row of the orders table, upserted on order_id as
// the order moves through its lifecycle.
type OrderRecord struct {
	OrderID      string
	AccountID    string
	Symbol       string
	Side         string
	Type         string
	Price        float64
	Volume       int64
	FilledVolume int64
	Status       string
	RejectReason string
	SubmitTime   time.Time
	FilledTime   time.Time // zero until filled
}

// TradeRecord is an immutable fill record.
type TradeRecord struct {
	TradeID     string
	OrderID     string
	AccountID   string
	Symbol      string
	Side        string
	Price       float64
	Volume      int64
	Commission  float64
	RealizedPnL float64
	TradeTime   time.Time
}

// EquityRecord is one equity-curve snapshot, unique per (account, timestamp).
type EquityRecord struct {
	AccountID     string
	Time          time.Time
	TotalAssets   float64
	Cash          float64
	MarketValue   float64
	Drawdown      float64 // drawdown so far, fraction of the running peak
	PositionCount int
}

// Journal is the persistence seam. Implementations must tolerate repeated
// RecordAccount/RecordPosition/RecordOrder calls for the same key (upsert).
type Journal interface {
	RecordAccount(AccountRecord) error
	RecordPosition(PositionRecord) error
	RecordOrder(OrderRecord) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquityRecord) error
	Close() error
}

// Nop discards everything. Useful default for tests and pure in-memory runs.
type Nop struct{}

func (Nop) RecordAccount(AccountRecord) error   { return nil }
func (Nop) RecordPosition(PositionRecord) error { return nil }
func (Nop) RecordOrder(OrderRecord) error       { return nil }
func (Nop) RecordTrade(TradeRecord) error       { return nil }
func (Nop) RecordEquity(EquityRecord) error     { return nil }
func (Nop) Close() error                        { return nil }
