package core

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Kind distinguishes plain orders from conditional ones that rest in a
// pending queue until a trigger price is crossed.
type Kind string

const (
	Market     Kind = "MARKET"
	StopLoss   Kind = "STOP_LOSS"
	TakeProfit Kind = "TAKE_PROFIT"
)

// Status is the lifecycle state of an order. Transitions are
// Open -> Executed (remaining quantity hits zero) or Open -> Cancelled,
// never reversed.
type Status string

const (
	Open      Status = "OPEN"
	Executed  Status = "EXECUTED"
	Cancelled Status = "CANCELLED"
)

// DefaultExpiry is how long an order stays on the book before the expiry
// sweeper cancels it, unless the caller overrides it.
const DefaultExpiry = 5 * time.Minute

var orderSeq atomic.Int64

// Order is a resting or pending order. Identity fields are immutable after
// construction; price, quantity and status change only under the order's
// lock from the lock table, and sit behind an internal mutex so that
// concurrent readers (sweeper, stores, queries) see consistent values.
type Order struct {
	ID        string
	UserID    string
	Symbol    string
	Side      Side
	Kind      Kind
	CreatedAt time.Time
	ExpiresAt time.Time

	// TriggerPrice is set iff Kind is StopLoss or TakeProfit.
	TriggerPrice decimal.Decimal

	mu        sync.RWMutex
	price     decimal.Decimal
	qty       decimal.Decimal
	status    Status
	updatedAt time.Time
	triggered bool
}

// NewOrder creates an Open market order with a fresh id from the
// process-wide sequence and an expiry of now+expiry.
func NewOrder(userID, symbol string, side Side, price, qty decimal.Decimal, expiry time.Duration) *Order {
	now := time.Now()
	return &Order{
		ID:        fmt.Sprintf("ORD-%d", orderSeq.Add(1)),
		UserID:    userID,
		Symbol:    symbol,
		Side:      side,
		Kind:      Market,
		CreatedAt: now,
		ExpiresAt: now.Add(expiry),
		price:     price,
		qty:       qty,
		status:    Open,
		updatedAt: now,
	}
}

// NewStopLoss creates a stop-loss order that activates once an execution
// price crosses trigger (buy: price <= trigger, sell: price >= trigger).
func NewStopLoss(userID, symbol string, side Side, price, qty, trigger decimal.Decimal, expiry time.Duration) *Order {
	o := NewOrder(userID, symbol, side, price, qty, expiry)
	o.Kind = StopLoss
	o.TriggerPrice = trigger
	return o
}

// NewTakeProfit creates a take-profit order that activates once an execution
// price crosses trigger (buy: price >= trigger, sell: price <= trigger).
func NewTakeProfit(userID, symbol string, side Side, price, qty, trigger decimal.Decimal, expiry time.Duration) *Order {
	o := NewOrder(userID, symbol, side, price, qty, expiry)
	o.Kind = TakeProfit
	o.TriggerPrice = trigger
	return o
}

func (o *Order) Price() decimal.Decimal {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.price
}

func (o *Order) Quantity() decimal.Decimal {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.qty
}

func (o *Order) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

func (o *Order) UpdatedAt() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.updatedAt
}

// IsActive reports whether the order is still Open.
func (o *Order) IsActive() bool {
	return o.Status() == Open
}

// IsExpired reports whether the order's expiry deadline has passed.
func (o *Order) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// Triggered reports whether a conditional order has been promoted to an
// active queue. Always false for market orders.
func (o *Order) Triggered() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.triggered
}

// MarkTriggered records the promotion of a conditional order so that a
// later re-insert (modify) lands in the active queue, not the pending one.
func (o *Order) MarkTriggered() {
	o.mu.Lock()
	o.triggered = true
	o.mu.Unlock()
}

// UpdatePrice replaces the limit price.
func (o *Order) UpdatePrice(p decimal.Decimal) {
	o.mu.Lock()
	o.price = p
	o.updatedAt = time.Now()
	o.mu.Unlock()
}

// UpdateQuantity replaces the remaining quantity. A zero quantity marks the
// order Executed.
func (o *Order) UpdateQuantity(q decimal.Decimal) {
	o.mu.Lock()
	o.qty = q
	o.updatedAt = time.Now()
	if q.IsZero() {
		o.status = Executed
	}
	o.mu.Unlock()
}

// Fill decrements the remaining quantity by qty. Reaching exactly zero
// transitions the order to Executed. qty must not exceed the remainder;
// the matching loop guarantees this by taking the pairwise minimum.
func (o *Order) Fill(qty decimal.Decimal) {
	o.mu.Lock()
	o.qty = o.qty.Sub(qty)
	o.updatedAt = time.Now()
	if o.qty.IsZero() {
		o.status = Executed
	}
	o.mu.Unlock()
}

// Cancel transitions the order to Cancelled.
func (o *Order) Cancel() {
	o.mu.Lock()
	o.status = Cancelled
	o.updatedAt = time.Now()
	o.mu.Unlock()
}
