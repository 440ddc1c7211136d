package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSnapshot is an immutable view of an order, safe to serialize or hand
// to callers without exposing the live entity.
type OrderSnapshot struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Symbol       string          `json:"symbol"`
	Side         Side            `json:"side"`
	Kind         Kind            `json:"kind"`
	Price        decimal.Decimal `json:"price"`
	Quantity     decimal.Decimal `json:"quantity"`
	TriggerPrice decimal.Decimal `json:"trigger_price"`
	Status       Status          `json:"status"`
	Triggered    bool            `json:"triggered"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

// Snapshot captures the order's current state under its internal mutex.
func (o *Order) Snapshot() OrderSnapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return OrderSnapshot{
		ID:           o.ID,
		UserID:       o.UserID,
		Symbol:       o.Symbol,
		Side:         o.Side,
		Kind:         o.Kind,
		Price:        o.price,
		Quantity:     o.qty,
		TriggerPrice: o.TriggerPrice,
		Status:       o.status,
		Triggered:    o.triggered,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.updatedAt,
		ExpiresAt:    o.ExpiresAt,
	}
}

// FromSnapshot rebuilds a live order from a stored snapshot. Used by durable
// stores when reloading state at startup.
func FromSnapshot(s OrderSnapshot) *Order {
	return &Order{
		ID:           s.ID,
		UserID:       s.UserID,
		Symbol:       s.Symbol,
		Side:         s.Side,
		Kind:         s.Kind,
		CreatedAt:    s.CreatedAt,
		ExpiresAt:    s.ExpiresAt,
		TriggerPrice: s.TriggerPrice,
		price:        s.Price,
		qty:          s.Quantity,
		status:       s.Status,
		updatedAt:    s.UpdatedAt,
		triggered:    s.Triggered,
	}
}
