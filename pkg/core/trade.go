package core

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

var tradeSeq atomic.Int64

// Trade records one crossing event. Immutable once created; the trade log
// is append-only.
type Trade struct {
	ID          string          `json:"id"`
	BuyOrderID  string          `json:"buy_order_id"`
	SellOrderID string          `json:"sell_order_id"`
	Symbol      string          `json:"symbol"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	ExecutedAt  time.Time       `json:"executed_at"`
}

// NewTrade builds a trade between a buy and a sell order at the given
// execution price and quantity. The sides must match, which the matching
// loop guarantees by construction.
func NewTrade(buy, sell *Order, price, qty decimal.Decimal) (*Trade, error) {
	if buy.Side != Buy || sell.Side != Sell {
		return nil, fmt.Errorf("%w: trade requires a buy and a sell order", ErrInvalidOrder)
	}
	return &Trade{
		ID:          fmt.Sprintf("TRD-%d", tradeSeq.Add(1)),
		BuyOrderID:  buy.ID,
		SellOrderID: sell.ID,
		Symbol:      buy.Symbol,
		Price:       price,
		Quantity:    qty,
		ExecutedAt:  time.Now(),
	}, nil
}
