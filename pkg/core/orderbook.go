package core

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// OrderBook holds the four priority orderings for one symbol: active buys
// (price descending), active sells (price ascending), pending stop-loss and
// pending take-profit (trigger price ascending). An open, un-triggered order
// lives in exactly one of them. The internal RWMutex guards structure only;
// order state mutation stays under the order's lock from the lock table.
type OrderBook struct {
	symbol string

	mu         sync.RWMutex
	bids       *orderQueue
	asks       *orderQueue
	stopLoss   *orderQueue
	takeProfit *orderQueue
}

func NewOrderBook(symbol string) (*OrderBook, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	return &OrderBook{
		symbol:     symbol,
		bids:       newOrderQueue(buyPriority),
		asks:       newOrderQueue(sellPriority),
		stopLoss:   newOrderQueue(triggerPriority),
		takeProfit: newOrderQueue(triggerPriority),
	}, nil
}

func (b *OrderBook) Symbol() string { return b.symbol }

// Add routes the order into its queue: conditional kinds rest in a pending
// queue until triggered, everything else goes active by side.
func (b *OrderBook) Add(o *Order) error {
	if o == nil {
		return fmt.Errorf("%w: order must not be nil", ErrInvalidOrder)
	}
	if o.Symbol != b.symbol {
		return fmt.Errorf("%w: got %s, book is %s", ErrSymbolMismatch, o.Symbol, b.symbol)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case o.Kind == StopLoss && !o.Triggered():
		b.stopLoss.push(o)
	case o.Kind == TakeProfit && !o.Triggered():
		b.takeProfit.push(o)
	case o.Side == Buy:
		b.bids.push(o)
	default:
		b.asks.push(o)
	}
	return nil
}

// Remove deletes the order from whichever queue holds it. Removing an
// absent order is a no-op.
func (b *OrderBook) Remove(o *Order) {
	if o == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, q := range []*orderQueue{b.bids, b.asks, b.stopLoss, b.takeProfit} {
		if q.remove(o.ID) {
			return
		}
	}
}

// Contains reports whether the order id is currently in any queue.
func (b *OrderBook) Contains(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids.contains(id) || b.asks.contains(id) ||
		b.stopLoss.contains(id) || b.takeProfit.contains(id)
}

// BestBid returns the highest active buy price, or zero when there are none.
func (b *OrderBook) BestBid() decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if o := b.bids.peek(); o != nil {
		return o.Price()
	}
	return decimal.Zero
}

// BestAsk returns the lowest active sell price, or zero when there are none.
func (b *OrderBook) BestAsk() decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if o := b.asks.peek(); o != nil {
		return o.Price()
	}
	return decimal.Zero
}

// PeekBestBuy returns the top active buy order without removing it.
func (b *OrderBook) PeekBestBuy() *Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids.peek()
}

// PeekBestSell returns the top active sell order without removing it.
func (b *OrderBook) PeekBestSell() *Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.asks.peek()
}

// HasCrossing reports whether the best bid meets or beats the best ask.
func (b *OrderBook) HasCrossing() bool {
	_, _, ok := b.PeekCrossing()
	return ok
}

// PeekCrossing returns the head of each active queue when they cross.
// The read is optimistic: callers must lock both orders and re-validate
// before acting on the pair.
func (b *OrderBook) PeekCrossing() (buy, sell *Order, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	buy, sell = b.bids.peek(), b.asks.peek()
	if buy == nil || sell == nil {
		return nil, nil, false
	}
	if buy.Price().LessThan(sell.Price()) {
		return nil, nil, false
	}
	return buy, sell, true
}

// Size returns the total number of orders across all four queues.
func (b *OrderBook) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids.Len() + b.asks.Len() + b.stopLoss.Len() + b.takeProfit.Len()
}

// PromoteTriggered moves pending conditional orders whose trigger condition
// is satisfied by price into the active queues. Each scan stops at the first
// non-triggered head; promotion runs on every price event, so a deferred
// order is picked up by the next one.
func (b *OrderBook) PromoteTriggered(price decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		h := b.stopLoss.peek()
		if h == nil || !stopLossTriggered(h, price) {
			break
		}
		b.promote(b.stopLoss.pop())
	}
	for {
		h := b.takeProfit.peek()
		if h == nil || !takeProfitTriggered(h, price) {
			break
		}
		b.promote(b.takeProfit.pop())
	}
}

func (b *OrderBook) promote(o *Order) {
	o.MarkTriggered()
	if o.Side == Buy {
		b.bids.push(o)
	} else {
		b.asks.push(o)
	}
}

func stopLossTriggered(o *Order, price decimal.Decimal) bool {
	if o.Side == Buy {
		return price.LessThanOrEqual(o.TriggerPrice)
	}
	return price.GreaterThanOrEqual(o.TriggerPrice)
}

func takeProfitTriggered(o *Order, price decimal.Decimal) bool {
	if o.Side == Buy {
		return price.GreaterThanOrEqual(o.TriggerPrice)
	}
	return price.LessThanOrEqual(o.TriggerPrice)
}
