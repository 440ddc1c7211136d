package core

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine owns one order book per symbol and runs the matching loop. All
// order state mutation happens under per-order locks from the lock table;
// two orders are always locked together in canonical id order, which keeps
// concurrent matching deadlock-free.
type Engine struct {
	mu    sync.RWMutex
	books map[string]*OrderBook

	locks  *LockTable
	orders OrderStore
	trades TradeStore
	market *MarketData
	log    *zap.SugaredLogger
}

func NewEngine(orders OrderStore, trades TradeStore, log *zap.SugaredLogger) *Engine {
	return &Engine{
		books:  make(map[string]*OrderBook),
		locks:  NewLockTable(),
		orders: orders,
		trades: trades,
		log:    log,
	}
}

// AttachMarket wires an optional market data tracker; the engine records
// every execution price on it. Call before concurrent use.
func (e *Engine) AttachMarket(m *MarketData) { e.market = m }

// Book returns the book for symbol, if one exists.
func (e *Engine) Book(symbol string) (*OrderBook, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.books[symbol]
	return b, ok
}

func (e *Engine) bookFor(symbol string) (*OrderBook, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok := e.books[symbol]; ok {
		return b, nil
	}
	b, err := NewOrderBook(symbol)
	if err != nil {
		return nil, err
	}
	e.books[symbol] = b
	return b, nil
}

// Submit validates the order, persists it, inserts it into its symbol's
// book (created on first use) and runs the matching loop.
func (e *Engine) Submit(o *Order) error {
	if o == nil {
		return fmt.Errorf("%w: order must not be nil", ErrInvalidOrder)
	}
	if err := ValidatePrice(o.Price()); err != nil {
		return err
	}
	if err := ValidateQuantity(o.Quantity()); err != nil {
		return err
	}

	book, err := e.bookFor(o.Symbol)
	if err != nil {
		return err
	}
	if err := e.orders.Save(o); err != nil {
		return fmt.Errorf("save order %s: %w", o.ID, err)
	}
	if err := book.Add(o); err != nil {
		return err
	}
	e.log.Infow("order_submitted",
		"order", o.ID, "user", o.UserID, "symbol", o.Symbol,
		"side", o.Side, "kind", o.Kind, "price", o.Price(), "qty", o.Quantity())

	e.match(book)
	return nil
}

// Cancel marks an open order cancelled and removes it from its book. The
// active check runs twice: once optimistically, once after the order's lock
// is held, because a concurrent fill may close the order in between.
func (e *Engine) Cancel(orderID string) error {
	o, ok := e.orders.Find(orderID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if !o.IsActive() {
		return fmt.Errorf("%w: %s", ErrInactiveOrder, orderID)
	}

	h := e.locks.Acquire(orderID)
	defer h.Release()

	if !o.IsActive() {
		return fmt.Errorf("%w: %s", ErrInactiveOrder, orderID)
	}
	o.Cancel()
	if err := e.orders.Update(o); err != nil {
		return fmt.Errorf("update order %s: %w", orderID, err)
	}
	if book, ok := e.Book(o.Symbol); ok {
		book.Remove(o)
	}
	e.log.Infow("order_cancelled", "order", o.ID, "symbol", o.Symbol)
	return nil
}

// Modify updates price and/or quantity of an open order. The order leaves
// its book for the duration of the change and the matching loop re-runs
// afterwards, since the new price may cross the book.
func (e *Engine) Modify(orderID string, newPrice, newQty *decimal.Decimal) error {
	if err := ValidateModify(newPrice, newQty); err != nil {
		return err
	}
	o, ok := e.orders.Find(orderID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if !o.IsActive() {
		return fmt.Errorf("%w: %s", ErrInactiveOrder, orderID)
	}

	h := e.locks.Acquire(orderID)
	book, err := e.applyModify(o, newPrice, newQty)
	h.Release()
	if err != nil {
		return err
	}

	e.match(book)
	return nil
}

// applyModify runs under the order's lock. The lock is released before the
// matching loop so the loop can re-acquire the order as part of a pair.
func (e *Engine) applyModify(o *Order, newPrice, newQty *decimal.Decimal) (*OrderBook, error) {
	if !o.IsActive() {
		return nil, fmt.Errorf("%w: %s", ErrInactiveOrder, o.ID)
	}
	book, ok := e.Book(o.Symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBookMissing, o.Symbol)
	}

	book.Remove(o)
	if newPrice != nil {
		o.UpdatePrice(*newPrice)
	}
	if newQty != nil {
		o.UpdateQuantity(*newQty)
	}
	if err := e.orders.Update(o); err != nil {
		return nil, fmt.Errorf("update order %s: %w", o.ID, err)
	}
	if err := book.Add(o); err != nil {
		return nil, err
	}
	e.log.Infow("order_modified",
		"order", o.ID, "price", o.Price(), "qty", o.Quantity())
	return book, nil
}

// OnPrice feeds an external reference price into the book: pending
// conditional orders are promoted and the matching loop re-runs.
func (e *Engine) OnPrice(symbol string, price decimal.Decimal) {
	book, ok := e.Book(symbol)
	if !ok {
		return
	}
	book.PromoteTriggered(price)
	e.match(book)
}

// match drains the book of crossing pairs. Each iteration peeks the two
// heads without committing, locks them in canonical order, then re-validates
// the pair: peek and lock are not atomic, so any concurrent fill, cancel or
// modify in the gap forces a retry against fresh heads.
func (e *Engine) match(book *OrderBook) {
	for {
		buy, sell, ok := book.PeekCrossing()
		if !ok {
			return
		}

		h := e.locks.AcquirePair(buy.ID, sell.ID)
		if !buy.IsActive() || !sell.IsActive() ||
			!book.Contains(buy.ID) || !book.Contains(sell.ID) ||
			buy.Price().LessThan(sell.Price()) {
			h.Release()
			continue
		}

		// The resting sell's price wins: the taker gets the maker's price.
		price := sell.Price()
		qty := decimal.Min(buy.Quantity(), sell.Quantity())

		trade, err := NewTrade(buy, sell, price, qty)
		if err != nil {
			h.Release()
			e.log.Errorw("trade_rejected", "buy", buy.ID, "sell", sell.ID, "err", err)
			return
		}
		if err := e.trades.Add(trade); err != nil {
			h.Release()
			e.log.Errorw("trade_persist_failed", "trade", trade.ID, "err", err)
			return
		}

		buy.Fill(qty)
		sell.Fill(qty)
		if !buy.IsActive() {
			book.Remove(buy)
		}
		if !sell.IsActive() {
			book.Remove(sell)
		}
		if err := e.orders.Update(buy); err != nil {
			e.log.Errorw("order_persist_failed", "order", buy.ID, "err", err)
		}
		if err := e.orders.Update(sell); err != nil {
			e.log.Errorw("order_persist_failed", "order", sell.ID, "err", err)
		}
		h.Release()

		e.log.Infow("trade_executed",
			"trade", trade.ID, "symbol", trade.Symbol,
			"buy", buy.ID, "sell", sell.ID, "price", price, "qty", qty)

		// A fill moves the reference price; it may activate conditional
		// orders that then participate in the next iteration.
		book.PromoteTriggered(price)
		if e.market != nil {
			e.market.record(book.Symbol(), price)
		}
	}
}
