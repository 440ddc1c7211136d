package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/exchange/pkg/core"
)

// Error wraps a failed facade operation with its name.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Summary is the market data view for one symbol.
type Summary struct {
	Symbol  string
	BestBid decimal.Decimal
	BestAsk decimal.Decimal
}

func (s Summary) String() string {
	return fmt.Sprintf("Symbol: %s, Best Bid: %s, Best Ask: %s", s.Symbol, s.BestBid, s.BestAsk)
}

// Trading is the facade over the matching engine and the persistence
// collaborators: it validates input before anything reaches the engine and
// wraps failures with the operation that produced them.
type Trading struct {
	engine *core.Engine
	users  core.UserStore
	orders core.OrderStore
	trades core.TradeStore
	expiry time.Duration
	log    *zap.SugaredLogger
}

func NewTrading(engine *core.Engine, users core.UserStore, orders core.OrderStore, trades core.TradeStore, expiry time.Duration, log *zap.SugaredLogger) *Trading {
	return &Trading{
		engine: engine,
		users:  users,
		orders: orders,
		trades: trades,
		expiry: expiry,
		log:    log,
	}
}

// RegisterUser creates and stores a user after checking name and email are
// present.
func (t *Trading) RegisterUser(name, email string) (*core.User, error) {
	const op = "register user"
	if strings.TrimSpace(name) == "" {
		return nil, wrap(op, fmt.Errorf("name must not be empty"))
	}
	if strings.TrimSpace(email) == "" {
		return nil, wrap(op, fmt.Errorf("email must not be empty"))
	}
	u := core.NewUser(name, email)
	if err := t.users.Add(u); err != nil {
		return nil, wrap(op, err)
	}
	t.log.Infow("user_registered", "user", u.ID, "name", u.Name)
	return u, nil
}

func (t *Trading) validateOrderInput(userID, symbol string, price, qty decimal.Decimal) error {
	if !t.users.Exists(userID) {
		return fmt.Errorf("%w: user %s not found", core.ErrInvalidOrder, userID)
	}
	if err := core.ValidateSymbol(symbol); err != nil {
		return err
	}
	if err := core.ValidatePrice(price); err != nil {
		return err
	}
	return core.ValidateQuantity(qty)
}

// PlaceOrder validates, builds and submits a market order.
func (t *Trading) PlaceOrder(userID, symbol string, side core.Side, price, qty decimal.Decimal) (*core.Order, error) {
	const op = "place order"
	if err := t.validateOrderInput(userID, symbol, price, qty); err != nil {
		return nil, wrap(op, err)
	}
	o := core.NewOrder(userID, symbol, side, price, qty, t.expiry)
	if err := t.engine.Submit(o); err != nil {
		return nil, wrap(op, err)
	}
	return o, nil
}

// PlaceStopLoss validates, builds and submits a stop-loss order that stays
// pending until an execution price crosses trigger.
func (t *Trading) PlaceStopLoss(userID, symbol string, side core.Side, price, qty, trigger decimal.Decimal) (*core.Order, error) {
	const op = "place stop-loss order"
	if err := t.validateOrderInput(userID, symbol, price, qty); err != nil {
		return nil, wrap(op, err)
	}
	if err := core.ValidatePrice(trigger); err != nil {
		return nil, wrap(op, err)
	}
	o := core.NewStopLoss(userID, symbol, side, price, qty, trigger, t.expiry)
	if err := t.engine.Submit(o); err != nil {
		return nil, wrap(op, err)
	}
	return o, nil
}

// PlaceTakeProfit is the take-profit counterpart of PlaceStopLoss.
func (t *Trading) PlaceTakeProfit(userID, symbol string, side core.Side, price, qty, trigger decimal.Decimal) (*core.Order, error) {
	const op = "place take-profit order"
	if err := t.validateOrderInput(userID, symbol, price, qty); err != nil {
		return nil, wrap(op, err)
	}
	if err := core.ValidatePrice(trigger); err != nil {
		return nil, wrap(op, err)
	}
	o := core.NewTakeProfit(userID, symbol, side, price, qty, trigger, t.expiry)
	if err := t.engine.Submit(o); err != nil {
		return nil, wrap(op, err)
	}
	return o, nil
}

func (t *Trading) CancelOrder(orderID string) error {
	return wrap("cancel order", t.engine.Cancel(orderID))
}

func (t *Trading) ModifyOrder(orderID string, newPrice, newQty *decimal.Decimal) error {
	return wrap("modify order", t.engine.Modify(orderID, newPrice, newQty))
}

func (t *Trading) UserOrders(userID string) ([]*core.Order, error) {
	out, err := t.orders.FindByUser(userID)
	return out, wrap("get user orders", err)
}

func (t *Trading) UserTrades(userID string) ([]*core.Trade, error) {
	out, err := t.trades.FindByUser(userID)
	return out, wrap("get user trades", err)
}

func (t *Trading) SymbolTrades(symbol string) ([]*core.Trade, error) {
	out, err := t.trades.FindBySymbol(symbol)
	return out, wrap("get symbol trades", err)
}

// MarketSummary reports best bid and ask for a symbol. Zero prices mean the
// corresponding side of the book is empty.
func (t *Trading) MarketSummary(symbol string) (Summary, error) {
	book, ok := t.engine.Book(symbol)
	if !ok {
		return Summary{}, wrap("get market data", fmt.Errorf("%w: %s", core.ErrBookMissing, symbol))
	}
	return Summary{Symbol: symbol, BestBid: book.BestBid(), BestAsk: book.BestAsk()}, nil
}
