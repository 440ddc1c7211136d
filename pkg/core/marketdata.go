package core

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/exchange/pkg/util"
)

// MarketData tracks the last execution price per symbol and acts as the
// optional external trigger source: prices pushed via SetPrice, or replayed
// by the periodic re-check loop, promote pending conditional orders through
// the engine. The core matching loop does not depend on it; fills promote
// triggers on their own.
type MarketData struct {
	engine   *Engine
	interval time.Duration
	clock    util.Clock
	log      *zap.SugaredLogger

	mu   sync.RWMutex
	last map[string]decimal.Decimal

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewMarketData(engine *Engine, interval time.Duration, clock util.Clock, log *zap.SugaredLogger) *MarketData {
	return &MarketData{
		engine:   engine,
		interval: interval,
		clock:    clock,
		log:      log,
		last:     make(map[string]decimal.Decimal),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// record stores the latest execution price. Called by the engine on fills.
func (m *MarketData) record(symbol string, price decimal.Decimal) {
	m.mu.Lock()
	m.last[symbol] = price
	m.mu.Unlock()
}

// LastPrice returns the most recent price seen for symbol, if any.
func (m *MarketData) LastPrice(symbol string) (decimal.Decimal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.last[symbol]
	return p, ok
}

// SetPrice feeds an external reference price: pending conditional orders
// for the symbol are promoted and matching re-runs.
func (m *MarketData) SetPrice(symbol string, price decimal.Decimal) {
	m.record(symbol, price)
	m.engine.OnPrice(symbol, price)
	m.log.Debugw("price_updated", "symbol", symbol, "price", price)
}

// Start launches the periodic re-check loop, replaying each symbol's last
// price so that conditional orders submitted after the move still activate.
func (m *MarketData) Start() {
	go m.run()
}

func (m *MarketData) run() {
	defer close(m.done)
	for {
		select {
		case <-m.stop:
			return
		case <-m.clock.After(m.interval):
			m.recheck()
		}
	}
}

func (m *MarketData) recheck() {
	m.mu.RLock()
	prices := make(map[string]decimal.Decimal, len(m.last))
	for s, p := range m.last {
		prices[s] = p
	}
	m.mu.RUnlock()

	for symbol, price := range prices {
		m.engine.OnPrice(symbol, price)
	}
}

// Stop ends the re-check loop; the wait for an in-flight pass is bounded
// by ctx.
func (m *MarketData) Stop(ctx context.Context) error {
	m.stopOnce.Do(func() { close(m.stop) })
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
