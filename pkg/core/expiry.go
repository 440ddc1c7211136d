package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/uhyunpark/exchange/pkg/util"
)

// ExpirySweeper periodically cancels open orders whose expiry deadline has
// passed. Expiry is best-effort: an order closed by a concurrent fill or
// cancel between enumeration and the cancel call is a benign race, logged
// and skipped, never an error of the sweep.
type ExpirySweeper struct {
	engine   *Engine
	orders   OrderStore
	interval time.Duration
	clock    util.Clock
	log      *zap.SugaredLogger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewExpirySweeper(engine *Engine, orders OrderStore, interval time.Duration, clock util.Clock, log *zap.SugaredLogger) *ExpirySweeper {
	return &ExpirySweeper{
		engine:   engine,
		orders:   orders,
		interval: interval,
		clock:    clock,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. It runs until Stop is called.
func (s *ExpirySweeper) Start() {
	go s.run()
}

func (s *ExpirySweeper) run() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case <-s.clock.After(s.interval):
			s.sweep()
		}
	}
}

func (s *ExpirySweeper) sweep() {
	all, err := s.orders.FindAll()
	if err != nil {
		s.log.Errorw("expiry_sweep_failed", "err", err)
		return
	}
	now := s.clock.Now()
	for _, o := range all {
		if !o.IsActive() || !o.IsExpired(now) {
			continue
		}
		if err := s.engine.Cancel(o.ID); err != nil {
			if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrInactiveOrder) {
				// Closed concurrently between enumeration and cancel.
				s.log.Debugw("expired_order_already_closed", "order", o.ID)
				continue
			}
			s.log.Warnw("expired_order_cancel_failed", "order", o.ID, "err", err)
			continue
		}
		s.log.Infow("expired_order_cancelled", "order", o.ID, "symbol", o.Symbol)
	}
}

// Stop ends the loop: no new sweeps start, an in-flight sweep finishes, and
// the wait for it is bounded by ctx.
func (s *ExpirySweeper) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
