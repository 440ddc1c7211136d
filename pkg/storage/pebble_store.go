package storage

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/uhyunpark/exchange/pkg/core"
)

// PebbleStore backs the order/trade/user stores with a pebble database.
// Live order identity stays in memory (the engine, the books and the lock
// table all share one *Order per id); pebble holds the write-through JSON
// record of every mutation and repopulates the memory maps at open.
type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db}, nil
}

// NewPebbleStoreWithOptions opens pebble with caller-supplied options.
// Tests use this with an in-memory filesystem.
func NewPebbleStoreWithOptions(path string, opts *pebble.Options) (*PebbleStore, error) {
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

func (s *PebbleStore) set(key, val []byte) error {
	return s.db.Set(key, val, pebble.Sync)
}

// loadPrefix calls fn with every value stored under prefix.
func (s *PebbleStore) loadPrefix(prefix string, fn func(val []byte) error) error {
	lower, upper := prefixBounds(prefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// PebbleOrderStore implements core.OrderStore on a PebbleStore.
type PebbleOrderStore struct {
	store *PebbleStore

	mu     sync.RWMutex
	orders map[string]*core.Order
}

func (s *PebbleStore) Orders() (*PebbleOrderStore, error) {
	os := &PebbleOrderStore{store: s, orders: make(map[string]*core.Order)}
	err := s.loadPrefix("o:", func(val []byte) error {
		var snap core.OrderSnapshot
		if err := decodeJSON(val, &snap); err != nil {
			return fmt.Errorf("decode order record: %w", err)
		}
		o := core.FromSnapshot(snap)
		os.orders[o.ID] = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return os, nil
}

func (s *PebbleOrderStore) writeThrough(o *core.Order) error {
	val, err := encodeJSON(o.Snapshot())
	if err != nil {
		return err
	}
	return s.store.set(orderKey(o.ID), val)
}

func (s *PebbleOrderStore) Save(o *core.Order) error {
	s.mu.Lock()
	s.orders[o.ID] = o
	s.mu.Unlock()
	return s.writeThrough(o)
}

func (s *PebbleOrderStore) Find(id string) (*core.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	return o, ok
}

func (s *PebbleOrderStore) FindByUser(userID string) ([]*core.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *PebbleOrderStore) FindAll() ([]*core.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out, nil
}

func (s *PebbleOrderStore) Update(o *core.Order) error {
	s.mu.RLock()
	_, ok := s.orders[o.ID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return s.writeThrough(o)
}

var _ core.OrderStore = (*PebbleOrderStore)(nil)

// PebbleTradeStore implements the append-only trade log on pebble. User
// queries join through the order store.
type PebbleTradeStore struct {
	store  *PebbleStore
	orders core.OrderStore

	mu     sync.RWMutex
	trades []*core.Trade
}

func (s *PebbleStore) Trades(orders core.OrderStore) (*PebbleTradeStore, error) {
	ts := &PebbleTradeStore{store: s, orders: orders}
	err := s.loadPrefix("t:", func(val []byte) error {
		var t core.Trade
		if err := decodeJSON(val, &t); err != nil {
			return fmt.Errorf("decode trade record: %w", err)
		}
		ts.trades = append(ts.trades, &t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ts, nil
}

func (s *PebbleTradeStore) Add(t *core.Trade) error {
	val, err := encodeJSON(t)
	if err != nil {
		return err
	}
	if err := s.store.set(tradeKey(t.ID), val); err != nil {
		return err
	}
	s.mu.Lock()
	s.trades = append(s.trades, t)
	s.mu.Unlock()
	return nil
}

func (s *PebbleTradeStore) FindBySymbol(symbol string) ([]*core.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.Trade
	for _, t := range s.trades {
		if t.Symbol == symbol {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *PebbleTradeStore) FindByUser(userID string) ([]*core.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.Trade
	for _, t := range s.trades {
		if s.ownedBy(t, userID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *PebbleTradeStore) ownedBy(t *core.Trade, userID string) bool {
	if o, ok := s.orders.Find(t.BuyOrderID); ok && o.UserID == userID {
		return true
	}
	if o, ok := s.orders.Find(t.SellOrderID); ok && o.UserID == userID {
		return true
	}
	return false
}

var _ core.TradeStore = (*PebbleTradeStore)(nil)

// PebbleUserStore implements core.UserStore on pebble.
type PebbleUserStore struct {
	store *PebbleStore

	mu    sync.RWMutex
	users map[string]*core.User
}

func (s *PebbleStore) Users() (*PebbleUserStore, error) {
	us := &PebbleUserStore{store: s, users: make(map[string]*core.User)}
	err := s.loadPrefix("u:", func(val []byte) error {
		var u core.User
		if err := decodeJSON(val, &u); err != nil {
			return fmt.Errorf("decode user record: %w", err)
		}
		us.users[u.ID] = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return us, nil
}

func (s *PebbleUserStore) Add(u *core.User) error {
	val, err := encodeJSON(u)
	if err != nil {
		return err
	}
	if err := s.store.set(userKey(u.ID), val); err != nil {
		return err
	}
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
	return nil
}

func (s *PebbleUserStore) Find(id string) (*core.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *PebbleUserStore) Exists(id string) bool {
	_, ok := s.Find(id)
	return ok
}

var _ core.UserStore = (*PebbleUserStore)(nil)
