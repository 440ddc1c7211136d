package storage

import (
	"sync"

	"github.com/uhyunpark/exchange/pkg/core"
)

// MemOrderStore keeps live orders in a mutex-guarded map. Insert is atomic
// per key and update is last-write-wins, which is all the engine assumes.
type MemOrderStore struct {
	mu     sync.RWMutex
	orders map[string]*core.Order
}

func NewMemOrderStore() *MemOrderStore {
	return &MemOrderStore{orders: make(map[string]*core.Order)}
}

func (s *MemOrderStore) Save(o *core.Order) error {
	s.mu.Lock()
	s.orders[o.ID] = o
	s.mu.Unlock()
	return nil
}

func (s *MemOrderStore) Find(id string) (*core.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	return o, ok
}

func (s *MemOrderStore) FindByUser(userID string) ([]*core.Order, error) {
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

func (s *MemOrderStore) FindAll() ([]*core.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out, nil
}

// Update re-saves the order. The map already holds the live pointer, so the
// write only matters when the order came from a reload.
func (s *MemOrderStore) Update(o *core.Order) error {
	s.mu.Lock()
	if _, ok := s.orders[o.ID]; ok {
		s.orders[o.ID] = o
	}
	s.mu.Unlock()
	return nil
}

var _ core.OrderStore = (*MemOrderStore)(nil)

// MemTradeStore is the append-only in-memory trade log. User queries join
// through the order store: a trade belongs to a user when either side's
// order does.
type MemTradeStore struct {
	mu     sync.RWMutex
	trades []*core.Trade
	orders core.OrderStore
}

func NewMemTradeStore(orders core.OrderStore) *MemTradeStore {
	return &MemTradeStore{orders: orders}
}

func (s *MemTradeStore) Add(t *core.Trade) error {
	s.mu.Lock()
	s.trades = append(s.trades, t)
	s.mu.Unlock()
	return nil
}

func (s *MemTradeStore) FindBySymbol(symbol string) ([]*core.Trade, error) {
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

func (s *MemTradeStore) FindByUser(userID string) ([]*core.Trade, error) {
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

func (s *MemTradeStore) ownedBy(t *core.Trade, userID string) bool {
	if o, ok := s.orders.Find(t.BuyOrderID); ok && o.UserID == userID {
		return true
	}
	if o, ok := s.orders.Find(t.SellOrderID); ok && o.UserID == userID {
		return true
	}
	return false
}

func (s *MemTradeStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trades)
}

var _ core.TradeStore = (*MemTradeStore)(nil)

// MemUserStore holds registered users.
type MemUserStore struct {
	mu    sync.RWMutex
	users map[string]*core.User
}

func NewMemUserStore() *MemUserStore {
	return &MemUserStore{users: make(map[string]*core.User)}
}

func (s *MemUserStore) Add(u *core.User) error {
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
	return nil
}

func (s *MemUserStore) Find(id string) (*core.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *MemUserStore) Exists(id string) bool {
	_, ok := s.Find(id)
	return ok
}

var _ core.UserStore = (*MemUserStore)(nil)
