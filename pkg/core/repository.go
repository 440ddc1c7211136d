package core

// Persistence collaborators. Implementations must be internally thread-safe
// with concurrent-map semantics: atomic single-key insert, last-write-wins
// update. The engine treats them as durable-in-memory.

type OrderStore interface {
	Save(o *Order) error
	Find(id string) (*Order, bool)
	FindByUser(userID string) ([]*Order, error)
	FindAll() ([]*Order, error)
	Update(o *Order) error
}

type TradeStore interface {
	Add(t *Trade) error
	FindBySymbol(symbol string) ([]*Trade, error)
	FindByUser(userID string) ([]*Trade, error)
}

type UserStore interface {
	Add(u *User) error
	Find(id string) (*User, bool)
	Exists(id string) bool
}
