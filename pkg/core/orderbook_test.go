package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testOrder(t *testing.T, symbol string, side Side, price, qty string) *Order {
	t.Helper()
	return NewOrder("user-1", symbol, side, d(price), d(qty), DefaultExpiry)
}

// sequenced bumps CreatedAt so that orders created in one test have a
// strict FIFO order even when the clock does not advance between calls.
func sequenced(orders ...*Order) {
	base := time.Now()
	for i, o := range orders {
		o.CreatedAt = base.Add(time.Duration(i) * time.Millisecond)
	}
}

func TestOrderBookAddRouting(t *testing.T) {
	book, err := NewOrderBook("RELIANCE")
	if err != nil {
		t.Fatalf("new book: %v", err)
	}

	buy := testOrder(t, "RELIANCE", Buy, "100", "10")
	sell := testOrder(t, "RELIANCE", Sell, "110", "10")
	sl := NewStopLoss("user-1", "RELIANCE", Sell, d("95"), d("5"), d("96"), DefaultExpiry)
	tp := NewTakeProfit("user-1", "RELIANCE", Buy, d("105"), d("5"), d("104"), DefaultExpiry)

	for _, o := range []*Order{buy, sell, sl, tp} {
		if err := book.Add(o); err != nil {
			t.Fatalf("add %s: %v", o.ID, err)
		}
	}

	if got := book.BestBid(); !got.Equal(d("100")) {
		t.Errorf("best bid = %s, want 100", got)
	}
	if got := book.BestAsk(); !got.Equal(d("110")) {
		t.Errorf("best ask = %s, want 110", got)
	}
	if book.Size() != 4 {
		t.Errorf("size = %d, want 4", book.Size())
	}
	// Conditional orders must not sit in the active queues.
	if book.HasCrossing() {
		t.Error("pending conditional orders must not cross")
	}
}

func TestOrderBookAddErrors(t *testing.T) {
	book, _ := NewOrderBook("RELIANCE")

	if err := book.Add(nil); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("nil order: got %v, want ErrInvalidOrder", err)
	}
	wrong := testOrder(t, "TCS", Buy, "100", "10")
	if err := book.Add(wrong); !errors.Is(err, ErrSymbolMismatch) {
		t.Errorf("wrong symbol: got %v, want ErrSymbolMismatch", err)
	}
	if _, err := NewOrderBook("  "); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("blank symbol book: got %v, want ErrInvalidOrder", err)
	}
}

func TestOrderBookRemoveIdempotent(t *testing.T) {
	book, _ := NewOrderBook("RELIANCE")
	o := testOrder(t, "RELIANCE", Buy, "100", "10")
	if err := book.Add(o); err != nil {
		t.Fatal(err)
	}

	book.Remove(o)
	if book.Contains(o.ID) {
		t.Error("order still present after remove")
	}
	book.Remove(o) // absent: no-op
	book.Remove(nil)
	if book.Size() != 0 {
		t.Errorf("size = %d, want 0", book.Size())
	}
}

func TestOrderBookEmptySentinels(t *testing.T) {
	book, _ := NewOrderBook("RELIANCE")
	if !book.BestBid().IsZero() || !book.BestAsk().IsZero() {
		t.Error("empty book must report zero best prices")
	}
	if book.PeekBestBuy() != nil || book.PeekBestSell() != nil {
		t.Error("empty book must peek nil")
	}
	if book.HasCrossing() {
		t.Error("empty book must not cross")
	}
}

func TestOrderBookPriceTimePriority(t *testing.T) {
	book, _ := NewOrderBook("RELIANCE")

	first := testOrder(t, "RELIANCE", Buy, "100", "10")
	second := testOrder(t, "RELIANCE", Buy, "100", "10")
	higher := testOrder(t, "RELIANCE", Buy, "101", "10")
	sequenced(first, second, higher)

	for _, o := range []*Order{second, higher, first} {
		if err := book.Add(o); err != nil {
			t.Fatal(err)
		}
	}

	if got := book.PeekBestBuy(); got.ID != higher.ID {
		t.Fatalf("head = %s, want %s (best price first)", got.ID, higher.ID)
	}
	book.Remove(higher)
	if got := book.PeekBestBuy(); got.ID != first.ID {
		t.Fatalf("head = %s, want %s (earlier creation wins the tie)", got.ID, first.ID)
	}
}

func TestOrderBookCrossing(t *testing.T) {
	tests := []struct {
		name     string
		bid, ask string
		want     bool
	}{
		{"bid above ask", "100", "90", true},
		{"bid equals ask", "100", "100", true},
		{"bid below ask", "90", "100", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book, _ := NewOrderBook("RELIANCE")
			if err := book.Add(testOrder(t, "RELIANCE", Buy, tt.bid, "10")); err != nil {
				t.Fatal(err)
			}
			if err := book.Add(testOrder(t, "RELIANCE", Sell, tt.ask, "10")); err != nil {
				t.Fatal(err)
			}
			if got := book.HasCrossing(); got != tt.want {
				t.Errorf("HasCrossing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPromoteTriggeredStopLoss(t *testing.T) {
	book, _ := NewOrderBook("RELIANCE")

	slBuy := NewStopLoss("user-1", "RELIANCE", Buy, d("94"), d("5"), d("95"), DefaultExpiry)
	if err := book.Add(slBuy); err != nil {
		t.Fatal(err)
	}

	// Above the trigger: stays pending.
	book.PromoteTriggered(d("96"))
	if book.PeekBestBuy() != nil {
		t.Fatal("stop-loss buy promoted before trigger price was reached")
	}

	// At the trigger: promoted into the active bids.
	book.PromoteTriggered(d("95"))
	head := book.PeekBestBuy()
	if head == nil || head.ID != slBuy.ID {
		t.Fatal("stop-loss buy not promoted at trigger price")
	}
	if !slBuy.Triggered() {
		t.Error("promoted order not marked triggered")
	}
}

func TestPromoteTriggeredTable(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		side    Side
		trigger string
		price   string
		want    bool
	}{
		{"stop-loss sell fires on rise", StopLoss, Sell, "105", "105", true},
		{"stop-loss sell holds below", StopLoss, Sell, "105", "104", false},
		{"take-profit buy fires on rise", TakeProfit, Buy, "110", "111", true},
		{"take-profit buy holds below", TakeProfit, Buy, "110", "109", false},
		{"take-profit sell fires on drop", TakeProfit, Sell, "80", "79", true},
		{"take-profit sell holds above", TakeProfit, Sell, "80", "81", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book, _ := NewOrderBook("RELIANCE")
			var o *Order
			if tt.kind == StopLoss {
				o = NewStopLoss("user-1", "RELIANCE", tt.side, d("100"), d("5"), d(tt.trigger), DefaultExpiry)
			} else {
				o = NewTakeProfit("user-1", "RELIANCE", tt.side, d("100"), d("5"), d(tt.trigger), DefaultExpiry)
			}
			if err := book.Add(o); err != nil {
				t.Fatal(err)
			}
			book.PromoteTriggered(d(tt.price))

			promoted := o.Triggered()
			if promoted != tt.want {
				t.Errorf("triggered = %v, want %v", promoted, tt.want)
			}
			var head *Order
			if tt.side == Buy {
				head = book.PeekBestBuy()
			} else {
				head = book.PeekBestSell()
			}
			if tt.want && (head == nil || head.ID != o.ID) {
				t.Error("promoted order missing from active queue")
			}
			if !tt.want && head != nil {
				t.Error("order promoted without trigger")
			}
		})
	}
}
