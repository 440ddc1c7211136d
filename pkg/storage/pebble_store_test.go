package storage

import (
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/uhyunpark/exchange/pkg/core"
)

func openMemPebble(t *testing.T, fs vfs.FS) *PebbleStore {
	t.Helper()
	s, err := NewPebbleStoreWithOptions("exchange-test", &pebble.Options{FS: fs})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	return s
}

func TestPebbleStoreRoundTrip(t *testing.T) {
	fs := vfs.NewMem()
	store := openMemPebble(t, fs)

	orders, err := store.Orders()
	if err != nil {
		t.Fatal(err)
	}
	users, err := store.Users()
	if err != nil {
		t.Fatal(err)
	}
	trades, err := store.Trades(orders)
	if err != nil {
		t.Fatal(err)
	}

	alice := core.NewUser("Alice", "alice@example.com")
	if err := users.Add(alice); err != nil {
		t.Fatal(err)
	}

	buy := core.NewStopLoss(alice.ID, "RELIANCE", core.Buy, d("94"), d("5"), d("95"), core.DefaultExpiry)
	sell := core.NewOrder("bob", "RELIANCE", core.Sell, d("94"), d("5"), core.DefaultExpiry)
	for _, o := range []*core.Order{buy, sell} {
		if err := orders.Save(o); err != nil {
			t.Fatal(err)
		}
	}
	buy.Fill(d("2"))
	if err := orders.Update(buy); err != nil {
		t.Fatal(err)
	}

	tr, err := core.NewTrade(buy, sell, d("94"), d("2"))
	if err != nil {
		t.Fatal(err)
	}
	if err := trades.Add(tr); err != nil {
		t.Fatal(err)
	}

	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopen on the same in-memory filesystem: everything reloads.
	store2 := openMemPebble(t, fs)
	defer store2.Close()

	orders2, err := store2.Orders()
	if err != nil {
		t.Fatal(err)
	}
	got, ok := orders2.Find(buy.ID)
	if !ok {
		t.Fatal("order lost across reopen")
	}
	if got.Kind != core.StopLoss || !got.TriggerPrice.Equal(d("95")) {
		t.Errorf("reloaded order = %s trigger %s, want STOP_LOSS trigger 95", got.Kind, got.TriggerPrice)
	}
	if !got.Quantity().Equal(d("3")) {
		t.Errorf("reloaded quantity = %s, want 3 (update persisted)", got.Quantity())
	}

	users2, err := store2.Users()
	if err != nil {
		t.Fatal(err)
	}
	if !users2.Exists(alice.ID) {
		t.Error("user lost across reopen")
	}

	trades2, err := store2.Trades(orders2)
	if err != nil {
		t.Fatal(err)
	}
	bySymbol, _ := trades2.FindBySymbol("RELIANCE")
	if len(bySymbol) != 1 || !bySymbol[0].Price.Equal(d("94")) {
		t.Errorf("reloaded trades = %v, want one at 94", bySymbol)
	}
	byUser, _ := trades2.FindByUser(alice.ID)
	if len(byUser) != 1 {
		t.Errorf("user join after reopen = %d trades, want 1", len(byUser))
	}
}

func TestPebbleOrderStoreIdentity(t *testing.T) {
	store := openMemPebble(t, vfs.NewMem())
	defer store.Close()

	orders, err := store.Orders()
	if err != nil {
		t.Fatal(err)
	}
	o := core.NewOrder("alice", "RELIANCE", core.Buy, d("100"), d("10"), core.DefaultExpiry)
	if err := orders.Save(o); err != nil {
		t.Fatal(err)
	}

	// The engine, books and lock table share one live pointer per id; the
	// store must hand back that same pointer, not a decoded copy.
	got, ok := orders.Find(o.ID)
	if !ok || got != o {
		t.Fatal("find must preserve order identity")
	}

	if err := orders.Update(core.NewOrder("x", "TCS", core.Buy, d("1"), d("1"), core.DefaultExpiry)); err != nil {
		t.Fatal(err)
	}
}
