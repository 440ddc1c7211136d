package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/exchange/params"
	"github.com/uhyunpark/exchange/pkg/core"
	"github.com/uhyunpark/exchange/pkg/service"
	"github.com/uhyunpark/exchange/pkg/storage"
	"github.com/uhyunpark/exchange/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("")

	var logger *zap.Logger
	var err error
	if cfg.LogFile != "" {
		logger, err = util.NewLoggerWithFile(cfg.LogFile)
	} else {
		logger, err = util.NewLogger()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// ---- Stores: pebble when a path is configured, memory otherwise ----
	var (
		orders core.OrderStore
		trades core.TradeStore
		users  core.UserStore
	)
	if cfg.Storage.Path != "" {
		ps, err := storage.NewPebbleStore(cfg.Storage.Path)
		if err != nil {
			sugar.Fatalw("pebble_open_failed", "path", cfg.Storage.Path, "err", err)
		}
		defer ps.Close()
		po, err := ps.Orders()
		if err != nil {
			sugar.Fatalw("pebble_load_failed", "err", err)
		}
		pt, err := ps.Trades(po)
		if err != nil {
			sugar.Fatalw("pebble_load_failed", "err", err)
		}
		pu, err := ps.Users()
		if err != nil {
			sugar.Fatalw("pebble_load_failed", "err", err)
		}
		orders, trades, users = po, pt, pu
		sugar.Infow("store_opened", "backend", "pebble", "path", cfg.Storage.Path)
	} else {
		mo := storage.NewMemOrderStore()
		orders, trades, users = mo, storage.NewMemTradeStore(mo), storage.NewMemUserStore()
		sugar.Infow("store_opened", "backend", "memory")
	}

	// ---- Engine, market data, expiry sweep ----
	engine := core.NewEngine(orders, trades, sugar)
	market := core.NewMarketData(engine, cfg.Engine.PriceCheckInterval, util.RealClock{}, sugar)
	engine.AttachMarket(market)
	market.Start()

	sweeper := core.NewExpirySweeper(engine, orders, cfg.Engine.ExpirySweepInterval, util.RealClock{}, sugar)
	sweeper.Start()

	trading := service.NewTrading(engine, users, orders, trades, cfg.Engine.DefaultOrderExpiry, sugar)

	runDemo(trading, market, sugar)

	// ---- Graceful shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sweeper.Stop(ctx); err != nil {
		sugar.Warnw("sweeper_stop_timeout", "err", err)
	}
	if err := market.Stop(ctx); err != nil {
		sugar.Warnw("market_stop_timeout", "err", err)
	}
	sugar.Infow("shutdown_complete")
}

// runDemo walks the engine through the full order lifecycle on one symbol.
func runDemo(trading *service.Trading, market *core.MarketData, sugar *zap.SugaredLogger) {
	alice, err := trading.RegisterUser("Alice", "alice@example.com")
	if err != nil {
		sugar.Fatalw("demo_failed", "err", err)
	}
	bob, err := trading.RegisterUser("Bob", "bob@example.com")
	if err != nil {
		sugar.Fatalw("demo_failed", "err", err)
	}

	d := decimal.RequireFromString

	// Crossing pair: trades at the resting sell's price.
	if _, err := trading.PlaceOrder(alice.ID, "RELIANCE", core.Buy, d("100"), d("10")); err != nil {
		sugar.Fatalw("demo_failed", "err", err)
	}
	if _, err := trading.PlaceOrder(bob.ID, "RELIANCE", core.Sell, d("90"), d("10")); err != nil {
		sugar.Fatalw("demo_failed", "err", err)
	}

	// Stop-loss buy: pending until an execution at or below 85.
	if _, err := trading.PlaceStopLoss(alice.ID, "RELIANCE", core.Buy, d("84"), d("5"), d("85")); err != nil {
		sugar.Fatalw("demo_failed", "err", err)
	}
	market.SetPrice("RELIANCE", d("85"))

	// Resting order, modified, then cancelled.
	resting, err := trading.PlaceOrder(bob.ID, "RELIANCE", core.Sell, d("120"), d("3"))
	if err != nil {
		sugar.Fatalw("demo_failed", "err", err)
	}
	newPrice := d("118")
	if err := trading.ModifyOrder(resting.ID, &newPrice, nil); err != nil {
		sugar.Fatalw("demo_failed", "err", err)
	}
	if err := trading.CancelOrder(resting.ID); err != nil {
		sugar.Fatalw("demo_failed", "err", err)
	}

	if summary, err := trading.MarketSummary("RELIANCE"); err == nil {
		sugar.Infow("market_summary", "summary", summary.String())
	}
	if ts, err := trading.SymbolTrades("RELIANCE"); err == nil {
		for _, t := range ts {
			sugar.Infow("trade_history",
				"trade", t.ID, "price", t.Price, "qty", t.Quantity,
				"buy", t.BuyOrderID, "sell", t.SellOrderID)
		}
	}
}
