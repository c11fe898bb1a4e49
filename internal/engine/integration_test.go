package engine

import (
	"context"
	"testing"
	"time"

	"github.com/oysmal/emoji-stock-trader/internal/budget"
	"github.com/oysmal/emoji-stock-trader/internal/exchange"
)

// TestSessionAgainstSimulatedVenue runs the full engine against the dry-run
// venue: rising quotes derive buy signals, orders rest and fill, fills flow
// back through the reconciler, and the session halts itself at the order
// limit.
func TestSessionAgainstSimulatedVenue(t *testing.T) {
	if testing.Short() {
		t.Skip("session integration test")
	}

	sim := exchange.NewSim([]string{"🍌"},
		exchange.WithSeed(7),
		exchange.WithFillChance(1),
		exchange.WithDrift(0.01),
		exchange.WithNoise(0),
	)
	// Generous budget: the wiring is exercised, the cadence is not throttled.
	venue := exchange.WithBudget(sim, budget.New(500, time.Second))

	cfg := testConfig()
	cfg.Session.MaxOrders = 2
	cfg.Session.ReconcileEvery = 1
	cfg.Signal.LookbackSamples = 3
	cfg.Orders.BuyBudget = 10000

	e := newEngine(cfg, venue, nil)
	e.dataPoll = 20 * time.Millisecond
	e.decisionOffset = 10 * time.Millisecond
	e.rec.pollEvery = 10 * time.Millisecond
	e.rec.backoff = 20 * time.Millisecond

	ctx := context.Background()
	if err := e.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for e.Status().Running && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if e.Status().Running {
		stopCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		e.Stop(stopCtx)
		t.Fatal("session never reached its order limit")
	}

	status := e.Status()
	if status.OrdersPlaced != 2 {
		t.Errorf("expected 2 orders placed, got %d", status.OrdersPlaced)
	}
	if status.LastBuy == nil {
		t.Error("expected a last buy mark")
	}

	// The first order must have filled before the second could be placed,
	// so the ledger holds bananas and can mark them against recorded mids.
	if got := e.ledger.Position("🍌"); got <= 0 {
		t.Errorf("expected a long banana position, got %d", got)
	}
	if !status.PnLValid {
		t.Error("expected pnl valid with recorded mids")
	}

	// At most the final, still-resting order remains at the venue.
	if resting := sim.RestingCount(); resting > 1 {
		t.Errorf("expected at most one resting order, got %d", resting)
	}
}
