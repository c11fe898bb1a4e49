package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/oysmal/emoji-stock-trader/internal/ledger"
	"github.com/oysmal/emoji-stock-trader/internal/orders"
	"github.com/oysmal/emoji-stock-trader/internal/types"
)

func newTestReconciler(venue *fakeExchange) (*reconciler, *ledger.Ledger, *orders.Book) {
	ldg := ledger.New()
	book := orders.NewBook()
	rec := newReconciler(venue, ldg, book, 10*time.Second, 30*time.Second, 6)
	return rec, ldg, book
}

func TestPollAppliesFillsAndRetiresOrders(t *testing.T) {
	fill := types.Fill{
		ID: "fill-1", OrderID: "ord-1", Symbol: "🍌",
		Side: types.SideBuy, Quantity: 52, Price: 3.8, Seq: 7,
	}
	venue := &fakeExchange{
		fillsFn: func(ctx context.Context, cursor int64) ([]types.Fill, int64, error) {
			if cursor >= 7 {
				return nil, cursor, nil
			}
			return []types.Fill{fill}, 7, nil
		},
	}
	rec, ldg, book := newTestReconciler(venue)

	_ = book.Track(types.TrackedOrder{
		OrderID: "ord-1", Symbol: "🍌", Side: types.SideBuy,
		Quantity: 52, LimitPrice: 3.8, Status: types.OrderAccepted,
	})

	if err := rec.pollOnce(context.Background()); err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if got := ldg.Position("🍌"); got != 52 {
		t.Errorf("expected position 52, got %d", got)
	}
	if book.Count() != 0 {
		t.Errorf("expected filled order retired, book has %d", book.Count())
	}
	if rec.cursor != 7 {
		t.Errorf("expected cursor 7, got %d", rec.cursor)
	}
}

func TestPollAppliesRedeliveredFillOnce(t *testing.T) {
	fill := types.Fill{
		ID: "fill-1", OrderID: "ord-1", Symbol: "🍌",
		Side: types.SideBuy, Quantity: 10, Price: 4, Seq: 3,
	}
	// The venue redelivers the same fill on every poll, as if the cursor
	// were never honored.
	venue := &fakeExchange{
		fillsFn: func(ctx context.Context, cursor int64) ([]types.Fill, int64, error) {
			return []types.Fill{fill}, 3, nil
		},
	}
	rec, ldg, book := newTestReconciler(venue)

	_ = book.Track(types.TrackedOrder{
		OrderID: "ord-1", Symbol: "🍌", Side: types.SideBuy,
		Quantity: 10, LimitPrice: 4, Status: types.OrderAccepted,
	})

	for i := 0; i < 3; i++ {
		if err := rec.pollOnce(context.Background()); err != nil {
			t.Fatalf("poll %d failed: %v", i, err)
		}
	}
	if got := ldg.Position("🍌"); got != 10 {
		t.Errorf("expected duplicates ignored, position 10, got %d", got)
	}
	// The second removal finding nothing is benign, not an error.
	if book.Count() != 0 {
		t.Errorf("expected book empty after redeliveries, got %d", book.Count())
	}
}

func TestPollKeepsCursorOnError(t *testing.T) {
	callCount := 0
	venue := &fakeExchange{
		fillsFn: func(ctx context.Context, cursor int64) ([]types.Fill, int64, error) {
			callCount++
			if callCount == 1 {
				return nil, 99, fmt.Errorf("venue 500")
			}
			if cursor != 0 {
				t.Errorf("expected retry from cursor 0, got %d", cursor)
			}
			return []types.Fill{{
				ID: "fill-1", OrderID: "ord-1", Symbol: "🍌",
				Side: types.SideBuy, Quantity: 5, Price: 4, Seq: 1,
			}}, 1, nil
		},
	}
	rec, ldg, _ := newTestReconciler(venue)

	if err := rec.pollOnce(context.Background()); err == nil {
		t.Fatal("expected first poll to fail")
	}
	if rec.cursor != 0 {
		t.Fatalf("cursor must not advance on a failed fetch, got %d", rec.cursor)
	}

	if err := rec.pollOnce(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if rec.cursor != 1 {
		t.Errorf("expected cursor 1 after successful retry, got %d", rec.cursor)
	}
	if got := ldg.Position("🍌"); got != 5 {
		t.Errorf("expected position 5, got %d", got)
	}
}

func TestPollDiscardsCorruptFillAndContinues(t *testing.T) {
	venue := &fakeExchange{
		fillsFn: func(ctx context.Context, cursor int64) ([]types.Fill, int64, error) {
			if cursor >= 2 {
				return nil, cursor, nil
			}
			return []types.Fill{
				{ID: "", OrderID: "ord-x", Symbol: "🍌", Side: types.SideBuy, Quantity: 5, Price: 4, Seq: 1},
				{ID: "fill-2", OrderID: "ord-2", Symbol: "🍌", Side: types.SideBuy, Quantity: 7, Price: 4, Seq: 2},
			}, 2, nil
		},
	}
	rec, ldg, _ := newTestReconciler(venue)

	if err := rec.pollOnce(context.Background()); err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if got := ldg.Position("🍌"); got != 7 {
		t.Errorf("expected only the well-formed fill applied, got %d", got)
	}
	if rec.cursor != 2 {
		t.Errorf("expected cursor 2, got %d", rec.cursor)
	}
}

func TestReconcileCadenceOverwritesFromVenue(t *testing.T) {
	portfolioCalls := 0
	venue := &fakeExchange{
		fillsFn: func(ctx context.Context, cursor int64) ([]types.Fill, int64, error) {
			return nil, cursor, nil
		},
		positionsFn: func(ctx context.Context) (map[string]int64, error) {
			portfolioCalls++
			return map[string]int64{"🍌": 8, "🚀": 2}, nil
		},
	}
	ldg := ledger.New()
	book := orders.NewBook()
	rec := newReconciler(venue, ldg, book, 10*time.Second, 30*time.Second, 2)

	// Local book thinks 10 bananas; the venue says 8 and also knows about a
	// rocket position the engine never saw.
	_, _ = ldg.ApplyFill(context.Background(), types.Fill{
		ID: "f1", OrderID: "o1", Symbol: "🍌", Side: types.SideBuy, Quantity: 10, Price: 4, Seq: 1,
	})

	if err := rec.pollOnce(context.Background()); err != nil {
		t.Fatalf("poll 1 failed: %v", err)
	}
	if portfolioCalls != 0 {
		t.Fatalf("reconcile ran early, after %d polls", rec.polls)
	}
	if err := rec.pollOnce(context.Background()); err != nil {
		t.Fatalf("poll 2 failed: %v", err)
	}
	if portfolioCalls != 1 {
		t.Fatalf("expected reconcile on the second poll, got %d calls", portfolioCalls)
	}

	if got := ldg.Position("🍌"); got != 8 {
		t.Errorf("expected venue count 8 adopted, got %d", got)
	}
	if got := ldg.Position("🚀"); got != 2 {
		t.Errorf("expected unknown venue position adopted, got %d", got)
	}
}

func TestReconcileSkippedWhenVenueUnreachable(t *testing.T) {
	venue := &fakeExchange{
		fillsFn: func(ctx context.Context, cursor int64) ([]types.Fill, int64, error) {
			return nil, cursor, nil
		},
		positionsFn: func(ctx context.Context) (map[string]int64, error) {
			return nil, fmt.Errorf("venue 502")
		},
	}
	ldg := ledger.New()
	rec := newReconciler(venue, ldg, orders.NewBook(), 10*time.Second, 30*time.Second, 1)

	_, _ = ldg.ApplyFill(context.Background(), types.Fill{
		ID: "f1", OrderID: "o1", Symbol: "🍌", Side: types.SideBuy, Quantity: 10, Price: 4, Seq: 1,
	})

	if err := rec.pollOnce(context.Background()); err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if got := ldg.Position("🍌"); got != 10 {
		t.Errorf("local positions must survive an unreachable venue, got %d", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	venue := &fakeExchange{
		fillsFn: func(ctx context.Context, cursor int64) ([]types.Fill, int64, error) {
			return nil, cursor, nil
		},
	}
	rec, _, _ := newTestReconciler(venue)
	rec.pollEvery = 5 * time.Millisecond
	rec.backoff = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rec.run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not stop after cancel")
	}
	if rec.polls == 0 {
		t.Error("expected at least one poll before cancel")
	}
}
