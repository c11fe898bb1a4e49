package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/oysmal/emoji-stock-trader/internal/budget"
	"github.com/oysmal/emoji-stock-trader/internal/types"
)

// countingExchange records how many calls reached the venue.
type countingExchange struct {
	calls int
}

func (c *countingExchange) Register(ctx context.Context, teamName string) (string, error) {
	c.calls++
	return "key", nil
}

func (c *countingExchange) TopOfBook(ctx context.Context, symbol string) (types.TopOfBook, error) {
	c.calls++
	return types.TopOfBook{Symbol: symbol, BestBid: 10, BestAsk: 10.1}, nil
}

func (c *countingExchange) PortfolioPositions(ctx context.Context) (map[string]int64, error) {
	c.calls++
	return map[string]int64{}, nil
}

func (c *countingExchange) SubmitLimitOrder(ctx context.Context, req types.OrderRequest) (types.TrackedOrder, error) {
	c.calls++
	return types.TrackedOrder{OrderID: "o1"}, nil
}

func (c *countingExchange) FillsSince(ctx context.Context, cursor int64) ([]types.Fill, int64, error) {
	c.calls++
	return nil, cursor, nil
}

func TestWithBudgetGatesCalls(t *testing.T) {
	venue := &countingExchange{}
	b := budget.New(2, time.Hour)
	ex := WithBudget(venue, b)
	ctx := context.Background()

	if _, err := ex.TopOfBook(ctx, "🍌"); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if _, err := ex.PortfolioPositions(ctx); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if venue.calls != 2 {
		t.Fatalf("expected 2 calls through, got %d", venue.calls)
	}

	// Bucket is empty and the window is an hour: the third call must block
	// until its context gives up, and must never reach the venue.
	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, _, err := ex.FillsSince(short, 0); err == nil {
		t.Fatal("expected context error once budget is exhausted")
	}
	if venue.calls != 2 {
		t.Errorf("blocked call must not reach the venue, got %d calls", venue.calls)
	}
	if b.TimesBlocked() == 0 {
		t.Error("expected blocked counter to grow")
	}
}
