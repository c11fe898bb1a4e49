package exchange

import (
	"context"
	"fmt"

	"github.com/oysmal/emoji-stock-trader/internal/budget"
	"github.com/oysmal/emoji-stock-trader/internal/interfaces"
	"github.com/oysmal/emoji-stock-trader/internal/types"
)

// limitedExchange gates every outbound call behind the request budget so no
// caller can push the process past the venue's rate cap.
type limitedExchange struct {
	next   interfaces.Exchange
	budget *budget.Budget
}

// Compile-time interface check
var _ interfaces.Exchange = (*limitedExchange)(nil)

// WithBudget wraps an exchange so each call first acquires a request permit.
// Acquire only fails when the caller's context is cancelled while waiting.
func WithBudget(next interfaces.Exchange, b *budget.Budget) interfaces.Exchange {
	return &limitedExchange{next: next, budget: b}
}

func (l *limitedExchange) Register(ctx context.Context, teamName string) (string, error) {
	if err := l.budget.Acquire(ctx); err != nil {
		return "", fmt.Errorf("request budget: %w", err)
	}
	return l.next.Register(ctx, teamName)
}

func (l *limitedExchange) TopOfBook(ctx context.Context, symbol string) (types.TopOfBook, error) {
	if err := l.budget.Acquire(ctx); err != nil {
		return types.TopOfBook{}, fmt.Errorf("request budget: %w", err)
	}
	return l.next.TopOfBook(ctx, symbol)
}

func (l *limitedExchange) PortfolioPositions(ctx context.Context) (map[string]int64, error) {
	if err := l.budget.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("request budget: %w", err)
	}
	return l.next.PortfolioPositions(ctx)
}

func (l *limitedExchange) SubmitLimitOrder(ctx context.Context, req types.OrderRequest) (types.TrackedOrder, error) {
	if err := l.budget.Acquire(ctx); err != nil {
		return types.TrackedOrder{}, fmt.Errorf("request budget: %w", err)
	}
	return l.next.SubmitLimitOrder(ctx, req)
}

func (l *limitedExchange) FillsSince(ctx context.Context, cursor int64) ([]types.Fill, int64, error) {
	if err := l.budget.Acquire(ctx); err != nil {
		return nil, cursor, fmt.Errorf("request budget: %w", err)
	}
	return l.next.FillsSince(ctx, cursor)
}
