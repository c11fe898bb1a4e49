package interfaces

import (
	"context"

	"github.com/oysmal/emoji-stock-trader/internal/types"
)

// Exchange is the venue boundary the engine trades through. Implementations
// are expected to rate-limit themselves; callers treat every method as a
// network suspension point.
type Exchange interface {
	Register(ctx context.Context, teamName string) (string, error)
	TopOfBook(ctx context.Context, symbol string) (types.TopOfBook, error)
	PortfolioPositions(ctx context.Context) (map[string]int64, error)
	SubmitLimitOrder(ctx context.Context, req types.OrderRequest) (types.TrackedOrder, error)
	FillsSince(ctx context.Context, cursor int64) ([]types.Fill, int64, error)
}
