package interfaces

import (
	"context"

	"github.com/oysmal/emoji-stock-trader/internal/types"
)

// SentimentSource aggregates venue news sentiment for a symbol. Sources are
// advisory: a nil result or an error means no opinion, never a trading halt.
type SentimentSource interface {
	SentimentFor(ctx context.Context, symbol string) (*types.NewsSentiment, error)
}
