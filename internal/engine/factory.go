package engine

import (
	"github.com/oysmal/emoji-stock-trader/internal/interfaces"
	"github.com/oysmal/emoji-stock-trader/internal/store"
)

// New assembles a trading engine. The sentiment source may be nil when news
// analysis is disabled.
func New(cfg *store.Config, exchange interfaces.Exchange, sentiment interfaces.SentimentSource) interfaces.Engine {
	return newEngine(cfg, exchange, sentiment)
}
