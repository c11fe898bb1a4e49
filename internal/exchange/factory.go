package exchange

import (
	"fmt"
	"time"

	"github.com/oysmal/emoji-stock-trader/internal/interfaces"
	"github.com/oysmal/emoji-stock-trader/internal/store"
)

// New creates the venue implementation for the configured mode: the live
// REST client in LIVE, the simulator in DRY_RUN. The apiKey may be blank in
// LIVE mode if the caller registers before trading.
func New(cfg *store.Config, apiKey string) (interfaces.Exchange, error) {
	switch cfg.Mode {
	case "LIVE":
		timeout := time.Duration(cfg.Exchange.TimeoutSeconds) * time.Second
		return NewClient(cfg.Exchange.BaseURL, apiKey, timeout), nil
	case "DRY_RUN":
		return NewSim(cfg.Symbols), nil
	default:
		return nil, fmt.Errorf("exchange: unknown mode %q", cfg.Mode)
	}
}
