package interfaces

import (
	"context"

	"github.com/oysmal/emoji-stock-trader/internal/types"
)

// Engine is the trading session lifecycle. Start and Stop are idempotent;
// Status is a non-blocking snapshot safe to call from any goroutine.
type Engine interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
	Status() types.SessionStatus
}
