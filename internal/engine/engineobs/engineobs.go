package engineobs

import (
	"context"
	"time"

	"github.com/oysmal/emoji-stock-trader/internal/interfaces"
	"github.com/oysmal/emoji-stock-trader/internal/logger"
	"github.com/oysmal/emoji-stock-trader/internal/trace"
	"github.com/oysmal/emoji-stock-trader/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Start(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "engine.Start")
	defer span.End()

	start := time.Now()
	logger.InfoSkip(ctx, 1, "Starting trading session")

	if err := oe.engine.Start(ctx); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to start trading session", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}

	logger.InfoSkip(ctx, 1, "Trading session running",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (oe *observableEngine) Stop(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "engine.Stop")
	defer span.End()

	start := time.Now()
	logger.InfoSkip(ctx, 1, "Stopping trading session")

	oe.engine.Stop(ctx)

	logger.InfoSkip(ctx, 1, "Trading session stopped",
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (oe *observableEngine) Status() types.SessionStatus {
	status := oe.engine.Status()

	logger.DebugSkip(context.Background(), 1, "Session status",
		"orders_placed", status.OrdersPlaced,
		"running", status.Running,
		"pnl", status.PnL,
		"pnl_valid", status.PnLValid,
	)
	return status
}
