package engine

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/oysmal/emoji-stock-trader/internal/interfaces"
	"github.com/oysmal/emoji-stock-trader/internal/ledger"
	"github.com/oysmal/emoji-stock-trader/internal/logger"
	"github.com/oysmal/emoji-stock-trader/internal/metrics"
	"github.com/oysmal/emoji-stock-trader/internal/orders"
	"github.com/oysmal/emoji-stock-trader/internal/store"
	"github.com/oysmal/emoji-stock-trader/internal/tradelog"
	"github.com/oysmal/emoji-stock-trader/internal/types"
)

// executor turns a signal plus the current top of book into at most one
// priced, sized limit order. Business conditions that stop an order (empty
// book side, nothing to sell, budget too small) are quiet non-actions, not
// errors; only submission failures surface as errors.
type executor struct {
	exchange interfaces.Exchange
	ledger   *ledger.Ledger
	book     *orders.Book
	cfg      *store.Config
}

// newExecutor creates a new order executor.
func newExecutor(exchange interfaces.Exchange, ldg *ledger.Ledger, book *orders.Book, cfg *store.Config) *executor {
	return &executor{
		exchange: exchange,
		ledger:   ldg,
		book:     book,
		cfg:      cfg,
	}
}

// execute attempts exactly one order for the signal.
//
// Returns:
//   - order: the acknowledged order when one was placed
//   - placed: whether an order was placed
//   - err: submission failure; nil for business rejections
func (oe *executor) execute(ctx context.Context, sig *types.TradingSignal, top types.TopOfBook) (types.TrackedOrder, bool, error) {
	if sig == nil {
		return types.TrackedOrder{}, false, nil
	}

	// One outstanding order per symbol. A second intent for the same symbol
	// waits for the first to fill or the next cycle.
	if oe.book.HasOpen(sig.Symbol) {
		return oe.reject(ctx, sig, "order already outstanding")
	}

	var qty int64
	var limit float64
	switch sig.Side {
	case types.SideBuy:
		if !top.HasAsk() {
			return oe.reject(ctx, sig, "no ask to price against")
		}
		limit = top.BestAsk * (1 - oe.cfg.Orders.BuyDiscount)
		qty = int64(math.Floor(oe.cfg.Orders.BuyBudget / limit))
		if qty <= 0 {
			return oe.reject(ctx, sig, "buy budget below one share")
		}
	case types.SideSell:
		position := oe.ledger.Position(sig.Symbol)
		if position <= 0 {
			return oe.reject(ctx, sig, "no position to sell")
		}
		if !top.HasBid() {
			return oe.reject(ctx, sig, "no bid to sell into")
		}
		qty = int64(math.Floor(float64(position) * oe.cfg.Orders.SellFraction))
		if qty < 1 {
			qty = 1
		}
		limit = top.BestBid
	default:
		return oe.reject(ctx, sig, "unknown side")
	}

	req := types.OrderRequest{
		Symbol:     sig.Symbol,
		Side:       sig.Side,
		Quantity:   qty,
		LimitPrice: limit,
		ClientRef:  uuid.NewString(),
	}
	order, err := oe.exchange.SubmitLimitOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErr(ctx, "Order submission failed", err,
			"symbol", sig.Symbol,
			"side", sig.Side,
			"qty", qty,
			"limit", limit,
		)
		metrics.OrderRejectionsTotal.WithLabelValues(sig.Symbol, "submit_error").Inc()
		return types.TrackedOrder{}, false, err
	}

	if err := oe.book.Track(order); err != nil {
		// The order is live at the venue but we cannot track it. Fills for
		// it will still reach the ledger; only the retire step is lost.
		logger.ErrorWithErr(ctx, "Acknowledged order could not be tracked", err,
			"symbol", sig.Symbol, "order_id", order.OrderID)
		return types.TrackedOrder{}, false, err
	}

	logger.Info(ctx, "Trade executed",
		"symbol", sig.Symbol,
		"side", sig.Side,
		"qty", qty,
		"limit", limit,
		"order_id", order.OrderID,
		"confidence", sig.Confidence,
	)
	_ = tradelog.AppendOrder(tradelog.OrderEntry{
		Symbol:     sig.Symbol,
		Side:       string(sig.Side),
		Qty:        qty,
		LimitPrice: limit,
		OrderID:    order.OrderID,
		Reason:     sig.Reason,
		Confidence: sig.Confidence,
	})
	metrics.OrdersTotal.WithLabelValues(sig.Symbol, string(sig.Side)).Inc()

	return order, true, nil
}

// reject records a business non-action and ends the cycle without touching
// the venue.
func (oe *executor) reject(ctx context.Context, sig *types.TradingSignal, reason string) (types.TrackedOrder, bool, error) {
	logger.Info(ctx, "Order skipped",
		"symbol", sig.Symbol,
		"side", sig.Side,
		"reason", reason,
		"confidence", sig.Confidence,
	)
	metrics.OrderRejectionsTotal.WithLabelValues(sig.Symbol, reason).Inc()
	return types.TrackedOrder{}, false, nil
}
