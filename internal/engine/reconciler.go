package engine

import (
	"context"
	"time"

	"github.com/oysmal/emoji-stock-trader/internal/interfaces"
	"github.com/oysmal/emoji-stock-trader/internal/ledger"
	"github.com/oysmal/emoji-stock-trader/internal/logger"
	"github.com/oysmal/emoji-stock-trader/internal/orders"
	"github.com/oysmal/emoji-stock-trader/internal/tradelog"
)

// reconciler polls the venue for fills, retires matched orders and feeds the
// ledger. Every reconcileEvery successful polls it also pulls the venue's
// portfolio and overwrites local positions with it.
type reconciler struct {
	exchange       interfaces.Exchange
	ledger         *ledger.Ledger
	book           *orders.Book
	pollEvery      time.Duration
	backoff        time.Duration
	reconcileEvery int

	// cursor and polls are touched only by the poll loop goroutine.
	cursor int64
	polls  int
}

// newReconciler creates a new fill reconciler starting from cursor zero.
func newReconciler(exchange interfaces.Exchange, ldg *ledger.Ledger, book *orders.Book, pollEvery, backoff time.Duration, reconcileEvery int) *reconciler {
	return &reconciler{
		exchange:       exchange,
		ledger:         ldg,
		book:           book,
		pollEvery:      pollEvery,
		backoff:        backoff,
		reconcileEvery: reconcileEvery,
	}
}

// run polls until the context is cancelled. A failed poll never stops the
// loop; it just waits the longer backoff interval before trying again.
func (r *reconciler) run(ctx context.Context) {
	for {
		wait := r.pollEvery
		if err := r.pollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.ErrorWithErr(ctx, "Fill poll failed, backing off", err,
				"cursor", r.cursor, "backoff", r.backoff)
			wait = r.backoff
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// pollOnce fetches and processes fills past the cursor. The cursor advances
// only after a successful fetch, so a failed poll replays nothing and loses
// nothing.
func (r *reconciler) pollOnce(ctx context.Context) error {
	fills, next, err := r.exchange.FillsSince(ctx, r.cursor)
	if err != nil {
		return err
	}

	for _, fill := range fills {
		if order, present := r.book.Remove(fill.OrderID); present {
			logger.Info(ctx, "Order filled",
				"order_id", order.OrderID,
				"symbol", fill.Symbol,
				"side", fill.Side,
				"qty", fill.Quantity,
				"price", fill.Price,
			)
		} else {
			// Normal for redelivered fills or orders retired by an earlier
			// poll.
			logger.Debug(ctx, "Fill for untracked order",
				"order_id", fill.OrderID, "fill_id", fill.ID)
		}

		applied, err := r.ledger.ApplyFill(ctx, fill)
		if err != nil {
			logger.ErrorWithErr(ctx, "Discarding corrupt fill", err, "fill_id", fill.ID)
			continue
		}
		if applied {
			_ = tradelog.AppendFill(tradelog.FillEntry{
				FillID:  fill.ID,
				OrderID: fill.OrderID,
				Symbol:  fill.Symbol,
				Side:    string(fill.Side),
				Qty:     fill.Quantity,
				Price:   fill.Price,
				Seq:     fill.Seq,
			})
		}
	}

	r.cursor = next
	r.polls++
	if r.reconcileEvery > 0 && r.polls%r.reconcileEvery == 0 {
		r.reconcilePositions(ctx)
	}
	return nil
}

// reconcilePositions overwrites local positions with the venue's holdings.
// If the venue is unreachable the ledger keeps its local values and the
// failure is reported, nothing more.
func (r *reconciler) reconcilePositions(ctx context.Context) {
	holdings, err := r.exchange.PortfolioPositions(ctx)
	if err != nil {
		logger.Warn(ctx, "Reconciliation skipped, venue unreachable", "error", err)
		return
	}

	mismatches := r.ledger.Reconcile(ctx, holdings)
	if len(mismatches) > 0 {
		logger.Warn(ctx, "Reconciliation corrected positions", "mismatches", len(mismatches))
	} else {
		logger.Debug(ctx, "Reconciliation clean", "symbols", len(holdings))
	}
}
