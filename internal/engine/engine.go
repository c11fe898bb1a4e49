// Package engine runs the trading session: a market-data loop feeding price
// history, an offset decision loop turning momentum into orders, and a fill
// reconciliation loop keeping positions honest against the venue.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oysmal/emoji-stock-trader/internal/interfaces"
	"github.com/oysmal/emoji-stock-trader/internal/ledger"
	"github.com/oysmal/emoji-stock-trader/internal/logger"
	"github.com/oysmal/emoji-stock-trader/internal/market"
	"github.com/oysmal/emoji-stock-trader/internal/orders"
	"github.com/oysmal/emoji-stock-trader/internal/store"
	"github.com/oysmal/emoji-stock-trader/internal/ta"
	"github.com/oysmal/emoji-stock-trader/internal/tradelog"
	"github.com/oysmal/emoji-stock-trader/internal/types"
)

type Engine struct {
	cfg       *store.Config
	exchange  interfaces.Exchange
	sentiment interfaces.SentimentSource
	history   *market.History
	ledger    *ledger.Ledger
	book      *orders.Book
	exec      *executor
	rec       *reconciler
	state     *sessionState

	dataPoll       time.Duration
	decisionOffset time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
}

func newEngine(cfg *store.Config, exchange interfaces.Exchange, sentiment interfaces.SentimentSource) *Engine {
	history := market.NewHistory(cfg.History.Capacity)
	ldg := ledger.New()
	book := orders.NewBook()

	return &Engine{
		cfg:            cfg,
		exchange:       exchange,
		sentiment:      sentiment,
		history:        history,
		ledger:         ldg,
		book:           book,
		exec:           newExecutor(exchange, ldg, book, cfg),
		rec: newReconciler(exchange, ldg, book,
			time.Duration(cfg.Session.FillPollSeconds)*time.Second,
			time.Duration(cfg.Session.FillBackoffSeconds)*time.Second,
			cfg.Session.ReconcileEvery),
		state:          newSessionState(uuid.NewString()),
		dataPoll:       time.Duration(cfg.Session.DataPollSeconds) * time.Second,
		decisionOffset: time.Duration(cfg.Session.DecisionOffsetSeconds) * time.Second,
	}
}

// Start launches the session loops. Calling Start on a running engine is a
// no-op.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.markRunning() {
		logger.Debug(ctx, "Start ignored, session already running")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); e.dataLoop(runCtx) }()
	go func() { defer wg.Done(); e.decisionLoop(runCtx) }()
	go func() { defer wg.Done(); e.rec.run(runCtx) }()
	go func(done chan struct{}) {
		wg.Wait()
		e.state.markStopped()
		close(done)
	}(e.done)

	logger.Info(ctx, "Session started",
		"symbols", e.cfg.Symbols,
		"max_orders", e.cfg.Session.MaxOrders,
		"data_poll", e.dataPoll,
		"decision_offset", e.decisionOffset,
	)
	return nil
}

// Stop cancels the session and waits for the loops to wind down, or for the
// caller's context to give up. Safe to call repeatedly and before Start.
func (e *Engine) Stop(ctx context.Context) {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	select {
	case <-done:
		logger.Info(ctx, "Session stopped")
	case <-ctx.Done():
		logger.Warn(ctx, "Gave up waiting for session loops to stop")
	}
}

// Status returns a point-in-time snapshot. P&L marks open positions at the
// freshest recorded mid; with any held symbol unmarked the estimate is
// flagged unavailable instead of guessed.
func (e *Engine) Status() types.SessionStatus {
	marks := make(map[string]float64)
	for symbol := range e.ledger.Positions() {
		if point, ok := e.history.Latest(symbol); ok {
			marks[symbol] = point.Mid
		}
	}
	pnl, valid := e.ledger.Valuation(marks)
	return e.state.snapshot(pnl, valid)
}

// haltSession ends the running session from inside a loop.
func (e *Engine) haltSession() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// dataLoop refreshes market data every poll interval, starting immediately.
func (e *Engine) dataLoop(ctx context.Context) {
	ticker := time.NewTicker(e.dataPoll)
	defer ticker.Stop()

	e.refreshMarketData(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.refreshMarketData(ctx)
		}
	}
}

// refreshMarketData polls every symbol's book once. One symbol failing must
// not starve the others of data.
func (e *Engine) refreshMarketData(ctx context.Context) {
	for _, symbol := range e.cfg.Symbols {
		if ctx.Err() != nil {
			return
		}

		top, err := e.exchange.TopOfBook(ctx, symbol)
		if err != nil {
			logger.Warn(ctx, "Market data poll failed", "symbol", symbol, "error", err)
			continue
		}
		mid, ok := top.Mid()
		if !ok {
			logger.Debug(ctx, "Book one-sided, no mid price", "symbol", symbol)
			continue
		}

		point := types.PricePoint{Symbol: symbol, Ts: time.Now().UTC(), Mid: mid}
		if err := e.history.Record(point); err != nil {
			logger.ErrorWithErr(ctx, "Rejected corrupt price point", err, "symbol", symbol)
		}
	}
}

// decisionLoop runs at the data cadence but offset from it, so decisions
// read a freshly updated history instead of racing the poll that writes it.
func (e *Engine) decisionLoop(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(e.decisionOffset):
	}

	ticker := time.NewTicker(e.dataPoll)
	defer ticker.Stop()

	e.decide(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.decide(ctx)
		}
	}
}

// decide evaluates every symbol once and attempts at most one order each.
func (e *Engine) decide(ctx context.Context) {
	params := ta.Params{
		Threshold:  e.cfg.Signal.Threshold,
		Lookback:   e.cfg.Signal.LookbackSamples,
		MinSamples: e.cfg.Signal.MinSamples,
		Policy:     e.cfg.Signal.DegradedPolicy,
	}

	for _, symbol := range e.cfg.Symbols {
		if ctx.Err() != nil {
			return
		}

		sig, err := ta.Evaluate(e.history.Snapshot(symbol), params)
		if err != nil {
			logger.ErrorWithErr(ctx, "Signal evaluation failed", err, "symbol", symbol)
			continue
		}
		if sig == nil {
			continue
		}
		logger.Debug(ctx, "Signal derived",
			"symbol", symbol, "side", sig.Side, "confidence", sig.Confidence, "reason", sig.Reason)

		if e.vetoedBySentiment(ctx, sig) {
			_ = tradelog.AppendSignal(tradelog.SignalEntry{
				Symbol: symbol, Side: string(sig.Side),
				Confidence: sig.Confidence, Reason: sig.Reason + " | vetoed by news",
			})
			continue
		}

		top, err := e.exchange.TopOfBook(ctx, symbol)
		if err != nil {
			logger.Warn(ctx, "Decision skipped, no fresh book", "symbol", symbol, "error", err)
			continue
		}

		order, placed, err := e.exec.execute(ctx, sig, top)
		_ = tradelog.AppendSignal(tradelog.SignalEntry{
			Symbol: symbol, Side: string(sig.Side),
			Confidence: sig.Confidence, Reason: sig.Reason, Acted: placed,
		})
		if err != nil || !placed {
			// Submission failures are already logged; both cases end the
			// symbol's cycle.
			continue
		}

		total := e.state.recordOrder(sig.Side, types.TradeMark{
			Symbol:     symbol,
			Quantity:   order.Quantity,
			LimitPrice: order.LimitPrice,
			At:         order.PlacedAt,
		})
		if total >= e.cfg.Session.MaxOrders {
			logger.Info(ctx, "Session order limit reached, halting",
				"orders", total, "limit", e.cfg.Session.MaxOrders)
			e.haltSession()
			return
		}
	}
}

// vetoedBySentiment drops a signal when venue news leans hard against it.
// No sentiment source, no data and lookup errors all mean no veto.
func (e *Engine) vetoedBySentiment(ctx context.Context, sig *types.TradingSignal) bool {
	if e.sentiment == nil {
		return false
	}
	s, err := e.sentiment.SentimentFor(ctx, sig.Symbol)
	if err != nil || s == nil {
		return false
	}

	against := (sig.Side == types.SideBuy && s.OverallScore <= -0.5) ||
		(sig.Side == types.SideSell && s.OverallScore >= 0.5)
	if against {
		logger.Info(ctx, "Signal vetoed by news sentiment",
			"symbol", sig.Symbol, "side", sig.Side, "score", s.OverallScore)
	}
	return against
}
