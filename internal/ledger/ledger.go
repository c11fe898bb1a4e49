// Package ledger tracks net share positions per symbol from observed fills
// and keeps them honest against exchange-reported holdings.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/oysmal/emoji-stock-trader/internal/logger"
	"github.com/oysmal/emoji-stock-trader/internal/metrics"
	"github.com/oysmal/emoji-stock-trader/internal/types"
)

// account is the per-symbol book. Each account has its own lock so fills for
// one symbol never wait on another symbol's update.
type account struct {
	qty      int64
	cashFlow float64             // sells add, buys subtract
	seen     map[string]struct{} // fill ids already applied
	mu       sync.Mutex
}

// Ledger holds one account per symbol. The outer lock guards only the map
// and is never held while an account is being read or written.
type Ledger struct {
	accounts map[string]*account
	mu       sync.RWMutex
}

// Discrepancy records a reconciliation mismatch that was corrected.
type Discrepancy struct {
	Symbol   string
	Local    int64
	Exchange int64
}

func New() *Ledger {
	return &Ledger{accounts: make(map[string]*account)}
}

func (l *Ledger) account(symbol string) *account {
	l.mu.RLock()
	a, exists := l.accounts[symbol]
	l.mu.RUnlock()
	if exists {
		return a
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if a, exists = l.accounts[symbol]; exists {
		return a
	}
	a = &account{seen: make(map[string]struct{})}
	l.accounts[symbol] = a
	return a
}

// ApplyFill adjusts the position for a fill. Redelivered fills are detected
// by fill id and ignored, so replaying the same fill changes the position
// exactly once. Returns whether the fill was applied.
func (l *Ledger) ApplyFill(ctx context.Context, fill types.Fill) (bool, error) {
	if fill.ID == "" || fill.Symbol == "" {
		return false, fmt.Errorf("ledger: fill with blank id or symbol: %+v", fill)
	}
	if fill.Quantity <= 0 {
		return false, fmt.Errorf("ledger: fill %s has non-positive quantity %d", fill.ID, fill.Quantity)
	}
	if fill.Side != types.SideBuy && fill.Side != types.SideSell {
		return false, fmt.Errorf("ledger: fill %s has unknown side %q", fill.ID, fill.Side)
	}

	a := l.account(fill.Symbol)
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, dup := a.seen[fill.ID]; dup {
		logger.Debug(ctx, "Duplicate fill ignored", "fillId", fill.ID, "symbol", fill.Symbol)
		metrics.DuplicateFillsTotal.Inc()
		return false, nil
	}
	a.seen[fill.ID] = struct{}{}

	switch fill.Side {
	case types.SideBuy:
		a.qty += fill.Quantity
		a.cashFlow -= float64(fill.Quantity) * fill.Price
	case types.SideSell:
		a.qty -= fill.Quantity
		a.cashFlow += float64(fill.Quantity) * fill.Price
	}

	metrics.FillsTotal.WithLabelValues(fill.Symbol, string(fill.Side)).Inc()
	return true, nil
}

// Position returns the current net share count for the symbol.
func (l *Ledger) Position(symbol string) int64 {
	l.mu.RLock()
	a, exists := l.accounts[symbol]
	l.mu.RUnlock()
	if !exists {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.qty
}

// Positions returns a snapshot of all non-zero positions.
func (l *Ledger) Positions() map[string]int64 {
	out := make(map[string]int64)
	for _, symbol := range l.symbols() {
		if qty := l.Position(symbol); qty != 0 {
			out[symbol] = qty
		}
	}
	return out
}

// Reconcile overwrites local positions with the exchange-reported holdings.
// The exchange is authoritative: every mismatch is corrected and reported
// back, never silently dropped. Symbols the exchange reports that we have
// never tracked are adopted; tracked symbols absent from the report are
// zeroed.
func (l *Ledger) Reconcile(ctx context.Context, holdings map[string]int64) []Discrepancy {
	symbols := make(map[string]struct{}, len(holdings))
	for s := range holdings {
		symbols[s] = struct{}{}
	}
	for _, s := range l.symbols() {
		symbols[s] = struct{}{}
	}

	ordered := make([]string, 0, len(symbols))
	for s := range symbols {
		ordered = append(ordered, s)
	}
	sort.Strings(ordered)

	var mismatches []Discrepancy
	for _, symbol := range ordered {
		a := l.account(symbol)
		want := holdings[symbol]

		a.mu.Lock()
		got := a.qty
		if got != want {
			a.qty = want
			mismatches = append(mismatches, Discrepancy{Symbol: symbol, Local: got, Exchange: want})
		}
		a.mu.Unlock()

		if got != want {
			logger.Warn(ctx, "Position drift corrected from exchange",
				"symbol", symbol, "local", got, "exchange", want)
			metrics.ReconcileMismatchesTotal.WithLabelValues(symbol).Inc()
		}
	}
	return mismatches
}

// Valuation estimates session P&L as realized cash flow plus open positions
// marked at the given mid prices. The estimate is only valid when every held
// symbol has a positive mark; otherwise the caller should report P&L as
// unavailable rather than guess.
func (l *Ledger) Valuation(marks map[string]float64) (float64, bool) {
	pnl := 0.0
	valid := true
	for _, symbol := range l.symbols() {
		l.mu.RLock()
		a := l.accounts[symbol]
		l.mu.RUnlock()

		a.mu.Lock()
		qty, cash := a.qty, a.cashFlow
		a.mu.Unlock()

		pnl += cash
		if qty == 0 {
			continue
		}
		mark, ok := marks[symbol]
		if !ok || mark <= 0 {
			valid = false
			continue
		}
		pnl += float64(qty) * mark
	}
	return pnl, valid
}

func (l *Ledger) symbols() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.accounts))
	for s := range l.accounts {
		out = append(out, s)
	}
	return out
}
