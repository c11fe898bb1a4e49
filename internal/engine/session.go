package engine

import (
	"sync"
	"time"

	"github.com/oysmal/emoji-stock-trader/internal/types"
)

// sessionState holds the mutable counters for one trading session. Only the
// orchestrator mutates it; everyone else reads point-in-time snapshots.
type sessionState struct {
	sessionID    string
	startedAt    time.Time
	ordersPlaced int
	lastBuy      *types.TradeMark
	lastSell     *types.TradeMark
	running      bool
	mu           sync.Mutex
}

func newSessionState(sessionID string) *sessionState {
	return &sessionState{sessionID: sessionID}
}

// markRunning flips the session to running and stamps the start time.
// Returns false if it was already running.
func (s *sessionState) markRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	s.startedAt = time.Now().UTC()
	return true
}

func (s *sessionState) markStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

func (s *sessionState) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// recordOrder notes a successfully placed order and returns the new total.
func (s *sessionState) recordOrder(side types.Side, mark types.TradeMark) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ordersPlaced++
	switch side {
	case types.SideBuy:
		s.lastBuy = &mark
	case types.SideSell:
		s.lastSell = &mark
	}
	return s.ordersPlaced
}

// snapshot renders the current state with the caller-supplied P&L estimate.
func (s *sessionState) snapshot(pnl float64, pnlValid bool) types.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := types.SessionStatus{
		SessionID:    s.sessionID,
		OrdersPlaced: s.ordersPlaced,
		PnL:          pnl,
		PnLValid:     pnlValid,
		Running:      s.running,
	}
	if !s.startedAt.IsZero() {
		status.Elapsed = time.Since(s.startedAt)
	}
	if s.lastBuy != nil {
		buy := *s.lastBuy
		status.LastBuy = &buy
	}
	if s.lastSell != nil {
		sell := *s.lastSell
		status.LastSell = &sell
	}
	return status
}
