// Package market keeps the in-memory view of venue market data: a bounded
// per-symbol history of observed mid prices that the signal evaluator reads
// newest-first.
package market

import (
	"fmt"
	"sync"

	"github.com/oysmal/emoji-stock-trader/internal/metrics"
	"github.com/oysmal/emoji-stock-trader/internal/types"
)

// ErrBadPrice marks a price point that cannot come from a healthy feed.
var ErrBadPrice = fmt.Errorf("market: non-positive price")

// History manages symbol-specific price buffers. Each buffer carries its own
// lock so slow readers of one symbol never stall writers of another; the
// outer lock only guards the buffer map and is never held during buffer
// access.
type History struct {
	buffers  map[string]*priceBuffer
	capacity int
	mu       sync.RWMutex
}

// priceBuffer stores recent price points oldest-to-newest.
type priceBuffer struct {
	points []types.PricePoint
	mu     sync.Mutex
}

// NewHistory creates a history holding at most capacity points per symbol.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		buffers:  make(map[string]*priceBuffer),
		capacity: capacity,
	}
}

// buffer returns the symbol's buffer, creating it on first use.
func (h *History) buffer(symbol string) *priceBuffer {
	h.mu.RLock()
	b, exists := h.buffers[symbol]
	h.mu.RUnlock()
	if exists {
		return b
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if b, exists = h.buffers[symbol]; exists {
		return b
	}
	b = &priceBuffer{points: make([]types.PricePoint, 0, h.capacity)}
	h.buffers[symbol] = b
	return b
}

// lookup returns the symbol's buffer without creating one.
func (h *History) lookup(symbol string) (*priceBuffer, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, exists := h.buffers[symbol]
	return b, exists
}

// Record appends a price point to its symbol's buffer, evicting the oldest
// point when the buffer is full. A non-positive mid is rejected: prices on
// this venue are strictly positive, so anything else is feed corruption and
// must not poison the signal window.
func (h *History) Record(point types.PricePoint) error {
	if point.Mid <= 0 {
		return fmt.Errorf("%w: %s at %.4f", ErrBadPrice, point.Symbol, point.Mid)
	}

	b := h.buffer(point.Symbol)
	b.mu.Lock()
	b.points = append(b.points, point)
	if len(b.points) > h.capacity {
		b.points = b.points[1:]
	}
	b.mu.Unlock()

	metrics.PricePointsTotal.WithLabelValues(point.Symbol).Inc()
	return nil
}

// Snapshot returns a newest-first copy of the symbol's points. The copy is
// the caller's to keep; later records do not mutate it.
func (h *History) Snapshot(symbol string) []types.PricePoint {
	b, exists := h.lookup(symbol)
	if !exists {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.points) == 0 {
		return nil
	}
	out := make([]types.PricePoint, len(b.points))
	for i, p := range b.points {
		out[len(out)-1-i] = p
	}
	return out
}

// Latest returns the most recent point for the symbol.
func (h *History) Latest(symbol string) (types.PricePoint, bool) {
	return h.At(symbol, 0)
}

// At returns the point index steps back from the newest one, so At(sym, 0)
// is the newest sample and At(sym, 10) the sample ten polls ago. A negative
// or out-of-range index yields no value rather than an error.
func (h *History) At(symbol string, index int) (types.PricePoint, bool) {
	if index < 0 {
		return types.PricePoint{}, false
	}
	b, exists := h.lookup(symbol)
	if !exists {
		return types.PricePoint{}, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if index >= len(b.points) {
		return types.PricePoint{}, false
	}
	return b.points[len(b.points)-1-index], true
}

// Len reports how many points the symbol currently holds.
func (h *History) Len(symbol string) int {
	b, exists := h.lookup(symbol)
	if !exists {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.points)
}

// Symbols lists every symbol with at least one recorded point.
func (h *History) Symbols() []string {
	h.mu.RLock()
	bufs := make(map[string]*priceBuffer, len(h.buffers))
	for symbol, b := range h.buffers {
		bufs[symbol] = b
	}
	h.mu.RUnlock()

	out := make([]string, 0, len(bufs))
	for symbol, b := range bufs {
		b.mu.Lock()
		n := len(b.points)
		b.mu.Unlock()
		if n > 0 {
			out = append(out, symbol)
		}
	}
	return out
}
