// Package orders tracks exchange-acknowledged limit orders until a fill
// retires them.
package orders

import (
	"fmt"
	"sync"

	"github.com/oysmal/emoji-stock-trader/internal/types"
)

// Book stores open orders by exchange-assigned id. Both the executor (on
// placement) and the fill reconciler (on retirement) touch it, so all access
// goes through the lock; nothing here ever holds it across I/O.
type Book struct {
	open map[string]types.TrackedOrder
	mu   sync.RWMutex
}

func NewBook() *Book {
	return &Book{open: make(map[string]types.TrackedOrder)}
}

// Track starts tracking an acknowledged order. Re-tracking an already known
// id is a no-op. A blank id means the exchange acknowledgement was garbage
// and is rejected rather than stored.
func (b *Book) Track(order types.TrackedOrder) error {
	if order.OrderID == "" {
		return fmt.Errorf("orders: refusing to track order with blank id (%s %s)", order.Symbol, order.Side)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.open[order.OrderID]; exists {
		return nil
	}
	b.open[order.OrderID] = order
	return nil
}

// Remove stops tracking an order, returning it and whether it was present.
// Removing an unknown id is expected when fills arrive for orders already
// retired, so it reports absence instead of failing.
func (b *Book) Remove(orderID string) (types.TrackedOrder, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	order, exists := b.open[orderID]
	if exists {
		delete(b.open, orderID)
	}
	return order, exists
}

// Get returns the tracked order for the id, if any.
func (b *Book) Get(orderID string) (types.TrackedOrder, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	order, exists := b.open[orderID]
	return order, exists
}

// HasOpen reports whether any tracked order is outstanding for the symbol.
func (b *Book) HasOpen(symbol string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, order := range b.open {
		if order.Symbol == symbol {
			return true
		}
	}
	return false
}

// Count returns the number of tracked orders.
func (b *Book) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.open)
}

// Open returns a snapshot of all tracked orders.
func (b *Book) Open() []types.TrackedOrder {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]types.TrackedOrder, 0, len(b.open))
	for _, order := range b.open {
		out = append(out, order)
	}
	return out
}
