package exchange

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oysmal/emoji-stock-trader/internal/interfaces"
	"github.com/oysmal/emoji-stock-trader/internal/types"
)

// Sim is the dry-run venue: random-walk quotes, probabilistic fills of
// resting orders, and an authoritative portfolio accumulated from those
// fills. It keeps the whole engine honest without touching the real
// exchange.
type Sim struct {
	rng        *rand.Rand
	books      map[string]float64 // symbol -> current mid
	resting    []types.TrackedOrder
	fills      []types.Fill
	holdings   map[string]int64
	seq        int64
	fillChance float64
	drift      float64
	noise      float64
	spread     float64
	mu         sync.Mutex
}

// Compile-time interface check
var _ interfaces.Exchange = (*Sim)(nil)

// SimOption tunes the simulator.
type SimOption func(*Sim)

// WithSeed makes the walk reproducible.
func WithSeed(seed int64) SimOption {
	return func(s *Sim) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithFillChance sets the probability that a resting order fills on each
// fill poll. 1 fills everything immediately, 0 never fills.
func WithFillChance(p float64) SimOption {
	return func(s *Sim) { s.fillChance = p }
}

// WithDrift applies a deterministic per-observation fractional drift to all
// mids, useful for forcing a trend.
func WithDrift(d float64) SimOption {
	return func(s *Sim) { s.drift = d }
}

// WithNoise sets the random walk amplitude per observation.
func WithNoise(n float64) SimOption {
	return func(s *Sim) { s.noise = n }
}

// NewSim creates a simulated venue quoting the given symbols.
func NewSim(symbols []string, opts ...SimOption) *Sim {
	s := &Sim{
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		books:      make(map[string]float64, len(symbols)),
		holdings:   make(map[string]int64),
		fillChance: 0.35,
		noise:      0.005,
		spread:     0.004,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, symbol := range symbols {
		s.books[symbol] = 20 + s.rng.Float64()*180
	}
	return s
}

func (s *Sim) Register(ctx context.Context, teamName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if teamName == "" {
		return "", fmt.Errorf("sim: team name must not be blank")
	}
	return "dry-run-" + uuid.NewString(), nil
}

func (s *Sim) TopOfBook(ctx context.Context, symbol string) (types.TopOfBook, error) {
	if err := ctx.Err(); err != nil {
		return types.TopOfBook{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	mid, ok := s.books[symbol]
	if !ok {
		return types.TopOfBook{}, fmt.Errorf("sim: unknown symbol %s", symbol)
	}

	// Advance the walk on observation, like a market that moves between
	// polls.
	mid *= 1 + s.drift + (s.rng.Float64()-0.5)*2*s.noise
	if mid < 0.01 {
		mid = 0.01
	}
	s.books[symbol] = mid

	return types.TopOfBook{
		Symbol:  symbol,
		BestBid: mid * (1 - s.spread/2),
		BestAsk: mid * (1 + s.spread/2),
	}, nil
}

func (s *Sim) PortfolioPositions(ctx context.Context) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.holdings))
	for symbol, qty := range s.holdings {
		if qty != 0 {
			out[symbol] = qty
		}
	}
	return out, nil
}

func (s *Sim) SubmitLimitOrder(ctx context.Context, req types.OrderRequest) (types.TrackedOrder, error) {
	if err := ctx.Err(); err != nil {
		return types.TrackedOrder{}, err
	}
	if req.Quantity <= 0 {
		return types.TrackedOrder{}, fmt.Errorf("sim: rejected order with quantity %d", req.Quantity)
	}
	if req.LimitPrice <= 0 {
		return types.TrackedOrder{}, fmt.Errorf("sim: rejected order with limit %.4f", req.LimitPrice)
	}
	if req.Side != types.SideBuy && req.Side != types.SideSell {
		return types.TrackedOrder{}, fmt.Errorf("sim: rejected order with side %q", req.Side)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[req.Symbol]; !ok {
		return types.TrackedOrder{}, fmt.Errorf("sim: unknown symbol %s", req.Symbol)
	}

	order := types.TrackedOrder{
		OrderID:    uuid.NewString(),
		Symbol:     req.Symbol,
		Side:       req.Side,
		Quantity:   req.Quantity,
		LimitPrice: req.LimitPrice,
		Status:     types.OrderAccepted,
		PlacedAt:   time.Now().UTC(),
	}
	s.resting = append(s.resting, order)
	return order, nil
}

func (s *Sim) FillsSince(ctx context.Context, cursor int64) ([]types.Fill, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, cursor, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.matchResting()

	var out []types.Fill
	for _, fill := range s.fills {
		if fill.Seq > cursor {
			out = append(out, fill)
		}
	}
	return out, s.seq, nil
}

// matchResting fills each resting order with the configured probability.
// Fills execute at the limit price for the full quantity.
func (s *Sim) matchResting() {
	var still []types.TrackedOrder
	for _, order := range s.resting {
		if s.rng.Float64() >= s.fillChance {
			still = append(still, order)
			continue
		}

		s.seq++
		fill := types.Fill{
			ID:       uuid.NewString(),
			OrderID:  order.OrderID,
			Symbol:   order.Symbol,
			Side:     order.Side,
			Quantity: order.Quantity,
			Price:    order.LimitPrice,
			Seq:      s.seq,
		}
		s.fills = append(s.fills, fill)

		if order.Side == types.SideBuy {
			s.holdings[order.Symbol] += order.Quantity
		} else {
			s.holdings[order.Symbol] -= order.Quantity
		}
	}
	s.resting = still
}

// RestingCount reports how many submitted orders have not filled yet.
func (s *Sim) RestingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resting)
}
