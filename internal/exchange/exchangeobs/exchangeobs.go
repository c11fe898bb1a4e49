package exchangeobs

import (
	"context"

	"github.com/oysmal/emoji-stock-trader/internal/interfaces"
	"github.com/oysmal/emoji-stock-trader/internal/logger"
	"github.com/oysmal/emoji-stock-trader/internal/trace"
	"github.com/oysmal/emoji-stock-trader/internal/types"
)

// observableExchange wraps an Exchange with observability (logging & tracing)
type observableExchange struct {
	exchange interfaces.Exchange
}

// Compile-time interface check
var _ interfaces.Exchange = (*observableExchange)(nil)

// Wrap wraps an exchange with observability middleware
func Wrap(exchange interfaces.Exchange) interfaces.Exchange {
	return &observableExchange{
		exchange: exchange,
	}
}

// Register enrolls the team with observability
func (oe *observableExchange) Register(ctx context.Context, teamName string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.Register")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Registering team", "team", teamName)

	key, err := oe.exchange.Register(ctx, teamName)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to register team", err, "team", teamName)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Team registered successfully", "team", teamName)
	return key, nil
}

// TopOfBook fetches best quotes with observability
func (oe *observableExchange) TopOfBook(ctx context.Context, symbol string) (types.TopOfBook, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.TopOfBook")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching top of book", "symbol", symbol)

	book, err := oe.exchange.TopOfBook(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch top of book", err, "symbol", symbol)
		return types.TopOfBook{}, err
	}

	logger.DebugSkip(ctx, 1, "Top of book fetched",
		"symbol", symbol, "bid", book.BestBid, "ask", book.BestAsk)
	return book, nil
}

// PortfolioPositions fetches holdings with observability
func (oe *observableExchange) PortfolioPositions(ctx context.Context) (map[string]int64, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.PortfolioPositions")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching portfolio positions")

	positions, err := oe.exchange.PortfolioPositions(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch portfolio positions", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Portfolio positions fetched", "symbols", len(positions))
	return positions, nil
}

// SubmitLimitOrder places an order with observability
func (oe *observableExchange) SubmitLimitOrder(ctx context.Context, req types.OrderRequest) (types.TrackedOrder, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.SubmitLimitOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Submitting limit order",
		"symbol", req.Symbol,
		"side", req.Side,
		"qty", req.Quantity,
		"limit", req.LimitPrice,
	)

	order, err := oe.exchange.SubmitLimitOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to submit limit order", err,
			"symbol", req.Symbol,
			"side", req.Side,
			"qty", req.Quantity,
		)
		return types.TrackedOrder{}, err
	}

	logger.InfoSkip(ctx, 1, "Limit order acknowledged",
		"symbol", req.Symbol,
		"order_id", order.OrderID,
		"status", order.Status,
	)
	return order, nil
}

// FillsSince fetches fills with observability
func (oe *observableExchange) FillsSince(ctx context.Context, cursor int64) ([]types.Fill, int64, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.FillsSince")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching fills", "cursor", cursor)

	fills, next, err := oe.exchange.FillsSince(ctx, cursor)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch fills", err, "cursor", cursor)
		return nil, cursor, err
	}

	logger.DebugSkip(ctx, 1, "Fills fetched", "count", len(fills), "next_cursor", next)
	return fills, next, nil
}
