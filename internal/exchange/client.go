// Package exchange talks to the emoji stock exchange. The live client wraps
// the venue's REST API; the simulator stands in for it in dry-run mode. Both
// satisfy interfaces.Exchange, so everything above this package is unaware
// which one it is trading against.
package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/oysmal/emoji-stock-trader/internal/api"
	"github.com/oysmal/emoji-stock-trader/internal/interfaces"
	"github.com/oysmal/emoji-stock-trader/internal/logger"
	"github.com/oysmal/emoji-stock-trader/internal/types"
)

// Client is the live REST client for the venue.
type Client struct {
	api    *api.Client
	apiKey string
	mu     sync.RWMutex
}

// Compile-time interface check
var _ interfaces.Exchange = (*Client)(nil)

// NewClient creates a live exchange client against the venue's base URL. An
// apiKey from a previous registration may be passed; leave it empty and call
// Register to obtain one.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		api: api.NewClient(
			api.WithBaseURL(baseURL),
			api.WithTimeout(timeout),
			api.WithLogging(logger.IsDebugEnabled()),
		),
		apiKey: apiKey,
	}
}

type registerRequest struct {
	TeamName string `json:"teamName"`
}

type registerResponse struct {
	APIKey string `json:"apiKey"`
}

type bookResponse struct {
	Symbol  string  `json:"symbol"`
	BestBid float64 `json:"bestBid"`
	BestAsk float64 `json:"bestAsk"`
}

type portfolioResponse struct {
	Positions map[string]int64 `json:"positions"`
}

type orderResponse struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type fillsResponse struct {
	Fills      []types.Fill `json:"fills"`
	NextCursor int64        `json:"nextCursor"`
}

// Register enrolls the team with the venue and stores the returned API key
// for all subsequent calls. Registration is keyed by team name at the venue,
// so it is retried on transient failures.
func (c *Client) Register(ctx context.Context, teamName string) (string, error) {
	if teamName == "" {
		return "", fmt.Errorf("exchange: team name must not be blank")
	}

	req := api.NewRequest(http.MethodPost, "/v1/register").
		WithContext(ctx).
		WithBody(registerRequest{TeamName: teamName})
	resp, err := c.api.DoWithRetry(req, nil)
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	var out registerResponse
	if err := resp.ParseJSON(&out); err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	if out.APIKey == "" {
		return "", fmt.Errorf("register: venue returned blank api key")
	}

	c.mu.Lock()
	c.apiKey = out.APIKey
	c.mu.Unlock()
	return out.APIKey, nil
}

// TopOfBook fetches the current best quotes for a symbol. Empty book sides
// come back as zero prices.
func (c *Client) TopOfBook(ctx context.Context, symbol string) (types.TopOfBook, error) {
	resp, err := c.api.GET(ctx, "/v1/book/"+url.PathEscape(symbol), c.authHeaders())
	if err != nil {
		return types.TopOfBook{}, fmt.Errorf("top of book %s: %w", symbol, err)
	}
	var out bookResponse
	if err := resp.ParseJSON(&out); err != nil {
		return types.TopOfBook{}, fmt.Errorf("top of book %s: %w", symbol, err)
	}
	return types.TopOfBook{Symbol: symbol, BestBid: out.BestBid, BestAsk: out.BestAsk}, nil
}

// PortfolioPositions fetches the venue's authoritative holdings for the team.
func (c *Client) PortfolioPositions(ctx context.Context) (map[string]int64, error) {
	resp, err := c.api.GET(ctx, "/v1/portfolio", c.authHeaders())
	if err != nil {
		return nil, fmt.Errorf("portfolio: %w", err)
	}
	var out portfolioResponse
	if err := resp.ParseJSON(&out); err != nil {
		return nil, fmt.Errorf("portfolio: %w", err)
	}
	if out.Positions == nil {
		out.Positions = map[string]int64{}
	}
	return out.Positions, nil
}

// SubmitLimitOrder places a resting limit order and returns the venue's
// acknowledgement.
func (c *Client) SubmitLimitOrder(ctx context.Context, req types.OrderRequest) (types.TrackedOrder, error) {
	resp, err := c.api.POST(ctx, "/v1/orders", req, c.authHeaders())
	if err != nil {
		return types.TrackedOrder{}, fmt.Errorf("submit order %s %s: %w", req.Side, req.Symbol, err)
	}
	var out orderResponse
	if err := resp.ParseJSON(&out); err != nil {
		return types.TrackedOrder{}, fmt.Errorf("submit order %s %s: %w", req.Side, req.Symbol, err)
	}
	if out.OrderID == "" {
		return types.TrackedOrder{}, fmt.Errorf("submit order %s %s: venue returned blank order id", req.Side, req.Symbol)
	}

	status := types.OrderStatus(out.Status)
	if status == "" {
		status = types.OrderAccepted
	}
	return types.TrackedOrder{
		OrderID:    out.OrderID,
		Symbol:     req.Symbol,
		Side:       req.Side,
		Quantity:   req.Quantity,
		LimitPrice: req.LimitPrice,
		Status:     status,
		PlacedAt:   time.Now().UTC(),
	}, nil
}

// FillsSince fetches fills newer than the cursor along with the next cursor
// to resume from. The cursor the venue hands back is only meaningful after a
// successful fetch; on error the caller must keep its old cursor.
func (c *Client) FillsSince(ctx context.Context, cursor int64) ([]types.Fill, int64, error) {
	path := fmt.Sprintf("/v1/fills?since=%d", cursor)
	resp, err := c.api.GET(ctx, path, c.authHeaders())
	if err != nil {
		return nil, cursor, fmt.Errorf("fills since %d: %w", cursor, err)
	}
	var out fillsResponse
	if err := resp.ParseJSON(&out); err != nil {
		return nil, cursor, fmt.Errorf("fills since %d: %w", cursor, err)
	}
	next := out.NextCursor
	if next < cursor {
		next = cursor
	}
	return out.Fills, next, nil
}

func (c *Client) authHeaders() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{"X-API-Key": c.apiKey}
}
