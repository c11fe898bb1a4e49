package types

import "time"

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// PricePoint is one observed mid-price sample. Immutable once recorded.
type PricePoint struct {
	Symbol string    `json:"symbol"`
	Ts     time.Time `json:"ts"`
	Mid    float64   `json:"mid"`
}

// TopOfBook carries the best quotes for a symbol. A zero bid or ask means
// that side of the book is currently empty.
type TopOfBook struct {
	Symbol  string  `json:"symbol"`
	BestBid float64 `json:"bestBid"`
	BestAsk float64 `json:"bestAsk"`
}

func (t TopOfBook) HasBid() bool { return t.BestBid > 0 }
func (t TopOfBook) HasAsk() bool { return t.BestAsk > 0 }

// Mid returns the mid-price and whether both sides were quoted.
func (t TopOfBook) Mid() (float64, bool) {
	if !t.HasBid() || !t.HasAsk() {
		return 0, false
	}
	return (t.BestBid + t.BestAsk) / 2, true
}

// TradingSignal is a directional bias derived from recent price movement.
// It lives for a single decision cycle and is never persisted.
type TradingSignal struct {
	Symbol     string  `json:"symbol"`
	Side       Side    `json:"side"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

type OrderStatus string

const (
	OrderAccepted        OrderStatus = "ACCEPTED"
	OrderPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderFilled          OrderStatus = "FILLED"
	OrderCancelled       OrderStatus = "CANCELLED"
)

// OrderRequest is a single resting limit order submission.
type OrderRequest struct {
	Symbol     string  `json:"symbol"`
	Side       Side    `json:"side"`
	Quantity   int64   `json:"quantity"`
	LimitPrice float64 `json:"limitPrice"`
	ClientRef  string  `json:"clientRef,omitempty"`
}

// TrackedOrder is an exchange-acknowledged order the engine still cares
// about. Owned by the order book from acknowledgement until a matching fill
// retires it.
type TrackedOrder struct {
	OrderID    string      `json:"orderId"`
	Symbol     string      `json:"symbol"`
	Side       Side        `json:"side"`
	Quantity   int64       `json:"quantity"`
	LimitPrice float64     `json:"limitPrice"`
	Status     OrderStatus `json:"status"`
	PlacedAt   time.Time   `json:"placedAt"`
}

// Fill confirms that all or part of a submitted order executed. IDs are
// unique; Seq is the monotonic pagination token fills are fetched by.
type Fill struct {
	ID       string  `json:"id"`
	OrderID  string  `json:"orderId"`
	Symbol   string  `json:"symbol"`
	Side     Side    `json:"side"`
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price"`
	Seq      int64   `json:"seq"`
}

// TradeMark describes the most recent buy or sell the session placed.
type TradeMark struct {
	Symbol     string    `json:"symbol"`
	Quantity   int64     `json:"quantity"`
	LimitPrice float64   `json:"limitPrice"`
	At         time.Time `json:"at"`
}

// SessionStatus is a point-in-time snapshot of the running session, safe to
// request from any goroutine.
type SessionStatus struct {
	SessionID    string        `json:"sessionId"`
	OrdersPlaced int           `json:"ordersPlaced"`
	Elapsed      time.Duration `json:"elapsed"`
	PnL          float64       `json:"pnl"`
	PnLValid     bool          `json:"pnlValid"`
	LastBuy      *TradeMark    `json:"lastBuy,omitempty"`
	LastSell     *TradeMark    `json:"lastSell,omitempty"`
	Running      bool          `json:"running"`
}

// NewsArticle is one scraped announcement from the venue's news page.
type NewsArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	Source      string `json:"source"`
	PublishedAt string `json:"publishedAt"`
	Symbol      string `json:"symbol"`
}

// NewsSentiment aggregates article sentiment for one symbol.
type NewsSentiment struct {
	Symbol           string  `json:"symbol"`
	OverallSentiment string  `json:"overallSentiment"` // POSITIVE, NEGATIVE, NEUTRAL
	OverallScore     float64 `json:"overallScore"`     // -1..1
	ArticleCount     int     `json:"articleCount"`
	Summary          string  `json:"summary"`
	Timestamp        int64   `json:"timestamp"`
}
