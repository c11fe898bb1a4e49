package news

import (
	"context"
	"sync"
	"time"

	"github.com/oysmal/emoji-stock-trader/internal/logger"
	"github.com/oysmal/emoji-stock-trader/internal/store"
	"github.com/oysmal/emoji-stock-trader/internal/types"
)

// Service provides cached venue-news sentiment. A nil result means no
// opinion; the decision loop treats it as advisory either way.
type Service struct {
	scraper     *Scraper
	analyzer    *SentimentAnalyzer
	cache       *sentimentCache
	maxArticles int
	enabled     bool
}

// sentimentCache stores sentiment results until their TTL lapses.
type sentimentCache struct {
	mu   sync.RWMutex
	data map[string]*cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	sentiment types.NewsSentiment
	timestamp time.Time
}

func newSentimentCache(ttl time.Duration) *sentimentCache {
	cache := &sentimentCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}
	go cache.cleanupLoop()
	return cache
}

func (c *sentimentCache) get(symbol string) (types.NewsSentiment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[symbol]
	if !exists || time.Since(entry.timestamp) > c.ttl {
		return types.NewsSentiment{}, false
	}
	return entry.sentiment, true
}

func (c *sentimentCache) set(symbol string, sentiment types.NewsSentiment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[symbol] = &cacheEntry{sentiment: sentiment, timestamp: time.Now()}
}

func (c *sentimentCache) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		c.cleanup()
	}
}

func (c *sentimentCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for symbol, entry := range c.data {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.data, symbol)
		}
	}
}

// NewService creates the news sentiment service from the news config block.
func NewService(cfg *store.Config) *Service {
	return &Service{
		scraper:     NewScraper(cfg.News.BaseURL, time.Duration(cfg.News.TimeoutSeconds)*time.Second),
		analyzer:    NewSentimentAnalyzer(),
		cache:       newSentimentCache(time.Duration(cfg.News.CacheMinutes) * time.Minute),
		maxArticles: cfg.News.MaxArticles,
		enabled:     cfg.News.Enabled,
	}
}

// SentimentFor returns cached or freshly scraped sentiment for a symbol.
// Disabled service means no opinion, not an error.
func (s *Service) SentimentFor(ctx context.Context, symbol string) (*types.NewsSentiment, error) {
	if !s.enabled {
		return nil, nil
	}

	if cached, ok := s.cache.get(symbol); ok {
		logger.Debug(ctx, "Using cached sentiment",
			"symbol", symbol,
			"age_minutes", time.Since(time.Unix(cached.Timestamp, 0)).Minutes(),
		)
		return &cached, nil
	}

	logger.Info(ctx, "Fetching fresh news sentiment", "symbol", symbol)
	sentiment, err := s.fetchFreshSentiment(ctx, symbol)
	if err != nil {
		return nil, err
	}

	s.cache.set(symbol, sentiment)
	return &sentiment, nil
}

// RefreshSentiment bypasses the cache and rescrapes.
func (s *Service) RefreshSentiment(ctx context.Context, symbol string) (*types.NewsSentiment, error) {
	sentiment, err := s.fetchFreshSentiment(ctx, symbol)
	if err != nil {
		return nil, err
	}
	s.cache.set(symbol, sentiment)
	return &sentiment, nil
}

func (s *Service) fetchFreshSentiment(ctx context.Context, symbol string) (types.NewsSentiment, error) {
	articles, err := s.scraper.ScrapeNews(ctx, symbol, s.maxArticles)
	if err != nil {
		return types.NewsSentiment{}, err
	}
	return s.analyzer.AnalyzeMultipleArticles(ctx, symbol, articles)
}

// ClearCache drops all cached sentiment.
func (s *Service) ClearCache() {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	s.cache.data = make(map[string]*cacheEntry)
}

// CachedSymbols lists symbols with live cache entries, expired or not.
func (s *Service) CachedSymbols() []string {
	s.cache.mu.RLock()
	defer s.cache.mu.RUnlock()
	symbols := make([]string, 0, len(s.cache.data))
	for symbol := range s.cache.data {
		symbols = append(symbols, symbol)
	}
	return symbols
}
