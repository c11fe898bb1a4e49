package news

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/oysmal/emoji-stock-trader/internal/store"
	"github.com/oysmal/emoji-stock-trader/internal/types"
)

func TestSentimentCache(t *testing.T) {
	cache := newSentimentCache(100 * time.Millisecond)

	sentiment := types.NewsSentiment{
		Symbol:           "🍌",
		OverallSentiment: "POSITIVE",
		OverallScore:     0.8,
		Timestamp:        time.Now().Unix(),
	}
	cache.set("🍌", sentiment)

	retrieved, found := cache.get("🍌")
	if !found {
		t.Fatal("expected cached sentiment")
	}
	if retrieved.OverallScore != 0.8 {
		t.Errorf("expected score 0.8, got %f", retrieved.OverallScore)
	}

	time.Sleep(150 * time.Millisecond)
	if _, found := cache.get("🍌"); found {
		t.Error("expected cache entry to be expired")
	}
}

func TestCacheCleanup(t *testing.T) {
	cache := newSentimentCache(50 * time.Millisecond)

	for i := 0; i < 5; i++ {
		symbol := fmt.Sprintf("SYM%d", i)
		cache.set(symbol, types.NewsSentiment{Symbol: symbol, Timestamp: time.Now().Unix()})
	}

	time.Sleep(100 * time.Millisecond)
	cache.cleanup()

	cache.mu.RLock()
	count := len(cache.data)
	cache.mu.RUnlock()
	if count != 0 {
		t.Errorf("expected 0 cache entries after cleanup, got %d", count)
	}
}

func TestServiceDisabledHasNoOpinion(t *testing.T) {
	cfg := &store.Config{}
	cfg.News.Enabled = false
	cfg.News.CacheMinutes = 1
	cfg.News.TimeoutSeconds = 1

	svc := NewService(cfg)
	sentiment, err := svc.SentimentFor(context.Background(), "🍌")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sentiment != nil {
		t.Errorf("disabled service must return no opinion, got %+v", sentiment)
	}
}

func TestCachedSymbolsAndClear(t *testing.T) {
	cfg := &store.Config{}
	cfg.News.Enabled = true
	cfg.News.CacheMinutes = 10
	cfg.News.TimeoutSeconds = 1

	svc := NewService(cfg)
	for _, symbol := range []string{"🍌", "💎", "🚀"} {
		svc.cache.set(symbol, types.NewsSentiment{Symbol: symbol, Timestamp: time.Now().Unix()})
	}

	if got := svc.CachedSymbols(); len(got) != 3 {
		t.Errorf("expected 3 cached symbols, got %d", len(got))
	}

	svc.ClearCache()
	if got := svc.CachedSymbols(); len(got) != 0 {
		t.Errorf("expected empty cache after clear, got %d", len(got))
	}
}

func TestAnalyzeArticleScoresLexicon(t *testing.T) {
	analyzer := NewSentimentAnalyzer()

	bullish := types.NewsArticle{
		Title:   "Banana surges to record high",
		Content: "Traders cheer as 🍌 gains on strong volume.",
	}
	if score := analyzer.AnalyzeArticle(bullish); score <= 0 {
		t.Errorf("expected positive score, got %f", score)
	}

	bearish := types.NewsArticle{
		Title:   "Rocket crashes after trading halt",
		Content: "A probe into the selloff deepens losses.",
	}
	if score := analyzer.AnalyzeArticle(bearish); score >= 0 {
		t.Errorf("expected negative score, got %f", score)
	}

	flat := types.NewsArticle{
		Title:   "Venue schedules maintenance window",
		Content: "No trading impact expected.",
	}
	if score := analyzer.AnalyzeArticle(flat); score != 0 {
		t.Errorf("expected neutral score, got %f", score)
	}
}

func TestAnalyzeArticleTitleWeighsDouble(t *testing.T) {
	analyzer := NewSentimentAnalyzer()

	// One positive title word against one negative body word: 2 vs 1.
	article := types.NewsArticle{
		Title:   "Diamond rally continues",
		Content: "Some expect a drop.",
	}
	score := analyzer.AnalyzeArticle(article)
	want := 1.0 / 3.0
	if diff := score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected title-weighted score %.4f, got %.4f", want, score)
	}
}

func TestAnalyzeMultipleArticlesAggregates(t *testing.T) {
	analyzer := NewSentimentAnalyzer()
	ctx := context.Background()

	articles := []types.NewsArticle{
		{Title: "Banana surges", Content: "strong gains"},
		{Title: "Banana rally", Content: "record high"},
		{Title: "Small dip", Content: "minor drop"},
	}
	sentiment, err := analyzer.AnalyzeMultipleArticles(ctx, "🍌", articles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sentiment.OverallSentiment != "POSITIVE" {
		t.Errorf("expected POSITIVE, got %s (score %f)", sentiment.OverallSentiment, sentiment.OverallScore)
	}
	if sentiment.ArticleCount != 3 {
		t.Errorf("expected 3 articles counted, got %d", sentiment.ArticleCount)
	}
}

func TestAnalyzeMultipleArticlesEmptyIsNeutral(t *testing.T) {
	analyzer := NewSentimentAnalyzer()
	sentiment, err := analyzer.AnalyzeMultipleArticles(context.Background(), "💎", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sentiment.OverallSentiment != "NEUTRAL" || sentiment.OverallScore != 0 {
		t.Errorf("expected neutral result, got %+v", sentiment)
	}
}

func TestExtractTextStripsMarkup(t *testing.T) {
	html := "<div><p>Banana <b>surges</b> today.</p><p>More gains ahead.</p></div>"
	text := extractText(html)
	if text == html {
		t.Fatal("expected markup stripped")
	}
	for _, word := range []string{"surges", "gains"} {
		if !strings.Contains(text, word) {
			t.Errorf("expected %q in extracted text %q", word, text)
		}
	}

	plain := "no markup here"
	if got := extractText(plain); got != plain {
		t.Errorf("plain text must pass through, got %q", got)
	}
}
