package news

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/oysmal/emoji-stock-trader/internal/logger"
	"github.com/oysmal/emoji-stock-trader/internal/types"
)

// SentimentAnalyzer scores announcements with a fixed lexicon. Title hits
// weigh double: headlines carry the venue's actual message, bodies pad.
type SentimentAnalyzer struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

// NewSentimentAnalyzer creates an analyzer with the built-in lexicon.
func NewSentimentAnalyzer() *SentimentAnalyzer {
	return &SentimentAnalyzer{
		positive: toSet(positiveWords),
		negative: toSet(negativeWords),
	}
}

var positiveWords = []string{
	"up", "gain", "gains", "rally", "rallies", "surge", "surges", "soar",
	"soars", "jump", "jumps", "rise", "rises", "record", "strong", "beat",
	"beats", "growth", "bullish", "boom", "breakout", "upgrade", "upgraded",
	"profit", "profits", "win", "wins", "high", "highs", "moon", "rocket",
}

var negativeWords = []string{
	"down", "loss", "losses", "drop", "drops", "plunge", "plunges", "crash",
	"crashes", "fall", "falls", "slump", "slumps", "weak", "miss", "misses",
	"bearish", "bust", "breakdown", "downgrade", "downgraded", "halt",
	"halted", "probe", "fraud", "low", "lows", "dump", "selloff", "warning",
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// scoreText returns (positive hits, negative hits) for one text.
func (a *SentimentAnalyzer) scoreText(text string) (int, int) {
	pos, neg := 0, 0
	for _, word := range tokenize(text) {
		if _, ok := a.positive[word]; ok {
			pos++
			continue
		}
		if _, ok := a.negative[word]; ok {
			neg++
		}
	}
	return pos, neg
}

// tokenize lowercases and splits on anything that is not a letter.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// AnalyzeArticle scores a single announcement in [-1, 1].
func (a *SentimentAnalyzer) AnalyzeArticle(article types.NewsArticle) float64 {
	titlePos, titleNeg := a.scoreText(article.Title)
	bodyPos, bodyNeg := a.scoreText(extractText(article.Content))

	pos := 2*titlePos + bodyPos
	neg := 2*titleNeg + bodyNeg
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}

// AnalyzeMultipleArticles aggregates per-article scores into one sentiment.
// An empty article list is a valid, neutral result.
func (a *SentimentAnalyzer) AnalyzeMultipleArticles(ctx context.Context, symbol string, articles []types.NewsArticle) (types.NewsSentiment, error) {
	sentiment := types.NewsSentiment{
		Symbol:           symbol,
		OverallSentiment: "NEUTRAL",
		ArticleCount:     len(articles),
		Timestamp:        time.Now().Unix(),
	}
	if len(articles) == 0 {
		sentiment.Summary = "no announcements found"
		return sentiment, nil
	}

	var total float64
	positive, negative := 0, 0
	for _, article := range articles {
		score := a.AnalyzeArticle(article)
		total += score
		switch {
		case score > 0.2:
			positive++
		case score < -0.2:
			negative++
		}
	}

	sentiment.OverallScore = total / float64(len(articles))
	switch {
	case sentiment.OverallScore > 0.2:
		sentiment.OverallSentiment = "POSITIVE"
	case sentiment.OverallScore < -0.2:
		sentiment.OverallSentiment = "NEGATIVE"
	}
	sentiment.Summary = fmt.Sprintf("%d announcements: %d positive, %d negative",
		len(articles), positive, negative)

	logger.Debug(ctx, "News sentiment aggregated",
		"symbol", symbol,
		"articles", len(articles),
		"score", sentiment.OverallScore,
		"label", sentiment.OverallSentiment,
	)
	return sentiment, nil
}

// extractText strips markup from scraped content. Announcement bodies often
// arrive with residual HTML; plain strings pass through untouched.
func extractText(content string) string {
	if !strings.Contains(content, "<") {
		return content
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}
	return doc.Text()
}
