package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/oysmal/emoji-stock-trader/internal/logger"
	"github.com/oysmal/emoji-stock-trader/internal/types"
)

// Scraper pulls announcements from the venue's news pages.
type Scraper struct {
	baseURL   string
	timeout   time.Duration
	selectors articleSelectors
}

// articleSelectors are the CSS selectors for the venue's announcement list.
type articleSelectors struct {
	ArticleContainer string
	Title            string
	URL              string
	Content          string
	PublishedAt      string
}

// NewScraper creates a scraper for the venue's announcement pages.
func NewScraper(baseURL string, timeout time.Duration) *Scraper {
	return &Scraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		selectors: articleSelectors{
			ArticleContainer: "ul.announcements li, article.announcement",
			Title:            "h2 a, h3 a, a.headline",
			URL:              "h2 a, h3 a, a.headline",
			Content:          "p",
			PublishedAt:      "time, span.posted-at",
		},
	}
}

// ScrapeNews fetches announcements mentioning a symbol, newest first as the
// venue lists them.
func (s *Scraper) ScrapeNews(ctx context.Context, symbol string, maxArticles int) ([]types.NewsArticle, error) {
	logger.Info(ctx, "Scraping venue announcements", "symbol", symbol, "max", maxArticles)

	articles := []types.NewsArticle{}

	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(s.baseURL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "emoji-stock-trader/1.0")
	})

	c.OnHTML(s.selectors.ArticleContainer, func(e *colly.HTMLElement) {
		if len(articles) >= maxArticles {
			return
		}

		title := strings.TrimSpace(e.ChildText(s.selectors.Title))
		if title == "" {
			return
		}
		articleURL := e.ChildAttr(s.selectors.URL, "href")
		if articleURL == "" {
			return
		}
		if !strings.HasPrefix(articleURL, "http") {
			articleURL = s.baseURL + articleURL
		}

		articles = append(articles, types.NewsArticle{
			Title:       title,
			URL:         articleURL,
			Content:     strings.TrimSpace(e.ChildText(s.selectors.Content)),
			Source:      getDomain(s.baseURL),
			PublishedAt: strings.TrimSpace(e.ChildText(s.selectors.PublishedAt)),
			Symbol:      symbol,
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Announcement scrape error", err, "url", r.Request.URL.String())
	})

	pageURL := fmt.Sprintf("%s/news/%s", s.baseURL, url.PathEscape(symbol))
	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", pageURL, err)
	}
	c.Wait()

	articles = s.enrichArticles(ctx, articles)

	logger.Info(ctx, "Announcement scrape finished", "symbol", symbol, "articles", len(articles))
	return articles, nil
}

// enrichArticles fetches full bodies for articles whose listing snippet was
// too short to score.
func (s *Scraper) enrichArticles(ctx context.Context, articles []types.NewsArticle) []types.NewsArticle {
	enriched := make([]types.NewsArticle, len(articles))
	copy(enriched, articles)

	for i := range enriched {
		if len(enriched[i].Content) >= 100 {
			continue
		}
		if content := s.fetchArticleContent(ctx, enriched[i].URL); content != "" {
			enriched[i].Content = content
		}
	}
	return enriched
}

// fetchArticleContent pulls the paragraph text of a single announcement.
func (s *Scraper) fetchArticleContent(ctx context.Context, articleURL string) string {
	c := colly.NewCollector(colly.AllowedDomains(getDomain(s.baseURL)))
	c.SetRequestTimeout(s.timeout)

	var content string
	c.OnHTML("article, div.announcement-body, main", func(e *colly.HTMLElement) {
		paragraphs := []string{}
		e.ForEach("p", func(_ int, el *colly.HTMLElement) {
			text := strings.TrimSpace(el.Text)
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
		content = strings.Join(paragraphs, "\n\n")
	})
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "emoji-stock-trader/1.0")
	})

	if err := c.Visit(articleURL); err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch announcement body", err, "url", articleURL)
		return ""
	}
	return content
}

func getDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
