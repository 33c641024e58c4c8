package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/partsflow/demandcast/internal/contracts"
	"github.com/partsflow/demandcast/pkg/httputil"
	"github.com/partsflow/demandcast/pkg/logger"
	"github.com/partsflow/demandcast/pkg/redis"
)

// SnippetWriter is where parsed articles land; the vector store in
// production.
type SnippetWriter interface {
	SaveSnippet(ctx context.Context, snippet contracts.ContextSnippet) error
}

// Ingestor pulls market-news feed pages, extracts articles, and writes them
// into the context store. Already-seen articles are skipped via a daily
// dedup key.
type Ingestor struct {
	httpClient *httputil.Client
	writer     SnippetWriter
	cache      *redis.Cache
	feeds      []string
	logger     *logger.Logger
}

// NewIngestor creates an ingestor. cache may be nil; dedup is then disabled.
func NewIngestor(httpClient *httputil.Client, writer SnippetWriter, cache *redis.Cache, feeds []string, log *logger.Logger) *Ingestor {
	return &Ingestor{
		httpClient: httpClient,
		writer:     writer,
		cache:      cache,
		feeds:      feeds,
		logger:     log.WithField("component", "ingestor"),
	}
}

// Run ingests every configured feed and returns how many new articles were
// stored. Per-feed failures are logged and skipped.
func (i *Ingestor) Run(ctx context.Context) (int, error) {
	stored := 0
	for _, feed := range i.feeds {
		n, err := i.ingestFeed(ctx, feed)
		if err != nil {
			i.logger.WithError(err).WithField("feed", feed).Warn("Feed ingestion failed")
			continue
		}
		stored += n
	}

	i.logger.WithFields(map[string]interface{}{
		"feeds":  len(i.feeds),
		"stored": stored,
	}).Info("Ingestion completed")

	return stored, nil
}

// ingestFeed fetches one feed page and stores its unseen articles.
func (i *Ingestor) ingestFeed(ctx context.Context, feedURL string) (int, error) {
	html, err := i.fetchHTML(ctx, feedURL)
	if err != nil {
		return 0, err
	}

	articles, err := parseArticles(html, sourceName(feedURL))
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, article := range articles {
		seen, err := i.alreadySeen(ctx, article)
		if err == nil && seen {
			continue
		}

		if err := i.writer.SaveSnippet(ctx, article); err != nil {
			i.logger.WithError(err).Warn("Failed to store article")
			continue
		}
		i.markSeen(ctx, article)
		stored++
	}

	return stored, nil
}

func (i *Ingestor) fetchHTML(ctx context.Context, pageURL string) (string, error) {
	resp, err := i.httpClient.Get(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}

func (i *Ingestor) alreadySeen(ctx context.Context, article contracts.ContextSnippet) (bool, error) {
	if i.cache == nil {
		return false, nil
	}
	var marker bool
	return i.cache.Get(ctx, redis.ArticleSeenKey(articleHash(article)), &marker)
}

func (i *Ingestor) markSeen(ctx context.Context, article contracts.ContextSnippet) {
	if i.cache == nil {
		return
	}
	if err := i.cache.Set(ctx, redis.ArticleSeenKey(articleHash(article)), true, redis.TTLDaily); err != nil {
		i.logger.WithError(err).Debug("Failed to mark article seen")
	}
}

func articleHash(article contracts.ContextSnippet) string {
	sum := sha1.Sum([]byte(article.Source + "|" + article.Text))
	return hex.EncodeToString(sum[:])
}

// parseArticles extracts article snippets from a feed page.
func parseArticles(html, source string) ([]contracts.ContextSnippet, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var articles []contracts.ContextSnippet
	doc.Find("article, .news-item").Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find("h1, h2, h3, .title").First().Text())
		summary := strings.TrimSpace(sel.Find("p, .summary").First().Text())
		if title == "" && summary == "" {
			return
		}

		text := title
		if summary != "" {
			if text != "" {
				text += ": "
			}
			text += summary
		}

		snippet := contracts.ContextSnippet{
			Text:   text,
			Source: source,
		}

		if stamp, ok := sel.Find("time").First().Attr("datetime"); ok {
			if ts, err := time.Parse(time.RFC3339, stamp); err == nil {
				snippet.PublishedAt = ts
			}
		}

		sel.Find(".tag, .category").Each(func(_ int, tag *goquery.Selection) {
			if t := strings.TrimSpace(tag.Text()); t != "" {
				snippet.Tags = append(snippet.Tags, t)
			}
		})

		articles = append(articles, snippet)
	})

	return articles, nil
}

// sourceName reduces a feed URL to its host for the snippet source field.
func sourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return feedURL
	}
	return u.Host
}
