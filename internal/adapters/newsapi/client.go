package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"industry-mailer/internal/domain"
	"industry-mailer/internal/infra/metrics"
)

const (
	defaultURL       = "https://newsapi.org/v2/everything"
	defaultLimit     = 10
	defaultMaxLength = 200
)

// Config задаёт параметры NewsAPI.
type Config struct {
	APIKey           string
	URL              string
	Language         string
	Timeout          time.Duration
	SummaryMaxLength int
}

// Client реализует domain.ArticleSource поверх NewsAPI /v2/everything.
type Client struct {
	http       *http.Client
	cfg        Config
	summarizer domain.ArticleSummarizer
	log        zerolog.Logger
	now        func() time.Time
}

var _ domain.ArticleSource = (*Client)(nil)

// NewClient создаёт клиента NewsAPI. Найденные статьи проходят через summarizer перед возвратом.
func NewClient(cfg Config, summarizer domain.ArticleSummarizer, logger zerolog.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.SummaryMaxLength <= 0 {
		cfg.SummaryMaxLength = defaultMaxLength
	}
	return &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		summarizer: summarizer,
		log:        logger,
		now:        time.Now,
	}
}

type everythingResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Fetch ищет статьи по ключевым словам за последние windowDays дней.
// Если OR-запрос по нескольким словам пуст, слова пробуются по одному.
func (c *Client) Fetch(ctx context.Context, keywords string, windowDays, limit int) ([]domain.Article, error) {
	if !domain.ValidWindow(windowDays) {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidWindow, windowDays)
	}
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("newsapi: %w: NEWS_API_KEY is not configured", domain.ErrConfiguration)
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	terms := domain.SplitKeywords(keywords)
	query := strings.TrimSpace(keywords)
	if strings.Contains(keywords, ",") {
		query = strings.Join(terms, " OR ")
	}
	if query == "" {
		return nil, fmt.Errorf("newsapi: %w: keywords are empty", domain.ErrConfiguration)
	}

	to := c.now()
	from := to.AddDate(0, 0, -windowDays)

	articles, err := c.search(ctx, query, from, to, limit)
	if err != nil {
		return nil, err
	}

	if len(articles) == 0 && len(terms) > 1 {
		c.log.Info().Str("query", query).Msg("newsapi: пустой ответ на OR-запрос, пробуем слова по одному")
		for _, term := range terms {
			found, err := c.search(ctx, term, from, to, limit)
			if err != nil {
				c.log.Warn().Err(err).Str("term", term).Msg("newsapi: запрос по отдельному слову не удался")
				continue
			}
			if len(found) > 0 {
				articles = found
				break
			}
		}
	}

	metrics.ArticlesFetched.Observe(float64(len(articles)))
	if len(articles) == 0 {
		return []domain.Article{}, nil
	}
	if c.summarizer != nil {
		articles = c.summarizer.Summarize(ctx, articles, c.cfg.SummaryMaxLength)
	}
	return articles, nil
}

func (c *Client) search(ctx context.Context, query string, from, to time.Time, limit int) ([]domain.Article, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("language", c.cfg.Language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi: build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.cfg.APIKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("newsapi", "everything", "newsapi", start, err)
		return nil, fmt.Errorf("newsapi: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		metrics.ObserveNetworkRequest("newsapi", "everything", "newsapi", start, err)
		return nil, fmt.Errorf("newsapi: read response: %w", err)
	}

	var payload everythingResponse
	decodeErr := json.Unmarshal(body, &payload)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := payload.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		upErr := &domain.UpstreamError{Provider: "newsapi", Status: resp.StatusCode, Message: msg}
		metrics.ObserveNetworkRequest("newsapi", "everything", "newsapi", start, upErr)
		return nil, upErr
	}
	if decodeErr != nil {
		metrics.ObserveNetworkRequest("newsapi", "everything", "newsapi", start, decodeErr)
		return nil, fmt.Errorf("newsapi: %w: decode response: %v", domain.ErrUpstream, decodeErr)
	}
	if payload.Status != "ok" {
		msg := payload.Message
		if msg == "" {
			msg = "Unknown NewsAPI error"
		}
		upErr := &domain.UpstreamError{Provider: "newsapi", Message: msg}
		metrics.ObserveNetworkRequest("newsapi", "everything", "newsapi", start, upErr)
		return nil, upErr
	}
	metrics.ObserveNetworkRequest("newsapi", "everything", "newsapi", start, nil)

	seen := make(map[string]struct{}, len(payload.Articles))
	out := make([]domain.Article, 0, min(len(payload.Articles), limit))
	for _, a := range payload.Articles {
		if len(out) == limit {
			break
		}
		if a.URL != "" {
			if _, dup := seen[a.URL]; dup {
				continue
			}
			seen[a.URL] = struct{}{}
		}
		source := strings.TrimSpace(a.Source.Name)
		if source == "" {
			source = "Unknown"
		}
		out = append(out, domain.Article{
			Title:       strings.TrimSpace(a.Title),
			Description: cleanText(a.Description),
			URL:         a.URL,
			Source:      source,
			PublishedAt: a.PublishedAt,
			ImageURL:    a.URLToImage,
		})
	}
	return out, nil
}

// cleanText убирает HTML-разметку, которую некоторые источники оставляют в описании.
func cleanText(raw string) string {
	if !strings.ContainsAny(raw, "<&") {
		return strings.Join(strings.Fields(raw), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
