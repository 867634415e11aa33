package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultBraveURL = "https://api.search.brave.com/res/v1/web/search"

type braveResponse struct {
	Web braveWeb `json:"web"`
}

type braveWeb struct {
	Results []braveResult `json:"results"`
}

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Brave searches the web via the Brave Search API and reads every hit's page
// so the model sees page text rather than a one-line snippet.
type Brave struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Reader  *PageReader
	Logger  *slog.Logger

	// Parallel bounds concurrent page fetches.
	Parallel int
}

func NewBrave(apiKey string) *Brave {
	return &Brave{
		APIKey:   apiKey,
		BaseURL:  defaultBraveURL,
		Client:   &http.Client{Timeout: 15 * time.Second},
		Reader:   NewPageReader(),
		Logger:   slog.Default(),
		Parallel: 4,
	}
}

func (b *Brave) Name() string { return "web" }

func (b *Brave) Search(ctx context.Context, query string, count int) ([]Document, error) {
	if b.APIKey == "" {
		return nil, fmt.Errorf("BRAVE_API_KEY is not set")
	}
	if count <= 0 {
		count = 5
	}
	if count > 20 {
		count = 20
	}

	u, err := url.Parse(b.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(count))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.APIKey)

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result braveResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	hits := result.Web.Results
	if len(hits) > count {
		hits = hits[:count]
	}
	docs := make([]Document, len(hits))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.Parallel, 1))
	for i, hit := range hits {
		g.Go(func() error {
			docs[i] = Document{Title: hit.Title, URL: hit.URL, Content: hit.Description}
			text, err := b.Reader.Read(gctx, hit.URL)
			if err != nil {
				b.Logger.Warn("Failed to read page, using description", "url", hit.URL, "error", err)
				return nil
			}
			docs[i].Content = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	b.Logger.Info("Web search finished", "query", query, "count", len(docs))
	return docs, nil
}
