package tools

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultArxivURL = "https://export.arxiv.org/api/query"

// ArxivEntry struct to hold arXiv entry data
type ArxivEntry struct {
	Title     string      `xml:"title"`
	Summary   string      `xml:"summary"`
	Published string      `xml:"published"`
	ID        string      `xml:"id"`
	Link      []ArxivLink `xml:"link"`
}

// ArxivLink struct to hold arXiv link data
type ArxivLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// ArxivFeed struct to hold the entire arXiv feed
type ArxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entry   []ArxivEntry `xml:"entry"`
}

// Arxiv searches the arXiv Atom API. Abstracts serve as source content.
type Arxiv struct {
	BaseURL string
	Client  *http.Client
	Logger  *slog.Logger
}

func NewArxiv() *Arxiv {
	return &Arxiv{
		BaseURL: defaultArxivURL,
		Client:  &http.Client{Timeout: 20 * time.Second},
		Logger:  slog.Default(),
	}
}

func (a *Arxiv) Name() string { return "arxiv" }

// Search queries the arXiv API and returns up to maxResults documents.
func (a *Arxiv) Search(ctx context.Context, query string, maxResults int) ([]Document, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	params := url.Values{}
	params.Add("search_query", "all:"+query)
	params.Add("max_results", strconv.Itoa(maxResults))
	params.Add("start", "0")
	apiURL := a.BaseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		a.Logger.Error("arXiv returned non-200 status code", "status", resp.StatusCode)
		return nil, fmt.Errorf("arXiv API returned status %d: %s", resp.StatusCode, string(body))
	}

	var feed ArxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal XML: %w", err)
	}

	docs := make([]Document, 0, len(feed.Entry))
	for _, entry := range feed.Entry {
		docs = append(docs, Document{
			Title:   collapseSpace(entry.Title),
			URL:     entry.pageURL(),
			Content: collapseSpace(entry.Summary),
		})
	}
	a.Logger.Info("arXiv search finished", "query", query, "count", len(docs))
	return docs, nil
}

// pageURL prefers the abstract page, then the PDF, then the entry id.
func (e ArxivEntry) pageURL() string {
	var pdf string
	for _, link := range e.Link {
		if link.Rel == "alternate" && link.Href != "" {
			return link.Href
		}
		if link.Type == "application/pdf" && pdf == "" {
			pdf = link.Href
		}
	}
	if pdf != "" {
		return pdf
	}
	return strings.TrimSpace(e.ID)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
