package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/deepak-arjariya/wikisearch/internal/domain"
	"github.com/deepak-arjariya/wikisearch/pkg/httpclient"
)

// DefaultWikipediaURL is the MediaWiki action API endpoint used when no
// override is configured.
const DefaultWikipediaURL = "https://en.wikipedia.org/w/api.php"

// Wikipedia implements Provider against the MediaWiki search API.
type Wikipedia struct {
	client  httpclient.Client
	baseURL string
}

// NewWikipedia constructs a Wikipedia search provider. An empty baseURL
// falls back to the public English Wikipedia endpoint.
func NewWikipedia(client httpclient.Client, baseURL string) *Wikipedia {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultWikipediaURL
	}
	return &Wikipedia{client: client, baseURL: baseURL}
}

// wikiSearchResponse mirrors the subset of the MediaWiki query response we
// consume.
type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			PageID  int64  `json:"pageid"`
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

// Search queries the MediaWiki API and returns the raw result list with
// snippet markup stripped.
func (w *Wikipedia) Search(ctx context.Context, keyword string) ([]domain.SearchResult, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", keyword)
	params.Set("format", "json")

	resp, err := w.client.Get(ctx, w.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: wikipedia request: %v", domain.ErrUpstream, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: wikipedia status %d", domain.ErrUpstream, resp.StatusCode())
	}

	var decoded wikiSearchResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode wikipedia response: %v", domain.ErrUpstream, err)
	}

	results := make([]domain.SearchResult, 0, len(decoded.Query.Search))
	for _, hit := range decoded.Query.Search {
		results = append(results, domain.SearchResult{
			PageID:  hit.PageID,
			Title:   hit.Title,
			Snippet: StripSnippetMarkup(hit.Snippet),
		})
	}
	return results, nil
}

// StripSnippetMarkup flattens the HTML fragments MediaWiki embeds in search
// snippets (e.g. <span class="searchmatch">) down to plain text.
func StripSnippetMarkup(snippet string) string {
	if !strings.Contains(snippet, "<") {
		return strings.TrimSpace(snippet)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return strings.TrimSpace(snippet)
	}
	return strings.TrimSpace(doc.Text())
}
