package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/deepak-arjariya/wikisearch/internal/domain"
)

// SaveArticleRequest is the request payload for saving a search result.
type SaveArticleRequest struct {
	PageID  int64  `json:"pageid"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

func (s *SaveArticleRequest) Bind(_ *http.Request) error {
	if s.PageID <= 0 {
		return errors.New("pageid is required")
	}
	if s.Title == "" {
		return errors.New("title is required")
	}
	if s.Snippet == "" {
		return errors.New("snippet is required")
	}
	return nil
}

// UpdateTagsRequest is the request payload for replacing an article's tags.
type UpdateTagsRequest struct {
	Tags []string `json:"tags"`
}

func (u *UpdateTagsRequest) Bind(_ *http.Request) error {
	if u.Tags == nil {
		return errors.New("tags is required")
	}
	return nil
}

// ArticleResponse is the response payload for a stored article.
type ArticleResponse struct {
	domain.Article
}

func (ArticleResponse) Render(_ http.ResponseWriter, _ *http.Request) error { return nil }

func NewArticleResponse(a domain.Article) *ArticleResponse {
	return &ArticleResponse{Article: a}
}

func NewArticleListResponse(articles []domain.Article) []render.Renderer {
	list := make([]render.Renderer, 0, len(articles))
	for _, a := range articles {
		list = append(list, NewArticleResponse(a))
	}
	return list
}

// SaveResponse reports the save outcome together with the stored article.
type SaveResponse struct {
	Status  string         `json:"status"`
	Article domain.Article `json:"article"`
}

func (SaveResponse) Render(_ http.ResponseWriter, _ *http.Request) error { return nil }

// SearchResultResponse is one search provider hit.
type SearchResultResponse struct {
	domain.SearchResult
}

func (SearchResultResponse) Render(_ http.ResponseWriter, _ *http.Request) error { return nil }

func NewSearchResultListResponse(results []domain.SearchResult) []render.Renderer {
	list := make([]render.Renderer, 0, len(results))
	for _, r := range results {
		list = append(list, &SearchResultResponse{SearchResult: r})
	}
	return list
}

// DeleteResponse confirms a successful delete.
type DeleteResponse struct {
	Status string `json:"status"`
}

func (DeleteResponse) Render(_ http.ResponseWriter, _ *http.Request) error { return nil }
