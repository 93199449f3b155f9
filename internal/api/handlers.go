package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/deepak-arjariya/wikisearch/internal/domain"
	"github.com/deepak-arjariya/wikisearch/internal/logger"
)

// Handlers exposes the article workflows over HTTP.
type Handlers struct {
	svc Library
}

// NewHandlers wires the HTTP layer to the library service.
func NewHandlers(svc Library) *Handlers {
	return &Handlers{svc: svc}
}

// SearchArticles proxies the keyword query to the search provider.
func (h *Handlers) SearchArticles(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		h.render(w, r, ErrInvalidRequest(errors.New("keyword is required")))
		return
	}

	results, err := h.svc.Search(r.Context(), keyword)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if err := render.RenderList(w, r, NewSearchResultListResponse(results)); err != nil {
		h.render(w, r, ErrRender(err))
	}
}

// SaveArticle persists a selected search result for the authenticated
// owner. Saving an already-saved page is a normal outcome, answered with
// 200 and a duplicate status rather than an error.
func (h *Handlers) SaveArticle(w http.ResponseWriter, r *http.Request) {
	data := &SaveArticleRequest{}
	if err := render.Bind(r, data); err != nil {
		h.render(w, r, ErrInvalidRequest(err))
		return
	}

	result, err := h.svc.Save(r.Context(), ownerFromCtx(r.Context()), saveRequestFromPayload(data))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if result.Status == domain.SaveStatusCreated {
		render.Status(r, http.StatusCreated)
	}
	h.render(w, r, &SaveResponse{Status: result.Status, Article: result.Article})
}

// ListArticles returns the owner's saved articles.
func (h *Handlers) ListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.svc.List(r.Context(), ownerFromCtx(r.Context()))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if err := render.RenderList(w, r, NewArticleListResponse(articles)); err != nil {
		h.render(w, r, ErrRender(err))
	}
}

// UpdateArticleTags replaces the article's tag list in full.
func (h *Handlers) UpdateArticleTags(w http.ResponseWriter, r *http.Request) {
	articleID, err := articleIDParam(r)
	if err != nil {
		h.render(w, r, ErrInvalidRequest(err))
		return
	}

	data := &UpdateTagsRequest{}
	if err := render.Bind(r, data); err != nil {
		h.render(w, r, ErrInvalidRequest(err))
		return
	}

	article, err := h.svc.UpdateTags(r.Context(), ownerFromCtx(r.Context()), articleID, data.Tags)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, NewArticleResponse(article))
}

// DeleteArticle removes the owner's article.
func (h *Handlers) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	articleID, err := articleIDParam(r)
	if err != nil {
		h.render(w, r, ErrInvalidRequest(err))
		return
	}

	if err := h.svc.Delete(r.Context(), ownerFromCtx(r.Context()), articleID); err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, &DeleteResponse{Status: "deleted"})
}

// Healthz is the liveness endpoint.
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func articleIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "articleID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid article id")
	}
	return id, nil
}

// renderError maps domain errors onto the API error taxonomy. Only
// NotFound and UpstreamUnavailable are client-distinguishable; everything
// else is an opaque internal error.
func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.render(w, r, ErrNotFound)
	case errors.Is(err, domain.ErrUpstream):
		h.render(w, r, ErrUpstreamUnavailable(err))
	default:
		logger.ErrorObj("request failed", "error", err.Error())
		h.render(w, r, ErrInternal(err))
	}
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, v render.Renderer) {
	if err := render.Render(w, r, v); err != nil {
		logger.ErrorObj("render response failed", "error", err.Error())
	}
}
