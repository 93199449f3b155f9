package api

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/deepak-arjariya/wikisearch/internal/domain"
	"github.com/deepak-arjariya/wikisearch/internal/library"
)

// Library is the workflow surface the HTTP layer depends on.
type Library interface {
	Search(ctx context.Context, keyword string) ([]domain.SearchResult, error)
	Save(ctx context.Context, ownerKey string, req library.SaveRequest) (library.SaveResult, error)
	List(ctx context.Context, ownerKey string) ([]domain.Article, error)
	UpdateTags(ctx context.Context, ownerKey string, articleID int64, tags []string) (domain.Article, error)
	Delete(ctx context.Context, ownerKey string, articleID int64) error
}

func saveRequestFromPayload(data *SaveArticleRequest) library.SaveRequest {
	return library.SaveRequest{
		PageID:  data.PageID,
		Title:   data.Title,
		Snippet: data.Snippet,
	}
}

// NewRouter assembles the HTTP surface: permissive CORS (the UI is served
// from a different origin), standard chi middleware and the owner-scoped
// article routes behind the authenticator.
func NewRouter(svc Library, auth Authenticator) chi.Router {
	h := NewHandlers(svc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/healthz", h.Healthz)
	r.Get("/search", h.SearchArticles)

	r.Route("/articles", func(r chi.Router) {
		r.Use(OwnerCtx(auth))
		r.Post("/", h.SaveArticle)
		r.Get("/", h.ListArticles)

		r.Route("/{articleID}", func(r chi.Router) {
			r.Put("/", h.UpdateArticleTags)
			r.Delete("/", h.DeleteArticle)
		})
	})

	return r
}
