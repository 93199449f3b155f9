package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deepak-arjariya/wikisearch/internal/domain"
	"github.com/deepak-arjariya/wikisearch/internal/logger"
	"github.com/deepak-arjariya/wikisearch/internal/search"
	"github.com/deepak-arjariya/wikisearch/internal/storage"
	"github.com/deepak-arjariya/wikisearch/internal/tagger"
)

// Service orchestrates the owner-scoped article workflows: saving search
// results with generated tags, and listing, re-tagging and deleting saved
// articles.
type Service struct {
	store             storage.Store
	provider          search.Provider
	classifier        tagger.Classifier
	classifierTimeout time.Duration
}

const defaultClassifierTimeout = 20 * time.Second

// NewService wires the save and query workflows with their collaborators.
func NewService(store storage.Store, provider search.Provider, classifier tagger.Classifier, classifierTimeout time.Duration) *Service {
	if classifierTimeout <= 0 {
		classifierTimeout = defaultClassifierTimeout
	}
	return &Service{
		store:             store,
		provider:          provider,
		classifier:        classifier,
		classifierTimeout: classifierTimeout,
	}
}

// SaveRequest carries one search result selected for saving.
type SaveRequest struct {
	PageID  int64
	Title   string
	Snippet string
}

// SaveResult reports whether the save created a row or hit an existing one.
type SaveResult struct {
	Status  string
	Article domain.Article
}

// Search delegates a keyword query to the external search provider.
func (s *Service) Search(ctx context.Context, keyword string) ([]domain.SearchResult, error) {
	return s.provider.Search(ctx, keyword)
}

// Save idempotently associates a search result with an owner. The owner is
// created on first save; saving an already-saved page returns the existing
// row with a duplicate status instead of an error. Classifier failures are
// absorbed by substituting the fallback tag list.
func (s *Service) Save(ctx context.Context, ownerKey string, req SaveRequest) (SaveResult, error) {
	// Once a write is issued it should complete even if the caller walks
	// away mid-request.
	writeCtx := context.WithoutCancel(ctx)

	user, err := s.store.UpsertUser(writeCtx, ownerKey)
	if err != nil {
		return SaveResult{}, fmt.Errorf("resolve owner: %w", err)
	}

	if existing, err := s.store.GetArticleByPage(ctx, user.OwnerKey, req.PageID); err == nil {
		return SaveResult{Status: domain.SaveStatusDuplicate, Article: existing}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return SaveResult{}, fmt.Errorf("duplicate check: %w", err)
	}

	article := domain.Article{
		PageID:   req.PageID,
		Title:    req.Title,
		Snippet:  req.Snippet,
		Tags:     s.generateTags(ctx, req.Snippet),
		OwnerKey: user.OwnerKey,
	}

	created, err := s.store.CreateArticle(writeCtx, article)
	if errors.Is(err, domain.ErrConflict) {
		// Lost the race against a concurrent identical save; the
		// constraint is the authoritative arbiter, so surface the row that
		// won.
		existing, fetchErr := s.store.GetArticleByPage(writeCtx, user.OwnerKey, req.PageID)
		if fetchErr != nil {
			return SaveResult{}, fmt.Errorf("refetch after conflict: %w", fetchErr)
		}
		return SaveResult{Status: domain.SaveStatusDuplicate, Article: existing}, nil
	}
	if err != nil {
		return SaveResult{}, fmt.Errorf("persist article: %w", err)
	}

	return SaveResult{Status: domain.SaveStatusCreated, Article: created}, nil
}

// List returns every article owned by the key. Unknown owners yield
// domain.ErrNotFound; a known owner with no saves yields an empty slice.
func (s *Service) List(ctx context.Context, ownerKey string) ([]domain.Article, error) {
	user, err := s.store.GetUser(ctx, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}
	return s.store.ListArticles(ctx, user.OwnerKey)
}

// UpdateTags replaces the article's tag list in full. The lookup is
// owner-scoped, so an article id belonging to another owner reads as
// missing.
func (s *Service) UpdateTags(ctx context.Context, ownerKey string, articleID int64, tags []string) (domain.Article, error) {
	user, err := s.store.GetUser(ctx, ownerKey)
	if err != nil {
		return domain.Article{}, fmt.Errorf("resolve owner: %w", err)
	}
	return s.store.UpdateArticleTags(context.WithoutCancel(ctx), user.OwnerKey, articleID, tags)
}

// Delete removes the owner's article. Repeating a successful delete reads
// as missing, not as a silent success.
func (s *Service) Delete(ctx context.Context, ownerKey string, articleID int64) error {
	user, err := s.store.GetUser(ctx, ownerKey)
	if err != nil {
		return fmt.Errorf("resolve owner: %w", err)
	}
	return s.store.DeleteArticle(context.WithoutCancel(ctx), user.OwnerKey, articleID)
}

// generateTags runs the classifier with a bounded-effort timeout. Saving
// the article outranks tagging accuracy, so every failure path degrades to
// the fallback list.
func (s *Service) generateTags(ctx context.Context, snippet string) []string {
	if s.classifier == nil {
		return tagger.FallbackTags()
	}

	classifyCtx, cancel := context.WithTimeout(ctx, s.classifierTimeout)
	defer cancel()

	labels, err := s.classifier.Classify(classifyCtx, snippet)
	if err != nil || len(labels) == 0 {
		logger.WarnObj("tag classification degraded, using fallback", "classifier_error", map[string]any{
			"error": errString(err),
		})
		return tagger.FallbackTags()
	}
	return labels
}

func errString(err error) string {
	if err == nil {
		return "empty result"
	}
	return err.Error()
}
