package search

import (
	"context"

	"github.com/deepak-arjariya/wikisearch/internal/domain"
)

// Provider returns ranked candidate documents for a free-text keyword.
// Ranking, pagination and relevance are entirely the provider's concern.
type Provider interface {
	Search(ctx context.Context, keyword string) ([]domain.SearchResult, error)
}
