package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/deepak-arjariya/wikisearch/internal/domain"
)

// Package storage provides the persistent store abstraction for users and
// saved articles, with swappable backing implementations.

// Store is the persistence contract used by the library workflows.
//
// Owner resolution (GetUser/UpsertUser) and the duplicate-check-then-insert
// in CreateArticle are the two points where concurrent requests can race;
// every implementation must make UpsertUser atomic per owner key and must
// reject a duplicate (pageid, owner) insert with domain.ErrConflict rather
// than creating a second row.
type Store interface {
	// UpsertUser creates the user if absent and returns the stored row.
	// Safe under concurrent first-saves for the same key.
	UpsertUser(ctx context.Context, ownerKey string) (domain.User, error)

	// GetUser returns the user or domain.ErrNotFound.
	GetUser(ctx context.Context, ownerKey string) (domain.User, error)

	// CreateArticle inserts a new article and returns it with the assigned
	// ID. Returns domain.ErrConflict when (pageid, owner) already exists.
	CreateArticle(ctx context.Context, a domain.Article) (domain.Article, error)

	// GetArticleByPage returns the owner's article for the given external
	// page id, or domain.ErrNotFound.
	GetArticleByPage(ctx context.Context, ownerKey string, pageID int64) (domain.Article, error)

	// GetArticle returns the owner's article by internal id, or
	// domain.ErrNotFound. Lookups are always owner-scoped.
	GetArticle(ctx context.Context, ownerKey string, id int64) (domain.Article, error)

	// ListArticles returns all articles owned by the given key. An owner
	// with no saves yields an empty slice, not an error.
	ListArticles(ctx context.Context, ownerKey string) ([]domain.Article, error)

	// UpdateArticleTags replaces the article's tag list in full and returns
	// the updated row, or domain.ErrNotFound.
	UpdateArticleTags(ctx context.Context, ownerKey string, id int64, tags []string) (domain.Article, error)

	// DeleteArticle removes the owner's article, or returns
	// domain.ErrNotFound.
	DeleteArticle(ctx context.Context, ownerKey string, id int64) error

	Close() error
}

// Options carries backend connection settings.
type Options struct {
	BBoltPath   string
	SQLitePath  string
	PostgresDSN string
}

// NewStore creates the configured storage backend.
func NewStore(typ string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))

	switch typ {
	case "memory":
		return NewMemoryStore(), nil
	case "bbolt":
		if strings.TrimSpace(opts.BBoltPath) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(opts.BBoltPath)
	case "sqlite":
		if strings.TrimSpace(opts.SQLitePath) == "" {
			return nil, fmt.Errorf("sqlite storage requires a path")
		}
		return openSQLite(opts.SQLitePath)
	case "postgres":
		if strings.TrimSpace(opts.PostgresDSN) == "" {
			return nil, fmt.Errorf("postgres storage requires a dsn")
		}
		return openPostgres(opts.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

// DefaultDisplayName derives the placeholder display name used when a user
// is implicitly created on first save.
func DefaultDisplayName(ownerKey string) string {
	return "User-" + ownerKey
}
