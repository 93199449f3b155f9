package domain

import "errors"

// Domain contains core models shared across storage backends and workflows.

// Sentinel errors crossing layer boundaries. Storage backends translate
// backend-specific failures into these before returning.
var (
	// ErrNotFound is returned when an owner or article does not resolve
	// within the requested owner's scope.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned by CreateArticle when the (pageid, owner)
	// uniqueness constraint rejects an insert.
	ErrConflict = errors.New("already exists")

	// ErrUpstream is returned when an external provider is unreachable or
	// answers with a non-success response.
	ErrUpstream = errors.New("upstream unavailable")
)

// User is a saved-article owner. Users are created implicitly on first save
// and never updated or deleted afterwards.
type User struct {
	OwnerKey    string `json:"owner_key"`
	DisplayName string `json:"display_name"`
}

// Article is a saved Wikipedia search result scoped to exactly one owner.
// Title, snippet and owner are immutable after creation; only Tags may be
// replaced.
type Article struct {
	ID       int64    `json:"id"`
	PageID   int64    `json:"pageid"`
	Title    string   `json:"title"`
	Snippet  string   `json:"snippet"`
	Tags     []string `json:"tags"`
	OwnerKey string   `json:"owner_key"`
}

// SearchResult is one candidate document from the external search provider.
type SearchResult struct {
	PageID  int64  `json:"pageid"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Save outcome statuses.
const (
	SaveStatusCreated   = "created"
	SaveStatusDuplicate = "duplicate"
)
