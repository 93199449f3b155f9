package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/deepak-arjariya/wikisearch/internal/domain"
)

// memoryStore keeps everything in process memory. Used as the development
// default and by tests. The single mutex plays the role the storage-level
// constraint plays in the durable backends.
type memoryStore struct {
	mu       sync.Mutex
	users    map[string]domain.User
	articles map[int64]domain.Article
	nextID   int64
}

// NewMemoryStore creates an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{
		users:    make(map[string]domain.User),
		articles: make(map[int64]domain.Article),
	}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) UpsertUser(_ context.Context, ownerKey string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[ownerKey]; ok {
		return u, nil
	}
	u := domain.User{OwnerKey: ownerKey, DisplayName: DefaultDisplayName(ownerKey)}
	m.users[ownerKey] = u
	return u, nil
}

func (m *memoryStore) GetUser(_ context.Context, ownerKey string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[ownerKey]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (m *memoryStore) CreateArticle(_ context.Context, a domain.Article) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.articles {
		if existing.OwnerKey == a.OwnerKey && existing.PageID == a.PageID {
			return domain.Article{}, domain.ErrConflict
		}
	}

	m.nextID++
	a.ID = m.nextID
	a.Tags = cloneTags(a.Tags)
	m.articles[a.ID] = a
	return a, nil
}

func (m *memoryStore) GetArticleByPage(_ context.Context, ownerKey string, pageID int64) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.articles {
		if a.OwnerKey == ownerKey && a.PageID == pageID {
			return a, nil
		}
	}
	return domain.Article{}, domain.ErrNotFound
}

func (m *memoryStore) GetArticle(_ context.Context, ownerKey string, id int64) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.articles[id]
	if !ok || a.OwnerKey != ownerKey {
		return domain.Article{}, domain.ErrNotFound
	}
	return a, nil
}

func (m *memoryStore) ListArticles(_ context.Context, ownerKey string) ([]domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Article, 0)
	for _, a := range m.articles {
		if a.OwnerKey == ownerKey {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) UpdateArticleTags(_ context.Context, ownerKey string, id int64, tags []string) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.articles[id]
	if !ok || a.OwnerKey != ownerKey {
		return domain.Article{}, domain.ErrNotFound
	}
	a.Tags = cloneTags(tags)
	m.articles[id] = a
	return a, nil
}

func (m *memoryStore) DeleteArticle(_ context.Context, ownerKey string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.articles[id]
	if !ok || a.OwnerKey != ownerKey {
		return domain.ErrNotFound
	}
	delete(m.articles, id)
	return nil
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
