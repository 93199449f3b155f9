package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/deepak-arjariya/wikisearch/internal/domain"
)

// backends under test. Postgres is excluded: it needs a running server.
func testBackends(t *testing.T) map[string]Store {
	t.Helper()

	dir := t.TempDir()

	boltStore, err := NewStore("bbolt", Options{BBoltPath: filepath.Join(dir, "articles.bolt")})
	if err != nil {
		t.Fatalf("open bbolt store: %v", err)
	}
	sqliteStore, err := NewStore("sqlite", Options{SQLitePath: filepath.Join(dir, "articles.db")})
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"bbolt":  boltStore,
		"sqlite": sqliteStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestNewStoreUnsupportedType(t *testing.T) {
	if _, err := NewStore("cassandra", Options{}); err == nil {
		t.Fatalf("expected error for unsupported storage type")
	}
}

func TestUpsertUserIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			first, err := store.UpsertUser(ctx, "u1")
			if err != nil {
				t.Fatalf("first upsert: %v", err)
			}
			if first.OwnerKey != "u1" || first.DisplayName != "User-u1" {
				t.Fatalf("unexpected user: %+v", first)
			}

			second, err := store.UpsertUser(ctx, "u1")
			if err != nil {
				t.Fatalf("second upsert: %v", err)
			}
			if second != first {
				t.Fatalf("upsert not idempotent: %+v vs %+v", second, first)
			}
		})
	}
}

func TestGetUserUnknown(t *testing.T) {
	ctx := context.Background()
	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.GetUser(ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestCreateArticleConflict(t *testing.T) {
	ctx := context.Background()
	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.UpsertUser(ctx, "u1"); err != nil {
				t.Fatalf("upsert user: %v", err)
			}

			a := domain.Article{PageID: 42, Title: "Cats", Snippet: "Cats are mammals", Tags: []string{"biology"}, OwnerKey: "u1"}
			created, err := store.CreateArticle(ctx, a)
			if err != nil {
				t.Fatalf("create article: %v", err)
			}
			if created.ID == 0 {
				t.Fatalf("expected assigned id")
			}

			if _, err := store.CreateArticle(ctx, a); !errors.Is(err, domain.ErrConflict) {
				t.Fatalf("expected ErrConflict, got %v", err)
			}

			// Same page under another owner is fine.
			if _, err := store.UpsertUser(ctx, "u2"); err != nil {
				t.Fatalf("upsert user: %v", err)
			}
			a.OwnerKey = "u2"
			if _, err := store.CreateArticle(ctx, a); err != nil {
				t.Fatalf("create for second owner: %v", err)
			}
		})
	}
}

func TestConcurrentCreateYieldsOneRow(t *testing.T) {
	ctx := context.Background()
	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.UpsertUser(ctx, "u1"); err != nil {
				t.Fatalf("upsert user: %v", err)
			}

			const racers = 8
			var wg sync.WaitGroup
			results := make(chan error, racers)
			for i := 0; i < racers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := store.CreateArticle(ctx, domain.Article{
						PageID: 7, Title: "Go", Snippet: "Go is a language", Tags: []string{"technology"}, OwnerKey: "u1",
					})
					results <- err
				}()
			}
			wg.Wait()
			close(results)

			var created, conflicts int
			for err := range results {
				switch {
				case err == nil:
					created++
				case errors.Is(err, domain.ErrConflict):
					conflicts++
				default:
					t.Fatalf("unexpected error: %v", err)
				}
			}
			if created != 1 || conflicts != racers-1 {
				t.Fatalf("expected 1 insert and %d conflicts, got %d and %d", racers-1, created, conflicts)
			}

			articles, err := store.ListArticles(ctx, "u1")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(articles) != 1 {
				t.Fatalf("expected exactly one row, got %d", len(articles))
			}
		})
	}
}

func TestListArticlesScopedAndOrdered(t *testing.T) {
	ctx := context.Background()
	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			for _, owner := range []string{"u1", "u2"} {
				if _, err := store.UpsertUser(ctx, owner); err != nil {
					t.Fatalf("upsert user: %v", err)
				}
			}

			pages := []int64{30, 10, 20}
			for _, page := range pages {
				if _, err := store.CreateArticle(ctx, domain.Article{
					PageID: page, Title: "t", Snippet: "s", Tags: []string{}, OwnerKey: "u1",
				}); err != nil {
					t.Fatalf("create: %v", err)
				}
			}
			if _, err := store.CreateArticle(ctx, domain.Article{
				PageID: 10, Title: "other", Snippet: "s", Tags: []string{}, OwnerKey: "u2",
			}); err != nil {
				t.Fatalf("create for u2: %v", err)
			}

			articles, err := store.ListArticles(ctx, "u1")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(articles) != 3 {
				t.Fatalf("expected 3 articles, got %d", len(articles))
			}
			for i := 1; i < len(articles); i++ {
				if articles[i-1].ID >= articles[i].ID {
					t.Fatalf("list not ordered by id: %+v", articles)
				}
			}
			for _, a := range articles {
				if a.OwnerKey != "u1" {
					t.Fatalf("foreign article leaked into list: %+v", a)
				}
			}

			empty, err := store.ListArticles(ctx, "u3")
			if err != nil {
				t.Fatalf("list unknown owner: %v", err)
			}
			if len(empty) != 0 {
				t.Fatalf("expected empty list, got %d", len(empty))
			}
		})
	}
}

func TestUpdateArticleTagsReplaces(t *testing.T) {
	ctx := context.Background()
	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.UpsertUser(ctx, "u1"); err != nil {
				t.Fatalf("upsert user: %v", err)
			}
			created, err := store.CreateArticle(ctx, domain.Article{
				PageID: 1, Title: "t", Snippet: "s", Tags: []string{"a", "b"}, OwnerKey: "u1",
			})
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			updated, err := store.UpdateArticleTags(ctx, "u1", created.ID, []string{"c"})
			if err != nil {
				t.Fatalf("update tags: %v", err)
			}
			if len(updated.Tags) != 1 || updated.Tags[0] != "c" {
				t.Fatalf("expected full replacement to [c], got %v", updated.Tags)
			}

			// Owner-scoped: another owner cannot touch the row.
			if _, err := store.UpdateArticleTags(ctx, "u2", created.ID, []string{"x"}); !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
			}
		})
	}
}

func TestDeleteArticle(t *testing.T) {
	ctx := context.Background()
	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.UpsertUser(ctx, "u1"); err != nil {
				t.Fatalf("upsert user: %v", err)
			}
			created, err := store.CreateArticle(ctx, domain.Article{
				PageID: 1, Title: "t", Snippet: "s", Tags: []string{}, OwnerKey: "u1",
			})
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			if err := store.DeleteArticle(ctx, "u2", created.ID); !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
			}
			if err := store.DeleteArticle(ctx, "u1", created.ID); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := store.DeleteArticle(ctx, "u1", created.ID); !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected ErrNotFound on repeat delete, got %v", err)
			}

			// The (pageid, owner) slot is free again after deletion.
			if _, err := store.CreateArticle(ctx, domain.Article{
				PageID: 1, Title: "t", Snippet: "s", Tags: []string{}, OwnerKey: "u1",
			}); err != nil {
				t.Fatalf("re-create after delete: %v", err)
			}
		})
	}
}

func TestGetArticleByPage(t *testing.T) {
	ctx := context.Background()
	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.UpsertUser(ctx, "u1"); err != nil {
				t.Fatalf("upsert user: %v", err)
			}
			created, err := store.CreateArticle(ctx, domain.Article{
				PageID: 99, Title: "t", Snippet: "s", Tags: []string{"a"}, OwnerKey: "u1",
			})
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			got, err := store.GetArticleByPage(ctx, "u1", 99)
			if err != nil {
				t.Fatalf("get by page: %v", err)
			}
			if got.ID != created.ID || got.PageID != 99 {
				t.Fatalf("unexpected article: %+v", got)
			}

			if _, err := store.GetArticleByPage(ctx, "u1", 100); !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if _, err := store.GetArticleByPage(ctx, "u2", 99); !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
			}
		})
	}
}

func TestConcurrentUpsertUserSingleRow(t *testing.T) {
	ctx := context.Background()
	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			const racers = 8
			var wg sync.WaitGroup
			errs := make(chan error, racers)
			for i := 0; i < racers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := store.UpsertUser(ctx, "shared")
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				if err != nil {
					t.Fatalf("concurrent upsert: %v", err)
				}
			}

			u, err := store.GetUser(ctx, "shared")
			if err != nil {
				t.Fatalf("get user: %v", err)
			}
			if u.DisplayName != "User-shared" {
				t.Fatalf("unexpected user row: %+v", u)
			}
		})
	}
}
