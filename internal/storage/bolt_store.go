package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/deepak-arjariya/wikisearch/internal/domain"
)

const (
	userBucket    = "users"
	articleBucket = "articles"
	pageIdxBucket = "article_page_idx"
)

// boltStore implements Store backed by BoltDB. Bolt serializes write
// transactions, so the duplicate checks inside Update blocks are atomic with
// their inserts; that serialization is the uniqueness constraint here.
type boltStore struct {
	db *bolt.DB
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{userBucket, articleBucket, pageIdxBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &boltStore{db: db}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *boltStore) UpsertUser(_ context.Context, ownerKey string) (domain.User, error) {
	var user domain.User
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(userBucket))
		if bucket == nil {
			return fmt.Errorf("user bucket missing")
		}

		if raw := bucket.Get([]byte(ownerKey)); raw != nil {
			return json.Unmarshal(raw, &user)
		}

		user = domain.User{OwnerKey: ownerKey, DisplayName: DefaultDisplayName(ownerKey)}
		raw, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(ownerKey), raw)
	})
	return user, err
}

func (b *boltStore) GetUser(_ context.Context, ownerKey string) (domain.User, error) {
	var user domain.User
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(userBucket))
		if bucket == nil {
			return fmt.Errorf("user bucket missing")
		}
		raw := bucket.Get([]byte(ownerKey))
		if raw == nil {
			return domain.ErrNotFound
		}
		return json.Unmarshal(raw, &user)
	})
	return user, err
}

func (b *boltStore) CreateArticle(_ context.Context, a domain.Article) (domain.Article, error) {
	err := b.db.Update(func(tx *bolt.Tx) error {
		articles := tx.Bucket([]byte(articleBucket))
		pageIdx := tx.Bucket([]byte(pageIdxBucket))
		if articles == nil || pageIdx == nil {
			return fmt.Errorf("article buckets missing")
		}

		idxKey := pageIndexKey(a.OwnerKey, a.PageID)
		if pageIdx.Get(idxKey) != nil {
			return domain.ErrConflict
		}

		seq, err := articles.NextSequence()
		if err != nil {
			return err
		}
		a.ID = int64(seq)

		raw, err := json.Marshal(a)
		if err != nil {
			return err
		}
		if err := articles.Put(articleIDKey(a.ID), raw); err != nil {
			return err
		}
		return pageIdx.Put(idxKey, articleIDKey(a.ID))
	})
	if err != nil {
		return domain.Article{}, err
	}
	return a, nil
}

func (b *boltStore) GetArticleByPage(_ context.Context, ownerKey string, pageID int64) (domain.Article, error) {
	var article domain.Article
	err := b.db.View(func(tx *bolt.Tx) error {
		articles := tx.Bucket([]byte(articleBucket))
		pageIdx := tx.Bucket([]byte(pageIdxBucket))
		if articles == nil || pageIdx == nil {
			return fmt.Errorf("article buckets missing")
		}

		idKey := pageIdx.Get(pageIndexKey(ownerKey, pageID))
		if idKey == nil {
			return domain.ErrNotFound
		}
		raw := articles.Get(idKey)
		if raw == nil {
			return domain.ErrNotFound
		}
		return json.Unmarshal(raw, &article)
	})
	return article, err
}

func (b *boltStore) GetArticle(_ context.Context, ownerKey string, id int64) (domain.Article, error) {
	var article domain.Article
	err := b.db.View(func(tx *bolt.Tx) error {
		articles := tx.Bucket([]byte(articleBucket))
		if articles == nil {
			return fmt.Errorf("article bucket missing")
		}
		return b.loadOwned(articles, ownerKey, id, &article)
	})
	return article, err
}

func (b *boltStore) ListArticles(_ context.Context, ownerKey string) ([]domain.Article, error) {
	out := make([]domain.Article, 0)
	err := b.db.View(func(tx *bolt.Tx) error {
		articles := tx.Bucket([]byte(articleBucket))
		pageIdx := tx.Bucket([]byte(pageIdxBucket))
		if articles == nil || pageIdx == nil {
			return fmt.Errorf("article buckets missing")
		}

		prefix := ownerPrefix(ownerKey)
		cursor := pageIdx.Cursor()
		for k, idKey := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, idKey = cursor.Next() {
			raw := articles.Get(idKey)
			if raw == nil {
				continue
			}
			var a domain.Article
			if err := json.Unmarshal(raw, &a); err != nil {
				return err
			}
			out = append(out, a)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (b *boltStore) UpdateArticleTags(_ context.Context, ownerKey string, id int64, tags []string) (domain.Article, error) {
	var article domain.Article
	err := b.db.Update(func(tx *bolt.Tx) error {
		articles := tx.Bucket([]byte(articleBucket))
		if articles == nil {
			return fmt.Errorf("article bucket missing")
		}
		if err := b.loadOwned(articles, ownerKey, id, &article); err != nil {
			return err
		}

		article.Tags = cloneTags(tags)
		raw, err := json.Marshal(article)
		if err != nil {
			return err
		}
		return articles.Put(articleIDKey(id), raw)
	})
	return article, err
}

func (b *boltStore) DeleteArticle(_ context.Context, ownerKey string, id int64) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		articles := tx.Bucket([]byte(articleBucket))
		pageIdx := tx.Bucket([]byte(pageIdxBucket))
		if articles == nil || pageIdx == nil {
			return fmt.Errorf("article buckets missing")
		}

		var article domain.Article
		if err := b.loadOwned(articles, ownerKey, id, &article); err != nil {
			return err
		}

		if err := articles.Delete(articleIDKey(id)); err != nil {
			return err
		}
		return pageIdx.Delete(pageIndexKey(ownerKey, article.PageID))
	})
}

// loadOwned fetches an article by id and verifies ownership, mapping both a
// missing row and a foreign owner to ErrNotFound.
func (b *boltStore) loadOwned(bucket *bolt.Bucket, ownerKey string, id int64, out *domain.Article) error {
	raw := bucket.Get(articleIDKey(id))
	if raw == nil {
		return domain.ErrNotFound
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return err
	}
	if out.OwnerKey != ownerKey {
		return domain.ErrNotFound
	}
	return nil
}

func articleIDKey(id int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

func ownerPrefix(ownerKey string) []byte {
	return append([]byte(ownerKey), 0x00)
}

func pageIndexKey(ownerKey string, pageID int64) []byte {
	key := ownerPrefix(ownerKey)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(pageID))
	return append(key, buf...)
}
