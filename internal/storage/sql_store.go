package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/deepak-arjariya/wikisearch/internal/domain"
)

// sqlQueries carries the dialect-specific statements for a relational
// backend. The surrounding logic is shared between sqlite and postgres.
type sqlQueries struct {
	upsertUser       string
	getUser          string
	insertArticle    string
	getArticleByPage string
	getArticleByID   string
	listArticles     string
	updateTags       string
	deleteArticle    string
}

// sqlStore implements Store on top of database/sql. Uniqueness is enforced
// by the UNIQUE (pageid, owner_key) constraint; isUniqueViolation maps the
// driver's constraint error to domain.ErrConflict.
type sqlStore struct {
	db                *sql.DB
	q                 sqlQueries
	isUniqueViolation func(error) bool
}

func (s *sqlStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqlStore) UpsertUser(ctx context.Context, ownerKey string) (domain.User, error) {
	// Insert-or-ignore first so two concurrent first-saves both land on the
	// same row; the follow-up read returns whichever insert won.
	if _, err := s.db.ExecContext(ctx, s.q.upsertUser, ownerKey, DefaultDisplayName(ownerKey)); err != nil {
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return s.GetUser(ctx, ownerKey)
}

func (s *sqlStore) GetUser(ctx context.Context, ownerKey string) (domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx, s.q.getUser, ownerKey).Scan(&u.OwnerKey, &u.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *sqlStore) CreateArticle(ctx context.Context, a domain.Article) (domain.Article, error) {
	tags, err := encodeTags(a.Tags)
	if err != nil {
		return domain.Article{}, err
	}

	err = s.db.QueryRowContext(ctx, s.q.insertArticle, a.PageID, a.Title, a.Snippet, tags, a.OwnerKey).Scan(&a.ID)
	if err != nil {
		if s.isUniqueViolation(err) {
			return domain.Article{}, domain.ErrConflict
		}
		return domain.Article{}, fmt.Errorf("insert article: %w", err)
	}
	return a, nil
}

func (s *sqlStore) GetArticleByPage(ctx context.Context, ownerKey string, pageID int64) (domain.Article, error) {
	return s.scanArticle(s.db.QueryRowContext(ctx, s.q.getArticleByPage, ownerKey, pageID))
}

func (s *sqlStore) GetArticle(ctx context.Context, ownerKey string, id int64) (domain.Article, error) {
	return s.scanArticle(s.db.QueryRowContext(ctx, s.q.getArticleByID, ownerKey, id))
}

func (s *sqlStore) ListArticles(ctx context.Context, ownerKey string) ([]domain.Article, error) {
	rows, err := s.db.QueryContext(ctx, s.q.listArticles, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Article, 0)
	for rows.Next() {
		a, err := s.scanArticleRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return out, nil
}

func (s *sqlStore) UpdateArticleTags(ctx context.Context, ownerKey string, id int64, tags []string) (domain.Article, error) {
	encoded, err := encodeTags(tags)
	if err != nil {
		return domain.Article{}, err
	}

	res, err := s.db.ExecContext(ctx, s.q.updateTags, encoded, ownerKey, id)
	if err != nil {
		return domain.Article{}, fmt.Errorf("update tags: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Article{}, fmt.Errorf("update tags: %w", err)
	}
	if affected == 0 {
		return domain.Article{}, domain.ErrNotFound
	}
	return s.GetArticle(ctx, ownerKey, id)
}

func (s *sqlStore) DeleteArticle(ctx context.Context, ownerKey string, id int64) error {
	res, err := s.db.ExecContext(ctx, s.q.deleteArticle, ownerKey, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *sqlStore) scanArticle(row *sql.Row) (domain.Article, error) {
	a, err := s.scanArticleRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, domain.ErrNotFound
	}
	return a, err
}

func (s *sqlStore) scanArticleRow(row rowScanner) (domain.Article, error) {
	var a domain.Article
	var tags string
	if err := row.Scan(&a.ID, &a.PageID, &a.Title, &a.Snippet, &tags, &a.OwnerKey); err != nil {
		return domain.Article{}, err
	}
	decoded, err := decodeTags(tags)
	if err != nil {
		return domain.Article{}, err
	}
	a.Tags = decoded
	return a, nil
}

// Tags persist as a JSON array string so the ordered list round-trips
// unchanged through both SQL dialects.
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(raw), nil
}

func decodeTags(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags, nil
}
