package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	owner_key TEXT PRIMARY KEY,
	display_name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS articles (
	id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	pageid BIGINT NOT NULL,
	title TEXT NOT NULL,
	snippet TEXT NOT NULL,
	tags TEXT NOT NULL,
	owner_key TEXT NOT NULL REFERENCES users(owner_key),
	UNIQUE (pageid, owner_key)
);
`

// uniqueViolation is the SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// openPostgres initializes the distributed-SQL backend. The DSN may point
// at Postgres or anything speaking its wire protocol (e.g. CockroachDB).
func openPostgres(dsn string) (Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}

	return &sqlStore{
		db: db,
		q: sqlQueries{
			upsertUser:       `INSERT INTO users (owner_key, display_name) VALUES ($1, $2) ON CONFLICT (owner_key) DO NOTHING`,
			getUser:          `SELECT owner_key, display_name FROM users WHERE owner_key = $1`,
			insertArticle:    `INSERT INTO articles (pageid, title, snippet, tags, owner_key) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			getArticleByPage: `SELECT id, pageid, title, snippet, tags, owner_key FROM articles WHERE owner_key = $1 AND pageid = $2`,
			getArticleByID:   `SELECT id, pageid, title, snippet, tags, owner_key FROM articles WHERE owner_key = $1 AND id = $2`,
			listArticles:     `SELECT id, pageid, title, snippet, tags, owner_key FROM articles WHERE owner_key = $1 ORDER BY id`,
			updateTags:       `UPDATE articles SET tags = $1 WHERE owner_key = $2 AND id = $3`,
			deleteArticle:    `DELETE FROM articles WHERE owner_key = $1 AND id = $2`,
		},
		isUniqueViolation: isPostgresUniqueViolation,
	}, nil
}

func isPostgresUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
