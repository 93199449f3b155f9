package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	owner_key TEXT PRIMARY KEY,
	display_name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	pageid INTEGER NOT NULL,
	title TEXT NOT NULL,
	snippet TEXT NOT NULL,
	tags TEXT NOT NULL,
	owner_key TEXT NOT NULL REFERENCES users(owner_key),
	UNIQUE (pageid, owner_key)
);
`

// openSQLite initializes the embedded SQL backend and bootstraps the schema.
func openSQLite(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// modernc sqlite allows a single writer; keeping one connection avoids
	// SQLITE_BUSY churn under concurrent saves.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	return &sqlStore{
		db: db,
		q: sqlQueries{
			upsertUser:       `INSERT INTO users (owner_key, display_name) VALUES (?, ?) ON CONFLICT(owner_key) DO NOTHING`,
			getUser:          `SELECT owner_key, display_name FROM users WHERE owner_key = ?`,
			insertArticle:    `INSERT INTO articles (pageid, title, snippet, tags, owner_key) VALUES (?, ?, ?, ?, ?) RETURNING id`,
			getArticleByPage: `SELECT id, pageid, title, snippet, tags, owner_key FROM articles WHERE owner_key = ? AND pageid = ?`,
			getArticleByID:   `SELECT id, pageid, title, snippet, tags, owner_key FROM articles WHERE owner_key = ? AND id = ?`,
			listArticles:     `SELECT id, pageid, title, snippet, tags, owner_key FROM articles WHERE owner_key = ? ORDER BY id`,
			updateTags:       `UPDATE articles SET tags = ? WHERE owner_key = ? AND id = ?`,
			deleteArticle:    `DELETE FROM articles WHERE owner_key = ? AND id = ?`,
		},
		isUniqueViolation: isSQLiteUniqueViolation,
	}, nil
}

func isSQLiteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}
