// Package archive provides the PostgreSQL publish sink. The publish phase
// writes finished articles here; publishing the same task twice upserts
// instead of duplicating, so a caller can retry publish without regenerating.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

type Article struct {
	TaskID      string    `json:"task_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Tags        []string  `json:"tags,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	WordCount   int       `json:"word_count"`
	PublishedAt time.Time `json:"published_at"`
}

type Archive struct {
	db *sql.DB
}

func NewArchive(connectionString string) (*Archive, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Archive{db: db}, nil
}

// EnsureSchema creates the articles table if missing.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS articles (
			task_id      TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			body         TEXT NOT NULL,
			tags         JSONB,
			image_url    TEXT,
			word_count   INTEGER NOT NULL DEFAULT 0,
			published_at TIMESTAMPTZ NOT NULL
		)
	`

	_, err := a.db.ExecContext(ctx, query)
	return err
}

func (a *Archive) PublishArticle(ctx context.Context, art *Article) error {
	tags, err := json.Marshal(art.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `
		INSERT INTO articles (
			task_id, title, body, tags, image_url, word_count, published_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (task_id) DO UPDATE SET
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			tags = EXCLUDED.tags,
			image_url = EXCLUDED.image_url,
			word_count = EXCLUDED.word_count,
			published_at = EXCLUDED.published_at
	`

	_, err = a.db.ExecContext(
		ctx,
		query,
		art.TaskID,
		art.Title,
		art.Body,
		tags,
		art.ImageURL,
		art.WordCount,
		art.PublishedAt,
	)

	return err
}

func (a *Archive) GetArticle(ctx context.Context, taskID string) (*Article, error) {
	query := `SELECT task_id, title, body, tags, image_url, word_count, published_at FROM articles WHERE task_id = $1`

	return scanArticle(a.db.QueryRowContext(ctx, query, taskID))
}

func (a *Archive) ListRecent(ctx context.Context, limit int) ([]*Article, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT task_id, title, body, tags, image_url, word_count, published_at FROM articles ORDER BY published_at DESC LIMIT $1`

	rows, err := a.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var articles []*Article
	for rows.Next() {
		art, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, art)
	}

	return articles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*Article, error) {
	var art Article
	var tags []byte
	var imageURL sql.NullString

	err := row.Scan(
		&art.TaskID,
		&art.Title,
		&art.Body,
		&tags,
		&imageURL,
		&art.WordCount,
		&art.PublishedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &art.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	art.ImageURL = imageURL.String

	return &art, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}
