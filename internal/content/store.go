package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is the sqlite-backed content backend.
type Store struct {
	db *sql.DB
}

// Open opens or creates the content database at path and ensures the schema.
// ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create content directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the connection for tables owned by other components.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		main_image TEXT,
		excerpt TEXT,
		body TEXT,          -- JSON array of blocks
		created_at DATETIME NOT NULL,
		author_name TEXT,
		categories TEXT,    -- JSON array
		tags TEXT           -- JSON array
	)`)
	return err
}

// Upsert inserts or replaces a post keyed by slug. Posts without an ID get a
// fresh one.
func (s *Store) Upsert(ctx context.Context, p Post) (Post, error) {
	if p.Slug == "" {
		return p, errors.New("post slug is required")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	body, err := json.Marshal(p.Body)
	if err != nil {
		return p, fmt.Errorf("encode body: %w", err)
	}
	cats, err := json.Marshal(p.Categories)
	if err != nil {
		return p, fmt.Errorf("encode categories: %w", err)
	}
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return p, fmt.Errorf("encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO posts (id, title, slug, main_image, excerpt, body, created_at, author_name, categories, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title,
			main_image = excluded.main_image,
			excerpt = excluded.excerpt,
			body = excluded.body,
			created_at = excluded.created_at,
			author_name = excluded.author_name,
			categories = excluded.categories,
			tags = excluded.tags
	`, p.ID, p.Title, p.Slug, p.MainImage, p.Excerpt, string(body), p.CreatedAt.UTC(),
		p.AuthorName, string(cats), string(tags))
	if err != nil {
		return p, fmt.Errorf("upsert post %s: %w", p.Slug, err)
	}
	return p, nil
}

// Posts returns every post, newest first.
func (s *Store) Posts(ctx context.Context) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, slug, main_image, excerpt, body, created_at, author_name, categories, tags
		FROM posts
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// BySlug returns the post with slug or ErrNotFound.
func (s *Store) BySlug(ctx context.Context, slug string) (Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, slug, main_image, excerpt, body, created_at, author_name, categories, tags
		FROM posts WHERE slug = ?
	`, slug)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(sc scanner) (Post, error) {
	var (
		p                      Post
		image, excerpt, author sql.NullString
		body, categories, tags sql.NullString
	)
	if err := sc.Scan(&p.ID, &p.Title, &p.Slug, &image, &excerpt, &body, &p.CreatedAt,
		&author, &categories, &tags); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scan post: %w", err)
	}
	p.MainImage = image.String
	p.Excerpt = excerpt.String
	p.AuthorName = author.String

	// malformed JSON columns degrade to empty fields
	_ = decodeJSON(body, &p.Body)
	_ = decodeJSON(categories, &p.Categories)
	_ = decodeJSON(tags, &p.Tags)
	return p, nil
}

func decodeJSON(s sql.NullString, v any) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), v)
}
