package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"

	"github.com/soberano/soberano/internal/domain"
	"github.com/soberano/soberano/internal/port"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store keeps the manifest of engine artifacts fetched into the cache.
type Store struct {
	db *sql.DB
}

var hookOnce sync.Once

func registerHook() {
	hookOnce.Do(func() {
		sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, dsn string) error {
			pragmas := []string{
				"PRAGMA journal_mode = WAL",
				"PRAGMA busy_timeout = 5000",
				"PRAGMA synchronous = NORMAL",
				"PRAGMA foreign_keys = ON",
			}
			for _, p := range pragmas {
				if _, err := conn.ExecContext(context.Background(), p, nil); err != nil {
					return fmt.Errorf("execute %s: %w", p, err)
				}
			}
			return nil
		})
	})
}

var gooseOnce sync.Once

func NewStore(dataDir string) (*Store, error) {
	registerHook()

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dataDir, "soberano.db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection for SQLite (WAL allows concurrent reads but only one writer)
	db.SetMaxOpenConns(1)

	var dialectErr error
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrations)
		goose.SetLogger(goose.NopLogger())
		dialectErr = goose.SetDialect("sqlite3")
	})
	if dialectErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", dialectErr)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetArtifact(ctx context.Context, kind domain.ArtifactKind) (*domain.ArtifactRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT kind, source_url, path, digest, size, fetched_at FROM engine_artifacts WHERE kind = ?`,
		string(kind))
	rec, err := scanArtifact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get artifact %s: %w", kind, err)
	}
	return rec, nil
}

func (s *Store) SaveArtifact(ctx context.Context, rec *domain.ArtifactRecord) error {
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO engine_artifacts (kind, source_url, path, digest, size, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET
			source_url = excluded.source_url,
			path = excluded.path,
			digest = excluded.digest,
			size = excluded.size,
			fetched_at = excluded.fetched_at`,
		string(rec.Kind), rec.SourceURL, rec.Path, rec.Digest, rec.Size, rec.FetchedAt.UTC())
	if err != nil {
		return fmt.Errorf("save artifact %s: %w", rec.Kind, err)
	}
	return nil
}

func (s *Store) ListArtifacts(ctx context.Context) ([]domain.ArtifactRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, source_url, path, digest, size, fetched_at FROM engine_artifacts ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.ArtifactRecord
	for rows.Next() {
		rec, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *Store) DeleteArtifact(ctx context.Context, kind domain.ArtifactKind) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM engine_artifacts WHERE kind = ?`, string(kind)); err != nil {
		return fmt.Errorf("delete artifact %s: %w", kind, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row scanner) (*domain.ArtifactRecord, error) {
	var (
		rec  domain.ArtifactRecord
		kind string
	)
	if err := row.Scan(&kind, &rec.SourceURL, &rec.Path, &rec.Digest, &rec.Size, &rec.FetchedAt); err != nil {
		return nil, err
	}
	rec.Kind = domain.ArtifactKind(kind)
	return &rec, nil
}

var _ port.ArtifactCache = (*Store)(nil)
