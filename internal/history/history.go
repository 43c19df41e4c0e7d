// Package history records resolved episodes in a local SQLite database.
// The schema is managed by goose migrations embedded in the binary.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"reelhound/internal/media"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a history database handle.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	// single connection: SQLite allows one writer at a time
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("preparing migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrating history db: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record saves the stream chosen for an episode. A later record for the same
// episode replaces the earlier one.
func (s *Store) Record(ctx context.Context, e media.HistoryEntry) error {
	if e.EpisodeURL == "" || e.StreamURL == "" {
		return fmt.Errorf("history entry needs an episode and a stream URL")
	}
	if e.ResolvedAt.IsZero() {
		e.ResolvedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (episode_url, title, stream_url, server, quality, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(episode_url) DO UPDATE SET
			title = excluded.title,
			stream_url = excluded.stream_url,
			server = excluded.server,
			quality = excluded.quality,
			resolved_at = excluded.resolved_at`,
		e.EpisodeURL, e.Title, e.StreamURL, e.Server, int(e.Quality), e.ResolvedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("recording history: %w", err)
	}
	return nil
}

// List returns the most recent entries first. A limit <= 0 returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]media.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT episode_url, title, stream_url, server, quality, resolved_at
		FROM history
		ORDER BY resolved_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []media.HistoryEntry
	for rows.Next() {
		var (
			e        media.HistoryEntry
			q        int
			resolved int64
		)
		if err := rows.Scan(&e.EpisodeURL, &e.Title, &e.StreamURL, &e.Server, &q, &resolved); err != nil {
			return nil, fmt.Errorf("reading history row: %w", err)
		}
		e.Quality = media.Quality(q)
		e.ResolvedAt = time.Unix(resolved, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// Remove deletes the entry for an episode. Removing a missing entry is not an error.
func (s *Store) Remove(ctx context.Context, episodeURL string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE episode_url = ?`, episodeURL); err != nil {
		return fmt.Errorf("removing history entry: %w", err)
	}
	return nil
}

// FormatForDisplay creates display strings for fzf selection from history entries.
func FormatForDisplay(entries []media.HistoryEntry) []string {
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = e.EpisodeURL
		}
		display := fmt.Sprintf("%s [%s]", title, e.Quality)
		if e.Server != "" {
			display += " " + e.Server
		}
		display += " (" + e.ResolvedAt.Format("2006-01-02") + ")"
		items = append(items, display)
	}
	return items
}
