package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/louisbranch/scopeweb/internal/platform/errors"
	"github.com/louisbranch/scopeweb/internal/platform/storage/sqlitemigrate"
	webstorage "github.com/louisbranch/scopeweb/internal/services/web/storage"
	"github.com/louisbranch/scopeweb/internal/services/web/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// DefaultMaxValuesBytes caps the encoded size of one bookmark.
const DefaultMaxValuesBytes = 64 << 10

var errNotConfigured = errors.New("storage is not configured")

// Store provides SQLite-backed persistence for bookmarks.
type Store struct {
	sqlDB     *sql.DB
	maxValues int
	now       func() time.Time
}

// Open opens and migrates a bookmark SQLite store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB, maxValues: DefaultMaxValuesBytes, now: time.Now}
	if _, err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveBookmark stores values under a fresh id.
func (s *Store) SaveBookmark(ctx context.Context, values map[string]any) (webstorage.Bookmark, error) {
	if s == nil || s.sqlDB == nil {
		return webstorage.Bookmark{}, errNotConfigured
	}
	if values == nil {
		values = map[string]any{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return webstorage.Bookmark{}, apperrors.Wrap(apperrors.KindInvalidInput, "encode bookmark values", err)
	}
	if s.maxValues > 0 && len(payload) > s.maxValues {
		return webstorage.Bookmark{}, apperrors.EK(apperrors.KindInvalidInput, "error.bookmark.too_large",
			fmt.Sprintf("bookmark is %d bytes, limit is %d", len(payload), s.maxValues))
	}

	bookmark := webstorage.Bookmark{
		ID:        uuid.NewString(),
		Values:    values,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO bookmarks (id, values_json, created_at) VALUES (?, ?, ?)`,
		bookmark.ID, string(payload), bookmark.CreatedAt.UnixMilli(),
	); err != nil {
		return webstorage.Bookmark{}, fmt.Errorf("insert bookmark: %w", err)
	}
	return bookmark, nil
}

// GetBookmark loads a bookmark by id.
func (s *Store) GetBookmark(ctx context.Context, id string) (webstorage.Bookmark, error) {
	if s == nil || s.sqlDB == nil {
		return webstorage.Bookmark{}, errNotConfigured
	}
	id = strings.TrimSpace(id)
	if err := uuid.Validate(id); err != nil {
		return webstorage.Bookmark{}, notFound(id)
	}

	var (
		payload   string
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT values_json, created_at FROM bookmarks WHERE id = ?`, id,
	).Scan(&payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return webstorage.Bookmark{}, notFound(id)
	}
	if err != nil {
		return webstorage.Bookmark{}, fmt.Errorf("get bookmark: %w", err)
	}

	values := map[string]any{}
	if err := json.Unmarshal([]byte(payload), &values); err != nil {
		return webstorage.Bookmark{}, fmt.Errorf("decode bookmark %s: %w", id, err)
	}
	return webstorage.Bookmark{
		ID:        id,
		Values:    values,
		CreatedAt: time.UnixMilli(createdAt).UTC(),
	}, nil
}

func notFound(id string) error {
	return apperrors.EK(apperrors.KindNotFound, "error.bookmark.not_found", fmt.Sprintf("bookmark %q not found", id))
}

var _ webstorage.BookmarkStore = (*Store)(nil)
