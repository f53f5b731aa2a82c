// Package store persists settings and keybinds in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when a setting or keybind does not exist.
var ErrNotFound = errors.New("not found")

// Setting is one persisted key/value pair.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Keybind maps a key combination to a command name.
type Keybind struct {
	KeyCombination string    `json:"key_combination"`
	Command        string    `json:"command"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store is the SQLite-backed persistence layer.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// DefaultPath returns $XDG_DATA_HOME/steward/steward.db.
func DefaultPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "steward", "steward.db"), nil
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		s.logger.Info("applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetSetting returns the setting stored under key.
func (s *Store) GetSetting(ctx context.Context, key string) (Setting, error) {
	var (
		setting   = Setting{Key: key}
		updatedAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, updated_at FROM settings WHERE key = ?`, key,
	).Scan(&setting.Value, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Setting{}, fmt.Errorf("setting %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return Setting{}, fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	setting.UpdatedAt = parseTimestamp(updatedAt)
	return setting, nil
}

// ListSettings returns every setting ordered by key.
func (s *Store) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var (
			setting   Setting
			updatedAt sql.NullString
		)
		if err := rows.Scan(&setting.Key, &setting.Value, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		setting.UpdatedAt = parseTimestamp(updatedAt)
		settings = append(settings, setting)
	}
	return settings, rows.Err()
}

// SetSetting upserts one setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	return s.SetSettings(ctx, map[string]string{key: value})
}

// SetSettings upserts several settings in one transaction.
func (s *Store) SetSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	for key := range values {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("setting key cannot be empty")
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("failed to prepare setting upsert: %w", err)
	}
	defer stmt.Close()

	for key, value := range values {
		if _, err := stmt.ExecContext(ctx, key, value); err != nil {
			return fmt.Errorf("failed to write setting %q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settings: %w", err)
	}
	return nil
}

// DeleteSetting removes a setting.
func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	return s.deleteOne(ctx, `DELETE FROM settings WHERE key = ?`, "setting", key)
}

// ListKeybinds returns every keybind ordered by key combination.
func (s *Store) ListKeybinds(ctx context.Context) ([]Keybind, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key_combination, command, created_at FROM keybinds ORDER BY key_combination`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keybinds: %w", err)
	}
	defer rows.Close()

	var binds []Keybind
	for rows.Next() {
		var (
			kb        Keybind
			createdAt sql.NullString
		)
		if err := rows.Scan(&kb.KeyCombination, &kb.Command, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan keybind: %w", err)
		}
		kb.CreatedAt = parseTimestamp(createdAt)
		binds = append(binds, kb)
	}
	return binds, rows.Err()
}

// SetKeybind binds combo to command, replacing any previous command.
func (s *Store) SetKeybind(ctx context.Context, combo, command string) error {
	if strings.TrimSpace(combo) == "" {
		return fmt.Errorf("key combination cannot be empty")
	}
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("command cannot be empty")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO keybinds (key_combination, command) VALUES (?, ?)
		ON CONFLICT(key_combination) DO UPDATE SET command = excluded.command`,
		combo, command)
	if err != nil {
		return fmt.Errorf("failed to write keybind %q: %w", combo, err)
	}
	return nil
}

// DeleteKeybind removes the binding for combo.
func (s *Store) DeleteKeybind(ctx context.Context, combo string) error {
	return s.deleteOne(ctx, `DELETE FROM keybinds WHERE key_combination = ?`, "keybind", combo)
}

// SeedKeybinds inserts defaults for combinations that are not bound yet and
// returns how many were added.
func (s *Store) SeedKeybinds(ctx context.Context, defaults map[string]string) (int, error) {
	added := 0
	for combo, command := range defaults {
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO keybinds (key_combination, command) VALUES (?, ?)`, combo, command)
		if err != nil {
			return added, fmt.Errorf("failed to seed keybind %q: %w", combo, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	return added, nil
}

func (s *Store) deleteOne(ctx context.Context, query, what, key string) error {
	res, err := s.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s %q: %w", what, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s %q: %w", what, key, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", what, key, ErrNotFound)
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func parseTimestamp(v sql.NullString) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v.String); err == nil {
			return t
		}
	}
	return time.Time{}
}
