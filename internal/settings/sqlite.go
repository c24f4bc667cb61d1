package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps settings as rows of a key/value table
type SQLiteStore struct {
	db       *sql.DB
	defaults Settings
}

const (
	keyUserName       = "user_name"
	keySidekickName   = "sidekick_name"
	keySetupCompleted = "setup_completed"
	keyMute           = "mute"
	keyCoreType       = "core_type"
)

// OpenSQLite opens (and creates if needed) the settings database at path
func OpenSQLite(path string, defaults Settings) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open settings database: %w", err)
	}
	// Single writer; the file is tiny
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create settings table: %w", err)
	}

	return &SQLiteStore{db: db, defaults: defaults}, nil
}

// Load reads every known key, falling back to the defaults per key
func (s *SQLiteStore) Load(ctx context.Context) (Settings, error) {
	out := s.defaults

	if v, err := s.get(ctx, keyUserName); err == nil {
		out.UserName = v
	} else if !errors.Is(err, ErrNotFound) {
		return Settings{}, err
	}
	if v, err := s.get(ctx, keySidekickName); err == nil {
		out.SidekickName = v
	} else if !errors.Is(err, ErrNotFound) {
		return Settings{}, err
	}
	if v, err := s.get(ctx, keyCoreType); err == nil {
		out.CoreType = v
	} else if !errors.Is(err, ErrNotFound) {
		return Settings{}, err
	}

	var err error
	if out.SetupCompleted, err = s.getBool(ctx, keySetupCompleted, s.defaults.SetupCompleted); err != nil {
		return Settings{}, err
	}
	if out.Mute, err = s.getBool(ctx, keyMute, s.defaults.Mute); err != nil {
		return Settings{}, err
	}
	return out, nil
}

// Save upserts every key in one transaction
func (s *SQLiteStore) Save(ctx context.Context, st Settings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings save: %w", err)
	}
	defer tx.Rollback()

	rows := [][2]string{
		{keyUserName, st.UserName},
		{keySidekickName, st.SidekickName},
		{keySetupCompleted, strconv.FormatBool(st.SetupCompleted)},
		{keyMute, strconv.FormatBool(st.Mute)},
		{keyCoreType, st.CoreType},
	}
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", row[0], row[1]); err != nil {
			return fmt.Errorf("save %s: %w", row[0], err)
		}
	}
	return tx.Commit()
}

// Reset deletes every stored row so Load returns the defaults
func (s *SQLiteStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM settings"); err != nil {
		return fmt.Errorf("reset settings: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key=?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) getBool(ctx context.Context, key string, fallback bool) (bool, error) {
	v, err := s.get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, nil
	}
	return b, nil
}
