package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Keys stored in app_settings.
const (
	SettingCurrentPage = "current_page_id"
	SettingSchema      = "document_schema"
)

// SettingsStore is a string key-value table next to the document.
type SettingsStore struct {
	db *DB
}

func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the value for key, or "" with ok=false when unset.
func (s *SettingsStore) Get(ctx context.Context, key string) (string, bool, error) {
	return getSetting(ctx, s.db.conn, key)
}

// Set upserts key.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	return setSetting(ctx, s.db.conn, key, value)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getSetting(ctx context.Context, q querier, key string) (string, bool, error) {
	var v string
	err := q.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return v, true, nil
}

func setSetting(ctx context.Context, q querier, key, value string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
