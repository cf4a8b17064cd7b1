// Package store provides storage backends for the callout bot.
//
// This file implements the SQLite-backed store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/calloutkit/calloutbot/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database
// directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN. The DSN is
// a file path to the database file; its directory is created when missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveSubscriber(ctx context.Context, sub models.Subscriber) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO subscribers (chat_id, first_name, last_name, username, anonymous, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET first_name=excluded.first_name, last_name=excluded.last_name,
		username=excluded.username, anonymous=excluded.anonymous, updated_at=excluded.updated_at`,
		sub.ChatID, sub.FirstName, sub.LastName, sub.Username, sub.Anonymous, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveSubscriber failed", "error", err, "chatID", sub.ChatID)
		return fmt.Errorf("failed to save subscriber %d: %w", sub.ChatID, err)
	}
	return nil
}

func (s *SQLiteStore) GetSubscriber(ctx context.Context, chatID int64) (*models.Subscriber, error) {
	row := s.db.QueryRowContext(ctx, `SELECT chat_id, first_name, last_name, username, anonymous, created_at, updated_at
		FROM subscribers WHERE chat_id = ?`, chatID)
	sub, err := scanSubscriberRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: subscriber %d", ErrNotFound, chatID)
	}
	if err != nil {
		slog.Error("SQLiteStore GetSubscriber failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to get subscriber %d: %w", chatID, err)
	}
	return sub, nil
}

func (s *SQLiteStore) ListSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id, first_name, last_name, username, anonymous, created_at, updated_at FROM subscribers`)
	if err != nil {
		slog.Error("SQLiteStore ListSubscribers query failed", "error", err)
		return nil, fmt.Errorf("failed to query subscribers: %w", err)
	}
	defer rows.Close()

	var subscribers []models.Subscriber
	for rows.Next() {
		var sub models.Subscriber
		var firstName, lastName, username sql.NullString
		if err := rows.Scan(&sub.ChatID, &firstName, &lastName, &username, &sub.Anonymous, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber row: %w", err)
		}
		sub.FirstName = firstName.String
		sub.LastName = lastName.String
		sub.Username = username.String
		subscribers = append(subscribers, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriber rows: %w", err)
	}
	return subscribers, nil
}

func (s *SQLiteStore) DeleteSubscriber(ctx context.Context, chatID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subscribers WHERE chat_id = ?`, chatID); err != nil {
		slog.Error("SQLiteStore DeleteSubscriber failed", "error", err, "chatID", chatID)
		return fmt.Errorf("failed to delete subscriber %d: %w", chatID, err)
	}
	return nil
}

func (s *SQLiteStore) SaveSessionSnapshot(ctx context.Context, snapshot models.SessionSnapshot) error {
	keyboard, err := encodeKeyboard(snapshot.LatestKeyboard)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO session_snapshots (chat_id, state, latest_keyboard, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET state=excluded.state, latest_keyboard=excluded.latest_keyboard, updated_at=excluded.updated_at`,
		snapshot.ChatID, snapshot.State, keyboard, snapshot.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveSessionSnapshot failed", "error", err, "chatID", snapshot.ChatID)
		return fmt.Errorf("failed to save session snapshot %d: %w", snapshot.ChatID, err)
	}
	return nil
}

func (s *SQLiteStore) ListSessionSnapshots(ctx context.Context) ([]models.SessionSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id, state, latest_keyboard, updated_at FROM session_snapshots`)
	if err != nil {
		slog.Error("SQLiteStore ListSessionSnapshots query failed", "error", err)
		return nil, fmt.Errorf("failed to query session snapshots: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

func (s *SQLiteStore) AddCalloutResponse(ctx context.Context, record models.CalloutResponseRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO callout_responses (id, chat_id, callout_slug, answers, submitted_at)
		VALUES (?, ?, ?, ?, ?)`,
		record.ID, record.ChatID, record.CalloutSlug, record.Answers, record.SubmittedAt)
	if err != nil {
		slog.Error("SQLiteStore AddCalloutResponse failed", "error", err, "slug", record.CalloutSlug)
		return fmt.Errorf("failed to insert callout response for %s: %w", record.CalloutSlug, err)
	}
	return nil
}

func (s *SQLiteStore) ListCalloutResponses(ctx context.Context, slug string) ([]models.CalloutResponseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, chat_id, callout_slug, answers, submitted_at
		FROM callout_responses WHERE (? = '' OR callout_slug = ?) ORDER BY submitted_at`, slug, slug)
	if err != nil {
		slog.Error("SQLiteStore ListCalloutResponses query failed", "error", err, "slug", slug)
		return nil, fmt.Errorf("failed to query callout responses: %w", err)
	}
	defer rows.Close()
	return scanResponses(rows)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func encodeKeyboard(kb *models.KeyboardMetadata) (any, error) {
	if kb == nil {
		return nil, nil
	}
	data, err := json.Marshal(kb)
	if err != nil {
		return nil, fmt.Errorf("failed to encode keyboard metadata: %w", err)
	}
	return string(data), nil
}

func decodeKeyboard(raw sql.NullString) (*models.KeyboardMetadata, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var kb models.KeyboardMetadata
	if err := json.Unmarshal([]byte(raw.String), &kb); err != nil {
		return nil, fmt.Errorf("failed to decode keyboard metadata: %w", err)
	}
	return &kb, nil
}

func scanSubscriberRow(row *sql.Row) (*models.Subscriber, error) {
	var sub models.Subscriber
	var firstName, lastName, username sql.NullString
	err := row.Scan(&sub.ChatID, &firstName, &lastName, &username, &sub.Anonymous, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sub.FirstName = firstName.String
	sub.LastName = lastName.String
	sub.Username = username.String
	return &sub, nil
}

func scanSnapshots(rows *sql.Rows) ([]models.SessionSnapshot, error) {
	var snapshots []models.SessionSnapshot
	for rows.Next() {
		var snap models.SessionSnapshot
		var keyboard sql.NullString
		if err := rows.Scan(&snap.ChatID, &snap.State, &keyboard, &snap.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session snapshot row: %w", err)
		}
		kb, err := decodeKeyboard(keyboard)
		if err != nil {
			return nil, err
		}
		snap.LatestKeyboard = kb
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session snapshot rows: %w", err)
	}
	return snapshots, nil
}

func scanResponses(rows *sql.Rows) ([]models.CalloutResponseRecord, error) {
	var records []models.CalloutResponseRecord
	for rows.Next() {
		var r models.CalloutResponseRecord
		if err := rows.Scan(&r.ID, &r.ChatID, &r.CalloutSlug, &r.Answers, &r.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan callout response row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate callout response rows: %w", err)
	}
	return records, nil
}
