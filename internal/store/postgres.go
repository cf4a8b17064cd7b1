// Package store provides storage backends for the callout bot.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/calloutkit/calloutbot/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SaveSubscriber(ctx context.Context, sub models.Subscriber) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO subscribers (chat_id, first_name, last_name, username, anonymous, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (chat_id) DO UPDATE SET first_name=EXCLUDED.first_name, last_name=EXCLUDED.last_name,
		username=EXCLUDED.username, anonymous=EXCLUDED.anonymous, updated_at=EXCLUDED.updated_at`,
		sub.ChatID, sub.FirstName, sub.LastName, sub.Username, sub.Anonymous, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveSubscriber failed", "error", err, "chatID", sub.ChatID)
		return fmt.Errorf("failed to save subscriber %d: %w", sub.ChatID, err)
	}
	return nil
}

func (s *PostgresStore) GetSubscriber(ctx context.Context, chatID int64) (*models.Subscriber, error) {
	row := s.db.QueryRowContext(ctx, `SELECT chat_id, first_name, last_name, username, anonymous, created_at, updated_at
		FROM subscribers WHERE chat_id = $1`, chatID)
	sub, err := scanSubscriberRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: subscriber %d", ErrNotFound, chatID)
	}
	if err != nil {
		slog.Error("PostgresStore GetSubscriber failed", "error", err, "chatID", chatID)
		return nil, fmt.Errorf("failed to get subscriber %d: %w", chatID, err)
	}
	return sub, nil
}

func (s *PostgresStore) ListSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id, first_name, last_name, username, anonymous, created_at, updated_at FROM subscribers`)
	if err != nil {
		slog.Error("PostgresStore ListSubscribers query failed", "error", err)
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

func (s *PostgresStore) DeleteSubscriber(ctx context.Context, chatID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subscribers WHERE chat_id = $1`, chatID); err != nil {
		slog.Error("PostgresStore DeleteSubscriber failed", "error", err, "chatID", chatID)
		return fmt.Errorf("failed to delete subscriber %d: %w", chatID, err)
	}
	return nil
}

func (s *PostgresStore) SaveSessionSnapshot(ctx context.Context, snapshot models.SessionSnapshot) error {
	keyboard, err := encodeKeyboard(snapshot.LatestKeyboard)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO session_snapshots (chat_id, state, latest_keyboard, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chat_id) DO UPDATE SET state=EXCLUDED.state, latest_keyboard=EXCLUDED.latest_keyboard, updated_at=EXCLUDED.updated_at`,
		snapshot.ChatID, snapshot.State, keyboard, snapshot.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveSessionSnapshot failed", "error", err, "chatID", snapshot.ChatID)
		return fmt.Errorf("failed to save session snapshot %d: %w", snapshot.ChatID, err)
	}
	return nil
}

func (s *PostgresStore) ListSessionSnapshots(ctx context.Context) ([]models.SessionSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id, state, latest_keyboard, updated_at FROM session_snapshots`)
	if err != nil {
		slog.Error("PostgresStore ListSessionSnapshots query failed", "error", err)
		return nil, fmt.Errorf("failed to query session snapshots: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

func (s *PostgresStore) AddCalloutResponse(ctx context.Context, record models.CalloutResponseRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO callout_responses (id, chat_id, callout_slug, answers, submitted_at)
		VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.ChatID, record.CalloutSlug, record.Answers, record.SubmittedAt)
	if err != nil {
		slog.Error("PostgresStore AddCalloutResponse failed", "error", err, "slug", record.CalloutSlug)
		return fmt.Errorf("failed to insert callout response for %s: %w", record.CalloutSlug, err)
	}
	return nil
}

func (s *PostgresStore) ListCalloutResponses(ctx context.Context, slug string) ([]models.CalloutResponseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, chat_id, callout_slug, answers, submitted_at
		FROM callout_responses WHERE ($1 = '' OR callout_slug = $1) ORDER BY submitted_at`, slug)
	if err != nil {
		slog.Error("PostgresStore ListCalloutResponses query failed", "error", err, "slug", slug)
		return nil, fmt.Errorf("failed to query callout responses: %w", err)
	}
	defer rows.Close()
	return scanResponses(rows)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
