// Package store provides storage backends for the callout bot.
//
// It persists subscribers, session snapshots and submitted callout
// responses, with in-memory, SQLite and PostgreSQL implementations.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/calloutkit/calloutbot/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistence interface shared by all backends.
type Store interface {
	SaveSubscriber(ctx context.Context, sub models.Subscriber) error
	GetSubscriber(ctx context.Context, chatID int64) (*models.Subscriber, error)
	ListSubscribers(ctx context.Context) ([]models.Subscriber, error)
	DeleteSubscriber(ctx context.Context, chatID int64) error

	SaveSessionSnapshot(ctx context.Context, snapshot models.SessionSnapshot) error
	ListSessionSnapshots(ctx context.Context) ([]models.SessionSnapshot, error)

	AddCalloutResponse(ctx context.Context, record models.CalloutResponseRecord) error
	ListCalloutResponses(ctx context.Context, slug string) ([]models.CalloutResponseRecord, error)

	Close() error
}

// Opts holds configuration options for database-backed stores.
type Opts struct {
	DSN string
}

// Option defines a configuration option for database-backed stores.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType reports the database driver a DSN belongs to: "postgres"
// for PostgreSQL connection strings, "sqlite3" otherwise.
func DetectDSNType(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "postgres://"),
		strings.HasPrefix(dsn, "postgresql://"),
		strings.Contains(dsn, "host="),
		strings.Contains(dsn, "dbname="):
		return "postgres"
	default:
		return "sqlite3"
	}
}
