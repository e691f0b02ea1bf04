package store

import (
	"context"
	"errors"
	"strings"

	"tunesphere/internal/ports"
)

var ErrEmptyDSN = errors.New("database dsn is empty")

// Store is a credential backend. Every call opens its own connection and
// makes sure the users table exists.
type Store interface {
	ports.CredentialStore
	Init(ctx context.Context) error
	Kind() string
}

// New returns a PostgreSQL store for postgres:// URLs and a SQLite store
// for anything else.
func New(dsn string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrEmptyDSN
	}
	if isPostgresDSN(dsn) {
		return NewPostgres(dsn), nil
	}
	return NewSQLite(dsn), nil
}

func isPostgresDSN(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}
