// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package repository is the SQL implementation of store.Store for SQLite
// and PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"codeberg.org/cyberguard-ng/cyberguard/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vinovest/sqlx"
)

// Repository wraps sqlx for database operations.
type Repository struct {
	db *sqlx.DB
}

var _ store.Store = (*Repository)(nil)

// New creates a new Repository instance.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying connection.
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// q rewrites ? placeholders for the connected driver.
func (r *Repository) q(query string) string {
	return r.db.Rebind(query)
}

// wrapError converts driver errors to store errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return store.ErrDuplicate
		case "23503":
			// foreign_key_violation: the referenced row does not exist
			return store.ErrNotFound
		}
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return store.ErrDuplicate
	}
	if strings.Contains(msg, "FOREIGN KEY constraint failed") {
		return store.ErrNotFound
	}
	return err
}

// expectOne maps a zero-row update to store.ErrNotFound.
func expectOne(res sql.Result, err error) error {
	if err != nil {
		return wrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
