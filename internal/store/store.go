// Package store is the persistence collaborator of the matchmaking core.
//
// The core never writes SQL. It calls four primitives (Read, Create,
// Update, Execute) with a named Statement, positional arguments and an
// explicit session handle that the caller owns.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/jmoiron/sqlx"

	apperr "github.com/david-shiko/rubik-sub000/internal/errors"
	"github.com/david-shiko/rubik-sub000/internal/logger"
)

// Conn is the session handle every statement runs on: a *sqlx.DB or a
// *sqlx.Tx. The store never opens or closes it.
type Conn = sqlx.ExtContext

// Store defines the primitives the core is allowed to use.
type Store interface {
	// Read runs a query statement. A pointer to a slice fetches all rows;
	// any other pointer fetches one. found is false when no row matched.
	Read(ctx context.Context, conn Conn, stmt Statement, dest any, args ...any) (found bool, err error)

	// Create runs an insert statement and returns the new id, or nil when
	// the row already existed.
	Create(ctx context.Context, conn Conn, stmt Statement, args ...any) (*uint64, error)

	// Update runs an update statement against existing entity rows.
	Update(ctx context.Context, conn Conn, stmt Statement, args ...any) error

	// Execute runs fire-and-forget DDL/DML such as building or dropping
	// working relations.
	Execute(ctx context.Context, conn Conn, stmt Statement, args ...any) error
}

// SQLStore implements Store with sqlx over the statement registry.
type SQLStore struct {
	statements Registry
	log        *slog.Logger
}

// New creates a store bound to the given registry. A nil registry means
// the default one.
func New(reg Registry, log *slog.Logger) *SQLStore {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &SQLStore{
		statements: reg,
		log:        logger.OrDiscard(log).With("component", "store"),
	}
}

func (s *SQLStore) Read(ctx context.Context, conn Conn, stmt Statement, dest any, args ...any) (bool, error) {
	query, args, err := s.prepare(conn, stmt, args)
	if err != nil {
		return false, err
	}

	if isSlicePtr(dest) {
		if err := sqlx.SelectContext(ctx, conn, dest, query, args...); err != nil {
			return false, fmt.Errorf("%s: %w", stmt, err)
		}
		return reflect.ValueOf(dest).Elem().Len() > 0, nil
	}

	if err := sqlx.GetContext(ctx, conn, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", stmt, err)
	}
	return true, nil
}

func (s *SQLStore) Create(ctx context.Context, conn Conn, stmt Statement, args ...any) (*uint64, error) {
	res, err := s.exec(ctx, conn, stmt, args)
	if err != nil {
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: rows affected: %w", stmt, err)
	}
	if affected == 0 {
		s.log.DebugContext(ctx, "create skipped, row exists", "stmt", stmt)
		return nil, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%s: last insert id: %w", stmt, err)
	}
	newID := uint64(id)
	return &newID, nil
}

func (s *SQLStore) Update(ctx context.Context, conn Conn, stmt Statement, args ...any) error {
	_, err := s.exec(ctx, conn, stmt, args)
	return err
}

func (s *SQLStore) Execute(ctx context.Context, conn Conn, stmt Statement, args ...any) error {
	_, err := s.exec(ctx, conn, stmt, args)
	return err
}

func (s *SQLStore) exec(ctx context.Context, conn Conn, stmt Statement, args []any) (sql.Result, error) {
	query, args, err := s.prepare(conn, stmt, args)
	if err != nil {
		return nil, err
	}
	res, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		s.log.ErrorContext(ctx, "statement failed", "stmt", stmt, "err", err)
		return nil, fmt.Errorf("%s: %w", stmt, err)
	}
	return res, nil
}

// prepare resolves the statement text for the connection's driver and
// expands slice arguments for IN (?) clauses.
func (s *SQLStore) prepare(conn Conn, stmt Statement, args []any) (string, []any, error) {
	if isNil(conn) {
		return "", nil, apperr.ErrNoConnection
	}

	query, ok := s.statements.Lookup(stmt, conn.DriverName())
	if !ok {
		return "", nil, fmt.Errorf("unknown statement %q", stmt)
	}

	if hasSliceArg(args) {
		expanded, expandedArgs, err := sqlx.In(query, args...)
		if err != nil {
			return "", nil, fmt.Errorf("%s: expand args: %w", stmt, err)
		}
		query, args = expanded, expandedArgs
	}
	return conn.Rebind(query), args, nil
}

func isNil(conn Conn) bool {
	if conn == nil {
		return true
	}
	v := reflect.ValueOf(conn)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func isSlicePtr(dest any) bool {
	t := reflect.TypeOf(dest)
	return t != nil && t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Slice
}

func hasSliceArg(args []any) bool {
	for _, a := range args {
		if a == nil {
			continue
		}
		t := reflect.TypeOf(a)
		if t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8 {
			return true
		}
	}
	return false
}
