// Package repo contains all database access logic for the desk service.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osama1998H/frappe/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// SQLSTATE codes mapped to domain sentinels.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapErr translates driver errors into domain sentinels.
func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errors.Join(domain.ErrConflict, err)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", domain.ErrValidation, pgErr.Detail)
		}
	}
	return err
}

// Repos bundles every repository bound to the same connection or transaction.
type Repos struct {
	Pages        PageRepo
	CustomRoles  CustomRoleRepo
	DocTypes     DocTypeRepo
	Domains      DomainRepo
	Roles        RoleRepo
	Perms        PermRepo
	Users        UserRepo
	Translations TranslationRepo
}

// New binds all repositories to db.
func New(db db) Repos {
	return Repos{
		Pages:        NewPageRepo(db),
		CustomRoles:  NewCustomRoleRepo(db),
		DocTypes:     NewDocTypeRepo(db),
		Domains:      NewDomainRepo(db),
		Roles:        NewRoleRepo(db),
		Perms:        NewPermRepo(db),
		Users:        NewUserRepo(db),
		Translations: NewTranslationRepo(db),
	}
}

// TxRunner runs fn against repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Repos) error) error
}

// txBeginner is satisfied by *pgxpool.Pool, *pgx.Conn, and pgx.Tx.
// Beginning on a pgx.Tx opens a savepoint, which lets tests nest runners
// inside a rolled-back outer transaction.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type pgTxRunner struct {
	db txBeginner
}

// NewTxRunner constructs a TxRunner over the given pool or transaction.
func NewTxRunner(db txBeginner) TxRunner {
	return &pgTxRunner{db: db}
}

var _ txBeginner = (*pgxpool.Pool)(nil)

func (r *pgTxRunner) InTx(ctx context.Context, fn func(Repos) error) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return fn(New(tx))
	})
}
