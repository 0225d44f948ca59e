package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/osama1998H/frappe/internal/domain"
)

// UserRepo defines read access to users and their role assignments.
type UserRepo interface {
	// GetByAPIKey returns the enabled user owning apiKey.
	// Returns domain.ErrNotFound if no enabled user has that key.
	GetByAPIKey(ctx context.Context, apiKey string) (domain.User, error)

	// NamesWithRole returns the names of enabled users holding role, ordered.
	NamesWithRole(ctx context.Context, role string) ([]string, error)
}

type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

func (r *pgUserRepo) GetByAPIKey(ctx context.Context, apiKey string) (domain.User, error) {
	const q = `
		SELECT u.name, u.full_name, u.enabled,
		       COALESCE(
		           (SELECT array_agg(hr.role ORDER BY hr.role)
		            FROM has_roles hr
		            WHERE hr.parent = u.name AND hr.parenttype = 'User'),
		           '{}'
		       )
		FROM users u
		WHERE u.api_key = @api_key AND u.enabled`

	var u domain.User
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"api_key": apiKey}).Scan(&u.Name, &u.FullName, &u.Enabled, &u.Roles)
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByAPIKey: %w", mapErr(err))
	}
	return u, nil
}

func (r *pgUserRepo) NamesWithRole(ctx context.Context, role string) ([]string, error) {
	const q = `
		SELECT u.name
		FROM users u
		JOIN has_roles hr ON hr.parent = u.name AND hr.parenttype = 'User'
		WHERE hr.role = @role AND u.enabled
		ORDER BY u.name`
	names, err := queryStrings(ctx, r.db, q, pgx.NamedArgs{"role": role})
	if err != nil {
		return nil, fmt.Errorf("repo.UserRepo.NamesWithRole: %w", err)
	}
	return names, nil
}
