package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/osama1998H/frappe/internal/domain"
)

// RoleFilter narrows RoleRepo.List.
type RoleFilter struct {
	// Exclude lists role names to leave out.
	Exclude []string
	// Domains lists the active domains; roles restricted to any other
	// domain are left out.
	Domains []string
}

// RoleRepo defines the persistence operations for Roles.
type RoleRepo interface {
	// List returns enabled roles matching f, ordered by name.
	List(ctx context.Context, f RoleFilter) ([]domain.Role, error)

	// CustomRoleNames returns the names of roles flagged is_custom.
	CustomRoleNames(ctx context.Context) ([]string, error)

	// UserTypeRoles returns the roles bound to non-standard user types.
	UserTypeRoles(ctx context.Context) ([]string, error)

	// Ensure creates any of the named roles that do not exist yet.
	Ensure(ctx context.Context, names []string) error
}

type pgRoleRepo struct {
	db db
}

// NewRoleRepo constructs a RoleRepo backed by the provided db connection.
func NewRoleRepo(db db) RoleRepo {
	return &pgRoleRepo{db: db}
}

func (r *pgRoleRepo) List(ctx context.Context, f RoleFilter) ([]domain.Role, error) {
	const q = `
		SELECT name, disabled, is_custom, restrict_to_domain
		FROM roles
		WHERE NOT disabled
		  AND NOT (name = ANY(@exclude::text[]))
		  AND (restrict_to_domain = '' OR restrict_to_domain = ANY(@domains::text[]))
		ORDER BY name`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"exclude": nonNil(f.Exclude),
		"domains": nonNil(f.Domains),
	})
	if err != nil {
		return nil, fmt.Errorf("repo.RoleRepo.List: %w", err)
	}
	defer rows.Close()

	roles := []domain.Role{}
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.Name, &role.Disabled, &role.IsCustom, &role.RestrictToDomain); err != nil {
			return nil, fmt.Errorf("repo.RoleRepo.List: scan: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.RoleRepo.List: rows: %w", err)
	}
	return roles, nil
}

func (r *pgRoleRepo) CustomRoleNames(ctx context.Context) ([]string, error) {
	names, err := queryStrings(ctx, r.db, `SELECT name FROM roles WHERE is_custom ORDER BY name`, nil)
	if err != nil {
		return nil, fmt.Errorf("repo.RoleRepo.CustomRoleNames: %w", err)
	}
	return names, nil
}

func (r *pgRoleRepo) UserTypeRoles(ctx context.Context) ([]string, error) {
	const q = `SELECT role FROM user_types WHERE NOT is_standard AND role IS NOT NULL ORDER BY role`
	names, err := queryStrings(ctx, r.db, q, nil)
	if err != nil {
		return nil, fmt.Errorf("repo.RoleRepo.UserTypeRoles: %w", err)
	}
	return names, nil
}

func (r *pgRoleRepo) Ensure(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	const q = `
		INSERT INTO roles (name)
		SELECT unnest(@names::text[])
		ON CONFLICT (name) DO NOTHING`
	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"names": names}); err != nil {
		return fmt.Errorf("repo.RoleRepo.Ensure: %w", err)
	}
	return nil
}

// CustomRoleRepo defines the persistence operations for Custom Roles, which
// grant extra roles access to a page without editing the page itself.
type CustomRoleRepo interface {
	// RolesForPage returns the roles granted to page by its custom role.
	// A page without a custom role yields an empty slice.
	RolesForPage(ctx context.Context, page string) ([]string, error)

	// SetForPage replaces the roles of the page's custom role, creating it
	// if needed.
	SetForPage(ctx context.Context, page string, roles []string) error

	// DeleteByPage removes the custom role of page, if any.
	DeleteByPage(ctx context.Context, page string) error
}

type pgCustomRoleRepo struct {
	db db
}

// NewCustomRoleRepo constructs a CustomRoleRepo backed by the provided db connection.
func NewCustomRoleRepo(db db) CustomRoleRepo {
	return &pgCustomRoleRepo{db: db}
}

func (r *pgCustomRoleRepo) RolesForPage(ctx context.Context, page string) ([]string, error) {
	const q = `
		SELECT crr.role
		FROM custom_role_roles crr
		JOIN custom_roles cr ON cr.name = crr.custom_role
		WHERE cr.page = @page
		ORDER BY crr.role`
	roles, err := queryStrings(ctx, r.db, q, pgx.NamedArgs{"page": page})
	if err != nil {
		return nil, fmt.Errorf("repo.CustomRoleRepo.RolesForPage: %w", err)
	}
	return roles, nil
}

func (r *pgCustomRoleRepo) SetForPage(ctx context.Context, page string, roles []string) error {
	const upsertQ = `
		INSERT INTO custom_roles (name, page)
		VALUES (@name, @page)
		ON CONFLICT (page) DO UPDATE SET page = EXCLUDED.page
		RETURNING name`

	var id pgtype.UUID
	err := r.db.QueryRow(ctx, upsertQ, pgx.NamedArgs{"name": uuid.New(), "page": page}).Scan(&id)
	if err != nil {
		return fmt.Errorf("repo.CustomRoleRepo.SetForPage: %w", mapErr(err))
	}

	if _, err := r.db.Exec(ctx, `DELETE FROM custom_role_roles WHERE custom_role = @id`, pgx.NamedArgs{"id": id}); err != nil {
		return fmt.Errorf("repo.CustomRoleRepo.SetForPage: clear: %w", err)
	}

	const linkQ = `
		INSERT INTO custom_role_roles (custom_role, role)
		SELECT @id::uuid, unnest(@roles::text[])
		ON CONFLICT DO NOTHING`
	if _, err := r.db.Exec(ctx, linkQ, pgx.NamedArgs{"id": id, "roles": nonNil(roles)}); err != nil {
		return fmt.Errorf("repo.CustomRoleRepo.SetForPage: link: %w", mapErr(err))
	}
	return nil
}

func (r *pgCustomRoleRepo) DeleteByPage(ctx context.Context, page string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM custom_roles WHERE page = @page`, pgx.NamedArgs{"page": page}); err != nil {
		return fmt.Errorf("repo.CustomRoleRepo.DeleteByPage: %w", err)
	}
	return nil
}

// queryStrings runs a single-column query and collects the values.
func queryStrings(ctx context.Context, db db, q string, args pgx.NamedArgs) ([]string, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if args == nil {
		rows, err = db.Query(ctx, q)
	} else {
		rows, err = db.Query(ctx, q, args)
	}
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// nonNil turns a nil slice into an empty one so it binds as '{}' rather than NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
