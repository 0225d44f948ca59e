package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/osama1998H/frappe/internal/domain"
)

// PermRepo defines the persistence operations for permission rules.
// Standard rules live in docperms; custom rules in custom_docperms replace
// them for a doctype as soon as one exists.
type PermRepo interface {
	// ListStandard returns the standard rules of doctype ordered by permlevel,
	// leaving out rules for any role in excludeRoles.
	ListStandard(ctx context.Context, doctype string, excludeRoles []string) ([]domain.DocPerm, error)

	// ListCustom returns the custom rules of doctype ordered by permlevel,
	// leaving out rules for any role in excludeRoles.
	ListCustom(ctx context.Context, doctype string, excludeRoles []string) ([]domain.DocPerm, error)

	// ListByRole returns every effective rule of role: its custom rules plus
	// its standard rules on doctypes that have no custom rules.
	ListByRole(ctx context.Context, role string) ([]domain.DocPerm, error)

	// CountCustom returns the number of custom rules of doctype.
	CountCustom(ctx context.Context, doctype string) (int, error)

	// CopyStandardToCustom copies the standard rules of doctype into custom
	// rules unless custom rules already exist. It returns the number copied.
	CopyStandardToCustom(ctx context.Context, doctype string) (int64, error)

	// CustomExists reports whether a custom rule matches the key.
	CustomExists(ctx context.Context, doctype, role string, permlevel int, ifOwner bool) (bool, error)

	// InsertCustom inserts a custom rule and returns it with its name set.
	InsertCustom(ctx context.Context, p domain.DocPerm) (domain.DocPerm, error)

	// SetCustomProperty sets one property of the custom rule (doctype, role,
	// permlevel) that is not owner-restricted. Returns domain.ErrValidation
	// for an unknown property and domain.ErrNotFound if no rule matches.
	SetCustomProperty(ctx context.Context, doctype, role string, permlevel int, ptype string, value bool) error

	// DeleteCustom removes the custom rules matching (doctype, role, permlevel).
	DeleteCustom(ctx context.Context, doctype, role string, permlevel int) (int64, error)

	// DeleteAllCustom removes every custom rule of doctype.
	DeleteAllCustom(ctx context.Context, doctype string) (int64, error)
}

type pgPermRepo struct {
	db db
}

// NewPermRepo constructs a PermRepo backed by the provided db connection.
func NewPermRepo(db db) PermRepo {
	return &pgPermRepo{db: db}
}

// rightsColumns is the quoted column list for domain.Rights, in order.
var rightsColumns = func() string {
	cols := make([]string, len(domain.Rights))
	for i, r := range domain.Rights {
		cols[i] = pgx.Identifier{r}.Sanitize()
	}
	return strings.Join(cols, ", ")
}()

var permColumns = `name::text, parent, role, permlevel, if_owner, ` + rightsColumns

func (r *pgPermRepo) ListStandard(ctx context.Context, doctype string, excludeRoles []string) ([]domain.DocPerm, error) {
	perms, err := r.listByParent(ctx, "docperms", doctype, excludeRoles)
	if err != nil {
		return nil, fmt.Errorf("repo.PermRepo.ListStandard: %w", err)
	}
	return perms, nil
}

func (r *pgPermRepo) ListCustom(ctx context.Context, doctype string, excludeRoles []string) ([]domain.DocPerm, error) {
	perms, err := r.listByParent(ctx, "custom_docperms", doctype, excludeRoles)
	if err != nil {
		return nil, fmt.Errorf("repo.PermRepo.ListCustom: %w", err)
	}
	return perms, nil
}

func (r *pgPermRepo) listByParent(ctx context.Context, table, doctype string, excludeRoles []string) ([]domain.DocPerm, error) {
	q := `SELECT ` + permColumns + `
		FROM ` + table + `
		WHERE parent = @doctype
		  AND NOT (role = ANY(@exclude::text[]))
		ORDER BY permlevel, role, if_owner`
	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"doctype": doctype, "exclude": nonNil(excludeRoles)})
	if err != nil {
		return nil, err
	}
	return collectPerms(rows)
}

func (r *pgPermRepo) ListByRole(ctx context.Context, role string) ([]domain.DocPerm, error) {
	q := `
		SELECT ` + permColumns + ` FROM custom_docperms WHERE role = @role
		UNION ALL
		SELECT ` + permColumns + ` FROM docperms
		WHERE role = @role
		  AND parent NOT IN (SELECT DISTINCT parent FROM custom_docperms)
		ORDER BY parent, permlevel`
	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"role": role})
	if err != nil {
		return nil, fmt.Errorf("repo.PermRepo.ListByRole: %w", err)
	}
	perms, err := collectPerms(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.PermRepo.ListByRole: %w", err)
	}
	return perms, nil
}

func (r *pgPermRepo) CountCustom(ctx context.Context, doctype string) (int, error) {
	var n int
	const q = `SELECT count(*) FROM custom_docperms WHERE parent = @doctype`
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"doctype": doctype}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.PermRepo.CountCustom: %w", err)
	}
	return n, nil
}

func (r *pgPermRepo) CopyStandardToCustom(ctx context.Context, doctype string) (int64, error) {
	q := `
		INSERT INTO custom_docperms (name, parent, role, permlevel, if_owner, ` + rightsColumns + `)
		SELECT gen_random_uuid(), parent, role, permlevel, if_owner, ` + rightsColumns + `
		FROM docperms
		WHERE parent = @doctype
		  AND NOT EXISTS (SELECT 1 FROM custom_docperms WHERE parent = @doctype)`
	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"doctype": doctype})
	if err != nil {
		return 0, fmt.Errorf("repo.PermRepo.CopyStandardToCustom: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgPermRepo) CustomExists(ctx context.Context, doctype, role string, permlevel int, ifOwner bool) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM custom_docperms
			WHERE parent = @doctype AND role = @role AND permlevel = @permlevel AND if_owner = @if_owner
		)`
	var exists bool
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"doctype":   doctype,
		"role":      role,
		"permlevel": permlevel,
		"if_owner":  ifOwner,
	}).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repo.PermRepo.CustomExists: %w", err)
	}
	return exists, nil
}

func (r *pgPermRepo) InsertCustom(ctx context.Context, p domain.DocPerm) (domain.DocPerm, error) {
	args := pgx.NamedArgs{
		"name":      uuid.New(),
		"parent":    p.Parent,
		"role":      p.Role,
		"permlevel": p.Permlevel,
		"if_owner":  p.IfOwner,
	}
	params := make([]string, len(domain.Rights))
	for i, right := range domain.Rights {
		params[i] = "@" + right
		args[right] = p.Get(right)
	}

	q := `
		INSERT INTO custom_docperms (name, parent, role, permlevel, if_owner, ` + rightsColumns + `)
		VALUES (@name, @parent, @role, @permlevel, @if_owner, ` + strings.Join(params, ", ") + `)
		RETURNING ` + permColumns

	result, err := scanPerm(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.DocPerm{}, fmt.Errorf("repo.PermRepo.InsertCustom: %w", err)
	}
	return result, nil
}

func (r *pgPermRepo) SetCustomProperty(ctx context.Context, doctype, role string, permlevel int, ptype string, value bool) error {
	if !domain.IsPermissionType(ptype) {
		return fmt.Errorf("repo.PermRepo.SetCustomProperty: %w: unknown permission type %q", domain.ErrValidation, ptype)
	}
	q := `
		UPDATE custom_docperms
		SET ` + pgx.Identifier{ptype}.Sanitize() + ` = @value
		WHERE parent = @doctype AND role = @role AND permlevel = @permlevel AND NOT if_owner`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"value":     value,
		"doctype":   doctype,
		"role":      role,
		"permlevel": permlevel,
	})
	if err != nil {
		return fmt.Errorf("repo.PermRepo.SetCustomProperty: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.PermRepo.SetCustomProperty: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgPermRepo) DeleteCustom(ctx context.Context, doctype, role string, permlevel int) (int64, error) {
	const q = `DELETE FROM custom_docperms WHERE parent = @doctype AND role = @role AND permlevel = @permlevel`
	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"doctype": doctype, "role": role, "permlevel": permlevel})
	if err != nil {
		return 0, fmt.Errorf("repo.PermRepo.DeleteCustom: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgPermRepo) DeleteAllCustom(ctx context.Context, doctype string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM custom_docperms WHERE parent = @doctype`, pgx.NamedArgs{"doctype": doctype})
	if err != nil {
		return 0, fmt.Errorf("repo.PermRepo.DeleteAllCustom: %w", err)
	}
	return tag.RowsAffected(), nil
}

func collectPerms(rows pgx.Rows) ([]domain.DocPerm, error) {
	defer rows.Close()
	perms := []domain.DocPerm{}
	for rows.Next() {
		p, err := scanPerm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return perms, nil
}

func scanPerm(s scanner) (domain.DocPerm, error) {
	var p domain.DocPerm
	dest := []any{&p.Name, &p.Parent, &p.Role, &p.Permlevel, &p.IfOwner}
	for _, right := range domain.Rights {
		dest = append(dest, p.Field(right))
	}
	if err := s.Scan(dest...); err != nil {
		return domain.DocPerm{}, mapErr(err)
	}
	return p, nil
}
