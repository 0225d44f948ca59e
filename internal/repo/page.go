package repo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/osama1998H/frappe/internal/domain"
)

// PageRepo defines the persistence operations for Pages and their role links.
// It also serves as the naming index for page names.
type PageRepo interface {
	// Create inserts a page and links its roles. Returns domain.ErrConflict
	// when the name is already taken.
	Create(ctx context.Context, page domain.Page) (domain.Page, error)

	// GetByName retrieves a page with its roles.
	// Returns domain.ErrNotFound if no page with that name exists.
	GetByName(ctx context.Context, name string) (domain.Page, error)

	// ListPaged returns one page of pages ordered by name and the total count.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Page, int64, error)

	// Delete removes a page and its role links.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, name string) error

	// Exists reports whether a page with that exact name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// MaxSuffix returns the highest n among names "{base}-{n}" with an
	// all-digit n. found is false when there are none.
	MaxSuffix(ctx context.Context, base string) (int, bool, error)
}

type pgPageRepo struct {
	db db
}

// NewPageRepo constructs a PageRepo backed by the provided db connection.
func NewPageRepo(db db) PageRepo {
	return &pgPageRepo{db: db}
}

const pageColumns = `
	p.name, p.page_name, p.title, p.module, p.standard, p.system_page, p.restrict_to_domain,
	COALESCE(
		(SELECT array_agg(hr.role ORDER BY hr.role)
		 FROM has_roles hr
		 WHERE hr.parent = p.name AND hr.parenttype = 'Page'),
		'{}'
	) AS roles,
	p.created_at, p.updated_at`

func (r *pgPageRepo) Create(ctx context.Context, page domain.Page) (domain.Page, error) {
	const q = `
		INSERT INTO pages (name, page_name, title, module, standard, system_page, restrict_to_domain)
		VALUES (@name, @page_name, @title, @module, @standard, @system_page, @restrict_to_domain)`

	standard := page.Standard
	if standard == "" {
		standard = "No"
	}
	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"name":               page.Name,
		"page_name":          page.PageName,
		"title":              page.Title,
		"module":             page.Module,
		"standard":           standard,
		"system_page":        page.SystemPage,
		"restrict_to_domain": page.RestrictToDomain,
	})
	if err != nil {
		return domain.Page{}, fmt.Errorf("repo.PageRepo.Create: %w", mapErr(err))
	}

	const linkQ = `
		INSERT INTO has_roles (parent, parenttype, role)
		VALUES (@parent, 'Page', @role)
		ON CONFLICT DO NOTHING`
	for _, role := range page.Roles {
		if _, err := r.db.Exec(ctx, linkQ, pgx.NamedArgs{"parent": page.Name, "role": role}); err != nil {
			return domain.Page{}, fmt.Errorf("repo.PageRepo.Create: link role %q: %w", role, err)
		}
	}

	return r.GetByName(ctx, page.Name)
}

func (r *pgPageRepo) GetByName(ctx context.Context, name string) (domain.Page, error) {
	q := `SELECT ` + pageColumns + ` FROM pages p WHERE p.name = @name`

	result, err := scanPage(r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name}))
	if err != nil {
		return domain.Page{}, fmt.Errorf("repo.PageRepo.GetByName: %w", err)
	}
	return result, nil
}

func (r *pgPageRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Page, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM pages`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.PageRepo.ListPaged: count: %w", err)
	}

	q := `SELECT ` + pageColumns + ` FROM pages p ORDER BY p.name LIMIT @limit OFFSET @offset`
	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.PageRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	pages := []domain.Page{}
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.PageRepo.ListPaged: scan: %w", err)
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.PageRepo.ListPaged: rows: %w", err)
	}
	return pages, total, nil
}

func (r *pgPageRepo) Delete(ctx context.Context, name string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pages WHERE name = @name`, pgx.NamedArgs{"name": name})
	if err != nil {
		return fmt.Errorf("repo.PageRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.PageRepo.Delete: %w", domain.ErrNotFound)
	}

	const unlinkQ = `DELETE FROM has_roles WHERE parent = @name AND parenttype = 'Page'`
	if _, err := r.db.Exec(ctx, unlinkQ, pgx.NamedArgs{"name": name}); err != nil {
		return fmt.Errorf("repo.PageRepo.Delete: roles: %w", err)
	}
	return nil
}

func (r *pgPageRepo) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM pages WHERE name = @name)`
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name}).Scan(&exists); err != nil {
		return false, fmt.Errorf("repo.PageRepo.Exists: %w", err)
	}
	return exists, nil
}

// MaxSuffix matches the prefix with starts_with so LIKE wildcards in base
// are taken literally, and compares suffixes numerically so "-10" beats "-9".
// Suffixes longer than 18 digits are ignored so the result fits an int.
func (r *pgPageRepo) MaxSuffix(ctx context.Context, base string) (int, bool, error) {
	const q = `
		SELECT max(substr(name, char_length(@base::text) + 2)::numeric)::text
		FROM pages
		WHERE starts_with(name, @base::text || '-')
		  AND substr(name, char_length(@base::text) + 2) ~ '^[0-9]{1,18}$'`

	var highest *string
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"base": base}).Scan(&highest); err != nil {
		return 0, false, fmt.Errorf("repo.PageRepo.MaxSuffix: %w", err)
	}
	if highest == nil {
		return 0, false, nil
	}
	n, err := strconv.Atoi(*highest)
	if err != nil {
		return 0, false, fmt.Errorf("repo.PageRepo.MaxSuffix: suffix %q: %w", *highest, err)
	}
	return n, true, nil
}

func scanPage(s scanner) (domain.Page, error) {
	var p domain.Page
	err := s.Scan(&p.Name, &p.PageName, &p.Title, &p.Module, &p.Standard, &p.SystemPage,
		&p.RestrictToDomain, &p.Roles, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Page{}, mapErr(err)
	}
	return p, nil
}
