package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/osama1998H/frappe/internal/domain"
)

// DocTypeFilter narrows DocTypeRepo.List.
type DocTypeFilter struct {
	// Exclude lists doctype names to leave out.
	Exclude []string
	// Domains lists the active domains; doctypes restricted to any other
	// domain are left out.
	Domains []string
}

// DocTypeRepo defines read access to doctype metadata and fields.
type DocTypeRepo interface {
	// Get returns the metadata of one doctype.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, name string) (domain.DocTypeMeta, error)

	// List returns non-table doctypes matching f, ordered by name.
	List(ctx context.Context, f DocTypeFilter) ([]domain.DocTypeMeta, error)

	// RouteExists reports whether a doctype's route (name lowercased, spaces
	// replaced by hyphens) equals route.
	RouteExists(ctx context.Context, route string) (bool, error)

	// Fields returns the fields of a doctype ordered by idx.
	Fields(ctx context.Context, doctype string) ([]domain.DocField, error)

	// ListViewLinkOptions returns the options of the first Link field shown
	// in the list view of doctype. ok is false when there is none.
	ListViewLinkOptions(ctx context.Context, doctype string) (options string, ok bool, err error)
}

type pgDocTypeRepo struct {
	db db
}

// NewDocTypeRepo constructs a DocTypeRepo backed by the provided db connection.
func NewDocTypeRepo(db db) DocTypeRepo {
	return &pgDocTypeRepo{db: db}
}

const docTypeColumns = `name, module, istable, is_submittable, in_create, custom, restrict_to_domain`

func (r *pgDocTypeRepo) Get(ctx context.Context, name string) (domain.DocTypeMeta, error) {
	q := `SELECT ` + docTypeColumns + ` FROM doctypes WHERE name = @name`
	meta, err := scanDocType(r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name}))
	if err != nil {
		return domain.DocTypeMeta{}, fmt.Errorf("repo.DocTypeRepo.Get: %w", err)
	}
	return meta, nil
}

func (r *pgDocTypeRepo) List(ctx context.Context, f DocTypeFilter) ([]domain.DocTypeMeta, error) {
	q := `SELECT ` + docTypeColumns + `
		FROM doctypes
		WHERE NOT istable
		  AND NOT (name = ANY(@exclude::text[]))
		  AND (restrict_to_domain = '' OR restrict_to_domain = ANY(@domains::text[]))
		ORDER BY name`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"exclude": nonNil(f.Exclude),
		"domains": nonNil(f.Domains),
	})
	if err != nil {
		return nil, fmt.Errorf("repo.DocTypeRepo.List: %w", err)
	}
	defer rows.Close()

	out := []domain.DocTypeMeta{}
	for rows.Next() {
		meta, err := scanDocType(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.DocTypeRepo.List: scan: %w", err)
		}
		out = append(out, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.DocTypeRepo.List: rows: %w", err)
	}
	return out, nil
}

func (r *pgDocTypeRepo) RouteExists(ctx context.Context, route string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM doctypes
			WHERE replace(lower(name), ' ', '-') = @route
		)`
	var exists bool
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"route": route}).Scan(&exists); err != nil {
		return false, fmt.Errorf("repo.DocTypeRepo.RouteExists: %w", err)
	}
	return exists, nil
}

func (r *pgDocTypeRepo) Fields(ctx context.Context, doctype string) ([]domain.DocField, error) {
	const q = `
		SELECT name::text, parent, fieldname, label, fieldtype, options, in_list_view, idx, docstatus
		FROM docfields
		WHERE parent = @doctype
		ORDER BY idx, fieldname`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"doctype": doctype})
	if err != nil {
		return nil, fmt.Errorf("repo.DocTypeRepo.Fields: %w", err)
	}
	defer rows.Close()

	fields := []domain.DocField{}
	for rows.Next() {
		var f domain.DocField
		err := rows.Scan(&f.Name, &f.Parent, &f.Fieldname, &f.Label, &f.Fieldtype,
			&f.Options, &f.InListView, &f.Idx, &f.Docstatus)
		if err != nil {
			return nil, fmt.Errorf("repo.DocTypeRepo.Fields: scan: %w", err)
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.DocTypeRepo.Fields: rows: %w", err)
	}
	return fields, nil
}

func (r *pgDocTypeRepo) ListViewLinkOptions(ctx context.Context, doctype string) (string, bool, error) {
	const q = `
		SELECT options
		FROM docfields
		WHERE parent = @doctype AND fieldtype = 'Link' AND in_list_view
		ORDER BY idx
		LIMIT 1`

	var options string
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"doctype": doctype}).Scan(&options)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("repo.DocTypeRepo.ListViewLinkOptions: %w", err)
	}
	return options, true, nil
}

func scanDocType(s scanner) (domain.DocTypeMeta, error) {
	var m domain.DocTypeMeta
	err := s.Scan(&m.Name, &m.Module, &m.IsTable, &m.IsSubmittable, &m.InCreate, &m.Custom, &m.RestrictToDomain)
	if err != nil {
		return domain.DocTypeMeta{}, mapErr(err)
	}
	return m, nil
}

// DomainRepo reads the set of active domains.
type DomainRepo interface {
	// Active returns the active domain names, ordered.
	Active(ctx context.Context) ([]string, error)
}

type pgDomainRepo struct {
	db db
}

// NewDomainRepo constructs a DomainRepo backed by the provided db connection.
func NewDomainRepo(db db) DomainRepo {
	return &pgDomainRepo{db: db}
}

func (r *pgDomainRepo) Active(ctx context.Context) ([]string, error) {
	domains, err := queryStrings(ctx, r.db, `SELECT domain FROM active_domains ORDER BY domain`, nil)
	if err != nil {
		return nil, fmt.Errorf("repo.DomainRepo.Active: %w", err)
	}
	return domains, nil
}
