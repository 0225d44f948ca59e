package service_test

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/osama1998H/frappe/internal/domain"
	"github.com/osama1998H/frappe/internal/naming"
	"github.com/osama1998H/frappe/internal/repo"
)

// ---- pages -------------------------------------------------------------------

// memPageRepo is an in-memory repo.PageRepo whose Create enforces name
// uniqueness the way the database's primary key does.
type memPageRepo struct {
	mu    sync.Mutex
	pages map[string]domain.Page

	// beforeCreate, when set, runs before each insert outside the lock.
	beforeCreate func(name string)
}

func newMemPageRepo(names ...string) *memPageRepo {
	r := &memPageRepo{pages: map[string]domain.Page{}}
	for _, n := range names {
		r.pages[n] = domain.Page{Name: n, PageName: n, Module: "Core"}
	}
	return r
}

func (r *memPageRepo) Create(_ context.Context, p domain.Page) (domain.Page, error) {
	if r.beforeCreate != nil {
		r.beforeCreate(p.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pages[p.Name]; ok {
		return domain.Page{}, fmt.Errorf("memPageRepo.Create: %w", domain.ErrConflict)
	}
	if p.Roles == nil {
		p.Roles = []string{}
	}
	r.pages[p.Name] = p
	return p, nil
}

func (r *memPageRepo) GetByName(_ context.Context, name string) (domain.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pages[name]
	if !ok {
		return domain.Page{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *memPageRepo) ListPaged(_ context.Context, p domain.PaginationParams) ([]domain.Page, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.pages))
	for n := range r.pages {
		names = append(names, n)
	}
	slices.Sort(names)
	out := []domain.Page{}
	for i := p.Offset(); i < len(names) && len(out) < p.Limit; i++ {
		out = append(out, r.pages[names[i]])
	}
	return out, int64(len(names)), nil
}

func (r *memPageRepo) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pages[name]; !ok {
		return domain.ErrNotFound
	}
	delete(r.pages, name)
	return nil
}

func (r *memPageRepo) Exists(_ context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pages[name]
	return ok, nil
}

func (r *memPageRepo) MaxSuffix(_ context.Context, base string) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	best, found := 0, false
	for name := range r.pages {
		if n, ok := naming.SuffixOf(name, base); ok && (!found || n > best) {
			best, found = n, true
		}
	}
	return best, found, nil
}

func (r *memPageRepo) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.pages))
	for n := range r.pages {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

var _ repo.PageRepo = (*memPageRepo)(nil)

// mockCustomRoleRepo is a hand-written test double for repo.CustomRoleRepo.
type mockCustomRoleRepo struct {
	rolesForPage func(ctx context.Context, page string) ([]string, error)
	setForPage   func(ctx context.Context, page string, roles []string) error
	deleteByPage func(ctx context.Context, page string) error
}

func (m *mockCustomRoleRepo) RolesForPage(ctx context.Context, page string) ([]string, error) {
	if m.rolesForPage == nil {
		return []string{}, nil
	}
	return m.rolesForPage(ctx, page)
}
func (m *mockCustomRoleRepo) SetForPage(ctx context.Context, page string, roles []string) error {
	return m.setForPage(ctx, page, roles)
}
func (m *mockCustomRoleRepo) DeleteByPage(ctx context.Context, page string) error {
	if m.deleteByPage == nil {
		return nil
	}
	return m.deleteByPage(ctx, page)
}

var _ repo.CustomRoleRepo = (*mockCustomRoleRepo)(nil)

// ---- doctypes, roles, users, translations -----------------------------------

// memDocTypeRepo serves doctype metadata and fields from maps.
type memDocTypeRepo struct {
	metas  map[string]domain.DocTypeMeta
	fields map[string][]domain.DocField
	// listFilter records the last filter passed to List.
	listFilter repo.DocTypeFilter
}

func (r *memDocTypeRepo) Get(_ context.Context, name string) (domain.DocTypeMeta, error) {
	m, ok := r.metas[name]
	if !ok {
		return domain.DocTypeMeta{}, fmt.Errorf("memDocTypeRepo.Get: %w", domain.ErrNotFound)
	}
	return m, nil
}

func (r *memDocTypeRepo) List(_ context.Context, f repo.DocTypeFilter) ([]domain.DocTypeMeta, error) {
	r.listFilter = f
	out := []domain.DocTypeMeta{}
	for _, m := range r.metas {
		if m.IsTable || slices.Contains(f.Exclude, m.Name) {
			continue
		}
		if m.RestrictToDomain != "" && !slices.Contains(f.Domains, m.RestrictToDomain) {
			continue
		}
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b domain.DocTypeMeta) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *memDocTypeRepo) RouteExists(_ context.Context, route string) (bool, error) {
	for name := range r.metas {
		if strings.ReplaceAll(strings.ToLower(name), " ", "-") == route {
			return true, nil
		}
	}
	return false, nil
}

func (r *memDocTypeRepo) Fields(_ context.Context, doctype string) ([]domain.DocField, error) {
	return r.fields[doctype], nil
}

func (r *memDocTypeRepo) ListViewLinkOptions(_ context.Context, doctype string) (string, bool, error) {
	for _, f := range r.fields[doctype] {
		if f.Fieldtype == domain.FieldTypeLink && f.InListView {
			return f.Options, true, nil
		}
	}
	return "", false, nil
}

var _ repo.DocTypeRepo = (*memDocTypeRepo)(nil)

type stubDomainRepo []string

func (s stubDomainRepo) Active(context.Context) ([]string, error) { return s, nil }

// memRoleRepo holds roles and the roles of custom user types.
type memRoleRepo struct {
	roles         []domain.Role
	userTypeRoles []string
	ensured       []string
}

func (r *memRoleRepo) List(_ context.Context, f repo.RoleFilter) ([]domain.Role, error) {
	out := []domain.Role{}
	for _, role := range r.roles {
		if role.Disabled || slices.Contains(f.Exclude, role.Name) {
			continue
		}
		if role.RestrictToDomain != "" && !slices.Contains(f.Domains, role.RestrictToDomain) {
			continue
		}
		out = append(out, role)
	}
	return out, nil
}

func (r *memRoleRepo) CustomRoleNames(context.Context) ([]string, error) {
	out := []string{}
	for _, role := range r.roles {
		if role.IsCustom {
			out = append(out, role.Name)
		}
	}
	return out, nil
}

func (r *memRoleRepo) UserTypeRoles(context.Context) ([]string, error) { return r.userTypeRoles, nil }

func (r *memRoleRepo) Ensure(_ context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	r.ensured = append(r.ensured, names...)
	return nil
}

var _ repo.RoleRepo = (*memRoleRepo)(nil)

type stubUserRepo map[string][]string

func (s stubUserRepo) GetByAPIKey(context.Context, string) (domain.User, error) {
	return domain.User{}, domain.ErrNotFound
}

func (s stubUserRepo) NamesWithRole(_ context.Context, role string) ([]string, error) {
	return s[role], nil
}

type stubTranslationRepo map[string]string

func (s stubTranslationRepo) Messages(_ context.Context, _ string, sources []string) (map[string]string, error) {
	out := map[string]string{}
	for _, src := range sources {
		if v, ok := s[src]; ok {
			out[src] = v
		}
	}
	return out, nil
}

// ---- permission rules ---------------------------------------------------------

// memPermRepo is an in-memory repo.PermRepo.
type memPermRepo struct {
	standard []domain.DocPerm
	custom   []domain.DocPerm
	seq      int
}

func without(perms []domain.DocPerm, doctype string, exclude []string) []domain.DocPerm {
	out := []domain.DocPerm{}
	for _, p := range perms {
		if p.Parent == doctype && !slices.Contains(exclude, p.Role) {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.DocPerm) int { return a.Permlevel - b.Permlevel })
	return out
}

func (r *memPermRepo) ListStandard(_ context.Context, doctype string, exclude []string) ([]domain.DocPerm, error) {
	return without(r.standard, doctype, exclude), nil
}

func (r *memPermRepo) ListCustom(_ context.Context, doctype string, exclude []string) ([]domain.DocPerm, error) {
	return without(r.custom, doctype, exclude), nil
}

func (r *memPermRepo) ListByRole(_ context.Context, role string) ([]domain.DocPerm, error) {
	out := []domain.DocPerm{}
	customParents := map[string]bool{}
	for _, p := range r.custom {
		customParents[p.Parent] = true
		if p.Role == role {
			out = append(out, p)
		}
	}
	for _, p := range r.standard {
		if p.Role == role && !customParents[p.Parent] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPermRepo) CountCustom(_ context.Context, doctype string) (int, error) {
	return len(without(r.custom, doctype, nil)), nil
}

func (r *memPermRepo) CopyStandardToCustom(_ context.Context, doctype string) (int64, error) {
	if len(without(r.custom, doctype, nil)) > 0 {
		return 0, nil
	}
	var n int64
	for _, p := range without(r.standard, doctype, nil) {
		r.seq++
		p.Name = fmt.Sprintf("custom-%d", r.seq)
		r.custom = append(r.custom, p)
		n++
	}
	return n, nil
}

func (r *memPermRepo) CustomExists(_ context.Context, doctype, role string, permlevel int, ifOwner bool) (bool, error) {
	for _, p := range r.custom {
		if p.Parent == doctype && p.Role == role && p.Permlevel == permlevel && p.IfOwner == ifOwner {
			return true, nil
		}
	}
	return false, nil
}

func (r *memPermRepo) InsertCustom(_ context.Context, p domain.DocPerm) (domain.DocPerm, error) {
	r.seq++
	p.Name = fmt.Sprintf("custom-%d", r.seq)
	r.custom = append(r.custom, p)
	return p, nil
}

func (r *memPermRepo) SetCustomProperty(_ context.Context, doctype, role string, permlevel int, ptype string, value bool) error {
	for i := range r.custom {
		p := &r.custom[i]
		if p.Parent == doctype && p.Role == role && p.Permlevel == permlevel && !p.IfOwner {
			return p.Set(ptype, value)
		}
	}
	return domain.ErrNotFound
}

func (r *memPermRepo) DeleteCustom(_ context.Context, doctype, role string, permlevel int) (int64, error) {
	before := len(r.custom)
	r.custom = slices.DeleteFunc(r.custom, func(p domain.DocPerm) bool {
		return p.Parent == doctype && p.Role == role && p.Permlevel == permlevel
	})
	return int64(before - len(r.custom)), nil
}

func (r *memPermRepo) DeleteAllCustom(_ context.Context, doctype string) (int64, error) {
	before := len(r.custom)
	r.custom = slices.DeleteFunc(r.custom, func(p domain.DocPerm) bool { return p.Parent == doctype })
	return int64(before - len(r.custom)), nil
}

var _ repo.PermRepo = (*memPermRepo)(nil)

// ---- transactions ---------------------------------------------------------------

// snapshotTx runs fn against repos. When fn fails it restores the rule
// store to its state before the call, standing in for a rollback.
type snapshotTx struct {
	repos repo.Repos
	perms *memPermRepo
	calls atomic.Int32
	// commitErr, when set, fails the transaction after fn succeeds.
	commitErr error
}

func (s *snapshotTx) InTx(_ context.Context, fn func(repo.Repos) error) error {
	s.calls.Add(1)
	var saved memPermRepo
	if s.perms != nil {
		saved = memPermRepo{
			standard: slices.Clone(s.perms.standard),
			custom:   slices.Clone(s.perms.custom),
			seq:      s.perms.seq,
		}
	}
	err := fn(s.repos)
	if err == nil {
		err = s.commitErr
	}
	if err != nil && s.perms != nil {
		*s.perms = saved
	}
	return err
}

var _ repo.TxRunner = (*snapshotTx)(nil)
