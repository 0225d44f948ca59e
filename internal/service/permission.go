package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/osama1998H/frappe/internal/domain"
	"github.com/osama1998H/frappe/internal/locale"
	"github.com/osama1998H/frappe/internal/repo"
)

// notAllowedInPermissionManager lists doctypes whose rules cannot be edited.
var notAllowedInPermissionManager = []string{"DocType", "Patch Log", "Module Def", "Transaction Log"}

// StandardPermissionReader reads the rules shipped in a doctype's definition file.
type StandardPermissionReader interface {
	StandardPermissions(module, doctype string) ([]domain.DocPerm, error)
}

// RolesAndDoctypes is the picker data of the permission manager.
type RolesAndDoctypes struct {
	Doctypes []domain.Option `json:"doctypes"`
	Roles    []domain.Option `json:"roles"`
}

// PermissionService implements the permission manager. Every operation
// requires the System Manager role.
type PermissionService struct {
	repos    repo.Repos
	tx       repo.TxRunner
	meta     *MetaService
	standard StandardPermissionReader
}

// NewPermissionService constructs a PermissionService. repos serves reads
// outside a transaction; writes go through tx.
func NewPermissionService(repos repo.Repos, tx repo.TxRunner, standard StandardPermissionReader) *PermissionService {
	return &PermissionService{
		repos:    repos,
		tx:       tx,
		meta:     NewMetaService(repos.DocTypes),
		standard: standard,
	}
}

func onlySystemManager(auth domain.AuthContext) error {
	if err := auth.OnlyFor(domain.RoleSystemManager); err != nil {
		return domain.WithTitle("Not Permitted",
			fmt.Errorf("%w: requires role %s", err, domain.RoleSystemManager))
	}
	return nil
}

// RolesAndDoctypes lists the doctypes and roles the caller may manage,
// labelled in the caller's language and sorted by label.
func (s *PermissionService) RolesAndDoctypes(ctx context.Context, auth domain.AuthContext) (RolesAndDoctypes, error) {
	if err := onlySystemManager(auth); err != nil {
		return RolesAndDoctypes{}, err
	}

	domains, err := s.repos.Domains.Active(ctx)
	if err != nil {
		return RolesAndDoctypes{}, fmt.Errorf("service.PermissionService.RolesAndDoctypes: %w", err)
	}

	doctypes, err := s.repos.DocTypes.List(ctx, repo.DocTypeFilter{
		Exclude: notAllowedInPermissionManager,
		Domains: domains,
	})
	if err != nil {
		return RolesAndDoctypes{}, fmt.Errorf("service.PermissionService.RolesAndDoctypes: %w", err)
	}

	restricted := []string{domain.RoleAdministrator}
	if !auth.IsAdministrator() {
		userTypeRoles, err := s.repos.Roles.UserTypeRoles(ctx)
		if err != nil {
			return RolesAndDoctypes{}, fmt.Errorf("service.PermissionService.RolesAndDoctypes: %w", err)
		}
		restricted = append(restricted, userTypeRoles...)
		restricted = append(restricted, domain.RoleAll)
	}

	roles, err := s.repos.Roles.List(ctx, repo.RoleFilter{Exclude: restricted, Domains: domains})
	if err != nil {
		return RolesAndDoctypes{}, fmt.Errorf("service.PermissionService.RolesAndDoctypes: %w", err)
	}

	doctypeNames := make([]string, 0, len(doctypes))
	for _, d := range doctypes {
		doctypeNames = append(doctypeNames, d.Name)
	}
	roleNames := make([]string, 0, len(roles))
	for _, r := range roles {
		roleNames = append(roleNames, r.Name)
	}

	lang := auth.Language()
	labels, err := s.translate(ctx, lang, append(append([]string{}, doctypeNames...), roleNames...))
	if err != nil {
		return RolesAndDoctypes{}, fmt.Errorf("service.PermissionService.RolesAndDoctypes: %w", err)
	}

	out := RolesAndDoctypes{
		Doctypes: options(doctypeNames, labels),
		Roles:    options(roleNames, labels),
	}
	locale.SortOptions(lang, out.Doctypes)
	locale.SortOptions(lang, out.Roles)
	return out, nil
}

func (s *PermissionService) translate(ctx context.Context, lang string, texts []string) (map[string]string, error) {
	if lang == locale.DefaultLanguage || len(texts) == 0 {
		return map[string]string{}, nil
	}
	return s.repos.Translations.Messages(ctx, lang, texts)
}

func options(values []string, labels map[string]string) []domain.Option {
	out := make([]domain.Option, 0, len(values))
	for _, v := range values {
		label := v
		if l, ok := labels[v]; ok && l != "" {
			label = l
		}
		out = append(out, domain.Option{Label: label, Value: v})
	}
	return out
}

// GetPermissions returns permission rules decorated for display. With role
// set it returns every effective rule of that role, narrowed to doctype when
// given. Otherwise it returns the custom rules of doctype, or its standard
// rules when it has no custom ones.
func (s *PermissionService) GetPermissions(ctx context.Context, auth domain.AuthContext, doctype, role string) ([]domain.PermissionView, error) {
	if err := onlySystemManager(auth); err != nil {
		return nil, err
	}
	if doctype == "" && role == "" {
		return nil, fmt.Errorf("%w: doctype or role is required", domain.ErrValidation)
	}

	var (
		perms []domain.DocPerm
		err   error
	)
	if role != "" {
		perms, err = s.repos.Perms.ListByRole(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("service.PermissionService.GetPermissions: %w", err)
		}
		if doctype != "" {
			filtered := perms[:0]
			for _, p := range perms {
				if p.Parent == doctype {
					filtered = append(filtered, p)
				}
			}
			perms = filtered
		}
	} else {
		var exclude []string
		if !auth.IsAdministrator() {
			exclude, err = s.repos.Roles.CustomRoleNames(ctx)
			if err != nil {
				return nil, fmt.Errorf("service.PermissionService.GetPermissions: %w", err)
			}
		}
		perms, err = s.repos.Perms.ListCustom(ctx, doctype, exclude)
		if err != nil {
			return nil, fmt.Errorf("service.PermissionService.GetPermissions: %w", err)
		}
		if len(perms) == 0 {
			perms, err = s.repos.Perms.ListStandard(ctx, doctype, exclude)
			if err != nil {
				return nil, fmt.Errorf("service.PermissionService.GetPermissions: %w", err)
			}
		}
	}

	seen := make(map[string]*permDecoration)

	out := make([]domain.PermissionView, 0, len(perms))
	for _, p := range perms {
		view := domain.PermissionView{DocPerm: p}

		d, ok := seen[p.Parent]
		if !ok {
			d, err = s.decorate(ctx, p.Parent)
			if err != nil {
				return nil, fmt.Errorf("service.PermissionService.GetPermissions: %w", err)
			}
			seen[p.Parent] = d
		}
		// A doctype that no longer exists leaves the row undecorated.
		if d != nil {
			view.LinkedDoctypes = d.linked
			view.IsSubmittable = d.meta.IsSubmittable
			view.InCreate = d.meta.InCreate
		}
		out = append(out, view)
	}
	return out, nil
}

// permDecoration is the display data shared by all rules of a doctype.
type permDecoration struct {
	linked []string
	meta   domain.DocTypeMeta
}

// decorate loads display data for a doctype. It returns nil, nil when the
// doctype does not exist.
func (s *PermissionService) decorate(ctx context.Context, doctype string) (*permDecoration, error) {
	linked, err := s.meta.LinkedDoctypes(ctx, doctype)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	meta, err := s.repos.DocTypes.Get(ctx, doctype)
	if err != nil {
		return nil, err
	}
	return &permDecoration{linked: linked, meta: meta}, nil
}

// Add creates a rule granting role read access to parent at permlevel.
// Standard rules are first copied to custom rules. An existing rule for
// the same role and level is left as is.
func (s *PermissionService) Add(ctx context.Context, auth domain.AuthContext, parent, role string, permlevel int) error {
	if err := onlySystemManager(auth); err != nil {
		return err
	}
	if err := validatePermlevel(permlevel); err != nil {
		return err
	}

	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		meta, err := r.DocTypes.Get(ctx, parent)
		if err != nil {
			return err
		}
		if _, err := r.Perms.CopyStandardToCustom(ctx, parent); err != nil {
			return err
		}
		exists, err := r.Perms.CustomExists(ctx, parent, role, permlevel, false)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		if _, err := r.Perms.InsertCustom(ctx, domain.DocPerm{
			Parent:    parent,
			Role:      role,
			Permlevel: permlevel,
			Read:      true,
		}); err != nil {
			return err
		}
		return validateCustom(ctx, r, meta, false)
	})
	if err != nil {
		return fmt.Errorf("service.PermissionService.Add: %w", err)
	}
	return nil
}

// Update sets one property of the rule (doctype, role, permlevel). refresh
// is true when this call replaced the standard rules with custom ones, so
// the client must reload the whole rule set.
func (s *PermissionService) Update(ctx context.Context, auth domain.AuthContext, doctype, role string, permlevel int, ptype string, value bool) (refresh bool, err error) {
	if err := onlySystemManager(auth); err != nil {
		return false, err
	}
	if !domain.IsPermissionType(ptype) {
		return false, fmt.Errorf("%w: unknown permission type %q", domain.ErrValidation, ptype)
	}

	err = s.tx.InTx(ctx, func(r repo.Repos) error {
		meta, err := r.DocTypes.Get(ctx, doctype)
		if err != nil {
			return err
		}
		copied, err := r.Perms.CopyStandardToCustom(ctx, doctype)
		if err != nil {
			return err
		}
		refresh = copied > 0
		if err := r.Perms.SetCustomProperty(ctx, doctype, role, permlevel, ptype, value); err != nil {
			return err
		}
		return validateCustom(ctx, r, meta, false)
	})
	if err != nil {
		return false, fmt.Errorf("service.PermissionService.Update: %w", err)
	}
	return refresh, nil
}

// Remove deletes the rule (doctype, role, permlevel). The last rule of a
// doctype cannot be removed.
func (s *PermissionService) Remove(ctx context.Context, auth domain.AuthContext, doctype, role string, permlevel int) error {
	if err := onlySystemManager(auth); err != nil {
		return err
	}

	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		meta, err := r.DocTypes.Get(ctx, doctype)
		if err != nil {
			return err
		}
		if _, err := r.Perms.CopyStandardToCustom(ctx, doctype); err != nil {
			return err
		}
		if _, err := r.Perms.DeleteCustom(ctx, doctype, role, permlevel); err != nil {
			return err
		}
		remaining, err := r.Perms.CountCustom(ctx, doctype)
		if err != nil {
			return err
		}
		if remaining == 0 {
			return domain.WithTitle("Cannot Remove",
				fmt.Errorf("%w: There must be atleast one permission rule.", domain.ErrValidation))
		}
		return validateCustom(ctx, r, meta, true)
	})
	if err != nil {
		return fmt.Errorf("service.PermissionService.Remove: %w", err)
	}
	return nil
}

// Reset drops every custom rule of doctype so its standard rules apply again.
func (s *PermissionService) Reset(ctx context.Context, auth domain.AuthContext, doctype string) error {
	if err := onlySystemManager(auth); err != nil {
		return err
	}
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := r.DocTypes.Get(ctx, doctype); err != nil {
			return err
		}
		_, err := r.Perms.DeleteAllCustom(ctx, doctype)
		return err
	})
	if err != nil {
		return fmt.Errorf("service.PermissionService.Reset: %w", err)
	}
	return nil
}

// UsersWithRole returns the enabled users holding role.
func (s *PermissionService) UsersWithRole(ctx context.Context, auth domain.AuthContext, role string) ([]string, error) {
	if err := onlySystemManager(auth); err != nil {
		return nil, err
	}
	users, err := s.repos.Users.NamesWithRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("service.PermissionService.UsersWithRole: %w", err)
	}
	return users, nil
}

// StandardPermissions returns the rules a doctype ships with: from the
// store for custom doctypes, otherwise from its definition file.
func (s *PermissionService) StandardPermissions(ctx context.Context, auth domain.AuthContext, doctype string) ([]domain.DocPerm, error) {
	if err := onlySystemManager(auth); err != nil {
		return nil, err
	}
	meta, err := s.repos.DocTypes.Get(ctx, doctype)
	if err != nil {
		return nil, fmt.Errorf("service.PermissionService.StandardPermissions: %w", err)
	}

	var perms []domain.DocPerm
	if meta.Custom {
		perms, err = s.repos.Perms.ListStandard(ctx, doctype, nil)
	} else {
		perms, err = s.standard.StandardPermissions(meta.Module, doctype)
	}
	if err != nil {
		return nil, fmt.Errorf("service.PermissionService.StandardPermissions: %w", err)
	}
	return perms, nil
}

func validatePermlevel(level int) error {
	if level < 0 || level > 9 {
		return fmt.Errorf("%w: permlevel must be between 0 and 9", domain.ErrValidation)
	}
	return nil
}

func validateCustom(ctx context.Context, r repo.Repos, meta domain.DocTypeMeta, forRemove bool) error {
	perms, err := r.Perms.ListCustom(ctx, meta.Name, nil)
	if err != nil {
		return err
	}
	return domain.ValidatePermissions(meta, perms, forRemove)
}
