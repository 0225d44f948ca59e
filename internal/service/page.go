package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/osama1998H/frappe/internal/assets"
	"github.com/osama1998H/frappe/internal/domain"
	"github.com/osama1998H/frappe/internal/naming"
	"github.com/osama1998H/frappe/internal/repo"
)

// assetLoadTimeout bounds a shared asset load once it is detached from the
// request that started it.
const assetLoadTimeout = 30 * time.Second

// PageExporter writes a standard page into the module source tree.
type PageExporter interface {
	ExportPage(p domain.Page) ([]string, error)
}

// AssetLoader builds the client bundle of a page.
type AssetLoader interface {
	Load(ctx context.Context, page domain.Page, lang string) (domain.PageAssets, error)
}

// PageDeps are the collaborators of a PageService.
type PageDeps struct {
	// Pages and CustomRoles serve reads outside a transaction.
	Pages       repo.PageRepo
	CustomRoles repo.CustomRoleRepo
	Tx          repo.TxRunner
	Exporter    PageExporter
	Loader      AssetLoader
	Cache       assets.Cache
	Logger      *slog.Logger

	// DeveloperMode allows creating pages and exporting standard ones.
	DeveloperMode bool
	Retry         naming.RetryPolicy
}

// PageService implements business logic for desk pages.
type PageService struct {
	deps  PageDeps
	loads singleflight.Group
}

// NewPageService constructs a PageService. A nil Logger discards output.
func NewPageService(deps PageDeps) *PageService {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Retry.MaxAttempts == 0 {
		deps.Retry = naming.DefaultRetryPolicy()
	}
	return &PageService{deps: deps}
}

// requireEditor enforces that only Administrator edits pages, unless the
// call is flagged to bypass document permissions.
func requireEditor(auth domain.AuthContext) error {
	if auth.IsAdministrator() || auth.IgnorePermissions {
		return nil
	}
	return domain.WithTitle("Not Permitted", fmt.Errorf("%w: only Administrator can edit", domain.ErrForbidden))
}

// pathSegment reports whether s can name a single directory in the module tree.
func pathSegment(s string) bool {
	return s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

// Create names and stores a new page. The name is derived from PageName
// unless the page already carries a real one, and the naming plus insert
// is retried when a concurrent create takes the same name.
func (s *PageService) Create(ctx context.Context, auth domain.AuthContext, page domain.Page) (domain.Page, error) {
	if err := requireEditor(auth); err != nil {
		return domain.Page{}, err
	}
	if !s.deps.DeveloperMode {
		return domain.Page{}, fmt.Errorf("%w: Not in Developer Mode", domain.ErrValidation)
	}

	page.PageName = strings.TrimSpace(page.PageName)
	page.Module = strings.TrimSpace(page.Module)
	if page.PageName == "" {
		return domain.Page{}, fmt.Errorf("%w: page_name is required", domain.ErrValidation)
	}
	if page.Module == "" {
		return domain.Page{}, fmt.Errorf("%w: module is required", domain.ErrValidation)
	}
	if !pathSegment(page.Module) {
		return domain.Page{}, fmt.Errorf("%w: module %q is not a valid directory name", domain.ErrValidation, page.Module)
	}
	switch page.Standard {
	case "":
		page.Standard = "No"
	case "Yes", "No":
	default:
		return domain.Page{}, fmt.Errorf("%w: standard must be Yes or No", domain.ErrValidation)
	}
	if page.Title == "" {
		page.Title = page.PageName
	}

	var created domain.Page
	err := naming.CreateWithRetry(ctx, s.deps.Retry, func(ctx context.Context) error {
		return s.deps.Tx.InTx(ctx, func(r repo.Repos) error {
			namer := naming.New(r.Pages, naming.WithPlaceholderPrefix(domain.PagePlaceholderPrefix))
			name, err := namer.Name(ctx, page.PageName, page.Name)
			if err != nil {
				return err
			}

			if page.IsStandard() && !pathSegment(name) {
				return fmt.Errorf("%w: name %q cannot be exported as a file", domain.ErrValidation, name)
			}

			conflict, err := r.DocTypes.RouteExists(ctx, name)
			if err != nil {
				return err
			}
			if conflict {
				return fmt.Errorf("%w: name %q conflicts with the route of an existing doctype", domain.ErrValidation, name)
			}

			if err := r.Roles.Ensure(ctx, page.Roles); err != nil {
				return err
			}

			p := page
			p.Name = name
			created, err = r.Pages.Create(ctx, p)
			return err
		})
	})
	if err != nil {
		return domain.Page{}, fmt.Errorf("service.PageService.Create: %w", err)
	}

	// Files are written only once the row is committed.
	if created.IsStandard() {
		written, err := s.deps.Exporter.ExportPage(created)
		if err != nil {
			return created, fmt.Errorf("service.PageService.Create: export %q: %w", created.Name, err)
		}
		s.deps.Logger.InfoContext(ctx, "page exported", "page", created.Name, "files", written)
	}
	return created, nil
}

// Get returns a page by name.
func (s *PageService) Get(ctx context.Context, name string) (domain.Page, error) {
	return s.deps.Pages.GetByName(ctx, name)
}

// List returns one page of pages and the total count.
func (s *PageService) List(ctx context.Context, p domain.PaginationParams) ([]domain.Page, int64, error) {
	return s.deps.Pages.ListPaged(ctx, p)
}

// Delete removes a page, its role links, and its custom role, then drops
// its cached assets.
func (s *PageService) Delete(ctx context.Context, auth domain.AuthContext, name string) error {
	if err := requireEditor(auth); err != nil {
		return err
	}
	err := s.deps.Tx.InTx(ctx, func(r repo.Repos) error {
		if err := r.CustomRoles.DeleteByPage(ctx, name); err != nil {
			return err
		}
		return r.Pages.Delete(ctx, name)
	})
	if err != nil {
		return fmt.Errorf("service.PageService.Delete: %w", err)
	}
	if err := s.deps.Cache.Invalidate(ctx, name); err != nil {
		s.deps.Logger.WarnContext(ctx, "page cache invalidation failed", "page", name, "error", err)
	}
	return nil
}

// SetCustomRoles grants roles access to a page through its custom role.
func (s *PageService) SetCustomRoles(ctx context.Context, auth domain.AuthContext, name string, roles []string) error {
	if err := requireEditor(auth); err != nil {
		return err
	}
	err := s.deps.Tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := r.Pages.GetByName(ctx, name); err != nil {
			return err
		}
		if err := r.Roles.Ensure(ctx, roles); err != nil {
			return err
		}
		return r.CustomRoles.SetForPage(ctx, name, roles)
	})
	if err != nil {
		return fmt.Errorf("service.PageService.SetCustomRoles: %w", err)
	}
	return nil
}

// IsPermitted reports whether the caller may open page. A page without
// roles, directly or through its custom role, is open to everyone.
func (s *PageService) IsPermitted(ctx context.Context, auth domain.AuthContext, page domain.Page) (bool, error) {
	allowed := append([]string(nil), page.Roles...)
	custom, err := s.deps.CustomRoles.RolesForPage(ctx, page.Name)
	if err != nil {
		return false, fmt.Errorf("service.PageService.IsPermitted: %w", err)
	}
	allowed = append(allowed, custom...)

	if len(allowed) == 0 {
		return true, nil
	}
	return auth.HasAnyRole(allowed), nil
}

// Assets returns the client bundle of a page in the caller's language.
// Bundles without server-rendered templates are cached; concurrent misses
// for the same page and language share one load.
func (s *PageService) Assets(ctx context.Context, auth domain.AuthContext, name string) (domain.PageAssets, error) {
	page, err := s.deps.Pages.GetByName(ctx, name)
	if err != nil {
		return domain.PageAssets{}, fmt.Errorf("service.PageService.Assets: %w", err)
	}
	ok, err := s.IsPermitted(ctx, auth, page)
	if err != nil {
		return domain.PageAssets{}, err
	}
	if !ok {
		return domain.PageAssets{}, domain.WithTitle("Not Permitted",
			fmt.Errorf("%w: no access to page %q", domain.ErrForbidden, name))
	}

	lang := auth.Language()
	if cached, hit, err := s.deps.Cache.Get(ctx, name, lang); err != nil {
		s.deps.Logger.WarnContext(ctx, "page cache read failed", "page", name, "error", err)
	} else if hit {
		return cached, nil
	}

	// The load is shared by every caller waiting on this key, so one caller
	// going away must not cancel it for the rest.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.loads.Do(name+"\x00"+lang, func() (any, error) {
		ctx, cancel := context.WithTimeout(loadCtx, assetLoadTimeout)
		defer cancel()
		loaded, err := s.deps.Loader.Load(ctx, page, lang)
		if err != nil {
			return domain.PageAssets{}, err
		}
		if !loaded.Dynamic {
			if err := s.deps.Cache.Set(ctx, name, lang, loaded); err != nil {
				s.deps.Logger.WarnContext(ctx, "page cache write failed", "page", name, "error", err)
			}
		}
		return loaded, nil
	})
	if err != nil {
		return domain.PageAssets{}, fmt.Errorf("service.PageService.Assets: %w", err)
	}
	return v.(domain.PageAssets), nil
}
