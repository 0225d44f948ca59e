// Package assets builds the client bundle of a desk page from the module
// source tree and caches the result.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/osama1998H/frappe/internal/domain"
	"github.com/osama1998H/frappe/internal/modules"
)

// ContextProvider returns the data a page's server-rendered templates see.
type ContextProvider func(ctx context.Context, page domain.Page) (map[string]any, error)

// Loader assembles page assets from a module tree.
type Loader struct {
	tree       *modules.Tree
	providers  map[string]ContextProvider
	hooks      map[string][]string
	translator Translator
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithContextProvider registers the template context provider of a page.
func WithContextProvider(page string, p ContextProvider) LoaderOption {
	return func(l *Loader) { l.providers[page] = p }
}

// WithPageJSHooks registers extra scripts appended to pages, keyed by page
// name. Paths are resolved in the module tree.
func WithPageJSHooks(hooks map[string][]string) LoaderOption {
	return func(l *Loader) {
		for page, paths := range hooks {
			l.hooks[page] = append(l.hooks[page], paths...)
		}
	}
}

// WithTranslator enables message tables for languages other than English.
func WithTranslator(t Translator) LoaderOption {
	return func(l *Loader) { l.translator = t }
}

// NewLoader constructs a Loader over tree.
func NewLoader(tree *modules.Tree, opts ...LoaderOption) *Loader {
	l := &Loader{
		tree:      tree,
		providers: make(map[string]ContextProvider),
		hooks:     make(map[string][]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the script, style, and templates of page for lang.
// A page without a source directory yields domain.ErrNotFound.
func (l *Loader) Load(ctx context.Context, page domain.Page, lang string) (domain.PageAssets, error) {
	fsys := l.tree.FS()
	dir := modules.PageDir(page.Module, page.Name)
	base := modules.Scrub(page.Name)

	entries, err := fs.ReadDir(fsys, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.PageAssets{}, fmt.Errorf("assets.Loader.Load: %s: %w", dir, domain.ErrNotFound)
	}
	if err != nil {
		return domain.PageAssets{}, fmt.Errorf("assets.Loader.Load: %w", err)
	}

	var out domain.PageAssets

	if b, ok, err := readOptional(fsys, path.Join(dir, base+".js")); err != nil {
		return domain.PageAssets{}, fmt.Errorf("assets.Loader.Load: %w", err)
	} else if ok {
		script, err := ExpandIncludes(fsys, string(b))
		if err != nil {
			return domain.PageAssets{}, fmt.Errorf("assets.Loader.Load: %w", err)
		}
		out.Script = script + "\n\n//# sourceURL=" + base + ".js"
	}

	if b, ok, err := readOptional(fsys, path.Join(dir, base+".css")); err != nil {
		return domain.PageAssets{}, fmt.Errorf("assets.Loader.Load: %w", err)
	} else if ok {
		out.Style = string(b)
	}

	// ReadDir returns entries sorted by name.
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return domain.PageAssets{}, fmt.Errorf("assets.Loader.Load: %w", err)
		}
		tpl := string(b)
		if strings.Contains(tpl, JinjaSentinel) {
			data := map[string]any{}
			if p, ok := l.providers[page.Name]; ok {
				got, err := p(ctx, page)
				if err != nil {
					return domain.PageAssets{}, fmt.Errorf("assets.Loader.Load: context for %s: %w", page.Name, err)
				}
				if got != nil {
					data = got
				}
			}
			tpl, err = renderTemplate(e.Name(), tpl, data)
			if err != nil {
				return domain.PageAssets{}, fmt.Errorf("assets.Loader.Load: %w", err)
			}
		}
		out.Script = HTMLToJSTemplate(e.Name(), tpl) + out.Script
		out.Dynamic = true
	}

	if lang != "" && lang != "en" && l.translator != nil {
		js, err := langJS(ctx, l.translator, lang, out.Script)
		if err != nil {
			return domain.PageAssets{}, fmt.Errorf("assets.Loader.Load: %w", err)
		}
		out.Script += js
	}

	for _, p := range l.hooks[page.Name] {
		b, err := fs.ReadFile(fsys, strings.TrimPrefix(p, "/"))
		if err != nil {
			return domain.PageAssets{}, fmt.Errorf("assets.Loader.Load: page_js hook: %w", err)
		}
		if len(b) > 0 {
			out.Script += "\n\n" + string(b)
		}
	}

	return out, nil
}

func readOptional(fsys fs.FS, name string) ([]byte, bool, error) {
	b, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}
