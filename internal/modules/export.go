package modules

import (
	"encoding/json"
	"fmt"
	"html/template"
	"path"
	"path/filepath"

	"github.com/osama1998H/frappe/internal/domain"
)

const pageScriptStub = `desk.pages['%s'].on_page_load = function(wrapper) {
	var page = desk.ui.make_app_page({
		parent: wrapper,
		title: '%s',
		single_column: true
	});
}`

// pageDocument is the on-disk JSON form of a page.
type pageDocument struct {
	Doctype          string        `json:"doctype"`
	Name             string        `json:"name"`
	PageName         string        `json:"page_name"`
	Title            string        `json:"title"`
	Module           string        `json:"module"`
	Standard         string        `json:"standard"`
	SystemPage       int           `json:"system_page"`
	RestrictToDomain string        `json:"restrict_to_domain,omitempty"`
	Roles            []pageRoleRow `json:"roles"`
}

type pageRoleRow struct {
	Role string `json:"role"`
}

// ExportPage writes {module}/page/{page}/{page}.json and, if it does not
// exist yet, a {page}.js stub. It returns the paths written.
func (t *Tree) ExportPage(p domain.Page) ([]string, error) {
	doc := pageDocument{
		Doctype:          "Page",
		Name:             p.Name,
		PageName:         p.PageName,
		Title:            p.Title,
		Module:           p.Module,
		Standard:         p.Standard,
		RestrictToDomain: p.RestrictToDomain,
		Roles:            make([]pageRoleRow, 0, len(p.Roles)),
	}
	if p.SystemPage {
		doc.SystemPage = 1
	}
	for _, r := range p.Roles {
		doc.Roles = append(doc.Roles, pageRoleRow{Role: r})
	}

	b, err := json.MarshalIndent(doc, "", " ")
	if err != nil {
		return nil, fmt.Errorf("modules.Tree.ExportPage: %w", err)
	}

	base := path.Join(PageDir(p.Module, p.Name), Scrub(p.Name))
	if !filepath.IsLocal(filepath.FromSlash(base)) || path.Base(base) != Scrub(p.Name) {
		return nil, fmt.Errorf("modules.Tree.ExportPage: %w: page %q in module %q leaves the module tree",
			domain.ErrValidation, p.Name, p.Module)
	}
	var written []string
	if _, err := t.WriteFile(base+".json", append(b, '\n'), true); err != nil {
		return nil, fmt.Errorf("modules.Tree.ExportPage: %w", err)
	}
	written = append(written, base+".json")

	stub := fmt.Sprintf(pageScriptStub, template.JSEscapeString(p.Name), template.JSEscapeString(p.Title))
	ok, err := t.WriteFile(base+".js", []byte(stub), false)
	if err != nil {
		return nil, fmt.Errorf("modules.Tree.ExportPage: %w", err)
	}
	if ok {
		written = append(written, base+".js")
	}
	return written, nil
}
