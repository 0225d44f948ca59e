// Package domain contains the core data types for the desk administration service.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import "time"

// Page is a desk UI page. Name is the URL-safe unique key derived from
// PageName by the slug namer; it never changes after creation.
type Page struct {
	Name             string    `json:"name"`
	PageName         string    `json:"page_name"`
	Title            string    `json:"title"`
	Module           string    `json:"module"`
	Standard         string    `json:"standard"` // "Yes" for pages exported to the module tree
	SystemPage       bool      `json:"system_page"`
	RestrictToDomain string    `json:"restrict_to_domain,omitempty"`
	Roles            []string  `json:"roles"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PagePlaceholderPrefix marks an unsaved page whose name is still a placeholder
// such as "New Page 1". Pages with such names are renamed on creation.
const PagePlaceholderPrefix = "New Page"

// IsStandard reports whether the page is exported to the module source tree.
func (p Page) IsStandard() bool {
	return p.Standard == "Yes"
}

// PageAssets is the rendered client-side bundle for a page.
// Dynamic is set when the page contains HTML templates; such bundles are
// rendered per request and never cached.
type PageAssets struct {
	Script  string `json:"script"`
	Style   string `json:"style"`
	Dynamic bool   `json:"-"`
}
