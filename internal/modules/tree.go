// Package modules reads and writes the module source tree: the directory of
// apps holding page scripts, styles, templates, and doctype definitions.
package modules

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/osama1998H/frappe/internal/domain"
)

// Scrub converts a display name into its on-disk form: lowercase with
// spaces and hyphens replaced by underscores.
func Scrub(name string) string {
	return strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(name))
}

// Tree is a module source tree. Reads go through an fs.FS; writes need the
// on-disk root and fail on trees built with NewTreeFS.
type Tree struct {
	fsys fs.FS
	root string
}

// NewTree opens the tree rooted at dir.
func NewTree(dir string) *Tree {
	return &Tree{fsys: os.DirFS(dir), root: dir}
}

// NewTreeFS wraps a read-only file system, e.g. an fstest.MapFS in tests.
func NewTreeFS(fsys fs.FS) *Tree {
	return &Tree{fsys: fsys}
}

// FS returns the file system the tree reads from.
func (t *Tree) FS() fs.FS { return t.fsys }

// PageDir returns the slash-separated directory of a page's assets.
func PageDir(module, page string) string {
	return path.Join(Scrub(module), "page", Scrub(page))
}

// DocTypeFile returns the path of a doctype's JSON definition.
func DocTypeFile(module, doctype string) string {
	name := Scrub(doctype)
	return path.Join(Scrub(module), "doctype", name, name+".json")
}

// ReadFile reads name from the tree. A missing file yields domain.ErrNotFound.
func (t *Tree) ReadFile(name string) ([]byte, error) {
	b, err := fs.ReadFile(t.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("modules.Tree.ReadFile: %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("modules.Tree.ReadFile: %w", err)
	}
	return b, nil
}

// StandardPermissions returns the "permissions" array of a doctype's JSON
// definition. Flags may be stored as 0/1 or as booleans.
func (t *Tree) StandardPermissions(module, doctype string) ([]domain.DocPerm, error) {
	b, err := t.ReadFile(DocTypeFile(module, doctype))
	if err != nil {
		return nil, fmt.Errorf("modules.Tree.StandardPermissions: %w", err)
	}

	var doc struct {
		Permissions []map[string]any `json:"permissions"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("modules.Tree.StandardPermissions: decode %s: %w", doctype, err)
	}

	perms := make([]domain.DocPerm, 0, len(doc.Permissions))
	for _, raw := range doc.Permissions {
		p := domain.DocPerm{Parent: doctype}
		p.Role, _ = raw["role"].(string)
		p.Name, _ = raw["name"].(string)
		if lvl, ok := raw["permlevel"].(float64); ok {
			p.Permlevel = int(lvl)
		}
		for key, v := range raw {
			if f := p.Field(key); f != nil {
				*f = truthy(v)
			}
		}
		perms = append(perms, p)
	}
	return perms, nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x == "1" || x == "true"
	}
	return false
}

// WriteFile writes data to name below the tree root, creating directories.
// Names that would resolve outside the root are rejected with
// domain.ErrValidation. With overwrite false an existing file is left alone and written is false.
func (t *Tree) WriteFile(name string, data []byte, overwrite bool) (written bool, err error) {
	if t.root == "" {
		return false, fmt.Errorf("modules.Tree.WriteFile: tree is read-only")
	}
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		return false, fmt.Errorf("%w: path %q is outside the module tree", domain.ErrValidation, name)
	}
	full := filepath.Join(t.root, rel)
	if !overwrite {
		if _, err := os.Stat(full); err == nil {
			return false, nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return false, fmt.Errorf("modules.Tree.WriteFile: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return false, fmt.Errorf("modules.Tree.WriteFile: %w", err)
	}
	return true, nil
}
