package domain

import (
	"fmt"
	"strings"
)

// Field types with special link semantics.
const (
	FieldTypeLink             = "Link"
	FieldTypeTableMultiSelect = "Table MultiSelect"
	FieldTypeTable            = "Table"
	FieldTypeSelect           = "Select"
)

// DocField describes one field of a doctype.
// Options carries the linked doctype for Link and table fields, and the
// newline-separated choices for Select fields.
type DocField struct {
	Name       string `json:"name"`
	Parent     string `json:"parent,omitempty"`
	Fieldname  string `json:"fieldname"`
	Label      string `json:"label"`
	Fieldtype  string `json:"fieldtype"`
	Options    string `json:"options,omitempty"`
	InListView bool   `json:"in_list_view"`
	Idx        int    `json:"idx"`
	Docstatus  int    `json:"docstatus,omitempty"`
}

// SelectOptions returns the non-empty choices of a Select field, or nil for
// any other field type.
func (f DocField) SelectOptions() []string {
	if f.Fieldtype != FieldTypeSelect {
		return nil
	}
	out := []string{}
	for _, o := range strings.Split(f.Options, "\n") {
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (f DocField) String() string {
	unsaved := ""
	if f.Name == "" {
		unsaved = "unsaved"
	}
	docstatus := ""
	if f.Docstatus != 0 {
		docstatus = fmt.Sprintf(" docstatus=%d", f.Docstatus)
	}
	parent := ""
	if f.Parent != "" {
		parent = " parent=" + f.Parent
	}
	return fmt.Sprintf("<%sDocField: %s%s%s%s>", f.Fieldtype, f.Fieldname, docstatus, parent, unsaved)
}

// FieldInfo is a DocField decorated with its resolved link target and
// select choices, as returned to the desk UI.
type FieldInfo struct {
	DocField
	LinkDoctype   string   `json:"link_doctype,omitempty"`
	SelectOptions []string `json:"select_options,omitempty"`
}
