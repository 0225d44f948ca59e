package domain

import (
	"errors"
	"fmt"
	"slices"
)

// Rights lists every boolean permission property a rule carries, in the
// order the permission manager displays them.
var Rights = []string{
	"read", "select", "write", "create", "delete", "submit", "cancel", "amend",
	"print", "email", "report", "import", "export", "share",
}

// PtypeIfOwner restricts a rule to documents the caller owns.
const PtypeIfOwner = "if_owner"

// IsPermissionType reports whether ptype names a settable rule property.
func IsPermissionType(ptype string) bool {
	return ptype == PtypeIfOwner || slices.Contains(Rights, ptype)
}

// DocPerm is one permission rule: the rights a role has on a doctype at a
// permission level. Standard rules ship with the doctype; custom rules
// override them once any exist for the doctype.
type DocPerm struct {
	Name      string `json:"name"`
	Parent    string `json:"parent"`
	Role      string `json:"role"`
	Permlevel int    `json:"permlevel"`
	IfOwner   bool   `json:"if_owner"`
	Read      bool   `json:"read"`
	Select    bool   `json:"select"`
	Write     bool   `json:"write"`
	Create    bool   `json:"create"`
	Delete    bool   `json:"delete"`
	Submit    bool   `json:"submit"`
	Cancel    bool   `json:"cancel"`
	Amend     bool   `json:"amend"`
	Print     bool   `json:"print"`
	Email     bool   `json:"email"`
	Report    bool   `json:"report"`
	Import    bool   `json:"import"`
	Export    bool   `json:"export"`
	Share     bool   `json:"share"`
}

// Get returns the value of the named property. Unknown names return false.
func (p DocPerm) Get(ptype string) bool {
	if f := p.Field(ptype); f != nil {
		return *f
	}
	return false
}

// Set assigns the named property. It returns ErrValidation for unknown names.
func (p *DocPerm) Set(ptype string, v bool) error {
	f := p.Field(ptype)
	if f == nil {
		return fmt.Errorf("%w: unknown permission type %q", ErrValidation, ptype)
	}
	*f = v
	return nil
}

// Field returns a pointer to the named property, or nil for unknown names.
func (p *DocPerm) Field(ptype string) *bool {
	switch ptype {
	case "read":
		return &p.Read
	case "select":
		return &p.Select
	case "write":
		return &p.Write
	case "create":
		return &p.Create
	case "delete":
		return &p.Delete
	case "submit":
		return &p.Submit
	case "cancel":
		return &p.Cancel
	case "amend":
		return &p.Amend
	case "print":
		return &p.Print
	case "email":
		return &p.Email
	case "report":
		return &p.Report
	case "import":
		return &p.Import
	case "export":
		return &p.Export
	case "share":
		return &p.Share
	case PtypeIfOwner:
		return &p.IfOwner
	}
	return nil
}

// PermissionView is a rule as shown by the permission manager, decorated
// with the doctypes it links to and the doctype's submit/create flags.
type PermissionView struct {
	DocPerm
	LinkedDoctypes []string `json:"linked_doctypes,omitempty"`
	IsSubmittable  bool     `json:"is_submittable"`
	InCreate       bool     `json:"in_create"`
}

// ValidatePermissions checks the rule set of one doctype for consistency.
// All problems are joined into a single ErrValidation error.
func ValidatePermissions(meta DocTypeMeta, perms []DocPerm, forRemove bool) error {
	var errs []error
	fail := func(p DocPerm, msg string) {
		errs = append(errs, fmt.Errorf("%w: %s, %s at level %d: %s",
			ErrValidation, meta.Name, p.Role, p.Permlevel, msg))
	}

	type ruleKey struct {
		role    string
		level   int
		ifOwner bool
	}
	seen := make(map[ruleKey]bool, len(perms))
	levelZero := make(map[string]bool)
	for _, p := range perms {
		if p.Permlevel == 0 {
			levelZero[p.Role] = true
		}
	}

	for _, p := range perms {
		k := ruleKey{p.Role, p.Permlevel, p.IfOwner}
		if seen[k] {
			fail(p, "only one rule allowed with the same role, level and if-owner")
		}
		seen[k] = true

		if !p.Select && !p.Read && !p.Write && !p.Submit && !p.Cancel && !p.Create {
			fail(p, "no basic permissions set")
		}
		if p.Permlevel > 0 && p.Role != RoleAll && !levelZero[p.Role] {
			if forRemove {
				fail(p, "cannot remove level 0 permission while higher levels are set")
			} else {
				fail(p, "permission at level 0 must be set before higher levels are set")
			}
		}
		if !meta.IsSubmittable && (p.Submit || p.Cancel || p.Amend) {
			fail(p, "cannot set submit, cancel or amend if not submittable")
		}
		if p.Cancel && !p.Submit {
			fail(p, "cannot set cancel without submit")
		}
		if p.Amend && !p.Cancel {
			fail(p, "cannot set amend without cancel")
		}
		if p.Import && !p.Create {
			fail(p, "cannot set import without create")
		}
	}
	return errors.Join(errs...)
}
