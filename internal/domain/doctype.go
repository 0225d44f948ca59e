package domain

// DocTypeMeta is the subset of a doctype definition the desk needs.
type DocTypeMeta struct {
	Name             string `json:"name"`
	Module           string `json:"module"`
	IsTable          bool   `json:"istable"`
	IsSubmittable    bool   `json:"is_submittable"`
	InCreate         bool   `json:"in_create"`
	Custom           bool   `json:"custom"`
	RestrictToDomain string `json:"restrict_to_domain,omitempty"`
}

// Role is a named grant that users and pages can carry.
type Role struct {
	Name             string `json:"name"`
	Disabled         bool   `json:"disabled"`
	IsCustom         bool   `json:"is_custom"`
	RestrictToDomain string `json:"restrict_to_domain,omitempty"`
}

// Option is a label/value pair for UI pickers.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
