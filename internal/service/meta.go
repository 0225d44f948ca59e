// Package service contains the business logic of the desk service.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/osama1998H/frappe/internal/domain"
	"github.com/osama1998H/frappe/internal/repo"
)

// selectPlaceholder is the options value of a Link field whose target is
// chosen at runtime.
const selectPlaceholder = "[Select]"

// MetaService answers questions about doctype fields and their links.
type MetaService struct {
	doctypes repo.DocTypeRepo
}

// NewMetaService constructs a MetaService backed by the provided DocTypeRepo.
func NewMetaService(doctypes repo.DocTypeRepo) *MetaService {
	return &MetaService{doctypes: doctypes}
}

// LinkDoctype returns the doctype a field links to. Link fields link to
// their options; Table MultiSelect fields link to the target of the first
// list-view Link field of their child table. Other fields link nowhere.
func (s *MetaService) LinkDoctype(ctx context.Context, f domain.DocField) (string, error) {
	switch f.Fieldtype {
	case domain.FieldTypeLink:
		return f.Options, nil
	case domain.FieldTypeTableMultiSelect:
		if f.Options == "" {
			return "", nil
		}
		options, ok, err := s.doctypes.ListViewLinkOptions(ctx, f.Options)
		if err != nil {
			return "", fmt.Errorf("service.MetaService.LinkDoctype: %w", err)
		}
		if !ok {
			return "", nil
		}
		return options, nil
	}
	return "", nil
}

// LinkedDoctypes returns doctype together with every doctype its Link
// fields point to, de-duplicated and sorted.
func (s *MetaService) LinkedDoctypes(ctx context.Context, doctype string) ([]string, error) {
	if _, err := s.doctypes.Get(ctx, doctype); err != nil {
		return nil, fmt.Errorf("service.MetaService.LinkedDoctypes: %w", err)
	}
	fields, err := s.doctypes.Fields(ctx, doctype)
	if err != nil {
		return nil, fmt.Errorf("service.MetaService.LinkedDoctypes: %w", err)
	}

	out := []string{doctype}
	for _, f := range fields {
		if f.Fieldtype != domain.FieldTypeLink || f.Options == "" || f.Options == selectPlaceholder {
			continue
		}
		out = append(out, f.Options)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// Fields returns the fields of doctype with their link targets and select
// choices resolved.
func (s *MetaService) Fields(ctx context.Context, doctype string) ([]domain.FieldInfo, error) {
	if _, err := s.doctypes.Get(ctx, doctype); err != nil {
		return nil, fmt.Errorf("service.MetaService.Fields: %w", err)
	}
	fields, err := s.doctypes.Fields(ctx, doctype)
	if err != nil {
		return nil, fmt.Errorf("service.MetaService.Fields: %w", err)
	}

	out := make([]domain.FieldInfo, 0, len(fields))
	for _, f := range fields {
		link, err := s.LinkDoctype(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.FieldInfo{
			DocField:      f,
			LinkDoctype:   link,
			SelectOptions: f.SelectOptions(),
		})
	}
	return out, nil
}
