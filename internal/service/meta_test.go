package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osama1998H/frappe/internal/domain"
	"github.com/osama1998H/frappe/internal/service"
)

func newMetaService() *service.MetaService {
	return service.NewMetaService(&memDocTypeRepo{
		metas: map[string]domain.DocTypeMeta{
			"Blog Post":     {Name: "Blog Post"},
			"Blog Post Tag": {Name: "Blog Post Tag", IsTable: true},
			"Plain Table":   {Name: "Plain Table", IsTable: true},
		},
		fields: map[string][]domain.DocField{
			"Blog Post": {
				{Name: "f1", Fieldname: "blogger", Fieldtype: domain.FieldTypeLink, Options: "Blogger"},
				{Name: "f2", Fieldname: "tags", Fieldtype: domain.FieldTypeTableMultiSelect, Options: "Blog Post Tag"},
				{Name: "f3", Fieldname: "status", Fieldtype: domain.FieldTypeSelect, Options: "Draft\n\nPublished"},
				{Name: "f4", Fieldname: "other", Fieldtype: domain.FieldTypeTableMultiSelect, Options: "Plain Table"},
			},
			"Blog Post Tag": {
				{Fieldname: "label", Fieldtype: "Data"},
				{Fieldname: "tag", Fieldtype: domain.FieldTypeLink, Options: "Tag", InListView: true},
			},
			"Plain Table": {
				{Fieldname: "tag", Fieldtype: domain.FieldTypeLink, Options: "Tag"},
			},
		},
	})
}

func TestMetaService_LinkDoctype(t *testing.T) {
	svc := newMetaService()
	ctx := context.Background()

	tests := []struct {
		name  string
		field domain.DocField
		want  string
	}{
		{"link", domain.DocField{Fieldtype: domain.FieldTypeLink, Options: "User"}, "User"},
		{"table multiselect", domain.DocField{Fieldtype: domain.FieldTypeTableMultiSelect, Options: "Blog Post Tag"}, "Tag"},
		{"table multiselect without list-view link", domain.DocField{Fieldtype: domain.FieldTypeTableMultiSelect, Options: "Plain Table"}, ""},
		{"data", domain.DocField{Fieldtype: "Data", Options: "Email"}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.LinkDoctype(ctx, tc.field)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMetaService_LinkedDoctypes(t *testing.T) {
	svc := newMetaService()

	got, err := svc.LinkedDoctypes(context.Background(), "Blog Post")
	require.NoError(t, err)
	assert.Equal(t, []string{"Blog Post", "Blogger"}, got)

	_, err = svc.LinkedDoctypes(context.Background(), "Missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMetaService_Fields(t *testing.T) {
	svc := newMetaService()

	got, err := svc.Fields(context.Background(), "Blog Post")

	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "Blogger", got[0].LinkDoctype)
	assert.Equal(t, "Tag", got[1].LinkDoctype)
	assert.Equal(t, []string{"Draft", "Published"}, got[2].SelectOptions)
	assert.Nil(t, got[0].SelectOptions)
	assert.Empty(t, got[3].LinkDoctype)
}
