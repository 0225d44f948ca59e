package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osama1998H/frappe/internal/domain"
	"github.com/osama1998H/frappe/internal/repo"
	"github.com/osama1998H/frappe/testutil"
)

func TestUserRepo(t *testing.T) {
	tx := testutil.NewTx(t)
	mustExec(t, tx, `
		INSERT INTO users (name, enabled, api_key) VALUES
			('ann@example.com', true, 'key-ann'),
			('bob@example.com', false, 'key-bob')`)
	mustExec(t, tx, `
		INSERT INTO has_roles (parent, parenttype, role) VALUES
			('ann@example.com', 'User', 'System Manager'),
			('bob@example.com', 'User', 'System Manager')`)
	r := repo.NewUserRepo(tx)
	ctx := context.Background()

	u, err := r.GetByAPIKey(ctx, "key-ann")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Name)
	assert.Equal(t, []string{"System Manager"}, u.Roles)

	_, err = r.GetByAPIKey(ctx, "key-bob")
	assert.ErrorIs(t, err, domain.ErrNotFound, "disabled users cannot authenticate")

	names, err := r.NamesWithRole(ctx, "System Manager")
	require.NoError(t, err)
	assert.Contains(t, names, "ann@example.com")
	assert.NotContains(t, names, "bob@example.com")
}

func TestRoleRepo(t *testing.T) {
	tx := testutil.NewTx(t)
	mustExec(t, tx, `INSERT INTO roles (name, is_custom) VALUES ('Auditor', true)`)
	mustExec(t, tx, `INSERT INTO roles (name, disabled) VALUES ('Retired', true)`)
	mustExec(t, tx, `INSERT INTO roles (name) VALUES ('Supplier Portal')`)
	mustExec(t, tx, `INSERT INTO user_types (name, role, is_standard) VALUES ('Supplier', 'Supplier Portal', false)`)
	r := repo.NewRoleRepo(tx)
	ctx := context.Background()

	roles, err := r.List(ctx, repo.RoleFilter{Exclude: []string{"Administrator"}})
	require.NoError(t, err)
	var names []string
	for _, role := range roles {
		names = append(names, role.Name)
	}
	assert.Contains(t, names, "Auditor")
	assert.NotContains(t, names, "Retired")
	assert.NotContains(t, names, "Administrator")

	custom, err := r.CustomRoleNames(ctx)
	require.NoError(t, err)
	assert.Contains(t, custom, "Auditor")

	typed, err := r.UserTypeRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Supplier Portal"}, typed)

	require.NoError(t, r.Ensure(ctx, []string{"Auditor", "Editor"}))
	roles, err = r.List(ctx, repo.RoleFilter{})
	require.NoError(t, err)
	names = names[:0]
	for _, role := range roles {
		names = append(names, role.Name)
	}
	assert.Contains(t, names, "Editor")
}

func TestTranslationRepo_Messages(t *testing.T) {
	tx := testutil.NewTx(t)
	mustExec(t, tx, `
		INSERT INTO translations (lang, source_text, translated_text) VALUES
			('de', 'Save', 'Speichern'),
			('de', 'Cancel', 'Abbrechen')`)
	r := repo.NewTranslationRepo(tx)
	ctx := context.Background()

	got, err := r.Messages(ctx, "de", []string{"Save", "Unknown"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Save": "Speichern"}, got)

	all, err := r.Messages(ctx, "de", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
