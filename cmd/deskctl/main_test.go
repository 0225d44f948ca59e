package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osama1998H/frappe/internal/domain"
)

type fakePages struct {
	created domain.Page
	granted []string
	auth    domain.AuthContext
}

func (f *fakePages) Create(_ context.Context, auth domain.AuthContext, p domain.Page) (domain.Page, error) {
	f.created, f.auth = p, auth
	p.Name = "sales-dashboard"
	return p, nil
}

func (f *fakePages) SetCustomRoles(_ context.Context, _ domain.AuthContext, name string, roles []string) error {
	if name == "missing" {
		return domain.ErrNotFound
	}
	f.granted = roles
	return nil
}

type fakePerms struct {
	reset string
}

func (f *fakePerms) Reset(_ context.Context, _ domain.AuthContext, doctype string) error {
	f.reset = doctype
	return nil
}

func (f *fakePerms) StandardPermissions(_ context.Context, _ domain.AuthContext, doctype string) ([]domain.DocPerm, error) {
	return []domain.DocPerm{{Parent: doctype, Role: "System Manager", Read: true, Write: true}}, nil
}

var (
	_ pageOps = (*fakePages)(nil)
	_ permOps = (*fakePerms)(nil)
)

type harness struct {
	pages    *fakePages
	perms    *fakePerms
	migrated bool
	opened   int
	closed   int
	config   string
}

func (h *harness) open(_ context.Context, configFile string) (*backend, error) {
	h.opened++
	h.config = configFile
	return &backend{
		pages: h.pages,
		perms: h.perms,
		migrate: func(context.Context) error {
			h.migrated = true
			return nil
		},
		status: func(context.Context) ([]migrationState, error) {
			return []migrationState{
				{Version: 1, State: "applied", AppliedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
				{Version: 2, State: "pending"},
			}, nil
		},
		close: func() { h.closed++ },
	}, nil
}

func run(t *testing.T, args ...string) (*harness, string, error) {
	t.Helper()
	h := &harness{pages: &fakePages{}, perms: &fakePerms{}}
	var out bytes.Buffer
	root := newRootCmd(h.open, &out)
	root.SetArgs(args)
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	return h, out.String(), err
}

func TestPageNew(t *testing.T) {
	h, out, err := run(t, "page", "new", "Sales Dashboard", "--module", "Selling", "--role", "Sales User", "--role", "Sales Manager", "--standard")

	require.NoError(t, err)
	assert.Equal(t, "Created page: sales-dashboard\n", out)
	assert.Equal(t, "Sales Dashboard", h.pages.created.PageName)
	assert.Equal(t, "Yes", h.pages.created.Standard)
	assert.Equal(t, []string{"Sales User", "Sales Manager"}, h.pages.created.Roles)
	assert.True(t, h.pages.auth.IgnorePermissions)
	assert.Equal(t, 1, h.closed)
}

func TestPageNew_requiresModule(t *testing.T) {
	_, _, err := run(t, "page", "new", "Sales Dashboard")

	require.ErrorContains(t, err, "module")
}

func TestPageGrant(t *testing.T) {
	h, out, err := run(t, "page", "grant", "todo", "--role", "Blogger")

	require.NoError(t, err)
	assert.Equal(t, []string{"Blogger"}, h.pages.granted)
	assert.Contains(t, out, "Granted Blogger to todo")

	_, out, err = run(t, "page", "grant", "todo")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared custom roles of todo")

	_, _, err = run(t, "page", "grant", "missing", "--role", "Blogger")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPermsReset(t *testing.T) {
	h, out, err := run(t, "perms", "reset", "Note")

	require.NoError(t, err)
	assert.Equal(t, "Note", h.perms.reset)
	assert.Equal(t, "Reset permissions of Note\n", out)
}

func TestPermsStandard(t *testing.T) {
	_, out, err := run(t, "perms", "standard", "Note")
	require.NoError(t, err)
	assert.Contains(t, out, "ROLE")
	assert.Contains(t, out, "System Manager")
	assert.Contains(t, out, "read,write")

	_, out, err = run(t, "perms", "standard", "Note", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"parent": "Note"`)
}

func TestMigrate(t *testing.T) {
	h, out, err := run(t, "migrate", "--config", "/etc/desk.yaml")

	require.NoError(t, err)
	assert.True(t, h.migrated)
	assert.Equal(t, "/etc/desk.yaml", h.config)
	assert.Contains(t, out, "up to date")

	_, out, err = run(t, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "00001    applied  2026-01-02 03:04:05")
	assert.Contains(t, out, "00002    pending  -")
}

func TestHelp_doesNotOpenBackend(t *testing.T) {
	h, out, err := run(t, "help")

	require.NoError(t, err)
	assert.Equal(t, 0, h.opened)
	assert.Contains(t, out, "deskctl")
}

func TestOpenFailure(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd(func(context.Context, string) (*backend, error) {
		return nil, errors.New("no database")
	}, &out)
	root.SetArgs([]string{"perms", "reset", "Note"})
	root.SetErr(&bytes.Buffer{})

	require.ErrorContains(t, root.Execute(), "no database")
}
