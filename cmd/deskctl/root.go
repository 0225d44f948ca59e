package main

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/osama1998H/frappe/internal/domain"
)

// pageOps and permOps are the service calls deskctl makes.
type pageOps interface {
	Create(ctx context.Context, auth domain.AuthContext, page domain.Page) (domain.Page, error)
	SetCustomRoles(ctx context.Context, auth domain.AuthContext, name string, roles []string) error
}

type permOps interface {
	Reset(ctx context.Context, auth domain.AuthContext, doctype string) error
	StandardPermissions(ctx context.Context, auth domain.AuthContext, doctype string) ([]domain.DocPerm, error)
}

type migrationState struct {
	Version   int64
	State     string
	AppliedAt time.Time
}

// backend is everything a command may need, opened once per invocation.
type backend struct {
	pages   pageOps
	perms   permOps
	migrate func(ctx context.Context) error
	status  func(ctx context.Context) ([]migrationState, error)
	close   func()
}

type opener func(ctx context.Context, configFile string) (*backend, error)

// cliAuth is the caller deskctl acts as. Shell access to the host already
// implies full control, so document permission checks are skipped.
var cliAuth = domain.AuthContext{
	User:              domain.UserAdministrator,
	Lang:              "en",
	IgnorePermissions: true,
}

// cli carries state shared by the commands of one root.
type cli struct {
	open       opener
	out        io.Writer
	configFile string
	be         *backend
}

func newRootCmd(open opener, out io.Writer) *cobra.Command {
	c := &cli{open: open, out: out}

	root := &cobra.Command{
		Use:   "deskctl",
		Short: "Administer desk pages and permission rules",
		Long: `deskctl manages the desk database from the command line: apply
migrations, create pages, override page roles and reset permission rules.

Configuration comes from the same environment variables as the API server,
or from a YAML file given with --config.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Help and shell completion never touch the database.
			if cmd.Name() == "help" || cmd.Name() == "completion" || (cmd.HasParent() && cmd.Parent().Name() == "completion") {
				return nil
			}
			be, err := c.open(cmd.Context(), c.configFile)
			if err != nil {
				return err
			}
			c.be = be
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.be != nil && c.be.close != nil {
				c.be.close()
			}
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "YAML config file (default: environment only)")

	root.AddCommand(c.migrateCmd(), c.pageCmd(), c.permsCmd())
	return root
}
