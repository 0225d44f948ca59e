package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/osama1998H/frappe/internal/domain"
)

func (c *cli) permsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perms",
		Short: "Manage permission rules",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "reset DOCTYPE",
		Short: "Drop the custom rules of a doctype so its standard rules apply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.be.perms.Reset(cmd.Context(), cliAuth, args[0]); err != nil {
				return fmt.Errorf("reset permissions: %w", err)
			}
			fmt.Fprintf(c.out, "Reset permissions of %s\n", args[0])
			return nil
		},
	})

	var asJSON bool
	standardCmd := &cobra.Command{
		Use:   "standard DOCTYPE",
		Short: "Print the rules shipped with a doctype",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			perms, err := c.be.perms.StandardPermissions(cmd.Context(), cliAuth, args[0])
			if err != nil {
				return fmt.Errorf("standard permissions: %w", err)
			}
			if asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(perms)
			}
			return writePermTable(c, perms)
		},
	}
	standardCmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	cmd.AddCommand(standardCmd)
	return cmd
}

// writePermTable prints one line per rule with the rights it grants.
func writePermTable(c *cli, perms []domain.DocPerm) error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tLEVEL\tIF OWNER\tRIGHTS")
	for _, p := range perms {
		var rights []string
		for _, r := range domain.Rights {
			if p.Get(r) {
				rights = append(rights, r)
			}
		}
		fmt.Fprintf(tw, "%s\t%d\t%t\t%s\n", p.Role, p.Permlevel, p.IfOwner, strings.Join(rights, ","))
	}
	return tw.Flush()
}
