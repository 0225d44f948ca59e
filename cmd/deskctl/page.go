package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/osama1998H/frappe/internal/domain"
)

func (c *cli) pageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Manage desk pages",
	}

	var (
		module   string
		title    string
		standard bool
		roles    []string
	)
	newCmd := &cobra.Command{
		Use:   "new PAGE_NAME",
		Short: "Create a page",
		Long: `Create a page named after PAGE_NAME. The stored name is a slug of
PAGE_NAME made unique with a numeric suffix.

Example:
  deskctl page new "Sales Dashboard" --module Selling --role "Sales User"
  deskctl page new "Setup Wizard" --module Core --standard`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page := domain.Page{
				PageName: args[0],
				Title:    title,
				Module:   module,
				Standard: "No",
				Roles:    roles,
			}
			if standard {
				page.Standard = "Yes"
			}
			created, err := c.be.pages.Create(cmd.Context(), cliAuth, page)
			if err != nil {
				return fmt.Errorf("create page: %w", err)
			}
			fmt.Fprintf(c.out, "Created page: %s\n", created.Name)
			return nil
		},
	}
	newCmd.Flags().StringVar(&module, "module", "", "module the page belongs to (required)")
	newCmd.Flags().StringVar(&title, "title", "", "display title (default: PAGE_NAME)")
	newCmd.Flags().BoolVar(&standard, "standard", false, "export the page to the module tree")
	newCmd.Flags().StringArrayVar(&roles, "role", nil, "role allowed to open the page (repeatable)")
	_ = newCmd.MarkFlagRequired("module")

	var grantRoles []string
	grantCmd := &cobra.Command{
		Use:   "grant NAME",
		Short: "Replace the custom role override of a page",
		Long: `Replace the roles allowed to open page NAME, overriding the roles it
was created with. Pass no --role to clear the override.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.be.pages.SetCustomRoles(cmd.Context(), cliAuth, args[0], grantRoles); err != nil {
				return fmt.Errorf("grant roles: %w", err)
			}
			if len(grantRoles) == 0 {
				fmt.Fprintf(c.out, "Cleared custom roles of %s\n", args[0])
			} else {
				fmt.Fprintf(c.out, "Granted %s to %s\n", strings.Join(grantRoles, ", "), args[0])
			}
			return nil
		},
	}
	grantCmd.Flags().StringArrayVar(&grantRoles, "role", nil, "role allowed to open the page (repeatable)")

	cmd.AddCommand(newCmd, grantCmd)
	return cmd
}
