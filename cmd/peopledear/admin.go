package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/peopledear/peopledear/factory"
	"github.com/peopledear/peopledear/generic"
)

func periodCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "period",
		Short: "Manage an organization's periods",
	}

	var org string
	var year int
	create := &cobra.Command{
		Use:   "create",
		Short: "Create the period for a year, closing the previous one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTenant(cmd.Context(), flags, org, func(ctx context.Context, a *app) error {
				p, err := a.svc.CreatePeriod(ctx, year)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "period %d opened (%s to %s)\n", p.Year, p.Start, p.End)
				return nil
			})
		},
	}
	balances := &cobra.Command{
		Use:   "balances",
		Short: "Open vacation balances for every employee without one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTenant(cmd.Context(), flags, org, func(ctx context.Context, a *app) error {
				opened, err := a.svc.OpenBalanceYear(ctx, year)
				if err != nil {
					return err
				}
				for _, b := range opened {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s carried, %s accrued\n", b.EmployeeID, b.FromLastYear.Days(), b.Accrued.Days())
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d balances opened for %d\n", len(opened), year)
				return nil
			})
		},
	}
	for _, c := range []*cobra.Command{create, balances} {
		c.Flags().StringVar(&org, "org", "", "organization id")
		c.Flags().IntVar(&year, "year", 0, "calendar year")
		c.MarkFlagRequired("org")
		c.MarkFlagRequired("year")
		cmd.AddCommand(c)
	}
	return cmd
}

func catalogCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Install or print time-off type catalogs",
	}

	var org, file string
	install := &cobra.Command{
		Use:   "install",
		Short: "Install a JSON or YAML catalog into an organization",
		RunE: func(cmd *cobra.Command, _ []string) error {
			types := factory.NewTypeFactory()
			entries, err := types.LoadCatalog(file)
			if err != nil {
				return err
			}
			return withTenant(cmd.Context(), flags, org, func(ctx context.Context, a *app) error {
				installed, err := types.Install(ctx, a.svc, entries)
				if err != nil {
					return err
				}
				for _, t := range installed {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", t.ID, t.Kind, t.Name)
				}
				return nil
			})
		},
	}
	install.Flags().StringVar(&org, "org", "", "organization id")
	install.Flags().StringVar(&file, "file", "", "catalog file (.json, .yaml or .yml)")
	install.MarkFlagRequired("org")
	install.MarkFlagRequired("file")

	defaults := &cobra.Command{
		Use:   "defaults",
		Short: "Print the default catalog as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(factory.DefaultCatalog())
		},
	}

	cmd.AddCommand(install, defaults)
	return cmd
}

// withTenant opens the application and runs fn scoped to org.
func withTenant(ctx context.Context, flags *rootFlags, org string, fn func(context.Context, *app) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(flags)
	if err != nil {
		return err
	}
	defer a.Close()
	if _, err := a.svc.GetOrganization(ctx, generic.OrganizationID(org)); err != nil {
		return err
	}
	if err := fn(generic.WithOrganization(ctx, generic.OrganizationID(org)), a); err != nil {
		if fields := generic.ValidationFields(err); fields != nil {
			for _, f := range fields {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", f.Field, f.Message)
			}
		}
		return err
	}
	return nil
}
