package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/travelsystem/tso/internal/cli/impersonate"
)

// NewAdminCmd groups the operator commands
func NewAdminCmd(factory Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Operator commands",
	}

	cmd.AddCommand(newCustomersCmd(factory))
	cmd.AddCommand(newViewAsCmd(factory))
	cmd.AddCommand(newReturnCmd(factory))
	return cmd
}

func newCustomersCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "customers",
		Short: "List customer companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			env.Router.Navigate("/admin/customers")

			customers, err := env.Client.ListCustomers(cmd.Context())
			if err != nil {
				return notifyError(err, "failed to list customers")
			}
			if len(customers) == 0 {
				fmt.Fprintln(env.Out, "No customers found")
				return nil
			}

			w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCOMPANY\tCODE\tOWNER")
			fmt.Fprintln(w, "──\t───────\t────\t─────")
			for _, c := range customers {
				owner := "-"
				if c.Owner != nil {
					owner = c.Owner.Username
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.CompanyName, c.CompanyCode, owner)
			}
			return w.Flush()
		},
	}
}

func newViewAsCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "view-as <customer-id>",
		Short: "Act as a customer's owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			env.Router.Navigate("/admin/customers")

			svc := impersonate.NewService(env.Client, env.Sessions, env.Logger)
			customer, err := svc.ViewAs(cmd.Context(), args[0])
			if err != nil {
				return notifyError(err, "failed to view as customer")
			}
			env.Router.Navigate("/")

			fmt.Fprintf(env.Out, "✓ Now viewing as %s\n", customer.CompanyName)
			fmt.Fprintln(env.Out, "  Run 'tso admin return' to go back to your own session.")
			return nil
		},
	}
}

func newReturnCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "return",
		Short: "Return to your own operator session",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return err
			}

			svc := impersonate.NewService(env.Client, env.Sessions, env.Logger)
			if err := svc.Return(cmd.Context()); err != nil {
				return err
			}
			env.Router.Navigate("/admin/customers")

			fmt.Fprintln(env.Out, "✓ Returned to operator session")
			return nil
		},
	}
}
