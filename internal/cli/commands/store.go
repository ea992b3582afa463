package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/travelsystem/tso/internal/cli/client"
	"github.com/travelsystem/tso/internal/cli/store"
)

// NewStoreCmd creates the module store command
func NewStoreCmd(factory Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Browse and buy product modules",
	}

	cmd.AddCommand(newStoreListCmd(factory))
	cmd.AddCommand(newStoreBuyCmd(factory))
	return cmd
}

func newStoreListCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List modules and their plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			env.Router.Navigate("/store")

			modules, err := store.Catalog(cmd.Context(), env.Client)
			if err != nil {
				return notifyError(err, "failed to load the store")
			}

			w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODULE\tSTATUS\tPLAN\tPRICE")
			fmt.Fprintln(w, "──────\t──────\t────\t─────")
			for _, m := range modules {
				status := "available"
				if m.Enabled {
					status = "enabled"
				}
				if len(m.Plans) == 0 {
					fmt.Fprintf(w, "%s\t%s\t-\t-\n", m.Name, status)
					continue
				}
				for _, p := range m.Plans {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name, status, p.ID, store.FormatPlan(p))
				}
			}
			return w.Flush()
		},
	}
}

func newStoreBuyCmd(factory Factory) *cobra.Command {
	var planID string

	cmd := &cobra.Command{
		Use:   "buy <module>",
		Short: "Buy a module through hosted checkout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			env.Router.Navigate("/store")
			module := args[0]

			modules, err := store.Catalog(cmd.Context(), env.Client)
			if err != nil {
				return notifyError(err, "failed to load the store")
			}

			plan, err := choosePlan(env, modules, module, planID)
			if err != nil {
				return err
			}

			checkout := store.NewCheckout(env.Client, env.Open, store.CheckoutOptions{
				CallbackAddr: env.Config.Store.CallbackAddr,
				AllowOrigin:  env.backendOrigin(),
				PollInterval: env.Config.Store.PollInterval,
				PollTimeout:  env.Config.Store.PollTimeout,
				OnURL: func(url string) {
					fmt.Fprintf(env.Out, "Complete the purchase in your browser:\n  %s\n", url)
					fmt.Fprintln(env.Out, "Waiting for the module to activate...")
				},
			}, env.Logger)

			company, err := checkout.Buy(cmd.Context(), module, plan.ID)
			if err != nil {
				return notifyError(err, "checkout failed")
			}

			fmt.Fprintf(env.Out, "✓ Module %s is now enabled", module)
			if name := company.DisplayName(); name != "" {
				fmt.Fprintf(env.Out, " for %s", name)
			}
			fmt.Fprintln(env.Out)
			return nil
		},
	}

	cmd.Flags().StringVar(&planID, "plan", "", "Plan ID (prompts if omitted)")
	return cmd
}

func choosePlan(env *Env, modules []client.StoreModule, module, planID string) (*client.Plan, error) {
	for _, m := range modules {
		if m.Name != module {
			continue
		}
		if m.Enabled {
			return nil, fmt.Errorf("module %q is already enabled", module)
		}

		if planID != "" {
			plan, ok := store.FindPlan(modules, module, planID)
			if !ok {
				return nil, fmt.Errorf("plan %q not found for module %q", planID, module)
			}
			return plan, nil
		}

		switch len(m.Plans) {
		case 0:
			return nil, fmt.Errorf("module %q has no plans for sale", module)
		case 1:
			return &m.Plans[0], nil
		}

		labels := make([]string, len(m.Plans))
		for i, p := range m.Plans {
			labels[i] = store.FormatPlan(p)
		}
		idx, err := env.Prompt.Select("Select a plan", labels)
		if err != nil {
			return nil, err
		}
		return &m.Plans[idx], nil
	}
	return nil, fmt.Errorf("unknown module %q", module)
}
