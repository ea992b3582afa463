package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/travelsystem/tso/internal/cli/store"
)

// NewModuleCmd creates the module command
func NewModuleCmd(factory Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "module",
		Short: "Show or switch the active product module",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List the modules enabled for your company",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			env.Router.Navigate("/")

			active, enabled, err := store.NewModules(env.Client, env.Sessions, env.Logger).Active(cmd.Context())
			if err != nil {
				return notifyError(err, "failed to load modules")
			}
			for _, name := range enabled {
				marker := " "
				if name == active {
					marker = "*"
				}
				fmt.Fprintf(env.Out, "%s %s\n", marker, name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "switch [module]",
		Short: "Switch the active module",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			env.Router.Navigate("/")

			modules := store.NewModules(env.Client, env.Sessions, env.Logger)

			var target string
			if len(args) == 1 {
				target = args[0]
			} else {
				_, enabled, err := modules.Active(cmd.Context())
				if err != nil {
					return notifyError(err, "failed to load modules")
				}
				idx, err := env.Prompt.Select("Select a module", enabled)
				if err != nil {
					return err
				}
				target = enabled[idx]
			}

			if err := modules.Switch(cmd.Context(), target); err != nil {
				return notifyError(err, "failed to switch module")
			}
			fmt.Fprintf(env.Out, "✓ Active module: %s\n", target)
			return nil
		},
	})

	return cmd
}
