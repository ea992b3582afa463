package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/travelsystem/tso/internal/cli/bootstrap"
	"github.com/travelsystem/tso/internal/cli/impersonate"
	"github.com/travelsystem/tso/internal/cli/session"
)

// NewStatusCmd creates the status command. It validates the staff session
// against the backend and reports what is stored locally for both domains.
func NewStatusCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"whoami"},
		Short:   "Show who is signed in",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			return runStatus(cmd, env)
		},
	}
}

func runStatus(cmd *cobra.Command, env *Env) error {
	ctx := cmd.Context()
	env.Router.Navigate("/")

	state, err := bootstrap.New(env.Client, env.Router, env.Logger).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(env.Out, "Staff session:")
	if state != bootstrap.StateAuthenticated {
		fmt.Fprintln(env.Out, "  Not logged in")
	} else if err := printAdmin(cmd, env); err != nil {
		return err
	}

	fmt.Fprintln(env.Out, "Partner session:")
	cari, err := env.Sessions.Cari(ctx)
	if err != nil {
		return err
	}
	if !cari.Authenticated() {
		fmt.Fprintln(env.Out, "  Not logged in")
		return nil
	}
	printCari(env, cari)
	return nil
}

func printAdmin(cmd *cobra.Command, env *Env) error {
	ctx := cmd.Context()
	admin, err := env.Sessions.Admin(ctx)
	if err != nil {
		return err
	}

	user, err := admin.DecodeUser()
	if err != nil {
		return err
	}
	company, err := admin.DecodeCompany()
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Out, "  User:    %s\n", user.DisplayName())
	if name := company.DisplayName(); name != "" {
		fmt.Fprintf(env.Out, "  Company: %s\n", name)
	}
	if claims, err := session.ParseClaims(admin.Token); err == nil && claims.ExpiresAt != nil {
		fmt.Fprintf(env.Out, "  Expires: %s\n", claims.ExpiresAt.Time.Local().Format(time.RFC1123))
	}

	active, err := impersonate.NewService(env.Client, env.Sessions, env.Logger).Active(ctx)
	if err != nil {
		return err
	}
	if !active {
		return nil
	}

	operator, err := env.Sessions.Operator(ctx)
	if err != nil {
		return err
	}
	who, err := operator.DecodeUser()
	if err != nil {
		env.Logger.Warn().Err(err).Msg("Stored operator profile is unreadable")
	}
	name := who.DisplayName()
	if name == "" {
		name = "unknown"
	}
	fmt.Fprintf(env.Out, "  Viewing as customer (operator: %s). Run 'tso admin return' to go back.\n", name)
	return nil
}

func printCari(env *Env, cari session.CariSession) {
	who, _ := cari.DecodeCari()
	company, _ := cari.DecodeCompany()

	fmt.Fprintf(env.Out, "  Partner: %s\n", who.Name)
	if name := company.DisplayName(); name != "" {
		fmt.Fprintf(env.Out, "  Company: %s\n", name)
	}
}
