package commands

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/travelsystem/tso/internal/cli/client"
	"github.com/travelsystem/tso/internal/cli/session"
)

const cariDashboardPath = "/cari/dashboard"

// NewCariCmd groups the partner (cari) portal commands
func NewCariCmd(factory Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cari",
		Short: "Partner portal commands",
	}

	cmd.AddCommand(newCariLoginCmd(factory))
	cmd.AddCommand(newCariLogoutCmd(factory))
	cmd.AddCommand(newCariStatusCmd(factory))
	cmd.AddCommand(newCariTourTypesCmd(factory))
	return cmd
}

func newCariLoginCmd(factory Factory) *cobra.Command {
	var companyCode, username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the partner portal",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return err
			}

			req := client.CariLoginRequest{
				CompanyCode: envOrFlag(companyCode, "TSO_CARI_COMPANY_CODE"),
				Username:    envOrFlag(username, "TSO_CARI_USERNAME"),
				Password:    envOrFlag(password, "TSO_CARI_PASSWORD"),
			}
			env.Router.Navigate(session.PartnerLoginPath)

			if req.Username == "" {
				if req.Username, err = env.Prompt.Input("Username"); err != nil {
					return err
				}
			}
			if req.Password == "" {
				if req.Password, err = env.Prompt.Secret("Password"); err != nil {
					return err
				}
			}

			result, err := env.Auth.PartnerLogin(cmd.Context(), req)
			if err != nil {
				return notifyError(err, "partner login failed")
			}
			env.Router.Navigate(cariDashboardPath)

			fmt.Fprintln(env.Out, "✓ Partner login successful!")
			fmt.Fprintf(env.Out, "  Partner: %s\n", result.Cari.Name)
			if name := result.Company.DisplayName(); name != "" {
				fmt.Fprintf(env.Out, "  Company: %s\n", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&companyCode, "company", "", "Company code (or set TSO_CARI_COMPANY_CODE)")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (or set TSO_CARI_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set TSO_CARI_PASSWORD, will prompt if not provided)")
	return cmd
}

func newCariLogoutCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out of the partner portal",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			if err := env.Auth.Logout(cmd.Context(), session.DomainPartner); err != nil {
				return err
			}
			fmt.Fprintln(env.Out, "✓ Logged out of the partner portal")
			return nil
		},
	}
}

func newCariStatusCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the partner session with the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			env.Router.Navigate(cariDashboardPath)

			stored, err := env.Sessions.Cari(cmd.Context())
			if err != nil {
				return err
			}
			if !stored.Authenticated() {
				fmt.Fprintln(env.Out, "Not logged in. Run 'tso cari login'.")
				return nil
			}

			resp, err := env.Client.CariMe(cmd.Context())
			if err != nil {
				return notifyError(err, "failed to load partner profile")
			}
			printCari(env, session.CariSession{Token: stored.Token, Cari: resp.Cari, Company: resp.Company})

			info, err := env.Client.CariCompanyInfo(cmd.Context())
			if err != nil {
				return notifyError(err, "failed to load company info")
			}
			printRates(env, info.CurrencyRates)
			return nil
		},
	}
}

func newCariTourTypesCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "tour-types",
		Short: "List the tour types offered to partners",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			env.Router.Navigate("/cari/tours")

			types, err := env.Client.CariTourTypes(cmd.Context())
			if err != nil {
				return notifyError(err, "failed to load tour types")
			}
			if len(types) == 0 {
				fmt.Fprintln(env.Out, "No tour types available")
				return nil
			}

			w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDURATION")
			fmt.Fprintln(w, "──\t────\t────────")
			for _, t := range types {
				fmt.Fprintf(w, "%s\t%s\t%gh\n", t.ID, t.Name, t.DurationHours)
			}
			return w.Flush()
		},
	}
}

func printRates(env *Env, rates map[string]float64) {
	if len(rates) == 0 {
		return
	}
	codes := make([]string, 0, len(rates))
	for code := range rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	fmt.Fprintln(env.Out, "  Rates:")
	for _, code := range codes {
		fmt.Fprintf(env.Out, "    %s %.4f\n", code, rates[code])
	}
}
