package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/travelsystem/tso/internal/cli/auth"
	"github.com/travelsystem/tso/internal/cli/client"
	"github.com/travelsystem/tso/internal/cli/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd(factory Factory) *cobra.Command {
	var companyCode, username, password, code string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to TravelSystem Online as staff",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			return runLogin(cmd, env, loginInput{
				CompanyCode: envOrFlag(companyCode, "TSO_COMPANY_CODE"),
				Username:    envOrFlag(username, "TSO_USERNAME"),
				Password:    envOrFlag(password, "TSO_PASSWORD"),
				Code:        code,
			})
		},
	}

	cmd.Flags().StringVar(&companyCode, "company", "", "Company code (or set TSO_COMPANY_CODE)")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (or set TSO_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set TSO_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&code, "code", "", "Two-factor verification code, if the account requires one")

	return cmd
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out of the staff session",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			if err := env.Auth.Logout(cmd.Context(), session.DomainAdmin); err != nil {
				return err
			}
			fmt.Fprintln(env.Out, "✓ Logged out")
			return nil
		},
	}
}

type loginInput struct {
	CompanyCode string
	Username    string
	Password    string
	Code        string
}

func runLogin(cmd *cobra.Command, env *Env, in loginInput) error {
	ctx := cmd.Context()
	env.Router.Navigate(session.AdminLoginPath)

	var err error
	if in.Username == "" {
		if in.Username, err = env.Prompt.Input("Username"); err != nil {
			return err
		}
	}
	if in.Password == "" {
		if in.Password, err = env.Prompt.Secret("Password"); err != nil {
			return err
		}
	}

	fmt.Fprintf(env.Out, "Logging in to %s...\n", env.Config.BackendURL)

	result, err := env.Auth.AdminLogin(ctx, client.LoginRequest{
		CompanyCode: in.CompanyCode,
		Username:    in.Username,
		Password:    in.Password,
	})
	if err != nil {
		return notifyError(err, "login failed")
	}

	if result.Challenge != nil {
		code := in.Code
		if code == "" {
			if code, err = env.Prompt.Input("Verification code"); err != nil {
				return err
			}
		}
		result, err = env.Auth.CompleteTwoFactor(ctx, result.Challenge, code)
		if err != nil {
			return notifyError(err, "verification failed")
		}
	}

	env.Router.Navigate(result.StartPage)
	printLogin(env, result)
	return nil
}

func printLogin(env *Env, result *auth.Result) {
	fmt.Fprintln(env.Out, "✓ Login successful!")
	fmt.Fprintf(env.Out, "  User:    %s\n", result.User.DisplayName())
	if name := result.Company.DisplayName(); name != "" {
		fmt.Fprintf(env.Out, "  Company: %s\n", name)
	}
	if result.User.Elevated() {
		fmt.Fprintln(env.Out, "  Role:    Admin")
	}
	fmt.Fprintf(env.Out, "  Start:   %s\n", result.StartPage)
}
