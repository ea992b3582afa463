package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/travelsystem/tso/internal/cli/commands"
	"github.com/travelsystem/tso/internal/config"
	"github.com/travelsystem/tso/internal/logger"
)

var version = "dev" // Will be set during build

// app builds the command environment on first use and closes it at exit
type app struct {
	configPath string
	env        *commands.Env
}

func (a *app) factory(ctx context.Context) (*commands.Env, error) {
	if a.env != nil {
		return a.env, nil
	}

	cfg, err := config.LoadWith(ctx, config.Options{ProjectFile: a.configPath})
	if err != nil {
		return nil, err
	}

	log := logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if cfg.ProjectFile != "" {
		log.Debug().Str("path", cfg.ProjectFile).Msg("Loaded project configuration")
	}

	kv, closeKV, err := commands.OpenKV(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open session storage: %w", err)
	}

	a.env = commands.NewEnv(cfg, log, kv, os.Stdout, os.Stderr)
	a.env.OnClose(closeKV)
	return a.env, nil
}

func (a *app) close() {
	if a.env == nil {
		return
	}
	if err := a.env.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	a.env = nil
}

// NewRootCmd assembles the tso command tree
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tso",
		Short: "TravelSystem Online - command line client",
		Long: `tso signs you in to TravelSystem Online and keeps the staff and
partner (cari) sessions apart.

Staff commands use the staff session; 'tso cari ...' commands use the
partner session. When either session expires only that one is cleared.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to tso.yaml (default: nearest one upwards from the working directory)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tso version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewLoginCmd(a.factory))
	rootCmd.AddCommand(commands.NewLogoutCmd(a.factory))
	rootCmd.AddCommand(commands.NewStatusCmd(a.factory))
	rootCmd.AddCommand(commands.NewCariCmd(a.factory))
	rootCmd.AddCommand(commands.NewAdminCmd(a.factory))
	rootCmd.AddCommand(commands.NewModuleCmd(a.factory))
	rootCmd.AddCommand(commands.NewStoreCmd(a.factory))
	rootCmd.AddCommand(commands.NewWatchCmd(a.factory))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	a := &app{}
	defer a.close()

	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
