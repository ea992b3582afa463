package commands

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/travelsystem/tso/internal/cli/bootstrap"
	"github.com/travelsystem/tso/internal/cli/revalidate"
)

// NewWatchCmd keeps re-validating the staff session on a schedule until
// interrupted
func NewWatchCmd(factory Factory) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-check the staff session periodically",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			if schedule == "" {
				schedule = env.Config.Revalidate.Schedule
			}
			env.Router.Navigate("/")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			boot := bootstrap.New(env.Client, env.Router, env.Logger)
			var mu sync.Mutex
			last := bootstrap.StateUnknown
			boot.OnSettle(func(state bootstrap.State) {
				mu.Lock()
				defer mu.Unlock()
				if state == last {
					return
				}
				last = state
				fmt.Fprintf(env.Out, "[%s] session %s\n", time.Now().Format(time.TimeOnly), state)
			})

			scheduler, err := revalidate.NewScheduler(boot, schedule, env.Config.HTTP.Timeout, env.Logger)
			if err != nil {
				return err
			}

			state, err := scheduler.RunOnce(ctx)
			if err != nil {
				return err
			}
			if state != bootstrap.StateAuthenticated {
				return fmt.Errorf("not logged in, run 'tso login' first")
			}

			fmt.Fprintf(env.Out, "Watching session (%s), press Ctrl+C to stop\n", schedule)
			scheduler.Start(ctx)
			<-ctx.Done()
			scheduler.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron schedule, e.g. '*/5 * * * *' or '@every 1m'")
	return cmd
}
