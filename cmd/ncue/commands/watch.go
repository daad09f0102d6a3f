package commands

import (
	"fmt"
	"log/slog"
	"ncue-api/internal/components/chrono"
	"ncue-api/internal/components/telemetry"
	"ncue-api/internal/db"
	"ncue-api/internal/watcher"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchOnce bool

func init() {
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Poll a single time and exit.")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [--once]",
	Short: "Watches the event listings and signs up to matching events once seats open.",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(cmd *cobra.Command, args []string, g *Globals) error {
		opts, err := g.Config.WatcherOptions()
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		database, err := db.Open(ctx, g.Config.WatchDatabase())
		if err != nil {
			return fmt.Errorf("open %s: %w", g.Config.WatchDatabase(), err)
		}
		defer database.Close()

		w := watcher.NewWatcher(g.Client, database, opts, g.Tel, chrono.NewStandardImpl())

		if watchOnce {
			result, err := w.Poll(ctx)
			if err != nil {
				return err
			}
			for _, a := range result.Attempts {
				fmt.Fprintf(cmd.OutOrStdout(), "%d %s: %s\n", a.Event.ID, a.Event.Name, a.Outcome)
			}
			return nil
		}

		telemetry.InstrumentPerfStats(ctx, g.Tel)

		cron := chrono.NewStandardCron(g.Tel)
		defer cron.Stop()
		err = w.Start(ctx, cron, g.Config.WatchSchedule())
		if err != nil {
			return fmt.Errorf("schedule %q: %w", g.Config.WatchSchedule(), err)
		}

		slog.Info("watching events", "schedule", g.Config.WatchSchedule(), "keywords", opts.Keywords)
		<-ctx.Done()
		slog.Info("stopping")
		return nil
	}),
}
