package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/crumb-calendar/internal/grid"
	"github.com/example/crumb-calendar/internal/itinerary"
	"github.com/example/crumb-calendar/internal/tui"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "crumbcal",
		Short: "Recurring-event calendar for the delivery CRM",
		Long: `crumbcal shows base events and the imported delivery itinerary in a
day, 3-day or week grid. Click an event to edit its series, double-click an
empty slot to create one. The subcommands work on the same store for scripts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), a)
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to the YAML configuration file")
	flags.StringVar(&a.driver, "driver", "", "storage driver: sqlite, file or memory")
	flags.StringVar(&a.dataDir, "data-dir", "", "directory for the database, documents and log")

	root.AddCommand(
		newWeekCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newExportCmd(a),
	)
	return root
}

// execute runs the command line args and releases whatever the command
// opened, even when it failed.
func execute(ctx context.Context, a *app, args []string) error {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if cerr := a.close(ctx); cerr != nil {
		err = errors.Join(err, cerr)
	}
	return err
}

func runTUI(ctx context.Context, a *app) error {
	mode, err := a.cfg.DefaultMode()
	if err != nil {
		return err
	}
	model, err := tui.NewModel(ctx, tui.Options{
		Service:   a.svc,
		Projector: a.projector,
		Book:      a.book,
		Mode:      mode,
		Now:       a.now,
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}
	program := tui.NewProgram(ctx, model)

	if a.cfg.Itinerary.Watch {
		watcher, err := itinerary.Watch(a.cfg.Itinerary.File, a.book, func(err error) {
			program.Send(tui.ItineraryChanged(err))
		}, itinerary.WithLogger(a.logger))
		if err != nil {
			return fmt.Errorf("failed to watch itinerary: %w", err)
		}
		defer watcher.Close()
	}

	a.logger.InfoContext(ctx, "calendar started", "driver", a.cfg.Storage.Driver, "events", a.store.Len(), "visits", a.book.Len())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// parseView accepts the same names as calendar.default_view.
func parseView(value string, fallback grid.Mode) (grid.Mode, error) {
	if value == "" {
		return fallback, nil
	}
	return grid.ParseMode(value)
}
