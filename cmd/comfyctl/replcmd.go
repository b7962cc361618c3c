package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"comfyctl/internal/repl"
)

func newREPLCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "repl",
		Aliases: []string{"interactive"},
		Short:   "Start interactive mode",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			env, err := app.newEnv()
			if err != nil {
				return err
			}

			settings, err := env.loadSettings()
			if err != nil {
				return err
			}

			hist, err := app.NewHistory(flagDataDir)
			if err != nil {
				fmt.Fprintf(app.Err, "Warning: submission history unavailable: %v\n", err)
				hist = nil
			} else {
				defer hist.Close()
			}

			r := repl.New(&repl.Config{
				In:       app.In,
				Out:      app.Out,
				Err:      app.Err,
				Store:    env.store,
				Client:   env.client,
				History:  hist,
				Settings: settings,
			})
			return r.Run(ctx)
		},
	}
}
