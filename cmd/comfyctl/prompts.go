package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"comfyctl/internal/compose"
	"comfyctl/internal/preset"
)

var (
	flagQuality   string
	flagStyle     string
	flagCharacter string
	flagPose      string
	flagExtra     []string
)

func newGenerateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Compose the selected fragments into a stored prompt",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			env, err := app.newEnv()
			if err != nil {
				return err
			}

			sel := compose.NewSelection()
			sel.Single[preset.CategoryQuality] = flagQuality
			sel.Single[preset.CategoryStyle] = flagStyle
			sel.Single[preset.CategoryCharacter] = flagCharacter
			sel.Single[preset.CategoryPose] = flagPose
			sel.Extra = flagExtra

			frags := loadFragments(app, env.store)
			key, prompt, err := compose.Compose(frags, sel)
			if err != nil {
				return err
			}

			gen, err := env.store.LoadGenerated()
			if err != nil {
				fmt.Fprintf(app.Err, "Warning: %v (starting a fresh prompt list)\n", err)
			}
			gen.Set(key, prompt)
			if err := env.store.SaveGenerated(gen); err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "Generated: %s\n", key)
			fmt.Fprintf(app.Out, "  %s\n", prompt)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagQuality, "quality", "", "quality fragment name")
	cmd.Flags().StringVar(&flagStyle, "style", "", "style fragment name")
	cmd.Flags().StringVar(&flagCharacter, "character", "", "character fragment name")
	cmd.Flags().StringVar(&flagPose, "pose", "", "pose fragment name")
	cmd.Flags().StringSliceVar(&flagExtra, "extra", nil, "extra fragment names (multi-select)")

	return cmd
}

func newPromptsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Manage generated prompts",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List generated prompt keys",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				env, err := app.newEnv()
				if err != nil {
					return err
				}
				gen, err := env.store.LoadGenerated()
				if err != nil {
					return err
				}
				for _, key := range gen.Keys() {
					fmt.Fprintln(app.Out, key)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <key>",
			Short: "Show the prompt text for a key",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				env, err := app.newEnv()
				if err != nil {
					return err
				}
				gen, err := env.store.LoadGenerated()
				if err != nil {
					return err
				}
				prompt, ok := gen.Get(args[0])
				if !ok {
					return fmt.Errorf("no generated prompt %q", args[0])
				}
				fmt.Fprintln(app.Out, prompt)
				return nil
			},
		},
		&cobra.Command{
			Use:     "delete <key> [key...]",
			Aliases: []string{"rm"},
			Short:   "Delete generated prompts",
			Args:    cobra.MinimumNArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				env, err := app.newEnv()
				if err != nil {
					return err
				}
				gen, err := env.store.LoadGenerated()
				if err != nil {
					return err
				}

				removed := 0
				for _, key := range args {
					if gen.Delete(key) {
						removed++
					} else {
						fmt.Fprintf(app.Err, "no generated prompt %q\n", key)
					}
				}
				if removed > 0 {
					if err := env.store.SaveGenerated(gen); err != nil {
						return err
					}
				}
				fmt.Fprintf(app.Out, "Deleted %d of %d.\n", removed, len(args))
				return nil
			},
		},
	)

	return cmd
}
