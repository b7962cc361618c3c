package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"comfyctl/internal/preset"
)

var (
	flagCheckpoint string
	flagLora       string
	flagWidth      int
	flagHeight     int
	flagBatch      int
	flagSeed       string
	flagSteps      int
	flagCFG        float64
)

func newPresetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage generation-settings bundles",
	}

	cmd.AddCommand(
		newPresetListCmd(app),
		newPresetShowCmd(app),
		newPresetSaveCmd(app),
		newPresetDeleteCmd(app),
	)
	return cmd
}

func newPresetListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List settings bundle names",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			env, err := app.newEnv()
			if err != nil {
				return err
			}
			names, err := env.store.ListSettings()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(app.Out, name)
			}
			return nil
		},
	}
}

func newPresetShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a settings bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			env, err := app.newEnv()
			if err != nil {
				return err
			}
			settings, err := env.store.LoadSettings(args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(settings, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Out, string(data))
			return nil
		},
	}
}

func newPresetSaveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Create or update a settings bundle",
		Long: `Create or update a settings bundle. An existing bundle of the same
name is loaded first, so only the flags given change; a new bundle starts
from the built-in defaults. Saving overwrites the bundle file outright.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.newEnv()
			if err != nil {
				return err
			}

			settings, err := env.store.LoadSettings(args[0])
			if err != nil {
				settings = preset.DefaultSettings()
			}
			settings.PresetName = args[0]

			flags := cmd.Flags()
			if flags.Changed("checkpoint") {
				settings.Checkpoint = flagCheckpoint
			}
			if flags.Changed("lora") {
				settings.Lora = flagLora
			}
			if flags.Changed("width") {
				settings.Width = flagWidth
			}
			if flags.Changed("height") {
				settings.Height = flagHeight
			}
			if flags.Changed("batch") {
				settings.BatchSize = flagBatch
			}
			if flags.Changed("seed") {
				seed, err := parseSeedFlag(flagSeed)
				if err != nil {
					return err
				}
				settings.Seed = seed
			}
			if flags.Changed("steps") {
				settings.Steps = flagSteps
			}
			if flags.Changed("cfg") {
				settings.CFG = flagCFG
			}

			if err := env.store.SaveSettings(settings); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Saved preset %s.\n", settings.PresetName)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagCheckpoint, "checkpoint", "", "checkpoint model file")
	cmd.Flags().StringVar(&flagLora, "lora", "", "LoRA model file (empty for none)")
	cmd.Flags().IntVar(&flagWidth, "width", 0, "latent width")
	cmd.Flags().IntVar(&flagHeight, "height", 0, "latent height")
	cmd.Flags().IntVar(&flagBatch, "batch", 0, "batch size")
	cmd.Flags().StringVar(&flagSeed, "seed", "", "seed value, or RANDOM / -1 for a fresh seed per submission")
	cmd.Flags().IntVar(&flagSteps, "steps", 0, "diffusion steps")
	cmd.Flags().Float64Var(&flagCFG, "cfg", 0, "guidance scale")

	return cmd
}

// parseSeedFlag accepts the same forms the settings file does.
func parseSeedFlag(value string) (preset.Seed, error) {
	var seed preset.Seed
	quoted, err := json.Marshal(value)
	if err != nil {
		return seed, err
	}
	if err := seed.UnmarshalJSON(quoted); err != nil {
		return seed, err
	}
	return seed, nil
}

func newPresetDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a settings bundle",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			env, err := app.newEnv()
			if err != nil {
				return err
			}
			if err := env.store.DeleteSettings(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Deleted preset %s.\n", args[0])
			return nil
		},
	}
}
