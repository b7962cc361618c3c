package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"comfyctl/internal/batch"
	"comfyctl/internal/history"
)

var (
	flagForce bool
	flagFile  string
	flagLimit int
)

func newSendCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [key...]",
		Short: "Submit generated prompts to the generation server",
		Long: `Submit generated prompts to the generation server, one request at a
time. Each key is processed independently: a failed submission is reported
and the rest still go out. The server is probed first; an unreachable server
aborts the batch unless --force is given.

Keys come from the arguments, from a list file given with --file, or both.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			keys := args
			if flagFile != "" {
				fromFile, err := batch.ParseFile(flagFile)
				if err != nil {
					return err
				}
				keys = append(keys, fromFile...)
			}
			if len(keys) == 0 {
				return fmt.Errorf("no keys given (pass keys as arguments or use --file)")
			}

			return runSend(ctx, app, keys)
		},
	}

	cmd.Flags().BoolVar(&flagForce, "force", false, "submit even when the probe fails")
	cmd.Flags().StringVarP(&flagFile, "file", "f", "", "read keys from a .txt or .json list file")
	return cmd
}

func runSend(ctx context.Context, app *App, keys []string) error {
	env, err := app.newEnv()
	if err != nil {
		return err
	}

	settings, err := env.loadSettings()
	if err != nil {
		return err
	}

	gen, err := env.store.LoadGenerated()
	if err != nil {
		return err
	}

	if !flagForce && !env.client.Probe(ctx) {
		return fmt.Errorf("cannot reach %s (use --force to submit anyway)", env.client.BaseURL())
	}

	hist, err := app.NewHistory(flagDataDir)
	if err != nil {
		fmt.Fprintf(app.Err, "Warning: submission history unavailable: %v\n", err)
		hist = nil
	} else {
		defer hist.Close()
	}

	sent := 0
	for _, key := range keys {
		prompt, ok := gen.Get(key)
		if !ok {
			fmt.Fprintf(app.Err, "skipping %q: no such prompt\n", key)
			continue
		}

		sub := &history.Submission{
			PromptKey:  key,
			Preset:     settings.PresetName,
			Checkpoint: settings.Checkpoint,
		}

		result, err := env.client.Submit(ctx, settings, prompt)
		if err != nil {
			sub.Error = err.Error()
			logSubmission(app, ctx, hist, sub)
			fmt.Fprintf(app.Err, "%s: %v\n", key, err)
			continue
		}

		sub.Seed = result.Seed
		sub.StatusCode = result.StatusCode
		sub.OK = result.OK
		if !result.OK {
			sub.Error = result.Body
		}
		logSubmission(app, ctx, hist, sub)

		if result.OK {
			sent++
			fmt.Fprintf(app.Out, "%s: sent (seed %d)\n", key, result.Seed)
		} else {
			fmt.Fprintf(app.Err, "%s: server returned %d: %s\n", key, result.StatusCode, result.Body)
		}
	}

	fmt.Fprintf(app.Out, "Sent %d of %d.\n", sent, len(keys))
	return nil
}

func logSubmission(app *App, ctx context.Context, hist *history.Store, sub *history.Submission) {
	if hist == nil {
		return
	}
	if err := hist.Log(ctx, sub); err != nil {
		fmt.Fprintf(app.Err, "Warning: failed to log submission: %v\n", err)
	}
}

func newProbeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check connectivity to the generation server",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			env, err := app.newEnv()
			if err != nil {
				return err
			}
			if !env.client.Probe(ctx) {
				return fmt.Errorf("cannot reach %s", env.client.BaseURL())
			}
			fmt.Fprintf(app.Out, "Connected to %s\n", env.client.BaseURL())
			return nil
		},
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent submissions",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			hist, err := app.NewHistory(flagDataDir)
			if err != nil {
				return err
			}
			defer hist.Close()

			subs, err := hist.Recent(ctx, flagLimit)
			if err != nil {
				return err
			}

			for _, sub := range subs {
				status := "ok"
				if !sub.OK {
					status = "failed"
					if sub.Error != "" {
						status = "failed: " + sub.Error
					}
				}
				fmt.Fprintf(app.Out, "%s  %-30s preset=%s seed=%d  %s\n",
					sub.Timestamp.Format("2006-01-02 15:04:05"), sub.PromptKey,
					sub.Preset, sub.Seed, status)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&flagLimit, "limit", "n", 20, "number of entries to show")
	return cmd
}
