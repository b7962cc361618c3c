package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"comfyctl/internal/config"
	"comfyctl/internal/history"
	"comfyctl/internal/preset"
	"comfyctl/internal/security"
	"comfyctl/internal/workflow"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagDataDir string
	flagServer  string
	flagPreset  string
)

// App carries the injectable dependencies so commands can be exercised in
// tests without touching the real environment.
type App struct {
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
	GetEnv     func(string) string
	NewHistory func(root string) (*history.Store, error)
}

func DefaultApp() *App {
	return &App{
		In:         os.Stdin,
		Out:        os.Stdout,
		Err:        os.Stderr,
		GetEnv:     os.Getenv,
		NewHistory: history.NewStore,
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := DefaultApp()
	rootCmd := newRootCmd(app)
	return rootCmd.Execute()
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comfyctl",
		Short: "Manage prompt presets and submit workflows to a ComfyUI server",
		Long: `comfyctl curates reusable prompt fragments, composes them into full
image-generation prompts, manages named generation-settings presets, and
submits instantiated workflow templates to a locally running ComfyUI-style
server.

Examples:
  comfyctl frag add quality q1 "masterpiece, best quality"
  comfyctl generate --quality q1 --style anime
  comfyctl send anime-q1
  comfyctl repl`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", ".", "directory holding prompts, presets and workflows")
	cmd.PersistentFlags().StringVar(&flagServer, "server", "", "generation server URL (overrides config)")
	cmd.PersistentFlags().StringVarP(&flagPreset, "preset", "p", "", "settings bundle to use (overrides config)")

	cmd.AddCommand(
		newFragmentCmd(app),
		newGenerateCmd(app),
		newPromptsCmd(app),
		newPresetCmd(app),
		newSendCmd(app),
		newProbeCmd(app),
		newHistoryCmd(app),
		newREPLCmd(app),
	)

	return cmd
}

// signalContext returns a context cancelled by SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// env assembles the per-invocation dependencies from the global flags.
type env struct {
	cfg    *config.Config
	store  *preset.Store
	client *workflow.Client
}

func (a *App) newEnv() (*env, error) {
	cfg, err := config.Load(flagDataDir)
	if err != nil {
		return nil, err
	}

	serverURL := cfg.ServerURL
	if flagServer != "" {
		serverURL = flagServer
	}
	if err := security.ValidateServerURL(serverURL); err != nil {
		return nil, err
	}

	return &env{
		cfg:   cfg,
		store: preset.NewStore(flagDataDir),
		client: workflow.New(&workflow.Config{
			BaseURL:     serverURL,
			TimeoutSec:  cfg.TimeoutSec,
			TemplateDir: filepath.Join(flagDataDir, "workflows"),
		}),
	}, nil
}

// loadSettings resolves the active settings bundle: the --preset flag wins,
// then the configured default. A missing default bundle falls back to the
// built-in defaults rather than failing.
func (e *env) loadSettings() (*preset.GenerationSettings, error) {
	name := e.cfg.DefaultPreset
	explicit := flagPreset != ""
	if explicit {
		name = flagPreset
	}

	settings, err := e.store.LoadSettings(name)
	if err != nil {
		if !explicit && name == config.Default().DefaultPreset {
			return preset.DefaultSettings(), nil
		}
		return nil, err
	}
	return settings, nil
}
