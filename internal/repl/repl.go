// Package repl implements the interactive mode: the stateful selection,
// generation and submission loop that stands in for the original tool's
// window.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"comfyctl/internal/compose"
	"comfyctl/internal/history"
	"comfyctl/internal/preset"
	"comfyctl/internal/workflow"
)

type REPL struct {
	in  io.Reader
	out io.Writer
	err io.Writer

	store   *preset.Store
	client  *workflow.Client
	history *history.Store

	fragments preset.FragmentSet
	generated *preset.Generated
	settings  *preset.GenerationSettings
	selection compose.Selection

	commands map[string]Command
	running  bool
}

type Config struct {
	In      io.Reader
	Out     io.Writer
	Err     io.Writer
	Store   *preset.Store
	Client  *workflow.Client
	History *history.Store // optional
	// Settings is the bundle used for submissions until 'preset use' picks
	// another one.
	Settings *preset.GenerationSettings
}

// New builds a REPL, loading both preset documents. Malformed documents are
// reported and replaced by empty collections; the loop still starts.
func New(cfg *Config) *REPL {
	r := &REPL{
		in:        cfg.In,
		out:       cfg.Out,
		err:       cfg.Err,
		store:     cfg.Store,
		client:    cfg.Client,
		history:   cfg.History,
		settings:  cfg.Settings,
		selection: compose.NewSelection(),
		commands:  make(map[string]Command),
	}
	if r.settings == nil {
		r.settings = preset.DefaultSettings()
	}

	var err error
	r.fragments, err = r.store.LoadFragments()
	if err != nil {
		fmt.Fprintf(r.err, "Warning: %v (starting with empty fragments)\n", err)
	}
	r.generated, err = r.store.LoadGenerated()
	if err != nil {
		fmt.Fprintf(r.err, "Warning: %v (starting with empty prompt list)\n", err)
	}

	r.registerCommands()
	return r
}

func (r *REPL) Run(ctx context.Context) error {
	r.running = true
	r.printWelcome()

	scanner := bufio.NewScanner(r.in)
	for r.running {
		r.printPrompt()
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := r.execute(ctx, line); err != nil {
			fmt.Fprintf(r.err, "Error: %v\n", err)
		}
	}

	return scanner.Err()
}

func (r *REPL) execute(ctx context.Context, line string) error {
	parts := parseCommand(line)
	if len(parts) == 0 {
		return nil
	}

	cmdName := strings.ToLower(parts[0])
	args := parts[1:]

	cmd, ok := r.commands[cmdName]
	if !ok {
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmdName)
	}

	return cmd.Execute(ctx, r, args)
}

func (r *REPL) Stop() {
	r.running = false
}

func (r *REPL) printWelcome() {
	fmt.Fprintln(r.out, "comfyctl interactive mode")
	fmt.Fprintln(r.out, "Type 'help' for available commands, 'quit' to exit.")
	fmt.Fprintln(r.out)
}

func (r *REPL) printPrompt() {
	fmt.Fprintf(r.out, "comfyctl [%s]> ", r.settings.PresetName)
}

// saveGenerated persists the in-memory generated map after a mutation.
func (r *REPL) saveGenerated() error {
	return r.store.SaveGenerated(r.generated)
}

// saveFragments persists the in-memory fragment set after a mutation.
func (r *REPL) saveFragments() error {
	return r.store.SaveFragments(r.fragments)
}

// logSubmission records a submit attempt when a history store is attached.
func (r *REPL) logSubmission(ctx context.Context, sub *history.Submission) {
	if r.history == nil {
		return
	}
	if err := r.history.Log(ctx, sub); err != nil {
		fmt.Fprintf(r.err, "Warning: failed to log submission: %v\n", err)
	}
}

// errInvalidCategory wraps user input that names no known category.
func errInvalidCategory(name string) error {
	return errors.New("unknown category: " + name)
}

func parseCommand(line string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, ch := range line {
		switch {
		case ch == '"' || ch == '\'':
			if inQuotes && ch == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else if !inQuotes {
				inQuotes = true
				quoteChar = ch
			} else {
				current.WriteRune(ch)
			}
		case ch == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
