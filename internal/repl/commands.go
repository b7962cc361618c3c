package repl

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"comfyctl/internal/compose"
	"comfyctl/internal/history"
	"comfyctl/internal/preset"
)

type Command interface {
	Name() string
	Aliases() []string
	Description() string
	Usage() string
	Execute(ctx context.Context, r *REPL, args []string) error
}

func (r *REPL) registerCommands() {
	commands := []Command{
		&SelectCommand{},
		&ClearCommand{},
		&SelectionsCommand{},
		&GenerateCommand{},
		&ListCommand{},
		&ShowCommand{},
		&DeleteCommand{},
		&SendCommand{},
		&ProbeCommand{},
		&PresetCommand{},
		&FragCommand{},
		&HelpCommand{},
		&QuitCommand{},
	}

	for _, cmd := range commands {
		r.commands[cmd.Name()] = cmd
		for _, alias := range cmd.Aliases() {
			r.commands[alias] = cmd
		}
	}
}

// SelectCommand picks fragments for a category.
type SelectCommand struct{}

func (c *SelectCommand) Name() string        { return "select" }
func (c *SelectCommand) Aliases() []string   { return []string{"sel"} }
func (c *SelectCommand) Description() string { return "Select a fragment for a category" }
func (c *SelectCommand) Usage() string       { return "select <category> <name> [name...]" }

func (c *SelectCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	cat, ok := preset.ParseCategory(args[0])
	if !ok {
		return errInvalidCategory(args[0])
	}

	if cat == preset.CategoryExtra {
		r.selection.Extra = append([]string(nil), args[1:]...)
		fmt.Fprintf(r.out, "extra: %s\n", strings.Join(r.selection.Extra, ", "))
		return nil
	}

	if len(args) != 2 {
		return fmt.Errorf("category %s takes exactly one selection", cat)
	}
	r.selection.Single[cat] = args[1]
	fmt.Fprintf(r.out, "%s: %s\n", cat, args[1])
	return nil
}

// ClearCommand clears one category's selection, or all of them.
type ClearCommand struct{}

func (c *ClearCommand) Name() string        { return "clear" }
func (c *ClearCommand) Aliases() []string   { return nil }
func (c *ClearCommand) Description() string { return "Clear selections" }
func (c *ClearCommand) Usage() string       { return "clear [category]" }

func (c *ClearCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		r.selection = compose.NewSelection()
		fmt.Fprintln(r.out, "All selections cleared.")
		return nil
	}

	cat, ok := preset.ParseCategory(args[0])
	if !ok {
		return errInvalidCategory(args[0])
	}
	if cat == preset.CategoryExtra {
		r.selection.Extra = nil
	} else {
		delete(r.selection.Single, cat)
	}
	fmt.Fprintf(r.out, "%s cleared.\n", cat)
	return nil
}

// SelectionsCommand shows the current selections.
type SelectionsCommand struct{}

func (c *SelectionsCommand) Name() string        { return "selections" }
func (c *SelectionsCommand) Aliases() []string   { return []string{"st", "status"} }
func (c *SelectionsCommand) Description() string { return "Show current selections" }
func (c *SelectionsCommand) Usage() string       { return "selections" }

func (c *SelectionsCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	for _, cat := range preset.SingleCategories {
		name := r.selection.Single[cat]
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(r.out, "%-10s %s\n", cat+":", name)
	}
	extra := "(none)"
	if len(r.selection.Extra) > 0 {
		extra = strings.Join(r.selection.Extra, ", ")
	}
	fmt.Fprintf(r.out, "%-10s %s\n", "extra:", extra)
	return nil
}

// GenerateCommand composes the current selections into a generated prompt and
// persists it.
type GenerateCommand struct{}

func (c *GenerateCommand) Name() string        { return "generate" }
func (c *GenerateCommand) Aliases() []string   { return []string{"gen", "g"} }
func (c *GenerateCommand) Description() string { return "Compose and store a prompt from the current selections" }
func (c *GenerateCommand) Usage() string       { return "generate" }

func (c *GenerateCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	key, prompt, err := compose.Compose(r.fragments, r.selection)
	if err != nil {
		return err
	}

	r.generated.Set(key, prompt)
	if err := r.saveGenerated(); err != nil {
		return fmt.Errorf("failed to save generated prompts: %w", err)
	}

	fmt.Fprintf(r.out, "Generated: %s\n", key)
	fmt.Fprintf(r.out, "  %s\n", prompt)
	return nil
}

// ListCommand lists the stored generated prompts.
type ListCommand struct{}

func (c *ListCommand) Name() string        { return "list" }
func (c *ListCommand) Aliases() []string   { return []string{"ls"} }
func (c *ListCommand) Description() string { return "List generated prompt keys" }
func (c *ListCommand) Usage() string       { return "list" }

func (c *ListCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	keys := r.generated.Keys()
	if len(keys) == 0 {
		fmt.Fprintln(r.out, "No generated prompts.")
		return nil
	}
	for _, key := range keys {
		fmt.Fprintln(r.out, key)
	}
	return nil
}

// ShowCommand prints the prompt text behind a key.
type ShowCommand struct{}

func (c *ShowCommand) Name() string        { return "show" }
func (c *ShowCommand) Aliases() []string   { return nil }
func (c *ShowCommand) Description() string { return "Show the prompt text for a key" }
func (c *ShowCommand) Usage() string       { return "show <key>" }

func (c *ShowCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", c.Usage())
	}
	prompt, ok := r.generated.Get(args[0])
	if !ok {
		return fmt.Errorf("no generated prompt %q", args[0])
	}
	fmt.Fprintln(r.out, prompt)
	return nil
}

// DeleteCommand removes generated prompts, tolerating unknown keys.
type DeleteCommand struct{}

func (c *DeleteCommand) Name() string        { return "delete" }
func (c *DeleteCommand) Aliases() []string   { return []string{"del", "rm"} }
func (c *DeleteCommand) Description() string { return "Delete generated prompts" }
func (c *DeleteCommand) Usage() string       { return "delete <key> [key...]" }

func (c *DeleteCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	removed := 0
	for _, key := range args {
		if r.generated.Delete(key) {
			removed++
		} else {
			fmt.Fprintf(r.err, "no generated prompt %q\n", key)
		}
	}
	if removed > 0 {
		if err := r.saveGenerated(); err != nil {
			return fmt.Errorf("failed to save generated prompts: %w", err)
		}
	}
	fmt.Fprintf(r.out, "Deleted %d of %d.\n", removed, len(args))
	return nil
}

// SendCommand submits generated prompts, one at a time, each independently.
type SendCommand struct{}

func (c *SendCommand) Name() string        { return "send" }
func (c *SendCommand) Aliases() []string   { return nil }
func (c *SendCommand) Description() string { return "Submit generated prompts to the server" }
func (c *SendCommand) Usage() string       { return "send <key> [key...]" }

func (c *SendCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	sent := 0
	for _, key := range args {
		prompt, ok := r.generated.Get(key)
		if !ok {
			fmt.Fprintf(r.err, "skipping %q: no such prompt\n", key)
			continue
		}

		sub := &history.Submission{
			PromptKey:  key,
			Preset:     r.settings.PresetName,
			Checkpoint: r.settings.Checkpoint,
		}

		result, err := r.client.Submit(ctx, r.settings, prompt)
		if err != nil {
			sub.Error = err.Error()
			r.logSubmission(ctx, sub)
			fmt.Fprintf(r.err, "%s: %v\n", key, err)
			continue
		}

		sub.Seed = result.Seed
		sub.StatusCode = result.StatusCode
		sub.OK = result.OK
		if !result.OK {
			sub.Error = result.Body
		}
		r.logSubmission(ctx, sub)

		if result.OK {
			sent++
			fmt.Fprintf(r.out, "%s: sent (seed %d)\n", key, result.Seed)
		} else {
			fmt.Fprintf(r.err, "%s: server returned %d: %s\n", key, result.StatusCode, result.Body)
		}
	}

	fmt.Fprintf(r.out, "Sent %d of %d.\n", sent, len(args))
	return nil
}

// ProbeCommand checks server connectivity.
type ProbeCommand struct{}

func (c *ProbeCommand) Name() string        { return "probe" }
func (c *ProbeCommand) Aliases() []string   { return []string{"ping"} }
func (c *ProbeCommand) Description() string { return "Check connectivity to the generation server" }
func (c *ProbeCommand) Usage() string       { return "probe" }

func (c *ProbeCommand) Execute(ctx context.Context, r *REPL, _ []string) error {
	if r.client.Probe(ctx) {
		fmt.Fprintf(r.out, "Connected to %s\n", r.client.BaseURL())
	} else {
		fmt.Fprintf(r.out, "Cannot reach %s\n", r.client.BaseURL())
	}
	return nil
}

// PresetCommand manages the active settings bundle.
type PresetCommand struct{}

func (c *PresetCommand) Name() string        { return "preset" }
func (c *PresetCommand) Aliases() []string   { return []string{"p"} }
func (c *PresetCommand) Description() string { return "List, load, save or show settings bundles" }
func (c *PresetCommand) Usage() string       { return "preset [list|use <name>|save|show]" }

func (c *PresetCommand) Execute(_ context.Context, r *REPL, args []string) error {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "list":
		names, err := r.store.ListSettings()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(r.out, "No settings bundles.")
			return nil
		}
		for _, name := range names {
			marker := " "
			if name == r.settings.PresetName {
				marker = "*"
			}
			fmt.Fprintf(r.out, "%s %s\n", marker, name)
		}
		return nil

	case "use":
		if len(args) != 2 {
			return fmt.Errorf("usage: preset use <name>")
		}
		settings, err := r.store.LoadSettings(args[1])
		if err != nil {
			return err
		}
		r.settings = settings
		fmt.Fprintf(r.out, "Using preset %s.\n", settings.PresetName)
		return nil

	case "save":
		if err := r.store.SaveSettings(r.settings); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "Saved preset %s.\n", r.settings.PresetName)
		return nil

	case "show":
		s := r.settings
		fmt.Fprintf(r.out, "preset:     %s\n", s.PresetName)
		fmt.Fprintf(r.out, "checkpoint: %s\n", s.Checkpoint)
		fmt.Fprintf(r.out, "lora:       %s\n", s.Lora)
		fmt.Fprintf(r.out, "size:       %dx%d\n", s.Width, s.Height)
		fmt.Fprintf(r.out, "batch:      %d\n", s.BatchSize)
		fmt.Fprintf(r.out, "seed:       %s\n", s.Seed)
		fmt.Fprintf(r.out, "steps:      %d\n", s.Steps)
		fmt.Fprintf(r.out, "cfg:        %g\n", s.CFG)
		return nil

	default:
		return fmt.Errorf("usage: %s", c.Usage())
	}
}

// FragCommand manages prompt fragments.
type FragCommand struct{}

func (c *FragCommand) Name() string        { return "frag" }
func (c *FragCommand) Aliases() []string   { return []string{"fragments"} }
func (c *FragCommand) Description() string { return "List, add, edit or remove prompt fragments" }
func (c *FragCommand) Usage() string {
	return "frag [list [category]|add <cat> <name> <value>|edit <cat> <name> <value>|rm <cat> <name...>]"
}

func (c *FragCommand) Execute(_ context.Context, r *REPL, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
		args = args[1:]
	}

	switch sub {
	case "list":
		cats := preset.Categories
		if len(args) == 1 {
			cat, ok := preset.ParseCategory(args[0])
			if !ok {
				return errInvalidCategory(args[0])
			}
			cats = []preset.Category{cat}
		}
		for _, cat := range cats {
			fmt.Fprintf(r.out, "%s:\n", cat)
			for _, f := range r.fragments[cat] {
				fmt.Fprintf(r.out, "  %-20s %s\n", f.Name, f.Value)
			}
		}
		return nil

	case "add", "edit":
		if len(args) != 3 {
			return fmt.Errorf("usage: frag %s <category> <name> <value>", sub)
		}
		cat, ok := preset.ParseCategory(args[0])
		if !ok {
			return errInvalidCategory(args[0])
		}
		name, value := args[1], args[2]
		if name == "" || value == "" {
			return fmt.Errorf("name and value must not be empty")
		}

		var err error
		if sub == "add" {
			err = r.fragments.Add(cat, preset.Fragment{Name: name, Value: value})
		} else {
			err = r.fragments.Edit(cat, name, preset.Fragment{Name: name, Value: value})
		}
		if err != nil {
			return err
		}
		if err := r.saveFragments(); err != nil {
			return fmt.Errorf("failed to save fragments: %w", err)
		}
		fmt.Fprintf(r.out, "Saved %s/%s.\n", cat, name)
		return nil

	case "rm", "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: frag rm <category> <name> [name...]")
		}
		cat, ok := preset.ParseCategory(args[0])
		if !ok {
			return errInvalidCategory(args[0])
		}
		removed := r.fragments.Delete(cat, args[1:]...)
		if removed > 0 {
			if err := r.saveFragments(); err != nil {
				return fmt.Errorf("failed to save fragments: %w", err)
			}
		}
		fmt.Fprintf(r.out, "Removed %d of %d.\n", removed, len(args)-1)
		return nil

	default:
		return fmt.Errorf("usage: %s", c.Usage())
	}
}

// HelpCommand lists commands.
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Aliases() []string   { return []string{"h", "?"} }
func (c *HelpCommand) Description() string { return "Show available commands" }
func (c *HelpCommand) Usage() string       { return "help" }

func (c *HelpCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	seen := make(map[string]bool)
	var names []string
	for _, cmd := range r.commands {
		if seen[cmd.Name()] {
			continue
		}
		seen[cmd.Name()] = true
		names = append(names, cmd.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := r.commands[name]
		fmt.Fprintf(r.out, "%-12s %s\n", cmd.Name(), cmd.Description())
		fmt.Fprintf(r.out, "%-12s usage: %s\n", "", cmd.Usage())
	}
	return nil
}

// QuitCommand ends the loop.
type QuitCommand struct{}

func (c *QuitCommand) Name() string        { return "quit" }
func (c *QuitCommand) Aliases() []string   { return []string{"exit", "q"} }
func (c *QuitCommand) Description() string { return "Exit interactive mode" }
func (c *QuitCommand) Usage() string       { return "quit" }

func (c *QuitCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	r.Stop()
	return nil
}
