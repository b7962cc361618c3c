package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"comfyctl/internal/preset"
)

func newFragmentCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "frag",
		Aliases: []string{"fragment"},
		Short:   "Manage prompt fragments",
	}

	cmd.AddCommand(
		newFragmentListCmd(app),
		newFragmentAddCmd(app),
		newFragmentEditCmd(app),
		newFragmentDeleteCmd(app),
	)
	return cmd
}

// loadFragments reads the fragment document, surfacing a parse failure as a
// warning and continuing with empty collections.
func loadFragments(app *App, store *preset.Store) preset.FragmentSet {
	frags, err := store.LoadFragments()
	if err != nil {
		fmt.Fprintf(app.Err, "Warning: %v (continuing with empty fragments)\n", err)
	}
	return frags
}

func newFragmentListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list [category]",
		Short: "List fragments, optionally limited to one category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			env, err := app.newEnv()
			if err != nil {
				return err
			}

			cats := preset.Categories
			if len(args) == 1 {
				cat, ok := preset.ParseCategory(args[0])
				if !ok {
					return fmt.Errorf("unknown category: %s", args[0])
				}
				cats = []preset.Category{cat}
			}

			frags := loadFragments(app, env.store)
			for _, cat := range cats {
				fmt.Fprintf(app.Out, "%s:\n", cat)
				for _, f := range frags[cat] {
					fmt.Fprintf(app.Out, "  %-20s %s\n", f.Name, f.Value)
				}
			}
			return nil
		},
	}
}

func newFragmentAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <category> <name> <value>",
		Short: "Add a fragment",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return upsertFragment(app, args[0], args[1], args[2], false)
		},
	}
}

func newFragmentEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <category> <name> <value>",
		Short: "Replace a fragment's value",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return upsertFragment(app, args[0], args[1], args[2], true)
		},
	}
}

func upsertFragment(app *App, category, name, value string, edit bool) error {
	cat, ok := preset.ParseCategory(category)
	if !ok {
		return fmt.Errorf("unknown category: %s", category)
	}
	if name == "" || value == "" {
		return fmt.Errorf("name and value must not be empty")
	}

	env, err := app.newEnv()
	if err != nil {
		return err
	}

	frags := loadFragments(app, env.store)
	frag := preset.Fragment{Name: name, Value: value}
	if edit {
		err = frags.Edit(cat, name, frag)
	} else {
		err = frags.Add(cat, frag)
	}
	if err != nil {
		return err
	}

	if err := env.store.SaveFragments(frags); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Saved %s/%s.\n", cat, name)
	return nil
}

func newFragmentDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <category> <name> [name...]",
		Aliases: []string{"rm"},
		Short:   "Delete fragments",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			cat, ok := preset.ParseCategory(args[0])
			if !ok {
				return fmt.Errorf("unknown category: %s", args[0])
			}

			env, err := app.newEnv()
			if err != nil {
				return err
			}

			frags := loadFragments(app, env.store)
			removed := frags.Delete(cat, args[1:]...)
			if removed > 0 {
				if err := env.store.SaveFragments(frags); err != nil {
					return err
				}
			}
			fmt.Fprintf(app.Out, "Removed %d of %d.\n", removed, len(args)-1)
			return nil
		},
	}
}
