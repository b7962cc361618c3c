// Package compose turns category selections into a generated-prompt entry:
// a human-scannable key and the prompt text itself.
package compose

import (
	"errors"
	"strings"

	"comfyctl/internal/preset"
)

var ErrInvalidSelection = errors.New("no fragment selected in any category")

// ValueOrder is the category order used for the prompt text, quality-first so
// the result reads as a natural-language prompt.
var ValueOrder = []preset.Category{
	preset.CategoryQuality,
	preset.CategoryStyle,
	preset.CategoryCharacter,
	preset.CategoryPose,
	preset.CategoryExtra,
}

// KeyOrder is the category order used for the key, character-first so keys
// scan by subject. The two orders are independent on purpose.
var KeyOrder = []preset.Category{
	preset.CategoryCharacter,
	preset.CategoryPose,
	preset.CategoryStyle,
	preset.CategoryExtra,
	preset.CategoryQuality,
}

// Selection holds the fragment names currently chosen per category: one name
// per single-select category (empty means none) and an ordered list for the
// multi-select extra category.
type Selection struct {
	Single map[preset.Category]string
	Extra  []string
}

// NewSelection returns an empty selection.
func NewSelection() Selection {
	return Selection{Single: make(map[preset.Category]string)}
}

// IsEmpty reports whether nothing is selected.
func (sel Selection) IsEmpty() bool {
	for _, name := range sel.Single {
		if name != "" {
			return false
		}
	}
	return len(sel.Extra) == 0
}

// Compose resolves the selection against the fragment set and returns the
// (key, promptText) pair. A selected name that is no longer present in the
// set contributes no value but still appears in the key; the stale selection
// is the UI's problem, not a composition error. Composing with nothing
// selected fails with ErrInvalidSelection.
func Compose(frags preset.FragmentSet, sel Selection) (key, prompt string, err error) {
	var valueParts []string
	for _, cat := range ValueOrder {
		if cat == preset.CategoryExtra {
			for _, name := range sel.Extra {
				appendValue(&valueParts, frags, cat, name)
			}
			continue
		}
		if name := sel.Single[cat]; name != "" {
			appendValue(&valueParts, frags, cat, name)
		}
	}
	prompt = strings.Join(valueParts, ", ")

	var keyParts []string
	for _, cat := range KeyOrder {
		if cat == preset.CategoryExtra {
			if len(sel.Extra) > 0 {
				keyParts = append(keyParts, strings.Join(sel.Extra, "_"))
			}
			continue
		}
		if name := sel.Single[cat]; name != "" {
			keyParts = append(keyParts, name)
		}
	}
	key = strings.Join(keyParts, "-")

	if key == "" {
		return "", "", ErrInvalidSelection
	}
	return key, prompt, nil
}

// appendValue resolves one selected name to its fragment value, strips stray
// comma separators, and appends it unless the result is empty.
func appendValue(parts *[]string, frags preset.FragmentSet, cat preset.Category, name string) {
	frag, ok := frags.Lookup(cat, name)
	if !ok {
		return
	}
	value := strings.Trim(frag.Value, ",")
	if value == "" {
		return
	}
	*parts = append(*parts, value)
}
