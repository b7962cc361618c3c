package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"comfyctl/internal/security"
)

var (
	ErrNotFound = errors.New("preset not found")
	ErrParse    = errors.New("failed to parse preset file")
)

const (
	fragmentsFile = "prompt_presets.json"
	generatedFile = "generated_prompts.json"
	promptsDir    = "prompts"
	settingsDir   = "comfyui_presets"
)

// Store handles all preset persistence: the prompt-fragment document, the
// generated-prompt document, and one settings bundle file per preset name.
// Every write is a full-document replace.
type Store struct {
	root string
}

// NewStore creates a store rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// FragmentsPath returns the path to the prompt-fragment document.
func (s *Store) FragmentsPath() string {
	return filepath.Join(s.root, promptsDir, fragmentsFile)
}

// GeneratedPath returns the path to the generated-prompt document.
func (s *Store) GeneratedPath() string {
	return filepath.Join(s.root, promptsDir, generatedFile)
}

// SettingsDir returns the directory holding settings bundle files.
func (s *Store) SettingsDir() string {
	return filepath.Join(s.root, settingsDir)
}

func (s *Store) settingsPath(name string) string {
	return filepath.Join(s.SettingsDir(), name+".json")
}

// LoadFragments reads the fragment document. A missing file yields empty
// collections for every category. A malformed file also yields empty
// collections, but additionally returns a ParseError so the caller can
// surface it; the tool keeps working either way.
func (s *Store) LoadFragments() (FragmentSet, error) {
	set := NewFragmentSet()

	data, err := os.ReadFile(s.FragmentsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return set, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return set, fmt.Errorf("%w: %v", ErrParse, err)
	}

	for _, cat := range Categories {
		val, ok := raw[string(cat)]
		if !ok {
			continue
		}
		frags, err := decodeFragments(val)
		if err != nil {
			return NewFragmentSet(), fmt.Errorf("%w: category %s: %v", ErrParse, cat, err)
		}
		set[cat] = frags
	}

	return set, nil
}

// decodeFragments accepts both the current {name, value} object list and the
// legacy plain string list, which is upgraded to name == value pairs. The
// upgrade happens on every load; the file itself is left untouched until the
// next explicit save.
func decodeFragments(data []byte) ([]Fragment, error) {
	var frags []Fragment
	if err := json.Unmarshal(data, &frags); err == nil {
		return frags, nil
	}

	var legacy []string
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}

	frags = make([]Fragment, 0, len(legacy))
	for _, v := range legacy {
		frags = append(frags, Fragment{Name: v, Value: v})
	}
	return frags, nil
}

// SaveFragments overwrites the fragment document. Categories are written in
// their fixed order so the file is reproducible.
func (s *Store) SaveFragments(set FragmentSet) error {
	doc := fragmentsDoc{
		Quality:   emptyNotNil(set[CategoryQuality]),
		Style:     emptyNotNil(set[CategoryStyle]),
		Character: emptyNotNil(set[CategoryCharacter]),
		Pose:      emptyNotNil(set[CategoryPose]),
		Extra:     emptyNotNil(set[CategoryExtra]),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return s.writeFile(s.FragmentsPath(), data)
}

type fragmentsDoc struct {
	Quality   []Fragment `json:"quality"`
	Style     []Fragment `json:"style"`
	Character []Fragment `json:"character"`
	Pose      []Fragment `json:"pose"`
	Extra     []Fragment `json:"extra"`
}

func emptyNotNil(frags []Fragment) []Fragment {
	if frags == nil {
		return []Fragment{}
	}
	return frags
}

// LoadGenerated reads the generated-prompt document. A missing file yields an
// empty mapping.
func (s *Store) LoadGenerated() (*Generated, error) {
	data, err := os.ReadFile(s.GeneratedPath())
	if err != nil {
		if os.IsNotExist(err) {
			return NewGenerated(), nil
		}
		return NewGenerated(), fmt.Errorf("%w: %v", ErrParse, err)
	}

	gen := NewGenerated()
	if err := json.Unmarshal(data, gen); err != nil {
		return NewGenerated(), fmt.Errorf("%w: %v", ErrParse, err)
	}
	return gen, nil
}

// SaveGenerated overwrites the generated-prompt document.
func (s *Store) SaveGenerated(gen *Generated) error {
	data, err := json.MarshalIndent(gen, "", "  ")
	if err != nil {
		return err
	}
	return s.writeFile(s.GeneratedPath(), data)
}

// ListSettings enumerates settings bundle names, sorted. A missing settings
// directory yields an empty list; nothing is created.
func (s *Store) ListSettings() ([]string, error) {
	entries, err := os.ReadDir(s.SettingsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// LoadSettings reads the bundle for the given preset name. Missing keys in
// the file keep their defaults; unknown keys are ignored.
func (s *Store) LoadSettings(name string) (*GenerationSettings, error) {
	if err := security.ValidatePresetName(name); err != nil {
		return nil, fmt.Errorf("invalid preset name %q: %w", name, err)
	}

	data, err := os.ReadFile(s.settingsPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, name, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, name, err)
	}
	return settings, nil
}

// SaveSettings writes the bundle file, overwriting any existing bundle with
// the same preset name.
func (s *Store) SaveSettings(settings *GenerationSettings) error {
	if err := security.ValidatePresetName(settings.PresetName); err != nil {
		return fmt.Errorf("invalid preset name %q: %w", settings.PresetName, err)
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return s.writeFile(s.settingsPath(settings.PresetName), data)
}

// DeleteSettings removes the bundle file. Deleting a bundle that does not
// exist is not an error.
func (s *Store) DeleteSettings(name string) error {
	if err := security.ValidatePresetName(name); err != nil {
		return fmt.Errorf("invalid preset name %q: %w", name, err)
	}

	err := os.Remove(s.settingsPath(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
