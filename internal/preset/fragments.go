package preset

// Category identifies one of the fixed prompt-fragment buckets.
type Category string

const (
	CategoryQuality   Category = "quality"
	CategoryStyle     Category = "style"
	CategoryCharacter Category = "character"
	CategoryPose      Category = "pose"
	CategoryExtra     Category = "extra"
)

// Categories lists every bucket in document order. All but extra are
// single-select; extra is multi-select.
var Categories = []Category{
	CategoryQuality,
	CategoryStyle,
	CategoryCharacter,
	CategoryPose,
	CategoryExtra,
}

// SingleCategories lists the single-select buckets.
var SingleCategories = []Category{
	CategoryQuality,
	CategoryStyle,
	CategoryCharacter,
	CategoryPose,
}

// ParseCategory returns the category for a user-supplied name.
func ParseCategory(name string) (Category, bool) {
	for _, cat := range Categories {
		if string(cat) == name {
			return cat, true
		}
	}
	return "", false
}

// Fragment is a named, reusable snippet of prompt text.
type Fragment struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FragmentSet maps each category to its fragments, in display order.
type FragmentSet map[Category][]Fragment

// NewFragmentSet returns a set with an empty slice for every category.
func NewFragmentSet() FragmentSet {
	set := make(FragmentSet, len(Categories))
	for _, cat := range Categories {
		set[cat] = []Fragment{}
	}
	return set
}

// Lookup resolves a fragment name within a category.
func (s FragmentSet) Lookup(cat Category, name string) (Fragment, bool) {
	for _, f := range s[cat] {
		if f.Name == name {
			return f, true
		}
	}
	return Fragment{}, false
}

// Names returns the fragment names of a category in display order.
func (s FragmentSet) Names(cat Category) []string {
	names := make([]string, 0, len(s[cat]))
	for _, f := range s[cat] {
		names = append(names, f.Name)
	}
	return names
}

// Add appends a fragment. It fails if the name is already taken within the
// category.
func (s FragmentSet) Add(cat Category, frag Fragment) error {
	if _, ok := s.Lookup(cat, frag.Name); ok {
		return &DuplicateNameError{Category: cat, Name: frag.Name}
	}
	s[cat] = append(s[cat], frag)
	return nil
}

// Edit replaces the fragment named name with frag, which may carry a new
// name. Renaming onto an existing name is rejected.
func (s FragmentSet) Edit(cat Category, name string, frag Fragment) error {
	if frag.Name != name {
		if _, ok := s.Lookup(cat, frag.Name); ok {
			return &DuplicateNameError{Category: cat, Name: frag.Name}
		}
	}
	for i, f := range s[cat] {
		if f.Name == name {
			s[cat][i] = frag
			return nil
		}
	}
	return &UnknownNameError{Category: cat, Name: name}
}

// Delete removes the named fragments and reports how many were removed.
func (s FragmentSet) Delete(cat Category, names ...string) int {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	kept := s[cat][:0]
	removed := 0
	for _, f := range s[cat] {
		if drop[f.Name] {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	s[cat] = kept
	return removed
}

// DuplicateNameError reports a fragment name collision within a category.
type DuplicateNameError struct {
	Category Category
	Name     string
}

func (e *DuplicateNameError) Error() string {
	return "fragment " + e.Name + " already exists in " + string(e.Category)
}

// UnknownNameError reports a fragment name that is not present in a category.
type UnknownNameError struct {
	Category Category
	Name     string
}

func (e *UnknownNameError) Error() string {
	return "no fragment " + e.Name + " in " + string(e.Category)
}
