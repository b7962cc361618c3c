package workflow

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed templates/base.json templates/base-lora.json
var embeddedTemplates embed.FS

const (
	baseTemplateFile = "base.json"
	loraTemplateFile = "base-lora.json"
)

// Templates resolves workflow template documents. Files in the configured
// directory take precedence so users can supply their own graphs; the
// embedded defaults cover everything else.
type Templates struct {
	dir string
}

// NewTemplates creates a resolver. An empty dir means embedded-only.
func NewTemplates(dir string) *Templates {
	return &Templates{dir: dir}
}

// Load returns the template text for the requested variant.
func (t *Templates) Load(withLora bool) (string, error) {
	name := baseTemplateFile
	if withLora {
		name = loraTemplateFile
	}

	if t.dir != "" {
		data, err := os.ReadFile(filepath.Join(t.dir, name))
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to read template %s: %w", name, err)
		}
	}

	data, err := embeddedTemplates.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("missing embedded template %s: %w", name, err)
	}
	return string(data), nil
}
