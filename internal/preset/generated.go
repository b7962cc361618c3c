package preset

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Generated is the key-to-prompt-text mapping of composed prompts. Key order
// is preserved across save and load so listings stay stable; regenerating an
// existing key overwrites its text in place.
type Generated struct {
	keys    []string
	prompts map[string]string
}

// NewGenerated returns an empty mapping.
func NewGenerated() *Generated {
	return &Generated{prompts: make(map[string]string)}
}

// Len returns the number of entries.
func (g *Generated) Len() int {
	return len(g.keys)
}

// Keys returns the keys in insertion order.
func (g *Generated) Keys() []string {
	out := make([]string, len(g.keys))
	copy(out, g.keys)
	return out
}

// Get returns the prompt text for a key.
func (g *Generated) Get(key string) (string, bool) {
	text, ok := g.prompts[key]
	return text, ok
}

// Set stores a prompt under its key, overwriting any prior entry.
func (g *Generated) Set(key, prompt string) {
	if _, ok := g.prompts[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.prompts[key] = prompt
}

// Delete removes an entry and reports whether it existed.
func (g *Generated) Delete(key string) bool {
	if _, ok := g.prompts[key]; !ok {
		return false
	}
	delete(g.prompts, key)
	for i, k := range g.keys {
		if k == key {
			g.keys = append(g.keys[:i], g.keys[i+1:]...)
			break
		}
	}
	return true
}

// MarshalJSON writes the mapping as a JSON object in insertion order.
func (g *Generated) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range g.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(g.prompts[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, recording keys in document order.
func (g *Generated) UnmarshalJSON(data []byte) error {
	g.keys = nil
	g.prompts = make(map[string]string)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected string key, got %v", keyTok)
		}

		var prompt string
		if err := dec.Decode(&prompt); err != nil {
			return err
		}
		g.Set(key, prompt)
	}

	_, err = dec.Token() // closing brace
	return err
}
