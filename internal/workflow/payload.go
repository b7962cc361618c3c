package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"comfyctl/internal/preset"
)

var ErrTemplate = errors.New("substituted template is not valid JSON")

// maxRandomSeed is the exclusive upper bound for resolved random seeds.
const maxRandomSeed = 1<<31 - 1

// Payload is a fully instantiated job graph ready for submission, along with
// the seed that was actually substituted. The seed is reported so a random
// draw can still be logged.
type Payload struct {
	Graph json.RawMessage
	Seed  int64
}

// BuildPayload instantiates the template text with the settings bundle and
// prompt. Every placeholder is replaced in all of its occurrences; the LoRA
// token is substituted unconditionally even though the base template does not
// carry it, so either variant accepts either bundle. The result must parse as
// JSON or the build fails with ErrTemplate.
func BuildPayload(tmpl string, settings *preset.GenerationSettings, prompt string) (*Payload, error) {
	seed := resolveSeed(settings.Seed)

	doc := tmpl
	doc = strings.ReplaceAll(doc, "%CHECKPOINT%", settings.Checkpoint)
	doc = strings.ReplaceAll(doc, "%LORA%", settings.Lora)
	doc = strings.ReplaceAll(doc, "%PROMPT%", escapePrompt(prompt))
	doc = strings.ReplaceAll(doc, "%WIDTH%", strconv.Itoa(settings.Width))
	doc = strings.ReplaceAll(doc, "%HEIGHT%", strconv.Itoa(settings.Height))
	doc = strings.ReplaceAll(doc, "%BATCH_SIZE%", strconv.Itoa(settings.BatchSize))
	doc = strings.ReplaceAll(doc, "%SEED%", strconv.FormatInt(seed, 10))
	doc = strings.ReplaceAll(doc, "%STEPS%", strconv.Itoa(settings.Steps))
	doc = strings.ReplaceAll(doc, "%CFG%", strconv.FormatFloat(settings.CFG, 'g', -1, 64))

	var graph map[string]any
	if err := json.Unmarshal([]byte(doc), &graph); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}

	return &Payload{Graph: json.RawMessage(doc), Seed: seed}, nil
}

func resolveSeed(s preset.Seed) int64 {
	if s.IsRandom() {
		return rand.Int64N(maxRandomSeed)
	}
	return s.Value()
}

// escapePrompt JSON-escapes the prompt text without the surrounding quotes;
// the template supplies the delimiters.
func escapePrompt(prompt string) string {
	b, _ := json.Marshal(prompt)
	return string(b[1 : len(b)-1])
}
