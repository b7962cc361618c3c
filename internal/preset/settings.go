package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// GenerationSettings is a named bundle of image-generation job parameters.
// The preset name doubles as the storage key: saving a bundle overwrites any
// bundle file of the same name.
type GenerationSettings struct {
	PresetName string  `json:"presets_name"`
	Checkpoint string  `json:"checkpoint"`
	Lora       string  `json:"lora"`
	Width      int     `json:"latent_width"`
	Height     int     `json:"latent_height"`
	BatchSize  int     `json:"batch_size"`
	Seed       Seed    `json:"seed"`
	Steps      int     `json:"steps"`
	CFG        float64 `json:"cfg"`
	Prompt     string  `json:"prompt"`
}

// DefaultSettings returns a bundle with every field at its documented
// default: 1216x832 latent, batch 1, random seed, 20 steps, CFG 3.0.
func DefaultSettings() *GenerationSettings {
	return &GenerationSettings{
		PresetName: "default",
		Checkpoint: "waiNSFWIllustrious_v120.safetensors",
		Lora:       "",
		Width:      1216,
		Height:     832,
		BatchSize:  1,
		Seed:       RandomSeed(),
		Steps:      20,
		CFG:        3.0,
		Prompt:     "",
	}
}

// Validate checks the invariants a bundle must hold at rest.
func (s *GenerationSettings) Validate() error {
	if s.PresetName == "" {
		return errors.New("preset name must not be empty")
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", s.Width, s.Height)
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("invalid batch size %d", s.BatchSize)
	}
	if s.Steps <= 0 {
		return fmt.Errorf("invalid step count %d", s.Steps)
	}
	return nil
}

// Seed is either a literal non-negative seed value or the sentinel meaning
// "draw a fresh random seed per submission". On the wire it accepts a JSON
// number or a string: "RANDOM", -1 and "-1" all select the sentinel.
type Seed struct {
	value  int64
	random bool
}

// RandomSeed returns the random-per-submission sentinel.
func RandomSeed() Seed {
	return Seed{random: true}
}

// FixedSeed returns a literal seed.
func FixedSeed(v int64) Seed {
	return Seed{value: v}
}

// IsRandom reports whether the seed is the random sentinel.
func (s Seed) IsRandom() bool {
	return s.random
}

// Value returns the literal seed value. Only meaningful when IsRandom is
// false.
func (s Seed) Value() int64 {
	return s.value
}

func (s Seed) String() string {
	if s.random {
		return "RANDOM"
	}
	return strconv.FormatInt(s.value, 10)
}

func (s Seed) MarshalJSON() ([]byte, error) {
	if s.random {
		return json.Marshal("RANDOM")
	}
	return json.Marshal(s.value)
}

func (s *Seed) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		if n == -1 {
			*s = RandomSeed()
		} else {
			*s = FixedSeed(n)
		}
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("seed must be a number or string: %w", err)
	}
	if str == "RANDOM" || str == "-1" {
		*s = RandomSeed()
		return nil
	}

	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid seed %q: %w", str, err)
	}
	*s = FixedSeed(n)
	return nil
}
