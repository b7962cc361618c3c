package preset

import (
	"encoding/json"
	"testing"
)

func TestSeed_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input      string
		wantRandom bool
		wantValue  int64
	}{
		{`"RANDOM"`, true, 0},
		{`-1`, true, 0},
		{`"-1"`, true, 0},
		{`42`, false, 42},
		{`"42"`, false, 42},
		{`0`, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var seed Seed
			if err := json.Unmarshal([]byte(tt.input), &seed); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.input, err)
			}
			if seed.IsRandom() != tt.wantRandom {
				t.Errorf("IsRandom() = %v, want %v", seed.IsRandom(), tt.wantRandom)
			}
			if !tt.wantRandom && seed.Value() != tt.wantValue {
				t.Errorf("Value() = %d, want %d", seed.Value(), tt.wantValue)
			}
		})
	}
}

func TestSeed_UnmarshalJSON_Invalid(t *testing.T) {
	var seed Seed
	if err := json.Unmarshal([]byte(`"not-a-seed"`), &seed); err == nil {
		t.Error("Unmarshal of a non-numeric string should fail")
	}
	if err := json.Unmarshal([]byte(`true`), &seed); err == nil {
		t.Error("Unmarshal of a bool should fail")
	}
}

func TestSeed_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(RandomSeed())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"RANDOM"` {
		t.Errorf("Marshal(random) = %s, want \"RANDOM\"", data)
	}

	data, err = json.Marshal(FixedSeed(42))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != "42" {
		t.Errorf("Marshal(42) = %s, want 42", data)
	}
}

func TestGenerationSettings_Validate(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*GenerationSettings)
	}{
		{"empty name", func(s *GenerationSettings) { s.PresetName = "" }},
		{"zero width", func(s *GenerationSettings) { s.Width = 0 }},
		{"negative height", func(s *GenerationSettings) { s.Height = -1 }},
		{"zero batch", func(s *GenerationSettings) { s.BatchSize = 0 }},
		{"zero steps", func(s *GenerationSettings) { s.Steps = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			if err := s.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}
