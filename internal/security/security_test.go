package security

import (
	"errors"
	"testing"
)

func TestValidatePresetName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"simple", "default", nil},
		{"with spaces", "night scene", nil},
		{"unicode", "夜景", nil},
		{"empty", "", ErrEmptyName},
		{"slash", "a/b", ErrPathTraversal},
		{"backslash", `a\b`, ErrPathTraversal},
		{"dotdot", "..", ErrPathTraversal},
		{"embedded dotdot", "a..b", ErrPathTraversal},
		{"dot", ".", ErrPathTraversal},
		{"reserved", "con", ErrReservedName},
		{"reserved with ext", "NUL.json", ErrReservedName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePresetName(tt.input)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePresetName(%q) = %v, want nil", tt.input, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePresetName(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePresetName_LeadingChars(t *testing.T) {
	for _, input := range []string{"-flag", ".hidden"} {
		if err := ValidatePresetName(input); err == nil {
			t.Errorf("ValidatePresetName(%q) = nil, want error", input)
		}
	}
}

func TestSanitizePresetName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"default", "default"},
		{"a/b:c", "a-b-c"},
		{"what?", "what"},
		{"..sneaky", "sneaky"},
		{"con", "con_"},
		{"", "preset"},
		{"***", "preset"},
	}

	for _, tt := range tests {
		if got := SanitizePresetName(tt.input); got != tt.want {
			t.Errorf("SanitizePresetName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateServerURL(t *testing.T) {
	valid := []string{
		"http://127.0.0.1:8000/",
		"http://localhost:8188",
		"https://comfy.example.com/",
	}
	for _, u := range valid {
		if err := ValidateServerURL(u); err != nil {
			t.Errorf("ValidateServerURL(%q) = %v, want nil", u, err)
		}
	}

	invalid := []string{
		"ftp://example.com",
		"file:///etc/passwd",
		"http://",
		"not a url at all\x00",
	}
	for _, u := range invalid {
		if err := ValidateServerURL(u); err == nil {
			t.Errorf("ValidateServerURL(%q) = nil, want error", u)
		}
	}
}
