// Package security validates user-supplied values that end up in file paths
// or network requests.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyName     = fmt.Errorf("name must not be empty")
	ErrPathTraversal = fmt.Errorf("path traversal detected")
	ErrReservedName  = fmt.Errorf("reserved filename not allowed")

	windowsReservedNames = map[string]bool{
		"con": true, "prn": true, "aux": true, "nul": true,
		"com1": true, "com2": true, "com3": true, "com4": true,
		"com5": true, "com6": true, "com7": true, "com8": true, "com9": true,
		"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true,
		"lpt5": true, "lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
	}
)

// ValidatePresetName checks that a bundle name is safe to use as a filename
// under the data directory. Names carry no path components.
func ValidatePresetName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if strings.ContainsAny(name, `/\`) || filepath.IsAbs(name) {
		return ErrPathTraversal
	}
	if strings.Contains(name, "..") || name == "." {
		return ErrPathTraversal
	}
	if windowsReservedNames[strings.TrimSuffix(strings.ToLower(name), filepath.Ext(name))] {
		return ErrReservedName
	}
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, ".") {
		return fmt.Errorf("name cannot start with %q", name[:1])
	}
	return nil
}

// SanitizePresetName rewrites an arbitrary string into a valid bundle name.
func SanitizePresetName(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "",
		"<", "", ">", "", "|", "", "\x00", "",
	)
	sanitized := replacer.Replace(name)
	sanitized = strings.TrimLeft(sanitized, ".-")
	sanitized = strings.TrimRight(sanitized, ". ")

	if windowsReservedNames[strings.TrimSuffix(strings.ToLower(sanitized), filepath.Ext(sanitized))] {
		sanitized = sanitized + "_"
	}
	if sanitized == "" {
		sanitized = "preset"
	}
	return sanitized
}
