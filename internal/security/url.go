package security

import (
	"fmt"
	"net/url"
)

var ErrInvalidScheme = fmt.Errorf("server URL must use http or https")

// ValidateServerURL checks that a generation-server URL is well-formed.
// Plain http is allowed: the server normally lives on the same machine.
func ValidateServerURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidScheme
	}
	if parsed.Host == "" {
		return fmt.Errorf("server URL %q has no host", rawURL)
	}
	return nil
}
