// Package validation checks values that reach the operating system: URLs
// handed to the browser launcher, output paths of exported snippets, and
// text read from watched files.
package validation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

var shellMeta = []string{";", "&", "|", "`", "$", "(", ")", "<", ">", "\"", "'", "\\", "\n", "\r"}

// ValidateURL accepts absolute http(s) URLs that are safe to pass to a
// system command as a single argument.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (only http/https allowed)", parsed.Scheme)
	}

	for _, char := range shellMeta {
		if strings.Contains(rawURL, char) {
			return fmt.Errorf("URL contains dangerous character: %q", char)
		}
	}

	if strings.Contains(rawURL, " ") {
		return fmt.Errorf("URL contains spaces")
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}

	return nil
}

// ValidatePath rejects empty paths, traversal out of the working directory
// and system locations.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	cleanPath := filepath.Clean(path)
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected: %s", path)
	}

	restricted := []string{"/etc/", "/proc/", "/sys/", "/dev/", "/boot/"}
	lower := strings.ToLower(filepath.ToSlash(cleanPath))
	for _, prefix := range restricted {
		if strings.HasPrefix(lower+"/", prefix) {
			return fmt.Errorf("access to restricted path denied: %s", path)
		}
	}

	for _, char := range []string{";", "&", "|", "$", "`", "<", ">"} {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

// ValidateFileExtension checks filename against an allowlist of extensions
// given without the dot.
func ValidateFileExtension(filename string, allowed []string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return fmt.Errorf("file must have an extension")
	}

	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return nil
		}
	}

	return fmt.Errorf("file extension %q is not allowed", ext)
}

// SanitizeInput drops NUL bytes and control characters other than tab,
// newline and carriage return.
func SanitizeInput(input string) string {
	var sanitized strings.Builder
	sanitized.Grow(len(input))
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' || r == '\r' {
			sanitized.WriteRune(r)
		}
	}
	return sanitized.String()
}
