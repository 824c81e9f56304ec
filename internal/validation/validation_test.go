package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		expectErr bool
	}{
		{"valid http URL", "http://localhost:8080", false},
		{"valid https URL with path", "https://example.com/sandbox/abc", false},
		{"javascript scheme", "javascript:alert(1)", true},
		{"file scheme", "file:///etc/passwd", true},
		{"command injection", "http://localhost:8080;rm -rf /", true},
		{"subshell", "http://localhost:8080/$(whoami)", true},
		{"space", "http://localhost:8080/ foo", true},
		{"no host", "http:///path", true},
		{"newline", "http://localhost\n:8080", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path      string
		expectErr bool
	}{
		{"galaxy-code.html", false},
		{"out/galaxy-code.jsx", false},
		{"./snippets/../galaxy-code.css", false},
		{"/tmp/galaxy-code.js", false},
		{"", true},
		{"../outside.html", true},
		{"/etc/passwd", true},
		{"/proc/self/environ", true},
		{"out;rm.html", true},
		{"..foo/ok.html", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFileExtension(t *testing.T) {
	allowed := []string{"html", "css", "js", "jsx", "txt"}

	assert.NoError(t, ValidateFileExtension("galaxy-code.JSX", allowed))
	assert.Error(t, ValidateFileExtension("galaxy-code.exe", allowed))
	assert.Error(t, ValidateFileExtension("galaxy-code", allowed))
	assert.Error(t, ValidateFileExtension("", allowed))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\tb\nc\r\n", SanitizeInput("a\tb\x00\nc\x07\r\n"))
	assert.Equal(t, "héllo ✓", SanitizeInput("héllo ✓"))
}
