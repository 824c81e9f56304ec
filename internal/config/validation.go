package config

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/conneroisu/codeplay/internal/storage"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	write := func(title string, issues []ValidationError) {
		if len(issues) == 0 {
			return
		}
		builder.WriteString(title + ":\n")
		for _, issue := range issues {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", issue.Field, issue.Message))
			for _, suggestion := range issue.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
	}

	write("Validation errors", vr.Errors)
	write("Validation warnings", vr.Warnings)
	return builder.String()
}

func (vr *ValidationResult) addError(field string, value interface{}, msg string, suggestions ...string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Value: value, Message: msg, Suggestions: suggestions})
}

func (vr *ValidationResult) addWarning(field string, value interface{}, msg string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Value: value, Message: msg, Suggestions: suggestions})
}

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{}

	validateServer(&config.Server, result)
	validatePlayground(&config.Playground, result)
	validatePreview(&config.Preview, result)
	validateStorage(&config.Storage, result)
	validateHeadless(&config.Headless, result)
	validateRateLimit(&config.RateLimit, result)

	result.Valid = !result.HasErrors()
	return result
}

// validateConfig returns the first validation error, if any.
func validateConfig(config *Config) error {
	result := ValidateConfigWithDetails(config)
	if result.HasErrors() {
		return &result.Errors[0]
	}
	return nil
}

var dangerousChars = []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}

func validateServer(c *ServerConfig, result *ValidationResult) {
	// Port 0 lets the system assign one, which tests rely on.
	if c.Port < 0 || c.Port > 65535 {
		result.addError("server.port", c.Port,
			fmt.Sprintf("port %d is not in valid range 0-65535", c.Port),
			"Common development ports: 3000, 8080, 8000")
	} else if c.Port > 0 && c.Port < 1024 {
		result.addWarning("server.port", c.Port, "port below 1024 requires elevated privileges")
	}

	for _, char := range dangerousChars {
		if strings.Contains(c.Host, char) {
			result.addError("server.host", c.Host, "host contains dangerous character: "+char)
			break
		}
	}

	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			result.addError("server.allowed_origins", origin,
				"wildcard origin would let any site drive the playground",
				"List the exact origins, for example http://localhost:3000")
			continue
		}
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			result.addError("server.allowed_origins", origin, "origin must be an absolute URL")
		}
	}

	for _, proxy := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(proxy); err == nil {
			continue
		}
		if net.ParseIP(proxy) == nil {
			result.addError("server.trusted_proxies", proxy, "proxy must be an IP address or CIDR range",
				"For a local reverse proxy use 127.0.0.1")
		}
	}

	switch c.Environment {
	case "", "development", "production", "test":
	default:
		result.addWarning("server.environment", c.Environment, "unknown environment, treated as development")
	}
}

func validatePlayground(c *PlaygroundConfig, result *ValidationResult) {
	if c.Debounce < 0 {
		result.addError("playground.debounce", c.Debounce, "debounce must not be negative")
	}
	if c.AutosaveInterval < 0 {
		result.addError("playground.autosave_interval", c.AutosaveInterval, "autosave interval must not be negative")
	}
	if c.ReleaseDelay < 0 {
		result.addError("playground.release_delay", c.ReleaseDelay, "release delay must not be negative")
	}
	if c.LogLimit < 0 {
		result.addError("playground.log_limit", c.LogLimit, "log limit must not be negative")
	}
	if c.Source != "" {
		if err := validatePath(c.Source); err != nil {
			result.addError("playground.source", c.Source, err.Error())
		}
	}
}

func validatePreview(c *PreviewConfig, result *ValidationResult) {
	for field, raw := range map[string]string{
		"preview.react_url":     c.ReactURL,
		"preview.react_dom_url": c.ReactDOMURL,
		"preview.babel_url":     c.BabelURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
			result.addError(field, raw, "must be an http(s) URL")
			continue
		}
		if u.Scheme == "http" {
			result.addWarning(field, raw, "runtime is loaded over plain http")
		}
	}
}

func validateStorage(c *StorageConfig, result *ValidationResult) {
	switch c.Driver {
	case storage.DriverMemory:
	case storage.DriverFile, storage.DriverSQLite:
		if err := validatePath(c.Path); err != nil {
			result.addError("storage.path", c.Path, err.Error())
		}
	default:
		result.addError("storage.driver", c.Driver, "unknown storage driver",
			"Use one of: memory, file, sqlite")
	}
}

func validateHeadless(c *HeadlessConfig, result *ValidationResult) {
	if c.Timeout < 0 {
		result.addError("headless.timeout", c.Timeout, "timeout must not be negative")
	}
}

func validateRateLimit(c *RateLimitConfig, result *ValidationResult) {
	if c.RenderPerSecond < 0 {
		result.addError("rate_limit.render_per_second", c.RenderPerSecond, "rate must not be negative")
	}
	if c.Burst < 0 {
		result.addError("rate_limit.burst", c.Burst, "burst must not be negative")
	}
	if c.RenderPerSecond > 0 && c.Burst == 0 {
		result.addWarning("rate_limit.burst", c.Burst, "a zero burst rejects every render",
			"Set burst to at least 1")
	}
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	for _, char := range dangerousChars[:len(dangerousChars)-1] {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
