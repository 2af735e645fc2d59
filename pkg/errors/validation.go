package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateNodeID validates a node identifier given on the command line or
// read from a graph document.
//
// Validation rules:
//   - No empty IDs
//   - No control characters or whitespace
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node ID cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "node ID too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "node ID %q contains whitespace or control characters", id)
		}
	}

	return nil
}

// profileNameRegex matches profile table names.
var profileNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// ValidateProfileName validates the name of a query profile.
func ValidateProfileName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidProfile, "profile name cannot be empty")
	}

	if len(name) > 64 {
		return New(ErrCodeInvalidProfile, "profile name too long (max 64 characters)")
	}

	if !profileNameRegex.MatchString(name) {
		return New(ErrCodeInvalidProfile, "invalid profile name: %q", name)
	}

	return nil
}

// ValidateFilePath validates a path to a graph document or profile file.
// Absolute and relative paths are both accepted.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidateFilePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateRedisURL validates a Redis connection URL.
// It ensures the URL has a redis or rediss scheme.
func ValidateRedisURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "Redis URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "redis://") && !strings.HasPrefix(rawURL, "rediss://") {
		return New(ErrCodeInvalidInput, "Redis URL must use redis or rediss scheme")
	}

	return nil
}
