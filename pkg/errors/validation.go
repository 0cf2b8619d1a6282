package errors

import (
	"path"
	"strings"
	"unicode"

	"github.com/gobwas/glob"
)

// ValidatePattern validates a configuration name pattern.
// It rejects empty patterns, control characters and globs that do not compile.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return New(ErrCodeInvalidConfig, "config name pattern cannot be empty")
	}

	for _, r := range pattern {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "config name %q contains invalid control characters", pattern)
		}
	}

	if _, err := glob.Compile(pattern, '/'); err != nil {
		return Wrap(ErrCodeInvalidConfig, err, "config name %q is not a valid glob", pattern)
	}

	return nil
}

// ValidatePath validates an output path relative to a file's base directory.
// It prevents renamed variants from escaping the base directory.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal above the base
//   - No backslashes (Windows-style paths)
func ValidatePath(p string) error {
	if p == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(p) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range p {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(p, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(p, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	if clean := path.Clean(p); clean == ".." || strings.HasPrefix(clean, "../") {
		return New(ErrCodeInvalidPath, "path cannot escape its base directory: %q", p)
	}

	return nil
}
