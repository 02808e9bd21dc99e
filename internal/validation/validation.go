// Package validation checks untrusted input arriving at the CLI and MCP
// boundaries before it reaches the workflow or the filesystem.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// Common validation errors.
var (
	ErrEmptyInput       = errors.New("input cannot be empty")
	ErrInvalidSerial    = errors.New("invalid serial number")
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrInvalidPath      = errors.New("invalid path")
	ErrInvalidURL       = errors.New("invalid URL")
	ErrControlCharacter = errors.New("control character in input")
)

// MaxSerialLength bounds serial numbers accepted from tools.
const MaxSerialLength = 64

var (
	// serialRegex matches frame serial numbers: letters, digits, hyphens.
	// Examples: "STM34D30L24110132N", "WSBC-604-1234"
	serialRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*$`)

	// controlRegex matches ASCII control characters.
	controlRegex = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidateSerialNumber checks a serial number before it is sent for
// verification. Surrounding whitespace is ignored.
func ValidateSerialNumber(serial string) error {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return ErrEmptyInput
	}
	if len(serial) > MaxSerialLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidSerial, MaxSerialLength)
	}
	if !serialRegex.MatchString(serial) {
		return fmt.Errorf("%w: %q may only contain letters, digits and hyphens", ErrInvalidSerial, serial)
	}
	return nil
}

// ValidateText rejects free-text values carrying control characters.
func ValidateText(value string) error {
	if controlRegex.MatchString(value) {
		return ErrControlCharacter
	}
	return nil
}

// ValidatePath validates a file path and prevents path traversal attacks.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyInput
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: path contains null byte", ErrInvalidPath)
	}

	if containsPathTraversal(path) {
		return fmt.Errorf("%w: %q contains traversal sequence", ErrPathTraversal, path)
	}

	return nil
}

// ValidateURL validates a backend base URL.
func ValidateURL(urlStr string) error {
	if urlStr == "" {
		return ErrEmptyInput
	}
	if len(urlStr) > 2048 {
		return fmt.Errorf("%w: URL too long", ErrInvalidURL)
	}

	u, err := url.Parse(urlStr)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q must be a valid HTTP/HTTPS URL", ErrInvalidURL, urlStr)
	}
	return nil
}

// containsPathTraversal checks for common path traversal patterns.
func containsPathTraversal(path string) bool {
	normalized := filepath.Clean(filepath.FromSlash(path))

	for _, seg := range strings.Split(normalized, string(filepath.Separator)) {
		if seg == ".." {
			return true
		}
	}

	lower := strings.ToLower(path)
	return strings.Contains(lower, "%2e%2e")
}
