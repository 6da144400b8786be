package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Size limits
const (
	MaxCatalogSize    = 1 * 1024 * 1024 // 1MB - maximum program catalog document
	MaxNavigationSize = 4 * 1024 * 1024 // 4MB - maximum navigation file
	MaxFragmentSize   = 512 * 1024      // 512KB - maximum fragment a module may render
)

// String length limits
const (
	MaxIDLength        = 128
	MaxSpecifierLength = 512
	MaxNameLength      = 256
)

var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// SpecifierPattern allows slash-separated safe segments
	SpecifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+(/[a-zA-Z0-9_-]+)*$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates a section, program or group identifier
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateSpecifier validates a module specifier such as "concierge/hub/concierge_hub".
// Specifiers become file paths, so "..", absolute paths and empty segments are rejected.
func ValidateSpecifier(specifier string) error {
	if err := ValidateString(specifier, "specifier", 1, MaxSpecifierLength, true); err != nil {
		return err
	}

	if !SpecifierPattern.MatchString(specifier) {
		return fmt.Errorf("specifier %q is not a slash-separated list of safe identifiers", specifier)
	}

	return nil
}

// ValidateName validates a human-readable name
func ValidateName(name, fieldName string) error {
	return ValidateString(name, fieldName, 1, MaxNameLength, true)
}
