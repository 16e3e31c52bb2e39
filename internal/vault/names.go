package vault

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// validCategory matches alphanumeric, underscores, and hyphens.
	validCategory = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// validSecretName additionally allows dots and @.
	validSecretName = regexp.MustCompile(`^[a-zA-Z0-9_.@-]+$`)
)

// ValidateSecretRef checks that a category and secret name are safe to store
// and to use in an HKDF label.
func ValidateSecretRef(category, name string) error {
	if category == "" || name == "" {
		return fmt.Errorf("%w: category and name required", ErrInvalidName)
	}
	if err := ValidateCategory(category); err != nil {
		return err
	}
	if !validSecretName.MatchString(name) {
		return fmt.Errorf("%w: name %q: only alphanumeric, underscore, hyphen, dot, @ allowed", ErrInvalidName, name)
	}
	return nil
}

// ValidateCategory checks a category on its own.
func ValidateCategory(category string) error {
	if !validCategory.MatchString(category) {
		return fmt.Errorf("%w: category %q: only alphanumeric, underscore, hyphen allowed", ErrInvalidName, category)
	}
	return nil
}

// SanitizeFilename reduces an uploaded name to a bare file name. It returns
// "" when nothing usable remains.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	switch name {
	case ".", "..", "/":
		return ""
	}
	if strings.ContainsFunc(name, func(r rune) bool { return r < 0x20 || r == 0x7f }) {
		return ""
	}
	return name
}
