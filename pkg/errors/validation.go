package errors

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	maxServiceName = 128
	maxPath        = 500
)

// serviceName matches names usable both as a diagram key segment and as a
// directory under specs/.
var serviceName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// ValidateServiceName rejects names that could escape the output tree or
// collide with the "#" separator of diagram keys.
func ValidateServiceName(name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidService, "service name cannot be empty")
	case len(name) > maxServiceName:
		return New(ErrCodeInvalidService, "service name too long (max %d characters)", maxServiceName)
	case hasControl(name):
		return New(ErrCodeInvalidService, "service name contains invalid control characters")
	case strings.Contains(name, ".."):
		return New(ErrCodeInvalidService, "service name contains invalid characters: %q", "..")
	case !serviceName.MatchString(name):
		return New(ErrCodeInvalidService, "invalid service name: %q", name)
	}
	return nil
}

// ValidatePath checks a slash-separated path relative to the output
// directory.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return New(ErrCodeInvalidPath, "path cannot be empty")
	case len(path) > maxPath:
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPath)
	case hasControl(path):
		return New(ErrCodeInvalidPath, "path contains invalid characters")
	case strings.HasPrefix(path, "/"):
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	case strings.Contains(path, ".."):
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	case strings.Contains(path, `\`):
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}
	return nil
}

// ValidateURL accepts http and https links only; anything else would end up
// as a clickable link in the diagram.
func ValidateURL(rawURL string) error {
	switch {
	case rawURL == "":
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	case !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://"):
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}
