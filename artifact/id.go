package artifact

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ID is a typed artifact identifier, format "{type}.{slug}".
type ID string

// Sentinel errors for identifier handling.
var (
	// ErrSlugRequired is returned when a slug is empty.
	ErrSlugRequired = errors.New("slug is required")
	// ErrInvalidSlug is returned for slugs that are not lowercase
	// alphanumeric with hyphens or that could escape the artifact tree.
	ErrInvalidSlug = errors.New("invalid slug: must be lowercase alphanumeric with hyphens, no path separators")
	// ErrInvalidID is returned when an ID cannot be parsed.
	ErrInvalidID = errors.New("invalid artifact ID: want {type}.{slug}")
)

// slugPattern validates slugs: lowercase alphanumeric with hyphens, 1-50 chars.
var slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,48}[a-z0-9])?$`)

// NewID builds the identifier for a type and slug.
func NewID(t Type, slug string) ID {
	return ID(fmt.Sprintf("%s.%s", t, slug))
}

// String returns the string representation of the ID.
func (id ID) String() string {
	return string(id)
}

// Type returns the artifact type encoded in the ID, or "" if malformed.
func (id ID) Type() Type {
	t, _, err := ParseID(string(id))
	if err != nil {
		return ""
	}
	return t
}

// ParseID splits an identifier into its type and slug components.
func ParseID(s string) (Type, string, error) {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	t := Type(parts[0])
	if !t.IsValid() {
		return "", "", fmt.Errorf("unknown artifact type %q in ID %q", parts[0], s)
	}
	if err := ValidateSlug(parts[1]); err != nil {
		return "", "", err
	}
	return t, parts[1], nil
}

// ValidateSlug checks if a slug is valid and safe for use in file paths.
func ValidateSlug(slug string) error {
	if slug == "" {
		return ErrSlugRequired
	}
	// Prevent path traversal
	if strings.Contains(slug, "..") || strings.Contains(slug, "/") || strings.Contains(slug, "\\") {
		return ErrInvalidSlug
	}
	if !slugPattern.MatchString(slug) {
		return ErrInvalidSlug
	}
	return nil
}

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]`)
	multiHyphen  = regexp.MustCompile(`-+`)
)

// Slugify converts a title to a URL-friendly slug.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "_", "-")
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = multiHyphen.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > 50 {
		slug = slug[:50]
		slug = strings.TrimRight(slug, "-")
	}

	return slug
}
