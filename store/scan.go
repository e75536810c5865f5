package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Scan expands glob patterns (relative to the .airsdlc root) to the
// artifact documents they match. Supports both single-level wildcards (*)
// and recursive wildcards (**).
//
// Examples:
//   - "rfc/*" matches every RFC document
//   - "**" matches every document in the tree
//   - "adr/transactional-*" matches ADRs by slug prefix
//
// Returns document paths only, deduplicated, in match order.
func (m *Manager) Scan(patterns []string) ([]string, error) {
	var resolved []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}

		matches, err := doublestar.FilepathGlob(filepath.Join(m.RootPath(), pattern))
		if err != nil {
			return nil, fmt.Errorf("resolve pattern %q: %w", pattern, err)
		}

		for _, match := range matches {
			if strings.HasSuffix(match, DocExt) && !seen[match] {
				seen[match] = true
				resolved = append(resolved, match)
			}
		}
	}

	return resolved, nil
}
