package artifact

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingFrontmatter indicates the document did not start with a YAML fence.
	ErrMissingFrontmatter = errors.New("artifact: missing frontmatter")
	// ErrMalformedFrontmatter indicates the YAML block could not be parsed.
	ErrMalformedFrontmatter = errors.New("artifact: malformed frontmatter")
)

// ParseDocument parses a markdown document with `---` fenced YAML
// frontmatter into an Artifact. The body below the fence is kept verbatim.
func ParseDocument(content []byte) (*Artifact, error) {
	if len(content) == 0 {
		return nil, ErrMissingFrontmatter
	}
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return nil, ErrMissingFrontmatter
	}
	rest := normalized[4:]
	parts := bytes.SplitN(rest, []byte("\n---\n"), 2)
	if len(parts) < 2 {
		return nil, ErrMalformedFrontmatter
	}

	var a Artifact
	if err := yaml.Unmarshal(parts[0], &a); err != nil {
		return nil, fmt.Errorf("artifact: parse frontmatter: %w", err)
	}
	a.Body = bytes.TrimLeft(parts[1], "\n")

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// ComposeDocument renders an artifact as frontmatter + body with YAML fences.
func ComposeDocument(a *Artifact) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	meta, err := yaml.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("artifact: encode frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(bytes.TrimRight(meta, "\n"))
	buf.WriteString("\n---\n\n")
	buf.Write(a.Body)
	if len(a.Body) > 0 && !bytes.HasSuffix(a.Body, []byte("\n")) {
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}
