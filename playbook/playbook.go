// Package playbook curates reusable patterns: distilling them from
// published post-mortems and importing them from external documentation
// pages.
package playbook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/airsdlc/airtrack/artifact"
	"github.com/airsdlc/airtrack/store"
)

// ErrNotPublished is returned when distilling from a post-mortem that
// has not been published yet.
var ErrNotPublished = errors.New("post-mortem is not published")

// Curator creates playbook patterns in the store.
type Curator struct {
	manager   *store.Manager
	fetcher   *Fetcher
	converter *Converter
}

// CuratorConfig configures a Curator.
type CuratorConfig struct {
	// FetchTimeout bounds one import fetch. Defaults to 30s.
	FetchTimeout time.Duration

	// MaxContentSize caps an imported page in bytes.
	MaxContentSize int64

	// UserAgent sent on import requests.
	UserAgent string
}

// NewCurator creates a Curator over the given store.
func NewCurator(manager *store.Manager, config CuratorConfig) *Curator {
	timeout := config.FetchTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Curator{
		manager:   manager,
		fetcher:   NewFetcher(timeout, config.UserAgent, config.MaxContentSize),
		converter: NewConverter(),
	}
}

// FromPostMortem distills a published post-mortem into a draft pattern.
// The pattern records the post-mortem in derived_from as a reference,
// not a lineage edge, and seeds its body from the post-mortem's.
func (c *Curator) FromPostMortem(ctx context.Context, pmID artifact.ID, title, author string) (*artifact.Artifact, error) {
	pm, err := c.manager.Load(ctx, pmID)
	if err != nil {
		return nil, err
	}
	if pm.Type != artifact.TypePostMortem {
		return nil, fmt.Errorf("%s is a %s, not a post-mortem", pmID, pm.Type)
	}
	if pm.Status != artifact.StatusPublished {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotPublished, pmID, pm.Status)
	}

	if title == "" {
		title = pm.Title
	}

	pattern, err := c.manager.Create(ctx, artifact.TypePattern, title, author, nil)
	if err != nil {
		return nil, err
	}

	pattern.DerivedFrom = pm.ID
	pattern.Body = patternBody(title, pm)
	if err := c.manager.Save(ctx, pattern); err != nil {
		return nil, err
	}

	return pattern, nil
}

// Import fetches an external documentation page, converts it to
// markdown, and stores it as a draft pattern. The URL must pass the
// SSRF checks in ValidateURL.
func (c *Curator) Import(ctx context.Context, rawURL, author string) (*artifact.Artifact, error) {
	body, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	result, err := c.converter.Convert(body)
	if err != nil {
		return nil, fmt.Errorf("convert page: %w", err)
	}

	title := result.Title
	if title == "" {
		title = rawURL
	}

	pattern, err := c.manager.Create(ctx, artifact.TypePattern, title, author, nil)
	if err != nil {
		return nil, err
	}

	pattern.Body = []byte(fmt.Sprintf("# %s\n\nSource: <%s>\n\n%s\n", title, rawURL, result.Markdown))
	if err := c.manager.Save(ctx, pattern); err != nil {
		return nil, err
	}

	return pattern, nil
}

// patternBody seeds a distilled pattern with the sections curators fill
// in, followed by the post-mortem text for reference.
func patternBody(title string, pm *artifact.Artifact) []byte {
	return []byte(fmt.Sprintf(
		"# %s\n\n## Context\n\nDistilled from %s.\n\n## Pattern\n\n_Describe the reusable approach._\n\n---\n\n%s\n",
		title, pm.ID, string(pm.Body)))
}
