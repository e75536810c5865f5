package playbook

import (
	"strings"
	"testing"
)

func TestConvertExtractsMainContent(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head><title>Retry With Backoff</title></head>
<body>
<nav><a href="/">Home</a></nav>
<main>
<h1>Retry With Backoff</h1>
<p>Wrap flaky calls in exponential backoff.</p>
<pre><code>for i := 0; i < n; i++ { ... }</code></pre>
</main>
<footer>Copyright</footer>
</body>
</html>`

	c := NewConverter()
	result, err := c.Convert([]byte(page))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if result.Title != "Retry With Backoff" {
		t.Errorf("Title = %q", result.Title)
	}
	if !strings.Contains(result.Markdown, "exponential backoff") {
		t.Errorf("markdown missing body text:\n%s", result.Markdown)
	}
	if strings.Contains(result.Markdown, "Home") || strings.Contains(result.Markdown, "Copyright") {
		t.Errorf("markdown contains page chrome:\n%s", result.Markdown)
	}
}

func TestConvertStripsChromeWithoutMain(t *testing.T) {
	page := `<html><head></head><body>
<div class="sidebar">Navigation links</div>
<script>alert("x")</script>
<h1>Idempotent Consumers</h1>
<p>Deduplicate by message ID.</p>
</body></html>`

	c := NewConverter()
	result, err := c.Convert([]byte(page))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if result.Title != "Idempotent Consumers" {
		t.Errorf("Title = %q, want fallback from first heading", result.Title)
	}
	if strings.Contains(result.Markdown, "Navigation links") {
		t.Errorf("sidebar survived extraction:\n%s", result.Markdown)
	}
	if strings.Contains(result.Markdown, "alert") {
		t.Errorf("script content survived extraction:\n%s", result.Markdown)
	}
}

func TestCleanMarkdownCollapsesBlankRuns(t *testing.T) {
	in := "# Title\n\n\n\n\n\nBody  \n"
	out := cleanMarkdown(in)
	if strings.Contains(out, "\n\n\n\n") {
		t.Errorf("blank run survived: %q", out)
	}
	if strings.Contains(out, "Body  ") {
		t.Errorf("trailing whitespace survived: %q", out)
	}
}
