package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingsBecomeHeaderLines(t *testing.T) {
	input := "## Weather\n\nConditions: clear\n\n## Notes\n\nall good today"
	p := &MarkdownParser{}
	out, err := p.Parse(strings.NewReader(input), "report.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out, "Weather:") {
		t.Errorf("expected heading rendered as %q, got %q", "Weather:", out)
	}
	if !strings.Contains(out, "Notes:") {
		t.Errorf("expected heading rendered as %q, got %q", "Notes:", out)
	}
	if !strings.Contains(out, "Conditions: clear") {
		t.Errorf("expected body text preserved, got %q", out)
	}

	// The heading must precede its body.
	if strings.Index(out, "Weather:") > strings.Index(out, "Conditions: clear") {
		t.Errorf("heading should precede its body: %q", out)
	}
}

func TestMarkdownParser_PlainParagraphs(t *testing.T) {
	p := &MarkdownParser{}
	out, err := p.Parse(strings.NewReader("just a plain paragraph"), "note.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "just a plain paragraph") {
		t.Errorf("expected paragraph text, got %q", out)
	}
}
