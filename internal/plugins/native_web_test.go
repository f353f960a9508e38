package plugins

import (
	"strings"
	"testing"
)

func TestHTMLToTextStripsMarkup(t *testing.T) {
	html := `<html><head><title>T</title>
	<style>body { color: red; }</style>
	<script>var x = "<p>not text</p>";</script>
	</head><body>
	<h1>Heading</h1>
	<p>First &amp; second.</p>
	<div>Nested <b>bold</b> text.</div>
	</body></html>`

	got := htmlToText(html)

	if strings.Contains(got, "color: red") {
		t.Error("style content leaked into output")
	}
	if strings.Contains(got, "var x") {
		t.Error("script content leaked into output")
	}
	for _, want := range []string{"Heading", "First & second.", "Nested bold text."} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestHTMLToTextCollapsesWhitespace(t *testing.T) {
	got := htmlToText("a   b\n\n\tc")
	if got != "a b c" {
		t.Errorf("got %q, want %q", got, "a b c")
	}
}

func TestHTMLToTextBlockTagsBreakLines(t *testing.T) {
	got := htmlToText("<p>one</p><p>two</p>")
	if !strings.Contains(got, "\n") {
		t.Errorf("expected newline between paragraphs, got %q", got)
	}
}
