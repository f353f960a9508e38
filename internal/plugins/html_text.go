package plugins

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var htmlEntities = map[string]string{
	"&nbsp;": " ", "&#160;": " ",
	"&amp;": "&", "&lt;": "<", "&gt;": ">",
	"&quot;": "\"", "&#39;": "'",
}

// blockTags start a new output line when opened or closed.
var blockTags = []string{"p", "div", "br", "h1", "h2", "h3", "h4", "li", "tr", "td"}

// htmlToText reduces an HTML document to readable text: tags are dropped,
// script and style bodies skipped, a handful of common entities decoded,
// and runs of whitespace collapsed. Block-level tags become line breaks.
func htmlToText(doc string) string {
	t := textifier{src: doc, lower: strings.ToLower(doc), broke: true}
	t.out.Grow(len(doc) / 2)
	t.run()
	return strings.TrimSpace(t.out.String())
}

type textifier struct {
	src   string
	lower string
	pos   int
	inTag bool
	broke bool // last output was a space or line break
	out   strings.Builder
}

func (t *textifier) run() {
	for t.pos < len(t.src) {
		if t.skipRawElement("script") || t.skipRawElement("style") {
			continue
		}

		r, size := utf8.DecodeRuneInString(t.src[t.pos:])
		switch {
		case r == '<':
			if t.atBlockTag() && !t.broke {
				t.out.WriteByte('\n')
				t.broke = true
			}
			t.inTag = true
			t.pos += size
		case r == '>':
			t.inTag = false
			t.pos += size
		case t.inTag:
			t.pos += size
		case r == '&':
			t.writeEntity()
		case unicode.IsSpace(r):
			if !t.broke {
				t.out.WriteByte(' ')
				t.broke = true
			}
			t.pos += size
		default:
			t.out.WriteRune(r)
			t.broke = false
			t.pos += size
		}
	}
}

// skipRawElement jumps over <script>...</script> style elements whose
// bodies are not text.
func (t *textifier) skipRawElement(name string) bool {
	if !strings.HasPrefix(t.lower[t.pos:], "<"+name) {
		return false
	}
	closing := "</" + name + ">"
	end := strings.Index(t.lower[t.pos:], closing)
	if end < 0 {
		t.pos = len(t.src) // unterminated, drop the rest
		return true
	}
	t.pos += end + len(closing)
	return true
}

func (t *textifier) atBlockTag() bool {
	rest := strings.TrimPrefix(t.lower[t.pos+1:], "/")
	for _, tag := range blockTags {
		if strings.HasPrefix(rest, tag+">") || strings.HasPrefix(rest, tag+" ") || strings.HasPrefix(rest, tag+"/") {
			return true
		}
	}
	return false
}

func (t *textifier) writeEntity() {
	rest := t.src[t.pos:]
	if end := strings.IndexByte(rest, ';'); end > 0 && end < 10 {
		entity := rest[:end+1]
		if repl, ok := htmlEntities[entity]; ok {
			t.out.WriteString(repl)
		} else {
			t.out.WriteString(entity)
		}
		t.broke = false
		t.pos += end + 1
		return
	}
	t.out.WriteByte('&')
	t.broke = false
	t.pos++
}
