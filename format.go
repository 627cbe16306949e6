package assistant

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Markup is display-ready HTML produced by Format. It contains only escaped
// text and the tags pre, code, b and i.
type Markup string

func (m Markup) String() string { return string(m) }

var (
	fencePattern  = regexp.MustCompile("```([\\s\\S]+?)```")
	codePattern   = regexp.MustCompile("`(.+?)`")
	boldPattern   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicPattern = regexp.MustCompile(`\*(.+?)\*`)

	// Code spans are parked as \x00<index>\x00 while emphasis runs. A NUL
	// already in the text is parked as \x00n\x00.
	slotPattern = regexp.MustCompile(`\x00(n|[0-9]+)\x00`)
)

// Format converts raw turn content into Markup. The input is HTML-escaped
// first, then fenced code blocks, inline code, bold and italic are
// substituted in that order. Code contents are never reinterpreted by the
// emphasis rules, but emphasis may wrap an inline code span.
//
// Emphasis is matched by pattern order, not by a markdown parser, so
// adjacent asterisks can pair up unexpectedly: "**bold*" becomes
// "<i>*bold</i>". Delimiters without a partner are left as they are.
//
// Format is not idempotent. Its output escapes again when passed back in,
// so it must only ever be given raw content.
func Format(raw string) Markup {
	escaped := html.EscapeString(raw)
	var b strings.Builder
	b.Grow(len(escaped))
	splitMatches(escaped, fencePattern,
		func(code string) {
			b.WriteString("<pre><code>")
			b.WriteString(code)
			b.WriteString("</code></pre>")
		},
		func(text string) {
			b.WriteString(inline(text))
		})
	return Markup(b.String())
}

// inline substitutes code spans, then bold and italic, on text outside
// fenced blocks.
func inline(s string) string {
	if !strings.ContainsAny(s, "`*") {
		return s
	}
	s = strings.ReplaceAll(s, "\x00", "\x00n\x00")
	var spans []string
	s = codePattern.ReplaceAllStringFunc(s, func(m string) string {
		code := strings.ReplaceAll(m[1:len(m)-1], "\x00n\x00", "\x00")
		spans = append(spans, "<code>"+code+"</code>")
		return "\x00" + strconv.Itoa(len(spans)-1) + "\x00"
	})
	if strings.Contains(s, "*") {
		s = boldPattern.ReplaceAllString(s, "<b>$1</b>")
		s = italicPattern.ReplaceAllString(s, "<i>$1</i>")
	}
	return slotPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := m[1 : len(m)-1]
		if key == "n" {
			return "\x00"
		}
		i, _ := strconv.Atoi(key)
		return spans[i]
	})
}

// splitMatches walks s in order, passing the first capture group of each
// match of re to inner and the text between matches to outer.
func splitMatches(s string, re *regexp.Regexp, inner, outer func(string)) {
	last := 0
	for _, m := range re.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > last {
			outer(s[last:m[0]])
		}
		inner(s[m[2]:m[3]])
		last = m[1]
	}
	if last < len(s) {
		outer(s[last:])
	}
}
