// Package goldmark renders assistant turns as ANSI-styled terminal text,
// using goldmark for parsing and lipgloss for styling.
//
// The browser surface shows turns through assistant.Format. The terminal
// has room for a fuller markdown reading (headings, lists, links), so it
// parses the raw content instead.
package goldmark

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

const defaultWidth = 80

// Renderer converts markdown to styled terminal output. It is safe for
// concurrent use.
type Renderer struct {
	parser parser.Parser

	bold   lipgloss.Style
	italic lipgloss.Style
	code   lipgloss.Style
	accent lipgloss.Style
	muted  lipgloss.Style
	link   lipgloss.Style
}

// New creates a Renderer styled with theme.
func New(theme assistant.Theme) *Renderer {
	return &Renderer{
		parser: goldmark.DefaultParser(),
		bold:   lipgloss.NewStyle().Bold(true),
		italic: lipgloss.NewStyle().Italic(true),
		code:   lipgloss.NewStyle().Background(ansiColor(theme.CodeBg)).Bold(true),
		accent: lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		muted:  lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		link:   lipgloss.NewStyle().Underline(true),
	}
}

// Render returns src as styled text wrapped to width. Code blocks keep
// their lines as written. A non-positive width means 80 columns.
func (r *Renderer) Render(src string, width int) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}
	source := []byte(src)
	doc := r.parser.Parse(text.NewReader(source))
	w := &writer{r: r, source: source}
	w.blocks(doc, width, "")
	return strings.TrimRight(w.buf.String(), "\n")
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

// writer accumulates the output of one Render call.
type writer struct {
	r      *Renderer
	source []byte
	buf    bytes.Buffer
}

// blocks renders the block children of n, each line prefixed with indent.
func (w *writer) blocks(n ast.Node, width int, indent string) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		w.block(c, width, indent)
		if c.NextSibling() != nil {
			w.buf.WriteString("\n")
		}
	}
}

func (w *writer) block(n ast.Node, width int, indent string) {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		w.wrapped(w.inline(n), width, indent, indent)

	case *ast.Heading:
		w.wrapped(w.r.accent.Render(w.inline(n)), width, indent, indent)

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(w.source)); lang != "" {
			w.buf.WriteString(indent + w.r.muted.Render(lang) + "\n")
		}
		w.codeLines(n.Lines(), indent)

	case *ast.CodeBlock:
		w.codeLines(n.Lines(), indent)

	case *ast.Blockquote:
		w.blocks(n, width-2, indent+w.r.muted.Render("┃")+" ")

	case *ast.List:
		w.list(n, width, indent)

	case *ast.ThematicBreak:
		w.buf.WriteString(indent + w.r.muted.Render(strings.Repeat("─", min(width, 40))) + "\n")

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			w.buf.WriteString(indent + strings.TrimRight(string(seg.Value(w.source)), "\n") + "\n")
		}

	default:
		w.blocks(n, width, indent)
	}
}

func (w *writer) codeLines(lines *text.Segments, indent string) {
	gutter := indent + w.r.muted.Render("│") + " "
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		w.buf.WriteString(gutter + strings.TrimRight(string(seg.Value(w.source)), "\n") + "\n")
	}
}

func (w *writer) list(n *ast.List, width int, indent string) {
	num := n.Start
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "• "
		if n.IsOrdered() {
			marker = strconv.Itoa(num) + ". "
			num++
		}
		pad := strings.Repeat(" ", len(marker))
		first := true
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch ic := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				lead := indent + pad
				if first {
					lead = indent + marker
				}
				w.wrapped(w.inline(ic), width-len(marker), lead, indent+pad)
			case *ast.List:
				w.list(ic, width, indent+pad)
			default:
				w.block(ic, width-len(marker), indent+pad)
			}
			first = false
		}
	}
}

// wrapped writes s word-wrapped to width, the first line prefixed with
// lead and the rest with cont.
func (w *writer) wrapped(s string, width int, lead, cont string) {
	if width < 10 {
		width = 10
	}
	out := lipgloss.NewStyle().Width(width).Render(s)
	for i, line := range strings.Split(out, "\n") {
		prefix := cont
		if i == 0 {
			prefix = lead
		}
		w.buf.WriteString(prefix + strings.TrimRight(line, " ") + "\n")
	}
}

func (w *writer) inline(n ast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		w.span(c, &b)
	}
	return b.String()
}

func (w *writer) span(n ast.Node, b *strings.Builder) {
	switch n := n.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(w.source))
		switch {
		case n.HardLineBreak():
			b.WriteByte('\n')
		case n.SoftLineBreak():
			b.WriteByte(' ')
		}

	case *ast.String:
		b.Write(n.Value)

	case *ast.Emphasis:
		inner := w.inline(n)
		if n.Level == 1 {
			b.WriteString(w.r.italic.Render(inner))
		} else {
			b.WriteString(w.r.bold.Render(inner))
		}

	case *ast.CodeSpan:
		b.WriteString(w.r.code.Render(w.inline(n)))

	case *ast.Link:
		b.WriteString(w.r.link.Render(w.inline(n)))
		b.WriteString(" " + w.r.muted.Render("("+string(n.Destination)+")"))

	case *ast.AutoLink:
		b.WriteString(w.r.link.Render(string(n.URL(w.source))))

	case *ast.Image:
		b.WriteString(w.r.link.Render(w.inline(n)))
		b.WriteString(" " + w.r.muted.Render("("+string(n.Destination)+")"))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(w.source))
		}

	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.span(c, b)
		}
	}
}
