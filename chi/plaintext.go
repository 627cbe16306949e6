package chi

import (
	"html"

	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText strips the tags from rendered markup and decodes its entities,
// giving the text a user would copy from the page.
func PlainText(m assistant.Markup) string {
	return html.UnescapeString(strict.Sanitize(m.String()))
}
