package models

import "github.com/microcosm-cc/bluemonday"

var textPolicy = bluemonday.UGCPolicy()

// RenderText returns text as HTML that is safe to embed in a page.
// Stored text is kept as written; this is applied on the way out.
func RenderText(text string) string {
	return textPolicy.Sanitize(text)
}
