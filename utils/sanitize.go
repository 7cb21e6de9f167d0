package utils

import (
	"strings"

	"github.com/cppla/yatube/models"
)

// Sanitize returns the trimmed HTML rendering of input. An empty result means
// nothing displayable is left, e.g. a body made only of a script tag.
func Sanitize(input string) string {
	return strings.TrimSpace(models.RenderText(input))
}
