package runtime

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rawe/ontoforge-sub000/domain/schema"
)

// maxTextReprChars caps embedding input; nomic-embed-text has an 8192 token
// limit and ~4 chars/token makes 30000 chars a safe threshold.
const maxTextReprChars = 30000

// TextRepr builds the text representation of an entity for embedding.
//
// Format: "{entityTypeKey}: {key}={value}, {key}={value}, ..."
// Only string properties with non-null values are included, in
// schema-declared order.
func TextRepr(entityTypeKey string, props map[string]any, defs schema.PropertySet) string {
	var parts []string
	for _, def := range defs.All() {
		if def.DataType != schema.TypeString {
			continue
		}
		value, ok := props[def.Key]
		if !ok || value == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", def.Key, value))
	}

	text := entityTypeKey
	if len(parts) > 0 {
		text = fmt.Sprintf("%s: %s", entityTypeKey, strings.Join(parts, ", "))
	}

	if len(text) > maxTextReprChars {
		cut := maxTextReprChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}
