package provider

import (
	"fmt"
	"strings"

	"github.com/oukeidos/potrans/internal/glossary"
	"github.com/oukeidos/potrans/internal/language"
)

// DefaultContext is used when a request carries no context.
const DefaultContext = "WordPress plugin UI"

// BuildPrompt renders the single-string translation prompt. terms are
// appended as fixed translations when present.
func BuildPrompt(text, targetLang, context string, terms []glossary.Term) string {
	if strings.TrimSpace(context) == "" {
		context = DefaultContext
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Translate the text into %s for a WordPress plugin UI:\n", language.DisplayName(targetLang))
	b.WriteString("1. Return only the translated string.\n")
	b.WriteString("2. Preserve placeholders (e.g., %s, %d, {0}, <tag>, [shortcode]).\n")
	b.WriteString("3. Use standard WordPress UI terms.\n")
	b.WriteString("4. Ensure concise, natural translations.\n")
	if len(terms) > 0 {
		b.WriteString("5. Use these fixed translations for the listed terms:\n")
		for _, t := range terms {
			fmt.Fprintf(&b, "   - %s => %s\n", t.Source, t.Target)
		}
	}
	fmt.Fprintf(&b, "Context: %s\nInput: %s", context, text)
	return b.String()
}
