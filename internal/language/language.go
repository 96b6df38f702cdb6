// Package language lists the target languages potrans can translate into,
// together with the gettext metadata written into catalog headers.
package language

import (
	"sort"
	"strings"
)

// Language represents a supported target language.
type Language struct {
	Code string
	Name string
	// Locale is the gettext locale written to the catalog "Language" header.
	Locale string
	// PluralForms is the gettext Plural-Forms header value.
	PluralForms string
	// Plurals is the nplurals value of PluralForms.
	Plurals int
	RTL     bool
}

// DefaultCode is the target used when none is given.
const DefaultCode = "fa"

// Languages is a map of supported languages code -> Language.
var Languages = map[string]Language{
	"en": {
		Code:        "en",
		Name:        "English",
		Locale:      "en_US",
		PluralForms: "nplurals=2; plural=(n != 1);",
		Plurals:     2,
	},
	"fa": {
		Code:        "fa",
		Name:        "Persian",
		Locale:      "fa_IR",
		PluralForms: "nplurals=2; plural=(n > 1);",
		Plurals:     2,
		RTL:         true,
	},
	"ar": {
		Code:        "ar",
		Name:        "Arabic",
		Locale:      "ar",
		PluralForms: "nplurals=6; plural=(n==0 ? 0 : n==1 ? 1 : n==2 ? 2 : n%100>=3 && n%100<=10 ? 3 : n%100>=11 ? 4 : 5);",
		Plurals:     6,
		RTL:         true,
	},
}

// GetLanguage returns the language for code. Matching ignores case and
// accepts locale forms such as "fa_IR" or "ar-EG".
func GetLanguage(code string) (Language, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if lang, ok := Languages[code]; ok {
		return lang, true
	}
	if i := strings.IndexAny(code, "_-"); i > 0 {
		lang, ok := Languages[code[:i]]
		return lang, ok
	}
	return Language{}, false
}

// DisplayName returns the English name of code, or code itself when unknown.
func DisplayName(code string) string {
	if lang, ok := GetLanguage(code); ok {
		return lang.Name
	}
	return code
}

// Codes returns the supported codes sorted alphabetically.
func Codes() []string {
	codes := make([]string, 0, len(Languages))
	for k := range Languages {
		codes = append(codes, k)
	}
	sort.Strings(codes)
	return codes
}

// GetSupportedLanguages returns supported languages sorted by Name.
func GetSupportedLanguages() []Language {
	entries := make([]Language, 0, len(Languages))
	for _, v := range Languages {
		entries = append(entries, v)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}
