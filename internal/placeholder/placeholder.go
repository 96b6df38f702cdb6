// Package placeholder finds template tokens in UI strings and checks that a
// translation carries exactly the same tokens as its source.
package placeholder

import (
	"regexp"
	"sort"
	"strings"
)

// pattern matches printf verbs (%s, %d), positional verbs (%1$s), numeric and
// named brace variables ({0}, {name}), markup tags (<b>, </a>) and
// shortcodes ([gallery id="1"]). Alternatives are tried left to right.
var pattern = regexp.MustCompile(`%[sd]|%[0-9]\$[sd]|\{[0-9]+\}|\{[^{}]*?\}|<[^>]+?>|\[[^\]]+?\]`)

// Extract returns every placeholder token in text, sorted so that two
// results can be compared as multisets.
func Extract(text string) []string {
	found := pattern.FindAllString(text, -1)
	sort.Strings(found)
	return found
}

// Contains reports whether text holds at least one placeholder.
func Contains(text string) bool {
	return pattern.MatchString(text)
}

// Equal reports whether a and b carry the same placeholders, counting
// duplicates and ignoring order.
func Equal(a, b string) bool {
	pa, pb := Extract(a), Extract(b)
	if len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}

// Validate returns candidate when it preserves the placeholders of original,
// and original otherwise. There is no partial acceptance.
func Validate(original, candidate string) string {
	if Equal(original, candidate) {
		return candidate
	}
	return original
}

// Missing lists the tokens of original that candidate lacks, one per missing
// occurrence. It is used for diagnostics only.
func Missing(original, candidate string) []string {
	have := make(map[string]int)
	for _, tok := range Extract(candidate) {
		have[tok]++
	}
	var missing []string
	for _, tok := range Extract(original) {
		if have[tok] > 0 {
			have[tok]--
			continue
		}
		missing = append(missing, tok)
	}
	return missing
}

// Describe renders tokens for log lines, e.g. "%s, {0}".
func Describe(tokens []string) string {
	return strings.Join(tokens, ", ")
}
