// Package glossary loads fixed term translations that are injected into
// translation prompts.
//
// A glossary file is a JSON array keyed by language code:
//
//	[{"en": "Dashboard", "fa": "پیشخوان"}, {"en": "Post", "fa": "نوشته"}]
package glossary

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/oukeidos/potrans/internal/language"
)

// SourceCode is the language of catalog msgids.
const SourceCode = "en"

// Term is one source-to-target mapping.
type Term struct {
	Source string
	Target string
}

// Glossary is an ordered set of terms for one target language.
type Glossary struct {
	Target string
	Terms  []Term
}

func normalizeCode(code string) (string, error) {
	lang, ok := language.GetLanguage(code)
	if !ok {
		return "", fmt.Errorf("unsupported language: %s", code)
	}
	return lang.Code, nil
}

// Decode parses glossary JSON for targetCode. Entries without a value for
// the target are skipped; entries without a source are an error.
func Decode(data []byte, targetCode string) (*Glossary, error) {
	targetKey, err := normalizeCode(targetCode)
	if err != nil {
		return nil, err
	}
	var raw []map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	g := &Glossary{Target: targetKey}
	seen := make(map[string]bool, len(raw))
	for i, entry := range raw {
		src := strings.TrimSpace(entry[SourceCode])
		if src == "" {
			return nil, fmt.Errorf("entry %d: missing source field %q", i, SourceCode)
		}
		tgt := strings.TrimSpace(entry[targetKey])
		if tgt == "" || seen[strings.ToLower(src)] {
			continue
		}
		seen[strings.ToLower(src)] = true
		g.Terms = append(g.Terms, Term{Source: src, Target: tgt})
	}
	// Longer terms first so "Post Type" is listed before "Post".
	sort.SliceStable(g.Terms, func(i, j int) bool {
		return len(g.Terms[i].Source) > len(g.Terms[j].Source)
	})
	return g, nil
}

// Load reads a glossary file for targetCode.
func Load(path, targetCode string) (*Glossary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read glossary file %s: %w", path, err)
	}
	g, err := Decode(data, targetCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse glossary file %s: %w", path, err)
	}
	return g, nil
}

// Relevant returns the terms that occur in text, ignoring case.
func (g *Glossary) Relevant(text string) []Term {
	if g == nil || len(g.Terms) == 0 {
		return nil
	}
	lower := strings.ToLower(text)
	var out []Term
	for _, t := range g.Terms {
		if strings.Contains(lower, strings.ToLower(t.Source)) {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of terms.
func (g *Glossary) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Terms)
}
