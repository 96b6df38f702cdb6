package catalog

import (
	"sort"
	"strings"
)

const fuzzyFlag = "fuzzy"

// Entry is one message of a catalog. Fields other than the msgstr ones are
// carried through untouched on save.
type Entry struct {
	TranslatorComments []string
	ExtractedComments  []string
	References         []string
	Flags              []string

	// Previous* hold the "#|" lines msgmerge leaves on fuzzy entries.
	PreviousMsgCtxt     string
	PreviousMsgID       string
	PreviousMsgIDPlural string

	MsgCtxt     string
	MsgID       string
	MsgIDPlural string
	MsgStr      string
	// MsgStrPlural maps plural form index to translated string.
	MsgStrPlural map[int]string

	Obsolete bool
}

// IsPlural reports whether the entry has a msgid_plural.
func (e *Entry) IsPlural() bool {
	return e.MsgIDPlural != ""
}

// HasTranslation reports whether any translation text is present, fuzzy or
// not. This is the test used to decide whether an entry may be overwritten;
// a msgstr holding only whitespace counts as empty.
func (e *Entry) HasTranslation() bool {
	if e.IsPlural() {
		for _, v := range e.MsgStrPlural {
			if strings.TrimSpace(v) != "" {
				return true
			}
		}
		return false
	}
	return strings.TrimSpace(e.MsgStr) != ""
}

// IsTranslated reports whether the entry is fully translated and not fuzzy.
func (e *Entry) IsTranslated() bool {
	if e.MsgID == "" || e.IsFuzzy() {
		return false
	}
	if e.IsPlural() {
		if len(e.MsgStrPlural) == 0 {
			return false
		}
		for _, v := range e.MsgStrPlural {
			if v == "" {
				return false
			}
		}
		return true
	}
	return e.MsgStr != ""
}

// Translation returns msgstr, or msgstr[0] for plural entries.
func (e *Entry) Translation() string {
	if e.IsPlural() {
		return e.MsgStrPlural[0]
	}
	return e.MsgStr
}

// SetTranslation sets msgstr. For plural entries every form receives s.
func (e *Entry) SetTranslation(s string) {
	if !e.IsPlural() {
		e.MsgStr = s
		return
	}
	n := len(e.MsgStrPlural)
	if n == 0 {
		n = 2
	}
	e.SetPluralTranslation(s, s, n)
}

// SetPluralTranslation fills msgstr[0] with singular and msgstr[1..n-1]
// with plural. n below 1 is treated as 1.
func (e *Entry) SetPluralTranslation(singular, plural string, n int) {
	if n < 1 {
		n = 1
	}
	forms := make(map[int]string, n)
	forms[0] = singular
	for i := 1; i < n; i++ {
		forms[i] = plural
	}
	e.MsgStrPlural = forms
}

// ClearTranslation empties all msgstr values, keeping plural slots.
func (e *Entry) ClearTranslation() {
	e.MsgStr = ""
	for k := range e.MsgStrPlural {
		e.MsgStrPlural[k] = ""
	}
}

// ClearPrevious drops the "#|" fields once the translation is confirmed.
func (e *Entry) ClearPrevious() {
	e.PreviousMsgCtxt = ""
	e.PreviousMsgID = ""
	e.PreviousMsgIDPlural = ""
}

// IsFuzzy returns true if the entry is marked fuzzy.
func (e *Entry) IsFuzzy() bool {
	return e.HasFlag(fuzzyFlag)
}

// SetFuzzy adds or removes the fuzzy flag.
func (e *Entry) SetFuzzy(fuzzy bool) {
	if fuzzy {
		if !e.IsFuzzy() {
			e.Flags = append(e.Flags, fuzzyFlag)
		}
		return
	}
	filtered := e.Flags[:0]
	for _, f := range e.Flags {
		if f != fuzzyFlag {
			filtered = append(filtered, f)
		}
	}
	e.Flags = filtered
}

// HasFlag checks if a specific flag is present.
func (e *Entry) HasFlag(flag string) bool {
	for _, f := range e.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

func (e *Entry) pluralIndices() []int {
	indices := make([]int, 0, len(e.MsgStrPlural))
	for idx := range e.MsgStrPlural {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}
