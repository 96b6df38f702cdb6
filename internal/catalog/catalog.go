// Package catalog reads and writes GNU gettext PO/POT catalogs.
package catalog

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/oukeidos/potrans/internal/apperrors"
	"github.com/oukeidos/potrans/internal/files"
	"github.com/oukeidos/potrans/internal/language"
)

const (
	// MaxCatalogBytes caps the size of a catalog accepted by Load.
	MaxCatalogBytes = 64 * 1024 * 1024
	// TranslatedSuffix is inserted before the extension of output files.
	TranslatedSuffix = "_translated"

	maxLineBytes = 4 * 1024 * 1024
)

var nplurals = regexp.MustCompile(`nplurals\s*=\s*(\d+)`)

// File is a parsed catalog: an optional header entry plus ordered entries.
type File struct {
	Header  *Entry
	Entries []*Entry
}

// NewFile creates an empty catalog with an empty header.
func NewFile() *File {
	return &File{Header: &Entry{}}
}

// Translatable returns the non-obsolete entries in file order. The returned
// pointers alias the catalog, so mutations are saved with it.
func (f *File) Translatable() []*Entry {
	out := make([]*Entry, 0, len(f.Entries))
	for _, e := range f.Entries {
		if e.Obsolete {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Subset returns the Translatable entries at indices, in the given order.
func (f *File) Subset(indices []int) ([]*Entry, error) {
	view := f.Translatable()
	out := make([]*Entry, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(view) {
			return nil, fmt.Errorf("entry index %d out of range (catalog has %d entries)", idx, len(view))
		}
		out = append(out, view[idx])
	}
	return out, nil
}

// Find returns the index in Translatable of the entry with msgctxt and
// msgid, or -1.
func (f *File) Find(msgctxt, msgid string) int {
	for i, e := range f.Translatable() {
		if e.MsgID == msgid && e.MsgCtxt == msgctxt {
			return i
		}
	}
	return -1
}

// Stats returns translation statistics over Translatable entries.
func (f *File) Stats() (total, translated, fuzzy, untranslated int) {
	for _, e := range f.Translatable() {
		total++
		switch {
		case e.IsFuzzy():
			fuzzy++
		case e.IsTranslated():
			translated++
		default:
			untranslated++
		}
	}
	return
}

// HeaderField returns a header field value by name.
func (f *File) HeaderField(name string) string {
	if f.Header == nil {
		return ""
	}
	for _, line := range strings.Split(f.Header.MsgStr, "\n") {
		if idx := strings.Index(line, ":"); idx > 0 {
			if strings.EqualFold(strings.TrimSpace(line[:idx]), name) {
				return strings.TrimSpace(line[idx+1:])
			}
		}
	}
	return ""
}

// SetHeaderField sets a header field value, appending it when missing.
func (f *File) SetHeaderField(name, value string) {
	if f.Header == nil {
		f.Header = &Entry{}
	}
	lines := strings.Split(f.Header.MsgStr, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, ":"); idx > 0 && strings.EqualFold(strings.TrimSpace(line[:idx]), name) {
			lines[i] = name + ": " + value
			f.Header.MsgStr = strings.Join(lines, "\n")
			return
		}
	}
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = append(lines[:n-1], name+": "+value, "")
	} else {
		lines = append(lines, name+": "+value, "")
	}
	f.Header.MsgStr = strings.Join(lines, "\n")
}

// Plurals returns nplurals from the Plural-Forms header, or 0 when absent.
func (f *File) Plurals() int {
	m := nplurals.FindStringSubmatch(f.HeaderField("Plural-Forms"))
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// PrepareHeader stamps the header for a catalog translated into lang.
// Plural-Forms is only written when the catalog has none, so a
// hand-tuned expression survives.
func (f *File) PrepareHeader(lang language.Language, generator string, now time.Time) {
	if f.HeaderField("Content-Type") == "" {
		f.SetHeaderField("Content-Type", "text/plain; charset=UTF-8")
	}
	f.SetHeaderField("Language", lang.Locale)
	if f.HeaderField("Plural-Forms") == "" && lang.PluralForms != "" {
		f.SetHeaderField("Plural-Forms", lang.PluralForms)
	}
	f.SetHeaderField("PO-Revision-Date", now.UTC().Format("2006-01-02 15:04+0000"))
	if generator != "" {
		f.SetHeaderField("X-Generator", generator)
	}
}

// OutputPath derives the path translated output is written to:
// "plugin-fa.po" becomes "plugin-fa_translated.po", a template "plugin.pot"
// becomes "plugin_translated.po", and a name without extension gets
// "_translated.po" appended.
func OutputPath(input string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	switch strings.ToLower(ext) {
	case "", ".pot":
		ext = ".po"
	}
	return base + TranslatedSuffix + ext
}

// Load reads and parses a catalog from disk.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, apperrors.New(apperrors.KindStorage, fmt.Sprintf("cannot open catalog %s", filepath.Base(path)), err)
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if info.IsDir() {
		return nil, apperrors.New(apperrors.KindStorage, fmt.Sprintf("%s is a directory", path), nil)
	}
	if info.Size() > MaxCatalogBytes {
		return nil, apperrors.New(apperrors.KindStorage, fmt.Sprintf("catalog too large (limit %d bytes)", MaxCatalogBytes), nil)
	}

	f, err := Parse(fh)
	if err != nil {
		return nil, apperrors.New(apperrors.KindStorage, fmt.Sprintf("cannot parse catalog %s: %v", filepath.Base(path), err), err)
	}
	return f, nil
}

// Save writes the catalog to path atomically.
func (f *File) Save(path string) error {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return apperrors.Storage(err)
	}
	if err := files.AtomicWrite(path, buf.Bytes(), 0644); err != nil {
		return apperrors.New(apperrors.KindStorage, fmt.Sprintf("cannot write catalog %s", filepath.Base(path)), err)
	}
	return nil
}

type field int

const (
	fieldNone field = iota
	fieldCtxt
	fieldID
	fieldIDPlural
	fieldStr
	fieldStrPlural
	fieldPrevCtxt
	fieldPrevID
	fieldPrevIDPlural
)

// Parse reads a PO/POT catalog.
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		current   *Entry
		last      field
		prevLast  field
		pluralIdx int
		lineNum   int
		sawMsgID  bool
	)

	flush := func() error {
		defer func() {
			current = nil
			last = fieldNone
			prevLast = fieldNone
			sawMsgID = false
		}()
		if current == nil {
			return nil
		}
		if !sawMsgID {
			// Comment-only block; attach nothing.
			return nil
		}
		if current.MsgID == "" && current.MsgCtxt == "" && !current.Obsolete && f.Header == nil && len(f.Entries) == 0 {
			f.Header = current
			return nil
		}
		if current.MsgID == "" && !current.Obsolete {
			return fmt.Errorf("line %d: entry with empty msgid", lineNum)
		}
		f.Entries = append(f.Entries, current)
		return nil
	}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}

		obsolete := false
		if strings.HasPrefix(line, "#~") {
			obsolete = true
			line = strings.TrimPrefix(strings.TrimPrefix(line, "#~"), " ")
			if strings.HasPrefix(line, "|") {
				line = "#" + line
			}
		}

		// A keyword after a msgstr starts a new entry even without a blank line.
		if current != nil && (last == fieldStr || last == fieldStrPlural) && startsEntry(line) {
			if err := flush(); err != nil {
				return nil, err
			}
		}

		if current == nil {
			current = &Entry{}
		}
		if obsolete {
			current.Obsolete = true
		}

		if strings.HasPrefix(line, "#|") {
			if err := parsePrevious(current, strings.TrimSpace(line[2:]), &prevLast); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			parseComment(current, line)
			continue
		}

		switch {
		case strings.HasPrefix(line, "msgctxt "):
			current.MsgCtxt = unquote(line[len("msgctxt "):])
			last = fieldCtxt
		case strings.HasPrefix(line, "msgid_plural "):
			current.MsgIDPlural = unquote(line[len("msgid_plural "):])
			last = fieldIDPlural
		case strings.HasPrefix(line, "msgid "):
			current.MsgID = unquote(line[len("msgid "):])
			sawMsgID = true
			last = fieldID
		case strings.HasPrefix(line, "msgstr["):
			end := strings.Index(line, "]")
			if end < 0 {
				return nil, fmt.Errorf("line %d: invalid msgstr index: %s", lineNum, line)
			}
			idx, err := strconv.Atoi(line[len("msgstr["):end])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("line %d: invalid msgstr index: %s", lineNum, line)
			}
			if current.MsgStrPlural == nil {
				current.MsgStrPlural = make(map[int]string)
			}
			current.MsgStrPlural[idx] = unquote(line[end+1:])
			pluralIdx = idx
			last = fieldStrPlural
		case strings.HasPrefix(line, "msgstr "):
			current.MsgStr = unquote(line[len("msgstr "):])
			last = fieldStr
		case strings.HasPrefix(strings.TrimSpace(line), `"`):
			val := unquote(line)
			switch last {
			case fieldCtxt:
				current.MsgCtxt += val
			case fieldID:
				current.MsgID += val
			case fieldIDPlural:
				current.MsgIDPlural += val
			case fieldStr:
				current.MsgStr += val
			case fieldStrPlural:
				current.MsgStrPlural[pluralIdx] += val
			default:
				return nil, fmt.Errorf("line %d: string continuation without keyword", lineNum)
			}
		default:
			return nil, fmt.Errorf("line %d: unexpected content: %q", lineNum, truncate(line, 40))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if f.Header == nil {
		f.Header = &Entry{}
	}
	return f, nil
}

func startsEntry(line string) bool {
	return strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "msgctxt ") ||
		strings.HasPrefix(line, "msgid ")
}

func parseComment(e *Entry, line string) {
	switch {
	case strings.HasPrefix(line, "#:"):
		e.References = append(e.References, strings.TrimSpace(line[2:]))
	case strings.HasPrefix(line, "#,"):
		for _, flag := range strings.Split(line[2:], ",") {
			if flag = strings.TrimSpace(flag); flag != "" {
				e.Flags = append(e.Flags, flag)
			}
		}
	case strings.HasPrefix(line, "#."):
		e.ExtractedComments = append(e.ExtractedComments, strings.TrimSpace(line[2:]))
	default:
		e.TranslatorComments = append(e.TranslatorComments, strings.TrimPrefix(line[1:], " "))
	}
}

// parsePrevious reads one "#|" line. Continuations append to the keyword
// last seen on a "#|" line of the same entry.
func parsePrevious(e *Entry, prev string, last *field) error {
	switch {
	case strings.HasPrefix(prev, "msgctxt "):
		e.PreviousMsgCtxt = unquote(prev[len("msgctxt "):])
		*last = fieldPrevCtxt
	case strings.HasPrefix(prev, "msgid_plural "):
		e.PreviousMsgIDPlural = unquote(prev[len("msgid_plural "):])
		*last = fieldPrevIDPlural
	case strings.HasPrefix(prev, "msgid "):
		e.PreviousMsgID = unquote(prev[len("msgid "):])
		*last = fieldPrevID
	case strings.HasPrefix(prev, `"`):
		val := unquote(prev)
		switch *last {
		case fieldPrevCtxt:
			e.PreviousMsgCtxt += val
		case fieldPrevID:
			e.PreviousMsgID += val
		case fieldPrevIDPlural:
			e.PreviousMsgIDPlural += val
		default:
			return fmt.Errorf("previous-string continuation without keyword")
		}
	default:
		return fmt.Errorf("unexpected previous-string line: %q", truncate(prev, 40))
	}
	return nil
}

// Write serializes the catalog.
func (f *File) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	first := true
	if f.Header != nil && (f.Header.MsgStr != "" || len(f.Header.TranslatorComments) > 0 || len(f.Header.Flags) > 0) {
		writeEntry(bw, f.Header)
		first = false
	}
	for _, e := range f.Entries {
		if !first {
			bw.WriteString("\n")
		}
		first = false
		writeEntry(bw, e)
	}
	return bw.Flush()
}

func writeEntry(w *bufio.Writer, e *Entry) {
	prefix := ""
	if e.Obsolete {
		prefix = "#~ "
	}
	for _, c := range e.TranslatorComments {
		if c == "" {
			w.WriteString("#\n")
			continue
		}
		fmt.Fprintf(w, "# %s\n", c)
	}
	for _, c := range e.ExtractedComments {
		fmt.Fprintf(w, "#. %s\n", c)
	}
	for _, ref := range e.References {
		fmt.Fprintf(w, "#: %s\n", ref)
	}
	if len(e.Flags) > 0 {
		fmt.Fprintf(w, "#, %s\n", strings.Join(e.Flags, ", "))
	}
	marker := "#| "
	if e.Obsolete {
		marker = "#~| "
	}
	if e.PreviousMsgCtxt != "" {
		writeQuoted(w, marker, "msgctxt", e.PreviousMsgCtxt)
	}
	if e.PreviousMsgID != "" {
		writeQuoted(w, marker, "msgid", e.PreviousMsgID)
	}
	if e.PreviousMsgIDPlural != "" {
		writeQuoted(w, marker, "msgid_plural", e.PreviousMsgIDPlural)
	}
	if e.MsgCtxt != "" {
		writeQuoted(w, prefix, "msgctxt", e.MsgCtxt)
	}
	writeQuoted(w, prefix, "msgid", e.MsgID)
	if e.IsPlural() {
		writeQuoted(w, prefix, "msgid_plural", e.MsgIDPlural)
		indices := e.pluralIndices()
		if len(indices) == 0 {
			indices = []int{0, 1}
		}
		for _, idx := range indices {
			writeQuoted(w, prefix, fmt.Sprintf("msgstr[%d]", idx), e.MsgStrPlural[idx])
		}
		return
	}
	writeQuoted(w, prefix, "msgstr", e.MsgStr)
}

// writeQuoted writes a keyword and its value, splitting after each newline
// the way msgmerge does.
func writeQuoted(w *bufio.Writer, prefix, keyword, value string) {
	if !strings.Contains(value, "\n") || value == "\n" {
		fmt.Fprintf(w, "%s%s %s\n", prefix, keyword, quote(value))
		return
	}
	fmt.Fprintf(w, "%s%s \"\"\n", prefix, keyword)
	parts := strings.SplitAfter(value, "\n")
	for _, part := range parts {
		if part == "" {
			continue
		}
		fmt.Fprintf(w, "%s%s\n", prefix, quote(part))
	}
}

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '\\', '"':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
