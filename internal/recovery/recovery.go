// Package recovery persists the entries a run failed to translate so that
// 'potrans retry' can send exactly those again. The log is JSON and sits
// next to the translated catalog; every path inside it is relative to the
// log's own directory so the pair can be moved together.
package recovery

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/oukeidos/potrans/internal/files"
	"github.com/oukeidos/potrans/internal/language"
	"github.com/oukeidos/potrans/internal/metadata"
)

// Version is the log format written by this build.
const Version = 1

// Suffix is appended to the output catalog's base name to name its log.
const Suffix = "_recovery.json"

type Status string

const (
	StatusSuccess Status = "Success"
	StatusPartial Status = "Partial Success"
	StatusFailure Status = "Failure"
)

// StatusFor grades a run by how many of total entries failed.
func StatusFor(failed, total int) Status {
	switch {
	case failed == 0:
		return StatusSuccess
	case failed < total:
		return StatusPartial
	default:
		return StatusFailure
	}
}

// Failure is one entry that errored. Index is its position among the
// catalog's translatable entries; MsgCtxt and MsgID find it again if the
// catalog was edited in between.
type Failure struct {
	Index   int    `json:"index"`
	MsgCtxt string `json:"msgctxt,omitempty"`
	MsgID   string `json:"msgid"`
	Reason  string `json:"reason"`
}

// Sampling records the request settings of a run so a retry sends the same
// ones. Logs without it were written before it existed.
type Sampling struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"top_p"`
	TopK            int     `json:"top_k,omitempty"`
	MaxOutputTokens int     `json:"max_output_tokens,omitempty"`
}

// Log carries the settings of a run together with its failures.
type Log struct {
	Version               int       `json:"log_version"`
	RunID                 string    `json:"run_id,omitempty"`
	Input                 string    `json:"input_path"`
	Output                string    `json:"output_path"`
	OutputDigest          string    `json:"output_hash"`
	Provider              string    `json:"provider"`
	Model                 string    `json:"model"`
	TargetLang            string    `json:"target_lang"`
	Context               string    `json:"context,omitempty"`
	Sampling              *Sampling `json:"sampling,omitempty"`
	Overwrite             bool      `json:"overwrite"`
	TranslatePlaceholders bool      `json:"translate_placeholders"`
	MarkFuzzy             bool      `json:"mark_fuzzy"`
	Glossary              string    `json:"glossary_path,omitempty"`
	TotalEntries          int       `json:"total_entries"`
	Failures              []Failure `json:"failures"`
	Status                Status    `json:"status"`
}

// NewRunID returns a time-ordered id for tagging a run's log lines and
// its recovery log.
func NewRunID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// PathFor is the preferred log location for output. Create moves to a
// numbered sibling when it is taken.
func PathFor(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + Suffix
}

// Validate rejects logs this build cannot safely act on. Paths must stay
// relative, and the output must not escape the log's directory.
func (l *Log) Validate() error {
	if l.Version == 0 {
		l.Version = Version
	}
	if l.Version != Version {
		return fmt.Errorf("unsupported log_version: %d", l.Version)
	}
	if l.Input == "" {
		return errors.New("input_path is empty")
	}
	if l.Output == "" {
		return errors.New("output_path is empty")
	}
	for _, p := range []struct{ field, value string }{
		{"input_path", l.Input},
		{"output_path", l.Output},
		{"glossary_path", l.Glossary},
	} {
		if filepath.IsAbs(p.value) {
			return fmt.Errorf("%s must be relative, not absolute: %s", p.field, p.value)
		}
	}
	if sp := l.Sampling; sp != nil && (sp.Temperature < 0 || sp.TopP < 0 || sp.TopK < 0 || sp.MaxOutputTokens < 0) {
		return errors.New("sampling values cannot be negative")
	}
	if escapes(l.Output) {
		return fmt.Errorf("output_path cannot traverse parent directories: %s", l.Output)
	}
	if l.OutputDigest != "" && !strings.HasPrefix(l.OutputDigest, digestPrefix) {
		return fmt.Errorf("invalid output_hash: %s", l.OutputDigest)
	}
	if _, err := metadata.Models(l.Provider); err != nil {
		return fmt.Errorf("unsupported provider: %q", l.Provider)
	}
	if l.Model == "" {
		return errors.New("model name is empty")
	}
	if _, ok := language.GetLanguage(l.TargetLang); !ok {
		return fmt.Errorf("unsupported target language: %s", l.TargetLang)
	}
	if l.TotalEntries <= 0 {
		return fmt.Errorf("invalid total_entries: %d", l.TotalEntries)
	}
	if len(l.Failures) == 0 {
		return errors.New("failures list is empty")
	}
	for _, f := range l.Failures {
		if f.Index < 0 || f.Index >= l.TotalEntries {
			return fmt.Errorf("failed entry index out of range: %d", f.Index)
		}
	}
	if l.Status == "" {
		return errors.New("session status is empty")
	}
	return nil
}

// Indices lists the failed positions in log order.
func (l *Log) Indices() []int {
	out := make([]int, len(l.Failures))
	for i, f := range l.Failures {
		out[i] = f.Index
	}
	return out
}

// SetPaths stores input, output and glossary relative to logPath. The
// output has to live in or below the log's directory.
func (l *Log) SetPaths(logPath, input, output, glossary string) error {
	var err error
	if l.Input, err = relativeTo(logPath, input); err != nil {
		return fmt.Errorf("input path: %w", err)
	}
	if l.Output, err = relativeTo(logPath, output); err != nil {
		return fmt.Errorf("output path: %w", err)
	}
	if sp := l.Sampling; sp != nil && (sp.Temperature < 0 || sp.TopP < 0 || sp.TopK < 0 || sp.MaxOutputTokens < 0) {
		return errors.New("sampling values cannot be negative")
	}
	if escapes(l.Output) {
		return fmt.Errorf("output path %s is outside the log directory", output)
	}
	l.Glossary = ""
	if glossary != "" {
		if l.Glossary, err = relativeTo(logPath, glossary); err != nil {
			return fmt.Errorf("glossary path: %w", err)
		}
	}
	return nil
}

// Resolve turns a path stored in the log at logPath back into a usable one.
func Resolve(logPath, stored string) string {
	if stored == "" || filepath.IsAbs(stored) {
		return stored
	}
	return filepath.Join(filepath.Dir(logPath), stored)
}

func relativeTo(logPath, target string) (string, error) {
	dir, err := filepath.Abs(filepath.Dir(logPath))
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	return filepath.Rel(dir, abs)
}

func escapes(rel string) bool {
	rel = filepath.Clean(rel)
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Create writes a new log at path, or at a free sibling of it, and returns
// where it landed. An existing log is never replaced.
func Create(path string, l *Log) (string, error) {
	data, err := l.encode()
	if err != nil {
		return "", err
	}
	free, _, err := files.SafePath(path)
	if err != nil {
		return "", err
	}
	return files.AtomicWriteExclusive(free, data, 0600)
}

// Rewrite replaces the log at path, as after a retry that left failures.
func Rewrite(path string, l *Log) error {
	data, err := l.encode()
	if err != nil {
		return err
	}
	return files.AtomicWrite(path, data, 0600)
}

func (l *Log) encode() ([]byte, error) {
	if l.Version == 0 {
		l.Version = Version
	}
	return json.MarshalIndent(l, "", "  ")
}

// Load reads the log at path and returns it with the digest of the bytes
// read, so a later delete can check nobody rewrote the file meanwhile.
func Load(path string) (*Log, Digest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Digest{}, err
	}
	var l Log
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, Digest{}, fmt.Errorf("invalid recovery log: %w", err)
	}
	if l.Version == 0 {
		l.Version = Version
	}
	return &l, sha256.Sum256(data), nil
}

const digestPrefix = "sha256:"

// Digest is the SHA-256 of a file's contents.
type Digest [sha256.Size]byte

// String renders d the way output_hash stores it: "sha256:<hex>".
func (d Digest) String() string { return digestPrefix + hex.EncodeToString(d[:]) }

// DigestFile hashes the file at path.
func DigestFile(path string) (Digest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Digest{}, err
	}
	return sha256.Sum256(data), nil
}
