package pipeline

import (
	"github.com/rivo/uniseg"
)

// LogLevel classifies a LogEntry.
type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelSuccess LogLevel = "success"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
)

// Progress is emitted once per visited entry.
type Progress struct {
	// Index is the entry's position in the run, starting at 0.
	Index   int
	Total   int
	Percent int
	// Chunk is 1-based.
	Chunk  int
	Chunks int
}

// LogEntry is a human-readable line about the run.
type LogEntry struct {
	Level   LogLevel
	Message string
}

// Preview carries one finished translation.
type Preview struct {
	Index      int
	Source     string
	Translated string
}

// Completion is emitted once when RunFile ends. OutputPath is empty when
// nothing was written.
type Completion struct {
	OutputPath string
	Failures   []Failure
	Processed  int
	Total      int
	Stopped    bool
}

// Events are the sinks a run reports to. Every callback is optional and is
// invoked synchronously on the goroutine running the pipeline, in entry
// order. Callbacks may call Runner.Stop.
type Events struct {
	OnProgress func(Progress)
	OnLog      func(LogEntry)
	OnPreview  func(Preview)
	OnComplete func(Completion)
}

func (e Events) progress(p Progress) {
	if e.OnProgress != nil {
		e.OnProgress(p)
	}
}

func (e Events) log(level LogLevel, msg string) {
	if e.OnLog != nil {
		e.OnLog(LogEntry{Level: level, Message: msg})
	}
}

func (e Events) preview(p Preview) {
	if e.OnPreview != nil {
		e.OnPreview(p)
	}
}

func (e Events) complete(c Completion) {
	if e.OnComplete != nil {
		e.OnComplete(c)
	}
}

const previewWidth = 60

// shorten cuts s to at most previewWidth grapheme clusters so log lines
// never split a combined character.
func shorten(s string) string {
	if uniseg.GraphemeClusterCount(s) <= previewWidth {
		return s
	}
	var (
		out   []byte
		n     int
		state = -1
		rest  = s
	)
	for len(rest) > 0 && n < previewWidth {
		var cluster string
		cluster, rest, _, state = uniseg.StepString(rest, state)
		out = append(out, cluster...)
		n++
	}
	return string(out) + "…"
}
