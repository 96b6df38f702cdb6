package pipeline

import (
	"fmt"
	"time"

	"github.com/oukeidos/potrans/internal/language"
	"github.com/oukeidos/potrans/internal/provider"
	"github.com/oukeidos/potrans/internal/recovery"
)

// Config holds everything a single run needs besides the translator.
type Config struct {
	// IO paths, used by RunFile and RunRetry only.
	InputPath  string
	OutputPath string
	// ReplaceOutput allows an existing OutputPath to be replaced. Otherwise
	// a numbered sibling path is chosen.
	ReplaceOutput bool

	// Provider and Model are recorded in the recovery log; Model is also
	// sent with every request when set.
	Provider   string
	TargetLang string
	// Context describes where the strings appear; empty means the default
	// UI context.
	Context string
	Model   string
	Params  provider.Params
	// GlossaryPath is recorded in the recovery log so a retry loads the same
	// terms.
	GlossaryPath string

	// Overwrite re-translates entries that already carry a translation.
	Overwrite bool
	// TranslatePlaceholders sends entries containing placeholders too.
	TranslatePlaceholders bool
	// MarkFuzzy flags every machine translation as fuzzy.
	MarkFuzzy bool

	// Concurrency is the number of API calls in flight within a chunk.
	Concurrency int
	// Delay is the minimum spacing between API calls.
	Delay time.Duration
	// Plurals is the number of plural forms of the target. Zero means the
	// catalog header or the language table decides.
	Plurals int

	// SkipCredentialCheck bypasses the pre-run key validation in RunFile.
	SkipCredentialCheck bool
	// Only restricts RunFile to these translatable-view indices.
	Only []int
	// WriteRecoveryLog makes RunFile save the failed entries next to the
	// output.
	WriteRecoveryLog bool
	// Generator is stamped into the X-Generator header.
	Generator string
	// RunID tags log lines and the recovery log. Normalize fills it in.
	RunID string

	Events Events
}

const (
	MinConcurrency = 1
	MaxConcurrency = 8
	DefaultDelay   = 200 * time.Millisecond
)

func ClampConcurrency(value int) (int, bool) {
	if value < MinConcurrency {
		return MinConcurrency, true
	}
	if value > MaxConcurrency {
		return MaxConcurrency, true
	}
	return value, false
}

// Normalize applies safe bounds to config values and returns any adjustments.
func (c Config) Normalize() (Config, []string) {
	var notes []string
	if clamped, changed := ClampConcurrency(c.Concurrency); changed {
		if c.Concurrency != 0 {
			notes = append(notes, fmt.Sprintf("concurrency clamped from %d to %d (max %d)", c.Concurrency, clamped, MaxConcurrency))
		}
		c.Concurrency = clamped
	}
	if c.Delay < 0 {
		notes = append(notes, fmt.Sprintf("delay %s is negative; using %s", c.Delay, DefaultDelay))
		c.Delay = DefaultDelay
	}
	if c.Delay == 0 {
		c.Delay = DefaultDelay
	}
	if c.Params == (provider.Params{}) {
		c.Params = provider.DefaultParams()
	}
	if lang, ok := language.GetLanguage(c.TargetLang); ok {
		c.TargetLang = lang.Code
	}
	if c.RunID == "" {
		c.RunID = recovery.NewRunID()
	}
	return c, notes
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if _, ok := language.GetLanguage(c.TargetLang); !ok {
		return fmt.Errorf("unsupported target language: %q (supported: %v)", c.TargetLang, language.Codes())
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be greater than 0, got %d", c.Concurrency)
	}
	if c.Params.Temperature < 0 || c.Params.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", c.Params.Temperature)
	}
	if c.Params.TopP < 0 || c.Params.TopP > 1 {
		return fmt.Errorf("top-p must be between 0 and 1, got %g", c.Params.TopP)
	}
	if c.Params.TopK < 0 {
		return fmt.Errorf("top-k must be 0 or greater, got %d", c.Params.TopK)
	}
	if c.Params.MaxOutputTokens < 0 {
		return fmt.Errorf("max tokens must be 0 or greater, got %d", c.Params.MaxOutputTokens)
	}
	return nil
}

// ValidateFile additionally checks the paths RunFile needs.
func (c Config) ValidateFile() error {
	if c.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	return c.Validate()
}

func (c Config) target() language.Language {
	lang, _ := language.GetLanguage(c.TargetLang)
	return lang
}
