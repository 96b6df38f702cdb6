package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/oukeidos/potrans/internal/apperrors"
	"github.com/oukeidos/potrans/internal/catalog"
	"github.com/oukeidos/potrans/internal/chunker"
	"github.com/oukeidos/potrans/internal/logger"
	"github.com/oukeidos/potrans/internal/placeholder"
	"github.com/oukeidos/potrans/internal/provider"
)

// ErrAlreadyRunning is returned when a run is started on a busy Runner.
var ErrAlreadyRunning = errors.New("a translation is already running")

// Runner drives one translation run at a time over catalog entries.
type Runner struct {
	translator provider.Translator

	running   atomic.Bool
	state     atomic.Int32
	processed atomic.Int64
	total     atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewRunner returns an idle runner that translates through tr.
func NewRunner(tr provider.Translator) *Runner {
	return &Runner{translator: tr}
}

// State returns the current lifecycle state.
func (r *Runner) State() State { return State(r.state.Load()) }

// Processed returns how many entries the current or last run visited.
func (r *Runner) Processed() int { return int(r.processed.Load()) }

// Total returns the entry count of the current or last run.
func (r *Runner) Total() int { return int(r.total.Load()) }

// Stop cancels the active run. The entry being translated finishes in the
// background and its result is discarded. Stop is a no-op when idle.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// Pause is Stop. Resuming means starting a new run over the entries that
// are still untranslated.
func (r *Runner) Pause() { r.Stop() }

func (r *Runner) begin(parent context.Context) (context.Context, func(), error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, nil, ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(parent)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	r.state.Store(int32(StateRunning))
	r.processed.Store(0)
	r.total.Store(0)

	end := func() {
		r.mu.Lock()
		r.cancel = nil
		r.mu.Unlock()
		cancel()
		r.running.Store(false)
	}
	return ctx, end, nil
}

func prepare(cfg Config) (Config, error) {
	cfg, notes := cfg.Normalize()
	for _, note := range notes {
		logger.Warn("Config normalized", "detail", note)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Run translates entries in place. The entries are mutated directly, so
// passing the view of a loaded catalog updates that catalog. Recorded
// failures do not make Run return an error; only a busy runner or an
// invalid configuration does.
func (r *Runner) Run(ctx context.Context, entries []*catalog.Entry, cfg Config) (Result, error) {
	ctx, end, err := r.begin(ctx)
	if err != nil {
		return Result{}, err
	}
	defer end()

	cfg, err = prepare(cfg)
	if err != nil {
		r.state.Store(int32(StateIdle))
		return Result{}, err
	}
	return r.run(ctx, entries, cfg), nil
}

// session is the mutable state of one run.
type session struct {
	r       *Runner
	cfg     Config
	limiter *rate.Limiter
	plurals int
	chunk   int
	chunks  int
	res     Result
}

// outcome is the answer for one entry. plural is only set for plural
// entries.
type outcome struct {
	singular string
	plural   string
	err      error
}

type skipKind int

const (
	noSkip skipKind = iota
	skipEmpty
	skipTranslated
	skipPlaceholder
)

func (r *Runner) run(ctx context.Context, entries []*catalog.Entry, cfg Config) Result {
	plurals := cfg.Plurals
	if plurals < 1 {
		plurals = cfg.target().Plurals
	}
	if plurals < 1 {
		plurals = 2
	}

	chunks := chunker.Split(entries)
	s := &session{
		r:       r,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.Delay), 1),
		plurals: plurals,
		chunks:  len(chunks),
		res:     Result{Total: len(entries)},
	}
	r.total.Store(int64(len(entries)))

	cfg.Events.log(LevelInfo, "🚀 Translation started...")
	logger.Info("Translation started",
		"entries", len(entries),
		"chunks", len(chunks),
		"target", cfg.TargetLang,
		"concurrency", cfg.Concurrency,
	)

	stopped := false
	for _, ch := range chunks {
		if ctx.Err() != nil {
			stopped = true
			break
		}
		s.chunk = ch.Index + 1
		cfg.Events.log(LevelInfo, fmt.Sprintf("🔄 Processing chunk %d/%d...", s.chunk, s.chunks))
		if cfg.Concurrency > 1 {
			stopped = s.runParallel(ctx, ch)
		} else {
			stopped = s.runSequential(ctx, ch)
		}
		if stopped {
			break
		}
	}

	if stopped {
		s.res.State = StateStopped
		cfg.Events.log(LevelWarning, "⛔ Translation stopped")
		logger.Info("Translation stopped", "processed", s.res.Processed, "total", s.res.Total)
	} else {
		s.res.State = StateCompleted
		logger.Info("Translation finished", "processed", s.res.Processed, "failures", len(s.res.Failures))
	}
	r.state.Store(int32(s.res.State))
	return s.res
}

func (s *session) runSequential(ctx context.Context, ch chunker.Chunk[*catalog.Entry]) bool {
	for i, e := range ch.Target {
		if ctx.Err() != nil {
			return true
		}
		idx := ch.Start + i
		if kind := s.classify(e); kind != noSkip {
			s.skip(idx, e, kind)
			continue
		}
		s.cfg.Events.log(LevelInfo, fmt.Sprintf("🔄 Translating '%s'...", shorten(e.MsgID)))
		out := s.translate(ctx, e)
		if ctx.Err() != nil {
			// Stopped while the call was in flight.
			return true
		}
		s.apply(idx, e, out)
	}
	return false
}

// runParallel issues the chunk's API calls concurrently, then applies the
// results and emits events in entry order.
func (s *session) runParallel(ctx context.Context, ch chunker.Chunk[*catalog.Entry]) bool {
	outcomes := make([]outcome, len(ch.Target))
	started := make([]bool, len(ch.Target))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, e := range ch.Target {
		if s.classify(e) != noSkip {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		started[i] = true
		g.Go(func() error {
			outcomes[i] = s.translate(ctx, e)
			return nil
		})
	}
	_ = g.Wait()

	for i, e := range ch.Target {
		if ctx.Err() != nil {
			return true
		}
		idx := ch.Start + i
		if kind := s.classify(e); kind != noSkip {
			s.skip(idx, e, kind)
			continue
		}
		if !started[i] {
			return true
		}
		s.cfg.Events.log(LevelInfo, fmt.Sprintf("🔄 Translating '%s'...", shorten(e.MsgID)))
		s.apply(idx, e, outcomes[i])
	}
	return false
}

func (s *session) classify(e *catalog.Entry) skipKind {
	switch {
	case strings.TrimSpace(e.MsgID) == "":
		return skipEmpty
	case e.HasTranslation() && !s.cfg.Overwrite:
		return skipTranslated
	case !s.cfg.TranslatePlaceholders && (placeholder.Contains(e.MsgID) || placeholder.Contains(e.MsgIDPlural)):
		return skipPlaceholder
	default:
		return noSkip
	}
}

func (s *session) skip(idx int, e *catalog.Entry, kind skipKind) {
	switch kind {
	case skipEmpty:
		if e.IsPlural() {
			e.SetPluralTranslation(e.MsgID, e.MsgIDPlural, s.plurals)
		} else {
			e.SetTranslation(e.MsgID)
		}
		s.cfg.Events.log(LevelInfo, "ℹ️ Empty text")
	case skipTranslated:
		s.cfg.Events.log(LevelInfo, fmt.Sprintf("⏩ Skipped '%s' (unchanged)", shorten(e.MsgID)))
	case skipPlaceholder:
		s.cfg.Events.log(LevelInfo, fmt.Sprintf("⏩ Skipped '%s' due to variables", shorten(e.MsgID)))
	}
	s.advance(idx)
}

// translate sends the entry's texts. The calls run detached from ctx so a
// Stop never aborts a request half way; ctx only gates the pacing wait.
func (s *session) translate(ctx context.Context, e *catalog.Entry) outcome {
	var out outcome
	out.singular, out.err = s.call(ctx, e.MsgID)
	if out.err != nil || !e.IsPlural() {
		return out
	}
	out.plural, out.err = s.call(ctx, e.MsgIDPlural)
	return out
}

func (s *session) call(ctx context.Context, text string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return text, err
	}
	return s.r.translator.Translate(context.WithoutCancel(ctx), provider.Request{
		Text:       text,
		TargetLang: s.cfg.TargetLang,
		Model:      s.cfg.Model,
		Context:    s.cfg.Context,
		Params:     s.cfg.Params,
	})
}

func (s *session) apply(idx int, e *catalog.Entry, out outcome) {
	if out.err != nil {
		reason := apperrors.PublicMessage(out.err)
		s.res.Failures = append(s.res.Failures, Failure{
			Index:   idx,
			MsgID:   e.MsgID,
			MsgCtxt: e.MsgCtxt,
			Reason:  reason,
		})
		s.cfg.Events.log(LevelError, "❌ Error: "+reason)
		logger.Warn("Entry translation failed", "index", idx, "error", reason)
		s.advance(idx)
		return
	}

	if e.IsPlural() {
		e.SetPluralTranslation(out.singular, out.plural, s.plurals)
	} else {
		e.SetTranslation(out.singular)
	}
	e.SetFuzzy(s.cfg.MarkFuzzy)
	if !s.cfg.MarkFuzzy {
		e.ClearPrevious()
	}
	s.cfg.Events.log(LevelSuccess, fmt.Sprintf("✅ Translated: '%s'", shorten(out.singular)))
	s.advance(idx)
	s.cfg.Events.preview(Preview{Index: idx, Source: e.MsgID, Translated: out.singular})
}

func (s *session) advance(idx int) {
	s.res.Processed++
	s.r.processed.Store(int64(s.res.Processed))
	total := s.res.Total
	percent := 100
	if total > 0 {
		percent = (idx + 1) * 100 / total
	}
	s.cfg.Events.progress(Progress{
		Index:   idx,
		Total:   total,
		Percent: percent,
		Chunk:   s.chunk,
		Chunks:  s.chunks,
	})
}
