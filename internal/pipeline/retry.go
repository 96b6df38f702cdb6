package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/oukeidos/potrans/internal/catalog"
	"github.com/oukeidos/potrans/internal/files"
	"github.com/oukeidos/potrans/internal/logger"
	"github.com/oukeidos/potrans/internal/provider"
	"github.com/oukeidos/potrans/internal/recovery"
)

// Retry is a loaded recovery log with its paths resolved against the log's
// directory.
type Retry struct {
	LogPath      string
	Log          *recovery.Log
	OutputPath   string
	InputPath    string
	GlossaryPath string

	digest recovery.Digest
}

// LoadRetry reads and validates the recovery log at logPath.
func LoadRetry(logPath string) (*Retry, error) {
	if logPath == "" {
		return nil, fmt.Errorf("log file path is required for retry")
	}
	if err := files.RejectSymlinkPath(logPath); err != nil {
		return nil, err
	}
	log, digest, err := recovery.Load(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load recovery log: %w", err)
	}
	if err := log.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recovery log: %w", err)
	}

	rt := &Retry{
		LogPath:      logPath,
		Log:          log,
		OutputPath:   recovery.Resolve(logPath, log.Output),
		InputPath:    recovery.Resolve(logPath, log.Input),
		GlossaryPath: recovery.Resolve(logPath, log.Glossary),
		digest:       digest,
	}
	if _, err := os.Stat(rt.OutputPath); err != nil {
		return nil, fmt.Errorf("invalid recovery log: output file not found: %s", log.Output)
	}
	if rt.GlossaryPath != "" {
		if _, err := os.Stat(rt.GlossaryPath); err != nil {
			return nil, fmt.Errorf("invalid recovery log: glossary_path not found: %s", log.Glossary)
		}
	}
	return rt, nil
}

// Config returns base with the run settings of the logged session applied.
// The output catalog is both read and rewritten, so earlier successes are
// kept.
func (rt *Retry) Config(base Config) Config {
	cfg := base
	cfg.InputPath = rt.OutputPath
	cfg.OutputPath = rt.OutputPath
	cfg.ReplaceOutput = true
	cfg.WriteRecoveryLog = false
	cfg.Provider = rt.Log.Provider
	cfg.Model = rt.Log.Model
	cfg.TargetLang = rt.Log.TargetLang
	cfg.Context = rt.Log.Context
	cfg.Params = rt.Params()
	cfg.Overwrite = rt.Log.Overwrite
	cfg.TranslatePlaceholders = rt.Log.TranslatePlaceholders
	cfg.MarkFuzzy = rt.Log.MarkFuzzy
	cfg.GlossaryPath = rt.GlossaryPath
	cfg.Only = rt.Log.Indices()
	if rt.Log.RunID != "" {
		cfg.RunID = rt.Log.RunID
	}
	return cfg
}

// Params returns the sampling settings of the logged run, or the defaults
// when the log predates them.
func (rt *Retry) Params() provider.Params {
	sp := rt.Log.Sampling
	if sp == nil {
		return provider.DefaultParams()
	}
	return provider.Params{
		Temperature:     sp.Temperature,
		TopP:            sp.TopP,
		TopK:            sp.TopK,
		MaxOutputTokens: sp.MaxOutputTokens,
	}
}

// resolveIndices maps logged failures onto the current output catalog.
// When the catalog changed since the log was written, entries are found
// again by msgctxt and msgid; failures that no longer exist are dropped.
func (rt *Retry) resolveIndices() ([]int, error) {
	current, err := recovery.DigestFile(rt.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compute output hash: %w", err)
	}
	if rt.Log.OutputDigest == "" || current.String() == rt.Log.OutputDigest {
		return rt.Log.Indices(), nil
	}

	logger.Warn("Output catalog changed since the failed run; matching entries by msgid", "path", rt.OutputPath)
	file, err := catalog.Load(rt.OutputPath)
	if err != nil {
		return nil, err
	}
	view := file.Translatable()
	var indices []int
	for _, f := range rt.Log.Failures {
		if f.Index < len(view) && view[f.Index].MsgID == f.MsgID && view[f.Index].MsgCtxt == f.MsgCtxt {
			indices = append(indices, f.Index)
			continue
		}
		if idx := file.Find(f.MsgCtxt, f.MsgID); idx >= 0 {
			indices = append(indices, idx)
			continue
		}
		logger.Warn("Failed entry no longer in catalog; skipping", "msgid", f.MsgID, "msgctxt", f.MsgCtxt)
	}
	return indices, nil
}

// RunRetry re-translates the failed entries of rt into its output catalog.
// The log is deleted when every entry succeeds and rewritten with the
// remaining failures otherwise.
func (r *Runner) RunRetry(ctx context.Context, rt *Retry, base Config) (Result, error) {
	ctx, end, err := r.begin(ctx)
	if err != nil {
		return Result{}, err
	}
	defer end()

	cfg := rt.Config(base)
	indices, err := rt.resolveIndices()
	if err != nil {
		return r.abort(cfg, Result{}, err)
	}
	if len(indices) == 0 {
		logger.Info("Nothing left to retry", "log", rt.LogPath)
		r.removeLog(rt)
		r.state.Store(int32(StateCompleted))
		res := Result{State: StateCompleted, OutputPath: rt.OutputPath}
		r.complete(cfg, res)
		return res, nil
	}
	cfg.Only = indices

	logger.Info("Starting retry", "run", rt.Log.RunID, "model", cfg.Model, "failed_entries", len(indices))
	res, err := r.runFile(ctx, cfg)
	if err != nil || res.State == StateStopped {
		return res, err
	}

	if !res.Failed() {
		logger.Info("Retry finished", "status", recovery.StatusFor(0, rt.Log.TotalEntries))
		r.removeLog(rt)
		return res, nil
	}

	status := recovery.StatusFor(len(res.Failures), rt.Log.TotalEntries)
	logger.Info("Retry finished", "status", status)
	rt.Log.Failures = toFailedEntries(res.Failures)
	rt.Log.Status = status
	if digest, err := recovery.DigestFile(rt.OutputPath); err == nil {
		rt.Log.OutputDigest = digest.String()
	}
	if err := recovery.Rewrite(rt.LogPath, rt.Log); err != nil {
		logger.Error("Failed to update recovery log", "error", err)
	} else {
		logger.Warn("Partial retry - recovery log updated", "path", rt.LogPath)
		res.RecoveryLogPath = rt.LogPath
	}
	return res, nil
}

func (r *Runner) removeLog(rt *Retry) {
	if current, err := recovery.DigestFile(rt.LogPath); err != nil {
		logger.Warn("Failed to read recovery log for verification", "path", rt.LogPath, "error", err)
	} else if current != rt.digest {
		logger.Warn("Recovery log content changed; skipping delete", "path", rt.LogPath)
	} else if err := os.Remove(rt.LogPath); err != nil {
		logger.Warn("Failed to remove recovery log after success", "path", rt.LogPath, "error", err)
	}
}
