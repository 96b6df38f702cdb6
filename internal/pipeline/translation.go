package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oukeidos/potrans/internal/apperrors"
	"github.com/oukeidos/potrans/internal/catalog"
	"github.com/oukeidos/potrans/internal/files"
	"github.com/oukeidos/potrans/internal/logger"
	"github.com/oukeidos/potrans/internal/provider"
	"github.com/oukeidos/potrans/internal/recovery"
)

// RunFile loads cfg.InputPath, translates its entries and saves the result
// to cfg.OutputPath (derived from the input when empty). A stopped run
// writes nothing. Load, save and credential errors are returned; entry
// failures are reported in the Result.
func (r *Runner) RunFile(ctx context.Context, cfg Config) (Result, error) {
	ctx, end, err := r.begin(ctx)
	if err != nil {
		return Result{}, err
	}
	defer end()
	return r.runFile(ctx, cfg)
}

func (r *Runner) runFile(ctx context.Context, cfg Config) (Result, error) {
	cfg, err := prepare(cfg)
	if err == nil {
		err = cfg.ValidateFile()
	}
	if err != nil {
		return r.abort(cfg, Result{}, err)
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = catalog.OutputPath(cfg.InputPath)
	}
	if err := checkPaths(cfg); err != nil {
		return r.abort(cfg, Result{}, err)
	}

	if checker, ok := r.translator.(provider.CredentialChecker); ok && !cfg.SkipCredentialCheck {
		valid, msg := checker.ValidateCredentials(ctx)
		if !valid {
			return r.abort(cfg, Result{}, apperrors.New(apperrors.KindAuth, msg, nil))
		}
		logger.Debug("Credential check passed")
	}

	file, err := catalog.Load(cfg.InputPath)
	if err != nil {
		return r.abort(cfg, Result{}, err)
	}
	total, translated, fuzzy, untranslated := file.Stats()
	logger.Info("Loaded catalog", "run", cfg.RunID, "path", cfg.InputPath, "entries", total,
		"translated", translated, "fuzzy", fuzzy, "untranslated", untranslated)

	entries := file.Translatable()
	if len(cfg.Only) > 0 {
		entries, err = file.Subset(cfg.Only)
		if err != nil {
			return r.abort(cfg, Result{}, err)
		}
	}
	if cfg.Plurals < 1 {
		cfg.Plurals = file.Plurals()
	}

	res := r.run(ctx, entries, cfg)
	if len(cfg.Only) > 0 {
		// Report positions in the full view, not in the subset.
		for i := range res.Failures {
			res.Failures[i].Index = cfg.Only[res.Failures[i].Index]
		}
	}
	if res.State == StateStopped {
		r.complete(cfg, res)
		return res, nil
	}

	file.PrepareHeader(cfg.target(), cfg.Generator, time.Now())
	out := cfg.OutputPath
	if !cfg.ReplaceOutput {
		safe, changed, err := files.SafePath(out)
		if err != nil {
			return r.abort(cfg, res, fmt.Errorf("failed to resolve output path: %w", err))
		}
		if changed {
			logger.Warn("Output path adjusted to avoid overwrite", "original", out, "effective", safe)
			out = safe
		}
	}
	if err := file.Save(out); err != nil {
		return r.abort(cfg, res, err)
	}
	res.OutputPath = out
	cfg.Events.log(LevelSuccess, "💾 Translated file saved at "+out)
	logger.Info("Saved results", "path", out)

	if cfg.WriteRecoveryLog && res.Failed() {
		logPath, err := writeRecoveryLog(cfg, res, len(file.Translatable()))
		if err != nil {
			logger.Error("Failed to save recovery log", "error", err)
		} else {
			res.RecoveryLogPath = logPath
			logger.Warn("Some entries failed - recovery log saved", "path", logPath, "failures", len(res.Failures))
		}
	}

	r.complete(cfg, res)
	return res, nil
}

func (r *Runner) complete(cfg Config, res Result) {
	cfg.Events.complete(Completion{
		OutputPath: res.OutputPath,
		Failures:   res.Failures,
		Processed:  res.Processed,
		Total:      res.Total,
		Stopped:    res.State == StateStopped,
	})
}

// abort reports a fatal error to the sinks and ends the run as stopped.
func (r *Runner) abort(cfg Config, res Result, err error) (Result, error) {
	msg := apperrors.PublicMessage(err)
	cfg.Events.log(LevelError, "❌ Error: "+msg)
	logger.Error("Translation aborted", "error", msg)
	res.State = StateStopped
	res.OutputPath = ""
	r.state.Store(int32(StateStopped))
	r.complete(cfg, res)
	return res, err
}

// checkPaths refuses to write over the input catalog, except for in-place
// retries, and refuses symlinked outputs.
func checkPaths(cfg Config) error {
	absIn, err := filepath.Abs(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("failed to resolve input path: %w", err)
	}
	absOut, err := filepath.Abs(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}
	if len(cfg.Only) == 0 {
		if absIn == absOut {
			return fmt.Errorf("input and output files are the same (%s)", absIn)
		}
		if inInfo, err := os.Stat(absIn); err == nil {
			if outInfo, err := os.Stat(absOut); err == nil && os.SameFile(inInfo, outInfo) {
				return fmt.Errorf("input and output files are the same (%s)", absIn)
			}
		}
	}
	return files.RejectSymlinkPath(cfg.OutputPath)
}

func writeRecoveryLog(cfg Config, res Result, total int) (string, error) {
	logPath := recovery.PathFor(res.OutputPath)
	digest, err := recovery.DigestFile(res.OutputPath)
	if err != nil {
		return "", fmt.Errorf("failed to compute output hash: %w", err)
	}

	log := &recovery.Log{
		Version:               recovery.Version,
		RunID:                 cfg.RunID,
		OutputDigest:          digest.String(),
		Provider:              cfg.Provider,
		Model:                 cfg.Model,
		TargetLang:            cfg.TargetLang,
		Context:               cfg.Context,
		Sampling:              samplingOf(cfg.Params),
		Overwrite:             cfg.Overwrite,
		TranslatePlaceholders: cfg.TranslatePlaceholders,
		MarkFuzzy:             cfg.MarkFuzzy,
		TotalEntries:          total,
		Failures:              toFailedEntries(res.Failures),
		Status:                recovery.StatusFor(len(res.Failures), total),
	}
	if err := log.SetPaths(logPath, cfg.InputPath, res.OutputPath, cfg.GlossaryPath); err != nil {
		return "", err
	}
	return recovery.Create(logPath, log)
}

func samplingOf(p provider.Params) *recovery.Sampling {
	return &recovery.Sampling{
		Temperature:     p.Temperature,
		TopP:            p.TopP,
		TopK:            p.TopK,
		MaxOutputTokens: p.MaxOutputTokens,
	}
}

func toFailedEntries(failures []Failure) []recovery.Failure {
	out := make([]recovery.Failure, len(failures))
	for i, f := range failures {
		out[i] = recovery.Failure{Index: f.Index, MsgCtxt: f.MsgCtxt, MsgID: f.MsgID, Reason: f.Reason}
	}
	return out
}
