package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oukeidos/potrans/internal/catalog"
	"github.com/oukeidos/potrans/internal/glossary"
	"github.com/oukeidos/potrans/internal/i18n"
	"github.com/oukeidos/potrans/internal/language"
	"github.com/oukeidos/potrans/internal/logger"
	"github.com/oukeidos/potrans/internal/pipeline"
	"github.com/oukeidos/potrans/internal/provider"
	"github.com/oukeidos/potrans/internal/settings"
	"github.com/oukeidos/potrans/internal/version"
	"github.com/spf13/cobra"
)

type translateOptions struct {
	connectionOptions
	runOptions

	targetLang            string
	context               string
	outputPath            string
	glossaryPath          string
	overwrite             bool
	translatePlaceholders bool
	markFuzzy             bool
	yes                   bool
	temperature           float64
	topP                  float64
	topK                  int
	maxTokens             int
	logLevel              string
}

func newTranslateCmd() *cobra.Command {
	opts := translateOptions{}
	cmd := &cobra.Command{
		Use:   "translate <input.po>",
		Short: "Translate a PO/POT catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				_ = cmd.Usage()
				return fmt.Errorf("input file is required")
			}
			return runTranslate(cmd, args, &opts)
		},
		SilenceUsage: true,
	}

	addTranslateFlags(cmd, &opts)
	return cmd
}

func addTranslateFlags(cmd *cobra.Command, opts *translateOptions) {
	addConnectionFlags(cmd, &opts.connectionOptions)
	defaults := provider.DefaultParams()
	cmd.Flags().StringVarP(&opts.targetLang, "target", "t", language.DefaultCode, "Target language code or name (e.g. fa, Arabic)")
	cmd.Flags().StringVar(&opts.context, "context", "", "Where the strings appear (default: \""+settings.DefaultContext+"\")")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file (default: <input>_translated.po)")
	cmd.Flags().StringVar(&opts.glossaryPath, "glossary", "", "Path to glossary JSON file")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "Re-translate entries that already have a translation")
	cmd.Flags().BoolVar(&opts.translatePlaceholders, "translate-placeholders", false, "Also send entries that contain placeholders")
	cmd.Flags().BoolVar(&opts.markFuzzy, "mark-fuzzy", false, "Flag machine translations as fuzzy")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Overwrite output file without asking")
	cmd.Flags().Float64Var(&opts.temperature, "temperature", defaults.Temperature, "Sampling temperature (0-2)")
	cmd.Flags().Float64Var(&opts.topP, "top-p", defaults.TopP, "Nucleus sampling probability (0-1)")
	cmd.Flags().IntVar(&opts.topK, "top-k", defaults.TopK, "Top-k sampling (0 = provider default)")
	cmd.Flags().IntVar(&opts.maxTokens, "max-tokens", defaults.MaxOutputTokens, "Maximum output tokens per entry")
	addRunFlags(cmd, &opts.runOptions)

	fs := cmd.Flags()
	flagGroup(fs, "Translation", "target", "context", "glossary", "overwrite", "translate-placeholders", "mark-fuzzy")
	flagGroup(fs, "Model", "temperature", "top-p", "top-k", "max-tokens")
	flagGroup(fs, "Output", "output", "yes")
}

// applySettings fills flags the user did not set from saved preferences.
func (o *translateOptions) applySettings(cmd *cobra.Command, s settings.Settings) {
	o.connectionOptions.applySettings(cmd, s)
	flags := cmd.Flags()
	if !flags.Changed("target") && s.TargetLang != "" {
		o.targetLang = s.TargetLang
	}
	if !flags.Changed("context") {
		o.context = s.EffectiveContext()
	}
	if !flags.Changed("glossary") && s.Glossary != "" {
		o.glossaryPath = s.Glossary
	}
	if !flags.Changed("overwrite") && s.Overwrite {
		o.overwrite = true
	}
	if !flags.Changed("translate-placeholders") && s.TranslatePlaceholders {
		o.translatePlaceholders = true
	}
	if !flags.Changed("mark-fuzzy") && s.MarkFuzzy {
		o.markFuzzy = true
	}
	if !flags.Changed("concurrency") && s.Concurrency > 0 {
		o.concurrency = s.Concurrency
	}
	if !flags.Changed("delay") && s.DelayMS > 0 {
		o.delay = time.Duration(s.DelayMS) * time.Millisecond
	}
	o.logLevel = s.LogLevel
}

func (o *translateOptions) params() provider.Params {
	return provider.Params{
		Temperature:     o.temperature,
		TopP:            o.topP,
		TopK:            o.topK,
		MaxOutputTokens: o.maxTokens,
	}
}

func runTranslate(cmd *cobra.Command, args []string, opts *translateOptions) error {
	if len(args) < 1 {
		return fmt.Errorf("input file is required")
	}
	if len(args) > 1 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: expected 1 argument but got %d. Did you forget quotes around the file path?\n", len(args))
		fmt.Fprintf(cmd.ErrOrStderr(), "  Using input: %s\n", args[0])
	}
	inputPath := args[0]

	opts.applySettings(cmd, commandSettings())
	if err := setupLogging(cmd, opts.logLevel, opts.debug, opts.logFilePath); err != nil {
		return err
	}

	target, err := resolveLanguageCode(opts.targetLang)
	if err != nil {
		return err
	}
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("cannot open catalog %s", inputPath)
	}

	var gl *glossary.Glossary
	if opts.glossaryPath != "" {
		gl, err = glossary.Load(opts.glossaryPath, target)
		if err != nil {
			return err
		}
		logger.Info("Loaded glossary", "path", opts.glossaryPath, "terms", gl.Len())
	}

	outputPath := opts.outputPath
	if outputPath == "" {
		outputPath = catalog.OutputPath(inputPath)
	}
	replace := confirmReplace(outputPath, opts.yes)

	client, err := connect(opts.connectionOptions, opts.params(), gl)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	cfg := pipeline.Config{
		InputPath:             inputPath,
		OutputPath:            outputPath,
		ReplaceOutput:         replace,
		Provider:              opts.provider,
		Model:                 opts.model,
		TargetLang:            target,
		Context:               opts.context,
		Params:                opts.params(),
		GlossaryPath:          opts.glossaryPath,
		Overwrite:             opts.overwrite,
		TranslatePlaceholders: opts.translatePlaceholders,
		MarkFuzzy:             opts.markFuzzy,
		Concurrency:           opts.concurrency,
		Delay:                 opts.delay,
		SkipCredentialCheck:   opts.skipCheck,
		WriteRecoveryLog:      true,
		Generator:             "potrans " + version.Version,
		Events:                consoleEvents(out, opts.preview),
	}

	ctx, stop := signalContext()
	defer stop()

	startTime := time.Now()
	runner := pipeline.NewRunner(client)
	result, err := runner.RunFile(ctx, cfg)
	if err != nil {
		return err
	}
	printSummary(out, result, time.Since(startTime))

	if result.RecoveryLogPath == "" {
		return nil
	}
	return offerRetry(ctx, cmd, runner, result, cfg)
}

// confirmReplace asks before replacing an existing output file. A declined
// or impossible confirmation keeps the file and writes a numbered sibling.
func confirmReplace(path string, yes bool) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	confirmed, err := newConfirmer().Confirm(i18n.T("Warning: Output file %s already exists. Overwrite?", path), yes)
	if err != nil {
		logger.Warn("Overwrite confirmation failed; writing to a new file", "error", err)
		return false
	}
	return confirmed
}

// offerRetry asks whether the failed entries should be sent again right
// away. Declining leaves the recovery log for 'potrans retry'.
func offerRetry(ctx context.Context, cmd *cobra.Command, runner *pipeline.Runner, result pipeline.Result, base pipeline.Config) error {
	out := cmd.OutOrStdout()
	confirmed, err := newConfirmer().ConfirmRetry(len(result.Failures), false)
	if err != nil || !confirmed {
		fmt.Fprintln(out, i18n.T("Run 'potrans retry %s' to retry the failed entries.", result.RecoveryLogPath))
		return nil
	}
	rt, err := pipeline.LoadRetry(result.RecoveryLogPath)
	if err != nil {
		return err
	}
	base.Events = consoleEvents(out, false)
	base.SkipCredentialCheck = true
	res, err := runner.RunRetry(ctx, rt, base)
	if err != nil {
		return err
	}
	printSummary(out, res, 0)
	return nil
}

// consoleEvents prints pipeline log lines to out. Progress goes to the
// debug log.
func consoleEvents(out io.Writer, preview bool) pipeline.Events {
	ev := pipeline.Events{
		OnLog: func(e pipeline.LogEntry) {
			fmt.Fprintln(out, e.Message)
		},
		OnProgress: func(p pipeline.Progress) {
			logger.Debug("Progress", "index", p.Index+1, "total", p.Total, "percent", p.Percent, "chunk", p.Chunk, "chunks", p.Chunks)
		},
	}
	if preview {
		ev.OnPreview = func(p pipeline.Preview) {
			fmt.Fprintf(out, "  %s\n  → %s\n", p.Source, p.Translated)
		}
	}
	return ev
}

func printSummary(out io.Writer, res pipeline.Result, elapsed time.Duration) {
	fmt.Fprintln(out)
	if res.State == pipeline.StateStopped {
		fmt.Fprintln(out, i18n.T("Stopped after %d of %d entries. Nothing was written.", res.Processed, res.Total))
		return
	}
	fmt.Fprintln(out, i18n.T("Processed %d of %d entries.", res.Processed, res.Total))
	if elapsed > 0 {
		fmt.Fprintln(out, i18n.T("Time: %s", formatDuration(elapsed)))
	}
	if res.OutputPath != "" {
		fmt.Fprintln(out, i18n.T("Output: %s", res.OutputPath))
	}
	if res.Failed() {
		fmt.Fprintln(out, i18n.N("%d entry failed.", "%d entries failed.", len(res.Failures), len(res.Failures)))
		if res.RecoveryLogPath != "" {
			fmt.Fprintln(out, i18n.T("Recovery log: %s", res.RecoveryLogPath))
		}
	}
}
