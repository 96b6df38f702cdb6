package main

import (
	"fmt"
	"time"

	"github.com/oukeidos/potrans/internal/glossary"
	"github.com/oukeidos/potrans/internal/i18n"
	"github.com/oukeidos/potrans/internal/logger"
	"github.com/oukeidos/potrans/internal/pipeline"
	"github.com/oukeidos/potrans/internal/version"
	"github.com/spf13/cobra"
)

type retryOptions struct {
	runOptions

	proxy    string
	baseURL  string
	allowEnv bool
	envOnly  bool
}

func newRetryCmd() *cobra.Command {
	opts := retryOptions{}
	cmd := &cobra.Command{
		Use:   "retry <recovery.json>",
		Short: "Re-translate the failed entries listed in a recovery log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				_ = cmd.Usage()
				return fmt.Errorf("recovery log path is required")
			}
			return runRetry(cmd, args, &opts)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&opts.proxy, "proxy", "", "HTTP proxy URL (default: HTTP_PROXY/HTTPS_PROXY)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Override the provider API base URL")
	cmd.Flags().BoolVar(&opts.allowEnv, "allow-env", false, "Allow reading API key from environment variables")
	cmd.Flags().BoolVar(&opts.envOnly, "env-only", false, "Use only environment variables for API keys")
	addRunFlags(cmd, &opts.runOptions)
	flagGroup(cmd.Flags(), "Connection", "proxy", "base-url", "allow-env", "env-only")
	return cmd
}

func runRetry(cmd *cobra.Command, args []string, opts *retryOptions) error {
	s := commandSettings()
	if err := setupLogging(cmd, s.LogLevel, opts.debug, opts.logFilePath); err != nil {
		return err
	}

	rt, err := pipeline.LoadRetry(args[0])
	if err != nil {
		return err
	}
	logger.Info("Loaded recovery log", "path", rt.LogPath, "failed_entries", len(rt.Log.Failures), "output", rt.OutputPath)

	var gl *glossary.Glossary
	if rt.GlossaryPath != "" {
		gl, err = glossary.Load(rt.GlossaryPath, rt.Log.TargetLang)
		if err != nil {
			return err
		}
	}

	conn := connectionOptions{
		provider: rt.Log.Provider,
		model:    rt.Log.Model,
		proxy:    opts.proxy,
		baseURL:  opts.baseURL,
		allowEnv: opts.allowEnv,
		envOnly:  opts.envOnly,
	}
	if !cmd.Flags().Changed("proxy") {
		conn.proxy = s.Proxy
	}
	if !cmd.Flags().Changed("base-url") && s.Provider == rt.Log.Provider {
		conn.baseURL = s.BaseURL
	}
	client, err := connect(conn, rt.Params(), gl)
	if err != nil {
		return err
	}

	concurrency := opts.concurrency
	if !cmd.Flags().Changed("concurrency") && s.Concurrency > 0 {
		concurrency = s.Concurrency
	}
	delay := opts.delay
	if !cmd.Flags().Changed("delay") && s.DelayMS > 0 {
		delay = time.Duration(s.DelayMS) * time.Millisecond
	}

	out := cmd.OutOrStdout()
	base := pipeline.Config{
		Params:              rt.Params(),
		Concurrency:         concurrency,
		Delay:               delay,
		SkipCredentialCheck: opts.skipCheck,
		Generator:           "potrans " + version.Version,
		Events:              consoleEvents(out, opts.preview),
	}

	ctx, stop := signalContext()
	defer stop()

	startTime := time.Now()
	result, err := pipeline.NewRunner(client).RunRetry(ctx, rt, base)
	if err != nil {
		return err
	}
	printSummary(out, result, time.Since(startTime))
	if result.State == pipeline.StateCompleted && !result.Failed() {
		fmt.Fprintln(out, i18n.T("All failed entries were translated."))
	}
	return nil
}
