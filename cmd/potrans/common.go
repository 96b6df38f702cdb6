package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/oukeidos/potrans/internal/auth"
	"github.com/oukeidos/potrans/internal/cleanup"
	"github.com/oukeidos/potrans/internal/files"
	"github.com/oukeidos/potrans/internal/glossary"
	"github.com/oukeidos/potrans/internal/httpclient"
	"github.com/oukeidos/potrans/internal/language"
	"github.com/oukeidos/potrans/internal/logger"
	"github.com/oukeidos/potrans/internal/metadata"
	"github.com/oukeidos/potrans/internal/pipeline"
	"github.com/oukeidos/potrans/internal/prompt"
	"github.com/oukeidos/potrans/internal/provider"
	"github.com/oukeidos/potrans/internal/settings"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// providerClient is what the commands need from a provider connection.
type providerClient interface {
	provider.Translator
	provider.CredentialChecker
	ListRemoteModels(ctx context.Context) ([]provider.RemoteModel, error)
}

var (
	isTerminal   = term.IsTerminal
	getKey       = auth.GetKey
	getEnvKey    = auth.GetEnvKey
	getStatus    = auth.GetStatus
	promptForKey = auth.PromptForAPIKey
	loadSettings = settings.LoadDefault
	newConfirmer = prompt.DefaultConfirmer

	newProviderClient = func(cfg provider.Config) (providerClient, error) {
		c, err := provider.New(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
)

const sourcePrompt = "Terminal Prompt"

// resolveAPIKey finds the key for service and names where it came from.
// With envOnly only the environment is read. Otherwise the keychain wins,
// then the environment when allowEnv is set, then an interactive prompt.
func resolveAPIKey(service string, allowEnv, envOnly bool) (string, string, error) {
	fromEnv := func() (string, bool) {
		key, ok := getEnvKey(service)
		return key, ok && key != ""
	}

	if envOnly {
		if key, ok := fromEnv(); ok {
			return key, auth.SourceEnv, nil
		}
		return "", "", fmt.Errorf("--env-only is set but %s is empty", auth.EnvVar(service))
	}
	if key, source := getKey(service, false); key != "" {
		return key, source, nil
	}
	if allowEnv {
		if key, ok := fromEnv(); ok {
			return key, auth.SourceEnv, nil
		}
	}

	hint := fmt.Sprintf("run 'potrans env setup --service %s'", service)
	if !allowEnv {
		hint += " or pass --allow-env"
	}
	if !isTerminal(int(os.Stdin.Fd())) {
		return "", "", fmt.Errorf("no %s API key found and stdin is not a terminal; %s", displayName(service), hint)
	}
	entered, err := promptForKey(displayName(service) + " API Key (press Enter to skip): ")
	if err != nil {
		return "", "", fmt.Errorf("error reading API key: %w", err)
	}
	if key := strings.TrimSpace(entered); key != "" {
		return key, sourcePrompt, nil
	}
	return "", "", fmt.Errorf("no %s API key given; %s", displayName(service), hint)
}

func displayName(service string) string {
	if p, err := provider.ProfileFor(service); err == nil {
		return p.DisplayName()
	}
	return service
}

func resolveLanguageCode(input string) (string, error) {
	if lang, ok := language.GetLanguage(input); ok {
		return lang.Code, nil
	}
	needle := strings.TrimSpace(input)
	if needle == "" {
		return "", fmt.Errorf("language is empty")
	}
	for _, entry := range language.GetSupportedLanguages() {
		if strings.EqualFold(entry.Name, needle) {
			return entry.Code, nil
		}
	}
	return "", fmt.Errorf("unsupported language: %s (supported: %s)", input, strings.Join(language.Codes(), ", "))
}

func normalizeService(service string) (string, error) {
	svc := strings.ToLower(strings.TrimSpace(service))
	for _, s := range auth.Services() {
		if s == svc {
			return svc, nil
		}
	}
	return "", fmt.Errorf("invalid service %q. Must be one of: %s", service, strings.Join(auth.Services(), ", "))
}

// connectionOptions are the flags shared by every command that talks to a
// provider.
type connectionOptions struct {
	provider string
	model    string
	proxy    string
	baseURL  string
	allowEnv bool
	envOnly  bool
}

func addConnectionFlags(cmd *cobra.Command, opts *connectionOptions) {
	cmd.Flags().StringVar(&opts.provider, "provider", provider.OpenRouter, "Translation provider (openrouter or gemini)")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model name (default: the provider's first listed model)")
	cmd.Flags().StringVar(&opts.proxy, "proxy", "", "HTTP proxy URL (default: HTTP_PROXY/HTTPS_PROXY)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Override the provider API base URL")
	cmd.Flags().BoolVar(&opts.allowEnv, "allow-env", false, "Allow reading API key from environment variables")
	cmd.Flags().BoolVar(&opts.envOnly, "env-only", false, "Use only environment variables for API keys")
	flagGroup(cmd.Flags(), "Model", "provider", "model")
	flagGroup(cmd.Flags(), "Connection", "proxy", "base-url", "allow-env", "env-only")
}

// runOptions are the pacing and diagnostics flags shared by translate and
// retry.
type runOptions struct {
	concurrency int
	delay       time.Duration
	skipCheck   bool
	preview     bool
	logFilePath string
	debug       bool
}

func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	fs := cmd.Flags()
	fs.IntVar(&opts.concurrency, "concurrency", pipeline.MinConcurrency, fmt.Sprintf("Parallel API calls per chunk (%d-%d)", pipeline.MinConcurrency, pipeline.MaxConcurrency))
	fs.DurationVar(&opts.delay, "delay", pipeline.DefaultDelay, "Minimum spacing between API calls")
	fs.BoolVar(&opts.skipCheck, "skip-check", false, "Skip the API key check before translating")
	fs.BoolVar(&opts.preview, "preview", false, "Print each translation as it arrives")
	fs.StringVar(&opts.logFilePath, "log-file", "", "Append JSON Lines logs to this file")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flagGroup(fs, "Run", "concurrency", "delay", "skip-check", "preview", "log-file", "debug")
}

// applySettings fills flags the user did not set from saved preferences.
func (o *connectionOptions) applySettings(cmd *cobra.Command, s settings.Settings) {
	flags := cmd.Flags()
	if !flags.Changed("provider") && s.Provider != "" {
		o.provider = s.Provider
	}
	if !flags.Changed("model") && s.Model != "" {
		o.model = s.Model
	}
	if !flags.Changed("proxy") && s.Proxy != "" {
		o.proxy = s.Proxy
	}
	if !flags.Changed("base-url") && s.BaseURL != "" {
		o.baseURL = s.BaseURL
	}
	o.provider = strings.ToLower(strings.TrimSpace(o.provider))
	if o.model == "" {
		o.model = metadata.DefaultModel(o.provider)
	}
}

// connect resolves the key for o.provider and builds a client.
func connect(o connectionOptions, params provider.Params, gl *glossary.Glossary) (providerClient, error) {
	service, err := normalizeService(o.provider)
	if err != nil {
		return nil, err
	}
	httpClient, err := httpclient.New(httpclient.DefaultTimeout, o.proxy)
	if err != nil {
		return nil, err
	}
	key, source, err := resolveAPIKey(service, o.allowEnv, o.envOnly)
	if err != nil {
		return nil, err
	}
	logger.Info("Using API Key", "service", service, "source", source)

	return newProviderClient(provider.Config{
		Provider:   service,
		APIKey:     key,
		Model:      o.model,
		BaseURL:    o.baseURL,
		HTTPClient: httpClient,
		Params:     params,
		Glossary:   gl,
	})
}

// setupLogging initializes the logger on the command's stderr, with an
// optional JSONL copy appended to logFilePath.
func setupLogging(cmd *cobra.Command, level string, debug bool, logFilePath string) error {
	logLevel := logger.LevelInfo
	if level != "" {
		logLevel = logger.ParseLevel(level)
	}
	if debug {
		logLevel = logger.LevelDebug
	}
	var logFileW io.Writer
	if logFilePath != "" {
		if err := files.RejectSymlinkPath(logFilePath); err != nil {
			return err
		}
		f, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFileW = f
		cleanup.Register("log file", func() error {
			logger.InitWriter(cmd.ErrOrStderr(), logLevel, nil, false)
			return f.Close()
		})
	}
	color := logFileW == nil && cmd.ErrOrStderr() == os.Stderr && isTerminal(int(os.Stderr.Fd()))
	logger.InitWriter(cmd.ErrOrStderr(), logLevel, logFileW, color)
	return nil
}

func commandSettings() settings.Settings {
	s, err := loadSettings()
	if err != nil {
		logger.Warn("Ignoring saved settings", "error", err)
		return settings.Settings{}
	}
	return s
}

func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("Cancellation requested")
			cancel()
		case <-ctx.Done():
		}
	}()
	stop := func() {
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, stop
}

func formatDuration(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}
