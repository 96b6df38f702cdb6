package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oukeidos/potrans/internal/apperrors"
	"github.com/oukeidos/potrans/internal/catalog"
	"github.com/oukeidos/potrans/internal/provider"
	"github.com/oukeidos/potrans/internal/recovery"
)

const pluginPO = `msgid ""
msgstr ""
"Project-Id-Version: Demo 1.0\n"
"Content-Type: text/plain; charset=UTF-8\n"

#: admin.php:10
msgid "Add New"
msgstr ""

msgctxt "button"
msgid "Settings"
msgstr "تنظیمات"

msgid "Delete"
msgstr ""

#~ msgid "Old string"
#~ msgstr ""
`

func writeCatalog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// checkingTranslator adds a credential check to fakeTranslator.
type checkingTranslator struct {
	fakeTranslator
	valid bool
}

func (c *checkingTranslator) ValidateCredentials(ctx context.Context) (bool, string) {
	if c.valid {
		return true, "API key valid"
	}
	return false, "Invalid API key: OpenRouter rejected the API key (HTTP 401)."
}

func fileConfig(input string) Config {
	cfg := fastConfig()
	cfg.InputPath = input
	cfg.Provider = "openrouter"
	cfg.Model = "deepseek/deepseek-v3:free"
	cfg.Generator = "potrans test"
	return cfg
}

func TestRunFile_WritesTranslatedCatalog(t *testing.T) {
	input := writeCatalog(t, "plugin-fa.po", pluginPO)
	tr := &checkingTranslator{valid: true}

	var completions []Completion
	cfg := fileConfig(input)
	cfg.Events.OnComplete = func(c Completion) { completions = append(completions, c) }

	res, err := NewRunner(tr).RunFile(context.Background(), cfg)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	want := filepath.Join(filepath.Dir(input), "plugin-fa_translated.po")
	if res.OutputPath != want {
		t.Fatalf("OutputPath = %q, want %q", res.OutputPath, want)
	}
	if len(completions) != 1 || completions[0].OutputPath != want || completions[0].Stopped {
		t.Fatalf("unexpected completions: %+v", completions)
	}
	if res.Total != 3 || res.Processed != 3 {
		t.Fatalf("obsolete entries must be excluded: %+v", res)
	}

	out, err := catalog.Load(want)
	if err != nil {
		t.Fatalf("Load output: %v", err)
	}
	view := out.Translatable()
	if view[0].MsgStr != "fa:Add New" || view[1].MsgStr != "تنظیمات" || view[2].MsgStr != "fa:Delete" {
		t.Fatalf("unexpected output entries: %q %q %q", view[0].MsgStr, view[1].MsgStr, view[2].MsgStr)
	}
	if out.HeaderField("Language") != "fa_IR" || out.HeaderField("X-Generator") != "potrans test" {
		t.Fatalf("header not prepared: %q", out.Header.MsgStr)
	}
	if !strings.Contains(out.HeaderField("Plural-Forms"), "nplurals=2") {
		t.Fatalf("plural forms missing: %q", out.HeaderField("Plural-Forms"))
	}

	src, err := os.ReadFile(input)
	if err != nil || string(src) != pluginPO {
		t.Fatalf("input catalog must not change")
	}
}

func TestRunFile_StoppedWritesNothing(t *testing.T) {
	input := writeCatalog(t, "plugin.pot", pluginPO)
	runner := NewRunner(&fakeTranslator{})

	var completion *Completion
	cfg := fileConfig(input)
	cfg.Events.OnProgress = func(Progress) { runner.Stop() }
	cfg.Events.OnComplete = func(c Completion) { completion = &c }

	res, err := runner.RunFile(context.Background(), cfg)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if res.State != StateStopped || res.OutputPath != "" || res.Processed != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if completion == nil || completion.OutputPath != "" || !completion.Stopped || completion.Processed != 1 {
		t.Fatalf("unexpected completion: %+v", completion)
	}
	if _, err := os.Stat(catalog.OutputPath(input)); !os.IsNotExist(err) {
		t.Fatalf("stopped run wrote output: %v", err)
	}
}

func TestRunFile_CredentialCheck(t *testing.T) {
	input := writeCatalog(t, "plugin.po", pluginPO)
	tr := &checkingTranslator{valid: false}

	var logs []LogEntry
	var completion *Completion
	cfg := fileConfig(input)
	cfg.Events.OnLog = func(l LogEntry) { logs = append(logs, l) }
	cfg.Events.OnComplete = func(c Completion) { completion = &c }

	_, err := NewRunner(tr).RunFile(context.Background(), cfg)
	if !apperrors.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if tr.callCount() != 0 {
		t.Fatalf("no translation may happen with a bad key")
	}
	if completion == nil || completion.OutputPath != "" {
		t.Fatalf("expected completion with empty path, got %+v", completion)
	}
	if len(logs) == 0 || logs[len(logs)-1].Level != LevelError || !strings.Contains(logs[len(logs)-1].Message, "Invalid API key") {
		t.Fatalf("expected error log, got %+v", logs)
	}

	cfg.SkipCredentialCheck = true
	if _, err := NewRunner(tr).RunFile(context.Background(), cfg); err != nil {
		t.Fatalf("RunFile with skipped check: %v", err)
	}
}

func TestRunFile_FatalErrors(t *testing.T) {
	dir := t.TempDir()
	existing := writeCatalog(t, "plugin.po", pluginPO)
	garbage := writeCatalog(t, "broken.po", "this is not a catalog\n")

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"missing input", fileConfig(filepath.Join(dir, "missing.po")), "cannot open catalog"},
		{"unparsable input", fileConfig(garbage), "cannot parse catalog"},
		{"same input and output", func() Config {
			c := fileConfig(existing)
			c.OutputPath = existing
			return c
		}(), "input and output files are the same"},
		{"no input", fileConfig(""), "input path is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var completed bool
			tt.cfg.Events.OnComplete = func(c Completion) { completed = c.OutputPath == "" }
			_, err := NewRunner(&fakeTranslator{}).RunFile(context.Background(), tt.cfg)
			if err == nil || !strings.Contains(apperrors.PublicMessage(err), tt.wantErr) {
				t.Fatalf("RunFile() error = %v, want %q", err, tt.wantErr)
			}
			if !completed {
				t.Fatalf("expected completion with empty path")
			}
		})
	}
}

func TestRunFile_DoesNotClobberExistingOutput(t *testing.T) {
	input := writeCatalog(t, "plugin.po", pluginPO)
	existing := catalog.OutputPath(input)
	if err := os.WriteFile(existing, []byte("keep"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	res, err := NewRunner(&fakeTranslator{}).RunFile(context.Background(), fileConfig(input))
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if res.OutputPath == existing || !strings.HasSuffix(res.OutputPath, "plugin_translated_1.po") {
		t.Fatalf("OutputPath = %q", res.OutputPath)
	}
	if data, _ := os.ReadFile(existing); string(data) != "keep" {
		t.Fatalf("existing output replaced")
	}

	cfg := fileConfig(input)
	cfg.ReplaceOutput = true
	res, err = NewRunner(&fakeTranslator{}).RunFile(context.Background(), cfg)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if res.OutputPath != existing {
		t.Fatalf("ReplaceOutput should reuse %q, got %q", existing, res.OutputPath)
	}
}

func TestRunFile_RecoveryLogAndRetry(t *testing.T) {
	input := writeCatalog(t, "plugin.po", pluginPO)
	failing := &fakeTranslator{fail: map[string]error{
		"Delete": apperrors.FromStatus("OpenRouter", 503, errors.New("overloaded")),
	}}

	cfg := fileConfig(input)
	cfg.WriteRecoveryLog = true
	cfg.Params = provider.Params{Temperature: 0.2, TopP: 0.5, TopK: 40, MaxOutputTokens: 512}
	res, err := NewRunner(failing).RunFile(context.Background(), cfg)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if res.RecoveryLogPath == "" || len(res.Failures) != 1 || res.Failures[0].Index != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	log, _, err := recovery.Load(res.RecoveryLogPath)
	if err != nil {
		t.Fatalf("recovery.Load: %v", err)
	}
	if log.Status != recovery.StatusPartial || log.TotalEntries != 3 || log.Failures[0].MsgID != "Delete" {
		t.Fatalf("unexpected log: %+v", log)
	}

	rt, err := LoadRetry(res.RecoveryLogPath)
	if err != nil {
		t.Fatalf("LoadRetry: %v", err)
	}
	if rt.OutputPath != res.OutputPath {
		t.Fatalf("retry output = %q, want %q", rt.OutputPath, res.OutputPath)
	}
	if got := rt.Config(fastConfig()).Params; got != cfg.Params {
		t.Fatalf("retry params = %+v, want %+v", got, cfg.Params)
	}

	ok := &fakeTranslator{}
	retryRes, err := NewRunner(ok).RunRetry(context.Background(), rt, fastConfig())
	if err != nil {
		t.Fatalf("RunRetry: %v", err)
	}
	if retryRes.Failed() || retryRes.OutputPath != res.OutputPath {
		t.Fatalf("unexpected retry result: %+v", retryRes)
	}
	if ok.callCount() != 1 || ok.calls[0] != "Delete" {
		t.Fatalf("retry must only send failed entries, sent %v", ok.calls)
	}
	if _, err := os.Stat(res.RecoveryLogPath); !os.IsNotExist(err) {
		t.Fatalf("recovery log should be removed after a clean retry")
	}

	out, err := catalog.Load(res.OutputPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	view := out.Translatable()
	if view[0].MsgStr != "fa:Add New" || view[2].MsgStr != "fa:Delete" {
		t.Fatalf("retry lost earlier work: %q %q", view[0].MsgStr, view[2].MsgStr)
	}
}

func TestRetryParams_DefaultsForOlderLogs(t *testing.T) {
	rt := &Retry{Log: &recovery.Log{}}
	if got := rt.Params(); got != provider.DefaultParams() {
		t.Fatalf("Params() = %+v, want defaults", got)
	}
}

func TestRunRetry_KeepsRemainingFailures(t *testing.T) {
	input := writeCatalog(t, "plugin.po", pluginPO)
	failing := &fakeTranslator{fail: map[string]error{
		"Add New": apperrors.FromStatus("Gemini", 500, errors.New("x")),
		"Delete":  apperrors.FromStatus("Gemini", 500, errors.New("x")),
	}}

	cfg := fileConfig(input)
	cfg.WriteRecoveryLog = true
	res, err := NewRunner(failing).RunFile(context.Background(), cfg)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	rt, err := LoadRetry(res.RecoveryLogPath)
	if err != nil {
		t.Fatalf("LoadRetry: %v", err)
	}

	stillFailing := &fakeTranslator{fail: map[string]error{
		"Delete": apperrors.FromStatus("Gemini", 500, errors.New("x")),
	}}
	retryRes, err := NewRunner(stillFailing).RunRetry(context.Background(), rt, fastConfig())
	if err != nil {
		t.Fatalf("RunRetry: %v", err)
	}
	if len(retryRes.Failures) != 1 || retryRes.Failures[0].Index != 2 {
		t.Fatalf("failure index must refer to the full catalog: %+v", retryRes.Failures)
	}
	log, _, err := recovery.Load(res.RecoveryLogPath)
	if err != nil {
		t.Fatalf("recovery log should be kept: %v", err)
	}
	if len(log.Failures) != 1 || log.Failures[0].MsgID != "Delete" {
		t.Fatalf("log not updated: %+v", log.Failures)
	}
}

func TestLoadRetry_Rejects(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad_recovery.json")
	if err := os.WriteFile(bad, []byte(`{"log_version": 1, "input_path": "a.po", "output_path": "../b.po"}`), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadRetry(bad); err == nil || !strings.Contains(err.Error(), "invalid recovery log") {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := LoadRetry(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected load error")
	}
}
