package recovery

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func validLog() *Log {
	return &Log{
		Version:      Version,
		RunID:        NewRunID(),
		Input:        "plugin.pot",
		Output:       "plugin_translated.po",
		OutputDigest: "sha256:dummy",
		Provider:     "openrouter",
		Model:        "deepseek/deepseek-v3:free",
		TargetLang:   "fa",
		TotalEntries: 4,
		Failures: []Failure{
			{Index: 1, MsgID: "Save", Reason: "OpenRouter rate limit exceeded (HTTP 429), try again later."},
			{Index: 3, MsgCtxt: "menu", MsgID: "Open", Reason: "The translation request timed out."},
		},
		Status: StatusPartial,
	}
}

func TestPathFor(t *testing.T) {
	got := PathFor(filepath.Join("lang", "plugin-fa_IR.po"))
	if want := filepath.Join("lang", "plugin-fa_IR_recovery.json"); got != want {
		t.Fatalf("PathFor = %q, want %q", got, want)
	}
}

func TestCreate_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugin_translated_recovery.json")
	written, err := Create(path, validLog())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if written != path {
		t.Fatalf("Create wrote %q, want %q", written, path)
	}

	loaded, digest, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Failures) != 2 || loaded.Failures[1].MsgCtxt != "menu" || loaded.Status != StatusPartial {
		t.Fatalf("log did not round-trip: %+v", loaded)
	}
	if onDisk, err := DigestFile(path); err != nil || onDisk != digest {
		t.Fatalf("digest mismatch: %v %v", onDisk, err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if mode := info.Mode().Perm(); mode != 0600 {
			t.Errorf("permissions = %o, want 0600", mode)
		}
	}
}

func TestCreate_NeverReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out_recovery.json")

	first, err := Create(path, validLog())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := Create(path, validLog())
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if first != path || second != filepath.Join(dir, "out_recovery_1.json") {
		t.Fatalf("paths = %q, %q", first, second)
	}
}

func TestRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out_recovery.json")
	l := validLog()
	if _, err := Create(path, l); err != nil {
		t.Fatalf("Create: %v", err)
	}
	l.Failures = l.Failures[:1]
	if err := Rewrite(path, l); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	loaded, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := loaded.Indices(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("Indices() = %v, want [1]", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := Load(filepath.Join(dir, "missing.json")); !os.IsNotExist(err) {
		t.Fatalf("missing file: %v", err)
	}
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(bad); err == nil || !strings.Contains(err.Error(), "invalid recovery log") {
		t.Fatalf("bad json: %v", err)
	}

	legacy := filepath.Join(dir, "legacy.json")
	if err := os.WriteFile(legacy, []byte(`{"input_path":"a.po"}`), 0600); err != nil {
		t.Fatal(err)
	}
	l, _, err := Load(legacy)
	if err != nil || l.Version != Version {
		t.Fatalf("missing log_version should default to %d: %+v, %v", Version, l, err)
	}
}

func TestValidate(t *testing.T) {
	if err := validLog().Validate(); err != nil {
		t.Fatalf("valid log rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Log)
		wantErr string
	}{
		{"empty input", func(l *Log) { l.Input = "" }, "input_path is empty"},
		{"empty output", func(l *Log) { l.Output = "" }, "output_path is empty"},
		{"absolute output", func(l *Log) { l.Output = filepath.Join(string(filepath.Separator), "etc", "out.po") }, "output_path must be relative"},
		{"traversal", func(l *Log) { l.Output = filepath.Join("..", "..", "out.po") }, "cannot traverse parent directories"},
		{"absolute glossary", func(l *Log) { l.Glossary = filepath.Join(string(filepath.Separator), "g.yaml") }, "glossary_path must be relative"},
		{"newer version", func(l *Log) { l.Version = Version + 1 }, "unsupported log_version"},
		{"unknown provider", func(l *Log) { l.Provider = "openai" }, "unsupported provider"},
		{"empty model", func(l *Log) { l.Model = "" }, "model name is empty"},
		{"unknown target", func(l *Log) { l.TargetLang = "de" }, "unsupported target language"},
		{"no entries", func(l *Log) { l.TotalEntries = 0 }, "invalid total_entries"},
		{"no failures", func(l *Log) { l.Failures = nil }, "failures list is empty"},
		{"index out of range", func(l *Log) { l.Failures[0].Index = 4 }, "out of range"},
		{"bad digest", func(l *Log) { l.OutputDigest = "md5:x" }, "invalid output_hash"},
		{"no status", func(l *Log) { l.Status = "" }, "status is empty"},
		{"negative sampling", func(l *Log) { l.Sampling = &Sampling{Temperature: -1} }, "sampling values cannot be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := validLog()
			tt.mutate(l)
			if err := l.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		failed, total int
		want          Status
	}{
		{0, 5, StatusSuccess},
		{2, 5, StatusPartial},
		{5, 5, StatusFailure},
	}
	for _, c := range cases {
		if got := StatusFor(c.failed, c.total); got != c.want {
			t.Errorf("StatusFor(%d, %d) = %q, want %q", c.failed, c.total, got, c.want)
		}
	}
}

func TestSetPathsAndResolve(t *testing.T) {
	base := t.TempDir()
	logPath := filepath.Join(base, "out_recovery.json")
	input := filepath.Join(base, "src", "plugin.pot")
	output := filepath.Join(base, "out.po")
	glossary := filepath.Join(base, "..", "shared", "terms.yaml")

	l := validLog()
	if err := l.SetPaths(logPath, input, output, glossary); err != nil {
		t.Fatalf("SetPaths: %v", err)
	}
	for _, p := range []string{l.Input, l.Output, l.Glossary} {
		if filepath.IsAbs(p) {
			t.Fatalf("stored path %q is absolute", p)
		}
	}
	if got := Resolve(logPath, l.Input); filepath.Clean(got) != filepath.Clean(input) {
		t.Fatalf("Resolve(input) = %q, want %q", got, input)
	}
	if got := Resolve(logPath, l.Glossary); filepath.Clean(got) != filepath.Clean(glossary) {
		t.Fatalf("Resolve(glossary) = %q, want %q", got, glossary)
	}
	if Resolve(logPath, "") != "" {
		t.Fatal("empty stored path should stay empty")
	}

	outside := filepath.Join(base, "..", "elsewhere", "out.po")
	if err := l.SetPaths(logPath, input, outside, ""); err == nil {
		t.Fatal("expected an output outside the log directory to be rejected")
	}
}

func TestDigestString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.po")
	if err := os.WriteFile(path, []byte("msgid \"\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	d, err := DigestFile(path)
	if err != nil {
		t.Fatalf("DigestFile: %v", err)
	}
	if s := d.String(); !strings.HasPrefix(s, "sha256:") || len(s) != len("sha256:")+64 {
		t.Fatalf("Digest.String() = %q", s)
	}
}
