package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestConfig_SetShowPath(t *testing.T) {
	cfgHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgHome)

	out, err := executeCommand(t, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	want := filepath.Join(cfgHome, "potrans", "config.yaml")
	if strings.TrimSpace(out) != want {
		t.Fatalf("config path = %q, want %q", strings.TrimSpace(out), want)
	}

	if _, err := executeCommand(t, "config", "set", "target_lang", "Arabic"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, err := executeCommand(t, "config", "set", "concurrency", "4"); err != nil {
		t.Fatalf("config set: %v", err)
	}

	out, err = executeCommand(t, "config")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, line := range []string{"target_lang", "concurrency"} {
		if !strings.Contains(out, line) {
			t.Fatalf("config show missing %q:\n%s", line, out)
		}
	}
	if !strings.Contains(out, "ar\n") || !strings.Contains(out, "4\n") {
		t.Fatalf("config show missing saved values:\n%s", out)
	}
}

func TestConfig_SetRejectsBadInput(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cases := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown_key", args: []string{"config", "set", "api_key", "x"}, wantErr: "unknown setting"},
		{name: "bad_bool", args: []string{"config", "set", "overwrite", "maybe"}, wantErr: "expected true or false"},
		{name: "bad_language", args: []string{"config", "set", "target_lang", "klingon"}, wantErr: "unsupported language"},
		{name: "bad_provider", args: []string{"config", "set", "provider", "openai"}, wantErr: "invalid service"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := executeCommand(t, tc.args...)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
