package main

import (
	"strings"
	"testing"
)

func TestOverwriteFlag_AcceptsYesAndShorthand(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{name: "root_shorthand", args: []string{"-y"}},
		{name: "root_long", args: []string{"--yes"}},
		{name: "translate_shorthand", args: []string{"translate", "-y"}},
		{name: "translate_long", args: []string{"translate", "--yes"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := executeCommand(t, tc.args...)
			if err == nil {
				t.Fatalf("expected command error from missing required args, got nil")
			}
			if !strings.Contains(err.Error(), "input file is required") {
				t.Fatalf("expected missing input error, got %v", err)
			}
			if strings.Contains(out, "unknown shorthand flag: 'y'") || strings.Contains(out, "unknown flag: --yes") {
				t.Fatalf("expected --yes/-y to be parsed, got output: %s", out)
			}
		})
	}
}

func TestRoot_NoArgsPrintsHelp(t *testing.T) {
	out, err := executeCommand(t)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "potrans <input.po> [flags]") {
		t.Fatalf("expected root usage, got: %s", out)
	}
}

func TestRoot_Version(t *testing.T) {
	out, err := executeCommand(t, "--version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "potrans ") {
		t.Fatalf("expected version output, got: %s", out)
	}
}

func TestTranslateFlags_Registered(t *testing.T) {
	cmd := newTranslateCmd()
	for _, name := range []string{
		"target", "provider", "model", "context", "overwrite", "translate-placeholders",
		"mark-fuzzy", "proxy", "base-url", "output", "yes", "glossary", "concurrency",
		"delay", "temperature", "top-p", "top-k", "max-tokens", "skip-check", "preview",
		"allow-env", "env-only", "debug", "log-file",
	} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("translate is missing --%s", name)
		}
	}
	for short, long := range map[string]string{"t": "target", "o": "output", "y": "yes"} {
		f := cmd.Flags().ShorthandLookup(short)
		if f == nil || f.Name != long {
			t.Errorf("-%s should map to --%s", short, long)
		}
	}
}

func TestAboutAndList(t *testing.T) {
	out, err := executeCommand(t, "about")
	if err != nil || !strings.Contains(out, "https://github.com/oukeidos/potrans") {
		t.Fatalf("about = %q, %v", out, err)
	}
	out, err = executeCommand(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"Persian", "[fa]", "Arabic", "plurals=6"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list output missing %q: %s", want, out)
		}
	}
}

func TestHelp_GroupsFlags(t *testing.T) {
	out, err := executeCommand(t, "--help")
	if err != nil {
		t.Fatalf("--help: %v", err)
	}
	order := []string{"Commands:", "Translation Flags:", "Model Flags:", "Connection Flags:", "Run Flags:", "Output Flags:", "\nFlags:"}
	last := -1
	for _, section := range order {
		i := strings.Index(out, section)
		if i < 0 {
			t.Fatalf("help is missing %q:\n%s", section, out)
		}
		if i < last {
			t.Fatalf("section %q out of order:\n%s", section, out)
		}
		last = i
	}
	trans := out[strings.Index(out, "Translation Flags:"):strings.Index(out, "Model Flags:")]
	if !strings.Contains(trans, "--target") || strings.Contains(trans, "--proxy") {
		t.Fatalf("translation section = %q", trans)
	}

	out, err = executeCommand(t, "retry", "--help")
	if err != nil {
		t.Fatalf("retry --help: %v", err)
	}
	for _, want := range []string{"potrans retry <recovery.json> [flags]", "Connection Flags:", "Run Flags:", "--log-file"} {
		if !strings.Contains(out, want) {
			t.Fatalf("retry help missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Translation Flags:") {
		t.Fatalf("retry help shows translate-only flags:\n%s", out)
	}
}
