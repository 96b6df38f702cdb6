package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func withEnvStatusStubs(t *testing.T, status bool, envKey string) (*keyStubs, func()) {
	t.Helper()
	stubs := &keyStubs{}

	prevStatus := getStatus
	prevEnv := getEnvKey

	getStatus = func(_ string) bool {
		return status
	}
	getEnvKey = func(_ string) (string, bool) {
		stubs.envCalls++
		if envKey == "" {
			return "", false
		}
		return envKey, true
	}

	restore := func() {
		getStatus = prevStatus
		getEnvKey = prevEnv
	}

	return stubs, restore
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestHandleEnv_StatusKeychain(t *testing.T) {
	_, restore := withEnvStatusStubs(t, true, "sk-env-secret")
	defer restore()

	out, err := executeCommand(t, "env", "status", "--service", "gemini")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "Found (source=Keychain)") {
		t.Fatalf("expected keychain source, got: %s", out)
	}
	if strings.Contains(out, "sk-env-secret") {
		t.Fatalf("output leaked env key")
	}
}

func TestHandleEnv_StatusEnv(t *testing.T) {
	_, restore := withEnvStatusStubs(t, false, "sk-or-env-secret")
	defer restore()

	out, err := executeCommand(t, "env", "status", "--service", "openrouter")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "Found (source=Environment Variable OPENROUTER_API_KEY") {
		t.Fatalf("expected env source, got: %s", out)
	}
	if strings.Contains(out, "sk-or-env-secret") {
		t.Fatalf("output leaked env key")
	}
}

func TestHandleEnv_StatusNotFound(t *testing.T) {
	stubs, restore := withEnvStatusStubs(t, false, "")
	defer restore()

	out, err := executeCommand(t, "env", "--service", "gemini")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "Not Found (keychain empty, GEMINI_API_KEY not set)") {
		t.Fatalf("expected not found, got: %s", out)
	}
	if stubs.envCalls != 1 {
		t.Fatalf("expected one env lookup, got %d", stubs.envCalls)
	}
}

func TestHandleEnv_InvalidService(t *testing.T) {
	_, restore := withEnvStatusStubs(t, false, "")
	defer restore()

	_, err := executeCommand(t, "env", "status", "--service", "openai")
	if err == nil || !strings.Contains(err.Error(), "invalid service") {
		t.Fatalf("expected invalid service error, got %v", err)
	}
}

func TestHandleEnv_SetupAndDelete(t *testing.T) {
	prevPrompt, prevSave, prevDelete := promptForKey, saveKey, deleteKey
	defer func() { promptForKey, saveKey, deleteKey = prevPrompt, prevSave, prevDelete }()

	saved := map[string]string{}
	promptForKey = func(_ string) (string, error) { return " sk-or-new \n", nil }
	saveKey = func(service, key string) error {
		saved[service] = key
		return nil
	}
	deleteKey = func(service string) error {
		if _, ok := saved[service]; !ok {
			return errors.New("secret not found in keyring")
		}
		delete(saved, service)
		return nil
	}

	out, err := executeCommand(t, "env", "setup", "--service", "openrouter")
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if saved["openrouter"] != "sk-or-new" {
		t.Fatalf("saved key = %q, want trimmed key", saved["openrouter"])
	}
	if strings.Contains(out, "sk-or-new") {
		t.Fatalf("setup output leaked key: %s", out)
	}

	if _, err := executeCommand(t, "env", "delete", "--service", "openrouter"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := executeCommand(t, "env", "delete", "--service", "openrouter"); err == nil {
		t.Fatalf("expected error deleting a missing key")
	}
}

func TestHandleEnv_SetupRejectsEmptyKey(t *testing.T) {
	prevPrompt, prevSave := promptForKey, saveKey
	defer func() { promptForKey, saveKey = prevPrompt, prevSave }()

	promptForKey = func(_ string) (string, error) { return "   ", nil }
	saveKey = func(string, string) error {
		t.Fatalf("saveKey must not be called for an empty key")
		return nil
	}
	if _, err := executeCommand(t, "env", "setup"); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestHandleEnv_StatusAllServices(t *testing.T) {
	stubs, restore := withEnvStatusStubs(t, false, "")
	defer restore()

	out, err := executeCommand(t, "env", "status")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	for _, want := range []string{
		"openrouter API Key: Not Found (keychain empty, OPENROUTER_API_KEY not set)",
		"gemini API Key: Not Found (keychain empty, GEMINI_API_KEY not set)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if stubs.envCalls != 2 {
		t.Fatalf("expected one env lookup per service, got %d", stubs.envCalls)
	}
}
