package auth

import (
	"testing"

	"github.com/zalando/go-keyring"
)

func withMockKeyring(t *testing.T) {
	t.Helper()
	keyring.MockInit()
	prev := DefaultStore
	DefaultStore = KeyringStore{}
	t.Cleanup(func() { DefaultStore = prev })
}

func TestKeyringStore_RoundTrip(t *testing.T) {
	withMockKeyring(t)

	if err := SaveKey(ServiceGemini, "  AIzaTestKey  "); err != nil {
		t.Fatalf("SaveKey: %v", err)
	}
	if !GetStatus(ServiceGemini) {
		t.Fatalf("expected stored key")
	}
	key, source := GetKey(ServiceGemini, false)
	if key != "AIzaTestKey" || source != SourceKeychain {
		t.Fatalf("GetKey = (%q, %q)", key, source)
	}
	if GetStatus(ServiceOpenRouter) {
		t.Fatalf("openrouter key should be absent")
	}

	if err := DeleteKey(ServiceGemini); err != nil {
		t.Fatalf("DeleteKey: %v", err)
	}
	if GetStatus(ServiceGemini) {
		t.Fatalf("expected key to be removed")
	}
}

func TestGetKey_EnvOnlyWhenAllowed(t *testing.T) {
	withMockKeyring(t)
	t.Setenv("OPENROUTER_API_KEY", "sk-or-env")

	if key, _ := GetKey(ServiceOpenRouter, false); key != "" {
		t.Fatalf("env key used without opt-in: %q", key)
	}
	key, source := GetKey(ServiceOpenRouter, true)
	if key != "sk-or-env" || source != SourceEnv {
		t.Fatalf("GetKey = (%q, %q)", key, source)
	}
}

func TestUnknownService(t *testing.T) {
	withMockKeyring(t)
	if err := SaveKey("openai", "x"); err == nil {
		t.Fatalf("expected unknown service error")
	}
	if _, ok := GetEnvKey("openai"); ok {
		t.Fatalf("unknown service should have no env key")
	}
	if EnvVar(ServiceGemini) != "GEMINI_API_KEY" {
		t.Fatalf("unexpected env var: %q", EnvVar(ServiceGemini))
	}
}

func TestSave_RejectsEmpty(t *testing.T) {
	withMockKeyring(t)
	if err := SaveKey(ServiceGemini, "   "); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
