// Package auth resolves provider API keys from the OS keychain and, when
// explicitly allowed, from environment variables.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const (
	serviceName = "potrans"

	ServiceOpenRouter = "openrouter"
	ServiceGemini     = "gemini"

	SourceKeychain = "Keychain"
	SourceEnv      = "Environment Variable"
)

type account struct {
	name   string
	envVar string
}

var accounts = map[string]account{
	ServiceOpenRouter: {name: "openrouter-api-key", envVar: "OPENROUTER_API_KEY"},
	ServiceGemini:     {name: "gemini-api-key", envVar: "GEMINI_API_KEY"},
}

// Services returns the supported service names.
func Services() []string {
	return []string{ServiceOpenRouter, ServiceGemini}
}

func lookup(service string) (account, error) {
	acc, ok := accounts[service]
	if !ok {
		return account{}, fmt.Errorf("unknown service: %q (use openrouter or gemini)", service)
	}
	return acc, nil
}

// EnvVar returns the environment variable consulted for service.
func EnvVar(service string) string {
	acc, _ := lookup(service)
	return acc.envVar
}

// Store persists API keys. Implementations must never log key material.
type Store interface {
	Save(service, key string) error
	Load(service string) (string, error)
	Delete(service string) error
}

// KeyringStore stores keys in the OS keychain.
type KeyringStore struct{}

func (KeyringStore) Save(service, key string) error {
	acc, err := lookup(service)
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("refusing to save an empty key")
	}
	return keyring.Set(serviceName, acc.name, key)
}

// Load returns the stored key, or "" with a nil error when none is stored.
func (KeyringStore) Load(service string) (string, error) {
	acc, err := lookup(service)
	if err != nil {
		return "", err
	}
	key, err := keyring.Get(serviceName, acc.name)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

func (KeyringStore) Delete(service string) error {
	acc, err := lookup(service)
	if err != nil {
		return err
	}
	return keyring.Delete(serviceName, acc.name)
}

// DefaultStore is the store used by the package-level helpers.
var DefaultStore Store = KeyringStore{}

// GetKey retrieves the API key for a service and reports where it came from.
// If allowEnv is false, environment variables are ignored.
func GetKey(service string, allowEnv bool) (string, string) {
	if key, err := DefaultStore.Load(service); err == nil && key != "" {
		return key, SourceKeychain
	}
	if allowEnv {
		if key, ok := GetEnvKey(service); ok {
			return key, SourceEnv
		}
	}
	return "", ""
}

// SaveKey saves the key for a specific service to the OS Keychain.
func SaveKey(service, key string) error {
	return DefaultStore.Save(service, key)
}

// DeleteKey removes the key for a specific service from the OS Keychain.
func DeleteKey(service string) error {
	return DefaultStore.Delete(service)
}

// GetStatus returns whether a key exists for a specific service in the keychain.
func GetStatus(service string) bool {
	key, err := DefaultStore.Load(service)
	return err == nil && key != ""
}

// GetEnvKey retrieves the key from environment variables only.
func GetEnvKey(service string) (string, bool) {
	acc, err := lookup(service)
	if err != nil {
		return "", false
	}
	key := strings.TrimSpace(os.Getenv(acc.envVar))
	if key == "" {
		return "", false
	}
	return key, true
}

// PromptForAPIKey securely prompts the user for their API key.
func PromptForAPIKey(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Fprintln(os.Stderr)
	return strings.TrimSpace(string(bytePassword)), nil
}
