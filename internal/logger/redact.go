package logger

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// credentialKeys are attribute names whose whole value is withheld.
var credentialKeys = []string{
	"api_key",
	"apikey",
	"authorization",
	"bearer",
	"password",
	"secret",
	"token",
	"prompt",
	"body",
}

// secretPatterns match key material embedded in otherwise useful values
// such as URLs or upstream error messages. Only the match is masked.
var secretPatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`([?&]key=)[^&\s"]+`), "${1}" + redacted},
	{regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9\-._~+/]+=*`), "${1}" + redacted},
	{regexp.MustCompile(`\bsk-or-v1-[A-Za-z0-9]{8,}\b`), redacted},
	{regexp.MustCompile(`(?i)\bsk-[A-Za-z0-9_-]{10,}\b`), redacted},
	{regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{10,}\b`), redacted},
	{regexp.MustCompile(`(?i)\b((?:api[_-]?key|access[_-]?token)\s*[:=]\s*)\S+`), "${1}" + redacted},
}

func isCredentialKey(key string) bool {
	key = strings.ToLower(key)
	for _, k := range credentialKeys {
		if key == k || strings.HasSuffix(key, "_"+k) {
			return true
		}
	}
	return false
}

// Redact masks secrets inside s.
func Redact(s string) string {
	for _, p := range secretPatterns {
		s = p.re.ReplaceAllString(s, p.repl)
	}
	return s
}

// RedactAttr is a slog.ReplaceAttr function. Credential-named attributes
// are replaced outright; other string-like values keep their text with any
// embedded key masked.
func RedactAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		return a
	}
	if isCredentialKey(a.Key) {
		return slog.String(a.Key, redacted)
	}
	var value string
	switch a.Value.Kind() {
	case slog.KindString:
		value = a.Value.String()
	case slog.KindAny:
		v := a.Value.Any()
		if err, ok := v.(error); ok {
			value = err.Error()
		} else {
			value = fmt.Sprint(v)
		}
	default:
		return a
	}
	if masked := Redact(value); masked != value {
		return slog.String(a.Key, masked)
	}
	return a
}
