// Package i18n translates potrans's own user-facing messages. Catalogs are
// embedded under locales/{lang}/LC_MESSAGES/potrans.po.
package i18n

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/leonelquinteros/gotext"
)

//go:embed all:locales
var locales embed.FS

const domain = "potrans"

var (
	mu sync.RWMutex
	po *gotext.Locale
)

// Init loads the catalog for lang. An empty lang is detected from
// LANGUAGE, LC_ALL, LC_MESSAGES and LANG, in gettext order.
func Init(lang string) {
	if lang == "" {
		lang = DetectLanguage()
	}
	l := gotext.NewLocaleFSWithPath(lang, locales, "locales")
	l.AddDomain(domain)
	l.SetDomain(domain)

	mu.Lock()
	po = l
	mu.Unlock()
}

// T translates msgid, formatting it with vars when given. Unknown messages
// pass through unchanged.
func T(msgid string, vars ...any) string {
	mu.RLock()
	l := po
	mu.RUnlock()
	if l == nil {
		return format(msgid, vars)
	}
	return l.Get(msgid, vars...)
}

// N is T with plural selection by n.
func N(singular, plural string, n int, vars ...any) string {
	mu.RLock()
	l := po
	mu.RUnlock()
	if l == nil {
		if n == 1 {
			return format(singular, vars)
		}
		return format(plural, vars)
	}
	return l.GetN(singular, plural, n, vars...)
}

// format matches gotext: the message is left alone when there is nothing to
// substitute, so a literal % survives.
func format(msg string, vars []any) string {
	if len(vars) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, vars...)
}

// DetectLanguage returns the preferred message language from the
// environment, or "en".
func DetectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		// LANGUAGE is a colon separated preference list.
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		if idx := strings.IndexAny(val, ".@"); idx >= 0 {
			val = val[:idx]
		}
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		return val
	}
	return "en"
}
