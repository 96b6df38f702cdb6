// Package httpclient builds the HTTP clients used to reach OpenRouter and
// Gemini, and reads their responses with a size cap.
package httpclient

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oukeidos/potrans/internal/version"
)

const (
	// DefaultTimeout bounds a whole exchange. Per-call deadlines are set
	// tighter through the request context.
	DefaultTimeout = 2 * time.Minute
	// MaxResponseBytes caps how much of a response body is buffered.
	MaxResponseBytes = 8 << 20
)

// ErrTooLarge is returned by Read when a body exceeds MaxResponseBytes.
var ErrTooLarge = fmt.Errorf("response body larger than %d bytes", MaxResponseBytes)

var shared = sync.OnceValue(func() *http.Client {
	c, _ := New(DefaultTimeout, "")
	return c
})

// Default is the process-wide client, honouring HTTP(S)_PROXY and NO_PROXY.
func Default() *http.Client { return shared() }

// New returns a client with the given timeout. A non-empty proxy routes
// every request through it; otherwise the proxy environment variables apply.
func New(timeout time.Duration, proxy string) (*http.Client, error) {
	route := http.ProxyFromEnvironment
	if strings.TrimSpace(proxy) != "" {
		u, err := ParseProxyURL(proxy)
		if err != nil {
			return nil, err
		}
		route = http.ProxyURL(u)
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.Proxy = route
	base.MaxIdleConnsPerHost = 16
	base.IdleConnTimeout = 2 * time.Minute

	return &http.Client{
		Timeout:   timeout,
		Transport: userAgent{next: base},
	}, nil
}

// ParseProxyURL accepts http, https and socks5 proxies. A bare host:port
// is taken as http.
func ParseProxyURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "socks5" {
		return nil, fmt.Errorf("invalid proxy %q: scheme must be http, https or socks5", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid proxy %q: missing host", raw)
	}
	return u, nil
}

// Read sends req and returns the full body. The body is always closed, and
// bodies over MaxResponseBytes fail with ErrTooLarge. The response is
// returned alongside read errors so callers can still classify the status.
func Read(client *http.Client, req *http.Request) ([]byte, *http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.ContentLength > MaxResponseBytes {
		return nil, resp, ErrTooLarge
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	switch {
	case err != nil:
		return nil, resp, fmt.Errorf("read response body: %w", err)
	case len(body) > MaxResponseBytes:
		return nil, resp, ErrTooLarge
	}
	return body, resp, nil
}

// userAgent stamps requests that do not already carry a User-Agent.
type userAgent struct{ next http.RoundTripper }

func (t userAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", "potrans/"+version.Version)
	return t.next.RoundTrip(clone)
}
