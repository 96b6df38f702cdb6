package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c == nil || c.Timeout != DefaultTimeout {
		t.Fatalf("Default() = %+v", c)
	}
	if Default() != c {
		t.Fatal("Default should return the same client")
	}
}

func TestNew_SetsUserAgent(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("User-Agent"))
	}))
	defer srv.Close()

	c, err := New(5*time.Second, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	if _, _, err := Read(c, req); err != nil {
		t.Fatalf("Read: %v", err)
	}
	req, _ = http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("User-Agent", "custom/1")
	if _, _, err := Read(c, req); err != nil {
		t.Fatalf("Read: %v", err)
	}

	if len(got) != 2 || !strings.HasPrefix(got[0], "potrans/") || got[1] != "custom/1" {
		t.Fatalf("user agents = %q", got)
	}
	if req.Header.Get("User-Agent") != "custom/1" {
		t.Fatal("caller's request was modified")
	}
}

func TestRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			fmt.Fprint(w, `{"choices":[]}`)
		case "/huge":
			w.Header().Set("Content-Length", fmt.Sprint(MaxResponseBytes+1))
			w.Write(make([]byte, MaxResponseBytes+1))
		case "/stream":
			// No Content-Length, so only the capped read can catch it.
			w.(http.Flusher).Flush()
			w.Write(make([]byte, MaxResponseBytes+1))
		case "/limited":
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, "slow down")
		}
	}))
	defer srv.Close()

	get := func(path string) ([]byte, *http.Response, error) {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		return Read(Default(), req)
	}

	body, resp, err := get("/ok")
	if err != nil || string(body) != `{"choices":[]}` || resp.StatusCode != http.StatusOK {
		t.Fatalf("/ok: body=%q err=%v", body, err)
	}

	body, resp, err = get("/limited")
	if err != nil || resp.StatusCode != http.StatusTooManyRequests || string(body) != "slow down" {
		t.Fatalf("/limited: status=%v body=%q err=%v", resp, body, err)
	}

	for _, path := range []string{"/huge", "/stream"} {
		_, resp, err := get(path)
		if !errors.Is(err, ErrTooLarge) {
			t.Fatalf("%s: err = %v, want ErrTooLarge", path, err)
		}
		if resp == nil {
			t.Fatalf("%s: response should be returned with the error", path)
		}
	}
}

func TestRead_TransportError(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://potrans.invalid", nil)
	if _, resp, err := Read(Default(), req); err == nil || resp != nil {
		t.Fatalf("expected transport error, got resp=%v err=%v", resp, err)
	}
}

func TestNew_Proxy(t *testing.T) {
	var sawProxy bool
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawProxy = r.URL.Host == "openrouter.invalid"
		fmt.Fprint(w, "via proxy")
	}))
	defer proxy.Close()

	c, err := New(5*time.Second, proxy.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, _ := http.NewRequest(http.MethodGet, "http://openrouter.invalid/api/v1/models", nil)
	body, _, err := Read(c, req)
	if err != nil || !sawProxy || string(body) != "via proxy" {
		t.Fatalf("request did not go through the proxy: body=%q err=%v", body, err)
	}

	if _, err := New(time.Second, "ftp://proxy.invalid"); err == nil {
		t.Fatal("expected error for unsupported proxy scheme")
	}
	if c, err := New(time.Second, "  "); err != nil || c.Timeout != time.Second {
		t.Fatalf("blank proxy: %v %v", c, err)
	}
}

func TestParseProxyURL(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "127.0.0.1:8080", want: "http://127.0.0.1:8080"},
		{in: " https://proxy.example:3128 ", want: "https://proxy.example:3128"},
		{in: "socks5://127.0.0.1:1080", want: "socks5://127.0.0.1:1080"},
		{in: "ftp://proxy.example", wantErr: true},
		{in: "http://", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			u, err := ParseProxyURL(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", u)
				}
				return
			}
			if err != nil || u.String() != tc.want {
				t.Fatalf("got %v, %v; want %q", u, err, tc.want)
			}
		})
	}
}
