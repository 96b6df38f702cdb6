package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/oukeidos/potrans/internal/apperrors"
	"github.com/oukeidos/potrans/internal/httpclient"
)

// listGeminiModels pages through the SDK model listing. Requests go
// through hc, so the configured proxy and base URL apply here as well.
func listGeminiModels(ctx context.Context, baseURL, apiKey string, hc *http.Client) ([]RemoteModel, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	routed := &http.Client{
		Timeout:       hc.Timeout,
		CheckRedirect: hc.CheckRedirect,
		Transport:     geminiTransport{base: base, apiKey: apiKey, next: hc.Transport},
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey), option.WithHTTPClient(routed))
	if err != nil {
		return nil, err
	}
	defer client.Close()

	var out []RemoteModel
	it := client.ListModels(ctx)
	for {
		m, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		if !supportsGenerate(m.SupportedGenerationMethods) {
			continue
		}
		out = append(out, RemoteModel{
			ID:   strings.TrimPrefix(m.Name, "models/"),
			Name: m.DisplayName,
		})
	}
	return out, nil
}

// geminiTransport sends SDK requests to base instead of the public host.
// The SDK addresses "/v1beta/..."; that version segment is replaced by the
// path of base. The key travels in a header, never in the URL.
type geminiTransport struct {
	base   *url.URL
	apiKey string
	next   http.RoundTripper
}

func (t geminiTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = t.base.Scheme
	out.URL.Host = t.base.Host
	out.Host = ""
	rest := req.URL.Path
	if i := strings.Index(strings.TrimPrefix(rest, "/"), "/"); i >= 0 {
		rest = rest[i+1:]
	} else {
		rest = ""
	}
	out.URL.Path = strings.TrimRight(t.base.Path, "/") + rest
	out.URL.RawPath = ""
	out.Header.Set("x-goog-api-key", t.apiKey)

	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(out)
}

// classifySDKError maps errors from the Gemini SDK, which wraps
// *googleapi.Error for HTTP failures.
func classifySDKError(err error) error {
	cause := fmt.Errorf("list models: %s", redactKey(err.Error()))
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return apperrors.FromStatus("Gemini", gerr.Code, cause)
	}
	return apperrors.FromTransport("Gemini", cause)
}

func supportsGenerate(methods []string) bool {
	for _, m := range methods {
		if m == "generateContent" {
			return true
		}
	}
	return false
}

// ListRemoteModels asks the provider which models the key can use. Results
// are sorted by ID.
func (c *Client) ListRemoteModels(ctx context.Context) ([]RemoteModel, error) {
	ctx, cancel := context.WithTimeout(ctx, c.translateTimeout)
	defer cancel()

	var (
		models []RemoteModel
		err    error
	)
	switch c.profile.Name() {
	case Gemini:
		models, err = listGeminiModels(ctx, c.baseURL, c.apiKey, c.http)
		if err != nil {
			return nil, classifySDKError(err)
		}
	default:
		models, err = c.listOpenRouterModels(ctx)
		if err != nil {
			return nil, err
		}
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

func (c *Client) listOpenRouterModels(ctx context.Context) ([]RemoteModel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	openRouterProfile{}.setHeaders(req, c.apiKey)

	body, resp, err := httpclient.Read(c.http, req)
	if err != nil {
		return nil, transportError("OpenRouter", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyOpenRouterError(resp, body)
	}
	var payload openRouterModels
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.New(apperrors.KindValidation, "OpenRouter model list was invalid.", err)
	}
	out := make([]RemoteModel, 0, len(payload.Data))
	for _, m := range payload.Data {
		out = append(out, RemoteModel{ID: m.ID, Name: m.Name})
	}
	return out, nil
}
