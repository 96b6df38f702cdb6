package provider

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"

	"google.golang.org/api/googleapi"

	"github.com/oukeidos/potrans/internal/apperrors"
)

var keyParam = regexp.MustCompile(`([?&]key=)[^&\s]*`)

// redactKey hides the value of a key= query parameter.
func redactKey(s string) string {
	return keyParam.ReplaceAllString(s, "${1}REDACTED")
}

// transportError classifies a failure before any status was received. The
// request URL inside *url.Error is redacted so the key never reaches logs.
func transportError(display string, err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = redactKey(uerr.URL)
	}
	return apperrors.FromTransport(display, fmt.Errorf("%s request failed: %w", display, err))
}

func (e errorDetails) codeString() string {
	if e.Code == nil {
		return ""
	}
	return fmt.Sprint(e.Code)
}

func parseErrorDetails(body []byte) errorDetails {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return errorDetails{}
	}
	return envelope.Error
}

// classifyOpenRouterError maps a non-2xx OpenRouter response. The upstream
// message goes into the cause only.
func classifyOpenRouterError(resp *http.Response, body []byte) error {
	details := parseErrorDetails(body)
	cause := fmt.Errorf("openrouter status=%s type=%s code=%s message=%s", resp.Status, details.Type, details.codeString(), details.Message)
	return apperrors.FromStatus("OpenRouter", resp.StatusCode, cause)
}

// classifyGeminiError maps a non-2xx Gemini response through the standard
// Google API error envelope.
func classifyGeminiError(resp *http.Response, body []byte) error {
	resp.Body = io.NopCloser(bytes.NewReader(body))
	err := googleapi.CheckResponse(resp)
	if err == nil {
		err = fmt.Errorf("unexpected status %s", resp.Status)
	}
	code := resp.StatusCode
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		code = gerr.Code
		err = fmt.Errorf("gemini status=%d message=%s", gerr.Code, gerr.Message)
	}
	// Gemini reports a malformed or revoked key as 400 INVALID_ARGUMENT.
	if code == http.StatusBadRequest && gerr != nil && isKeyInvalid(gerr) {
		return apperrors.New(apperrors.KindAuth, "Gemini rejected the API key (HTTP 400).", err)
	}
	return apperrors.FromStatus("Gemini", code, err)
}

func isKeyInvalid(gerr *googleapi.Error) bool {
	for _, d := range gerr.Details {
		m, ok := d.(map[string]any)
		if !ok {
			continue
		}
		if reason, _ := m["reason"].(string); reason == "API_KEY_INVALID" {
			return true
		}
	}
	return false
}
