package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/oukeidos/potrans/internal/apperrors"
	"github.com/oukeidos/potrans/internal/metadata"
)

const (
	OpenRouter = metadata.ProviderOpenRouter
	Gemini     = metadata.ProviderGemini

	openRouterBaseURL = "https://openrouter.ai/api/v1"
	geminiBaseURL     = "https://generativelanguage.googleapis.com/v1beta"

	appReferer = "https://github.com/oukeidos/potrans"
	appTitle   = "potrans"
)

// Profile captures everything that differs between providers: endpoints,
// request and response shapes, and error classification.
type Profile interface {
	Name() string
	DisplayName() string
	DefaultBaseURL() string
	TranslateRequest(ctx context.Context, baseURL, apiKey, model, prompt string, p Params) (*http.Request, error)
	ParseTranslation(body []byte) (string, error)
	CheckRequest(ctx context.Context, baseURL, apiKey string) (*http.Request, error)
	ClassifyError(resp *http.Response, body []byte) error
}

// ProfileFor returns the profile registered under name.
func ProfileFor(name string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case OpenRouter:
		return openRouterProfile{}, nil
	case Gemini:
		return geminiProfile{}, nil
	default:
		return nil, fmt.Errorf("unknown provider: %q (use openrouter or gemini)", name)
	}
}

func newJSONRequest(ctx context.Context, method, target string, payload any) (*http.Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %s", redactKey(err.Error()))
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

type openRouterProfile struct{}

func (openRouterProfile) Name() string           { return OpenRouter }
func (openRouterProfile) DisplayName() string    { return "OpenRouter" }
func (openRouterProfile) DefaultBaseURL() string { return openRouterBaseURL }

func (openRouterProfile) setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("HTTP-Referer", appReferer)
	req.Header.Set("X-Title", appTitle)
}

func (p openRouterProfile) TranslateRequest(ctx context.Context, baseURL, apiKey, model, prompt string, params Params) (*http.Request, error) {
	body := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: params.Temperature,
		TopP:        params.TopP,
		TopK:        params.TopK,
		MaxTokens:   params.MaxOutputTokens,
	}
	req, err := newJSONRequest(ctx, http.MethodPost, baseURL+"/chat/completions", body)
	if err != nil {
		return nil, err
	}
	p.setHeaders(req, apiKey)
	return req, nil
}

func (openRouterProfile) ParseTranslation(body []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", apperrors.New(apperrors.KindValidation, "OpenRouter response format was invalid.", fmt.Errorf("failed to decode response: %w", err))
	}
	// OpenRouter can report upstream failures with a 200 status.
	if resp.Error != nil && len(resp.Choices) == 0 {
		cause := fmt.Errorf("openrouter in-band error code=%s message=%s", resp.Error.codeString(), resp.Error.Message)
		return "", apperrors.New(apperrors.KindTransient, "OpenRouter upstream provider error. Please retry.", cause)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.New(apperrors.KindValidation, "OpenRouter returned no choices.", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

func (p openRouterProfile) CheckRequest(ctx context.Context, baseURL, apiKey string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req, apiKey)
	return req, nil
}

func (openRouterProfile) ClassifyError(resp *http.Response, body []byte) error {
	return classifyOpenRouterError(resp, body)
}

type geminiProfile struct{}

func (geminiProfile) Name() string           { return Gemini }
func (geminiProfile) DisplayName() string    { return "Gemini" }
func (geminiProfile) DefaultBaseURL() string { return geminiBaseURL }

func (geminiProfile) TranslateRequest(ctx context.Context, baseURL, apiKey, model, prompt string, params Params) (*http.Request, error) {
	body := generateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     params.Temperature,
			TopP:            params.TopP,
			TopK:            params.TopK,
			MaxOutputTokens: params.MaxOutputTokens,
		},
	}
	target := fmt.Sprintf("%s/models/%s:generateContent?key=%s", baseURL, url.PathEscape(model), url.QueryEscape(apiKey))
	return newJSONRequest(ctx, http.MethodPost, target, body)
}

func (geminiProfile) ParseTranslation(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", apperrors.New(apperrors.KindValidation, "Gemini response format was invalid.", fmt.Errorf("failed to decode response: %w", err))
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", apperrors.New(apperrors.KindBadRequest, fmt.Sprintf("Gemini blocked the prompt (%s).", resp.PromptFeedback.BlockReason), nil)
	}
	if len(resp.Candidates) == 0 {
		return "", apperrors.New(apperrors.KindValidation, "Gemini returned no candidates.", nil)
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return "", apperrors.New(apperrors.KindValidation, fmt.Sprintf("Gemini returned an empty candidate (finish reason %s).", resp.Candidates[0].FinishReason), nil)
	}
	if len(content.Parts) == 0 {
		return "", apperrors.New(apperrors.KindValidation, "Gemini returned a candidate without parts.", nil)
	}
	// The reply is read from the first part.
	return content.Parts[0].Text, nil
}

func (geminiProfile) CheckRequest(ctx context.Context, baseURL, apiKey string) (*http.Request, error) {
	target := fmt.Sprintf("%s/models?key=%s", baseURL, url.QueryEscape(apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %s", redactKey(err.Error()))
	}
	return req, nil
}

func (geminiProfile) ClassifyError(resp *http.Response, body []byte) error {
	return classifyGeminiError(resp, body)
}
