// Package provider sends single-string translation requests to hosted LLM
// APIs and validates the answers against the source placeholders.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oukeidos/potrans/internal/apperrors"
	"github.com/oukeidos/potrans/internal/glossary"
	"github.com/oukeidos/potrans/internal/httpclient"
	"github.com/oukeidos/potrans/internal/language"
	"github.com/oukeidos/potrans/internal/logger"
	"github.com/oukeidos/potrans/internal/metadata"
	"github.com/oukeidos/potrans/internal/placeholder"
)

const (
	// TranslateTimeout bounds one translation call.
	TranslateTimeout = 20 * time.Second
	// CheckTimeout bounds a credential check.
	CheckTimeout = 10 * time.Second

	// minTextRunes is the shortest trimmed text worth sending.
	minTextRunes = 3
)

// Translator translates one string. Implementations return the source text
// alongside any error so callers may fall back to it.
type Translator interface {
	Translate(ctx context.Context, req Request) (string, error)
}

// CredentialChecker validates the configured API key.
type CredentialChecker interface {
	ValidateCredentials(ctx context.Context) (bool, string)
}

// Config configures a Client.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	// BaseURL overrides the provider endpoint, e.g. for a relay.
	BaseURL    string
	HTTPClient *http.Client
	Params     Params
	Glossary   *glossary.Glossary

	TranslateTimeout time.Duration
	CheckTimeout     time.Duration
}

// Client talks to one provider with one key.
type Client struct {
	profile          Profile
	apiKey           string
	model            string
	baseURL          string
	http             *http.Client
	params           Params
	glossary         *glossary.Glossary
	translateTimeout time.Duration
	checkTimeout     time.Duration
}

var (
	_ Translator        = (*Client)(nil)
	_ CredentialChecker = (*Client)(nil)
)

// New builds a client. An empty model selects the provider's default.
func New(cfg Config) (*Client, error) {
	profile, err := ProfileFor(cfg.Provider)
	if err != nil {
		return nil, err
	}
	c := &Client{
		profile:          profile,
		apiKey:           strings.TrimSpace(cfg.APIKey),
		model:            strings.TrimSpace(cfg.Model),
		baseURL:          strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		http:             cfg.HTTPClient,
		params:           cfg.Params,
		glossary:         cfg.Glossary,
		translateTimeout: cfg.TranslateTimeout,
		checkTimeout:     cfg.CheckTimeout,
	}
	if c.model == "" {
		c.model = metadata.DefaultModel(profile.Name())
	}
	if c.baseURL == "" {
		c.baseURL = profile.DefaultBaseURL()
	}
	if c.http == nil {
		c.http = httpclient.Default()
	}
	if c.params == (Params{}) {
		c.params = DefaultParams()
	}
	if c.translateTimeout <= 0 {
		c.translateTimeout = TranslateTimeout
	}
	if c.checkTimeout <= 0 {
		c.checkTimeout = CheckTimeout
	}
	return c, nil
}

// Provider returns the provider name.
func (c *Client) Provider() string { return c.profile.Name() }

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Supported reports whether lang is a target the client translates into.
func Supported(lang string) bool {
	_, ok := language.Languages[lang]
	return ok
}

// Translate returns the translation of req.Text. Text shorter than three
// characters and unsupported targets are returned unchanged without a
// network call. A candidate that loses or gains placeholders is replaced by
// the source text. On error the source text is returned with it.
func (c *Client) Translate(ctx context.Context, req Request) (string, error) {
	text := req.Text
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minTextRunes {
		return text, nil
	}
	if !Supported(req.TargetLang) {
		logger.Debug("Unsupported target language; returning source", "target", req.TargetLang)
		return text, nil
	}

	model := c.model
	if req.Model != "" {
		model = req.Model
	}
	params := c.params
	if req.Params != (Params{}) {
		params = req.Params
	}
	prompt := BuildPrompt(text, req.TargetLang, req.Context, c.glossary.Relevant(text))

	ctx, cancel := context.WithTimeout(ctx, c.translateTimeout)
	defer cancel()

	httpReq, err := c.profile.TranslateRequest(ctx, c.baseURL, c.apiKey, model, prompt, params)
	if err != nil {
		return text, err
	}
	body, resp, err := httpclient.Read(c.http, httpReq)
	if err != nil {
		return text, transportError(c.profile.DisplayName(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return text, c.profile.ClassifyError(resp, body)
	}

	candidate, err := c.profile.ParseTranslation(body)
	if err != nil {
		return text, err
	}
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return text, apperrors.New(apperrors.KindValidation, fmt.Sprintf("%s returned an empty translation.", c.profile.DisplayName()), nil)
	}

	result := placeholder.Validate(text, candidate)
	if result != candidate {
		logger.Debug("Placeholder mismatch; keeping source",
			"provider", c.profile.Name(),
			"missing", placeholder.Describe(placeholder.Missing(text, candidate)),
			"unexpected", placeholder.Describe(placeholder.Missing(candidate, text)),
		)
	}
	return result, nil
}

// TranslateOrOriginal is Translate with errors folded into the source text.
func (c *Client) TranslateOrOriginal(ctx context.Context, req Request) string {
	out, err := c.Translate(ctx, req)
	if err != nil {
		logger.Debug("Translation failed; keeping source", "provider", c.profile.Name(), "error", apperrors.PublicMessage(err))
		return req.Text
	}
	return out
}

// ValidateCredentials performs a lightweight authenticated request.
func (c *Client) ValidateCredentials(ctx context.Context) (bool, string) {
	if c.apiKey == "" {
		return false, "Invalid API key: no API key configured"
	}
	ctx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	req, err := c.profile.CheckRequest(ctx, c.baseURL, c.apiKey)
	if err != nil {
		return false, "Invalid API key: " + err.Error()
	}
	body, resp, err := httpclient.Read(c.http, req)
	if err != nil {
		return false, "Invalid API key: " + apperrors.PublicMessage(transportError(c.profile.DisplayName(), err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, "Invalid API key: " + apperrors.PublicMessage(c.profile.ClassifyError(resp, body))
	}
	return true, "API key valid"
}
