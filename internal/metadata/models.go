package metadata

import "fmt"

// Model describes a model offered in the CLI listing.
type Model struct {
	ID    string
	Label string
	// Free marks OpenRouter models with no per-token cost.
	Free bool
}

const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

var OpenRouterModels = []Model{
	{ID: "deepseek/deepseek-v3:free", Label: "DeepSeek V3", Free: true},
	{ID: "meta-llama/llama-3.3-70b-instruct:free", Label: "Llama 3.3 70B Instruct", Free: true},
	{ID: "qwen/qwen-2.5-72b-instruct:free", Label: "Qwen 2.5 72B Instruct", Free: true},
	{ID: "mistralai/mistral-7b-instruct:free", Label: "Mistral 7B Instruct", Free: true},
	{ID: "meta-llama/llama-3.1-405b:free", Label: "Llama 3.1 405B", Free: true},
}

var GeminiModels = []Model{
	{ID: "gemini-2.0-flash-exp", Label: "Gemini 2.0 Flash (experimental)"},
	{ID: "gemini-1.5-flash-002", Label: "Gemini 1.5 Flash"},
	{ID: "gemini-1.5-pro-002", Label: "Gemini 1.5 Pro"},
}

// Providers returns the known provider names in display order.
func Providers() []string {
	return []string{ProviderOpenRouter, ProviderGemini}
}

// Models returns the built-in catalogue for provider.
func Models(provider string) ([]Model, error) {
	switch provider {
	case ProviderOpenRouter:
		return OpenRouterModels, nil
	case ProviderGemini:
		return GeminiModels, nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", provider)
	}
}

// DefaultModel returns the first catalogued model of provider.
func DefaultModel(provider string) string {
	models, err := Models(provider)
	if err != nil || len(models) == 0 {
		return ""
	}
	return models[0].ID
}

// ModelIDs returns the IDs of provider's catalogue.
func ModelIDs(provider string) []string {
	models, _ := Models(provider)
	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	return ids
}

// Lookup finds a catalogued model. Unknown IDs are still usable; callers
// only use this for labels and warnings.
func Lookup(provider, id string) (Model, bool) {
	models, _ := Models(provider)
	for _, m := range models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{ID: id, Label: id}, false
}
