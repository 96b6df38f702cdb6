package provider

// Params are the sampling settings sent with every translation request.
type Params struct {
	Temperature float64
	TopP        float64
	// TopK is only sent when positive.
	TopK            int
	MaxOutputTokens int
}

// DefaultParams returns the sampling settings used when none are given.
func DefaultParams() Params {
	return Params{
		Temperature:     0.7,
		TopP:            0.95,
		MaxOutputTokens: 2048,
	}
}

// Request is one string to translate.
type Request struct {
	Text       string
	TargetLang string
	// Model overrides the client's model when non-empty.
	Model string
	// Context describes where the string appears; empty means the default
	// UI context.
	Context string
	// Params overrides the client's sampling settings when non-zero.
	Params Params
}

// RemoteModel is a model reported by the provider's listing endpoint.
type RemoteModel struct {
	ID   string
	Name string
}

// OpenRouter wire types.

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	TopK        int           `json:"top_k,omitempty"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *errorDetails `json:"error,omitempty"`
}

type errorEnvelope struct {
	Error errorDetails `json:"error"`
}

type errorDetails struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

type openRouterModels struct {
	Data []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

// Gemini REST wire types.

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      *geminiContent `json:"content"`
		FinishReason string         `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}
