package llmclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Supported providers. All of them speak the OpenAI chat API.
const (
	ProviderOpenRouter = "openrouter"
	ProviderGroq       = "groq"
	ProviderTogether   = "together"
	ProviderOllama     = "ollama"
)

type Builder interface {
	New(ctx context.Context) (model.ToolCallingChatModel, error)
}

var _ Builder = (*Config)(nil)

type preset struct {
	baseURL      string
	defaultModel string
}

var presets = map[string]preset{
	ProviderOpenRouter: {baseURL: "https://openrouter.ai/api/v1"},
	ProviderGroq:       {baseURL: "https://api.groq.com/openai/v1", defaultModel: "mixtral-8x7b-32768"},
	ProviderTogether:   {baseURL: "https://api.together.xyz/v1", defaultModel: "mistralai/Mixtral-8x7B-Instruct-v0.1"},
	ProviderOllama:     {baseURL: "http://localhost:11434/v1", defaultModel: "llama2"},
}

type Config struct {
	Provider           string        `envconfig:"PROVIDER" split_words:"true" default:"groq"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true"`
	MaxCompletionToken *int          `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// Resolve fills base URL and model from the provider preset. Explicit
// values always win over preset values.
func (c *Config) Resolve() (baseURL, modelName string, err error) {
	provider := strings.ToLower(strings.TrimSpace(c.Provider))
	baseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	modelName = strings.TrimSpace(c.Model)

	p, known := presets[provider]
	if !known && baseURL == "" {
		return "", "", fmt.Errorf("unknown llm provider %q", c.Provider)
	}
	if baseURL == "" {
		baseURL = p.baseURL
	}
	if modelName == "" {
		modelName = p.defaultModel
	}
	if modelName == "" {
		return "", "", fmt.Errorf("llm model is required for provider %q", c.Provider)
	}
	return baseURL, modelName, nil
}

// New builds the tool-calling chat model used by the dialogue graphs.
func (c *Config) New(ctx context.Context) (model.ToolCallingChatModel, error) {
	baseURL, modelName, err := c.Resolve()
	if err != nil {
		return nil, err
	}

	conf := &openaimodel.ChatModelConfig{
		BaseURL:     baseURL,
		APIKey:      strings.TrimSpace(c.APIKey),
		Model:       modelName,
		MaxTokens:   c.MaxCompletionToken,
		Temperature: &c.Temperature,
		Timeout:     c.Timeout,
	}

	m, err := openaimodel.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("llmclient: create chat model: %w", err)
	}
	return m, nil
}

// NewClient creates a raw OpenAI SDK client for the configured provider.
// It returns nil when no API key is configured.
func NewClient(cfg Config) *openaisdk.Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}

	if baseURL, _, err := cfg.Resolve(); err == nil && baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openaisdk.NewClient(opts...)
	return &client
}
