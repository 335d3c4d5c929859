package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
	// DefaultChatModel is the model used for answer generation
	DefaultChatModel = "gpt-4o-mini"
)

// Intent describes how an embedding will be used. Some providers encode
// documents and queries asymmetrically; OpenAI models do not, but the intent
// is part of the gateway contract and recorded for providers that do.
type Intent string

const (
	IntentDocument Intent = "document"
	IntentQuery    Intent = "query"
)

var (
	// ErrNoTexts is returned when the input batch is empty
	ErrNoTexts = errors.New("texts cannot be empty")
	// ErrWrongDimensions is returned when an embedding has unexpected dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrNoAPIKey is returned when the OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// EmbeddingAPI defines the interface for batch embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatAPI defines the interface for chat completion
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

// Client wraps the OpenAI API for embedding and chat completion calls.
type Client struct {
	embeddings EmbeddingAPI
	chat       ChatAPI
	dimensions int
}

// APIAdapter adapts the go-openai client to the gateway interfaces. A custom
// base URL allows OpenAI-compatible endpoints (e.g. Gemini).
type APIAdapter struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	chatModel      string
}

func NewAPIAdapter(apiKey, baseURL string, embeddingModel openai.EmbeddingModel, chatModel string) *APIAdapter {
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	if chatModel == "" {
		chatModel = DefaultChatModel
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &APIAdapter{
		client:         openai.NewClientWithConfig(cfg),
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
	}
}

// CreateEmbeddings calls the OpenAI API to embed a batch of texts
func (a *APIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: a.embeddingModel,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vectors[i] = item.Embedding
	}
	return vectors, nil
}

// CreateChatCompletion calls the OpenAI API to generate a chat response
func (a *APIAdapter) CreateChatCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.chatModel,
		Messages:    messages,
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	APIKey              string
	BaseURL             string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	ChatModel           string
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	adapter := NewAPIAdapter(cfg.APIKey, cfg.BaseURL, cfg.EmbeddingModel, cfg.ChatModel)
	return &Client{
		embeddings: adapter,
		chat:       adapter,
		dimensions: dimensions,
	}
}

// NewClientFromEnv creates a new OpenAI client using OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// Embed generates one embedding per input text. All vectors have the
// configured model-fixed dimensionality.
func (c *Client) Embed(ctx context.Context, texts []string, intent Intent) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrNoTexts
	}
	_ = intent // symmetric encoder, see Intent

	vectors, err := c.embeddings.CreateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	for _, v := range vectors {
		if len(v) != c.dimensions {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimensions, c.dimensions, len(v))
		}
	}

	return vectors, nil
}

// Dimensions returns the fixed embedding dimensionality for this deployment.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// ChatCompletion generates an answer for the given prompt, with optional
// prior conversation turns.
func (c *Client) ChatCompletion(ctx context.Context, prompt string, history []openai.ChatCompletionMessage) (string, error) {
	if prompt == "" {
		return "", errors.New("prompt cannot be empty")
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	answer, err := c.chat.CreateChatCompletion(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	return answer, nil
}
