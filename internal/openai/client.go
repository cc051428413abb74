// Package openai adapts the OpenAI API for embedding and answer
// generation. All provider errors are classified into typed kinds at this
// boundary so callers never inspect raw error strings.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/relayworks/cortex/internal/domain"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when embedding has wrong dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions, expected 1536")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
	// ErrEmptyCompletion is returned when the model produced no text
	ErrEmptyCompletion = errors.New("model returned no completion text")
)

// API defines the raw OpenAI operations the client depends on.
type API interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
	CreateCompletion(ctx context.Context, model, systemPrompt, userPrompt string) (string, openai.FinishReason, error)
}

// Client wraps the OpenAI API for embeddings and chat completions.
type Client struct {
	api        API
	dimensions int
}

// SDKAdapter implements API on top of sashabaranov/go-openai.
type SDKAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewSDKAdapter(apiKey string, embeddingModel openai.EmbeddingModel) *SDKAdapter {
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	return &SDKAdapter{
		client: openai.NewClient(apiKey),
		model:  embeddingModel,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings
func (a *SDKAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// CreateCompletion calls the OpenAI chat completion API with one system and
// one user message and returns the first choice.
func (a *SDKAdapter) CreateCompletion(ctx context.Context, model, systemPrompt, userPrompt string) (string, openai.FinishReason, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", "", err
	}

	if len(resp.Choices) == 0 {
		return "", "", ErrEmptyCompletion
	}

	choice := resp.Choices[0]
	return choice.Message.Content, choice.FinishReason, nil
}

type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
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
	return &Client{
		api:        NewSDKAdapter(cfg.APIKey, cfg.EmbeddingModel),
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

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := c.api.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(embedding) != c.dimensions {
		return nil, ErrWrongDimensions
	}

	return embedding, nil
}

// Generate produces completion text from the named model. Failures are
// returned as *domain.GenerationError with a classified kind; a safety
// filter that suppresses all output is reported the same way.
func (c *Client) Generate(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	text, finishReason, err := c.api.CreateCompletion(ctx, model, systemPrompt, userPrompt)
	if err != nil {
		return "", domain.NewGenerationError(model, classifyErr(err), err)
	}

	if finishReason == openai.FinishReasonContentFilter && text == "" {
		return "", domain.NewGenerationError(model, domain.GenerationErrSafetyBlock,
			errors.New("completion suppressed by content filter"))
	}

	return text, nil
}

// classifyErr maps provider failures onto the closed GenerationErrorKind
// set using the API error status code, never message substrings.
func classifyErr(err error) domain.GenerationErrorKind {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusNotFound:
			return domain.GenerationErrModelNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.GenerationErrPermission
		case http.StatusTooManyRequests:
			return domain.GenerationErrRateLimit
		}
		return domain.GenerationErrOther
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusNotFound:
			return domain.GenerationErrModelNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.GenerationErrPermission
		case http.StatusTooManyRequests:
			return domain.GenerationErrRateLimit
		}
	}

	return domain.GenerationErrOther
}
