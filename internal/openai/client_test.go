package openai

import (
	"context"
	"errors"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayworks/cortex/internal/domain"
)

type fakeAPI struct {
	embedding    []float32
	embeddingErr error

	completion   string
	finishReason openai.FinishReason
	generateErr  error
	lastModel    string
}

func (f *fakeAPI) CreateEmbeddings(_ context.Context, _ string) ([]float32, error) {
	return f.embedding, f.embeddingErr
}

func (f *fakeAPI) CreateCompletion(_ context.Context, model, _, _ string) (string, openai.FinishReason, error) {
	f.lastModel = model
	return f.completion, f.finishReason, f.generateErr
}

func newTestClient(api API) *Client {
	return &Client{api: api, dimensions: DefaultEmbeddingDimensions}
}

func TestGenerateEmbedding(t *testing.T) {
	vec := make([]float32, DefaultEmbeddingDimensions)
	vec[0] = 0.5

	client := newTestClient(&fakeAPI{embedding: vec})

	got, err := client.GenerateEmbedding(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, vec, got)
}

func TestGenerateEmbeddingEmptyText(t *testing.T) {
	client := newTestClient(&fakeAPI{})

	_, err := client.GenerateEmbedding(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestGenerateEmbeddingWrongDimensions(t *testing.T) {
	client := newTestClient(&fakeAPI{embedding: []float32{1, 2, 3}})

	_, err := client.GenerateEmbedding(context.Background(), "text")
	assert.ErrorIs(t, err, ErrWrongDimensions)
}

func TestGenerate(t *testing.T) {
	api := &fakeAPI{completion: "an answer", finishReason: openai.FinishReasonStop}
	client := newTestClient(api)

	text, err := client.Generate(context.Background(), "gpt-4o", "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "an answer", text)
	assert.Equal(t, "gpt-4o", api.lastModel)
}

func TestGenerateContentFilter(t *testing.T) {
	api := &fakeAPI{completion: "", finishReason: openai.FinishReasonContentFilter}
	client := newTestClient(api)

	_, err := client.Generate(context.Background(), "gpt-4o", "system", "user")
	require.Error(t, err)

	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, domain.GenerationErrSafetyBlock, genErr.Kind)
}

func TestGenerateClassifiesAPIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   domain.GenerationErrorKind
	}{
		{"not found", http.StatusNotFound, domain.GenerationErrModelNotFound},
		{"unauthorized", http.StatusUnauthorized, domain.GenerationErrPermission},
		{"forbidden", http.StatusForbidden, domain.GenerationErrPermission},
		{"rate limited", http.StatusTooManyRequests, domain.GenerationErrRateLimit},
		{"server error", http.StatusInternalServerError, domain.GenerationErrOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{generateErr: &openai.APIError{HTTPStatusCode: tt.status, Message: "boom"}}
			client := newTestClient(api)

			_, err := client.Generate(context.Background(), "gpt-4o", "s", "u")
			require.Error(t, err)

			var genErr *domain.GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, tt.kind, genErr.Kind)
			assert.Equal(t, "gpt-4o", genErr.Model)
		})
	}
}

func TestGenerateClassifiesUnknownErrors(t *testing.T) {
	api := &fakeAPI{generateErr: errors.New("connection reset")}
	client := newTestClient(api)

	_, err := client.Generate(context.Background(), "gpt-4o", "s", "u")
	require.Error(t, err)

	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, domain.GenerationErrOther, genErr.Kind)
}

func TestNewClientFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClientFromEnv()
	assert.ErrorIs(t, err, ErrNoAPIKey)

	t.Setenv("OPENAI_API_KEY", "sk-test")
	client, err := NewClientFromEnv()
	require.NoError(t, err)
	assert.NotNil(t, client)
}
