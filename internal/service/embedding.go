package service

import (
	"context"
	"strings"

	"github.com/relayworks/cortex/internal/domain"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingService converts text into fixed-dimension vectors, bounding the
// input to control embedding cost.
type EmbeddingService struct {
	client     EmbeddingClient
	charBudget int
}

// DefaultEmbedCharBudget bounds text sent to the embedding endpoint.
const DefaultEmbedCharBudget = 6000

// NewEmbeddingService creates a new EmbeddingService instance
func NewEmbeddingService(client EmbeddingClient, charBudget int) *EmbeddingService {
	if charBudget <= 0 {
		charBudget = DefaultEmbedCharBudget
	}
	return &EmbeddingService{
		client:     client,
		charBudget: charBudget,
	}
}

// Embed returns the embedding vector for text. Empty input yields an empty
// vector, not an error: callers exclude zero-length vectors from indexing
// and search. Backend failures are reported as the retryable
// EMBEDDING_UNAVAILABLE condition.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	if runes := []rune(text); len(runes) > s.charBudget {
		text = string(runes[:s.charBudget])
	}

	embedding, err := s.client.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingUnavailable,
			"embedding backend unavailable", err)
	}

	return embedding, nil
}
