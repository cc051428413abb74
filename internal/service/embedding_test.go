package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/relayworks/cortex/internal/domain"
)

// MockEmbeddingClient is a mock implementation of EmbeddingClient
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func TestEmbeddingService_Embed(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the backend embedding", func(t *testing.T) {
		client := new(MockEmbeddingClient)
		svc := NewEmbeddingService(client, 0)

		client.On("GenerateEmbedding", ctx, "vacation policy").Return([]float32{0.1, 0.2}, nil)

		embedding, err := svc.Embed(ctx, "vacation policy")

		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2}, embedding)
	})

	t.Run("empty text yields empty vector without calling the backend", func(t *testing.T) {
		client := new(MockEmbeddingClient)
		svc := NewEmbeddingService(client, 0)

		embedding, err := svc.Embed(ctx, "   \n\t ")

		require.NoError(t, err)
		assert.Empty(t, embedding)
		client.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
	})

	t.Run("input is truncated to the character budget", func(t *testing.T) {
		client := new(MockEmbeddingClient)
		svc := NewEmbeddingService(client, 10)

		client.On("GenerateEmbedding", ctx, mock.MatchedBy(func(text string) bool {
			return len([]rune(text)) == 10
		})).Return([]float32{0.1}, nil)

		_, err := svc.Embed(ctx, strings.Repeat("a", 50))

		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("backend failure maps to embedding unavailable", func(t *testing.T) {
		client := new(MockEmbeddingClient)
		svc := NewEmbeddingService(client, 0)

		client.On("GenerateEmbedding", ctx, mock.Anything).Return(nil, errors.New("503"))

		_, err := svc.Embed(ctx, "some text")

		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeEmbeddingUnavailable, domainErr.Code)
	})
}
