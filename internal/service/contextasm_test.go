package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/relayworks/cortex/internal/domain"
)

// MockSearcher is a mock implementation of Searcher
type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, query, scope string, limit int) ([]*ScoredArticle, error) {
	args := m.Called(ctx, query, scope, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ScoredArticle), args.Error(1)
}

// MockSnapshotProvider is a mock implementation of SnapshotProvider
type MockSnapshotProvider struct {
	mock.Mock
}

func (m *MockSnapshotProvider) ActiveProjects(ctx context.Context, limit int) ([]*domain.Project, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Project), args.Error(1)
}

func (m *MockSnapshotProvider) ActiveMembers(ctx context.Context, limit int) ([]*domain.Member, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Member), args.Error(1)
}

func scoredArticle(id, title, content string, score float32) *ScoredArticle {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := domain.NewArticle(id, title, content, "", domain.CategoryGeneral,
		domain.SourceTypeUpload, nil, now)
	return &ScoredArticle{Article: a, Score: score}
}

func emptySnapshot() *MockSnapshotProvider {
	snapshot := new(MockSnapshotProvider)
	snapshot.On("ActiveProjects", mock.Anything, mock.Anything).Return([]*domain.Project{}, nil)
	snapshot.On("ActiveMembers", mock.Anything, mock.Anything).Return([]*domain.Member{}, nil)
	return snapshot
}

func TestContextService_Assemble(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("includes snapshot digest and article sections", func(t *testing.T) {
		searcher := new(MockSearcher)
		snapshot := new(MockSnapshotProvider)
		svc := NewContextService(searcher, snapshot, DefaultContextConfig())

		searcher.On("Search", ctx, "who leads atlas?", "all", 5).Return([]*ScoredArticle{
			scoredArticle("a1", "Atlas Charter", "Atlas is the data platform rebuild.", 0.9),
		}, nil)
		snapshot.On("ActiveProjects", ctx, 5).Return([]*domain.Project{
			domain.NewProject("p1", "Atlas", "Data platform rebuild", domain.ProjectStatusActive, "Dana", now),
		}, nil)
		snapshot.On("ActiveMembers", ctx, 10).Return([]*domain.Member{
			domain.NewMember("m1", "Dana", "Staff Engineer", "Platform", domain.MemberStatusActive, now),
		}, nil)

		qc, err := svc.Assemble(ctx, "who leads atlas?", "all")

		require.NoError(t, err)
		assert.Contains(t, qc.Blob, "Active projects:")
		assert.Contains(t, qc.Blob, "Atlas (active), lead: Dana")
		assert.Contains(t, qc.Blob, "Team members:")
		assert.Contains(t, qc.Blob, "Dana, Staff Engineer (Platform)")
		assert.Contains(t, qc.Blob, "Article: Atlas Charter")
		require.Len(t, qc.Articles, 1)
	})

	t.Run("blob never exceeds the character ceiling", func(t *testing.T) {
		searcher := new(MockSearcher)
		cfg := DefaultContextConfig()
		cfg.MaxContextChars = 300
		svc := NewContextService(searcher, emptySnapshot(), cfg)

		long := strings.Repeat("knowledge ", 500)
		searcher.On("Search", ctx, mock.Anything, mock.Anything, mock.Anything).Return([]*ScoredArticle{
			scoredArticle("a1", "First", long, 0.9),
			scoredArticle("a2", "Second", long, 0.8),
			scoredArticle("a3", "Third", long, 0.7),
		}, nil)

		qc, err := svc.Assemble(ctx, "anything", "all")

		require.NoError(t, err)
		assert.LessOrEqual(t, len([]rune(qc.Blob)), 300)
		// All retrieved articles remain cited even when truncated out of
		// the blob.
		assert.Len(t, qc.Articles, 3)
	})

	t.Run("lower relevance articles are dropped first", func(t *testing.T) {
		searcher := new(MockSearcher)
		cfg := DefaultContextConfig()
		cfg.MaxContextChars = 120
		svc := NewContextService(searcher, emptySnapshot(), cfg)

		searcher.On("Search", ctx, mock.Anything, mock.Anything, mock.Anything).Return([]*ScoredArticle{
			scoredArticle("a1", "Most Relevant", strings.Repeat("x", 80), 0.9),
			scoredArticle("a2", "Least Relevant", strings.Repeat("y", 80), 0.2),
		}, nil)

		qc, err := svc.Assemble(ctx, "anything", "all")

		require.NoError(t, err)
		assert.Contains(t, qc.Blob, "Most Relevant")
		assert.NotContains(t, qc.Blob, "Least Relevant")
	})

	t.Run("search failure degrades to snapshot-only context", func(t *testing.T) {
		searcher := new(MockSearcher)
		snapshot := new(MockSnapshotProvider)
		svc := NewContextService(searcher, snapshot, DefaultContextConfig())

		searcher.On("Search", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("search unavailable"))
		snapshot.On("ActiveProjects", ctx, 5).Return([]*domain.Project{
			domain.NewProject("p1", "Atlas", "", domain.ProjectStatusActive, "", now),
		}, nil)
		snapshot.On("ActiveMembers", ctx, 10).Return([]*domain.Member{}, nil)

		qc, err := svc.Assemble(ctx, "anything", "all")

		require.NoError(t, err)
		assert.Empty(t, qc.Articles)
		assert.Contains(t, qc.Blob, "Atlas")
	})

	t.Run("snapshot failure degrades to article-only context", func(t *testing.T) {
		searcher := new(MockSearcher)
		snapshot := new(MockSnapshotProvider)
		svc := NewContextService(searcher, snapshot, DefaultContextConfig())

		searcher.On("Search", ctx, mock.Anything, mock.Anything, mock.Anything).Return([]*ScoredArticle{
			scoredArticle("a1", "Handbook", "Read the handbook.", 0.9),
		}, nil)
		snapshot.On("ActiveProjects", ctx, mock.Anything).Return(nil, errors.New("db down"))
		snapshot.On("ActiveMembers", ctx, mock.Anything).Return(nil, errors.New("db down"))

		qc, err := svc.Assemble(ctx, "anything", "all")

		require.NoError(t, err)
		assert.Contains(t, qc.Blob, "Article: Handbook")
		assert.NotContains(t, qc.Blob, "Active projects:")
	})

	t.Run("no results and no snapshot yields empty blob", func(t *testing.T) {
		searcher := new(MockSearcher)
		svc := NewContextService(searcher, emptySnapshot(), DefaultContextConfig())

		searcher.On("Search", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return([]*ScoredArticle{}, nil)

		qc, err := svc.Assemble(ctx, "anything", "all")

		require.NoError(t, err)
		assert.Empty(t, qc.Blob)
	})
}

func TestQueryContext_Sources(t *testing.T) {
	a := scoredArticle("a1", "Handbook", "content", 0.9)
	a.Article.SourceURL = "https://wiki.internal/handbook"
	qc := &QueryContext{Articles: []*ScoredArticle{a}}

	sources := qc.Sources()

	require.Len(t, sources, 1)
	assert.Equal(t, "a1", sources[0].ID)
	assert.Equal(t, "Handbook", sources[0].Title)
	assert.Equal(t, "https://wiki.internal/handbook", sources[0].URL)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "", truncate("abc", 0))
	// Rune-safe: no broken multi-byte sequences.
	assert.Equal(t, "héllo"[:3], truncate("héllo", 2))
}
