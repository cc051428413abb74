package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/relayworks/cortex/internal/domain"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockUnindexedLister is a mock implementation of UnindexedLister
type MockUnindexedLister struct {
	mock.Mock
}

func (m *MockUnindexedLister) ListUnindexed(ctx context.Context, limit int) ([]*domain.Article, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Article), args.Error(1)
}

// MockReindexer is a mock implementation of Reindexer
type MockReindexer struct {
	mock.Mock
}

func (m *MockReindexer) Reindex(ctx context.Context, articleID string) error {
	args := m.Called(ctx, articleID)
	return args.Error(0)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(250 * time.Millisecond)

	// Stop worker
	worker.Stop()
	wg.Wait()

	// Verify ProcessJobs was called at least once
	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(150 * time.Millisecond)

	// Cancel context
	cancel()
	wg.Wait()

	// Verify ProcessJobs was called
	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestReconcileWorker_ProcessJobs_NothingToRepair tests a clean index
func TestReconcileWorker_ProcessJobs_NothingToRepair(t *testing.T) {
	mockLister := new(MockUnindexedLister)
	mockIndexer := new(MockReindexer)

	mockLister.On("ListUnindexed", mock.Anything, ReconcileBatchSize).Return([]*domain.Article{}, nil)

	worker := NewReconcileWorker(mockLister, mockIndexer)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockLister.AssertExpectations(t)
	mockIndexer.AssertNotCalled(t, "Reindex", mock.Anything, mock.Anything)
}

// TestReconcileWorker_ProcessJobs_RepairsDriftedArticles tests reindexing
func TestReconcileWorker_ProcessJobs_RepairsDriftedArticles(t *testing.T) {
	mockLister := new(MockUnindexedLister)
	mockIndexer := new(MockReindexer)

	articles := []*domain.Article{
		{ID: "article-1"},
		{ID: "article-2"},
	}

	mockLister.On("ListUnindexed", mock.Anything, ReconcileBatchSize).Return(articles, nil)
	mockIndexer.On("Reindex", mock.Anything, "article-1").Return(nil)
	mockIndexer.On("Reindex", mock.Anything, "article-2").Return(nil)

	worker := NewReconcileWorker(mockLister, mockIndexer)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockLister.AssertExpectations(t)
	mockIndexer.AssertExpectations(t)
}

// TestReconcileWorker_ProcessJobs_FailedReindexIsSkipped tests that one
// failing article does not block the rest of the sweep
func TestReconcileWorker_ProcessJobs_FailedReindexIsSkipped(t *testing.T) {
	mockLister := new(MockUnindexedLister)
	mockIndexer := new(MockReindexer)

	articles := []*domain.Article{
		{ID: "article-1"},
		{ID: "article-2"},
	}

	mockLister.On("ListUnindexed", mock.Anything, ReconcileBatchSize).Return(articles, nil)
	mockIndexer.On("Reindex", mock.Anything, "article-1").Return(errors.New("embedding backend down"))
	mockIndexer.On("Reindex", mock.Anything, "article-2").Return(nil)

	worker := NewReconcileWorker(mockLister, mockIndexer)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockIndexer.AssertExpectations(t)
}

// TestReconcileWorker_ProcessJobs_RepositoryError tests repository error handling
func TestReconcileWorker_ProcessJobs_RepositoryError(t *testing.T) {
	mockLister := new(MockUnindexedLister)
	mockIndexer := new(MockReindexer)

	mockLister.On("ListUnindexed", mock.Anything, mock.Anything).Return(nil, errors.New("database error"))

	worker := NewReconcileWorker(mockLister, mockIndexer)
	err := worker.ProcessJobs(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list unindexed articles")
	mockLister.AssertExpectations(t)
}
