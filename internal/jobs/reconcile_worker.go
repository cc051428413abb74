package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/relayworks/cortex/internal/domain"
)

const (
	// ReconcileBatchSize caps how many drifted articles one sweep repairs.
	ReconcileBatchSize = 20
)

// UnindexedLister finds articles whose vector entry is missing or older
// than the durable record.
type UnindexedLister interface {
	ListUnindexed(ctx context.Context, limit int) ([]*domain.Article, error)
}

// Reindexer recomputes the vector entry for one article.
type Reindexer interface {
	Reindex(ctx context.Context, articleID string) error
}

// ReconcileWorker repairs drift between the durable article store and the
// vector index. The durable store is the source of truth: any article it
// holds that the index lacks, or holds a stale entry for, gets reindexed.
type ReconcileWorker struct {
	lister  UnindexedLister
	indexer Reindexer
}

// NewReconcileWorker creates a new ReconcileWorker instance
func NewReconcileWorker(lister UnindexedLister, indexer Reindexer) *ReconcileWorker {
	return &ReconcileWorker{
		lister:  lister,
		indexer: indexer,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *ReconcileWorker) ProcessJobs(ctx context.Context) error {
	articles, err := w.lister.ListUnindexed(ctx, ReconcileBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list unindexed articles: %w", err)
	}

	if len(articles) == 0 {
		return nil
	}

	log.Printf("Reconciling %d unindexed articles", len(articles))

	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.indexer.Reindex(ctx, article.ID); err != nil {
			// Left for the next sweep; the article stays durable.
			log.Printf("Error reindexing article %s: %v", article.ID, err)
		}
	}

	return nil
}
