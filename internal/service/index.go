package service

import (
	"context"
	"log"
	"strings"

	"github.com/relayworks/cortex/internal/domain"
	"github.com/relayworks/cortex/internal/repository"
	"github.com/relayworks/cortex/internal/telemetry"
)

// ArticleStore is the durable article store as the index sees it.
type ArticleStore interface {
	Put(ctx context.Context, a *domain.Article) error
	GetByID(ctx context.Context, id string) (*domain.Article, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Article, error)
	Delete(ctx context.Context, id string) error
}

// VectorStore is the vector index backend as the index sees it.
type VectorStore interface {
	Upsert(ctx context.Context, entry *repository.VectorEntry) error
	Search(ctx context.Context, embedding []float32, scope string, limit int) ([]*repository.VectorMatch, error)
	Delete(ctx context.Context, articleID string) error
}

// Embedder vectorizes text for indexing and query embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ScoredArticle pairs a retrieved article with its relevance score.
type ScoredArticle struct {
	Article *domain.Article
	Score   float32
}

// IndexService coordinates the durable article store and the vector index.
// The two writes are not atomic; upsert is idempotent and safely
// retryable, and the durable store is the source of truth when they drift.
type IndexService struct {
	articles ArticleStore
	vectors  VectorStore
	embedder Embedder
}

// NewIndexService creates a new IndexService instance
func NewIndexService(articles ArticleStore, vectors VectorStore, embedder Embedder) *IndexService {
	return &IndexService{
		articles: articles,
		vectors:  vectors,
		embedder: embedder,
	}
}

// Upsert persists the article and refreshes its vector entry. An article
// whose text cannot be embedded stays durable but unsearchable. A vector
// write failure after a durable write succeeds is logged as a recoverable
// index inconsistency and left for the reconciliation sweep; it does not
// fail the upsert.
func (s *IndexService) Upsert(ctx context.Context, a *domain.Article) error {
	if err := domain.ValidateArticle(a); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid article", err)
	}

	ctx, span := telemetry.StartSpan(ctx, "IndexService.Upsert", telemetry.SpanAttributes{
		ArticleID: a.ID,
		Operation: "upsert",
	})
	defer span.End()

	if err := s.articles.Put(ctx, a); err != nil {
		return err
	}

	embedding, err := s.embedder.Embed(ctx, embeddingText(a))
	if err != nil {
		warn := domain.NewIndexInconsistencyError(a.ID, "durable but not indexed (embedding unavailable)", err)
		log.Printf("index upsert degraded: %v", warn)
		return nil
	}

	if len(embedding) == 0 {
		// Unembeddable content: drop any stale vector entry so searches
		// cannot surface outdated text.
		if err := s.vectors.Delete(ctx, a.ID); err != nil {
			log.Printf("index upsert: %v", domain.NewIndexInconsistencyError(a.ID, "stale vector entry not removed", err))
		}
		return nil
	}

	entry := &repository.VectorEntry{
		ArticleID:   a.ID,
		Embedding:   embedding,
		Title:       a.Title,
		Summary:     a.Summary,
		Category:    a.Category,
		SourceURL:   a.SourceURL,
		AccessScope: a.AccessScope,
		UpdatedAt:   a.UpdatedAt,
	}

	if err := s.vectors.Upsert(ctx, entry); err != nil {
		warn := domain.NewIndexInconsistencyError(a.ID, "durable but not indexed", err)
		log.Printf("index upsert degraded: %v", warn)
	}

	return nil
}

// Search embeds the query and retrieves up to limit articles visible to
// scope, ordered by descending similarity. Retrieval is best-effort
// augmentation: when the embedding or vector backend is unavailable the
// result is empty, not an error.
func (s *IndexService) Search(ctx context.Context, query, scope string, limit int) ([]*ScoredArticle, error) {
	ctx, span := telemetry.StartSpan(ctx, "IndexService.Search", telemetry.SpanAttributes{
		Scope:     scope,
		Operation: "search",
	})
	defer span.End()

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("search degraded to empty results: %v", err)
		return []*ScoredArticle{}, nil
	}
	if len(embedding) == 0 {
		return []*ScoredArticle{}, nil
	}

	matches, err := s.vectors.Search(ctx, embedding, scope, limit)
	if err != nil {
		log.Printf("search degraded to empty results: vector backend: %v", err)
		return []*ScoredArticle{}, nil
	}

	ids := make([]string, 0, len(matches))
	scores := make(map[string]float32, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ArticleID)
		scores[m.ArticleID] = m.Score
	}

	articles, err := s.articles.GetByIDs(ctx, ids)
	if err != nil {
		log.Printf("search degraded to empty results: article store: %v", err)
		return []*ScoredArticle{}, nil
	}

	results := make([]*ScoredArticle, 0, len(articles))
	for _, a := range articles {
		results = append(results, &ScoredArticle{Article: a, Score: scores[a.ID]})
	}
	return results, nil
}

// Delete removes the article from both stores. A vector-side failure after
// the durable delete succeeds is logged as a recoverable inconsistency, not
// swallowed and not fatal; re-running delete reconciles it.
func (s *IndexService) Delete(ctx context.Context, id string) error {
	if err := s.articles.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.vectors.Delete(ctx, id); err != nil {
		log.Printf("index delete: %v", domain.NewIndexInconsistencyError(id, "deleted but possibly still searchable", err))
	}

	return nil
}

// Reindex recomputes the vector entry for an article already in the
// durable store. The reconciliation worker uses this to repair drift.
func (s *IndexService) Reindex(ctx context.Context, id string) error {
	a, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return err
	}

	embedding, err := s.embedder.Embed(ctx, embeddingText(a))
	if err != nil {
		return err
	}
	if len(embedding) == 0 {
		return nil
	}

	return s.vectors.Upsert(ctx, &repository.VectorEntry{
		ArticleID:   a.ID,
		Embedding:   embedding,
		Title:       a.Title,
		Summary:     a.Summary,
		Category:    a.Category,
		SourceURL:   a.SourceURL,
		AccessScope: a.AccessScope,
		UpdatedAt:   a.UpdatedAt,
	})
}

// embeddingText concatenates title, summary and content for embedding.
func embeddingText(a *domain.Article) string {
	var parts []string
	if a.Title != "" {
		parts = append(parts, a.Title)
	}
	if a.Summary != "" {
		parts = append(parts, a.Summary)
	}
	if a.Content != "" {
		parts = append(parts, a.Content)
	}
	return strings.Join(parts, "\n\n")
}
