package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/relayworks/cortex/internal/domain"
)

// VectorEntry is the vector-index record for one article: the embedding
// plus a minimal metadata projection. The embedding is owned exclusively by
// this entry and recomputed, never patched, when content changes.
type VectorEntry struct {
	ArticleID   string
	Embedding   []float32
	Title       string
	Summary     string
	Category    domain.ArticleCategory
	SourceURL   string
	AccessScope []string
	UpdatedAt   time.Time
}

// VectorMatch is one nearest-neighbor hit from the vector index.
type VectorMatch struct {
	ArticleID string
	Title     string
	Summary   string
	SourceURL string
	Score     float32
	UpdatedAt time.Time
}

// VectorRepository maintains the vector index: one embedding plus a minimal
// metadata projection per article id. It is deliberately decoupled from the
// articles table so that writes to the two stores can fail independently.
type VectorRepository struct {
	db dbtx
}

func NewVectorRepository(pool *pgxpool.Pool) *VectorRepository {
	return &VectorRepository{db: pool}
}

// Upsert stores or replaces the vector entry for one article. The embedding
// is owned exclusively by this entry; re-upserting replaces it wholesale.
func (r *VectorRepository) Upsert(ctx context.Context, entry *VectorEntry) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO article_vectors (article_id, embedding, title, summary, category, source_url, access_scope, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (article_id) DO UPDATE SET
		   embedding = EXCLUDED.embedding,
		   title = EXCLUDED.title,
		   summary = EXCLUDED.summary,
		   category = EXCLUDED.category,
		   source_url = EXCLUDED.source_url,
		   access_scope = EXCLUDED.access_scope,
		   updated_at = EXCLUDED.updated_at`,
		entry.ArticleID, pgvector.NewVector(entry.Embedding), entry.Title, entry.Summary,
		entry.Category, nullableString(entry.SourceURL), entry.AccessScope, entry.UpdatedAt,
	)
	return err
}

// Search performs nearest-neighbor retrieval restricted to entries visible
// to scope. Global visibility is the wildcard scope value, folded into the
// array-overlap filter. Ties on similarity resolve to the most recently
// updated entry.
func (r *VectorRepository) Search(ctx context.Context, embedding []float32, scope string, limit int) ([]*VectorMatch, error) {
	if limit <= 0 {
		limit = 5
	}

	vec := pgvector.NewVector(embedding)
	visibleTo := []string{scope, domain.ScopeAll}

	rows, err := r.db.Query(ctx,
		`SELECT article_id, title, summary, source_url,
		        1.0 / (1.0 + (embedding <=> $1)) AS score,
		        updated_at
		 FROM article_vectors
		 WHERE access_scope && $2
		 ORDER BY score DESC, updated_at DESC
		 LIMIT $3`,
		vec, visibleTo, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*VectorMatch, 0, limit)
	for rows.Next() {
		var m VectorMatch
		var sourceURL *string
		var updatedAt time.Time
		if err := rows.Scan(&m.ArticleID, &m.Title, &m.Summary, &sourceURL, &m.Score, &updatedAt); err != nil {
			return nil, err
		}
		if sourceURL != nil {
			m.SourceURL = *sourceURL
		}
		m.UpdatedAt = updatedAt
		results = append(results, &m)
	}

	return results, rows.Err()
}

// Delete removes the vector entry for an article. Deleting an absent entry
// is not an error; delete must be retryable.
func (r *VectorRepository) Delete(ctx context.Context, articleID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM article_vectors WHERE article_id = $1`,
		articleID,
	)
	return err
}
