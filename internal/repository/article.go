package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relayworks/cortex/internal/domain"
	"github.com/relayworks/cortex/internal/pagination"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ArticlePageResult is one page of articles with a continuation cursor.
type ArticlePageResult struct {
	Items      []*domain.Article
	NextCursor string
	HasMore    bool
}

// ArticleRepository is the durable article store: a mapping from article id
// to the full record. The vector index lives in its own table; the two are
// written independently.
type ArticleRepository struct {
	db dbtx
}

func NewArticleRepository(pool *pgxpool.Pool) *ArticleRepository {
	return &ArticleRepository{db: pool}
}

func NewArticleRepositoryWithTx(tx pgx.Tx) *ArticleRepository {
	return &ArticleRepository{db: tx}
}

// Put inserts or fully replaces the article record. Re-running the same put
// is safe; the row converges on the given state.
func (r *ArticleRepository) Put(ctx context.Context, a *domain.Article) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO articles (id, title, content, summary, category, tags, source_type, source_url, access_scope, storage_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
		   title = EXCLUDED.title,
		   content = EXCLUDED.content,
		   summary = EXCLUDED.summary,
		   category = EXCLUDED.category,
		   tags = EXCLUDED.tags,
		   source_type = EXCLUDED.source_type,
		   source_url = EXCLUDED.source_url,
		   access_scope = EXCLUDED.access_scope,
		   storage_key = EXCLUDED.storage_key,
		   updated_at = EXCLUDED.updated_at`,
		a.ID, a.Title, a.Content, a.Summary, a.Category, a.Tags, a.SourceType,
		nullableString(a.SourceURL), a.AccessScope, nullableString(a.StorageKey),
		a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, title, content, summary, category, tags, source_type, source_url, access_scope, storage_key, created_at, updated_at
		 FROM articles WHERE id = $1`,
		id,
	)
	a, err := scanArticleRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrArticleNotFound
		}
		return nil, err
	}
	return a, nil
}

// GetByIDs returns articles for the given ids, preserving input order.
// Missing ids are silently dropped; the caller treats the durable store as
// the source of truth over the vector index.
func (r *ArticleRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Article, error) {
	if len(ids) == 0 {
		return []*domain.Article{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, title, content, summary, category, tags, source_type, source_url, access_scope, storage_key, created_at, updated_at
		 FROM articles WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fetched, err := scanArticleRows(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Article, len(fetched))
	for _, a := range fetched {
		byID[a.ID] = a
	}

	ordered := make([]*domain.Article, 0, len(fetched))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			ordered = append(ordered, a)
		}
	}
	return ordered, nil
}

func (r *ArticleRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*ArticlePageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, title, content, summary, category, tags, source_type, source_url, access_scope, storage_key, created_at, updated_at
			 FROM articles
			 WHERE (updated_at, id) < ($1, $2)
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, title, content, summary, category, tags, source_type, source_url, access_scope, storage_key, created_at, updated_at
			 FROM articles
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanArticleRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.UpdatedAt)
	}

	return &ArticlePageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (r *ArticleRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM articles WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrArticleNotFound
	}
	return nil
}

// ListUnindexed returns articles with content that have no vector entry or
// whose vector entry predates the article. Used by the reconciliation
// worker to repair durable-but-not-indexed drift.
func (r *ArticleRepository) ListUnindexed(ctx context.Context, limit int) ([]*domain.Article, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx,
		`SELECT a.id, a.title, a.content, a.summary, a.category, a.tags, a.source_type, a.source_url, a.access_scope, a.storage_key, a.created_at, a.updated_at
		 FROM articles a
		 LEFT JOIN article_vectors v ON v.article_id = a.id
		 WHERE a.content <> '' AND (v.article_id IS NULL OR v.updated_at < a.updated_at)
		 ORDER BY a.updated_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanArticleRows(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticleRow(row rowScanner) (*domain.Article, error) {
	var a domain.Article
	var sourceURL, storageKey *string
	if err := row.Scan(&a.ID, &a.Title, &a.Content, &a.Summary, &a.Category, &a.Tags,
		&a.SourceType, &sourceURL, &a.AccessScope, &storageKey, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if sourceURL != nil {
		a.SourceURL = *sourceURL
	}
	if storageKey != nil {
		a.StorageKey = *storageKey
	}
	return &a, nil
}

func scanArticleRows(rows pgx.Rows) ([]*domain.Article, error) {
	var results []*domain.Article
	for rows.Next() {
		a, err := scanArticleRow(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
