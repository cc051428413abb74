package service

import (
	"context"
	"time"

	"github.com/relayworks/cortex/internal/domain"
	"github.com/relayworks/cortex/internal/pagination"
	"github.com/relayworks/cortex/internal/repository"
)

// ArticlePager lists articles from the durable store with cursor pagination.
type ArticlePager interface {
	GetByID(ctx context.Context, id string) (*domain.Article, error)
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*repository.ArticlePageResult, error)
}

// KnowledgeIndex is the index surface used by article management.
type KnowledgeIndex interface {
	Upsert(ctx context.Context, a *domain.Article) error
	Delete(ctx context.Context, id string) error
}

// URLSigner issues time-limited download URLs for archived source files.
type URLSigner interface {
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// CreateArticleInput describes a manually authored article.
type CreateArticleInput struct {
	Title       string
	Content     string
	Summary     string
	Category    string
	Tags        []string
	SourceURL   string
	AccessScope []string
}

// UpdateArticleInput carries a full article replacement.
type UpdateArticleInput struct {
	ID          string
	Title       string
	Content     string
	Summary     string
	Category    string
	Tags        []string
	SourceURL   string
	AccessScope []string
}

// ListArticlesInput carries pagination parameters.
type ListArticlesInput struct {
	Cursor string
	Limit  int
}

// ListArticlesOutput is one page of articles.
type ListArticlesOutput struct {
	Items   []*domain.Article
	Cursor  string
	HasMore bool
}

// ArticleService manages directly authored articles. Ingested documents go
// through IngestService instead; both end in the same index.
type ArticleService struct {
	pager   ArticlePager
	index   KnowledgeIndex
	signer  URLSigner
	uuidGen UUIDGenerator
}

// NewArticleService creates a new ArticleService. signer may be nil when no
// object storage is configured; source downloads are then unavailable.
func NewArticleService(pager ArticlePager, index KnowledgeIndex, signer URLSigner, uuidGen UUIDGenerator) *ArticleService {
	if uuidGen == nil {
		uuidGen = &DefaultUUIDGenerator{}
	}
	return &ArticleService{
		pager:   pager,
		index:   index,
		signer:  signer,
		uuidGen: uuidGen,
	}
}

// Create stores and indexes a manually authored article.
func (s *ArticleService) Create(ctx context.Context, input CreateArticleInput) (*domain.Article, error) {
	now := time.Now().UTC()
	article := domain.NewArticle(
		s.uuidGen.NewString(),
		input.Title,
		input.Content,
		input.Summary,
		domain.ParseCategory(input.Category),
		domain.SourceTypeManual,
		input.AccessScope,
		now,
	)
	article.Tags = input.Tags
	article.SourceURL = input.SourceURL

	if err := s.index.Upsert(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// Update fully replaces the article's content and metadata. The record keeps
// its creation time and source type; the vector entry is recomputed.
func (s *ArticleService) Update(ctx context.Context, input UpdateArticleInput) (*domain.Article, error) {
	article, err := s.pager.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	article.Title = input.Title
	article.Content = input.Content
	article.Summary = input.Summary
	article.Category = domain.ParseCategory(input.Category)
	article.Tags = input.Tags
	article.SourceURL = input.SourceURL
	if len(input.AccessScope) > 0 {
		article.AccessScope = input.AccessScope
	}
	article.UpdatedAt = time.Now().UTC()

	if err := s.index.Upsert(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// Get returns the article by id.
func (s *ArticleService) Get(ctx context.Context, id string) (*domain.Article, error) {
	return s.pager.GetByID(ctx, id)
}

// List returns one page of articles, newest first.
func (s *ArticleService) List(ctx context.Context, input ListArticlesInput) (*ListArticlesOutput, error) {
	var cursor *pagination.Cursor
	if input.Cursor != "" {
		decoded, err := pagination.DecodeCursor(input.Cursor)
		if err != nil {
			return nil, domain.NewDomainError(domain.ErrCodeValidation, "invalid cursor")
		}
		cursor = decoded
	}

	page, err := s.pager.ListWithCursor(ctx, cursor, input.Limit)
	if err != nil {
		return nil, err
	}

	return &ListArticlesOutput{
		Items:   page.Items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	}, nil
}

// Delete removes the article from the store and the index.
func (s *ArticleService) Delete(ctx context.Context, id string) error {
	return s.index.Delete(ctx, id)
}

// SourceDownloadURL returns a time-limited URL for the article's archived
// source file.
func (s *ArticleService) SourceDownloadURL(ctx context.Context, id string) (string, error) {
	article, err := s.pager.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	if article.StorageKey == "" || s.signer == nil {
		return "", domain.ErrSourceNotStored
	}

	return s.signer.GenerateDownloadURL(ctx, article.StorageKey)
}
