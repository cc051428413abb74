package domain

import (
	"fmt"
	"slices"
	"time"
	"unicode/utf8"
)

// ArticleCategory represents the category of a knowledge article
type ArticleCategory string

const (
	CategoryPolicy      ArticleCategory = "policy"
	CategoryEngineering ArticleCategory = "engineering"
	CategoryOperations  ArticleCategory = "operations"
	CategoryHR          ArticleCategory = "hr"
	CategoryFinance     ArticleCategory = "finance"
	CategoryGeneral     ArticleCategory = "general"
)

// SourceType represents how an article entered the system
type SourceType string

const (
	SourceTypeUpload       SourceType = "upload"
	SourceTypeExternalSync SourceType = "external-sync"
	SourceTypeManual       SourceType = "manual"
)

// ScopeAll marks an article as visible to every department.
const ScopeAll = "all"

// Article represents a normalized unit of internal knowledge
type Article struct {
	ID          string
	Title       string
	Content     string
	Summary     string
	Category    ArticleCategory
	Tags        []string
	SourceType  SourceType
	SourceURL   string
	AccessScope []string
	StorageKey  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewArticle creates a new Article instance. An empty access scope
// defaults to unrestricted visibility.
func NewArticle(
	id, title, content, summary string,
	category ArticleCategory,
	sourceType SourceType,
	accessScope []string,
	now time.Time,
) *Article {
	if len(accessScope) == 0 {
		accessScope = []string{ScopeAll}
	}
	if category == "" {
		category = CategoryGeneral
	}
	return &Article{
		ID:          id,
		Title:       title,
		Content:     content,
		Summary:     summary,
		Category:    category,
		SourceType:  sourceType,
		AccessScope: accessScope,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// VisibleTo reports whether the article may be retrieved by the given scope.
func (a *Article) VisibleTo(scope string) bool {
	return slices.Contains(a.AccessScope, ScopeAll) || slices.Contains(a.AccessScope, scope)
}

// ValidateArticle validates an Article instance. Empty content is valid;
// such articles are stored but never surface in semantic search.
func ValidateArticle(a *Article) error {
	if a == nil {
		return fmt.Errorf("article cannot be nil")
	}

	if a.ID == "" {
		return fmt.Errorf("article ID is required")
	}

	if a.Title == "" {
		return fmt.Errorf("article Title is required")
	}

	if !utf8.ValidString(a.Content) {
		return fmt.Errorf("article Content must be valid text")
	}

	if !isValidCategory(a.Category) {
		return fmt.Errorf("article Category is invalid: %s", a.Category)
	}

	if !isValidSourceType(a.SourceType) {
		return fmt.Errorf("article SourceType is invalid: %s", a.SourceType)
	}

	if len(a.AccessScope) == 0 {
		return fmt.Errorf("article AccessScope is required")
	}

	return nil
}

// isValidCategory checks if an ArticleCategory is valid
func isValidCategory(c ArticleCategory) bool {
	switch c {
	case CategoryPolicy, CategoryEngineering, CategoryOperations,
		CategoryHR, CategoryFinance, CategoryGeneral:
		return true
	}
	return false
}

// isValidSourceType checks if a SourceType is valid
func isValidSourceType(s SourceType) bool {
	switch s {
	case SourceTypeUpload, SourceTypeExternalSync, SourceTypeManual:
		return true
	}
	return false
}

// ParseCategory returns the matching category or CategoryGeneral when the
// input does not name a known category.
func ParseCategory(s string) ArticleCategory {
	c := ArticleCategory(s)
	if isValidCategory(c) {
		return c
	}
	return CategoryGeneral
}
