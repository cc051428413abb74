package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/relayworks/cortex/internal/domain"
)

// SnapshotProvider supplies the live organizational state consumed as
// read-only context. The pipeline never mutates these records.
type SnapshotProvider interface {
	ActiveProjects(ctx context.Context, limit int) ([]*domain.Project, error)
	ActiveMembers(ctx context.Context, limit int) ([]*domain.Member, error)
}

// Searcher is the knowledge index as the assembler sees it.
type Searcher interface {
	Search(ctx context.Context, query, scope string, limit int) ([]*ScoredArticle, error)
}

// QueryContext is the per-request assembled context: the selected articles
// with relevance scores plus the bounded prompt blob. Lifetime is one
// request; it is never persisted.
type QueryContext struct {
	Articles []*ScoredArticle
	Blob     string
}

// Sources returns the cited articles as (title, url) pairs. Citations come
// from the assembled context, never re-derived from model output.
func (q *QueryContext) Sources() []Source {
	sources := make([]Source, 0, len(q.Articles))
	for _, sa := range q.Articles {
		sources = append(sources, Source{
			ID:    sa.Article.ID,
			Title: sa.Article.Title,
			URL:   sa.Article.SourceURL,
		})
	}
	return sources
}

// Source identifies one article cited in an answer.
type Source struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// ContextConfig bounds assembled context size. The character ceiling is a
// cost and quality control for generative model input.
type ContextConfig struct {
	MaxContextChars  int
	SearchTopK       int
	SnapshotProjects int
	SnapshotMembers  int
	SectionChars     int
	SnapshotLineChars int
}

// DefaultContextConfig returns the default assembly bounds.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		MaxContextChars:   10000,
		SearchTopK:        5,
		SnapshotProjects:  5,
		SnapshotMembers:   10,
		SectionChars:      2500,
		SnapshotLineChars: 200,
	}
}

// ContextService selects and truncates relevant knowledge and live
// organizational facts into a bounded prompt context.
type ContextService struct {
	searcher Searcher
	snapshot SnapshotProvider
	cfg      ContextConfig
}

// NewContextService creates a new ContextService instance
func NewContextService(searcher Searcher, snapshot SnapshotProvider, cfg ContextConfig) *ContextService {
	if cfg.MaxContextChars <= 0 {
		cfg = DefaultContextConfig()
	}
	if cfg.SectionChars <= 0 {
		cfg.SectionChars = DefaultContextConfig().SectionChars
	}
	if cfg.SnapshotLineChars <= 0 {
		cfg.SnapshotLineChars = DefaultContextConfig().SnapshotLineChars
	}
	return &ContextService{
		searcher: searcher,
		snapshot: snapshot,
		cfg:      cfg,
	}
}

// Assemble builds the query context for one question. Retrieval and
// snapshot failures degrade to smaller context rather than failing the
// request. The blob never exceeds MaxContextChars; when space runs out the
// lowest-relevance article material is dropped first.
func (s *ContextService) Assemble(ctx context.Context, question, scope string) (*QueryContext, error) {
	articles, err := s.searcher.Search(ctx, question, scope, s.cfg.SearchTopK)
	if err != nil {
		log.Printf("context assembly: search failed, continuing without articles: %v", err)
		articles = nil
	}

	// Snapshot digest first: it is small, bounded, and always relevant.
	// Articles fill the remaining budget in relevance order.
	digest := s.snapshotDigest(ctx)

	sections := make([]string, 0, len(articles))
	for _, sa := range articles {
		sections = append(sections, articleSection(sa, s.cfg.SectionChars))
	}

	blob := assembleBlob(digest, sections, s.cfg.MaxContextChars)

	return &QueryContext{
		Articles: articles,
		Blob:     blob,
	}, nil
}

func (s *ContextService) snapshotDigest(ctx context.Context) string {
	if s.snapshot == nil {
		return ""
	}

	var sb strings.Builder

	projects, err := s.snapshot.ActiveProjects(ctx, s.cfg.SnapshotProjects)
	if err != nil {
		log.Printf("context assembly: project snapshot unavailable: %v", err)
	}
	if len(projects) > 0 {
		sb.WriteString("Active projects:\n")
		for _, p := range projects {
			line := fmt.Sprintf("- %s (%s)", p.Name, p.Status)
			if p.Lead != "" {
				line += ", lead: " + p.Lead
			}
			if p.Description != "" {
				line += ": " + p.Description
			}
			sb.WriteString(truncate(line, s.cfg.SnapshotLineChars))
			sb.WriteString("\n")
		}
	}

	members, err := s.snapshot.ActiveMembers(ctx, s.cfg.SnapshotMembers)
	if err != nil {
		log.Printf("context assembly: member snapshot unavailable: %v", err)
	}
	if len(members) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Team members:\n")
		for _, m := range members {
			line := fmt.Sprintf("- %s", m.Name)
			if m.Role != "" {
				line += ", " + m.Role
			}
			if m.Department != "" {
				line += " (" + m.Department + ")"
			}
			sb.WriteString(truncate(line, s.cfg.SnapshotLineChars))
			sb.WriteString("\n")
		}
	}

	return strings.TrimSpace(sb.String())
}

func articleSection(sa *ScoredArticle, maxChars int) string {
	a := sa.Article

	var sb strings.Builder
	sb.WriteString("Article: ")
	sb.WriteString(a.Title)
	sb.WriteString("\n")
	if a.Summary != "" {
		sb.WriteString(a.Summary)
		sb.WriteString("\n")
	}
	if a.Content != "" {
		sb.WriteString(a.Content)
	}

	return truncate(strings.TrimSpace(sb.String()), maxChars)
}

// assembleBlob joins the snapshot digest and article sections under
// ceiling. Sections arrive in descending relevance; trailing (lowest
// relevance) material is truncated or dropped first.
func assembleBlob(digest string, sections []string, ceiling int) string {
	const separator = "\n\n"

	var sb strings.Builder
	if digest != "" {
		sb.WriteString(truncate(digest, ceiling))
	}

	for _, section := range sections {
		remaining := ceiling - len([]rune(sb.String()))
		if sb.Len() > 0 {
			remaining -= len(separator)
		}
		if remaining <= 0 {
			break
		}

		if sb.Len() > 0 {
			sb.WriteString(separator)
		}
		sb.WriteString(truncate(section, remaining))
	}

	return sb.String()
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
