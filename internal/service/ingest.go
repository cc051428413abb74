package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relayworks/cortex/internal/domain"
	"github.com/relayworks/cortex/internal/telemetry"
)

const metadataSystemPrompt = "You label internal documents. Given document text, respond with a " +
	"JSON object: {\"summary\": string, \"category\": one of policy|engineering|operations|hr|finance|general, " +
	"\"tags\": [string]}. Respond with JSON only."

// TextExtractor converts raw file bytes into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mediaType, fileName string) (string, error)
}

// SourceArchiver stores the original uploaded bytes for later retrieval.
type SourceArchiver interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// Upserter is the knowledge index as ingestion sees it.
type Upserter interface {
	Upsert(ctx context.Context, a *domain.Article) error
}

// IngestInput is one document handed to the ingestion trigger.
type IngestInput struct {
	Data        []byte
	MediaType   string
	FileName    string
	SourceURL   string
	SourceType  domain.SourceType
	AccessScope []string
}

// BatchItemError records one skipped file in a batch.
type BatchItemError struct {
	FileName string
	Err      error
}

// BatchCreated pairs an indexed article with the file it came from.
type BatchCreated struct {
	FileName string
	Article  *domain.Article
}

// BatchResult summarizes a batch ingestion run.
type BatchResult struct {
	Created []BatchCreated
	Skipped []BatchItemError
}

// articleMetadata is the model-extracted document labeling.
type articleMetadata struct {
	Summary  string   `json:"summary"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// IngestService runs the extraction-to-index pipeline for incoming files.
type IngestService struct {
	extractor   TextExtractor
	index       Upserter
	generation  GenerationClient
	archiver    SourceArchiver
	uuidGen     UUIDGenerator
	metaModel   string
	concurrency int
}

// NewIngestService creates a new IngestService. generation and archiver may
// be nil; metadata enrichment and source archival are then skipped.
func NewIngestService(
	extractor TextExtractor,
	index Upserter,
	generation GenerationClient,
	archiver SourceArchiver,
	uuidGen UUIDGenerator,
	metaModel string,
	concurrency int,
) *IngestService {
	if uuidGen == nil {
		uuidGen = &DefaultUUIDGenerator{}
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &IngestService{
		extractor:   extractor,
		index:       index,
		generation:  generation,
		archiver:    archiver,
		uuidGen:     uuidGen,
		metaModel:   metaModel,
		concurrency: concurrency,
	}
}

// Ingest converts one file into an indexed article. Extraction failures are
// recoverable: the caller decides whether to skip or abort a batch.
func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*domain.Article, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Ingest", telemetry.SpanAttributes{
		Operation: "ingest",
	})
	defer span.End()

	if input.FileName == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "file name is required")
	}

	sourceType := input.SourceType
	if sourceType == "" {
		sourceType = domain.SourceTypeUpload
	}

	text, err := s.extractor.Extract(ctx, input.Data, input.MediaType, input.FileName)
	if err != nil {
		return nil, err
	}

	meta := s.extractMetadata(ctx, text)

	now := time.Now().UTC()
	article := domain.NewArticle(
		s.uuidGen.NewString(),
		titleFromFileName(input.FileName),
		text,
		meta.Summary,
		domain.ParseCategory(meta.Category),
		sourceType,
		input.AccessScope,
		now,
	)
	article.Tags = meta.Tags
	article.SourceURL = input.SourceURL

	if s.archiver != nil && len(input.Data) > 0 {
		key := fmt.Sprintf("sources/%s/%s", article.ID, input.FileName)
		if err := s.archiver.PutObject(ctx, key, input.Data, input.MediaType); err != nil {
			// Archival is enrichment; the article is still ingested.
			log.Printf("source archival failed for %s (continuing): %v", input.FileName, err)
		} else {
			article.StorageKey = key
		}
	}

	if err := s.index.Upsert(ctx, article); err != nil {
		return nil, err
	}

	return article, nil
}

// IngestBatch processes files with a fixed small concurrency cap so large
// batches cannot fan out unbounded calls to the embedding backend.
// Per-file extraction failures are collected and skipped; other failures
// abort the batch.
func (s *IngestService) IngestBatch(ctx context.Context, inputs []IngestInput) (*BatchResult, error) {
	result := &BatchResult{}

	created := make([]*domain.Article, len(inputs))
	skipped := make([]*BatchItemError, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, input := range inputs {
		g.Go(func() error {
			article, err := s.Ingest(gctx, input)
			if err != nil {
				if isExtractionError(err) {
					skipped[i] = &BatchItemError{FileName: input.FileName, Err: err}
					return nil
				}
				return err
			}
			created[i] = article
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range inputs {
		if created[i] != nil {
			result.Created = append(result.Created, BatchCreated{FileName: inputs[i].FileName, Article: created[i]})
		}
		if skipped[i] != nil {
			result.Skipped = append(result.Skipped, *skipped[i])
		}
	}

	return result, nil
}

// extractMetadata asks a model to label the document. Best-effort: any
// failure falls back to deterministic defaults.
func (s *IngestService) extractMetadata(ctx context.Context, text string) articleMetadata {
	meta := defaultMetadata(text)

	if s.generation == nil || s.metaModel == "" || strings.TrimSpace(text) == "" {
		return meta
	}

	excerpt := truncate(text, 4000)
	out, err := s.generation.Generate(ctx, s.metaModel, metadataSystemPrompt, excerpt)
	if err != nil {
		log.Printf("metadata extraction failed (using defaults): %v", err)
		return meta
	}

	var extracted articleMetadata
	if DecodeInto(out, &extracted, func() {}) {
		if extracted.Summary != "" {
			meta.Summary = extracted.Summary
		}
		if extracted.Category != "" {
			meta.Category = extracted.Category
		}
		if len(extracted.Tags) > 0 {
			meta.Tags = extracted.Tags
		}
	}

	return meta
}

// defaultMetadata derives a summary from the leading text when no model is
// available.
func defaultMetadata(text string) articleMetadata {
	summary := strings.TrimSpace(truncate(text, 200))
	if summary == text {
		summary = ""
	}
	return articleMetadata{
		Summary:  summary,
		Category: string(domain.CategoryGeneral),
	}
}

func titleFromFileName(fileName string) string {
	base := filepath.Base(fileName)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	title = strings.NewReplacer("-", " ", "_", " ").Replace(title)
	title = strings.TrimSpace(title)
	if title == "" {
		return base
	}
	return title
}

func isExtractionError(err error) bool {
	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == domain.ErrCodeExtraction
}
