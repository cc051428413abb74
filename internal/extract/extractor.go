// Package extract converts raw document bytes into plain text for
// indexing and prompt assembly. Output is search-oriented: tabular
// formats are textualized row by row rather than preserved as grids.
package extract

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/relayworks/cortex/internal/domain"
)

// NoContentPlaceholder marks documents whose media type has no extractor.
// Ingestion stores the placeholder so a batch can continue past
// unsupported files.
const NoContentPlaceholder = "[no extractable content]"

// Supported media types.
const (
	MediaTypePDF        = "application/pdf"
	MediaTypeDocx       = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypeXlsx       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MediaTypePptx       = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MediaTypeLegacyDeck = "application/vnd.ms-powerpoint"
	MediaTypeCSV        = "text/csv"
	MediaTypePlain      = "text/plain"
	MediaTypeMarkdown   = "text/markdown"
)

// DeckConverter converts a legacy presentation file into plain text. The
// underlying tools only accept file paths, so the extractor hands the
// converter a scoped temporary file.
type DeckConverter interface {
	ConvertFile(ctx context.Context, path string) (string, error)
}

// Extractor converts raw file bytes into plain text by declared media type.
type Extractor struct {
	deckConverter DeckConverter
}

// NewExtractor creates an Extractor. deckConverter may be nil, in which
// case legacy presentation decks are reported as extraction failures.
func NewExtractor(deckConverter DeckConverter) *Extractor {
	return &Extractor{deckConverter: deckConverter}
}

// Extract converts data into plain text. Unsupported media types yield the
// NoContentPlaceholder and no error; a parse failure for a supported type
// is returned as a recoverable extraction error carrying fileName.
func (e *Extractor) Extract(ctx context.Context, data []byte, mediaType, fileName string) (string, error) {
	mt := normalizeMediaType(mediaType, fileName)

	var (
		text string
		err  error
	)

	switch mt {
	case MediaTypePDF:
		text, err = extractPDF(data)
	case MediaTypeDocx:
		text, err = extractDocx(data)
	case MediaTypeXlsx:
		text, err = extractXlsx(data)
	case MediaTypePptx:
		text, err = extractPptx(data)
	case MediaTypeLegacyDeck:
		text, err = e.extractLegacyDeck(ctx, data, fileName)
	case MediaTypeCSV:
		text, err = extractCSV(data)
	case MediaTypePlain, MediaTypeMarkdown:
		text = sanitizeText(string(data))
	default:
		return NoContentPlaceholder, nil
	}

	if err != nil {
		return "", domain.NewExtractionError(fileName, err)
	}

	return sanitizeText(text), nil
}

func (e *Extractor) extractLegacyDeck(ctx context.Context, data []byte, fileName string) (string, error) {
	if e.deckConverter == nil {
		return "", fmt.Errorf("no deck converter configured")
	}

	var text string
	err := withTempFile(data, filepath.Ext(fileName), func(path string) error {
		converted, convErr := e.deckConverter.ConvertFile(ctx, path)
		if convErr != nil {
			return convErr
		}
		text = converted
		return nil
	})
	return text, err
}

// normalizeMediaType strips parameters from the declared type and falls
// back to the file extension for generic declarations.
func normalizeMediaType(mediaType, fileName string) string {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}

	if mt != "" && mt != "application/octet-stream" {
		return mt
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MediaTypePDF
	case ".docx":
		return MediaTypeDocx
	case ".xlsx":
		return MediaTypeXlsx
	case ".pptx":
		return MediaTypePptx
	case ".ppt":
		return MediaTypeLegacyDeck
	case ".csv":
		return MediaTypeCSV
	case ".md", ".markdown":
		return MediaTypeMarkdown
	case ".txt":
		return MediaTypePlain
	}

	return mt
}

// sanitizeText guarantees valid UTF-8 and trims trailing whitespace.
func sanitizeText(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	return strings.TrimSpace(s)
}
