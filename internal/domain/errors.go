package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"

	// Pipeline error codes
	ErrCodeExtraction           = "EXTRACTION_FAILED"
	ErrCodeEmbeddingUnavailable = "EMBEDDING_UNAVAILABLE"
	ErrCodeIndexInconsistency   = "INDEX_INCONSISTENCY"
	ErrCodeAllModelsFailed      = "ALL_MODELS_FAILED"
)

// Validation errors
var (
	ErrInvalidCategory      = NewDomainError(ErrCodeValidation, "invalid article category")
	ErrInvalidSourceType    = NewDomainError(ErrCodeValidation, "invalid article source type")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrArticleNotFound = NewDomainError(ErrCodeNotFound, "article not found")
	ErrProjectNotFound = NewDomainError(ErrCodeNotFound, "project not found")
	ErrMemberNotFound  = NewDomainError(ErrCodeNotFound, "member not found")
	ErrSourceNotStored = NewDomainError(ErrCodeNotFound, "article has no archived source file")
)

// Pipeline errors
var (
	// ErrEmbeddingUnavailable signals a retryable embedding backend failure.
	// Callers degrade to proceeding without the unembeddable item.
	ErrEmbeddingUnavailable = NewDomainError(ErrCodeEmbeddingUnavailable, "embedding backend unavailable")
)

// NewExtractionError reports a recoverable per-file extraction failure.
// Batch callers skip the file and continue.
func NewExtractionError(fileName string, cause error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeExtraction, fmt.Sprintf("failed to extract %q", fileName), cause)
}

// NewIndexInconsistencyError reports that the durable store and the vector
// index disagree for one article. Recoverable; reconciled by re-upsert.
func NewIndexInconsistencyError(articleID, detail string, cause error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeIndexInconsistency,
		fmt.Sprintf("article %s: %s", articleID, detail), cause)
}

// NewAllModelsFailedError reports fallback exhaustion, translated from the
// last classified failure. The message is safe to show to end users.
func NewAllModelsFailedError(kind GenerationErrorKind, cause error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeAllModelsFailed, kind.UserMessage(), cause)
}
