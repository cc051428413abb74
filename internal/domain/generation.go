package domain

import "fmt"

// GenerationErrorKind is a closed classification of generation failures.
// Each model adapter assigns a kind at the call boundary so that fallback
// and user-facing messaging operate on typed values, never on raw provider
// error strings.
type GenerationErrorKind string

const (
	GenerationErrModelNotFound GenerationErrorKind = "model-not-found"
	GenerationErrPermission    GenerationErrorKind = "permission"
	GenerationErrRateLimit     GenerationErrorKind = "rate-limit"
	GenerationErrSafetyBlock   GenerationErrorKind = "safety-block"
	GenerationErrOther         GenerationErrorKind = "other"
)

// UserMessage returns the user-facing diagnostic for this kind of failure.
func (k GenerationErrorKind) UserMessage() string {
	switch k {
	case GenerationErrModelNotFound:
		return "The configured language model is unavailable."
	case GenerationErrPermission:
		return "The language model credential or API is not enabled."
	case GenerationErrRateLimit:
		return "The language model quota has been exceeded. Try again later."
	case GenerationErrSafetyBlock:
		return "The response was filtered by the model's safety system."
	default:
		return "Answer generation failed. Try again later."
	}
}

// GenerationError carries a classified failure from one generation call.
type GenerationError struct {
	Model string
	Kind  GenerationErrorKind
	Err   error
}

// Error implements the error interface
func (e *GenerationError) Error() string {
	return fmt.Sprintf("model %s failed (%s): %v", e.Model, e.Kind, e.Err)
}

// Unwrap returns the underlying error
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewGenerationError creates a classified GenerationError.
func NewGenerationError(model string, kind GenerationErrorKind, err error) *GenerationError {
	return &GenerationError{Model: model, Kind: kind, Err: err}
}
