package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/relayworks/cortex/internal/domain"
	"github.com/relayworks/cortex/internal/telemetry"
)

const answerSystemPrompt = "You are an internal knowledge assistant. Answer questions using the " +
	"provided company context. Be concise and accurate. If the context does not " +
	"contain the answer, say so rather than guessing."

const followUpSystemPrompt = "You suggest short follow-up questions a user might ask next. " +
	"Respond with a JSON array of at most three question strings."

// GenerationClient is the generative model endpoint as the orchestrator
// sees it. Errors carry a classified *domain.GenerationError.
type GenerationClient interface {
	Generate(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

// ContextAssembler builds the bounded query context for a question.
type ContextAssembler interface {
	Assemble(ctx context.Context, question, scope string) (*QueryContext, error)
}

// GenerationAttempt records one fallback step for logging. Never persisted
// beyond the request.
type GenerationAttempt struct {
	Model string
	Kind  domain.GenerationErrorKind
	Err   error
}

// AnswerResult is the structured response for one question.
type AnswerResult struct {
	Text              string   `json:"answer"`
	Model             string   `json:"model"`
	Sources           []Source `json:"sources"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

// AnswerService drives answer generation: context assembly, a ranked
// fallback chain of candidate models, and best-effort enrichment.
type AnswerService struct {
	assembler ContextAssembler
	client    GenerationClient
	models    []string
}

// NewAnswerService creates a new AnswerService. models is the ordered
// candidate list: primary first, fallbacks after.
func NewAnswerService(assembler ContextAssembler, client GenerationClient, models []string) *AnswerService {
	return &AnswerService{
		assembler: assembler,
		client:    client,
		models:    models,
	}
}

// Answer responds to a question for the given access scope. Candidates are
// tried in declared order and the first non-empty completion wins. When
// every candidate fails, the last classified failure is translated into a
// user-facing ALL_MODELS_FAILED diagnostic.
func (s *AnswerService) Answer(ctx context.Context, question, scope string) (*AnswerResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "AnswerService.Answer", telemetry.SpanAttributes{
		Scope:     scope,
		Operation: "answer",
	})
	defer span.End()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "question is required")
	}

	qc, err := s.assembler.Assemble(ctx, question, scope)
	if err != nil {
		return nil, err
	}

	prompt := buildAnswerPrompt(qc.Blob, question)

	text, model, attempts := s.generateWithFallback(ctx, prompt)
	if text == "" {
		last := attempts[len(attempts)-1]
		return nil, domain.NewAllModelsFailedError(last.Kind, last.Err)
	}

	result := &AnswerResult{
		Text:    text,
		Model:   model,
		Sources: qc.Sources(),
	}

	// Best-effort enrichment: a failure here degrades to an empty list and
	// never blocks the primary answer.
	result.FollowUpQuestions = s.followUpQuestions(ctx, model, question, text)

	return result, nil
}

// generateWithFallback walks the candidate list in order, stopping at the
// first non-empty completion. Every failure is recorded and logged with its
// attempt order so fallback exhaustion can be diagnosed.
func (s *AnswerService) generateWithFallback(ctx context.Context, prompt string) (string, string, []GenerationAttempt) {
	attempts := make([]GenerationAttempt, 0, len(s.models))

	for i, model := range s.models {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, GenerationAttempt{Model: model, Kind: domain.GenerationErrOther, Err: err})
			break
		}

		text, err := s.client.Generate(ctx, model, answerSystemPrompt, prompt)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, model, attempts
		}

		attempt := GenerationAttempt{Model: model, Kind: domain.GenerationErrOther}
		if err != nil {
			attempt.Err = err
			var genErr *domain.GenerationError
			if errors.As(err, &genErr) {
				attempt.Kind = genErr.Kind
			}
		} else {
			attempt.Err = errors.New("model returned empty text")
		}
		attempts = append(attempts, attempt)

		log.Printf("generation attempt %d/%d failed: model=%s kind=%s err=%v",
			i+1, len(s.models), model, attempt.Kind, attempt.Err)
	}

	if len(attempts) == 0 {
		attempts = append(attempts, GenerationAttempt{
			Kind: domain.GenerationErrOther,
			Err:  errors.New("no generation models configured"),
		})
	}

	return "", "", attempts
}

// followUpQuestions asks the winning model for suggested next questions.
func (s *AnswerService) followUpQuestions(ctx context.Context, model, question, answer string) []string {
	prompt := fmt.Sprintf("Question: %s\n\nAnswer: %s\n\nSuggest follow-up questions.", question, answer)

	text, err := s.client.Generate(ctx, model, followUpSystemPrompt, prompt)
	if err != nil {
		log.Printf("follow-up generation failed (continuing): %v", err)
		return []string{}
	}

	var questions []string
	DecodeInto(text, &questions, func() { questions = []string{} })

	if len(questions) > 3 {
		questions = questions[:3]
	}
	return questions
}

func buildAnswerPrompt(contextBlob, question string) string {
	var sb strings.Builder
	if contextBlob != "" {
		sb.WriteString("Context:\n")
		sb.WriteString(contextBlob)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)
	return sb.String()
}
