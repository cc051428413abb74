package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/relayworks/cortex/internal/api"
	"github.com/relayworks/cortex/internal/api/middleware"
	"github.com/relayworks/cortex/internal/service"
)

type AnswerService interface {
	Answer(ctx context.Context, question, scope string) (*service.AnswerResult, error)
}

type SearchService interface {
	Search(ctx context.Context, query, scope string, limit int) ([]*service.ScoredArticle, error)
}

type AskHandler struct {
	answers AnswerService
	search  SearchService
}

func NewAskHandler(answers AnswerService, search SearchService) *AskHandler {
	return &AskHandler{answers: answers, search: search}
}

type AskRequest struct {
	Question string `json:"question"`
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	result, err := h.answers.Answer(r.Context(), req.Question, middleware.GetScope(r.Context()))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}

type SearchResultResponse struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Summary   string  `json:"summary,omitempty"`
	Category  string  `json:"category"`
	SourceURL string  `json:"source_url,omitempty"`
	Score     float32 `json:"score"`
}

func (h *AskHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		api.Error(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 5
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	results, err := h.search.Search(r.Context(), query, middleware.GetScope(r.Context()), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*SearchResultResponse, len(results))
	for i, sa := range results {
		responses[i] = &SearchResultResponse{
			ID:        sa.Article.ID,
			Title:     sa.Article.Title,
			Summary:   sa.Article.Summary,
			Category:  string(sa.Article.Category),
			SourceURL: sa.Article.SourceURL,
			Score:     sa.Score,
		}
	}

	api.Success(w, http.StatusOK, responses)
}
