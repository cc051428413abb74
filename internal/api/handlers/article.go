package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/relayworks/cortex/internal/api"
	"github.com/relayworks/cortex/internal/domain"
	"github.com/relayworks/cortex/internal/service"
)

type ArticleService interface {
	Create(ctx context.Context, input service.CreateArticleInput) (*domain.Article, error)
	Update(ctx context.Context, input service.UpdateArticleInput) (*domain.Article, error)
	Get(ctx context.Context, id string) (*domain.Article, error)
	List(ctx context.Context, input service.ListArticlesInput) (*service.ListArticlesOutput, error)
	Delete(ctx context.Context, id string) error
	SourceDownloadURL(ctx context.Context, id string) (string, error)
}

type ArticleHandler struct {
	svc ArticleService
}

func NewArticleHandler(svc ArticleService) *ArticleHandler {
	return &ArticleHandler{svc: svc}
}

type ArticleRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	SourceURL   string   `json:"source_url"`
	AccessScope []string `json:"access_scope"`
}

type ArticleResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	SourceType  string   `json:"source_type"`
	SourceURL   string   `json:"source_url,omitempty"`
	AccessScope []string `json:"access_scope"`
	StorageKey  string   `json:"storage_key,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func articleToResponse(a *domain.Article) *ArticleResponse {
	return &ArticleResponse{
		ID:          a.ID,
		Title:       a.Title,
		Content:     a.Content,
		Summary:     a.Summary,
		Category:    string(a.Category),
		Tags:        a.Tags,
		SourceType:  string(a.SourceType),
		SourceURL:   a.SourceURL,
		AccessScope: a.AccessScope,
		StorageKey:  a.StorageKey,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   a.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	article, err := h.svc.Create(r.Context(), service.CreateArticleInput{
		Title:       req.Title,
		Content:     req.Content,
		Summary:     req.Summary,
		Category:    req.Category,
		Tags:        req.Tags,
		SourceURL:   req.SourceURL,
		AccessScope: req.AccessScope,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, articleToResponse(article))
}

func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	article, err := h.svc.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, articleToResponse(article))
}

func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req ArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	article, err := h.svc.Update(r.Context(), service.UpdateArticleInput{
		ID:          id,
		Title:       req.Title,
		Content:     req.Content,
		Summary:     req.Summary,
		Category:    req.Category,
		Tags:        req.Tags,
		SourceURL:   req.SourceURL,
		AccessScope: req.AccessScope,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, articleToResponse(article))
}

func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// Source returns a time-limited download URL for the original uploaded
// file, when one was archived at ingest time.
func (h *ArticleHandler) Source(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	url, err := h.svc.SourceDownloadURL(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"download_url": url})
}

type ArticleListResponse struct {
	Items   []*ArticleResponse `json:"items"`
	Cursor  string             `json:"cursor,omitempty"`
	HasMore bool               `json:"has_more"`
}

func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	limitStr := r.URL.Query().Get("limit")
	limit := 20
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	output, err := h.svc.List(r.Context(), service.ListArticlesInput{
		Cursor: cursor,
		Limit:  limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*ArticleResponse, len(output.Items))
	for i, a := range output.Items {
		responses[i] = articleToResponse(a)
	}

	api.Success(w, http.StatusOK, ArticleListResponse{
		Items:   responses,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}
