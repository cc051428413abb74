package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/relayworks/cortex/internal/api"
	"github.com/relayworks/cortex/internal/domain"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
}

type ProjectHandler struct {
	repo ProjectRepository
}

func NewProjectHandler(repo ProjectRepository) *ProjectHandler {
	return &ProjectHandler{repo: repo}
}

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Lead        string `json:"lead"`
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	project := domain.NewProject(uuid.NewString(), req.Name, req.Description,
		domain.ProjectStatus(req.Status), req.Lead, time.Now().UTC())
	if err := domain.ValidateProject(project); err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.repo.Create(r.Context(), project); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, project)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	project, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, project)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.repo.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if projects == nil {
		projects = []*domain.Project{}
	}

	api.Success(w, http.StatusOK, projects)
}
