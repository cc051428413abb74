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

type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id string) (*domain.Member, error)
	List(ctx context.Context) ([]*domain.Member, error)
}

type MemberHandler struct {
	repo MemberRepository
}

func NewMemberHandler(repo MemberRepository) *MemberHandler {
	return &MemberHandler{repo: repo}
}

type CreateMemberRequest struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Status     string `json:"status"`
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	member := domain.NewMember(uuid.NewString(), req.Name, req.Role, req.Department,
		domain.MemberStatus(req.Status), time.Now().UTC())
	if err := domain.ValidateMember(member); err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.repo.Create(r.Context(), member); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, member)
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	member, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, member)
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.repo.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if members == nil {
		members = []*domain.Member{}
	}

	api.Success(w, http.StatusOK, members)
}
