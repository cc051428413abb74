package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/relayworks/cortex/internal/domain"
	"github.com/relayworks/cortex/internal/service"
)

type MockArticleService struct {
	mock.Mock
}

func (m *MockArticleService) Create(ctx context.Context, input service.CreateArticleInput) (*domain.Article, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Article), args.Error(1)
}

func (m *MockArticleService) Update(ctx context.Context, input service.UpdateArticleInput) (*domain.Article, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Article), args.Error(1)
}

func (m *MockArticleService) Get(ctx context.Context, id string) (*domain.Article, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Article), args.Error(1)
}

func (m *MockArticleService) List(ctx context.Context, input service.ListArticlesInput) (*service.ListArticlesOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListArticlesOutput), args.Error(1)
}

func (m *MockArticleService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockArticleService) SourceDownloadURL(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func urlParamRequest(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func sampleArticle() *domain.Article {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return domain.NewArticle("a1", "Vacation Policy", "25 days", "summary",
		domain.CategoryHR, domain.SourceTypeManual, []string{"hr"}, now)
}

func TestArticleHandler_Create(t *testing.T) {
	t.Run("creates an article", func(t *testing.T) {
		svc := new(MockArticleService)
		handler := NewArticleHandler(svc)

		svc.On("Create", mock.Anything, mock.MatchedBy(func(input service.CreateArticleInput) bool {
			return input.Title == "Vacation Policy" && input.Category == "hr"
		})).Return(sampleArticle(), nil)

		body, _ := json.Marshal(ArticleRequest{
			Title:       "Vacation Policy",
			Content:     "25 days",
			Category:    "hr",
			AccessScope: []string{"hr"},
		})
		req := httptest.NewRequest(http.MethodPost, "/articles", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Data ArticleResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "a1", resp.Data.ID)
		assert.Equal(t, "manual", resp.Data.SourceType)
	})

	t.Run("rejects missing title", func(t *testing.T) {
		handler := NewArticleHandler(new(MockArticleService))

		body, _ := json.Marshal(ArticleRequest{Content: "text"})
		req := httptest.NewRequest(http.MethodPost, "/articles", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestArticleHandler_Get(t *testing.T) {
	t.Run("returns the article", func(t *testing.T) {
		svc := new(MockArticleService)
		handler := NewArticleHandler(svc)

		svc.On("Get", mock.Anything, "a1").Return(sampleArticle(), nil)

		req := urlParamRequest(httptest.NewRequest(http.MethodGet, "/articles/a1", nil), "id", "a1")
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("maps not found", func(t *testing.T) {
		svc := new(MockArticleService)
		handler := NewArticleHandler(svc)

		svc.On("Get", mock.Anything, "missing").Return(nil, domain.ErrArticleNotFound)

		req := urlParamRequest(httptest.NewRequest(http.MethodGet, "/articles/missing", nil), "id", "missing")
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestArticleHandler_Delete(t *testing.T) {
	svc := new(MockArticleService)
	handler := NewArticleHandler(svc)

	svc.On("Delete", mock.Anything, "a1").Return(nil)

	req := urlParamRequest(httptest.NewRequest(http.MethodDelete, "/articles/a1", nil), "id", "a1")
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestArticleHandler_Source(t *testing.T) {
	t.Run("returns a download url", func(t *testing.T) {
		svc := new(MockArticleService)
		handler := NewArticleHandler(svc)

		svc.On("SourceDownloadURL", mock.Anything, "a1").
			Return("https://storage.example/sources/a1/policy.pdf?sig=abc", nil)

		req := urlParamRequest(httptest.NewRequest(http.MethodGet, "/articles/a1/source", nil), "id", "a1")
		rec := httptest.NewRecorder()

		handler.Source(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "download_url")
	})

	t.Run("maps missing source to not found", func(t *testing.T) {
		svc := new(MockArticleService)
		handler := NewArticleHandler(svc)

		svc.On("SourceDownloadURL", mock.Anything, "a1").Return("", domain.ErrSourceNotStored)

		req := urlParamRequest(httptest.NewRequest(http.MethodGet, "/articles/a1/source", nil), "id", "a1")
		rec := httptest.NewRecorder()

		handler.Source(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestArticleHandler_List(t *testing.T) {
	svc := new(MockArticleService)
	handler := NewArticleHandler(svc)

	svc.On("List", mock.Anything, service.ListArticlesInput{Limit: 2}).Return(&service.ListArticlesOutput{
		Items:   []*domain.Article{sampleArticle()},
		Cursor:  "next-cursor",
		HasMore: true,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/articles?limit=2", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data ArticleListResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, "next-cursor", resp.Data.Cursor)
	assert.True(t, resp.Data.HasMore)
}
