//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relayworks/cortex/internal/api/handlers"
	"github.com/relayworks/cortex/internal/domain"
	"github.com/relayworks/cortex/internal/extract"
	"github.com/relayworks/cortex/internal/repository"
	"github.com/relayworks/cortex/internal/server"
	"github.com/relayworks/cortex/internal/service"
	"github.com/relayworks/cortex/internal/storage"
	"github.com/relayworks/cortex/internal/testutil"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	S3Client     *storage.S3Client
	HTTPClient   *http.Client
	AI           *stubAIClient
}

// SetupE2EEnv creates a full E2E test environment with containers and an
// in-process server. Model backends are replaced with deterministic stubs
// so the suite runs without external credentials.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "cortex-sources-test",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}

	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	ai := &stubAIClient{}
	serverURL, serverCloser := startServer(t, pool, s3Client, ai, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		S3Client:     s3Client,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		AI:           ai,
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path, scope string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil, scope)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}, scope string) (*APIResponse, error) {
	return e.doRequest("POST", path, body, scope)
}

// Put performs a PUT request
func (e *E2ETestEnv) Put(path string, body interface{}, scope string) (*APIResponse, error) {
	return e.doRequest("PUT", path, body, scope)
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path, scope string) (*APIResponse, error) {
	return e.doRequest("DELETE", path, nil, scope)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}, scope string) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if scope != "" {
		req.Header.Set("X-Access-Scope", scope)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return parseAPIResponse(resp)
}

// UploadDocuments posts files to /documents as a multipart form.
func (e *E2ETestEnv) UploadDocuments(scope string, files map[string][]byte, accessScope string) (*APIResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(content); err != nil {
			return nil, err
		}
	}
	if accessScope != "" {
		if err := writer.WriteField("access_scope", accessScope); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", e.ServerURL+"/documents", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if scope != "" {
		req.Header.Set("X-Access-Scope", scope)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return parseAPIResponse(resp)
}

// DownloadFile downloads a file from the presigned URL
func (e *E2ETestEnv) DownloadFile(downloadURL string) ([]byte, error) {
	resp, err := e.HTTPClient.Get(downloadURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func parseAPIResponse(resp *http.Response) (*APIResponse, error) {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// startServer starts the HTTP server with all handlers
func startServer(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, ai *stubAIClient, port int) (string, func()) {
	articleRepo := repository.NewArticleRepository(pool)
	vectorRepo := repository.NewVectorRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	memberRepo := repository.NewMemberRepository(pool)

	uuidGen := &service.DefaultUUIDGenerator{}

	embeddingSvc := service.NewEmbeddingService(ai, 6000)
	indexSvc := service.NewIndexService(articleRepo, vectorRepo, embeddingSvc)
	contextSvc := service.NewContextService(indexSvc, &snapshotAdapter{projects: projectRepo, members: memberRepo}, service.DefaultContextConfig())
	answerSvc := service.NewAnswerService(contextSvc, ai, []string{"stub-model"})

	extractor := extract.NewExtractor(nil)
	ingestSvc := service.NewIngestService(extractor, indexSvc, ai, s3Client, uuidGen, "stub-model", 2)
	articleSvc := service.NewArticleService(articleRepo, indexSvc, s3Client, uuidGen)

	router := server.NewRouter(server.RouterConfig{
		ArticleHandler:  handlers.NewArticleHandler(articleSvc),
		DocumentHandler: handlers.NewDocumentHandler(ingestSvc),
		AskHandler:      handlers.NewAskHandler(answerSvc, indexSvc),
		ProjectHandler:  handlers.NewProjectHandler(projectRepo),
		MemberHandler:   handlers.NewMemberHandler(memberRepo),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// snapshotAdapter joins the project and member repositories into the
// snapshot surface context assembly consumes.
type snapshotAdapter struct {
	projects *repository.ProjectRepository
	members  *repository.MemberRepository
}

func (s *snapshotAdapter) ActiveProjects(ctx context.Context, limit int) ([]*domain.Project, error) {
	return s.projects.ListActive(ctx, limit)
}

func (s *snapshotAdapter) ActiveMembers(ctx context.Context, limit int) ([]*domain.Member, error) {
	return s.members.ListActive(ctx, limit)
}

// stubAIClient replaces the model backend with deterministic local logic.
// Embeddings are token-histogram vectors, so texts sharing words rank as
// similar under cosine distance. The embedding side can be forced down to
// exercise degraded retrieval.
type stubAIClient struct {
	embedDown atomic.Bool
}

// SetEmbeddingsDown makes GenerateEmbedding fail until reset.
func (c *stubAIClient) SetEmbeddingsDown(down bool) {
	c.embedDown.Store(down)
}

func (c *stubAIClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if c.embedDown.Load() {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vec := make([]float32, 1536)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[h.Sum32()%1536]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

func (c *stubAIClient) Generate(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	switch {
	case strings.Contains(systemPrompt, "label internal documents"):
		return `{"summary":"Stub summary.","category":"other","tags":["stub"]}`, nil
	case strings.Contains(systemPrompt, "follow-up"):
		return `["What changed recently?","Who owns this?"]`, nil
	default:
		return "Stub answer grounded in the provided context.", nil
	}
}
