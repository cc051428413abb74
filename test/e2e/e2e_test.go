//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"testing"
)

type articleJSON struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	SourceType  string   `json:"source_type"`
	AccessScope []string `json:"access_scope"`
	StorageKey  string   `json:"storage_key"`
}

type searchResultJSON struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float32 `json:"score"`
}

type ingestRespJSON struct {
	Created []struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		FileName string `json:"file_name"`
	} `json:"created"`
	Skipped []struct {
		FileName string `json:"file_name"`
		Error    string `json:"error"`
	} `json:"skipped"`
}

func TestArticleLifecycle(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	resp, err := env.Post("/articles", map[string]interface{}{
		"title":    "Deployment runbook",
		"content":  "Deployments go through the staging pipeline first.",
		"category": "guide",
		"tags":     []string{"ops"},
	}, "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	var created articleJSON
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		t.Fatalf("failed to parse create response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected article id")
	}
	if len(created.AccessScope) != 1 || created.AccessScope[0] != "all" {
		t.Fatalf("expected default scope [all], got %v", created.AccessScope)
	}
	if created.SourceType != "manual" {
		t.Fatalf("expected source_type manual, got %s", created.SourceType)
	}
	if created.Category != "general" {
		t.Fatalf("expected unknown category to coerce to general, got %s", created.Category)
	}

	resp, err = env.Get("/articles/"+created.ID, "")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	var fetched articleJSON
	if err := json.Unmarshal(resp.Data, &fetched); err != nil {
		t.Fatalf("failed to parse get response: %v", err)
	}
	if fetched.Title != "Deployment runbook" {
		t.Fatalf("unexpected title %q", fetched.Title)
	}

	resp, err = env.Put("/articles/"+created.ID, map[string]interface{}{
		"title":    "Deployment runbook v2",
		"content":  "Deployments go through staging, then canary.",
		"category": "guide",
	}, "")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	var updated articleJSON
	if err := json.Unmarshal(resp.Data, &updated); err != nil {
		t.Fatalf("failed to parse update response: %v", err)
	}
	if updated.Title != "Deployment runbook v2" {
		t.Fatalf("unexpected updated title %q", updated.Title)
	}

	if _, err := env.Delete("/articles/"+created.ID, ""); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := env.Get("/articles/"+created.ID, ""); err == nil {
		t.Fatal("expected get after delete to fail")
	}
}

func TestSearchRespectsAccessScope(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	create := func(title, content string, scope []string) string {
		resp, err := env.Post("/articles", map[string]interface{}{
			"title":        title,
			"content":      content,
			"access_scope": scope,
		}, "")
		if err != nil {
			t.Fatalf("create %q failed: %v", title, err)
		}
		var a articleJSON
		if err := json.Unmarshal(resp.Data, &a); err != nil {
			t.Fatalf("parse create response: %v", err)
		}
		return a.ID
	}

	engID := create("Engineering oncall rotation", "oncall rotation escalation engineering pager", []string{"engineering"})
	create("Sales playbook", "oncall rotation sales quota pipeline", []string{"sales"})
	globalID := create("Company oncall overview", "oncall rotation overview escalation", []string{"all"})

	resp, err := env.Get("/search?q=oncall+rotation+escalation&limit=10", "engineering")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	var results []searchResultJSON
	if err := json.Unmarshal(resp.Data, &results); err != nil {
		t.Fatalf("parse search response: %v", err)
	}

	ids := map[string]bool{}
	for _, r := range results {
		ids[r.ID] = true
	}
	if !ids[engID] {
		t.Error("expected engineering article in results")
	}
	if !ids[globalID] {
		t.Error("expected globally scoped article in results")
	}
	for _, r := range results {
		if r.Title == "Sales playbook" {
			t.Error("sales-scoped article leaked into engineering search")
		}
	}
}

func TestDocumentIngestionAndSourceDownload(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	notes := []byte("Quarterly planning notes. Budget review happens in March.")
	resp, err := env.UploadDocuments("", map[string][]byte{
		"notes.txt":  notes,
		"people.csv": []byte("name,role\nKim,Engineer\nRay,Designer\n"),
	}, "")
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	var ingest ingestRespJSON
	if err := json.Unmarshal(resp.Data, &ingest); err != nil {
		t.Fatalf("parse ingest response: %v", err)
	}
	if len(ingest.Created) != 2 {
		t.Fatalf("expected 2 created, got %d (skipped %d)", len(ingest.Created), len(ingest.Skipped))
	}

	var notesID string
	for _, item := range ingest.Created {
		if item.FileName == "notes.txt" {
			notesID = item.ID
		}
	}
	if notesID == "" {
		t.Fatal("notes.txt missing from created items")
	}

	resp, err = env.Get("/articles/"+notesID, "")
	if err != nil {
		t.Fatalf("get ingested article failed: %v", err)
	}
	var article articleJSON
	if err := json.Unmarshal(resp.Data, &article); err != nil {
		t.Fatalf("parse article: %v", err)
	}
	if article.SourceType != "upload" {
		t.Fatalf("expected source_type upload, got %s", article.SourceType)
	}
	if article.StorageKey == "" {
		t.Fatal("expected archived source storage key")
	}

	resp, err = env.Get(fmt.Sprintf("/articles/%s/source", notesID), "")
	if err != nil {
		t.Fatalf("source URL failed: %v", err)
	}
	var src struct {
		DownloadURL string `json:"download_url"`
	}
	if err := json.Unmarshal(resp.Data, &src); err != nil {
		t.Fatalf("parse source response: %v", err)
	}

	data, err := env.DownloadFile(src.DownloadURL)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if string(data) != string(notes) {
		t.Fatal("downloaded source does not match uploaded bytes")
	}
}

func TestIngestionSkipsUnextractableFiles(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	resp, err := env.UploadDocuments("", map[string][]byte{
		"good.txt":   []byte("Perfectly fine text document."),
		"broken.pdf": []byte("not actually a pdf"),
	}, "")
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	var ingest ingestRespJSON
	if err := json.Unmarshal(resp.Data, &ingest); err != nil {
		t.Fatalf("parse ingest response: %v", err)
	}
	if len(ingest.Created) != 1 {
		t.Fatalf("expected 1 created, got %d", len(ingest.Created))
	}
	if len(ingest.Skipped) != 1 {
		t.Fatalf("expected 1 skipped, got %d", len(ingest.Skipped))
	}
	if ingest.Skipped[0].FileName != "broken.pdf" {
		t.Fatalf("expected broken.pdf skipped, got %s", ingest.Skipped[0].FileName)
	}
}

func TestAskReturnsAnswerWithSources(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	if _, err := env.Post("/articles", map[string]interface{}{
		"title":   "Expense policy",
		"content": "Expenses above 500 euros need manager approval before purchase.",
	}, ""); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := env.Post("/projects", map[string]interface{}{
		"name":   "Billing revamp",
		"status": "active",
	}, ""); err != nil {
		t.Fatalf("create project failed: %v", err)
	}

	resp, err := env.Post("/ask", map[string]string{
		"question": "What is the expense approval policy for purchases above 500 euros?",
	}, "")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}

	var answer struct {
		Answer            string `json:"answer"`
		Model             string `json:"model"`
		Sources           []struct{ ID, Title string } `json:"sources"`
		FollowUpQuestions []string `json:"follow_up_questions"`
	}
	if err := json.Unmarshal(resp.Data, &answer); err != nil {
		t.Fatalf("parse answer: %v", err)
	}
	if answer.Answer == "" {
		t.Fatal("expected non-empty answer")
	}
	if answer.Model != "stub-model" {
		t.Fatalf("unexpected model %q", answer.Model)
	}
	if len(answer.Sources) == 0 {
		t.Error("expected at least one source")
	}
	if len(answer.FollowUpQuestions) == 0 {
		t.Error("expected follow-up questions")
	}
}

func TestAskSurvivesEmbeddingOutage(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	// Seed while the embedding backend is healthy so the article is indexed.
	if _, err := env.Post("/articles", map[string]interface{}{
		"title":   "Incident escalation runbook",
		"content": "Page the on-call engineer, then escalate to the incident commander.",
	}, ""); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	resp, err := env.Get("/search?q=incident+escalation&limit=5", "")
	if err != nil {
		t.Fatalf("baseline search failed: %v", err)
	}
	var baseline []searchResultJSON
	if err := json.Unmarshal(resp.Data, &baseline); err != nil {
		t.Fatalf("parse baseline search: %v", err)
	}
	if len(baseline) == 0 {
		t.Fatal("expected baseline search to find the seeded article")
	}

	env.AI.SetEmbeddingsDown(true)
	defer env.AI.SetEmbeddingsDown(false)

	resp, err = env.Get("/search?q=incident+escalation&limit=5", "")
	if err != nil {
		t.Fatalf("search during outage failed: %v", err)
	}
	var degraded []searchResultJSON
	if err := json.Unmarshal(resp.Data, &degraded); err != nil {
		t.Fatalf("parse degraded search: %v", err)
	}
	if len(degraded) != 0 {
		t.Fatalf("expected empty results during embedding outage, got %d", len(degraded))
	}

	resp, err = env.Post("/ask", map[string]string{
		"question": "How do we escalate an incident?",
	}, "")
	if err != nil {
		t.Fatalf("ask during outage failed: %v", err)
	}
	var answer struct {
		Answer  string `json:"answer"`
		Sources []struct{ ID string } `json:"sources"`
	}
	if err := json.Unmarshal(resp.Data, &answer); err != nil {
		t.Fatalf("parse answer: %v", err)
	}
	if answer.Answer == "" {
		t.Fatal("expected an answer despite the embedding outage")
	}
	if len(answer.Sources) != 0 {
		t.Fatalf("expected no sources during embedding outage, got %d", len(answer.Sources))
	}
}

func TestProjectsAndMembers(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	if _, err := env.Post("/projects", map[string]interface{}{
		"name":        "Search relaunch",
		"description": "Replace the legacy search stack",
		"status":      "active",
		"lead":        "Kim",
	}, ""); err != nil {
		t.Fatalf("create project failed: %v", err)
	}

	if _, err := env.Post("/members", map[string]interface{}{
		"name":       "Kim",
		"role":       "Engineer",
		"department": "Platform",
		"status":     "active",
	}, ""); err != nil {
		t.Fatalf("create member failed: %v", err)
	}

	resp, err := env.Get("/projects", "")
	if err != nil {
		t.Fatalf("list projects failed: %v", err)
	}
	var projects []map[string]interface{}
	if err := json.Unmarshal(resp.Data, &projects); err != nil {
		t.Fatalf("parse projects: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}

	resp, err = env.Get("/members", "")
	if err != nil {
		t.Fatalf("list members failed: %v", err)
	}
	var members []map[string]interface{}
	if err := json.Unmarshal(resp.Data, &members); err != nil {
		t.Fatalf("parse members: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(members))
	}
}
