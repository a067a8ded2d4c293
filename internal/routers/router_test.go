package routers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"documind/internal/access"
	"documind/internal/ai"
	"documind/internal/ai/prompts"
	"documind/internal/api"
	"documind/internal/models"
	"documind/internal/repositories"
	"documind/internal/save"
	"documind/internal/session"
	"documind/internal/testhelpers"
)

const testSecret = "router-test-secret"

type cannedProvider struct {
	response string
}

func (p *cannedProvider) Complete(context.Context, string, ai.CompletionOptions) (string, error) {
	return p.response, nil
}

func (p *cannedProvider) GetProviderName() string { return "canned" }

type env struct {
	server *httptest.Server
	docs   *repositories.DocumentRepository
	users  *repositories.UserRepository
}

func newTestEnv(t *testing.T) *env {
	t.Helper()

	db := testhelpers.SetupTestDB(t)
	logger := zap.NewNop()
	docs := &repositories.DocumentRepository{DB: db}
	users := &repositories.UserRepository{DB: db}
	shares := &repositories.ShareRepository{DB: db}
	summaries := &repositories.SummaryRepository{DB: db}

	checker := access.NewChecker(shares)
	scheduler := save.NewScheduler(docs, 10*time.Millisecond, logger)

	manager, err := prompts.NewManager()
	if err != nil {
		t.Fatalf("prompt manager: %v", err)
	}
	pipeline := ai.NewPipeline(&cannedProvider{response: "Generated Title"}, manager)

	hub := session.NewHub(docs, users, checker, scheduler, pipeline, logger)
	handlers := api.NewHandlers(logger, hub, checker, docs, users, shares, summaries, pipeline, testSecret)

	server := httptest.NewServer(New(handlers))
	t.Cleanup(server.Close)
	return &env{server: server, docs: docs, users: users}
}

func (e *env) seedUser(t *testing.T, username, email string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: email}
	if err := e.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   float64(user.ID),
		"email": user.Email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func (e *env) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestEnv(t)

	resp, err := http.Get(e.server.URL + "/api/v1/healthz")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestDocumentsRequireAuth(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, "GET", "/api/v1/documents/", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	// The public listing stays open.
	resp = e.do(t, "GET", "/api/v1/documents/public", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for public listing, got %d", resp.StatusCode)
	}
}

func TestCreateDocumentGeneratesTitle(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser(t, "alice", "alice@example.com")

	resp := e.do(t, "POST", "/api/v1/documents/", tokenFor(t, alice),
		map[string]any{"content": "meeting notes from today"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var body struct {
		Document models.Document `json:"document"`
	}
	decodeBody(t, resp, &body)
	if body.Document.Title != "Generated Title" {
		t.Fatalf("expected AI generated title, got %q", body.Document.Title)
	}
	if body.Document.UserID != alice.ID {
		t.Fatalf("expected owner %d, got %d", alice.ID, body.Document.UserID)
	}
}

func TestGetDocumentAccessControl(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser(t, "alice", "alice@example.com")
	bob := e.seedUser(t, "bob", "bob@example.com")

	doc := &models.Document{UserID: alice.ID, Title: "private", Content: "secret"}
	if err := e.docs.Create(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	resp := e.do(t, "GET", fmt.Sprintf("/api/v1/documents/%d", doc.ID), tokenFor(t, alice), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner expected 200, got %d", resp.StatusCode)
	}

	resp = e.do(t, "GET", fmt.Sprintf("/api/v1/documents/%d", doc.ID), tokenFor(t, bob), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("stranger expected 403, got %d", resp.StatusCode)
	}

	resp = e.do(t, "GET", "/api/v1/documents/9999", tokenFor(t, alice), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing document expected 404, got %d", resp.StatusCode)
	}
}

func TestShareGrantsAccess(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser(t, "alice", "alice@example.com")
	bob := e.seedUser(t, "bob", "bob@example.com")

	doc := &models.Document{UserID: alice.ID, Title: "draft", Content: "wip"}
	if err := e.docs.Create(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	// Only the owner may share.
	resp := e.do(t, "POST", fmt.Sprintf("/api/v1/documents/%d/share", doc.ID), tokenFor(t, bob),
		map[string]any{"email": "bob@example.com"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-owner share expected 403, got %d", resp.StatusCode)
	}

	resp = e.do(t, "POST", fmt.Sprintf("/api/v1/documents/%d/share", doc.ID), tokenFor(t, alice),
		map[string]any{"email": "bob@example.com", "accessLevel": "view"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("share expected 200, got %d", resp.StatusCode)
	}

	resp = e.do(t, "GET", fmt.Sprintf("/api/v1/documents/%d/access", doc.ID), tokenFor(t, bob), nil)
	var accessBody struct {
		HasAccess   bool   `json:"hasAccess"`
		AccessLevel string `json:"accessLevel"`
	}
	decodeBody(t, resp, &accessBody)
	if !accessBody.HasAccess || accessBody.AccessLevel != "view" {
		t.Fatalf("expected view access for bob, got %#v", accessBody)
	}

	// View access is not enough to write.
	resp = e.do(t, "PATCH", fmt.Sprintf("/api/v1/documents/%d", doc.ID), tokenFor(t, bob),
		map[string]any{"content": "overwritten"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("view-only update expected 403, got %d", resp.StatusCode)
	}

	// Upgrade to edit and the write goes through.
	resp = e.do(t, "POST", fmt.Sprintf("/api/v1/documents/%d/share", doc.ID), tokenFor(t, alice),
		map[string]any{"email": "bob@example.com", "accessLevel": "edit"})
	resp.Body.Close()
	resp = e.do(t, "PATCH", fmt.Sprintf("/api/v1/documents/%d", doc.ID), tokenFor(t, bob),
		map[string]any{"content": "overwritten"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit share update expected 200, got %d", resp.StatusCode)
	}
	var updated models.Document
	decodeBody(t, resp, &updated)
	if updated.LastEditedByID == nil || *updated.LastEditedByID != bob.ID {
		t.Fatalf("expected last editor bob, got %v", updated.LastEditedByID)
	}

	shared, err := e.docs.ListSharedWith(context.Background(), bob.ID, bob.Email)
	if err != nil || len(shared) != 1 {
		t.Fatalf("expected document in bob's shared list, got %#v err=%v", shared, err)
	}
}

func TestDeleteDocumentOwnerOnly(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser(t, "alice", "alice@example.com")
	bob := e.seedUser(t, "bob", "bob@example.com")

	doc := &models.Document{UserID: alice.ID, Title: "temp", Content: "x", IsPublic: true}
	if err := e.docs.Create(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	resp := e.do(t, "DELETE", fmt.Sprintf("/api/v1/documents/%d", doc.ID), tokenFor(t, bob), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-owner delete expected 403, got %d", resp.StatusCode)
	}

	resp = e.do(t, "DELETE", fmt.Sprintf("/api/v1/documents/%d", doc.ID), tokenFor(t, alice), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner delete expected 200, got %d", resp.StatusCode)
	}

	resp = e.do(t, "GET", fmt.Sprintf("/api/v1/documents/%d", doc.ID), tokenFor(t, alice), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted document expected 404, got %d", resp.StatusCode)
	}
}

func TestSummariesRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser(t, "alice", "alice@example.com")

	doc := &models.Document{UserID: alice.ID, Title: "notes", Content: "x"}
	if err := e.docs.Create(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	resp := e.do(t, "POST", "/api/v1/summaries/", tokenFor(t, alice),
		map[string]any{"documentId": doc.ID, "content": "a compact summary"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create summary expected 201, got %d", resp.StatusCode)
	}

	resp = e.do(t, "GET", fmt.Sprintf("/api/v1/documents/%d/summaries", doc.ID), tokenFor(t, alice), nil)
	var summaries []models.Summary
	decodeBody(t, resp, &summaries)
	if len(summaries) != 1 || summaries[0].Content != "a compact summary" {
		t.Fatalf("unexpected summaries: %#v", summaries)
	}
}

func TestAIProcessEndpoint(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser(t, "alice", "alice@example.com")

	resp := e.do(t, "POST", "/api/v1/ai/process", tokenFor(t, alice),
		map[string]any{"prompt": "rewrite this paragraph"})
	var body struct {
		Result string `json:"result"`
	}
	decodeBody(t, resp, &body)
	if body.Result != "Generated Title" {
		t.Fatalf("unexpected result: %q", body.Result)
	}

	resp = e.do(t, "POST", "/api/v1/ai/process", tokenFor(t, alice), map[string]any{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty prompt expected 400, got %d", resp.StatusCode)
	}
}
