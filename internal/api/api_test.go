package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/erazemk/premik/internal/auth"
	"github.com/erazemk/premik/internal/cache"
	"github.com/erazemk/premik/internal/db"
	"github.com/erazemk/premik/internal/draft"
	"github.com/erazemk/premik/internal/form"
	"github.com/erazemk/premik/internal/model"
	"github.com/erazemk/premik/internal/store"
)

const testJWTSecret = "test-secret"

type fakeCatalog struct{}

func (fakeCatalog) ListAssets(ctx context.Context, supervisor string) ([]model.Asset, error) {
	return []model.Asset{
		{ID: 1, RegisterNumber: "V-001", OwnerID: 42, DepartmentID: 3},
		{ID: 2, RegisterNumber: "V-002", OwnerID: 42, DepartmentID: 3},
	}, nil
}

func (fakeCatalog) SearchEmployees(ctx context.Context, q string) ([]model.Employee, error) {
	return []model.Employee{{ID: 7, Name: "Ana Novak", EmployeeNumber: "E7"}}, nil
}

func (fakeCatalog) ListLookup(ctx context.Context, name string) ([]model.Lookup, error) {
	return []model.Lookup{{ID: 1, Code: "X", Name: name}}, nil
}

type fakeBackend struct {
	mu    sync.Mutex
	err   error
	calls int
	files []model.FilePart
}

func (b *fakeBackend) SubmitTransfer(ctx context.Context, p *model.TransferPayload, files []model.FilePart, key string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.files = files
	if b.err != nil {
		return 0, b.err
	}
	return 900 + int64(b.calls), nil
}

func (b *fakeBackend) GetTransfer(ctx context.Context, id int64) (*model.RemoteTransfer, error) {
	return nil, errors.New("not found")
}

type testEnv struct {
	server  *httptest.Server
	db      *sql.DB
	backend *fakeBackend
	token   string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	backend := &fakeBackend{}
	sessions := &form.Manager{
		Slot:     &draft.SQLiteSlot{DB: database},
		Backend:  backend,
		Recorder: &DBRecorder{DB: database},
	}
	t.Cleanup(sessions.Close)

	router := NewRouter(Deps{
		DB:        database,
		JWTSecret: testJWTSecret,
		Catalog:   fakeCatalog{},
		Lists:     &cache.Lookups{Source: fakeCatalog{}},
		Sessions:  sessions,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	hash, _ := auth.HashPassword("password")
	store.CreateUser(context.Background(), database, "admin", hash, model.RoleAdmin)

	return &testEnv{
		server:  server,
		db:      database,
		backend: backend,
		token:   login(t, server.URL, "admin", "password"),
	}
}

func login(t *testing.T, baseURL, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(baseURL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp["token"] == "" {
		t.Fatal("empty token from login")
	}
	return loginResp["token"]
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends an authenticated request and decodes the response into out.
func (e *testEnv) do(t *testing.T, method, path string, body, out any) int {
	t.Helper()
	req, _ := authRequest(method, e.server.URL+path, e.token, body)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func TestLoginEndpoint(t *testing.T) {
	env := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(env.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	env := setupTestServer(t)

	for _, path := range []string{"/api/transfer/form", "/api/assets", "/api/submissions"} {
		resp, _ := http.Get(env.server.URL + path)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestRoleBasedAccess(t *testing.T) {
	env := setupTestServer(t)

	hash, _ := auth.HashPassword("password1")
	store.CreateUser(context.Background(), env.db, "user1", hash, model.RoleUser)
	userToken := login(t, env.server.URL, "user1", "password1")

	req, _ := authRequest("GET", env.server.URL+"/api/users", userToken, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for user accessing users, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("GET", env.server.URL+"/api/transfer/form", userToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for user opening the form, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	env := setupTestServer(t)

	if code := env.do(t, "POST", "/api/auth/logout", nil, nil); code != http.StatusOK {
		t.Fatalf("expected 200 from logout, got %d", code)
	}
	if code := env.do(t, "GET", "/api/transfer/form", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", code)
	}
}

func TestLastAdminProtected(t *testing.T) {
	env := setupTestServer(t)

	if code := env.do(t, "PUT", "/api/users/1", map[string]string{"role": model.RoleUser}, nil); code != http.StatusConflict {
		t.Errorf("expected 409 demoting the last admin, got %d", code)
	}

	var created model.User
	code := env.do(t, "POST", "/api/users", map[string]string{
		"username": "second", "password": "password2", "role": model.RoleAdmin,
	}, &created)
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if code := env.do(t, "PUT", "/api/users/1", map[string]string{"role": model.RoleManager}, nil); code != http.StatusOK {
		t.Errorf("expected demotion to succeed with another admin, got %d", code)
	}
}

func TestLookups(t *testing.T) {
	env := setupTestServer(t)

	var assets []model.Candidate
	if code := env.do(t, "GET", "/api/assets?supervisor=42", nil, &assets); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(assets) != 2 || assets[0].ID != "A1" || assets[0].Kind != model.KindAsset {
		t.Errorf("unexpected asset candidates %+v", assets)
	}

	var emps []model.Candidate
	env.do(t, "GET", "/api/employees/search?q=a", nil, &emps)
	if len(emps) != 0 {
		t.Errorf("expected short query to return nothing, got %d", len(emps))
	}
	env.do(t, "GET", "/api/employees/search?q=ana", nil, &emps)
	if len(emps) != 1 || emps[0].Kind != model.KindEmployee {
		t.Errorf("unexpected employee candidates %+v", emps)
	}

	var list []model.Lookup
	if code := env.do(t, "GET", "/api/locations", nil, &list); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(list) != 1 || list[0].Name != model.LookupLocations {
		t.Errorf("unexpected list %+v", list)
	}
}

func addAssets(t *testing.T, env *testEnv) {
	t.Helper()
	var assets []model.Candidate
	env.do(t, "GET", "/api/assets", nil, &assets)
	for _, c := range assets {
		if code := env.do(t, "POST", "/api/transfer/form/items", c, nil); code != http.StatusCreated {
			t.Fatalf("adding %s: expected 201, got %d", c.ID, code)
		}
	}
}

func TestFormSubmitFlow(t *testing.T) {
	env := setupTestServer(t)
	addAssets(t, env)

	var state form.State
	code := env.do(t, "PUT", "/api/transfer/form/items/A1/fields", map[string]string{
		"field": "location", "value": "L9",
	}, &state)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	for _, item := range state.Request.Items {
		if item.New.Location != "L9" {
			t.Errorf("%s: expected propagated location, got %q", item.ID, item.New.Location)
		}
	}

	var verr form.ValidationError
	if code := env.do(t, "POST", "/api/transfer/form/validate", nil, &verr); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	if verr.ItemID != "A1" || verr.Code != form.CodeMissingReason {
		t.Errorf("unexpected validation error %+v", verr)
	}

	env.do(t, "PUT", "/api/transfer/form/items/A1/reasons", map[string]any{"reason": "relocation", "checked": true}, nil)
	if code := env.do(t, "POST", "/api/transfer/form/validate", nil, nil); code != http.StatusOK {
		t.Fatalf("expected valid form, got %d", code)
	}

	var result submitResponse
	if code := env.do(t, "POST", "/api/transfer/form/submit", nil, &result); code != http.StatusOK {
		t.Fatalf("expected 200 from submit, got %d", code)
	}
	if result.ID == 0 || result.State.Request.Status != model.StatusSubmitted {
		t.Errorf("unexpected submit result %+v", result)
	}

	if code := env.do(t, "POST", "/api/transfer/form/items", model.Candidate{ID: "A9", Kind: model.KindAsset}, nil); code != http.StatusConflict {
		t.Errorf("expected 409 editing a submitted form, got %d", code)
	}

	var subs []model.Submission
	env.do(t, "GET", "/api/submissions", nil, &subs)
	if len(subs) != 1 || subs[0].ItemCount != 2 || subs[0].Username != "admin" {
		t.Errorf("unexpected submissions %+v", subs)
	}

	if code := env.do(t, "POST", "/api/transfer/form", nil, &state); code != http.StatusOK {
		t.Fatalf("expected 200 starting a new form, got %d", code)
	}
	if state.Request.Status != model.StatusDraft || len(state.Request.Items) != 0 || state.DraftRestored {
		t.Errorf("expected a fresh form after submit, got %+v", state)
	}
}

func TestFormSubmitBackendFailure(t *testing.T) {
	env := setupTestServer(t)
	env.backend.err = errors.New("connection reset")
	addAssets(t, env)
	env.do(t, "PUT", "/api/transfer/form/items/A1/fields", map[string]string{"field": "owner", "value": "7"}, nil)
	env.do(t, "PUT", "/api/transfer/form/items/A1/reasons", map[string]any{"reason": "resignation", "checked": true}, nil)

	if code := env.do(t, "POST", "/api/transfer/form/submit", nil, nil); code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", code)
	}

	var state form.State
	env.do(t, "GET", "/api/transfer/form", nil, &state)
	if state.Request.Status != model.StatusDraft || len(state.Request.Items) != 2 {
		t.Errorf("expected state preserved, got %+v", state.Request)
	}
	if state.Error == "" {
		t.Error("expected user-facing error in state")
	}
}

func TestFormItemErrors(t *testing.T) {
	env := setupTestServer(t)
	addAssets(t, env)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"duplicate item", "POST", "/api/transfer/form/items", model.Candidate{ID: "A1", Kind: model.KindAsset}, http.StatusConflict},
		{"missing kind", "POST", "/api/transfer/form/items", model.Candidate{ID: "X1"}, http.StatusBadRequest},
		{"unknown item", "DELETE", "/api/transfer/form/items/A99", nil, http.StatusNotFound},
		{"current section", "PUT", "/api/transfer/form/items/A1/fields", map[string]string{"section": "current", "field": "owner", "value": "1"}, http.StatusBadRequest},
		{"bad reason", "PUT", "/api/transfer/form/items/A1/reasons", map[string]any{"reason": "boredom", "checked": true}, http.StatusBadRequest},
		{"bad date", "PUT", "/api/transfer/form/items/A1", map[string]string{"effective_date": "16.10.2026"}, http.StatusBadRequest},
		{"remove item", "DELETE", "/api/transfer/form/items/A2", nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := env.do(t, tt.method, tt.path, tt.body, nil); code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, code)
			}
		})
	}
}

func TestFormDraftSurvivesLogout(t *testing.T) {
	env := setupTestServer(t)
	addAssets(t, env)
	env.do(t, "POST", "/api/auth/logout", nil, nil)

	env.token = login(t, env.server.URL, "admin", "password")
	var state form.State
	env.do(t, "GET", "/api/transfer/form", nil, &state)
	if !state.DraftRestored || len(state.Request.Items) != 2 {
		t.Errorf("expected draft restored after logout, got %+v", state)
	}
}

func TestFormAttachmentUpload(t *testing.T) {
	env := setupTestServer(t)
	addAssets(t, env)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "handover.pdf")
	part.Write([]byte("%PDF-1.4\n%test\n"))
	mw.Close()

	req, _ := http.NewRequest("PUT", env.server.URL+"/api/transfer/form/items/A2/attachment", &buf)
	req.Header.Set("Authorization", "Bearer "+env.token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	var state form.State
	json.NewDecoder(resp.Body).Decode(&state)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	a := state.Request.Items[1].Attachment
	if a == nil || a.Filename != "handover.pdf" || a.MIME != "application/pdf" {
		t.Fatalf("unexpected attachment %+v", a)
	}
	if len(a.Data) != 0 {
		t.Error("expected attachment contents to stay out of the state view")
	}

	env.do(t, "PUT", "/api/transfer/form/items/A1/fields", map[string]string{"field": "department", "value": "9"}, nil)
	env.do(t, "PUT", "/api/transfer/form/items/A1/reasons", map[string]any{"reason": "reorganization", "checked": true}, nil)
	if code := env.do(t, "POST", "/api/transfer/form/submit", nil, nil); code != http.StatusOK {
		t.Fatalf("expected 200 from submit, got %d", code)
	}
	if len(env.backend.files) != 1 || env.backend.files[0].ItemID != "A2" {
		t.Errorf("expected one file part for A2, got %+v", env.backend.files)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestServer(t)
	resp, err := http.Get(env.server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
