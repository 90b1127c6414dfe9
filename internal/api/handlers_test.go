package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/jobtracker/internal/config"
	"github.com/ignite/jobtracker/internal/domain"
	"github.com/ignite/jobtracker/internal/repository/memory"
	"github.com/ignite/jobtracker/internal/service/application"
)

func setupTestServer(t *testing.T, store application.Store) http.Handler {
	t.Helper()
	cfg, err := config.Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	cfg.Store.Type = config.StoreMemory
	return NewServer(cfg, application.NewService(store)).Handler()
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func create(t *testing.T, h http.Handler, body string) map[string]interface{} {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/api/applications", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeMap(t, rec)
}

func TestEndToEnd(t *testing.T) {
	h := setupTestServer(t, memory.New(""))

	rec := doRequest(t, h, http.MethodPost, "/api/applications", `{"company":"Acme","position":"Engineer"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeMap(t, rec)

	id, ok := created["id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)
	assert.Equal(t, map[string]interface{}{
		"id":       id,
		"company":  "Acme",
		"position": "Engineer",
		"status":   "applied",
		"priority": "medium",
		"tags":     []interface{}{},
	}, created)

	rec = doRequest(t, h, http.MethodPatch, "/api/applications/"+id, `{"status":"interviewing"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeMap(t, rec)
	assert.Equal(t, "interviewing", updated["status"])
	assert.NotEmpty(t, updated["updated_at"])

	rec = doRequest(t, h, http.MethodDelete, "/api/applications/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, "/api/applications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	for _, app := range decodeList(t, rec) {
		assert.NotEqual(t, id, app["id"])
	}
}

func TestCreate_DistinctIDs(t *testing.T) {
	h := setupTestServer(t, memory.New(""))
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		app := create(t, h, `{"company":"Acme","position":"Engineer"}`)
		id := app["id"].(string)
		assert.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true

		rec := doRequest(t, h, http.MethodGet, "/api/applications/"+id, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, id, decodeMap(t, rec)["id"])
	}
}

func TestCreate_Validation(t *testing.T) {
	h := setupTestServer(t, memory.New(""))

	tests := []struct {
		name string
		body string
	}{
		{"missing position", `{"company":"Acme"}`},
		{"empty company", `{"company":"","position":"Engineer"}`},
		{"bad date", `{"company":"A","position":"B","applied_date":"2024-13-45"}`},
		{"negative salary", `{"company":"A","position":"B","salary_min":-5}`},
		{"not json", `company=Acme`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/api/applications", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeMap(t, rec)
			assert.NotEmpty(t, body["detail"])
			assert.NotEmpty(t, body["errors"])
		})
	}
}

func TestCreate_AllFields(t *testing.T) {
	h := setupTestServer(t, memory.New(""))
	app := create(t, h, `{
		"company": "Acme",
		"position": "Engineer",
		"location": "Remote",
		"applied_date": "2024-02-01",
		"salary_min": 100000,
		"salary_max": 150000,
		"contact_email": "pat@acme.example",
		"priority": null,
		"tags": ["go"],
		"notes": null
	}`)

	assert.Equal(t, "2024-02-01", app["applied_date"])
	assert.Equal(t, 100000.0, app["salary_min"])
	assert.Equal(t, []interface{}{"go"}, app["tags"])
	assert.NotContains(t, app, "priority")
	assert.NotContains(t, app, "notes")
}

func TestUpdate_EmptyPatch(t *testing.T) {
	h := setupTestServer(t, memory.New(""))

	for _, id := range []string{application.NewID(), "not-a-valid-id"} {
		rec := doRequest(t, h, http.MethodPatch, "/api/applications/"+id, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "no fields to update", decodeMap(t, rec)["detail"])
	}
}

func TestUpdate_SingleFieldLeavesOthers(t *testing.T) {
	h := setupTestServer(t, memory.New(""))
	before := create(t, h, `{"company":"Acme","position":"Engineer","notes":"call back","tags":["a","b"],"salary_max":90000}`)
	id := before["id"].(string)

	rec := doRequest(t, h, http.MethodPatch, "/api/applications/"+id, `{"location":"Berlin"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	after := decodeMap(t, rec)

	assert.Equal(t, "Berlin", after["location"])
	assert.NotEmpty(t, after["updated_at"])
	for k, v := range before {
		assert.Equal(t, v, after[k], "field %s changed", k)
	}
	assert.Len(t, after, len(before)+2)
}

func TestUpdate_NullClearsField(t *testing.T) {
	h := setupTestServer(t, memory.New(""))
	id := create(t, h, `{"company":"Acme","position":"Engineer","notes":"temp"}`)["id"].(string)

	rec := doRequest(t, h, http.MethodPatch, "/api/applications/"+id, `{"notes":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, decodeMap(t, rec), "notes")
}

func TestUpdate_Errors(t *testing.T) {
	h := setupTestServer(t, memory.New(""))

	rec := doRequest(t, h, http.MethodPatch, "/api/applications/"+application.NewID(), `{"status":"offer"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Application not found", decodeMap(t, rec)["detail"])

	rec = doRequest(t, h, http.MethodPatch, "/api/applications/xyz", `{"status":"offer"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPatch, "/api/applications/"+application.NewID(), `{"company":null}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete_Twice(t *testing.T) {
	h := setupTestServer(t, memory.New(""))
	id := create(t, h, `{"company":"Acme","position":"Engineer"}`)["id"].(string)

	assert.Equal(t, http.StatusNoContent, doRequest(t, h, http.MethodDelete, "/api/applications/"+id, "").Code)

	rec := doRequest(t, h, http.MethodDelete, "/api/applications/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Application not found", decodeMap(t, rec)["detail"])

	assert.Equal(t, http.StatusBadRequest, doRequest(t, h, http.MethodDelete, "/api/applications/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(t, h, http.MethodGet, "/api/applications/"+id, "").Code)
}

func TestList_Filters(t *testing.T) {
	h := setupTestServer(t, memory.New(""))
	create(t, h, `{"company":"Acme Corp","position":"Engineer"}`)
	create(t, h, `{"company":"Globex","position":"Engineer","status":"offer","notes":"applied via acme referral"}`)
	create(t, h, `{"company":"Initech","position":"Analyst","status":"Offer","tags":["ACME-alumni"]}`)

	rec := doRequest(t, h, http.MethodGet, "/api/applications?q=acme", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec), 3)

	rec = doRequest(t, h, http.MethodGet, "/api/applications?status=offer", "")
	offers := decodeList(t, rec)
	require.Len(t, offers, 1)
	assert.Equal(t, "Globex", offers[0]["company"])

	// "applied" appears in Globex's notes but only Acme has that status.
	rec = doRequest(t, h, http.MethodGet, "/api/applications?status=applied", "")
	applied := decodeList(t, rec)
	require.Len(t, applied, 1)
	assert.Equal(t, "Acme Corp", applied[0]["company"])

	rec = doRequest(t, h, http.MethodGet, "/api/applications?status=offer&q=ACME", "")
	assert.Len(t, decodeList(t, rec), 1)

	rec = doRequest(t, h, http.MethodGet, "/api/applications?q=nomatch", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = doRequest(t, h, http.MethodGet, "/api/applications?limit=2", "")
	assert.Len(t, decodeList(t, rec), 2)
}

func TestList_BadLimit(t *testing.T) {
	h := setupTestServer(t, memory.New(""))
	for _, limit := range []string{"0", "-1", "abc", "1001"} {
		rec := doRequest(t, h, http.MethodGet, "/api/applications?limit="+limit, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
		assert.Contains(t, decodeMap(t, rec)["detail"], "limit")
	}
}

type failingStore struct{ memory.Store }

func (*failingStore) Find(context.Context, domain.Filter, int) ([]domain.Document, error) {
	return nil, errors.New("dial tcp 10.0.0.1:5432: connection refused " + strings.Repeat("x", 300))
}

func (*failingStore) CollectionNames(context.Context) ([]string, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestList_StoreUnavailable(t *testing.T) {
	h := setupTestServer(t, &failingStore{})

	rec := doRequest(t, h, http.MethodGet, "/api/applications", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	d := decodeMap(t, rec)["detail"].(string)
	assert.Contains(t, d, "connection refused")
	assert.LessOrEqual(t, len([]rune(d)), 200)
}

func TestNotConfigured(t *testing.T) {
	h := setupTestServer(t, nil)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/applications", ""},
		{http.MethodPost, "/api/applications", `{"company":"A","position":"B"}`},
		{http.MethodPatch, "/api/applications/" + application.NewID(), `{"status":"offer"}`},
		{http.MethodDelete, "/api/applications/" + application.NewID(), ""},
	} {
		rec := doRequest(t, h, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, tc.method)
		assert.Equal(t, "Database not configured", decodeMap(t, rec)["detail"], tc.method)
	}
}

func TestInfoEndpoints(t *testing.T) {
	h := setupTestServer(t, memory.New(""))

	rec := doRequest(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Job Tracker Backend is running", decodeMap(t, rec)["message"])

	rec = doRequest(t, h, http.MethodGet, "/api/hello", "")
	assert.Equal(t, "Hello from the backend API!", decodeMap(t, rec)["message"])

	rec = doRequest(t, h, http.MethodGet, "/test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	diag := decodeMap(t, rec)
	assert.Equal(t, "✅ Running", diag["backend"])
	assert.Equal(t, "✅ Connected & Working", diag["database"])
	assert.Equal(t, "❌ Not Set", diag["database_url"])
	assert.Equal(t, []interface{}{"jobapplication"}, diag["collections"])

	rec = doRequest(t, h, http.MethodGet, "/schema", "")
	require.Equal(t, http.StatusOK, rec.Code)
	models := decodeList(t, rec)
	require.Len(t, models, 1)
	assert.Equal(t, "JobApplication", models[0]["name"])
	assert.Equal(t, "jobapplication", models[0]["collection"])
}

func TestNewServer_Addr(t *testing.T) {
	t.Setenv("ECS_CONTAINER_METADATA_URI", "")
	t.Setenv("AWS_EXECUTION_ENV", "")
	t.Setenv("SERVER_HOST", "")

	cfg, err := config.Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 9123

	s := NewServer(cfg, application.NewService(nil))
	assert.Equal(t, "127.0.0.1:9123", s.Addr())
	assert.NoError(t, s.Shutdown(context.Background()), "shutdown before start is a no-op")
}

func TestTestEndpoint_ReportsEnvironmentOnly(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("store:\n  type: memory\n  postgres:\n    url: postgres://file/jobs\n"), 0644))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_NAME", "")

	cfg, err := config.LoadFromEnv(configPath)
	require.NoError(t, err)
	h := NewServer(cfg, application.NewService(memory.New(""))).Handler()

	diag := decodeMap(t, doRequest(t, h, http.MethodGet, "/test", ""))
	assert.Equal(t, "❌ Not Set", diag["database_url"])
	assert.Equal(t, "❌ Not Set", diag["database_name"])

	t.Setenv("DATABASE_URL", "postgres://env/jobs")
	t.Setenv("DATABASE_NAME", "jobtracker")
	cfg, err = config.LoadFromEnv(configPath)
	require.NoError(t, err)
	h = NewServer(cfg, application.NewService(memory.New(""))).Handler()

	diag = decodeMap(t, doRequest(t, h, http.MethodGet, "/test", ""))
	assert.Equal(t, "✅ Set", diag["database_url"])
	assert.Equal(t, "✅ Set", diag["database_name"])
}

func TestTestEndpoint_StoreError(t *testing.T) {
	h := setupTestServer(t, &failingStore{})

	rec := doRequest(t, h, http.MethodGet, "/test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	diag := decodeMap(t, rec)
	assert.True(t, strings.HasPrefix(diag["database"].(string), "⚠️  Connected but Error: "))
	assert.Equal(t, []interface{}{}, diag["collections"])
}

func TestHealth(t *testing.T) {
	h := setupTestServer(t, memory.New(""))
	rec := doRequest(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "memory", body["store"])

	assert.Equal(t, http.StatusOK, doRequest(t, h, http.MethodGet, "/health/ready", "").Code)

	down := setupTestServer(t, &failingStore{})
	assert.Equal(t, http.StatusServiceUnavailable, doRequest(t, down, http.MethodGet, "/health/ready", "").Code)
	assert.Equal(t, "unhealthy", decodeMap(t, doRequest(t, down, http.MethodGet, "/health", ""))["status"])

	unconfigured := setupTestServer(t, nil)
	assert.Equal(t, http.StatusOK, doRequest(t, unconfigured, http.MethodGet, "/health/live", "").Code)
}

func TestCORS(t *testing.T) {
	h := setupTestServer(t, memory.New(""))

	req := httptest.NewRequest(http.MethodOptions, "/api/applications/abc", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestUnknownRoute(t *testing.T) {
	h := setupTestServer(t, memory.New(""))
	rec := doRequest(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decodeMap(t, rec)["detail"])
}
