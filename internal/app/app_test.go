package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/quill/internal/classifier"
	"github.com/quillhq/quill/internal/config"
)

const employeesBody = `{"status":"success","data":[{"id":1,"employee_name":"Tiger Nixon"}]}`

// testConfig returns a configuration backed by in-memory SQLite and miniredis.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	mr := miniredis.RunT(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/employees" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, employeesBody)
	}))
	t.Cleanup(upstream.Close)

	return &config.Config{
		Environment:         "test",
		DatabaseURL:         ":memory:",
		DatabaseDriver:      config.DriverSQLite,
		PostsBackend:        config.BackendSQL,
		RedisURL:            "redis://" + mr.Addr(),
		MaxPageSize:         100,
		DemoMaxPageSize:     50,
		APIToken:            "SECRET_API_TOKEN",
		SecretHeaderValue:   "SECRET_VALUE",
		CSRFSecret:          "test-csrf-secret",
		TokenTTL:            time.Hour,
		CORSAllowedOrigins:  "http://localhost:9000",
		MaxRequestBodySize:  10 << 20,
		ClassifierModelPath: trainModel(t),
		EmployeesAPIBaseURL: upstream.URL + "/api/v1/",
		TokenPruneSchedule:  "0 */15 * * * *",
		ClockInterval:       10 * time.Second,
		FaceQueueSize:       10,
	}
}

func trainModel(t *testing.T) string {
	t.Helper()

	corpus, err := classifier.LoadCorpus(filepath.Join("..", "classifier", "testdata", "corpus.yaml"))
	require.NoError(t, err)
	m, err := corpus.Train()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, m.Save(f))
	require.NoError(t, f.Close())
	return path
}

func newTestApp(t *testing.T) *App {
	t.Helper()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(ctx, testConfig(t), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Close(ctx)
	})
	return a
}

type response struct {
	*httptest.ResponseRecorder
}

func (r response) json(t *testing.T) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(r.Body.Bytes(), &body), r.Body.String())
	return body
}

func (r response) list(t *testing.T) []any {
	t.Helper()
	var body []any
	require.NoError(t, json.Unmarshal(r.Body.Bytes(), &body), r.Body.String())
	return body
}

// firstLoc returns the loc of the first 422 entry.
func (r response) firstLoc(t *testing.T) []any {
	t.Helper()
	require.Equal(t, http.StatusUnprocessableEntity, r.Code, r.Body.String())
	items, ok := r.json(t)["detail"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, items)
	return items[0].(map[string]any)["loc"].([]any)
}

func serve(t *testing.T, h http.Handler, method, target string, body io.Reader, header http.Header) response {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return response{rec}
}

func TestApp_PostsLifecycle(t *testing.T) {
	a := newTestApp(t)
	h := a.Handler

	first := serve(t, h, http.MethodPost, "/posts",
		strings.NewReader(`{"title":"First","content":"Hello","publication_date":"2024-01-01T10:00:00Z"}`), nil)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	created := first.json(t)
	id, ok := created["id"].(string)
	require.True(t, ok, "post id is a string")
	assert.Equal(t, []any{}, created["comments"])

	second := serve(t, h, http.MethodPost, "/posts",
		strings.NewReader(`{"title":"Second","content":"World","publication_date":"2024-02-01T10:00:00Z"}`), nil)
	require.Equal(t, http.StatusCreated, second.Code)

	// Newest first, and page/size maps onto skip/limit.
	all := serve(t, h, http.MethodGet, "/posts", nil, nil)
	require.Equal(t, http.StatusOK, all.Code)
	posts := all.list(t)
	require.Len(t, posts, 2)
	assert.Equal(t, "Second", posts[0].(map[string]any)["title"])

	paged := serve(t, h, http.MethodGet, "/posts?page=2&size=1", nil, nil)
	require.Equal(t, http.StatusOK, paged.Code)
	posts = paged.list(t)
	require.Len(t, posts, 1)
	assert.Equal(t, "First", posts[0].(map[string]any)["title"])

	got := serve(t, h, http.MethodGet, "/posts/"+id, nil, nil)
	require.Equal(t, http.StatusOK, got.Code)
	assert.EqualValues(t, 1, got.json(t)["nb_views"])

	patched := serve(t, h, http.MethodPatch, "/posts/"+id, strings.NewReader(`{"title":"Renamed"}`), nil)
	require.Equal(t, http.StatusOK, patched.Code)
	body := patched.json(t)
	assert.Equal(t, "Renamed", body["title"])
	assert.Equal(t, "Hello", body["content"])

	commented := serve(t, h, http.MethodPost, "/posts/"+id+"/comments", strings.NewReader(`{"content":"Nice"}`), nil)
	require.Equal(t, http.StatusCreated, commented.Code, commented.Body.String())
	assert.Len(t, commented.json(t)["comments"], 1)

	comment := serve(t, h, http.MethodPost, "/comments",
		strings.NewReader(`{"post_id":`+id+`,"content":"Numeric id works too"}`), nil)
	require.Equal(t, http.StatusCreated, comment.Code, comment.Body.String())
	assert.Equal(t, id, comment.json(t)["post_id"])

	deleted := serve(t, h, http.MethodDelete, "/posts/"+id, nil, nil)
	require.Equal(t, http.StatusNoContent, deleted.Code)

	gone := serve(t, h, http.MethodGet, "/posts/"+id, nil, nil)
	require.Equal(t, http.StatusNotFound, gone.Code)
	assert.Equal(t, "Not Found", gone.json(t)["detail"])
}

func TestApp_PostErrors(t *testing.T) {
	a := newTestApp(t)
	h := a.Handler

	t.Run("malformed id is not found", func(t *testing.T) {
		res := serve(t, h, http.MethodGet, "/posts/abc", nil, nil)
		assert.Equal(t, http.StatusNotFound, res.Code)
	})

	t.Run("comment on unknown post", func(t *testing.T) {
		res := serve(t, h, http.MethodPost, "/comments", strings.NewReader(`{"post_id":"9999","content":"hi"}`), nil)
		require.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "Post 9999 does not exist", res.json(t)["detail"])
	})

	t.Run("negative skip", func(t *testing.T) {
		res := serve(t, h, http.MethodGet, "/posts?skip=-1", nil, nil)
		assert.Equal(t, []any{"query", "skip"}, res.firstLoc(t))
	})

	t.Run("page zero", func(t *testing.T) {
		res := serve(t, h, http.MethodGet, "/posts?page=0", nil, nil)
		assert.Equal(t, []any{"query", "page"}, res.firstLoc(t))
	})

	t.Run("page beyond addressable range", func(t *testing.T) {
		res := serve(t, h, http.MethodGet, "/posts?page=9223372036854775807&size=10", nil, nil)
		require.Equal(t, http.StatusUnprocessableEntity, res.Code)
		assert.Equal(t, []any{"query", "page"}, res.firstLoc(t))
	})

	t.Run("missing title", func(t *testing.T) {
		res := serve(t, h, http.MethodPost, "/posts", strings.NewReader(`{"content":"no title"}`), nil)
		assert.Equal(t, []any{"body", "title"}, res.firstLoc(t))
	})

	t.Run("unknown route and method", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(t, h, http.MethodGet, "/nope", nil, nil).Code)
		res := serve(t, h, http.MethodPut, "/posts", nil, nil)
		require.Equal(t, http.StatusMethodNotAllowed, res.Code)
		assert.Equal(t, "Method Not Allowed", res.json(t)["detail"])
	})
}

func TestApp_TokenFlow(t *testing.T) {
	a := newTestApp(t)
	h := a.Handler

	reg := serve(t, h, http.MethodPost, "/register",
		strings.NewReader(`{"email":"ada@example.com","password":"analytical"}`), nil)
	require.Equal(t, http.StatusCreated, reg.Code, reg.Body.String())
	user := reg.json(t)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, user, "hashed_password")

	dup := serve(t, h, http.MethodPost, "/register",
		strings.NewReader(`{"email":"ada@example.com","password":"again"}`), nil)
	require.Equal(t, http.StatusBadRequest, dup.Code)
	assert.Equal(t, "Email already exists", dup.json(t)["detail"])

	form := http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}
	bad := serve(t, h, http.MethodPost, "/token",
		strings.NewReader(url.Values{"username": {"ada@example.com"}, "password": {"wrong"}}.Encode()), form)
	require.Equal(t, http.StatusUnauthorized, bad.Code)
	assert.Equal(t, "Incorrect email or password", bad.json(t)["detail"])

	tok := serve(t, h, http.MethodPost, "/token",
		strings.NewReader(url.Values{"username": {"ada@example.com"}, "password": {"analytical"}}.Encode()), form)
	require.Equal(t, http.StatusOK, tok.Code, tok.Body.String())
	body := tok.json(t)
	assert.Equal(t, "bearer", body["token_type"])
	token := body["access_token"].(string)

	anon := serve(t, h, http.MethodGet, "/protected-route", nil, nil)
	require.Equal(t, http.StatusUnauthorized, anon.Code)
	assert.Equal(t, "Bearer", anon.Header().Get("WWW-Authenticate"))

	me := serve(t, h, http.MethodGet, "/protected-route", nil, http.Header{"Authorization": {"Bearer " + token}})
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, user["id"], me.json(t)["id"])

	forged := serve(t, h, http.MethodGet, "/protected-route", nil, http.Header{"Authorization": {"Bearer forged"}})
	assert.Equal(t, http.StatusUnauthorized, forged.Code)
}

func TestApp_CookieSessionWithCSRF(t *testing.T) {
	a := newTestApp(t)
	srv := httptest.NewServer(a.Handler)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	reg, err := client.Post(srv.URL+"/register", "application/json",
		strings.NewReader(`{"email":"grace@example.com","password":"cobol"}`))
	require.NoError(t, err)
	reg.Body.Close()
	require.Equal(t, http.StatusCreated, reg.StatusCode)

	login, err := client.PostForm(srv.URL+"/login", url.Values{"email": {"grace@example.com"}, "password": {"cobol"}})
	require.NoError(t, err)
	login.Body.Close()
	require.Equal(t, http.StatusNoContent, login.StatusCode)

	me, err := client.Get(srv.URL + "/me")
	require.NoError(t, err)
	var user map[string]any
	require.NoError(t, json.NewDecoder(me.Body).Decode(&user))
	me.Body.Close()
	require.Equal(t, http.StatusOK, me.StatusCode)
	assert.Equal(t, "grace@example.com", user["email"])

	// The session cookie makes unsafe requests require the CSRF header.
	noHeader, err := client.Post(srv.URL+"/me", "application/json", strings.NewReader(`{"email":"hopper@example.com"}`))
	require.NoError(t, err)
	noHeader.Body.Close()
	require.Equal(t, http.StatusForbidden, noHeader.StatusCode)

	csrfRes, err := client.Get(srv.URL + "/csrf")
	require.NoError(t, err)
	var csrf struct {
		Token string `json:"csrf_token"`
	}
	require.NoError(t, json.NewDecoder(csrfRes.Body).Decode(&csrf))
	csrfRes.Body.Close()
	require.NotEmpty(t, csrf.Token)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/me", strings.NewReader(`{"email":"hopper@example.com"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRFToken", csrf.Token)
	updated, err := client.Do(req)
	require.NoError(t, err)
	var after map[string]any
	require.NoError(t, json.NewDecoder(updated.Body).Decode(&after))
	updated.Body.Close()
	require.Equal(t, http.StatusOK, updated.StatusCode)
	assert.Equal(t, "hopper@example.com", after["email"])
	assert.Equal(t, user["id"], after["id"])
}

func TestApp_Guards(t *testing.T) {
	a := newTestApp(t)
	h := a.Handler

	tests := []struct {
		name   string
		path   string
		header http.Header
		want   int
	}{
		{"api token accepted", "/api-token/protected-route", http.Header{"Token": {"SECRET_API_TOKEN"}}, http.StatusOK},
		{"api token wrong", "/api-token/protected-route", http.Header{"Token": {"nope"}}, http.StatusForbidden},
		{"api token missing", "/api-token/protected-route", nil, http.StatusForbidden},
		{"secret header accepted", "/secret/protected-route", http.Header{"Secret-Header": {"SECRET_VALUE"}}, http.StatusOK},
		{"router group accepted", "/router/route2", http.Header{"Secret-Header": {"SECRET_VALUE"}}, http.StatusOK},
		{"router group rejected", "/router/route1", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := serve(t, h, http.MethodGet, tt.path, nil, tt.header)
			assert.Equal(t, tt.want, res.Code, res.Body.String())
		})
	}
}

func TestApp_Showcase(t *testing.T) {
	a := newTestApp(t)
	h := a.Handler

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		header   http.Header
		want     int
		wantBody string
	}{
		{"user by type", http.MethodGet, "/users/admin/7", "", nil, http.StatusOK, `{"id":7,"type":"admin"}`},
		{"user by unknown type", http.MethodGet, "/users/root/7", "", nil, http.StatusUnprocessableEntity, ""},
		{"user id below one", http.MethodGet, "/users/0", "", nil, http.StatusUnprocessableEntity, ""},
		{"user id not a number", http.MethodGet, "/users/abc", "", nil, http.StatusUnprocessableEntity, ""},
		{"list users", http.MethodGet, "/users?page=2&size=5&format=short", "", nil, http.StatusOK, `{"format":"short","page":2,"size":5}`},
		{"list users without format", http.MethodGet, "/users", "", nil, http.StatusOK, `{"format":null,"page":1,"size":10}`},
		{"license plate", http.MethodGet, "/license-plates/AB-123-CD", "", nil, http.StatusOK, `{"license":"AB-123-CD"}`},
		{"bad license plate", http.MethodGet, "/license-plates/ABC", "", nil, http.StatusUnprocessableEntity, ""},
		{"items capped", http.MethodGet, "/items?skip=5&limit=500", "", nil, http.StatusOK, `{"skip":5,"limit":50}`},
		{"things", http.MethodGet, "/things?page=3&size=20", "", nil, http.StatusOK, `{"page":3,"size":20}`},
		{"things page zero", http.MethodGet, "/things?page=0", "", nil, http.StatusUnprocessableEntity, ""},
		{"hello header", http.MethodGet, "/headers/hello", "", http.Header{"Hello": {"World"}}, http.StatusOK, `{"hello":"World"}`},
		{"hello header missing", http.MethodGet, "/headers/hello", "", nil, http.StatusUnprocessableEntity, ""},
		{"request path", http.MethodGet, "/request", "", nil, http.StatusOK, `{"path":"/request"}`},
		{"new url", http.MethodGet, "/new-url", "", nil, http.StatusOK, `{"message":"You have been redirected"}`},
		{"passwords match", http.MethodPost, "/password", `{"password":"a","password_confirm":"a"}`, nil, http.StatusOK, `{"message":"Passwords match."}`},
		{"passwords differ", http.MethodPost, "/password", `{"password":"a","password_confirm":"b"}`, nil, http.StatusBadRequest, ""},
		{"priority", http.MethodPost, "/users/priority", `{"user":{"name":"Ann","age":30},"priority":2}`, nil, http.StatusOK, `{"user":{"name":"Ann","age":30},"priority":2}`},
		{"priority out of range", http.MethodPost, "/users/priority", `{"user":{"name":"Ann","age":30},"priority":4}`, nil, http.StatusUnprocessableEntity, ""},
		{"values from string", http.MethodPost, "/values", `{"values":"1,2,3"}`, nil, http.StatusOK, `{"values":[1,2,3]}`},
		{"values from list", http.MethodPost, "/values", `{"values":[4,5]}`, nil, http.StatusOK, `{"values":[4,5]}`},
		{"registration mismatch", http.MethodPost, "/registrations", `{"email":"a@example.com","password":"x","password_confirmation":"y"}`, nil, http.StatusUnprocessableEntity, ""},
		{"person", http.MethodPost, "/persons", `{"first_name":"John","last_name":"Doe","gender":"MALE"}`, nil, http.StatusCreated, `{"first_name":"John","last_name":"Doe","gender":"MALE","interests":[]}`},
		{"person short name", http.MethodPost, "/persons", `{"first_name":"Jo","last_name":"Doe"}`, nil, http.StatusUnprocessableEntity, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			res := serve(t, h, tt.method, tt.path, body, tt.header)
			require.Equal(t, tt.want, res.Code, res.Body.String())
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, res.Body.String())
			}
		})
	}
}

func TestApp_ShowcaseResponses(t *testing.T) {
	a := newTestApp(t)
	h := a.Handler

	redirect := serve(t, h, http.MethodGet, "/redirect", nil, nil)
	assert.Equal(t, http.StatusTemporaryRedirect, redirect.Code)
	assert.Equal(t, "/new-url", redirect.Header().Get("Location"))

	custom := serve(t, h, http.MethodGet, "/custom-header", nil, nil)
	assert.Equal(t, "Custom-Header-Value", custom.Header().Get("Custom-Header"))

	cookie := serve(t, h, http.MethodGet, "/cookie", nil, nil)
	assert.Contains(t, cookie.Header().Values("Set-Cookie"), "cookie-name=cookie-value; Max-Age=86400")

	xml := serve(t, h, http.MethodGet, "/xml", nil, nil)
	assert.Equal(t, "application/xml", xml.Header().Get("Content-Type"))
	assert.Contains(t, xml.Body.String(), "<Hello>World</Hello>")

	cat := serve(t, h, http.MethodGet, "/cat", nil, nil)
	assert.Equal(t, "image/svg+xml", cat.Header().Get("Content-Type"))

	ua := serve(t, h, http.MethodGet, "/headers/user-agent", nil, http.Header{"User-Agent": {"quill-test"}})
	assert.JSONEq(t, `{"user_agent":"quill-test"}`, ua.Body.String())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("twelve bytes"))
	require.NoError(t, mw.Close())
	upload := serve(t, h, http.MethodPost, "/files", &buf, http.Header{"Content-Type": {mw.FormDataContentType()}})
	require.Equal(t, http.StatusOK, upload.Code, upload.Body.String())
	assert.JSONEq(t, `{"file_size":12}`, upload.Body.String())

	form := serve(t, h, http.MethodPost, "/users/form", strings.NewReader("name=Ann&age=thirty"),
		http.Header{"Content-Type": {"application/x-www-form-urlencoded"}})
	assert.Equal(t, []any{"form", "age"}, form.firstLoc(t))
}

func TestApp_InferenceAndIntegrations(t *testing.T) {
	a := newTestApp(t)
	h := a.Handler

	predicted := serve(t, h, http.MethodPost, "/prediction", strings.NewReader(`{"text":"never reuse your encryption key"}`), nil)
	require.Equal(t, http.StatusOK, predicted.Code, predicted.Body.String())
	assert.JSONEq(t, `{"category":"sci.crypt"}`, predicted.Body.String())

	// The second call is served from the cache.
	again := serve(t, h, http.MethodPost, "/prediction", strings.NewReader(`{"text":"never reuse your encryption key"}`), nil)
	require.Equal(t, http.StatusOK, again.Code)

	cleared := serve(t, h, http.MethodDelete, "/cache", nil, nil)
	assert.Equal(t, http.StatusNoContent, cleared.Code)

	face := serve(t, h, http.MethodPost, "/face-detection", strings.NewReader(""), nil)
	require.Equal(t, http.StatusServiceUnavailable, face.Code)
	assert.Equal(t, "Face detector not loaded", face.json(t)["detail"])

	employees := serve(t, h, http.MethodGet, "/employees", nil, nil)
	require.Equal(t, http.StatusOK, employees.Code)
	assert.JSONEq(t, employeesBody, employees.Body.String())

	metrics := serve(t, h, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "quill_prediction_cache_hits_total 1\n")
	assert.Contains(t, metrics.Body.String(), "quill_prediction_cache_misses_total 1\n")
}

func TestApp_Probes(t *testing.T) {
	a := newTestApp(t)
	h := a.Handler

	healthz := serve(t, h, http.MethodGet, "/healthz", nil, nil)
	assert.JSONEq(t, `{"status":"ok"}`, healthz.Body.String())

	readyz := serve(t, h, http.MethodGet, "/readyz", nil, nil)
	require.Equal(t, http.StatusOK, readyz.Code, readyz.Body.String())
	checks, ok := readyz.json(t)["checks"].(map[string]any)
	require.True(t, ok, readyz.Body.String())
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "ok", checks["redis"])
}

func TestNew_BadClassifierPathFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.ClassifierModelPath = filepath.Join(t.TempDir(), "missing.json")

	_, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load classifier")
}

// lockedBuffer collects log output written from background goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNew_WarnsAboutDevCSRFSecret(t *testing.T) {
	for name, tc := range map[string]struct {
		secret   string
		wantWarn bool
	}{
		"development secret": {config.DevCSRFSecret, true},
		"configured secret":  {"a-real-secret", false},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.CSRFSecret = tc.secret

			var logs lockedBuffer
			a, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(&logs, nil)))
			require.NoError(t, err)
			t.Cleanup(func() { _ = a.Close(context.Background()) })

			assert.Equal(t, tc.wantWarn, strings.Contains(logs.String(), "CSRF_SECRET is not set"), logs.String())
		})
	}
}

func TestDialect(t *testing.T) {
	_, err := Dialect(config.DriverSQLite)
	require.NoError(t, err)
	_, err = Dialect(config.DriverPostgres)
	require.NoError(t, err)
	_, err = Dialect("mysql")
	assert.Error(t, err)
}
