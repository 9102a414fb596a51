package web

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Zachkp/folio/internal/adminview"
	"github.com/Zachkp/folio/internal/auth"
	"github.com/Zachkp/folio/internal/contact"
	"github.com/Zachkp/folio/internal/domain"
	"github.com/Zachkp/folio/internal/keepalive"
	"github.com/Zachkp/folio/internal/kv"
	"github.com/Zachkp/folio/internal/media"
	"github.com/Zachkp/folio/internal/projects"
	"github.com/Zachkp/folio/internal/site"
	"github.com/Zachkp/folio/internal/store/sqlstore"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "hunter2"
)

type testEnv struct {
	router   *gin.Engine
	contact  *contact.Service
	cdnCalls *atomic.Int32
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlstore.Open(context.Background(), sqlstore.SQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { db.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	store := kv.NewMemory()
	provider, err := auth.NewLocalProvider(adminEmail, "", string(hash), store, time.Hour)
	require.NoError(t, err)

	broker := auth.NewBroker()
	gate := auth.NewGate(provider, auth.NewSessions([]byte("0123456789abcdef0123456789abcdef"), false, store, time.Hour), broker, nil)

	projectSvc := projects.NewService(db.Projects())
	contactSvc := contact.NewService(db.Messages(), nil)
	views := adminview.NewRegistry(projectSvc, contactSvc, broker)
	t.Cleanup(views.Close)

	calls := &atomic.Int32{}
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"secure_url":"https://res.cloudinary.com/demo/image/upload/v1/p.png","public_id":"p"}`)
	}))
	t.Cleanup(cdn.Close)

	r := NewRouter(Deps{
		ServiceName:    "folio",
		Version:        "test",
		Backend:        "sqlite",
		CORSOrigins:    []string{"*"},
		MaxUploadBytes: 8 << 20,
		Content:        site.Default(),
		Projects:       projectSvc,
		Contact:        contactSvc,
		Gate:           gate,
		Views:          views,
		Uploader:       media.NewUploader("demo", "portfolio", media.WithAPIBase(cdn.URL)),
		KeepAlive:      keepalive.NewHandler(db),
		Pinger:         db,
	})
	return &testEnv{router: r, contact: contactSvc, cdnCalls: calls}
}

func (e *testEnv) do(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func formRequest(method, path string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(method, path string, body any) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (e *testEnv) login(t *testing.T) []*http.Cookie {
	t.Helper()
	w := e.do(formRequest(http.MethodPost, "/admin/login", url.Values{
		"email":    {adminEmail},
		"password": {adminPassword},
	}), nil)
	require.Equal(t, http.StatusFound, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	env := setupEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "sqlite", body["backend"])
	assert.Equal(t, "up", body["db"])
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestKeepAlive(t *testing.T) {
	env := setupEnv(t)

	w := env.do(httptest.NewRequest(http.MethodPost, "/api/keep-alive", nil), nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Method not allowed", decode(t, w)["error"])

	req := httptest.NewRequest(http.MethodGet, "/api/keep-alive", nil)
	req.Header.Set("Origin", "https://monitor.example.com")
	w = env.do(req, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPublicPages(t *testing.T) {
	env := setupEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Zach Kordas-Potter")
	assert.Contains(t, w.Body.String(), "No projects yet.")

	w = env.do(httptest.NewRequest(http.MethodGet, "/experience-content", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Target")

	w = env.do(httptest.NewRequest(http.MethodGet, "/education-content", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Western Governors University")

	w = env.do(httptest.NewRequest(http.MethodGet, "/projects/missing", nil), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Project not found")
}

func TestContactSubmission(t *testing.T) {
	env := setupEnv(t)

	w := env.do(formRequest(http.MethodPost, "/contact", url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"message": {"  Hello there  "},
	}), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Thank you for your message!")
	env.contact.Wait()

	msgs, err := env.contact.List(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Hello there", msgs[0].Message)

	w = env.do(formRequest(http.MethodPost, "/contact", url.Values{
		"name":    {""},
		"email":   {"ada@example.com"},
		"message": {"Hello"},
	}), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Please fill in your name, email and message.")
	assert.Contains(t, w.Body.String(), "ada@example.com")
}

func TestAdminGate(t *testing.T) {
	env := setupEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/admin/projects/panel", nil), nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/login?next=%2Fadmin%2Fprojects%2Fpanel", w.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/admin/projects/panel", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Current-URL", "http://localhost/admin/messages")
	w = env.do(req, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/admin/login?next=%2Fadmin%2Fmessages", w.Header().Get("HX-Redirect"))

	w = env.do(httptest.NewRequest(http.MethodGet, "/admin/api/projects", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "not authenticated", decode(t, w)["error"])

	// the shell renders without a session and shows the loading state
	w = env.do(httptest.NewRequest(http.MethodGet, "/admin/projects", nil), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `hx-get="/admin/projects/panel"`)
	assert.Contains(t, w.Body.String(), "Loading...")
}

func TestLogin(t *testing.T) {
	env := setupEnv(t)

	w := env.do(formRequest(http.MethodPost, "/admin/login", url.Values{
		"email":    {adminEmail},
		"password": {"wrong"},
	}), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")

	req := formRequest(http.MethodPost, "/admin/login", url.Values{
		"email":    {adminEmail},
		"password": {adminPassword},
		"next":     {"/admin/messages"},
	})
	req.Header.Set("HX-Request", "true")
	w = env.do(req, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "/admin/messages", w.Header().Get("HX-Redirect"))

	cookies := env.login(t)
	w = env.do(httptest.NewRequest(http.MethodGet, "/admin/messages/panel", nil), cookies)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No messages yet.")

	w = env.do(httptest.NewRequest(http.MethodPost, "/admin/logout", nil), cookies)
	assert.Equal(t, http.StatusFound, w.Code)

	w = env.do(httptest.NewRequest(http.MethodGet, "/admin/messages/panel", nil), cookies)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/admin/messages", safeNext("/admin/messages"))
	assert.Equal(t, "/admin/projects", safeNext("https://evil.example.com/admin/"))
	assert.Equal(t, "/admin/projects", safeNext("//evil.example.com"))
	assert.Equal(t, "/admin/projects", safeNext(""))
}

func TestAdminAPIProjects(t *testing.T) {
	env := setupEnv(t)
	cookies := env.login(t)

	draft := domain.ProjectDraft{
		Title:        "Folio",
		Description:  "Portfolio site",
		Technologies: "Go, HTMX , ",
		GitHub:       "https://github.com/Zachkp/folio",
		LiveDemo:     "https://zach.dev",
	}

	w := env.do(jsonRequest(http.MethodPost, "/admin/api/projects", draft), cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["data"].(map[string]any)
	id := created["id"].(string)
	assert.Equal(t, []any{"Go", "HTMX"}, created["technologies"])

	w = env.do(httptest.NewRequest(http.MethodGet, "/admin/api/projects", nil), cookies)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Nil(t, body["error"])
	assert.Len(t, body["data"], 1)

	draft.Title = "Folio v2"
	w = env.do(jsonRequest(http.MethodPut, "/admin/api/projects/"+id, draft), cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Folio v2", decode(t, w)["data"].(map[string]any)["title"])

	w = env.do(jsonRequest(http.MethodPost, "/admin/api/projects", domain.ProjectDraft{Title: "no body"}), cookies)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(httptest.NewRequest(http.MethodDelete, "/admin/api/projects/"+id, nil), cookies)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(httptest.NewRequest(http.MethodDelete, "/admin/api/projects/"+id, nil), cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(httptest.NewRequest(http.MethodGet, "/admin/api/projects/"+id, nil), cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminProjectsPanel(t *testing.T) {
	env := setupEnv(t)
	cookies := env.login(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/admin/projects/panel", nil), cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No projects yet.")

	w = env.do(httptest.NewRequest(http.MethodGet, "/admin/projects/new", nil), cookies)
	assert.Contains(t, w.Body.String(), "Add New Project")

	w = env.do(formRequest(http.MethodPost, "/admin/projects", url.Values{
		"title":        {"Folio"},
		"description":  {"Portfolio site"},
		"technologies": {"Go"},
		"github":       {"https://github.com/Zachkp/folio"},
	}), cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "liveDemo is required")

	w = env.do(formRequest(http.MethodPost, "/admin/projects", url.Values{
		"title":        {"Folio"},
		"description":  {"Portfolio site"},
		"technologies": {"Go"},
		"github":       {"https://github.com/Zachkp/folio"},
		"liveDemo":     {"https://zach.dev"},
	}), cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Folio")
	assert.NotContains(t, w.Body.String(), "Add New Project")

	list := env.do(jsonRequest(http.MethodGet, "/admin/api/projects", nil), cookies)
	id := decode(t, list)["data"].([]any)[0].(map[string]any)["id"].(string)

	w = env.do(httptest.NewRequest(http.MethodDelete, "/admin/projects/"+id, nil), cookies)
	assert.Contains(t, w.Body.String(), "Delete was not confirmed.")

	w = env.do(httptest.NewRequest(http.MethodDelete, "/admin/projects/"+id+"?confirmed=true", nil), cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No projects yet.")
}

func TestAdminProjectsEditTargetsSubmittedProject(t *testing.T) {
	env := setupEnv(t)
	cookies := env.login(t)

	draft := domain.ProjectDraft{
		Title:        "Folio",
		Description:  "Portfolio site",
		Technologies: "Go",
		GitHub:       "https://github.com/Zachkp/folio",
		LiveDemo:     "https://zach.dev",
	}
	w := env.do(jsonRequest(http.MethodPost, "/admin/api/projects", draft), cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["data"].(map[string]any)["id"].(string)

	env.do(httptest.NewRequest(http.MethodGet, "/admin/projects/panel", nil), cookies)
	w = env.do(httptest.NewRequest(http.MethodGet, "/admin/projects/"+id+"/edit", nil), cookies)
	assert.Contains(t, w.Body.String(), `hx-post="/admin/projects/`+id+`"`)

	// a second tab of the same session opens the create form
	w = env.do(httptest.NewRequest(http.MethodGet, "/admin/projects/new", nil), cookies)
	assert.Contains(t, w.Body.String(), `hx-post="/admin/projects"`)

	w = env.do(formRequest(http.MethodPost, "/admin/projects/"+id, url.Values{
		"title":        {"Folio v2"},
		"description":  {"Portfolio site"},
		"technologies": {"Go, HTMX"},
		"github":       {"https://github.com/Zachkp/folio"},
		"liveDemo":     {"https://zach.dev"},
	}), cookies)
	require.Equal(t, http.StatusOK, w.Code)

	list := decode(t, env.do(jsonRequest(http.MethodGet, "/admin/api/projects", nil), cookies))["data"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].(map[string]any)["id"])
	assert.Equal(t, "Folio v2", list[0].(map[string]any)["title"])
}

func multipartImage(t *testing.T, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="shot.png"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestUpload(t *testing.T) {
	env := setupEnv(t)
	cookies := env.login(t)

	big := append(append([]byte{}, pngHeader...), make([]byte, 6<<20)...)
	w := env.do(multipartImage(t, "image/png", big), cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Image size must be less than 5MB", decode(t, w)["error"])

	w = env.do(multipartImage(t, "text/plain", []byte("just some text")), cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please select a valid image file", decode(t, w)["error"])

	assert.Zero(t, env.cdnCalls.Load())

	w = env.do(multipartImage(t, "image/png", pngHeader), cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/v1/p.png", decode(t, w)["url"])
	assert.EqualValues(t, 1, env.cdnCalls.Load())
}

func TestAuthEvents(t *testing.T) {
	env := setupEnv(t)
	cookies := env.login(t)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/admin/api/auth/events", nil)
	require.NoError(t, err)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	lines := bufio.NewScanner(resp.Body)
	readEvent := func() string {
		for lines.Scan() {
			if name, ok := strings.CutPrefix(lines.Text(), "event:"); ok {
				return name
			}
		}
		return ""
	}
	assert.Equal(t, "state", readEvent())

	logout := env.do(httptest.NewRequest(http.MethodPost, "/admin/logout", nil), cookies)
	require.Equal(t, http.StatusFound, logout.Code)

	assert.Equal(t, "auth", readEvent())
	require.True(t, lines.Scan())
	assert.Contains(t, lines.Text(), string(auth.SignedOut))

	// the stream closes after sign-out
	assert.Equal(t, "", readEvent())
}
